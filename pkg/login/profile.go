// Package login implements the §4.4 Login Orchestrator: the online-mode
// encryption/authentication handshake, offline-mode fallback, proxy
// forwarding variants, and texture-property validation.
package login

import (
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
)

// TextureProperty is one signed property entry of a game profile (the
// "textures" property carries the skin/cape URLs, base64-encoded JSON).
type TextureProperty struct {
	Name      string
	Value     string
	Signature string // base64, empty if unsigned
}

// GameProfile is the authenticated identity bound to a connection once
// login completes: a UUID, a username, and zero or more signed
// properties (skin/cape textures).
type GameProfile struct {
	ID         uuid.UUID
	Name       string
	Properties []TextureProperty
}

// offlineUUID derives the deterministic UUID vanilla servers use for a
// username when online-mode is off: an MD5 over the bytes of
// "OfflinePlayer:<name>" (no namespace UUID is prepended), with the
// version-3 and RFC 4122 variant bits set, matching the teacher's
// offlineUUID intent but replacing the teacher's toy XOR hash.
func offlineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // variant 10
	id, _ := uuid.FromBytes(sum[:])
	return id
}

// ValidateUsername applies §4.3's Login Start name validation: length in
// [1,16], every byte in the printable-ASCII range 33..126.
func ValidateUsername(name string) error {
	if len(name) < 1 || len(name) > 16 {
		return fmt.Errorf("login: username length %d out of range [1,16]", len(name))
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < 33 || c > 126 {
			return fmt.Errorf("login: invalid characters in username")
		}
	}
	return nil
}
