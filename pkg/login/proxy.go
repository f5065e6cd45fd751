package login

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

// ProxyMode selects which (if any) forwarding proxy style fronts this
// server. Online-mode encryption is skipped for either: the profile is
// trusted from the proxy instead.
type ProxyMode int

const (
	ProxyNone ProxyMode = iota
	ProxyVelocity
	ProxyBungeeCord
)

// VelocityForwardingChannel is the plugin-message channel a Velocity
// proxy answers a player-info request on.
const VelocityForwardingChannel = "velocity:player_info"

// velocitySupportedVersion is the single forwarding payload version this
// server understands.
const velocitySupportedVersion = 1

// BuildVelocityRequestPayload returns the random challenge bytes to send
// as the Plugin Request payload.
func BuildVelocityRequestPayload(challenge [4]byte) []byte {
	return challenge[:]
}

// ParseVelocityResponse verifies and decodes a Velocity forwarding
// response: the first 32 bytes are an HMAC-SHA256 over the remainder
// keyed by the shared forwarding secret, followed by a version byte,
// the client's remote address, the forwarded profile's UUID, username,
// and a list of signed texture properties.
func ParseVelocityResponse(secret []byte, payload []byte) (GameProfile, string, error) {
	if len(payload) < sha256.Size+1 {
		return GameProfile{}, "", fmt.Errorf("login: velocity response too short")
	}
	signature := payload[:sha256.Size]
	signed := payload[sha256.Size:]

	mac := hmac.New(sha256.New, secret)
	mac.Write(signed)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return GameProfile{}, "", fmt.Errorf("login: velocity forwarding signature mismatch")
	}

	r := bytes.NewReader(signed)
	version, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return GameProfile{}, "", err
	}
	if version != velocitySupportedVersion {
		return GameProfile{}, "", fmt.Errorf("login: unsupported velocity forwarding version %d", version)
	}

	address, err := protocol.ReadString(r)
	if err != nil {
		return GameProfile{}, "", err
	}
	rawUUID, err := protocol.ReadUUID(r)
	if err != nil {
		return GameProfile{}, "", err
	}
	username, err := protocol.ReadStringCap(r, 16)
	if err != nil {
		return GameProfile{}, "", err
	}

	propCount, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return GameProfile{}, "", err
	}
	props := make([]TextureProperty, 0, propCount)
	for i := int32(0); i < propCount; i++ {
		name, err := protocol.ReadString(r)
		if err != nil {
			return GameProfile{}, "", err
		}
		value, err := protocol.ReadString(r)
		if err != nil {
			return GameProfile{}, "", err
		}
		signed, err := protocol.ReadBool(r)
		if err != nil {
			return GameProfile{}, "", err
		}
		var sig string
		if signed {
			if sig, err = protocol.ReadString(r); err != nil {
				return GameProfile{}, "", err
			}
		}
		props = append(props, TextureProperty{Name: name, Value: value, Signature: sig})
	}

	return GameProfile{ID: uuid.UUID(rawUUID), Name: username, Properties: props}, address, nil
}

// bungeeProperty mirrors the JSON shape BungeeCord embeds in the fourth
// handshake segment.
type bungeeProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature"`
}

// ParseBungeeHandshake extracts the forwarded address, profile, and
// properties from a Handshake's server_address field, which BungeeCord
// rewrites to "originalAddress\x00clientIP\x00uuid\x00propertiesJSON".
func ParseBungeeHandshake(serverAddress string) (profile GameProfile, clientIP string, err error) {
	parts := strings.Split(serverAddress, "\x00")
	if len(parts) < 3 {
		return GameProfile{}, "", fmt.Errorf("login: malformed bungeecord handshake address")
	}
	clientIP = parts[1]
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return GameProfile{}, "", fmt.Errorf("login: malformed bungeecord uuid: %w", err)
	}
	profile = GameProfile{ID: id}

	if len(parts) >= 4 && parts[3] != "" {
		var props []bungeeProperty
		if err := json.Unmarshal([]byte(parts[3]), &props); err != nil {
			return GameProfile{}, "", fmt.Errorf("login: malformed bungeecord properties: %w", err)
		}
		for _, p := range props {
			profile.Properties = append(profile.Properties, TextureProperty{Name: p.Name, Value: p.Value, Signature: p.Signature})
		}
	}
	return profile, clientIP, nil
}

// randomChallenge packs a uint32 seed big-endian into the 4-byte
// challenge shape BuildVelocityRequestPayload takes. Orchestrate does not
// call it: it draws its challenge bytes from crypto/rand directly.
func randomChallenge(seed uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], seed)
	return b
}
