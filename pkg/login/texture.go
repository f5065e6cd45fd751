package login

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// TextureValidationConfig bounds what texture properties this server
// will accept: a pinned authority public key for signature checks, a
// freshness window for the embedded timestamp, and an allow-list of
// hostnames the skin/cape URLs may point at.
type TextureValidationConfig struct {
	AuthorityKey    *rsa.PublicKey
	FreshnessWindow time.Duration
	AllowedHosts    map[string]bool
}

type texturesPayload struct {
	Timestamp int64 `json:"timestamp"`
	Textures  struct {
		Skin struct {
			URL string `json:"url"`
		} `json:"SKIN"`
		Cape struct {
			URL string `json:"url"`
		} `json:"CAPE"`
	} `json:"textures"`
}

// ValidateTexture checks a signed texture property per §4.4: the
// signature must verify against the pinned authority, the embedded
// timestamp must fall within the freshness window of now, and every
// texture URL's host must be allow-listed.
func ValidateTexture(now time.Time, cfg TextureValidationConfig, prop TextureProperty) error {
	if prop.Signature == "" {
		return fmt.Errorf("login: texture property %q is unsigned", prop.Name)
	}
	if cfg.AuthorityKey == nil {
		return fmt.Errorf("login: no texture authority key configured")
	}

	sig, err := base64.StdEncoding.DecodeString(prop.Signature)
	if err != nil {
		return fmt.Errorf("login: malformed texture signature: %w", err)
	}
	digest := sha1.Sum([]byte(prop.Value))
	if err := rsa.VerifyPKCS1v15(cfg.AuthorityKey, crypto.SHA1, digest[:], sig); err != nil {
		return fmt.Errorf("login: texture signature verification failed: %w", err)
	}

	rawJSON, err := base64.StdEncoding.DecodeString(prop.Value)
	if err != nil {
		return fmt.Errorf("login: malformed texture payload: %w", err)
	}
	var payload texturesPayload
	if err := json.Unmarshal(rawJSON, &payload); err != nil {
		return fmt.Errorf("login: malformed texture JSON: %w", err)
	}

	issued := time.UnixMilli(payload.Timestamp)
	age := now.Sub(issued)
	if age < 0 {
		age = -age
	}
	if age > cfg.FreshnessWindow {
		return fmt.Errorf("login: texture timestamp %s outside freshness window", issued)
	}

	for _, rawURL := range []string{payload.Textures.Skin.URL, payload.Textures.Cape.URL} {
		if rawURL == "" {
			continue
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("login: malformed texture URL %q: %w", rawURL, err)
		}
		if !cfg.AllowedHosts[u.Hostname()] {
			return fmt.Errorf("login: texture host %q not on allow-list", u.Hostname())
		}
	}
	return nil
}
