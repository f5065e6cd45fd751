package login

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

func TestValidateUsernameBoundaries(t *testing.T) {
	require.NoError(t, ValidateUsername("Steve"))
	require.Error(t, ValidateUsername(""))
	require.Error(t, ValidateUsername("thisnameiswaytoolongformc"))
	require.Error(t, ValidateUsername("bad name")) // space is 0x20, below 33
}

func TestOfflineResolverIsDeterministic(t *testing.T) {
	r := OfflineResolver{}
	p1, err := r.Resolve(context.Background(), "Alice", "", "")
	require.NoError(t, err)
	p2, err := r.Resolve(context.Background(), "Alice", "", "")
	require.NoError(t, err)
	require.Equal(t, p1.ID, p2.ID)

	p3, _ := r.Resolve(context.Background(), "Bob", "", "")
	require.NotEqual(t, p1.ID, p3.ID)
}

func TestProfileHashKnownSign(t *testing.T) {
	// SHA-1 of bytes 01..06 starts with 0x5d (top bit clear), so the hash
	// must render without a '-' prefix.
	hash := ProfileHash("", []byte{1, 2, 3}, []byte{4, 5, 6})
	require.NotEmpty(t, hash)
	require.NotEqual(t, byte('-'), hash[0])
}

func TestParseBungeeHandshake(t *testing.T) {
	id := uuid.New()
	props, _ := json.Marshal([]bungeeProperty{{Name: "textures", Value: "abc", Signature: "sig"}})
	addr := "play.example.com\x00" + "1.2.3.4" + "\x00" + id.String() + "\x00" + string(props)

	profile, ip, err := ParseBungeeHandshake(addr)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", ip)
	require.Equal(t, id, profile.ID)
	require.Len(t, profile.Properties, 1)
	require.Equal(t, "textures", profile.Properties[0].Name)
}

func TestParseBungeeHandshakeMalformed(t *testing.T) {
	_, _, err := ParseBungeeHandshake("not-enough-parts")
	require.Error(t, err)
}

func buildVelocityPayload(t *testing.T, secret []byte, address, username string, id uuid.UUID) []byte {
	t.Helper()
	var signed bytes.Buffer
	_, err := protocol.WriteVarInt(&signed, velocitySupportedVersion)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteString(&signed, address))
	require.NoError(t, protocol.WriteUUID(&signed, id))
	require.NoError(t, protocol.WriteString(&signed, username))
	_, err = protocol.WriteVarInt(&signed, 0) // zero properties
	require.NoError(t, err)

	mac := hmac.New(sha256.New, secret)
	mac.Write(signed.Bytes())

	var full bytes.Buffer
	full.Write(mac.Sum(nil))
	full.Write(signed.Bytes())
	return full.Bytes()
}

func TestParseVelocityResponseRoundTrip(t *testing.T) {
	secret := []byte("shared-forwarding-secret")
	id := uuid.New()
	payload := buildVelocityPayload(t, secret, "10.0.0.5", "Carol", id)

	profile, address, err := ParseVelocityResponse(secret, payload)
	require.NoError(t, err)
	require.Equal(t, id, profile.ID)
	require.Equal(t, "Carol", profile.Name)
	require.Equal(t, "10.0.0.5", address)
}

func TestParseVelocityResponseRejectsBadSignature(t *testing.T) {
	payload := buildVelocityPayload(t, []byte("secret-a"), "10.0.0.5", "Carol", uuid.New())
	_, _, err := ParseVelocityResponse([]byte("secret-b"), payload)
	require.Error(t, err)
}

func signTexture(t *testing.T, priv *rsa.PrivateKey, value string) string {
	t.Helper()
	digest := sha1.Sum([]byte(value))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA1, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func TestValidateTextureAcceptsFreshSignedEntry(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	payload := map[string]any{
		"timestamp": time.Now().UnixMilli(),
		"textures": map[string]any{
			"SKIN": map[string]string{"url": "https://textures.example.com/abc"},
		},
	}
	raw, _ := json.Marshal(payload)
	value := base64.StdEncoding.EncodeToString(raw)

	prop := TextureProperty{Name: "textures", Value: value, Signature: signTexture(t, priv, value)}
	cfg := TextureValidationConfig{
		AuthorityKey:    &priv.PublicKey,
		FreshnessWindow: time.Hour,
		AllowedHosts:    map[string]bool{"textures.example.com": true},
	}
	require.NoError(t, ValidateTexture(time.Now(), cfg, prop))
}

func TestValidateTextureRejectsUnlistedHost(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	payload := map[string]any{
		"timestamp": time.Now().UnixMilli(),
		"textures": map[string]any{
			"SKIN": map[string]string{"url": "https://evil.example.com/abc"},
		},
	}
	raw, _ := json.Marshal(payload)
	value := base64.StdEncoding.EncodeToString(raw)

	prop := TextureProperty{Name: "textures", Value: value, Signature: signTexture(t, priv, value)}
	cfg := TextureValidationConfig{
		AuthorityKey:    &priv.PublicKey,
		FreshnessWindow: time.Hour,
		AllowedHosts:    map[string]bool{"textures.example.com": true},
	}
	require.Error(t, ValidateTexture(time.Now(), cfg, prop))
}

func TestValidateTextureRejectsStaleTimestamp(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	payload := map[string]any{
		"timestamp": time.Now().Add(-48 * time.Hour).UnixMilli(),
		"textures": map[string]any{
			"SKIN": map[string]string{"url": "https://textures.example.com/abc"},
		},
	}
	raw, _ := json.Marshal(payload)
	value := base64.StdEncoding.EncodeToString(raw)

	prop := TextureProperty{Name: "textures", Value: value, Signature: signTexture(t, priv, value)}
	cfg := TextureValidationConfig{
		AuthorityKey:    &priv.PublicKey,
		FreshnessWindow: time.Hour,
		AllowedHosts:    map[string]bool{"textures.example.com": true},
	}
	require.Error(t, ValidateTexture(time.Now(), cfg, prop))
}
