package login

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ProfileResolver binds a username, client IP, and server-id hash to a
// signed GameProfile. Implementations cover online mode (an external
// HTTP auth service) and offline mode (deterministic local UUIDs); the
// auth HTTP client's own protocol is out of scope per the Non-goals, so
// OnlineResolver's request shape is illustrative of the seam, not a
// pinned third-party API.
type ProfileResolver interface {
	Resolve(ctx context.Context, username, serverIDHash, clientIP string) (GameProfile, error)
}

// OfflineResolver implements ProfileResolver for online-mode=false: the
// profile is trusted as-is, with a deterministic UUID.
type OfflineResolver struct{}

// Resolve returns a profile derived only from username; serverIDHash and
// clientIP are unused in offline mode.
func (OfflineResolver) Resolve(_ context.Context, username, _, _ string) (GameProfile, error) {
	return GameProfile{ID: offlineUUID(username), Name: username}, nil
}

// OnlineResolver calls an external session-server endpoint (the
// Mojang-compatible `hasJoined` shape) to verify a client actually holds
// the session it claims, returning the authoritative profile including
// signed texture properties.
type OnlineResolver struct {
	Client   *http.Client
	Endpoint string // e.g. "https://sessionserver.example/session/minecraft/hasJoined"
	group    singleflight.Group
}

type hasJoinedResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Properties []struct {
		Name      string `json:"name"`
		Value     string `json:"value"`
		Signature string `json:"signature"`
	} `json:"properties"`
}

// Resolve performs the hasJoined lookup, collapsing concurrent duplicate
// lookups for the same username via singleflight (useful during a login
// burst, e.g. a proxy reconnect storm).
func (o *OnlineResolver) Resolve(ctx context.Context, username, serverIDHash, clientIP string) (GameProfile, error) {
	key := username + "|" + serverIDHash
	v, err, _ := o.group.Do(key, func() (any, error) {
		return o.doResolve(ctx, username, serverIDHash, clientIP)
	})
	if err != nil {
		return GameProfile{}, err
	}
	return v.(GameProfile), nil
}

func (o *OnlineResolver) doResolve(ctx context.Context, username, serverIDHash, clientIP string) (GameProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s?username=%s&serverId=%s&ip=%s", o.Endpoint, username, serverIDHash, clientIP)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GameProfile{}, err
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return GameProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GameProfile{}, fmt.Errorf("login: profile resolution failed with status %d", resp.StatusCode)
	}

	var body hasJoinedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return GameProfile{}, err
	}

	id, err := uuid.Parse(body.ID)
	if err != nil {
		return GameProfile{}, fmt.Errorf("login: malformed profile id %q: %w", body.ID, err)
	}

	props := make([]TextureProperty, 0, len(body.Properties))
	for _, p := range body.Properties {
		props = append(props, TextureProperty{Name: p.Name, Value: p.Value, Signature: p.Signature})
	}
	return GameProfile{ID: id, Name: body.Name, Properties: props}, nil
}

// ProfileHash computes the Mojang `hasJoined` server-id hash: SHA-1 over
// the server id string, the shared secret, and the server's public key
// (DER-encoded), interpreted as a signed big-endian integer and rendered
// in base 16 with no padding beyond a leading "-" for negative values.
func ProfileHash(serverID string, sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	sum := h.Sum(nil)

	n := new(big.Int).SetBytes(sum)
	// SHA-1 output's top bit set means the big-endian-interpreted value
	// would be negative under Java's BigInteger(byte[]) two's-complement
	// reading; replicate that by negating the two's complement.
	if sum[0]&0x80 != 0 {
		n = twosComplementNegate(sum)
		return "-" + n.Text(16)
	}
	return n.Text(16)
}

func twosComplementNegate(sum []byte) *big.Int {
	inv := make([]byte, len(sum))
	for i, b := range sum {
		inv[i] = ^b
	}
	n := new(big.Int).SetBytes(inv)
	n.Add(n, big.NewInt(1))
	return n
}
