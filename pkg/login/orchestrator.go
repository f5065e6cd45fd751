package login

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/pumpkincraft/pumpkincore/pkg/chat"
	"github.com/pumpkincraft/pumpkincore/pkg/conn"
	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

const (
	loginStartID        = 0x00
	encryptionRequestID = 0x01 // server -> client
	encryptionResponseID = 0x01 // client -> server
	loginSuccessID      = 0x02 // server -> client
	pluginResponseID    = 0x02 // client -> server
	setCompressionID    = 0x03 // server -> client
	loginAcknowledgedID = 0x03 // client -> server
	pluginRequestID     = 0x04 // server -> client
	disconnectLoginID   = 0x00 // server -> client
)

// Config bundles everything the orchestrator needs that isn't carried on
// the wire: the server's identity/keys, online-mode policy, and the
// pluggable profile resolver.
type Config struct {
	ServerID             string // almost always empty in modern protocol revisions
	OnlineMode           bool
	Proxy                ProxyMode
	ForwardingSecret     []byte
	CompressionThreshold int // -1 disables
	Keys                 *ServerKeyPair
	Resolver             ProfileResolver
	TextureValidation    *TextureValidationConfig
	ClientIP             string
}

// Result is what a completed login hands back to the caller for the
// Configuration phase and beyond.
type Result struct {
	Profile GameProfile
}

// Orchestrate drives the full §4.4 Login phase over jc: reads Login
// Start, branches into proxy forwarding or the online/offline resolver
// path, optionally negotiates compression, sends Login Success, and
// waits for Login Acknowledged.
func Orchestrate(ctx context.Context, jc *conn.JavaConn, hs conn.Handshake, cfg Config) (Result, error) {
	username, err := readLoginStart(jc)
	if err != nil {
		return Result{}, err
	}
	if err := ValidateUsername(username); err != nil {
		_ = sendLoginDisconnect(jc, "Invalid characters in username")
		return Result{}, err
	}

	var profile GameProfile
	clientIP := cfg.ClientIP

	switch cfg.Proxy {
	case ProxyVelocity:
		profile, clientIP, err = velocityForward(jc, cfg)
	case ProxyBungeeCord:
		profile, clientIP, err = ParseBungeeHandshake(hs.ServerAddress)
	default:
		if cfg.OnlineMode {
			profile, err = onlineLogin(ctx, jc, cfg, username, clientIP)
		} else {
			resolver := cfg.Resolver
			if resolver == nil {
				resolver = OfflineResolver{}
			}
			profile, err = resolver.Resolve(ctx, username, "", clientIP)
		}
	}
	if err != nil {
		return Result{}, err
	}

	if cfg.TextureValidation != nil {
		for _, p := range profile.Properties {
			if p.Name != "textures" {
				continue
			}
			if err := ValidateTexture(time.Now(), *cfg.TextureValidation, p); err != nil {
				return Result{}, err
			}
		}
	}

	if cfg.CompressionThreshold >= 0 {
		pkt := protocol.MarshalPacket(setCompressionID, func(w *bytes.Buffer) {
			protocol.WriteVarInt(w, int32(cfg.CompressionThreshold))
		})
		if err := jc.Transport().SendThenEnableCompression(pkt, cfg.CompressionThreshold); err != nil {
			return Result{}, err
		}
	}

	if err := sendLoginSuccess(jc, profile); err != nil {
		return Result{}, err
	}
	if err := readLoginAcknowledged(jc); err != nil {
		return Result{}, err
	}

	return Result{Profile: profile}, nil
}

func readLoginStart(jc *conn.JavaConn) (string, error) {
	pkt, err := jc.Transport().ReadPacket()
	if err != nil {
		return "", err
	}
	if pkt.ID != loginStartID {
		return "", fmt.Errorf("login: expected Login Start (0x%02X), got 0x%02X", loginStartID, pkt.ID)
	}
	r := bytes.NewReader(pkt.Data)
	username, err := protocol.ReadStringCap(r, 16)
	if err != nil {
		return "", err
	}
	// The client's self-reported UUID (present in modern revisions) is
	// advisory only; the resolver is the source of truth for identity.
	_, _ = protocol.ReadUUID(r)
	return username, nil
}

func onlineLogin(ctx context.Context, jc *conn.JavaConn, cfg Config, username, clientIP string) (GameProfile, error) {
	if cfg.Keys == nil {
		return GameProfile{}, fmt.Errorf("login: online mode requires a server keypair")
	}
	token, err := NewVerifyToken()
	if err != nil {
		return GameProfile{}, err
	}

	reqPkt := protocol.MarshalPacket(encryptionRequestID, func(w *bytes.Buffer) {
		protocol.WriteString(w, cfg.ServerID)
		protocol.WriteVarInt(w, int32(len(cfg.Keys.PublicDER)))
		w.Write(cfg.Keys.PublicDER)
		protocol.WriteVarInt(w, int32(len(token)))
		w.Write(token[:])
	})
	if err := jc.Transport().WritePacket(reqPkt); err != nil {
		return GameProfile{}, err
	}

	respPkt, err := jc.Transport().ReadPacket()
	if err != nil {
		return GameProfile{}, err
	}
	if respPkt.ID != encryptionResponseID {
		return GameProfile{}, fmt.Errorf("login: expected Encryption Response (0x%02X), got 0x%02X", encryptionResponseID, respPkt.ID)
	}

	r := bytes.NewReader(respPkt.Data)
	secretLen, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return GameProfile{}, err
	}
	encSecret := make([]byte, secretLen)
	if _, err := io.ReadFull(r, encSecret); err != nil {
		return GameProfile{}, err
	}
	tokenLen, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return GameProfile{}, err
	}
	encToken := make([]byte, tokenLen)
	if _, err := io.ReadFull(r, encToken); err != nil {
		return GameProfile{}, err
	}

	sharedSecret, decodedToken, err := DecryptSharedSecretAndToken(cfg.Keys.Private, encSecret, encToken)
	if err != nil {
		return GameProfile{}, err
	}
	if !bytes.Equal(decodedToken, token[:]) {
		return GameProfile{}, fmt.Errorf("login: verify token mismatch")
	}

	cipher, err := protocol.NewStreamCipher(sharedSecret)
	if err != nil {
		return GameProfile{}, err
	}
	jc.Transport().EnableEncryption(cipher)

	hash := ProfileHash(cfg.ServerID, sharedSecret, cfg.Keys.PublicDER)

	resolver := cfg.Resolver
	if resolver == nil {
		return GameProfile{}, fmt.Errorf("login: online mode requires a profile resolver")
	}
	return resolver.Resolve(ctx, username, hash, clientIP)
}

func velocityForward(jc *conn.JavaConn, cfg Config) (GameProfile, string, error) {
	var challengeSeed [4]byte
	if _, err := rand.Read(challengeSeed[:]); err != nil {
		return GameProfile{}, "", err
	}

	reqPkt := protocol.MarshalPacket(pluginRequestID, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, 0) // message id
		protocol.WriteString(w, VelocityForwardingChannel)
		w.Write(BuildVelocityRequestPayload(challengeSeed))
	})
	if err := jc.Transport().WritePacket(reqPkt); err != nil {
		return GameProfile{}, "", err
	}

	respPkt, err := jc.Transport().ReadPacket()
	if err != nil {
		return GameProfile{}, "", err
	}
	if respPkt.ID != pluginResponseID {
		return GameProfile{}, "", fmt.Errorf("login: expected Plugin Response (0x%02X), got 0x%02X", pluginResponseID, respPkt.ID)
	}

	r := bytes.NewReader(respPkt.Data)
	if _, _, err := protocol.ReadVarInt(r); err != nil { // message id echo
		return GameProfile{}, "", err
	}
	success, err := protocol.ReadBool(r)
	if err != nil {
		return GameProfile{}, "", err
	}
	if !success {
		return GameProfile{}, "", fmt.Errorf("login: proxy did not recognize forwarding request")
	}
	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return GameProfile{}, "", err
	}
	return ParseVelocityResponse(cfg.ForwardingSecret, rest)
}

func sendLoginSuccess(jc *conn.JavaConn, profile GameProfile) error {
	pkt := protocol.MarshalPacket(loginSuccessID, func(w *bytes.Buffer) {
		protocol.WriteUUID(w, profile.ID)
		protocol.WriteString(w, profile.Name)
		protocol.WriteVarInt(w, int32(len(profile.Properties)))
		for _, p := range profile.Properties {
			protocol.WriteString(w, p.Name)
			protocol.WriteString(w, p.Value)
			protocol.WriteBool(w, p.Signature != "")
			if p.Signature != "" {
				protocol.WriteString(w, p.Signature)
			}
		}
	})
	return jc.Transport().WritePacket(pkt)
}

func readLoginAcknowledged(jc *conn.JavaConn) error {
	pkt, err := jc.Transport().ReadPacket()
	if err != nil {
		return err
	}
	if pkt.ID != loginAcknowledgedID {
		return fmt.Errorf("login: expected Login Acknowledged (0x%02X), got 0x%02X", loginAcknowledgedID, pkt.ID)
	}
	return nil
}

func sendLoginDisconnect(jc *conn.JavaConn, reason string) error {
	pkt := protocol.MarshalPacket(disconnectLoginID, func(w *bytes.Buffer) {
		protocol.WriteString(w, chat.Text(reason).String())
	})
	_ = jc.Transport().WritePacket(pkt)
	return jc.NetConn().Close()
}
