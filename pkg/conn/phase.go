package conn

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

// Handshake is the single packet that opens every connection.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32 // 1 = Status, 2 = Login
}

// ErrBadNextState is returned when a Handshake's next_state field names
// neither Status nor Login.
var ErrBadNextState = fmt.Errorf("conn: handshake next_state must be 1 or 2")

// ReadHandshake decodes the Handshake packet body.
func ReadHandshake(data []byte) (Handshake, error) {
	r := bytes.NewReader(data)
	var hs Handshake
	var err error
	if hs.ProtocolVersion, _, err = protocol.ReadVarInt(r); err != nil {
		return hs, err
	}
	if hs.ServerAddress, err = protocol.ReadStringCap(r, 255); err != nil {
		return hs, err
	}
	if hs.ServerPort, err = protocol.ReadUint16(r); err != nil {
		return hs, err
	}
	if hs.NextState, _, err = protocol.ReadVarInt(r); err != nil {
		return hs, err
	}
	if hs.NextState != 1 && hs.NextState != 2 {
		return hs, ErrBadNextState
	}
	return hs, nil
}

// Hooks are the phase-specific behaviors a caller (pkg/server) injects,
// so this package implements only the state machine shape and not login,
// configuration, or gameplay semantics.
type Hooks struct {
	// RunLogin handles the full Login phase (Login Start through
	// Login Acknowledged) and reports whether the connection should
	// proceed to Configuration.
	RunLogin func(jc *JavaConn, hs Handshake) (proceed bool, err error)
	// RunConfiguration handles branding/resource-pack/registry exchange
	// through Finish Configuration / Acknowledge Finish Configuration.
	RunConfiguration func(jc *JavaConn) (proceed bool, err error)
	// RunPlay takes over for the remainder of the connection's life.
	RunPlay func(jc *JavaConn)
	// StatusResponse returns the JSON status response body.
	StatusResponse func() string
}

// RunJava drives a Java connection's phase sequence per §4.3: Handshake
// selects Status or Login; Status answers one Request/Ping pair and
// closes; Login falls through to Configuration falls through to Play.
func RunJava(jc *JavaConn, hooks Hooks) error {
	_ = jc.netConn.SetReadDeadline(time.Now().Add(handshakeReadDeadline))
	pkt, err := jc.wire.ReadPacket()
	if err != nil {
		return err
	}
	if pkt.ID != 0x00 {
		return fmt.Errorf("conn: expected Handshake packet id 0x00, got 0x%02X", pkt.ID)
	}
	hs, err := ReadHandshake(pkt.Data)
	if err != nil {
		_ = jc.netConn.Close()
		return err
	}

	switch hs.NextState {
	case 1:
		return runStatus(jc, hooks)
	case 2:
		_ = jc.netConn.SetReadDeadline(time.Time{})
		return runLogin(jc, hooks, hs)
	default:
		return ErrBadNextState
	}
}

func runStatus(jc *JavaConn, hooks Hooks) error {
	defer jc.netConn.Close()

	for {
		pkt, err := jc.wire.ReadPacket()
		if err != nil {
			return err
		}
		switch pkt.ID {
		case 0x00: // Status Request
			body := "{}"
			if hooks.StatusResponse != nil {
				body = hooks.StatusResponse()
			}
			if err := jc.SendNow(0x00, func(w *bytes.Buffer) {
				protocol.WriteString(w, body)
			}); err != nil {
				return err
			}
		case 0x01: // Ping Request
			r := bytes.NewReader(pkt.Data)
			payload, err := protocol.ReadInt64(r)
			if err != nil {
				return err
			}
			return jc.SendNow(0x01, func(w *bytes.Buffer) {
				protocol.WriteInt64(w, payload)
			})
		default:
			return fmt.Errorf("conn: unexpected Status packet id 0x%02X", pkt.ID)
		}
	}
}

func runLogin(jc *JavaConn, hooks Hooks, hs Handshake) error {
	if hooks.RunLogin == nil {
		return fmt.Errorf("conn: no login handler configured")
	}
	proceed, err := hooks.RunLogin(jc, hs)
	if err != nil || !proceed {
		return err
	}

	if hooks.RunConfiguration != nil {
		proceed, err = hooks.RunConfiguration(jc)
		if err != nil || !proceed {
			return err
		}
	}

	if hooks.RunPlay != nil {
		hooks.RunPlay(jc)
	}
	return nil
}
