package conn

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

func handshakeFrame(t *testing.T, protocolVersion int32, nextState int32) []byte {
	t.Helper()
	var body bytes.Buffer
	_, err := protocol.WriteVarInt(&body, protocolVersion)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteString(&body, "localhost"))
	require.NoError(t, protocol.WriteUint16(&body, 25565))
	_, err = protocol.WriteVarInt(&body, nextState)
	require.NoError(t, err)

	pkt := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) { w.Write(body.Bytes()) })
	return protocol.EncodeUncompressed(pkt)
}

func TestReadHandshakeRejectsBadNextState(t *testing.T) {
	var body bytes.Buffer
	protocol.WriteVarInt(&body, 767)
	protocol.WriteString(&body, "host")
	protocol.WriteUint16(&body, 25565)
	protocol.WriteVarInt(&body, 9)

	_, err := ReadHandshake(body.Bytes())
	require.ErrorIs(t, err, ErrBadNextState)
}

func TestRunJavaStatusRoundTrip(t *testing.T) {
	clientNc, serverNc := net.Pipe()
	defer clientNc.Close()
	defer serverNc.Close()

	jc := NewJavaConn(serverNc)
	done := make(chan error, 1)
	go func() { done <- RunJava(jc, Hooks{StatusResponse: func() string { return `{"ok":true}` }}) }()

	require.NoError(t, protocol.WriteFrame(clientNc, handshakeFrame(t, 767, 1)))

	statusReq := protocol.EncodeUncompressed(protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {}))
	require.NoError(t, protocol.WriteFrame(clientNc, statusReq))

	resp, err := protocol.ReadPacket(clientNc)
	require.NoError(t, err)
	require.Equal(t, int32(0x00), resp.ID)

	pingReq := protocol.EncodeUncompressed(protocol.MarshalPacket(0x01, func(w *bytes.Buffer) {
		protocol.WriteInt64(w, 42)
	}))
	require.NoError(t, protocol.WriteFrame(clientNc, pingReq))

	pong, err := protocol.ReadPacket(clientNc)
	require.NoError(t, err)
	require.Equal(t, int32(0x01), pong.ID)
	require.NoError(t, <-done)
}

func TestRunJavaLoginDelegatesToHooks(t *testing.T) {
	clientNc, serverNc := net.Pipe()
	defer clientNc.Close()
	defer serverNc.Close()

	jc := NewJavaConn(serverNc)
	var gotNextState int32
	hooks := Hooks{
		RunLogin: func(jc *JavaConn, hs Handshake) (bool, error) {
			gotNextState = hs.NextState
			return false, nil // stop before configuration for this test
		},
	}

	done := make(chan error, 1)
	go func() { done <- RunJava(jc, hooks) }()

	require.NoError(t, protocol.WriteFrame(clientNc, handshakeFrame(t, 767, 2)))
	require.NoError(t, <-done)
	require.Equal(t, int32(2), gotNextState)
}

func TestRunJavaMissingLoginHookErrors(t *testing.T) {
	clientNc, serverNc := net.Pipe()
	defer clientNc.Close()
	defer serverNc.Close()

	jc := NewJavaConn(serverNc)
	done := make(chan error, 1)
	go func() { done <- RunJava(jc, Hooks{}) }()

	require.NoError(t, protocol.WriteFrame(clientNc, handshakeFrame(t, 767, 2)))
	require.Error(t, <-done)
}
