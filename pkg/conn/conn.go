// Package conn implements the §4.3 connection state machine: the
// Handshake/Status/Login/Configuration/Play phase sequence, and the
// ClientPlatform sum type distinguishing Java from Bedrock connections.
package conn

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/pumpkincraft/pumpkincore/pkg/chat"
	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
	"github.com/pumpkincraft/pumpkincore/pkg/transport"
)

// ClientPlatform is the sum type over the two wire formats a connection
// can speak. Per the design note it is not a shared dynamic-dispatch
// packet encoder — Java and Bedrock differ enough that callers match on
// the concrete type for per-packet behavior.
type ClientPlatform interface {
	isClientPlatform()
	EnqueuePacket(id int32, builder func(w *bytes.Buffer))
	SendNow(id int32, builder func(w *bytes.Buffer)) error
	Kick(reason chat.Message) error
}

// JavaConn is the Java-edition connection variant: framed, optionally
// compressed/encrypted TCP, matching pkg/transport directly.
type JavaConn struct {
	netConn net.Conn
	wire    *transport.Transport

	writeMu sync.Mutex
	queue   [][]byte
}

// NewJavaConn wraps an accepted TCP connection.
func NewJavaConn(nc net.Conn) *JavaConn {
	return &JavaConn{netConn: nc, wire: transport.New(nc)}
}

func (*JavaConn) isClientPlatform() {}

// Transport exposes the underlying wire pipeline for the login/
// configuration/play handlers to read and write packets directly.
func (j *JavaConn) Transport() *transport.Transport { return j.wire }

// NetConn exposes the raw connection, e.g. for deadlines and Close.
func (j *JavaConn) NetConn() net.Conn { return j.netConn }

// EnqueuePacket appends a packet to the outbound queue without blocking
// on the network; a caller drains it with Flush. Used by paths (e.g. the
// chunk streaming queue) that build up several packets before a single
// flush point.
func (j *JavaConn) EnqueuePacket(id int32, builder func(w *bytes.Buffer)) {
	pkt := protocol.MarshalPacket(id, builder)
	body := protocol.EncodeUncompressed(pkt)
	j.writeMu.Lock()
	j.queue = append(j.queue, body)
	j.writeMu.Unlock()
}

// Flush sends every packet enqueued since the last flush, in order.
func (j *JavaConn) Flush() error {
	j.writeMu.Lock()
	pending := j.queue
	j.queue = nil
	j.writeMu.Unlock()

	for _, body := range pending {
		uncompressed, err := protocol.DecodeUncompressed(body)
		if err != nil {
			return err
		}
		if err := j.wire.WritePacket(uncompressed); err != nil {
			return err
		}
	}
	return nil
}

// SendNow marshals and writes a packet immediately, bypassing the queue.
func (j *JavaConn) SendNow(id int32, builder func(w *bytes.Buffer)) error {
	return j.wire.WritePacket(protocol.MarshalPacket(id, builder))
}

// Kick sends a Play-phase Disconnect packet (disconnectPacketID) and
// closes the connection.
func (j *JavaConn) Kick(reason chat.Message) error {
	_ = j.SendNow(disconnectPacketID, func(w *bytes.Buffer) {
		protocol.WriteString(w, reason.String())
	})
	return j.netConn.Close()
}

// disconnectPacketID is the Play-phase Disconnect packet id; Login and
// Configuration phase disconnects use their own ids, sent directly by
// the phase handler rather than through Kick.
const disconnectPacketID = 0x1D

// BedrockConn is the Bedrock-edition connection variant. A full RakNet
// transport is out of scope (§9 design note) — this carries exactly the
// fields the Chunk Streaming Queue's per-platform LevelChunk dispatch
// needs, so the seam is real rather than a stub.
type BedrockConn struct {
	writeMu sync.Mutex
	send    func(payload []byte) error
}

// NewBedrockConn wraps a caller-supplied raw-payload sender; the RakNet
// framing itself lives outside this module's scope.
func NewBedrockConn(send func(payload []byte) error) *BedrockConn {
	return &BedrockConn{send: send}
}

func (*BedrockConn) isClientPlatform() {}

func (b *BedrockConn) EnqueuePacket(id int32, builder func(w *bytes.Buffer)) {
	_ = b.SendNow(id, builder)
}

func (b *BedrockConn) SendNow(id int32, builder func(w *bytes.Buffer)) error {
	var buf bytes.Buffer
	buf.WriteByte(byte(id))
	builder(&buf)
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.send(buf.Bytes())
}

func (b *BedrockConn) Kick(reason chat.Message) error {
	return b.SendNow(0x02, func(w *bytes.Buffer) { w.WriteString(reason.String()) })
}

// handshakeReadDeadline bounds how long an idle socket may sit before a
// Handshake or Status request arrives.
const handshakeReadDeadline = 30 * time.Second
