package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Phase enumerates the Java-edition connection protocol phases.
type Phase int

const (
	PhaseHandshake Phase = iota
	PhaseStatus
	PhaseLogin
	PhaseConfiguration
	PhasePlay
	PhaseClosed
)

// MaxFrameLength bounds the outer VarInt length prefix: no single frame
// body may exceed 2 MiB, matching the longest 3-byte VarInt a well-behaved
// client ever sends for a single packet.
const MaxFrameLength = 2*1024*1024 - 1

// Packet is an immutable decoded packet: a phase-and-direction-scoped id
// plus its raw, already-decoded payload bytes.
type Packet struct {
	ID   int32
	Data []byte
}

// MarshalPacket builds a Packet from an id and a payload-writing closure.
func MarshalPacket(id int32, builder func(w *bytes.Buffer)) *Packet {
	var buf bytes.Buffer
	builder(&buf)
	return &Packet{ID: id, Data: buf.Bytes()}
}

// ReadFrameBody reads one outer VarInt-length-prefixed frame and returns
// its raw body, without interpreting compression or packet id. The body's
// shape depends on whether compression is currently enabled on this
// stream (see DecodeUncompressed / DecodeCompressed).
func ReadFrameBody(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, fmt.Errorf("protocol: frame length too small: %d", length)
	}
	if length > MaxFrameLength {
		return nil, fmt.Errorf("protocol: frame length too large: %d", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame prepends a VarInt length prefix to body and writes both in a
// single call.
func WriteFrame(w io.Writer, body []byte) error {
	var lenBuf [5]byte
	n := PutVarInt(lenBuf[:], int32(len(body)))
	buf := make([]byte, 0, n+len(body))
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, body...)
	_, err := w.Write(buf)
	return err
}

// DecodeUncompressed parses a frame body of the form `VarInt id | payload`.
func DecodeUncompressed(body []byte) (*Packet, error) {
	r := bytes.NewReader(body)
	id, n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return &Packet{ID: id, Data: body[n:]}, nil
}

// EncodeUncompressed serializes a Packet to `VarInt id | payload`.
func EncodeUncompressed(p *Packet) []byte {
	idSize := VarIntSize(p.ID)
	buf := bytes.NewBuffer(make([]byte, 0, idSize+len(p.Data)))
	WriteVarInt(buf, p.ID)
	buf.Write(p.Data)
	return buf.Bytes()
}

// DecodeCompressed parses a frame body of the form
// `VarInt uncompressed_size | payload-or-zlib-stream`, per §4.1: a zero
// uncompressed_size means payload is stored uncompressed (below threshold
// at encode time); any other value is the exact size the zlib stream must
// inflate to.
func DecodeCompressed(body []byte) (*Packet, error) {
	r := bytes.NewReader(body)
	uncompressedSize, n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	rest := body[n:]
	if uncompressedSize == 0 {
		return DecodeUncompressed(rest)
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, fmt.Errorf("protocol: zlib open: %w", err)
	}
	defer zr.Close()

	out := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("protocol: zlib decompress: %w", err)
	}
	// Confirm the stream produced exactly uncompressed_size bytes and no more.
	var extra [1]byte
	if _, err := io.ReadFull(zr, extra[:]); err != io.EOF {
		return nil, fmt.Errorf("protocol: decompressed length mismatch: declared %d", uncompressedSize)
	}
	return DecodeUncompressed(out)
}

// EncodeCompressed serializes a Packet under a compression threshold: a
// payload strictly shorter than threshold bytes is sent uncompressed with
// uncompressed_size=0; otherwise it is zlib-compressed.
func EncodeCompressed(p *Packet, threshold int) ([]byte, error) {
	payload := EncodeUncompressed(p)
	if len(payload) < threshold {
		var buf bytes.Buffer
		WriteVarInt(&buf, 0)
		buf.Write(payload)
		return buf.Bytes(), nil
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return nil, fmt.Errorf("protocol: zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("protocol: zlib close: %w", err)
	}

	var buf bytes.Buffer
	WriteVarInt(&buf, int32(len(payload)))
	buf.Write(compressed.Bytes())
	return buf.Bytes(), nil
}

// ReadPacket reads one uncompressed frame and decodes it. Used directly by
// phases that never negotiate compression (Handshake, Status).
func ReadPacket(r io.Reader) (*Packet, error) {
	body, err := ReadFrameBody(r)
	if err != nil {
		return nil, err
	}
	return DecodeUncompressed(body)
}

// WritePacket encodes and frames a packet with no compression.
func WritePacket(w io.Writer, p *Packet) error {
	return WriteFrame(w, EncodeUncompressed(p))
}
