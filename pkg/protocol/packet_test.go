package protocol

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVarIntBoundary exercises §8's "varint with 5 continuation bytes
// (32-bit path) succeeds; with 6 it fails" boundary.
func TestVarIntBoundary(t *testing.T) {
	ok := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F} // 5 bytes, final has no continuation bit
	_, n, err := ReadVarInt(bytes.NewReader(ok))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	tooLong := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01} // 6th byte sets continuation again
	_, _, err = ReadVarInt(bytes.NewReader(tooLong))
	require.ErrorIs(t, err, ErrVarIntTooBig)
}

// TestStringCapBoundary: "string with declared length equal to cap
// succeeds; cap+1 fails."
func TestStringCapBoundary(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteVarInt(&buf, 5)
	require.NoError(t, err)
	buf.WriteString("hello")
	_, err = ReadStringCap(bytes.NewReader(buf.Bytes()), 5)
	require.NoError(t, err)

	buf.Reset()
	_, err = WriteVarInt(&buf, 6)
	require.NoError(t, err)
	buf.WriteString("hello!")
	_, err = ReadStringCap(bytes.NewReader(buf.Bytes()), 5)
	require.ErrorIs(t, err, ErrStringTooLong)
}

func TestUncompressedFrameRoundTrip(t *testing.T) {
	p := &Packet{ID: 3, Data: []byte("payload bytes")}
	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, p))

	got, err := ReadPacket(&buf)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Data, got.Data)
}

func TestCompressedFrameRoundTrip_BelowThreshold(t *testing.T) {
	p := &Packet{ID: 1, Data: []byte("tiny")}
	body, err := EncodeCompressed(p, 256)
	require.NoError(t, err)

	got, err := DecodeCompressed(body)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Data, got.Data)
}

func TestCompressedFrameRoundTrip_AboveThreshold(t *testing.T) {
	p := &Packet{ID: 2, Data: bytes.Repeat([]byte{0x42}, 1024)}
	body, err := EncodeCompressed(p, 64)
	require.NoError(t, err)

	got, err := DecodeCompressed(body)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Data, got.Data)
}

func TestDecodeCompressed_LengthMismatch(t *testing.T) {
	p := &Packet{ID: 2, Data: bytes.Repeat([]byte{0x01}, 1024)}
	body, err := EncodeCompressed(p, 1)
	require.NoError(t, err)

	// Corrupt the declared uncompressed_size so it no longer matches the
	// zlib stream's actual inflated length.
	var corrupted bytes.Buffer
	WriteVarInt(&corrupted, 4)
	corrupted.Write(body[VarIntSize(1024):])

	_, err = DecodeCompressed(corrupted.Bytes())
	require.Error(t, err)
}

func TestCFB8RoundTrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x07}, 16)
	encSide, err := NewStreamCipher(secret)
	require.NoError(t, err)
	decSide, err := NewStreamCipher(secret)
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog, 1234567890")
	var wire bytes.Buffer
	ew := encSide.EncryptWriter(&wire)
	_, err = ew.Write(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, wire.Bytes())

	dr := decSide.DecryptReader(&wire)
	out := make([]byte, len(plaintext))
	_, err = io.ReadFull(dr, out)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}
