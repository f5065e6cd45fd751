package worldformat

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

func TestFloorMod(t *testing.T) {
	require.Equal(t, int32(0), floorMod(32, 32))
	require.Equal(t, int32(31), floorMod(-1, 32))
	require.Equal(t, int32(5), floorMod(5, 32))
}

// TestLocationEntryRoundTrip is the §8 universal property: decoding then
// re-encoding a location-table entry yields the identical bytes.
func TestLocationEntryRoundTrip(t *testing.T) {
	entries := [][4]byte{
		{0, 0, 0, 0},
		{0x00, 0x01, 0x02, 3},
		{0xFF, 0xFF, 0xFF, 255},
	}
	for _, e := range entries {
		off, ln := decodeLocationEntry(e)
		require.Equal(t, e, encodeLocationEntry(off, ln))
	}
}

// TestRegionEntryZeroReturnsNotFound is §8's boundary behavior: location
// table entry (0,0) -> NotFound, never a panic.
func TestRegionEntryZeroReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "region"), 0o755))

	blob := make([]byte, locationTableLen*2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "region", "r.0.0.mca"), blob, 0o644))

	_, err := readChunk(dir, 0, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadChunkMissingRegionFile(t *testing.T) {
	dir := t.TempDir()
	_, err := readChunk(dir, 100, 100)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestReadChunkZlibRoundTrip builds a minimal region file by hand and
// checks readChunk recovers the exact payload bytes it wrote.
func TestReadChunkZlibRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "region"), 0o755))

	payload := []byte("pretend this is chunk nbt bytes, long enough to compress")

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	header := make([]byte, chunkHeaderLen)
	binary.BigEndian.PutUint32(header, uint32(compressed.Len()+1))
	header[4] = byte(schemeZLib)

	sectorPayload := append(header, compressed.Bytes()...)
	sectors := (len(sectorPayload) + sectorSize - 1) / sectorSize
	padded := make([]byte, sectors*sectorSize)
	copy(padded, sectorPayload)

	locationTable := make([]byte, locationTableLen)
	entry := encodeLocationEntry(2, uint8(sectors)) // sector 0,1 are the two tables
	copy(locationTable[0:4], entry[:])

	regionFile := append(append([]byte{}, locationTable...), make([]byte, locationTableLen)...)
	regionFile = append(regionFile, padded...)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "region", "r.0.0.mca"), regionFile, 0o644))

	got, err := readChunk(dir, 0, 0)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
