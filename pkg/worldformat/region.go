package worldformat

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	sectorSize       = 4096
	locationTableLen = 4096
	chunkHeaderLen   = 5
)

// decodeLocationEntry parses one 4-byte region location-table entry into a
// sector offset and sector count (§4.5 step 5).
func decodeLocationEntry(entry [4]byte) (offsetSectors uint32, lengthSectors uint8) {
	offsetSectors = uint32(entry[0])<<16 | uint32(entry[1])<<8 | uint32(entry[2])
	lengthSectors = entry[3]
	return offsetSectors, lengthSectors
}

// encodeLocationEntry is the inverse of decodeLocationEntry; used by the
// decode/re-encode round-trip property in §8.
func encodeLocationEntry(offsetSectors uint32, lengthSectors uint8) [4]byte {
	return [4]byte{byte(offsetSectors >> 16), byte(offsetSectors >> 8), byte(offsetSectors), lengthSectors}
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func regionFileName(rx, rz int32) string {
	return filepath.Join("region", fmt.Sprintf("r.%d.%d.mca", rx, rz))
}

// readChunk implements §4.5 steps 1-9, returning the decompressed
// chunk-format payload ready for NBT parsing.
func readChunk(worldPath string, cx, cz int32) ([]byte, error) {
	rx, rz := cx>>5, cz>>5

	f, err := os.Open(filepath.Join(worldPath, regionFileName(rx, rz)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &IoError{Op: "open region file", Err: err}
	}
	defer f.Close()

	var locationTable [locationTableLen]byte
	if _, err := io.ReadFull(f, locationTable[:]); err != nil {
		return nil, &IoError{Op: "read location table", Err: err}
	}
	var timestampTable [locationTableLen]byte
	if _, err := io.ReadFull(f, timestampTable[:]); err != nil {
		return nil, &IoError{Op: "read timestamp table", Err: err}
	}

	lx, lz := floorMod(cx, 32), floorMod(cz, 32)
	entryIndex := (lx + lz*32) * 4

	var entry [4]byte
	copy(entry[:], locationTable[entryIndex:entryIndex+4])
	offsetSectors, lengthSectors := decodeLocationEntry(entry)
	if offsetSectors == 0 && lengthSectors == 0 {
		return nil, ErrNotFound
	}

	blob := make([]byte, int(lengthSectors)*sectorSize)
	if _, err := f.ReadAt(blob, int64(offsetSectors)*sectorSize); err != nil {
		return nil, &IoError{Op: "read chunk sectors", Err: err}
	}

	if len(blob) < chunkHeaderLen {
		return nil, &DeserializationError{Msg: "chunk blob shorter than its own header"}
	}
	payloadLength := binary.BigEndian.Uint32(blob[0:4])
	sc, err := parseScheme(blob[4])
	if err != nil {
		return nil, err
	}

	// payload_length counts the scheme byte itself, so the compressed
	// payload proper runs payload_length-1 bytes starting right after it.
	end := chunkHeaderLen + int(payloadLength) - 1
	if payloadLength == 0 || end > len(blob) {
		return nil, &DeserializationError{Msg: "declared payload length exceeds blob"}
	}

	return sc.decompress(blob[chunkHeaderLen:end])
}
