package worldformat

import (
	"bytes"
	"math/bits"

	"github.com/Tnze/go-mc/nbt"
)

const (
	chunkArea      = 256
	subchunkVolume = 4096
	worldHeight    = 384

	statusFull           = "minecraft:full"
	supportedDataVersion = 4189
)

type chunkDocument struct {
	DataVersion int32     `nbt:"DataVersion"`
	Status      string    `nbt:"Status"`
	Sections    []section `nbt:"sections"`
	Heightmaps  struct {
		MotionBlocking []int64 `nbt:"MOTION_BLOCKING"`
		WorldSurface   []int64 `nbt:"WORLD_SURFACE"`
	} `nbt:"Heightmaps"`
}

type section struct {
	Y           int8            `nbt:"Y"`
	BlockStates *blockStatesTag `nbt:"block_states"`
}

type blockStatesTag struct {
	Palette []paletteEntry `nbt:"palette"`
	Data    []int64        `nbt:"data"`
}

type paletteEntry struct {
	Name string `nbt:"Name"`
}

// ChunkData is the decoded, dense representation of one chunk column, per
// the "Chunk Data" glossary entry.
type ChunkData struct {
	X, Z           int32
	Blocks         []uint16 // len == CHUNK_AREA * worldHeight
	MotionBlocking []int64
	WorldSurface   []int64
}

// BlockRegistry resolves a palette entry's block name to a 16-bit
// block-state id; unknown names resolve to AIR.
type BlockRegistry interface {
	Resolve(name string) uint16
}

const airStateID uint16 = 0

// MapRegistry is the simplest BlockRegistry: a flat name->id lookup table
// that falls back to AIR for anything it doesn't contain.
type MapRegistry map[string]uint16

func (r MapRegistry) Resolve(name string) uint16 {
	if id, ok := r[name]; ok {
		return id
	}
	return airStateID
}

// blockBitWidth computes the per-section lane width: max(4, ceil(log2(p))),
// expressed via leading-zero count the way §4.5 spells it out.
func blockBitWidth(paletteSize int) int {
	if paletteSize < 1 {
		paletteSize = 1
	}
	w := 64 - bits.LeadingZeros64(uint64(paletteSize-1))
	if w < 4 {
		w = 4
	}
	return w
}

// decodeChunk parses the chunk-format tagged binary and expands its
// palette-indexed sections into a dense block array (§4.5 "Chunk parsing").
func decodeChunk(data []byte, cx, cz int32, registry BlockRegistry) (*ChunkData, error) {
	var doc chunkDocument
	if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, &DeserializationError{Msg: err.Error()}
	}

	if doc.Status != statusFull {
		return nil, ErrChunkNotGenerated
	}
	if doc.DataVersion != supportedDataVersion {
		return nil, ErrOutdatedWorldFormat
	}

	blocks := make([]uint16, chunkArea*worldHeight)
	writeIndex := 0

	for _, sec := range doc.Sections {
		if sec.BlockStates == nil {
			// No block_states at all: nothing to place, but the section
			// still occupies its slice of the dense array.
			writeIndex += subchunkVolume
			continue
		}
		bs := sec.BlockStates
		if bs.Data == nil {
			// Uniform/empty section: single palette entry, no packed
			// words to unpack, same skip as the absent case.
			writeIndex += subchunkVolume
			continue
		}

		paletteSize := len(bs.Palette)
		bitWidth := blockBitWidth(paletteSize)
		blocksPerWord := 64 / bitWidth
		mask := uint64(1)<<uint(bitWidth) - 1

	wordLoop:
		for _, word := range bs.Data {
			uw := uint64(word)
			for lane := 0; lane < blocksPerWord; lane++ {
				idx := int((uw >> uint(lane*bitWidth)) & mask)
				stateID := airStateID
				if idx >= 0 && idx < len(bs.Palette) {
					stateID = registry.Resolve(bs.Palette[idx].Name)
				}
				if writeIndex < len(blocks) {
					blocks[writeIndex] = stateID
				}
				writeIndex++
				if writeIndex%subchunkVolume == 0 {
					break wordLoop
				}
			}
		}
	}

	return &ChunkData{
		X:              cx,
		Z:              cz,
		Blocks:         blocks,
		MotionBlocking: doc.Heightmaps.MotionBlocking,
		WorldSurface:   doc.Heightmaps.WorldSurface,
	}, nil
}
