package worldformat

import (
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/stretchr/testify/require"
)

func TestBlockBitWidthPaletteSizeOne(t *testing.T) {
	require.Equal(t, 4, blockBitWidth(1))
}

func TestBlockBitWidthPaletteSizeThree(t *testing.T) {
	width := blockBitWidth(3)
	require.Equal(t, 4, width)
	require.Equal(t, 16, 64/width)
}

func samplePalette() []paletteEntry {
	return []paletteEntry{
		{Name: "minecraft:air"},
		{Name: "minecraft:stone"},
		{Name: "minecraft:dirt"},
	}
}

func sampleRegistry() MapRegistry {
	return MapRegistry{
		"minecraft:air":   0,
		"minecraft:stone": 1,
		"minecraft:dirt":  2,
	}
}

func marshalChunk(t *testing.T, doc chunkDocument) []byte {
	t.Helper()
	data, err := nbt.Marshal(doc)
	require.NoError(t, err)
	return data
}

// TestPaletteDecodeScenario5 matches §8 scenario 5: palette size 3, one i64
// word with nibbles [1,0,0,2,0,...]: the first four cells receive
// palette[1], palette[0], palette[0], palette[2], lowest nibble first.
func TestPaletteDecodeScenario5(t *testing.T) {
	word := int64(1<<0 | 0<<4 | 0<<8 | 2<<12)

	doc := chunkDocument{
		DataVersion: supportedDataVersion,
		Status:      statusFull,
		Sections: []section{
			{Y: 0, BlockStates: &blockStatesTag{
				Palette: samplePalette(),
				Data:    []int64{word},
			}},
		},
	}

	data := marshalChunk(t, doc)
	out, err := decodeChunk(data, 0, 0, sampleRegistry())
	require.NoError(t, err)

	require.Equal(t, uint16(1), out.Blocks[0]) // palette[1] = stone
	require.Equal(t, uint16(0), out.Blocks[1]) // palette[0] = air
	require.Equal(t, uint16(0), out.Blocks[2]) // palette[0] = air
	require.Equal(t, uint16(2), out.Blocks[3]) // palette[2] = dirt
}

// TestBlockStatesAbsentAdvancesIndex covers the boundary behavior: a
// section with no block_states at all still consumes a full 4096-cell
// slice of the dense array before the next section's writes land.
func TestBlockStatesAbsentAdvancesIndex(t *testing.T) {
	word := int64(1)

	doc := chunkDocument{
		DataVersion: supportedDataVersion,
		Status:      statusFull,
		Sections: []section{
			{Y: 0, BlockStates: nil},
			{Y: 1, BlockStates: &blockStatesTag{
				Palette: samplePalette(),
				Data:    []int64{word},
			}},
		},
	}

	data := marshalChunk(t, doc)
	out, err := decodeChunk(data, 0, 0, sampleRegistry())
	require.NoError(t, err)

	require.Equal(t, uint16(0), out.Blocks[0])
	require.Equal(t, uint16(1), out.Blocks[subchunkVolume]) // palette[1] = stone
}

// TestDataAbsentAdvancesIndex: §8 boundary "section whose data is absent
// advances write index by exactly 4096" — same skip as the absent-states
// case above, just with block_states present but no packed data array.
func TestDataAbsentAdvancesIndex(t *testing.T) {
	word := int64(2)

	doc := chunkDocument{
		DataVersion: supportedDataVersion,
		Status:      statusFull,
		Sections: []section{
			{Y: 0, BlockStates: &blockStatesTag{
				Palette: []paletteEntry{{Name: "minecraft:stone"}},
				Data:    nil,
			}},
			{Y: 1, BlockStates: &blockStatesTag{
				Palette: samplePalette(),
				Data:    []int64{word},
			}},
		},
	}

	data := marshalChunk(t, doc)
	out, err := decodeChunk(data, 0, 0, sampleRegistry())
	require.NoError(t, err)

	require.Equal(t, uint16(0), out.Blocks[0])
	require.Equal(t, uint16(2), out.Blocks[subchunkVolume]) // palette[2] = dirt
}

func TestChunkNotGeneratedStatus(t *testing.T) {
	doc := chunkDocument{DataVersion: supportedDataVersion, Status: "minecraft:empty"}
	data := marshalChunk(t, doc)
	_, err := decodeChunk(data, 0, 0, sampleRegistry())
	require.ErrorIs(t, err, ErrChunkNotGenerated)
}

func TestOutdatedDataVersion(t *testing.T) {
	doc := chunkDocument{DataVersion: 1, Status: statusFull}
	data := marshalChunk(t, doc)
	_, err := decodeChunk(data, 0, 0, sampleRegistry())
	require.ErrorIs(t, err, ErrOutdatedWorldFormat)
}

func TestUnknownPaletteNameResolvesToAir(t *testing.T) {
	word := int64(0) // every lane indexes palette[0], an unregistered name

	doc := chunkDocument{
		DataVersion: supportedDataVersion,
		Status:      statusFull,
		Sections: []section{
			{Y: 0, BlockStates: &blockStatesTag{
				Palette: []paletteEntry{{Name: "modded:unknown_block"}},
				Data:    []int64{word},
			}},
		},
	}

	data := marshalChunk(t, doc)
	out, err := decodeChunk(data, 0, 0, sampleRegistry())
	require.NoError(t, err)
	require.Equal(t, uint16(0), out.Blocks[0])
}
