package worldformat

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// TestReadLevelDat mirrors §8 scenario 3's field values (seed, spawn,
// day_time, border_size, raining) through our own encode/decode pair,
// since no binary level.dat fixture ships with the retrieved sources.
func TestReadLevelDat(t *testing.T) {
	var doc levelDatDocument
	doc.Data.BorderCenterX = 0
	doc.Data.BorderCenterZ = 0
	doc.Data.BorderDamagePerBlock = 0.2
	doc.Data.BorderSize = 59999968
	doc.Data.BorderSafeZone = 5
	doc.Data.BorderSizeLerpTarget = 59999968
	doc.Data.BorderWarningBlocks = 5
	doc.Data.BorderWarningTime = 15
	doc.Data.ClearWeatherTime = 0
	doc.Data.DayTime = 6075
	doc.Data.WorldGenSettings.Seed = -7121061153453964786
	doc.Data.Raining = false
	doc.Data.RainTime = 32005
	doc.Data.SpawnX = -48
	doc.Data.SpawnY = 68
	doc.Data.SpawnZ = 176
	doc.Data.Thundering = false
	doc.Data.ThunderTime = 19458
	doc.Data.Time = 6075

	raw, err := nbt.Marshal(doc)
	require.NoError(t, err)

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.dat"), gz.Bytes(), 0o644))

	info, err := readLevelDat(dir)
	require.NoError(t, err)

	require.Equal(t, int64(-7121061153453964786), info.Seed)
	require.Equal(t, BlockPos{X: -48, Y: 68, Z: 176}, info.Spawn)
	require.Equal(t, int64(6075), info.DayTime)
	require.Equal(t, 59999968.0, info.BorderSize)
	require.False(t, info.Raining)
}

func TestReadLevelDatMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := readLevelDat(dir)
	require.Error(t, err)
	var ioErr *IoError
	require.ErrorAs(t, err, &ioErr)
}
