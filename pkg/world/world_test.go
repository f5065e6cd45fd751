package world

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/pumpkincraft/pumpkincore/pkg/player"
	"github.com/pumpkincraft/pumpkincore/pkg/workerpool"
	"github.com/pumpkincraft/pumpkincore/pkg/worldformat"
)

type levelDatDoc struct {
	Data struct {
		WorldGenSettings struct {
			Seed int64 `nbt:"seed"`
		} `nbt:"WorldGenSettings"`
	} `nbt:"Data"`
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "region"), 0o755))

	var doc levelDatDoc
	doc.Data.WorldGenSettings.Seed = 99
	raw, err := nbt.Marshal(doc)
	require.NoError(t, err)

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.dat"), gz.Bytes(), 0o644))

	loader, err := worldformat.LoadAnvilWorld(dir, worldformat.MapRegistry{})
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close() })

	return New("overworld", loader, workerpool.New(2))
}

func TestWorldInfoReadsThroughLoader(t *testing.T) {
	w := newTestWorld(t)
	require.Equal(t, int64(99), w.Info().Seed)
}

func TestChunkMissingRegionPropagatesError(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.Chunk(5, 5)
	require.Error(t, err)
}

func TestChunkReadErrorLeavesNothingToEvict(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.Chunk(0, 0)
	require.Error(t, err) // no region file present; still exercises the cache-miss path
	w.EvictChunk(0, 0)    // no-op since nothing was cached on error
}

func TestRosterAddRemove(t *testing.T) {
	w := newTestWorld(t)
	p := player.New(player.GameProfile{ID: uuid.New(), Name: "Zed"}, player.GameModeSurvival)

	w.AddPlayer(p)
	require.Len(t, w.Players(), 1)

	got, ok := w.Player(p.Profile.ID)
	require.True(t, ok)
	require.Equal(t, p, got)

	w.RemovePlayer(p.Profile.ID)
	require.Empty(t, w.Players())
}
