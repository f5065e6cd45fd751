package server

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/pumpkincraft/pumpkincore/pkg/player"
)

// playerDataPath returns world_path/playerdata/<uuid>.dat, a sibling of the
// region directory and level.dat that pkg/worldformat reads.
func (s *Server) playerDataPath(id uuid.UUID) string {
	return filepath.Join(s.cfg.WorldPath, "playerdata", id.String()+".dat")
}

// loadPlayerData restores persisted state into p if a data file exists for
// its profile id; a missing file is treated as a first-ever join, not an
// error.
func (s *Server) loadPlayerData(p *player.Player) {
	path := s.playerDataPath(p.Profile.ID)
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("opening player data", "id", p.Profile.ID, "error", err)
		}
		return
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		s.logger.Warn("decompressing player data", "id", p.Profile.ID, "error", err)
		return
	}
	defer gz.Close()

	pp, err := player.DecodePersisted(gz)
	if err != nil {
		s.logger.Warn("decoding player data", "id", p.Profile.ID, "error", err)
		return
	}
	p.ApplyPersisted(pp)
}

// savePlayerData writes p's current state to its data file, replacing any
// prior save atomically via a temp-file rename.
func (s *Server) savePlayerData(p *player.Player) {
	path := s.playerDataPath(p.Profile.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("creating playerdata dir", "error", err)
		return
	}

	raw, err := player.EncodePersisted(p.ToPersisted(s.world.Name))
	if err != nil {
		s.logger.Warn("encoding player data", "id", p.Profile.ID, "error", err)
		return
	}

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(raw); err != nil {
		s.logger.Warn("compressing player data", "id", p.Profile.ID, "error", err)
		return
	}
	if err := w.Close(); err != nil {
		s.logger.Warn("compressing player data", "id", p.Profile.ID, "error", err)
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, gz.Bytes(), 0o644); err != nil {
		s.logger.Warn("writing player data", "id", p.Profile.ID, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.Warn("finalizing player data", "id", p.Profile.ID, "error", err)
	}
}
