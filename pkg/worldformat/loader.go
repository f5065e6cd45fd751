package worldformat

import "path/filepath"

// WorldFormat is the seam named in the design notes: "the outer loader is
// an enum wrapper so additional formats can be added without trait
// objects." Anvil is the only implementation today.
type WorldFormat interface {
	Info() WorldInfo
	ReadChunk(cx, cz int32) (*ChunkData, error)
	Close() error
}

// Loader is that enum wrapper. It holds exactly one variant today (Anvil);
// a second format would add a case here rather than a new type callers
// must type-switch on.
type Loader struct {
	format WorldFormat
}

// LoadAnvilWorld opens worldPath as an Anvil-format world: acquires the
// session lock, reads level.dat, and returns a Loader ready to read
// chunks. Callers must Close the Loader to release the session lock.
func LoadAnvilWorld(worldPath string, registry BlockRegistry) (*Loader, error) {
	lock, err := acquireSessionLock(filepath.Join(worldPath, "session.lock"))
	if err != nil {
		return nil, err
	}

	info, err := readLevelDat(worldPath)
	if err != nil {
		lock.Release()
		return nil, err
	}

	return &Loader{format: &anvilWorld{
		worldPath: worldPath,
		info:      info,
		lock:      lock,
		registry:  registry,
	}}, nil
}

func (l *Loader) Info() WorldInfo                           { return l.format.Info() }
func (l *Loader) ReadChunk(cx, cz int32) (*ChunkData, error) { return l.format.ReadChunk(cx, cz) }
func (l *Loader) Close() error                               { return l.format.Close() }

type anvilWorld struct {
	worldPath string
	info      WorldInfo
	lock      *sessionLock
	registry  BlockRegistry
}

func (a *anvilWorld) Info() WorldInfo { return a.info }

func (a *anvilWorld) ReadChunk(cx, cz int32) (*ChunkData, error) {
	raw, err := readChunk(a.worldPath, cx, cz)
	if err != nil {
		return nil, err
	}
	return decodeChunk(raw, cx, cz, a.registry)
}

func (a *anvilWorld) Close() error { return a.lock.Release() }
