//go:build linux || darwin

package worldformat

import (
	"os"

	"golang.org/x/sys/unix"
)

// sessionLock holds the advisory lock on a world's session.lock file for as
// long as the loader keeps the world open (§4.5: "acquire an exclusive
// session lock... if contended, fail with WorldInUse").
type sessionLock struct {
	f *os.File
}

func acquireSessionLock(path string) (*sessionLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &IoError{Op: "open session.lock", Err: err}
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrWorldInUse
	}
	return &sessionLock{f: f}, nil
}

func (l *sessionLock) Release() error {
	defer l.f.Close()
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
