// Package filelock provides an advisory exclusive lock on an output
// file, held for the duration of one SPICE/SIM emission so two
// concurrent `extract to spice`/`extract to sim` invocations against
// the same path can't interleave writes (spec.md §5).
//
// Grounded on the teacher's hive.Open/Close build-tag split
// (loader_unix.go/loader_other.go): a Unix implementation using a
// real OS primitive, and a no-op fallback elsewhere, both exposing the
// identical Acquire/File/Release API so callers never branch on platform.
package filelock

import "os"

// Lock holds an advisory exclusive lock on a file for as long as it
// is not Released.
type Lock struct {
	f *os.File
}

// Acquire opens path (creating it if necessary) and takes an advisory
// exclusive lock on it, blocking until it is available.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{f: f}, nil
}

// File returns the underlying file, open and locked, for the caller
// to write to.
func (l *Lock) File() *os.File { return l.f }

// Release unlocks and closes the underlying file.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	unlockErr := unlockFile(l.f)
	closeErr := l.f.Close()
	l.f = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
