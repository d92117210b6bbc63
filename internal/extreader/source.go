package extreader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rtimothyedwards/extflat/internal/defreg"
)

// Source resolves a Def name to its .ext file contents. DirSource is
// the production implementation (a directory search path); tests use
// MapSource to avoid touching the filesystem.
type Source interface {
	Open(defName string) (io.ReadCloser, error)
}

// DirSource searches an ordered list of directories for "<name>.ext",
// first hit wins (§4.3: "the search path cannot locate it" is the
// NoSuchDef condition).
type DirSource struct {
	Dirs []string
}

// Open implements Source.
func (d DirSource) Open(defName string) (io.ReadCloser, error) {
	for _, dir := range d.Dirs {
		path := filepath.Join(dir, defName+".ext")
		f, err := os.Open(path)
		if err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.ext not found in search path", defreg.ErrNoSuchDef, defName)
}

// MapSource serves in-memory .ext text keyed by Def name, used by
// tests that build a small hierarchy without touching disk.
type MapSource map[string]string

// Open implements Source.
func (m MapSource) Open(defName string) (io.ReadCloser, error) {
	text, ok := m[defName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", defreg.ErrNoSuchDef, defName)
	}
	return io.NopCloser(strings.NewReader(text)), nil
}
