// Package defreg implements the process-wide (session-scoped) Def/Use
// registry of spec.md §4.2: a name-to-Def map, placeholder creation
// for not-yet-read Defs referenced by a `use` record, and the
// resistclasses one-shot validation that must agree across every
// .ext file in one session.
//
// Grounded on the teacher's hive/link package for the "attach one
// definition under another, validating as you go" shape, generalized
// here from a single parent-mount operation to an n-way graph of
// Def/Use references built incrementally by the reader (§4.3).
package defreg

import (
	"fmt"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Registry owns every Def created during one session and resolves
// `use` references against them (§4.2, §5: "command-scoped" lifetime).
type Registry struct {
	defs    []efmodel.Def
	byName  map[string]efmodel.DefID
	pending []string // names enqueued for later reading, FIFO

	resistClasses    int
	resistClassesSet bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]efmodel.DefID), resistClasses: -1}
}

// Lookup returns the existing Def named name, if any.
func (r *Registry) Lookup(name string) (efmodel.DefID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// NewDef creates an empty, unavailable Def named name and registers
// it. Callers must not call NewDef for a name Lookup already finds;
// use GetOrCreate when the caller doesn't already know which case
// applies.
func (r *Registry) NewDef(name string) efmodel.DefID {
	id := efmodel.DefID(len(r.defs))
	r.defs = append(r.defs, efmodel.Def{Name: name})
	r.byName[name] = id
	return id
}

// GetOrCreate returns the Def named name, creating an empty
// placeholder (and enqueueing it for reading) if it doesn't exist yet
// — the behavior spec.md §4.2 specifies for a `use` record naming a
// Def not yet read.
func (r *Registry) GetOrCreate(name string) efmodel.DefID {
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := r.NewDef(name)
	r.pending = append(r.pending, name)
	return id
}

// Get returns a mutable pointer to the Def for id.
func (r *Registry) Get(id efmodel.DefID) *efmodel.Def {
	return &r.defs[id]
}

// Name returns id's Def name without requiring a full Get.
func (r *Registry) Name(id efmodel.DefID) string {
	return r.defs[id].Name
}

// Len returns the number of Defs registered (read or placeholder).
func (r *Registry) Len() int { return len(r.defs) }

// NextPending pops the next not-yet-read Def name off the work queue,
// in the order `use` records first referenced it.
func (r *Registry) NextPending() (string, bool) {
	if len(r.pending) == 0 {
		return "", false
	}
	name := r.pending[0]
	r.pending = r.pending[1:]
	return name, true
}

// SetResistClasses records the one-shot resistclasses count from a
// .ext file's header, or reports ErrClassMismatch if a different
// count was already recorded by an earlier file in this session
// (§4.3, §7).
func (r *Registry) SetResistClasses(n int) error {
	if !r.resistClassesSet {
		r.resistClasses = n
		r.resistClassesSet = true
		return nil
	}
	if r.resistClasses != n {
		return fmt.Errorf("%w: have %d, got %d", ErrClassMismatch, r.resistClasses, n)
	}
	return nil
}

// ResistClasses returns the session's configured resistance-class
// count, or 0 if none has been set yet.
func (r *Registry) ResistClasses() int {
	if !r.resistClassesSet {
		return 0
	}
	return r.resistClasses
}

// Each calls fn once per registered Def, in creation order (§5: "Uses
// are traversed in insertion order" — the registry itself preserves
// the same order for whole-registry walks like hierarchical emission).
func (r *Registry) Each(fn func(efmodel.DefID) bool) {
	for i := range r.defs {
		if !fn(efmodel.DefID(i)) {
			return
		}
	}
}
