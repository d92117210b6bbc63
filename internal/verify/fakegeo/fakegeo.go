// Package fakegeo is an in-memory GeometryDB test double for
// internal/verify: connectivity is declared directly as groups of
// labels that are "connected paint", rather than derived from an
// actual tile plane.
package fakegeo

import "github.com/rtimothyedwards/extflat/internal/verify"

// DB is a GeometryDB backed by explicit connected-label groups.
type DB struct {
	groups []map[verify.Label]bool
	erased map[verify.Label]bool
}

// New returns an empty DB.
func New() *DB {
	return &DB{erased: make(map[verify.Label]bool)}
}

// Connect declares that every label in labels is mutually reachable by
// connected paint (one "net" of physical connectivity, independent of
// any declared net list). A label may appear in only one group.
func (d *DB) Connect(labels ...verify.Label) {
	g := make(map[verify.Label]bool, len(labels))
	for _, l := range labels {
		g[l] = true
	}
	d.groups = append(d.groups, g)
}

// FindLabels implements verify.GeometryDB.
func (d *DB) FindLabels(name string) []verify.Label {
	var out []verify.Label
	for _, g := range d.groups {
		for l := range g {
			if l.Name == name && !d.erased[l] {
				out = append(out, l)
			}
		}
	}
	return out
}

// TraceConnected implements verify.GeometryDB: it returns every label
// in start's group, excluding any already erased.
func (d *DB) TraceConnected(start verify.Label) []verify.Label {
	if d.erased[start] {
		return nil
	}
	for _, g := range d.groups {
		if g[start] {
			out := make([]verify.Label, 0, len(g))
			for l := range g {
				if !d.erased[l] {
					out = append(out, l)
				}
			}
			return out
		}
	}
	return []verify.Label{start}
}

// Erase implements verify.GeometryDB: it marks every label in start's
// connected group as erased, so later FindLabels/TraceConnected calls
// no longer see it.
func (d *DB) Erase(start verify.Label) error {
	for _, lbl := range d.TraceConnected(start) {
		d.erased[lbl] = true
	}
	return nil
}

// Erased reports whether a label has been removed by a prior Erase
// call, for test assertions.
func (d *DB) Erased(l verify.Label) bool { return d.erased[l] }
