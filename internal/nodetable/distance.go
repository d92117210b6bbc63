package nodetable

import (
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

type distKey struct{ a, b efmodel.HierName }

// DistanceTable tracks registered min/max separations between signal
// pairs, keyed canonically so "A to B" and "B to A" collide (§3, §4.4).
type DistanceTable struct {
	pool    *hiername.Pool
	entries map[distKey]*efmodel.DistanceRecord
}

// NewDistanceTable creates an empty table.
func NewDistanceTable(pool *hiername.Pool) *DistanceTable {
	return &DistanceTable{pool: pool, entries: make(map[distKey]*efmodel.DistanceRecord)}
}

func (d *DistanceTable) key(a, b efmodel.HierName) distKey {
	if d.pool.EFHNBest(a, b) <= 0 {
		return distKey{a, b}
	}
	return distKey{b, a}
}

// Record registers a min/max distance observation, widening an
// existing entry's bounds if one is already present for this pair.
func (d *DistanceTable) Record(a, b efmodel.HierName, min, max float64) {
	k := d.key(a, b)
	if e, ok := d.entries[k]; ok {
		if min < e.Min {
			e.Min = min
		}
		if max > e.Max {
			e.Max = max
		}
		return
	}
	d.entries[k] = &efmodel.DistanceRecord{A: k.a, B: k.b, Min: min, Max: max}
}

// All returns every recorded distance, in no particular order.
func (d *DistanceTable) All() []efmodel.DistanceRecord {
	out := make([]efmodel.DistanceRecord, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, *e)
	}
	return out
}
