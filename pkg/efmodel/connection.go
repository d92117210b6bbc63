package efmodel

// SubRange is one array-subscript range on a ConnName, e.g. the
// `[0:3]` in `merge bus[0:3] other[0:3] 10`.
type SubRange struct {
	Lo, Hi int32
}

// Len returns the number of elements the range spans.
func (r SubRange) Len() int32 { return r.Hi - r.Lo + 1 }

// ConnName is one side of a Connection: a name template plus zero to
// two subscript ranges, expanded by the flattener over the Cartesian
// product of its ranges (§4.5 Pass B).
type ConnName struct {
	Template string // contains "%d" placeholders, one per range
	Ranges   []SubRange
}

// Connection is a forced merge / parasitic adjustment / two-node
// capacitor or resistor record, exactly as read from a `merge`, `cap`,
// or `resist` line (§3 Connection).
type Connection struct {
	Name1, Name2 ConnName

	// IsResist marks a record read from a standalone `resist` line.
	// A plain `merge` record has Value == the delta-cap adjustment.
	Value    float64
	IsResist bool

	// Delta is the per-resistance-class (area, perimeter) adjustment
	// applied to the target node, indexed the same way as
	// EFNode.AreaPerim.
	Delta []AreaPerim
}

// Kill records a node to be erased after its owning Def is fully read
// (§3 Kill, §4.5 Pass C).
type Kill struct {
	Name HierName
}

// DistanceRecord is a registered min/max separation between two
// signals, keyed canonically so "A to B" and "B to A" collide (§3
// Distance record, §4.4).
type DistanceRecord struct {
	A, B     HierName
	Min, Max float64
}
