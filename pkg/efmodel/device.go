package efmodel

// DevClass tags the kind of a Dev record (§3 Dev, §4.6, §4.7).
type DevClass uint8

const (
	DevFET DevClass = iota
	DevMOSFET
	DevAsymFET // asymmetric FET: source/drain never swap on merge
	DevBJT
	DevDiodeN // cathode-first rendering
	DevDiodeP // anode-first rendering
	DevRes
	DevCap
	DevCapReverse
	DevSubckt
	DevMSubckt // MOS-like pin order
	DevRSubckt // gate terminal is a label only
	DevCSubckt
	DevVSource
)

// IsFETLike reports whether a class uses the FET-family terminal model
// (drain/gate/source/[substrate]) for merge comparisons and rendering.
func (c DevClass) IsFETLike() bool {
	switch c {
	case DevFET, DevMOSFET, DevAsymFET:
		return true
	default:
		return false
	}
}

// DevTerm is one terminal of a Dev: a non-owning reference to the
// EFNode it connects to (by NodeID, resolved against the owning
// table), a per-terminal length (for FETs, half the channel-edge
// length touching this terminal), and optional per-terminal area and
// perimeter that — per spec.md §9's resolved open question — take
// precedence over the node's own AreaPerim entry when present.
type DevTerm struct {
	Node   NodeID
	Length float64

	HasAreaPerim bool
	AreaPerim    AreaPerim

	// Attr is the raw comma-separated attribute string from the
	// terminal's .ext record, e.g. "S" / "D" / "ext:APH". Parsed
	// lazily by devmodel and spice, not eagerly split here.
	Attr string
}

// Param is one device parameter: either a named value or a verbatim
// pass-through token to be emitted unchanged.
type Param struct {
	Name      string
	Value     float64
	HasValue  bool
	Verbatim  string // used when HasValue is false
}

// Dev is a single device instance as read from one Def (before
// parallel-merge bookkeeping, which lives alongside it in devmodel).
type Dev struct {
	Class DevClass
	// Type indexes into the session-wide device-type table
	// (classindex), selecting the model name and parameter templates.
	Type int32

	Area, Perim     float64
	Length, Width   float64
	Capacitance     float64 // femtofarads, C/Rev-C classes
	Resistance      float64 // ohms, R class

	// Substrate is the optional substrate terminal, or NilNodeID.
	Substrate NodeID

	Loc Rect

	Params []Param
	Terms  []DevTerm
}
