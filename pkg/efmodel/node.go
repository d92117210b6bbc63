package efmodel

// NodeFlag is a bitmask of per-EFNode status flags.
type NodeFlag uint16

const (
	// NodeKilled marks a node erased by a killnode record (§4.5 Pass C).
	NodeKilled NodeFlag = 1 << iota
	// NodeDeviceTerminal marks a node that terminates at least one Dev.
	NodeDeviceTerminal
	// NodeSpecial marks a node the reader flagged as electrically special
	// (kept distinct from ordinary wiring by emitters that care).
	NodeSpecial
	// NodePort marks a node that is part of a Def's external interface.
	NodePort
	// NodeSubstratePort marks a port that also carries substrate
	// connectivity, propagated upward by union-find over the merge graph.
	NodeSubstratePort
	// NodeSubstrate marks a node declared with `substrate` rather than
	// `node`, disabling backwards-compatible implicit-global-substrate
	// handling for it.
	NodeSubstrate
	// NodeAfterKill marks a node whose wiring appeared after a killnode
	// record in the same .ext file.
	NodeAfterKill
	// NodeImplicitSubstrate marks a node auto-created from a legacy fet
	// record's substrate-terminal name (no prior node/substrate
	// declaration): the backwards-compat case §4.5 Pass A enters by
	// short local name instead of the usual hierarchical context, so
	// same-named instances of it collide and merge across every cell
	// that references it.
	NodeImplicitSubstrate
)

// Has reports whether all bits in want are set in f.
func (f NodeFlag) Has(want NodeFlag) bool { return f&want == want }

// Rect is an integer rectangle in a Def's local coordinate system
// (already scaled to internal units by the time it reaches an EFNode).
type Rect struct {
	X0, Y0, X1, Y1 int32
}

// Attribute is a (text, location, layer) record attached to an EFNode,
// most recently prepended first — attr records in the .ext stream
// prepend, so the head of the list is the last one read.
type Attribute struct {
	Text      string
	Rect      Rect
	LayerType int32
}

// AreaPerim is the accumulated (area, perimeter) for one resistance
// class, in layout units² and layout units respectively.
type AreaPerim struct {
	Area, Perim float64
}

// EFNodeName binds one interned HierName to the EFNode it currently
// names. The first EFNodeName in a node's alias chain is canonical
// and determines how the node prints (§4.1 EFHNBest, §4.4).
type EFNodeName struct {
	Name HierName
	Node NodeID
	// Next is the index, within the owning nodetable.Table's alias
	// arena, of the next EFNodeName in this node's alias chain, or -1.
	Next int32
	// Port is the declared subcircuit port index, or -1 if this name
	// does not carry a port index (§4.3 `subcircuit` record).
	Port int32
}

// NodeID is a handle to an EFNode within one nodetable.Table (per-Def
// during reading, or the single global table after flattening). It
// replaces the intrusive circular-list pointer described in spec.md
// §3/§9 with an arena index; merges rewrite indices instead of chasing
// pointers.
type NodeID int32

// NilNodeID is the handle for "no node".
const NilNodeID NodeID = -1

// EFNode is one electrical node, either local to a Def (during
// reading) or in the global flat graph (after flattening).
type EFNode struct {
	// Canonical is the index, within the owning alias arena, of the
	// head EFNodeName (the canonical name) for this node.
	Canonical int32

	Flags NodeFlag

	// SubstrateCap is the node's lumped capacitance to substrate, in
	// attofarads. Never decremented below zero (§4.5 invariants).
	SubstrateCap float64

	// Resistance is the lumped node resistance from a node/substrate
	// record, in milliohms. Duplicate node declarations accumulate it
	// the same way they accumulate SubstrateCap (§4.3).
	Resistance float64

	LayerType int32
	Loc       Rect
	// HasLoc records whether Loc/LayerType were ever set from an
	// explicit node/substrate record, as opposed to left at their zero
	// value. Merge (§8 testable properties) keeps the pre-merge
	// lower-left location unless exactly one side is "typed".
	HasLoc bool

	// AreaPerim holds one (area, perimeter) pair per configured
	// resistance class, indexed the same way in every Def.
	AreaPerim []AreaPerim

	// Attrs is the node's attribute list, most-recently-prepended first.
	Attrs []Attribute

	// ListNext/ListPrev are the circular-list links within the owning
	// nodetable.Table's arena. Owned and maintained exclusively by
	// nodetable.Table; other packages must not write to them.
	ListNext, ListPrev NodeID

	// Client is emitter bookkeeping: a SPICE2 node number, an HSPICE
	// shortened-name cache entry, or similar. Cleared at teardown.
	Client any
}
