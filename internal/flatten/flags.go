// Package flatten implements the hierarchical-to-flat reduction of
// spec.md §4.5: a full-hierarchy node population pass followed by
// connection, kill, global-name-merge, and cap/distance folding passes
// over the same instance tree, producing one flat node table plus a
// flat device and coupling-cap list.
//
// The instance-tree descent is grounded on the teacher's
// merge.Session.WalkKeys / walkKeysRecursive: a recursive walk that
// checks ctx.Err() once per node before doing any work, so a caller
// can cancel a flatten of a very large hierarchy. Cycle detection
// keeps its own set of DefIDs (the efmodel.DefProcessed flag is not
// used): a Def is marked while it is an open ancestor on the current path and
// unmarked on the way back up, not a global visited-once flag (the
// same Def legitimately appears many times via different array
// elements or sibling Uses). The walk is depth-first post-order: every
// child Use is fully visited before the current Def's own nodes and
// devices are added, matching the original efFlatNodes/efVisitDevs
// ordering.
package flatten

// Flags selects which optional foldings a Flatten/FlattenOneLevel call
// performs (§4.5).
type Flags uint8

const (
	// FlatNodes names the node-population pass. Flatten and
	// FlattenOneLevel do not test this bit: nodes are populated whether
	// or not it is set.
	FlatNodes Flags = 1 << iota
	// FlatCaps folds coupling caps (Def.Caps) into the flat network.
	FlatCaps
	// FlatResistors folds explicit resistors (Def.Resistors).
	FlatResistors
	// FlatDistances folds signal-to-signal distance records.
	FlatDistances
	// NoFlatSubcircuit stops the descent at any Def flagged
	// DefIsSubcircuit: only its ports enter the flat node table.
	NoFlatSubcircuit
	// NoNameMerge disables Pass D's global-leaf-name unification.
	NoNameMerge
)

// Has reports whether all bits in want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }
