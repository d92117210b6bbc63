package efmodel

// DefID is a handle to a Def within a defreg.Registry.
type DefID int32

// NilDefID is the handle for "no Def".
const NilDefID DefID = -1

// DefFlag is a bitmask of per-Def status flags (§3 Def).
type DefFlag uint8

const (
	// DefAvailable marks a Def whose .ext file has been fully read.
	// A Def created only as a `use` placeholder starts without this
	// flag set.
	DefAvailable DefFlag = 1 << iota
	// DefIsSubcircuit marks a Def that no-flat-subcircuit mode stops
	// at: only its ports are flattened into the parent.
	DefIsSubcircuit
	// DefProcessed marks a Def already visited in the current
	// traversal. Nothing in this module sets or tests it: Flatten's
	// cycle check keeps its own set of the Defs open on the current
	// path.
	DefProcessed
	// DefNoDevices marks a Def with no device records — used by the
	// hierarchical SPICE emitter to decide whether an empty, portless
	// Def can be absorbed into its parent (§4.7).
	DefNoDevices
	// DefImplicitSubstrate marks a Def that has at least one
	// implicitly-global substrate node (declared by short local name,
	// §4.5 Pass A), which disables certain backwards-compat substrate
	// merge shortcuts for it.
	DefImplicitSubstrate
	// DefPrimitive marks a Def the hierarchical SPICE emitter must
	// never emit as its own .subckt (§4.7).
	DefPrimitive
)

// Has reports whether all bits in want are set in f.
func (f DefFlag) Has(want DefFlag) bool { return f&want == want }

// Transform is the six-element affine integer transform
// Magic .ext files use: [a b c d e f] maps a local (x,y) to
// (a*x + b*y + c, d*x + e*y + f) in the parent's coordinate system.
type Transform [6]int64

// Identity is the no-op transform.
var Identity = Transform{1, 0, 0, 0, 1, 0}

// Apply maps a local point into the parent coordinate system.
func (t Transform) Apply(x, y int64) (int64, int64) {
	return t[0]*x + t[1]*y + t[2], t[3]*x + t[4]*y + t[5]
}

// Compose returns the transform equivalent to applying t first, then
// outer (outer(t(p))).
func (t Transform) Compose(outer Transform) Transform {
	return Transform{
		outer[0]*t[0] + outer[1]*t[3],
		outer[0]*t[1] + outer[1]*t[4],
		outer[0]*t[2] + outer[1]*t[5] + outer[2],
		outer[3]*t[0] + outer[4]*t[3],
		outer[3]*t[1] + outer[4]*t[4],
		outer[3]*t[2] + outer[4]*t[5] + outer[5],
	}
}

// ArrayRange describes one axis of an arrayed Use: elements lo..hi
// inclusive, separated by sep layout units. A non-array axis has
// Lo == Hi and Sep == 0.
type ArrayRange struct {
	Lo, Hi, Sep int32
}

// Len returns the element count of the range (1 for a non-array axis).
func (a ArrayRange) Len() int32 {
	if a.Lo == a.Hi {
		return 1
	}
	return a.Hi - a.Lo + 1
}

// IsArray reports whether the range spans more than one element.
func (a ArrayRange) IsArray() bool { return a.Lo != a.Hi }

// Use is a child instance of a Def inside another Def (§3 Use).
type Use struct {
	ID        string // instance name as written in the .ext `use` record
	Child     DefID
	Transform Transform
	X, Y      ArrayRange
}

// IsArrayed reports whether this Use expands to more than one
// instance in the flattened hierarchy.
func (u Use) IsArrayed() bool { return u.X.IsArray() || u.Y.IsArray() }

// Scale is the integer-unit ratio recorded by a Def's `scale` record:
// internal units per lambda, and lambda units per CIF unit (§4.3,
// §6).
type Scale struct {
	Internal, Lambda, CIF int32
}

// Def is a cell definition: the contents of one .ext file (§3 Def).
type Def struct {
	Name  string
	Scale Scale
	Flags DefFlag

	Uses        []Use
	Connections []Connection
	Caps        []Connection // two-terminal parasitic caps (IsResist == false)
	Resistors   []Connection // two-terminal explicit resistors (IsResist == true)
	Devices     []Dev
	Kills       []Kill
	Distances   []DistanceRecord
}
