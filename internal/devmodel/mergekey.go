package devmodel

import "github.com/rtimothyedwards/extflat/pkg/efmodel"

// orientation is the normalized (source, drain) node pair a device
// presents for parallel-merge comparison, after explicit S/D
// attribute overrides have been applied (§4.6: "Devices marked with
// explicit S / D attributes override the default S/D ordering").
type orientation struct {
	source, drain efmodel.NodeID
}

// termDrain, termGate and termSource are the conventional indices of
// a FET-like Dev's terminals: 0 is drain, 2 is source, matching the
// rendering order spec.md §4.7 specifies (drain, gate, source, ...).
const (
	termDrain = 0
	termGate  = 1
	termSource = 2
)

// sdOrientation returns d's (source, drain) pair, honoring an
// explicit "S" or "D" terminal attribute over the conventional
// drain/source terminal positions.
func sdOrientation(d efmodel.Dev) orientation {
	o := orientation{}
	if len(d.Terms) > termDrain {
		o.drain = d.Terms[termDrain].Node
	} else {
		o.drain = efmodel.NilNodeID
	}
	if len(d.Terms) > termSource {
		o.source = d.Terms[termSource].Node
	} else {
		o.source = efmodel.NilNodeID
	}
	for i, t := range d.Terms {
		switch t.Attr {
		case "S":
			o.source = terminalNode(d, i)
		case "D":
			o.drain = terminalNode(d, i)
		}
	}
	return o
}

func terminalNode(d efmodel.Dev, i int) efmodel.NodeID {
	if i < 0 || i >= len(d.Terms) {
		return efmodel.NilNodeID
	}
	return d.Terms[i].Node
}

// Key is the parallel-merge comparison key for conservative merge:
// same class, type, L, W, and substrate node (§4.6). Orientation is
// compared separately since symmetric classes accept either S/D
// arrangement while asymmetric classes require an exact match.
type Key struct {
	Class     efmodel.DevClass
	Type      int32
	Length    float64
	Width     float64
	Substrate efmodel.NodeID
}

// KeyOf computes d's conservative merge key.
func KeyOf(d efmodel.Dev) Key {
	return Key{Class: d.Class, Type: d.Type, Length: d.Length, Width: d.Width, Substrate: d.Substrate}
}

// SameOrientation reports whether a and b present the same (source,
// drain) pair for merge purposes: an exact match for asymmetric
// classes, either arrangement (including swapped) for symmetric ones.
func SameOrientation(class efmodel.DevClass, a, b efmodel.Dev) bool {
	oa, ob := sdOrientation(a), sdOrientation(b)
	if oa == ob {
		return true
	}
	if class == efmodel.DevAsymFET {
		return false
	}
	return oa.source == ob.drain && oa.drain == ob.source
}
