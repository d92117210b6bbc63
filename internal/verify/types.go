// Package verify implements the net-list verifier of spec.md §4.9:
// given a declared net list and a layout's connectivity, for each net
// it enumerates the declared terminals' labels, traces connected paint
// outward from them, and reports opens (a declared terminal never
// reached) and shorts (paint reaches a label belonging to some other
// net). It also implements ripup (erase a net's wiring) and cull
// (drop error-free nets from the work list).
//
// Grounded on the teacher's NMWiring.c equivalent in the original
// source tree: nmwVerifyNetFunc/nmwVerifyLabelFunc/nmwVerifyTileFunc
// trace wiring net by net, recursing into same-named labels elsewhere
// in the cell to follow feedthroughs, and nmRipNameFunc/NMRipupList
// erase exactly the connected tiles and labels found that way. This
// package has no layout engine of its own: GeometryDB and FeedbackSink
// stand in for Magic's database and its feedback-area queue, the way
// internal/flatten's Def/Use walk stands in for Magic's cell tree.
package verify

import "github.com/rtimothyedwards/extflat/pkg/efmodel"

// Label is one terminal location in the layout: a name and the area
// of paint it's attached to.
type Label struct {
	Name string
	Area efmodel.Rect
}

// GeometryDB is the layout collaborator a Verify/Ripup pass queries.
// Implementations need not be backed by a real layout engine — see
// fakegeo for an in-memory test double.
type GeometryDB interface {
	// FindLabels returns every label location in the layout whose
	// terminal name equals name, or nil if none exists.
	FindLabels(name string) []Label
	// TraceConnected returns every label (of any name, including
	// start itself) reachable from start by following connected paint
	// through the tile database's connect-table.
	TraceConnected(start Label) []Label
	// Erase removes the paint reachable from start (paint of the
	// exact types present there) along with every label attached to
	// it.
	Erase(start Label) error
}

// Kind distinguishes the two net-list verification error classes.
type Kind int

const (
	// Open marks a declared terminal that connected paint never
	// reached.
	Open Kind = iota
	// Short marks paint reaching a label that belongs to some other
	// net.
	Short
)

func (k Kind) String() string {
	if k == Short {
		return "short"
	}
	return "open"
}

// FeedbackSink receives one feedback area per error found, mirroring
// Magic's DBWFeedbackAdd.
type FeedbackSink interface {
	Feedback(area efmodel.Rect, kind Kind, message string)
}

// Net is one paragraph of the net-list file: a name (its first
// terminal, used as the net's handle, matching NMEnumNets) plus its
// full declared terminal set.
type Net struct {
	Terminals []string
}

// Name returns the net's handle: its first declared terminal.
func (n Net) Name() string {
	if len(n.Terminals) == 0 {
		return ""
	}
	return n.Terminals[0]
}
