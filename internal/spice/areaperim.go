package spice

import (
	"strings"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// apKey identifies one (node, resistance class) pair for the
// visited-once area/perimeter bookkeeping of §4.7: "the first emitter
// to print the AP for a given (node, class) prints the real value;
// subsequent uses print 0."
type apKey struct {
	node  efmodel.NodeID
	class int
}

// AreaPerimTracker suppresses duplicate area/perimeter contributions
// across devices sharing a terminal node, so flattened designs with
// many gates tied to the same diffusion don't double-count its area.
type AreaPerimTracker struct {
	seen map[apKey]bool
}

// NewAreaPerimTracker creates an empty tracker. One tracker is scoped
// to a single emitted file.
func NewAreaPerimTracker() *AreaPerimTracker {
	return &AreaPerimTracker{seen: make(map[apKey]bool)}
}

// Take returns ap if this is the first call for (node, class), or the
// zero AreaPerim on every subsequent call.
func (t *AreaPerimTracker) Take(node efmodel.NodeID, class int, ap efmodel.AreaPerim) efmodel.AreaPerim {
	k := apKey{node, class}
	if t.seen[k] {
		return efmodel.AreaPerim{}
	}
	t.seen[k] = true
	return ap
}

// hierarchicalAP reports whether a terminal's attribute string asks
// for hierarchical (per-parent) area/perimeter accounting rather than
// the flat total: an "ext:APH" tag, as opposed to "ext:APF" or the
// attribute being absent (§4.7).
func hierarchicalAP(attr string) bool {
	for _, tok := range strings.Split(attr, ",") {
		if strings.TrimSpace(tok) == "ext:APH" {
			return true
		}
	}
	return false
}
