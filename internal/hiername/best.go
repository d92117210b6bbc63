package hiername

import "github.com/rtimothyedwards/extflat/pkg/efmodel"

// EFHNBest defines the total precedence order spec.md §4.1 specifies
// for choosing a merged node's canonical name. It returns a negative
// number if a is preferred over b, a positive number if b is
// preferred over a, and 0 only when a == b (handles are deduplicated
// by Intern, so equal handles always name the same path).
//
// Precedence, decreasing:
//  1. fewer path components wins
//  2. a name ending in `!` (global) wins over one that does not
//  3. a name not ending in `#` (local-only) wins over one that does
//  4. a shorter leaf string wins
//  5. lexicographic comparison of the leaf string
//
// Rule 5 is the final tiebreak and is itself deterministic (Go string
// comparison is a strict total order), so EFHNBest is a strict total
// order as spec.md §8 requires: irreflexive (a vs a returns 0 only via
// the a==b shortcut, never through the rule chain), antisymmetric, and
// transitive, because every rule is itself a strict total order on its
// own domain and ties fall through in a fixed sequence.
func (p *Pool) EFHNBest(a, b efmodel.HierName) int {
	if a == b {
		return 0
	}

	if d := p.Depth(a) - p.Depth(b); d != 0 {
		return d
	}

	aGlobal, bGlobal := p.IsGlobal(a), p.IsGlobal(b)
	if aGlobal != bGlobal {
		if aGlobal {
			return -1
		}
		return 1
	}

	aLocal, bLocal := p.IsLocalOnly(a), p.IsLocalOnly(b)
	if aLocal != bLocal {
		if aLocal {
			return 1
		}
		return -1
	}

	aLeaf, bLeaf := p.Leaf(a), p.Leaf(b)
	if d := len(aLeaf) - len(bLeaf); d != 0 {
		return d
	}

	switch {
	case aLeaf < bLeaf:
		return -1
	case aLeaf > bLeaf:
		return 1
	default:
		// Leaves are equal in isolation but the handles differ, so the
		// parent chains must differ; recurse on the parent to break
		// the tie deterministically rather than falling back to
		// arrival order.
		aParent, aOK := p.Parent(a)
		bParent, bOK := p.Parent(b)
		switch {
		case !aOK && !bOK:
			return 0
		case !aOK:
			return -1
		case !bOK:
			return 1
		default:
			return p.EFHNBest(aParent, bParent)
		}
	}
}

// Best returns whichever of a, b is preferred by EFHNBest.
func (p *Pool) Best(a, b efmodel.HierName) efmodel.HierName {
	if p.EFHNBest(a, b) <= 0 {
		return a
	}
	return b
}
