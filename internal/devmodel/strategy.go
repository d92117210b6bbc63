package devmodel

import (
	"fmt"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Strategy decides whether two same-class device instances are
// electrically parallel and, if so, how their multipliers combine
// (§4.6). Selected once per session the way the teacher's
// merge/strategy.Strategy is selected once per Session via Options.
type Strategy interface {
	// Mergeable reports whether candidate may fold into rep.
	Mergeable(rep, candidate efmodel.Dev) bool
	// Combine returns the multiplier rep accumulates after absorbing
	// candidate, which carried multiplier candidateMult.
	Combine(repMult, candidateMult float64, rep, candidate efmodel.Dev) float64
}

// Conservative requires identical class, type, L, W, substrate, and
// S/D orientation (exact for asymmetric classes, either arrangement
// for symmetric ones).
type Conservative struct{}

func (Conservative) Mergeable(rep, candidate efmodel.Dev) bool {
	if KeyOf(rep) != KeyOf(candidate) {
		return false
	}
	return SameOrientation(rep.Class, rep, candidate)
}

func (Conservative) Combine(repMult, candidateMult float64, _, _ efmodel.Dev) float64 {
	return repMult + candidateMult
}

// Aggressive relaxes W equality for FET-like classes: a candidate
// with a different width still merges, contributing a fractional
// multiplier of w_new/w_existing rather than a whole unit (§4.6).
type Aggressive struct{}

func (Aggressive) Mergeable(rep, candidate efmodel.Dev) bool {
	if rep.Class != candidate.Class || rep.Type != candidate.Type || rep.Substrate != candidate.Substrate {
		return false
	}
	if rep.Class.IsFETLike() {
		if rep.Length != candidate.Length {
			return false
		}
	} else if KeyOf(rep) != KeyOf(candidate) {
		return false
	}
	return SameOrientation(rep.Class, rep, candidate)
}

func (Aggressive) Combine(repMult, candidateMult float64, rep, candidate efmodel.Dev) float64 {
	if rep.Class.IsFETLike() && rep.Width != 0 && rep.Width != candidate.Width {
		return repMult + candidateMult*(candidate.Width/rep.Width)
	}
	return repMult + candidateMult
}

// MergeAll groups instances (in traversal order) under strat,
// returning the full input slice, in which every absorbed member is
// flagged Killed and each group's representative carries the
// accumulated multiplier, plus one ErrParallelMergeConflict per
// offending pair. Representatives
// keep the position (and hence Dev fields) of the first instance seen
// in each group, per §4.6's "merged devices are not physically
// combined", except that an explicit S/D terminal attribute the
// representative lacks is adopted from the candidate that carries it.
func MergeAll(instances []Instance, strat Strategy) ([]Instance, []error) {
	type bucket struct {
		repIdx int // index into instances of the group representative
	}
	buckets := make(map[Key][]bucket)
	var warnings []error

	for i := range instances {
		cand := instances[i]
		key := KeyOf(cand.Dev)
		key.Width = 0 // width equality is decided by strat.Mergeable
		found := false
		for _, b := range buckets[key] {
			rep := &instances[b.repIdx]
			if strat.Mergeable(rep.Dev, cand.Dev) {
				if msg := adoptMoreSpecificSD(&rep.Dev, cand.Dev); msg != "" {
					warnings = append(warnings, fmt.Errorf("%w: %s", ErrParallelMergeConflict, msg))
				}
				rep.Multiplier = strat.Combine(rep.Multiplier, cand.Multiplier, rep.Dev, cand.Dev)
				if i != b.repIdx {
					instances[i].Killed = true
					instances[i].Multiplier = KilledMultiplier
				}
				found = true
				break
			}
		}
		if !found {
			buckets[key] = append(buckets[key], bucket{repIdx: i})
		}
	}
	return instances, warnings
}

// hasExplicitSD reports whether d carries an explicit "S" or "D"
// terminal-attribute override anywhere in its terminal list.
func hasExplicitSD(d efmodel.Dev) bool {
	for _, t := range d.Terms {
		if t.Attr == "S" || t.Attr == "D" {
			return true
		}
	}
	return false
}

// adoptMoreSpecificSD resolves a source/drain attribute conflict
// between a merge representative and the candidate folding into it:
// when only one side carries an explicit S/D override, that override
// is copied onto rep's matching terminal since it is the more
// specific of the two readings. Returns a non-empty description when
// a conflict was found and resolved, empty otherwise.
func adoptMoreSpecificSD(rep *efmodel.Dev, cand efmodel.Dev) string {
	repHas, candHas := hasExplicitSD(*rep), hasExplicitSD(cand)
	if repHas == candHas {
		return ""
	}
	if !repHas && candHas {
		for i := range rep.Terms {
			if i >= len(cand.Terms) {
				break
			}
			if (cand.Terms[i].Attr == "S" || cand.Terms[i].Attr == "D") && rep.Terms[i].Attr == "" {
				rep.Terms[i].Attr = cand.Terms[i].Attr
			}
		}
	}
	return "one side of the merge carried an explicit S/D override the other lacked"
}
