// Package devmodel implements the device model and parallel-merge
// bookkeeping of spec.md §4.6: deciding which devices in a flattened
// network are electrically parallel, folding a group into one
// surviving instance plus a multiplier, and applying a device type's
// SPICE parameter templates.
//
// Parallel-merge is grounded on the teacher's hive/merge/strategy
// package: a Strategy interface selected once per session (there,
// Append/InPlace/Hybrid; here, Conservative/Aggressive) so the
// decision of "how do two candidates combine" is swappable without
// touching the walk that finds candidates.
package devmodel

import "github.com/rtimothyedwards/extflat/pkg/efmodel"

// Instance wraps one flattened Dev with its parallel-merge
// bookkeeping: which post-order traversal position it came from and
// its accumulated multiplier. A Multiplier of -1 marks it dead — the
// emitter skips it — while survivors carry the combined multiplicity
// (§4.6: "Merged devices are not physically combined; instead each
// Def instance ... has an entry in a multiplier array").
type Instance struct {
	Dev        efmodel.Dev
	Index      int
	Multiplier float64
	Killed     bool
}

// KilledMultiplier is the sentinel recorded in DESIGN.md/§4.6 for an
// instance absorbed into another during merge.
const KilledMultiplier = -1

// NewInstances wraps each flattened device as a surviving, unmerged
// Instance with multiplier 1, preserving traversal order (post-order
// position is the caller's device-list index, matching §4.5's device
// emission order from the flattener).
func NewInstances(devs []efmodel.Dev) []Instance {
	out := make([]Instance, len(devs))
	for i, d := range devs {
		out[i] = Instance{Dev: d, Index: i, Multiplier: 1}
	}
	return out
}

// Live returns every non-killed instance, in original order.
func Live(instances []Instance) []Instance {
	out := make([]Instance, 0, len(instances))
	for _, in := range instances {
		if !in.Killed {
			out = append(out, in)
		}
	}
	return out
}
