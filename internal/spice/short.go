package spice

import (
	"fmt"

	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// ShortMode selects how SeparateShortedPorts neutralizes a port list
// in which the same node resolved to two or more declared ports (§6
// "short {none|resistor|voltage}"): inserting a discrete device
// between the duplicate and a freshly synthesized node so that every
// listed port names a distinct net, the way the V device class's
// "purely to separate shorted ports" role is described in §4.7.
type ShortMode int

const (
	ShortNone ShortMode = iota
	ShortResistor
	ShortVoltage
)

// SeparateShortedPorts rewrites every duplicate NodeID occurrence
// within ports (after the first) to a freshly synthesized node,
// returning the adjusted port list plus one zero-value separator
// device per duplicate tying the new node back to the original node
// it was split from. ShortNone leaves ports untouched and returns no
// devices. This only neutralizes the port list itself — it does not
// rewrite any other device's terminals, so it is meant for a top-level
// subckt/port declaration, not a full re-partitioning of the network.
func SeparateShortedPorts(mode ShortMode, pool *hiername.Pool, table *nodetable.Table, ports []efmodel.NodeID) ([]efmodel.NodeID, []efmodel.Dev) {
	if mode == ShortNone {
		return ports, nil
	}

	out := make([]efmodel.NodeID, len(ports))
	copy(out, ports)

	seen := make(map[efmodel.NodeID]bool, len(ports))
	var devs []efmodel.Dev
	dup := 0
	for i, nid := range out {
		if !seen[nid] {
			seen[nid] = true
			continue
		}
		dup++
		synthetic := pool.Intern(efmodel.NilHierName, fmt.Sprintf("short$%d", dup))
		newID := table.EnsureNamed(synthetic)
		out[i] = newID
		devs = append(devs, shortSeparator(mode, nid, newID))
	}
	return out, devs
}

// shortSeparator builds the zero-value device tying a and b together:
// a 0-ohm resistor for ShortResistor, a 0V source for ShortVoltage
// (matching DeviceLine's DevVSource rendering, which always prints
// "0.0" regardless of the Dev's own fields).
func shortSeparator(mode ShortMode, a, b efmodel.NodeID) efmodel.Dev {
	if mode == ShortResistor {
		return efmodel.Dev{
			Class:      efmodel.DevRes,
			Type:       -1,
			Resistance: 0,
			Terms:      []efmodel.DevTerm{{Node: a}, {Node: b}},
		}
	}
	return efmodel.Dev{
		Class: efmodel.DevVSource,
		Type:  -1,
		Terms: []efmodel.DevTerm{{Node: a}, {Node: b}},
	}
}
