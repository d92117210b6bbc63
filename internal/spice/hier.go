package spice

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/defreg"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// HierOptions configures one hierarchical-SPICE emission pass.
type HierOptions struct {
	RenderOptions
	Scale string
}

// EmitHierarchical walks every Def reachable from root in post order
// (children before parents, each Def visited once), emitting one
// ".subckt" per Def that is not marked primitive and is not absorbed
// into its parent, with an "X..." call standing in for every
// remaining child use. Exactly one level of hierarchy is flattened
// per Def: FlattenOneLevel merges a Def's own devices with any
// directly-absorbed (no-device, no-port) child before printing, but a
// non-absorbed child is always represented by a subcircuit call, not
// inlined (§4.7).
func EmitHierarchical(ctx context.Context, w io.Writer, opts HierOptions, reg *defreg.Registry, pool *hiername.Pool, types *classindex.DeviceTypes, tables map[efmodel.DefID]*nodetable.Table, root efmodel.DefID) ([]error, error) {
	if opts.Scale != "" {
		fmt.Fprintf(w, ".option scale=%s\n", opts.Scale)
	}

	order := postOrder(reg, root)

	ports := make(map[efmodel.DefID][]efmodel.NodeID)
	for _, id := range order {
		ports[id] = makePorts(tables, id)
	}

	absorbed := make(map[efmodel.DefID]bool)
	for _, id := range order {
		if id == root {
			continue
		}
		def := reg.Get(id)
		absorbed[id] = def.Flags.Has(efmodel.DefNoDevices) && len(ports[id]) == 0
	}

	var warnings []error
	for _, id := range order {
		def := reg.Get(id)
		if def.Flags.Has(efmodel.DefPrimitive) || absorbed[id] {
			continue
		}
		w2, err := emitOneDef(ctx, w, opts, reg, pool, types, tables, id, root, ports, absorbed)
		warnings = append(warnings, w2...)
		if err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

func emitOneDef(ctx context.Context, w io.Writer, opts HierOptions, reg *defreg.Registry, pool *hiername.Pool, types *classindex.DeviceTypes, tables map[efmodel.DefID]*nodetable.Table, id, root efmodel.DefID, ports map[efmodel.DefID][]efmodel.NodeID, absorbed map[efmodel.DefID]bool) ([]error, error) {
	def := reg.Get(id)

	localTable := tables[id]
	portNames := make([]efmodel.HierName, len(ports[id]))
	for i, nid := range ports[id] {
		portNames[i] = localTable.CanonicalName(nid)
	}

	res, err := flatten.FlattenOneLevel(ctx, reg, pool, tables, id, flatten.FlatNodes|flatten.FlatCaps|flatten.FlatResistors)
	if err != nil {
		return nil, fmt.Errorf("spice: flatten %s: %w", def.Name, err)
	}

	namer := NewNamer(opts.Flavor, pool)
	counters := NewInstanceCounters()
	apt := NewAreaPerimTracker()

	flatPortIDs := make([]efmodel.NodeID, 0, len(portNames))
	for _, h := range portNames {
		if nid, ok := res.Table.Lookup(h); ok {
			flatPortIDs = append(flatPortIDs, nid)
		}
	}

	wrap := id != root || def.Flags.Has(efmodel.DefIsSubcircuit)
	if wrap {
		if err := emitSubcktHeader(w, res.Table, namer, Options{Name: def.Name, Ports: flatPortIDs}); err != nil {
			return nil, err
		}
	}

	for _, dev := range res.Devices {
		line, err := DeviceLine(opts.RenderOptions, res.Table, namer, types, dev, counters, apt)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(w, line)
	}
	if err := emitCouplings(w, res.Table, namer, res.Resistors, "R", decimalIndex, SIValue); err != nil {
		return nil, err
	}
	if err := emitCouplings(w, res.Table, namer, res.Caps, "C", decimalIndex, SIValue); err != nil {
		return nil, err
	}

	var warnings []error
	for ui, use := range def.Uses {
		if absorbed[use.Child] {
			continue
		}
		childPortNames := make([]efmodel.HierName, len(ports[use.Child]))
		childTable := tables[use.Child]
		for i, nid := range ports[use.Child] {
			childPortNames[i] = childTable.CanonicalName(nid)
		}
		w2, err := emitUseCalls(w, pool, res.Table, namer, reg, use, ui, childPortNames)
		warnings = append(warnings, w2...)
		if err != nil {
			return warnings, err
		}
	}

	if wrap {
		fmt.Fprintln(w, ".ends")
	} else {
		fmt.Fprintln(w, ".end")
	}
	return warnings, nil
}

func decimalIndex(i int) string { return fmt.Sprintf("%d", i) }

// postOrder returns every Def reachable from root, children before
// parents, each Def visited once even if used more than once.
func postOrder(reg *defreg.Registry, root efmodel.DefID) []efmodel.DefID {
	var order []efmodel.DefID
	visited := make(map[efmodel.DefID]bool)
	var walk func(id efmodel.DefID)
	walk = func(id efmodel.DefID) {
		if visited[id] {
			return
		}
		visited[id] = true
		def := reg.Get(id)
		for _, use := range def.Uses {
			walk(use.Child)
		}
		order = append(order, id)
	}
	walk(root)
	return order
}

// makePorts returns def's local port nodes in declared port-index
// order: every node in def's own (pre-flatten) table flagged
// NodePort, sorted by the index SetCanonicalPort recorded when its
// `subcircuit` record was read (§4.7 make_ports).
func makePorts(tables map[efmodel.DefID]*nodetable.Table, id efmodel.DefID) []efmodel.NodeID {
	return PortsOf(tables[id])
}

// PortsOf returns table's port nodes in declared port-index order, the
// same rule makePorts applies per-Def during a hierarchical walk; a
// flat (non-hierarchical) emission calls this directly against the
// single flattened root table to learn its top-level port list.
func PortsOf(table *nodetable.Table) []efmodel.NodeID {
	if table == nil {
		return nil
	}
	var out []efmodel.NodeID
	table.Each(func(nid efmodel.NodeID) bool {
		if table.Node(nid).Flags.Has(efmodel.NodePort) {
			out = append(out, nid)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return table.CanonicalPort(out[i]) < table.CanonicalPort(out[j])
	})
	return out
}

// reroot reinterprets local's leaf text as a chain of components
// under base, mirroring the flattener's own rerootLocal: a port name
// carries no parent prefix in the child's own table, so composing it
// under the per-instance context name base yields the flat name that
// instance's devices were cloned under.
func reroot(pool *hiername.Pool, base efmodel.HierName, local efmodel.HierName) efmodel.HierName {
	leaf := pool.Leaf(local)
	cur := base
	for _, comp := range strings.Split(leaf, "/") {
		if comp == "" {
			continue
		}
		cur = pool.Intern(cur, comp)
	}
	return cur
}

// arrayComponent names one element of an arrayed Use the same way the
// flattener does, so the two stay in step.
func arrayComponent(id string, use efmodel.Use, ix, iy int32) string {
	switch {
	case use.X.IsArray() && use.Y.IsArray():
		return fmt.Sprintf("%s[%d,%d]", id, ix, iy)
	case use.X.IsArray():
		return fmt.Sprintf("%s[%d]", id, ix)
	case use.Y.IsArray():
		return fmt.Sprintf("%s[%d]", id, iy)
	default:
		return id
	}
}

// emitUseCalls writes one "X<index>_<element> <port nets...> <subckt
// name>" instance line per element of a (possibly arrayed) Use, where
// <element> is the Use's id plus any array subscript,
// naming each port net by rerooting the child's local port name under
// that element's instance-context name and looking it up in the
// parent's post-absorption flat table. A port that fails to resolve
// there was optimized out of the flattened network (e.g. a port
// declared but never actually wired to anything at its Def's own
// level); the call falls back to "0" and reports
// flatten.ErrPortOptimizedOut rather than failing the emission.
func emitUseCalls(w io.Writer, pool *hiername.Pool, table *nodetable.Table, namer *Namer, reg *defreg.Registry, use efmodel.Use, index int, childPorts []efmodel.HierName) ([]error, error) {
	var warnings []error
	for iy := use.Y.Lo; iy <= use.Y.Hi; iy++ {
		for ix := use.X.Lo; ix <= use.X.Hi; ix++ {
			comp := arrayComponent(use.ID, use, ix, iy)
			ctxName := pool.Intern(efmodel.NilHierName, comp)

			fmt.Fprintf(w, "X%d_%s", index, comp)
			for _, local := range childPorts {
				flat := reroot(pool, ctxName, local)
				nid, ok := table.Lookup(flat)
				if !ok {
					fmt.Fprint(w, " 0")
					warnings = append(warnings, fmt.Errorf("%w: port %q of instance %s_%s", flatten.ErrPortOptimizedOut, pool.ToStr(local, hiername.RenderOptions{}), reg.Name(use.Child), comp))
					continue
				}
				s, err := namer.Name(table, nid)
				if err != nil {
					return warnings, err
				}
				fmt.Fprint(w, " ", s)
			}
			fmt.Fprintf(w, " %s\n", reg.Name(use.Child))
		}
	}
	return warnings, nil
}
