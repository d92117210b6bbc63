// Package nodetable implements the per-Def hierarchical node table of
// spec.md §4.4: a local-name hash mapping to EFNode, a circular list
// of every EFNode owned by the Def (or, for the flattener's global
// table, every flat node), and the alias-chain / merge machinery that
// keeps a node's canonical name stable except when a strictly
// better-precedence name arrives.
//
// Table replaces the source's intrusive doubly-linked EFNode list and
// singly-linked EFNodeName alias chains with arena indices, per the
// replacement strategy spec.md §9 recommends: "pointer-chasing merges
// become handle rewrites."
package nodetable

import (
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Table owns one arena of EFNodes plus the alias arena backing their
// EFNodeName chains, and a hash from interned HierName to the EFNode
// it currently names. One Table exists per Def while reading; the
// flattener builds one additional Table for the global flat graph.
type Table struct {
	pool *hiername.Pool

	nodes   []efmodel.EFNode
	aliases []efmodel.EFNodeName

	byName map[efmodel.HierName]efmodel.NodeID

	first efmodel.NodeID // head of the circular list, or NilNodeID if empty
	count int
}

// New creates an empty table backed by pool for name comparisons.
func New(pool *hiername.Pool) *Table {
	return &Table{
		pool:   pool,
		byName: make(map[efmodel.HierName]efmodel.NodeID),
		first:  efmodel.NilNodeID,
	}
}

// Len returns the number of live nodes (nodes reachable from the
// circular list; merged-away nodes are excluded once Merge unlinks
// them).
func (t *Table) Len() int { return t.count }

// Node returns a pointer into the arena for id. The pointer is valid
// until the next structural mutation (NewNode growing the slice);
// callers that hold it across mutations must re-fetch.
func (t *Table) Node(id efmodel.NodeID) *efmodel.EFNode {
	return &t.nodes[id]
}

// Lookup returns the node currently named by h, if any.
func (t *Table) Lookup(h efmodel.HierName) (efmodel.NodeID, bool) {
	id, ok := t.byName[h]
	return id, ok
}

// newNode allocates a fresh, unnamed node and links it into the
// circular list.
func (t *Table) newNode() efmodel.NodeID {
	id := efmodel.NodeID(len(t.nodes))
	t.nodes = append(t.nodes, efmodel.EFNode{
		Canonical: -1,
		ListNext:  efmodel.NilNodeID,
		ListPrev:  efmodel.NilNodeID,
	})
	t.linkIn(id)
	return id
}

func (t *Table) linkIn(id efmodel.NodeID) {
	n := &t.nodes[id]
	if t.first == efmodel.NilNodeID {
		t.first = id
		n.ListNext, n.ListPrev = id, id
		t.count++
		return
	}
	head := &t.nodes[t.first]
	tailID := head.ListPrev
	tail := &t.nodes[tailID]
	n.ListNext = t.first
	n.ListPrev = tailID
	tail.ListNext = id
	head.ListPrev = id
	t.count++
}

// unlink removes id from the circular list without touching the
// arena slot's contents (callers are expected to have already moved
// anything worth keeping out of the node).
func (t *Table) unlink(id efmodel.NodeID) {
	n := &t.nodes[id]
	if n.ListNext == id {
		// sole element
		t.first = efmodel.NilNodeID
		t.count--
		return
	}
	next := &t.nodes[n.ListNext]
	prev := &t.nodes[n.ListPrev]
	prev.ListNext = n.ListNext
	next.ListPrev = n.ListPrev
	if t.first == id {
		t.first = n.ListNext
	}
	t.count--
}

// Each calls fn once per live node in circular-list order (insertion
// order within the list, per spec.md §5's ordering guarantees), and
// stops early if fn returns false.
func (t *Table) Each(fn func(efmodel.NodeID) bool) {
	if t.first == efmodel.NilNodeID {
		return
	}
	id := t.first
	for i := 0; i < t.count; i++ {
		n := &t.nodes[id]
		next := n.ListNext
		if !fn(id) {
			return
		}
		id = next
	}
}

// EnsureNamed returns the node currently named h, creating both a
// fresh node and its canonical alias if h is not yet in the table
// (§4.3 `node`/`equiv` semantics: "If neither exists, create one").
func (t *Table) EnsureNamed(h efmodel.HierName) efmodel.NodeID {
	if id, ok := t.byName[h]; ok {
		return id
	}
	id := t.newNode()
	t.addAlias(id, h, -1)
	t.byName[h] = id
	return id
}

// addAlias appends a new EFNodeName for h onto node's alias chain,
// placing it at the head iff EFHNBest prefers it over the current
// canonical name, otherwise at position 1 (§4.4).
func (t *Table) addAlias(id efmodel.NodeID, h efmodel.HierName, port int32) int32 {
	idx := int32(len(t.aliases))
	t.aliases = append(t.aliases, efmodel.EFNodeName{Name: h, Node: id, Next: -1, Port: port})

	n := &t.nodes[id]
	if n.Canonical == -1 {
		n.Canonical = idx
		return idx
	}
	head := &t.aliases[n.Canonical]
	if t.pool.EFHNBest(h, head.Name) < 0 {
		t.aliases[idx].Next = n.Canonical
		n.Canonical = idx
	} else {
		t.aliases[idx].Next = head.Next
		head.Next = idx
	}
	return idx
}

// AddAlias declares h as an additional name for the existing node id,
// registering it in the name hash too. Used by
// `equiv` and by the flattener's context-prefixing of every alias
// during Pass A.
func (t *Table) AddAlias(id efmodel.NodeID, h efmodel.HierName, port int32) {
	t.addAlias(id, h, port)
	t.byName[h] = id
}

// SetCanonicalPort records the declared subcircuit port index on id's
// canonical alias (§4.3 `subcircuit` record). A no-op if id has no
// canonical alias yet.
func (t *Table) SetCanonicalPort(id efmodel.NodeID, port int32) {
	c := t.nodes[id].Canonical
	if c >= 0 {
		t.aliases[c].Port = port
	}
}

// CanonicalPort returns the declared subcircuit port index recorded
// on id's canonical alias by SetCanonicalPort, or -1 if none was set.
func (t *Table) CanonicalPort(id efmodel.NodeID) int32 {
	c := t.nodes[id].Canonical
	if c < 0 {
		return -1
	}
	return t.aliases[c].Port
}

// CanonicalName returns the HierName at the head of id's alias chain.
func (t *Table) CanonicalName(id efmodel.NodeID) efmodel.HierName {
	c := t.nodes[id].Canonical
	if c < 0 {
		return efmodel.NilHierName
	}
	return t.aliases[c].Name
}

// Aliases returns every HierName bound to id, canonical name first.
func (t *Table) Aliases(id efmodel.NodeID) []efmodel.HierName {
	var out []efmodel.HierName
	for idx := t.nodes[id].Canonical; idx != -1; idx = t.aliases[idx].Next {
		out = append(out, t.aliases[idx].Name)
	}
	return out
}

func chainTail(aliases []efmodel.EFNodeName, head int32) int32 {
	idx := head
	for aliases[idx].Next != -1 {
		idx = aliases[idx].Next
	}
	return idx
}

// Merge absorbs source into target per §4.4 and the invariants of §8:
// the target's alias list becomes the concatenation of both chains in
// precedence order, every EFNodeName in the source chain is rewritten
// to point at target and re-bound to target in the name hash,
// parasitics and attributes are combined (per-class area/perimeter
// summed pairwise, target's list extended where source has more
// classes), and the source node is unlinked from the circular list
// (its arena slot is abandoned, never reachable again).
func (t *Table) Merge(target, source efmodel.NodeID) {
	if target == source {
		return
	}

	sourceHead := t.nodes[source].Canonical
	for idx := sourceHead; idx != -1; idx = t.aliases[idx].Next {
		t.aliases[idx].Node = target
		t.byName[t.aliases[idx].Name] = target
	}

	targetNode := &t.nodes[target]
	sourceNode := &t.nodes[source]

	sourceName := t.aliases[sourceHead].Name
	targetName := t.aliases[targetNode.Canonical].Name
	tail := chainTail(t.aliases, sourceHead)

	if t.pool.EFHNBest(sourceName, targetName) < 0 {
		t.aliases[tail].Next = targetNode.Canonical
		targetNode.Canonical = sourceHead
	} else {
		t.aliases[tail].Next = t.aliases[targetNode.Canonical].Next
		t.aliases[targetNode.Canonical].Next = sourceHead
	}

	targetNode.SubstrateCap += sourceNode.SubstrateCap
	if targetNode.SubstrateCap < 0 {
		targetNode.SubstrateCap = 0
	}
	for i, v := range sourceNode.AreaPerim {
		for i >= len(targetNode.AreaPerim) {
			targetNode.AreaPerim = append(targetNode.AreaPerim, efmodel.AreaPerim{})
		}
		targetNode.AreaPerim[i].Area += v.Area
		targetNode.AreaPerim[i].Perim += v.Perim
	}
	targetNode.Attrs = append(targetNode.Attrs, sourceNode.Attrs...)
	targetNode.Flags |= sourceNode.Flags

	switch {
	case sourceNode.HasLoc && !targetNode.HasLoc:
		targetNode.Loc, targetNode.LayerType, targetNode.HasLoc = sourceNode.Loc, sourceNode.LayerType, true
	case !sourceNode.HasLoc && !targetNode.HasLoc:
		targetNode.Loc = lowerLeft(targetNode.Loc, sourceNode.Loc)
	}

	t.unlink(source)
	*sourceNode = efmodel.EFNode{Canonical: -1, ListNext: efmodel.NilNodeID, ListPrev: efmodel.NilNodeID}
}

func lowerLeft(a, b efmodel.Rect) efmodel.Rect {
	r := a
	if b.X0 < r.X0 {
		r.X0 = b.X0
	}
	if b.Y0 < r.Y0 {
		r.Y0 = b.Y0
	}
	return r
}
