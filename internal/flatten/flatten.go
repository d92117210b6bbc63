package flatten

import (
	"context"
	"fmt"
	"strings"

	"github.com/rtimothyedwards/extflat/internal/defreg"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Coupling is one folded two-node parasitic: a coupling cap (Pass E)
// or a folded explicit resistor, keyed by an unordered pair of global
// NodeIDs so "A to B" and "B to A" accumulate together.
type Coupling struct {
	A, B  efmodel.NodeID
	Value float64
}

// Result is the flat network produced by Flatten or FlattenOneLevel.
type Result struct {
	Table     *nodetable.Table
	Devices   []efmodel.Dev
	Caps      []Coupling
	Resistors []Coupling
	Distances []efmodel.DistanceRecord

	// Warnings records non-fatal GlobalSplit notices from Pass D: two
	// already-multiply-named globals with the same leaf were merged.
	Warnings []string
}

// frame is one visited Def instance: its Def, the hierarchical-context
// HierName prefix every one of its local names is rerooted under, and
// the affine transform mapping its local coordinates to the root.
type frame struct {
	def  efmodel.DefID
	hctx efmodel.HierName
	xf   efmodel.Transform
}

type couplingKey struct{ a, b efmodel.NodeID }

func normalizeKey(a, b efmodel.NodeID) couplingKey {
	if a > b {
		a, b = b, a
	}
	return couplingKey{a, b}
}

type flattener struct {
	ctx   context.Context
	reg   *defreg.Registry
	pool  *hiername.Pool
	tbls  map[efmodel.DefID]*nodetable.Table
	flags Flags

	global *nodetable.Table
	dist   *nodetable.DistanceTable

	frames  []frame
	devices []efmodel.Dev

	capAccum  map[couplingKey]float64
	resAccum  map[couplingKey]float64
	warnings  []string
	onPath    map[efmodel.DefID]bool
}

// Flatten performs a full flatten of root's hierarchy (§4.5,
// flat_build). ctx is checked once per visited Def instance so a
// caller can cancel a flatten of a very large design.
func Flatten(ctx context.Context, reg *defreg.Registry, pool *hiername.Pool, tables map[efmodel.DefID]*nodetable.Table, root efmodel.DefID, flags Flags) (*Result, error) {
	return run(ctx, reg, pool, tables, root, flags, -1)
}

// FlattenOneLevel expands only root's direct Uses, leaving grandchild
// Defs unflattened (flat_build_one_level); used by the hierarchical
// SPICE emitter to absorb exactly one level before emitting a
// subcircuit call for the rest (§4.5, §4.7).
func FlattenOneLevel(ctx context.Context, reg *defreg.Registry, pool *hiername.Pool, tables map[efmodel.DefID]*nodetable.Table, root efmodel.DefID, flags Flags) (*Result, error) {
	return run(ctx, reg, pool, tables, root, flags, 1)
}

func run(ctx context.Context, reg *defreg.Registry, pool *hiername.Pool, tables map[efmodel.DefID]*nodetable.Table, root efmodel.DefID, flags Flags, maxDepth int) (*Result, error) {
	fl := &flattener{
		ctx:      ctx,
		reg:      reg,
		pool:     pool,
		tbls:     tables,
		flags:    flags,
		global:   nodetable.New(pool),
		dist:     nodetable.NewDistanceTable(pool),
		capAccum: make(map[couplingKey]float64),
		resAccum: make(map[couplingKey]float64),
		onPath:   make(map[efmodel.DefID]bool),
	}

	if err := fl.visit(root, efmodel.NilHierName, efmodel.Identity, 0, maxDepth); err != nil {
		return nil, err
	}

	if err := fl.passB(); err != nil {
		return nil, err
	}
	fl.passC()
	if !flags.Has(NoNameMerge) {
		fl.passD()
	}
	if err := fl.passE(); err != nil {
		return nil, err
	}

	return &Result{
		Table:     fl.global,
		Devices:   fl.liveDevices(),
		Caps:      couplingsOf(fl.capAccum),
		Resistors: couplingsOf(fl.resAccum),
		Distances: fl.dist.All(),
		Warnings:  fl.warnings,
	}, nil
}

func couplingsOf(m map[couplingKey]float64) []Coupling {
	out := make([]Coupling, 0, len(m))
	for k, v := range m {
		out = append(out, Coupling{A: k.a, B: k.b, Value: v})
	}
	return out
}

// rerootLocal reinterprets local's original leaf text (which, for a
// name written as a relative reference like "inst0/in" in a
// Connection/Kill/Distance record, is itself a "/"-separated path) as
// a chain of components under base, the way spec.md §4.1's hierarchy
// composition requires.
func (fl *flattener) rerootLocal(base efmodel.HierName, local efmodel.HierName) efmodel.HierName {
	leaf := fl.pool.Leaf(local)
	cur := base
	for _, comp := range strings.Split(leaf, "/") {
		if comp == "" {
			continue
		}
		cur = fl.pool.Intern(cur, comp)
	}
	return cur
}

// visit walks def.Uses depth-first post-order, per spec.md §4.5 Pass A
// ("Depth-first post-order traversal of Uses"): children are fully
// populated and have their own devices cloned before the current
// frame's own nodes and devices are added, matching the original
// efFlatNodes/efVisitDevs order ("recursively call ... for all of our
// children uses ... [then] add our own nodes").
func (fl *flattener) visit(d efmodel.DefID, hctx efmodel.HierName, xf efmodel.Transform, depth, maxDepth int) error {
	if err := fl.ctx.Err(); err != nil {
		return err
	}
	if fl.onPath[d] {
		return fmt.Errorf("%w: %s", ErrCycle, fl.reg.Name(d))
	}
	fl.onPath[d] = true
	defer delete(fl.onPath, d)

	def := fl.reg.Get(d)
	boundary := fl.flags.Has(NoFlatSubcircuit) && def.Flags.Has(efmodel.DefIsSubcircuit) && depth > 0

	if !boundary && !(maxDepth >= 0 && depth >= maxDepth) {
		for ui, use := range def.Uses {
			for iy := use.Y.Lo; iy <= use.Y.Hi; iy++ {
				for ix := use.X.Lo; ix <= use.X.Hi; ix++ {
					comp := arrayComponent(use.ID, use, ix, iy)
					childHctx := fl.pool.Intern(hctx, comp)

					dx := int64(ix-use.X.Lo) * int64(use.X.Sep)
					dy := int64(iy-use.Y.Lo) * int64(use.Y.Sep)
					offset := efmodel.Transform{1, 0, dx, 0, 1, dy}
					elementXf := offset.Compose(use.Transform)
					childXf := elementXf.Compose(xf)

					if err := fl.visit(use.Child, childHctx, childXf, depth+1, maxDepth); err != nil {
						return fmt.Errorf("use %d (%s): %w", ui, use.ID, err)
					}
				}
			}
		}
	}

	fl.populateDef(d, hctx, xf, boundary)
	fl.frames = append(fl.frames, frame{def: d, hctx: hctx, xf: xf})
	return nil
}

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

// populateDef clones def's local node population into the global
// table under hctx (Pass A), translating device terminals along the
// way. When portsOnly is true (a no-flat-subcircuit boundary), only
// port-flagged nodes are cloned and no devices are cloned at all — the
// boundary's internals stay opaque, per §4.5.
func (fl *flattener) populateDef(d efmodel.DefID, hctx efmodel.HierName, xf efmodel.Transform, portsOnly bool) map[efmodel.NodeID]efmodel.NodeID {
	local := fl.tbls[d]
	translate := make(map[efmodel.NodeID]efmodel.NodeID)
	if local == nil {
		return translate
	}

	local.Each(func(lid efmodel.NodeID) bool {
		ln := local.Node(lid)
		if portsOnly && !ln.Flags.Has(efmodel.NodePort) {
			return true
		}

		// Implicit global substrate nodes (legacy fet substrate
		// terminals auto-created with no node/substrate declaration)
		// are entered by short local name, not under this frame's
		// hctx, so the same node declared in unrelated cells collides
		// in the global hash and merges (§4.5 Pass A).
		base := hctx
		if ln.Flags.Has(efmodel.NodeImplicitSubstrate) {
			base = efmodel.NilHierName
		}

		aliases := local.Aliases(lid)
		var gid efmodel.NodeID
		created := false
		for i, la := range aliases {
			ga := fl.rerootLocal(base, la)
			if i == 0 {
				if existing, ok := fl.global.Lookup(ga); ok {
					gid = existing
				} else {
					gid = fl.global.EnsureNamed(ga)
					created = true
				}
				continue
			}
			if existing, ok := fl.global.Lookup(ga); ok {
				if existing != gid {
					fl.global.Merge(gid, existing)
				}
			} else {
				fl.global.AddAlias(gid, ga, -1)
			}
		}

		gn := fl.global.Node(gid)
		if created {
			gn.Resistance = ln.Resistance
			gn.SubstrateCap = ln.SubstrateCap
			gn.LayerType = ln.LayerType
			gn.Flags |= ln.Flags
			gn.AreaPerim = append([]efmodel.AreaPerim(nil), ln.AreaPerim...)
			gn.Attrs = append([]efmodel.Attribute(nil), ln.Attrs...)
			if ln.HasLoc {
				gn.Loc = transformRect(xf, ln.Loc)
				gn.HasLoc = true
			}
		} else {
			gn.Resistance += ln.Resistance
			gn.SubstrateCap += ln.SubstrateCap
			if gn.SubstrateCap < 0 {
				gn.SubstrateCap = 0
			}
			for i, v := range ln.AreaPerim {
				for i >= len(gn.AreaPerim) {
					gn.AreaPerim = append(gn.AreaPerim, efmodel.AreaPerim{})
				}
				gn.AreaPerim[i].Area += v.Area
				gn.AreaPerim[i].Perim += v.Perim
			}
			gn.Attrs = append(gn.Attrs, ln.Attrs...)
			gn.Flags |= ln.Flags
			if ln.HasLoc && !gn.HasLoc {
				gn.Loc = transformRect(xf, ln.Loc)
				gn.LayerType = ln.LayerType
				gn.HasLoc = true
			}
		}
		translate[lid] = gid
		return true
	})

	if !portsOnly {
		fl.cloneDevices(d, xf, translate)
	}
	return translate
}

func transformRect(xf efmodel.Transform, r efmodel.Rect) efmodel.Rect {
	x, y := xf.Apply(int64(r.X0), int64(r.Y0))
	return efmodel.Rect{X0: int32(x), Y0: int32(y), X1: int32(x) + 1, Y1: int32(y) + 1}
}

func (fl *flattener) cloneDevices(d efmodel.DefID, xf efmodel.Transform, translate map[efmodel.NodeID]efmodel.NodeID) {
	def := fl.reg.Get(d)
	for _, dev := range def.Devices {
		clone := dev
		clone.Loc = transformRect(xf, dev.Loc)
		clone.Substrate = efmodel.NilNodeID
		if dev.Substrate != efmodel.NilNodeID {
			if g, ok := translate[dev.Substrate]; ok {
				clone.Substrate = g
			}
		}
		clone.Terms = make([]efmodel.DevTerm, len(dev.Terms))
		for i, t := range dev.Terms {
			gt := t
			if g, ok := translate[t.Node]; ok {
				gt.Node = g
			} else {
				gt.Node = efmodel.NilNodeID
			}
			clone.Terms[i] = gt
		}
		fl.devices = append(fl.devices, clone)
	}
}

// liveDevices drops any device every one of whose terminals resolves
// to a killed node (§4.5 Pass C: "any device whose terminals all
// connect to killed nodes is also considered dead").
func (fl *flattener) liveDevices() []efmodel.Dev {
	out := make([]efmodel.Dev, 0, len(fl.devices))
	for _, dev := range fl.devices {
		if len(dev.Terms) == 0 {
			out = append(out, dev)
			continue
		}
		dead := true
		for _, t := range dev.Terms {
			if t.Node == efmodel.NilNodeID {
				dead = false
				break
			}
			if !fl.global.Node(t.Node).Flags.Has(efmodel.NodeKilled) {
				dead = false
				break
			}
		}
		if !dead {
			out = append(out, dev)
		}
	}
	return out
}

// expandConnName expands c's subscript ranges over their Cartesian
// product, returning one freshly interned (leaf-only) HierName per
// concrete element. A scalar ConnName (no Ranges) yields exactly one.
func (fl *flattener) expandConnName(c efmodel.ConnName) []efmodel.HierName {
	if len(c.Ranges) == 0 {
		if c.Template == "" {
			return nil
		}
		return []efmodel.HierName{fl.pool.Intern(efmodel.NilHierName, c.Template)}
	}
	var out []efmodel.HierName
	args := make([]any, len(c.Ranges))
	var rec func(i int)
	rec = func(i int) {
		if i == len(c.Ranges) {
			s := fmt.Sprintf(c.Template, args...)
			out = append(out, fl.pool.Intern(efmodel.NilHierName, s))
			return
		}
		r := c.Ranges[i]
		for v := r.Lo; v <= r.Hi; v++ {
			args[i] = v
			rec(i + 1)
		}
	}
	rec(0)
	return out
}

// resolvePair expands two ConnNames, pairing their elements 1:1 or
// broadcasting a scalar side, per §4.5 Pass B.
func (fl *flattener) resolvePair(n1, n2 efmodel.ConnName) ([][2]efmodel.HierName, error) {
	e1 := fl.expandConnName(n1)
	e2 := fl.expandConnName(n2)
	if e2 == nil {
		pairs := make([][2]efmodel.HierName, len(e1))
		for i, a := range e1 {
			pairs[i] = [2]efmodel.HierName{a, efmodel.NilHierName}
		}
		return pairs, nil
	}
	switch {
	case len(e1) == len(e2):
		pairs := make([][2]efmodel.HierName, len(e1))
		for i := range e1 {
			pairs[i] = [2]efmodel.HierName{e1[i], e2[i]}
		}
		return pairs, nil
	case len(e1) == 1:
		pairs := make([][2]efmodel.HierName, len(e2))
		for i := range e2 {
			pairs[i] = [2]efmodel.HierName{e1[0], e2[i]}
		}
		return pairs, nil
	case len(e2) == 1:
		pairs := make([][2]efmodel.HierName, len(e1))
		for i := range e1 {
			pairs[i] = [2]efmodel.HierName{e1[i], e2[0]}
		}
		return pairs, nil
	default:
		return nil, ErrRangeMismatch
	}
}

// passB applies every frame's Connections (§4.5 Pass B): the target
// node absorbs the delta-cap and per-class deltas, and a non-null
// second name triggers a merge.
func (fl *flattener) passB() error {
	for _, f := range fl.frames {
		def := fl.reg.Get(f.def)
		for _, conn := range def.Connections {
			pairs, err := fl.resolvePair(conn.Name1, conn.Name2)
			if err != nil {
				return fmt.Errorf("%s: %w", fl.reg.Name(f.def), err)
			}
			for _, p := range pairs {
				g1 := fl.global.EnsureNamed(fl.rerootLocal(f.hctx, p[0]))
				target := fl.global.Node(g1)
				target.SubstrateCap += conn.Value
				if target.SubstrateCap < 0 {
					target.SubstrateCap = 0
				}
				for i, v := range conn.Delta {
					for i >= len(target.AreaPerim) {
						target.AreaPerim = append(target.AreaPerim, efmodel.AreaPerim{})
					}
					target.AreaPerim[i].Area += v.Area
					target.AreaPerim[i].Perim += v.Perim
				}
				if p[1].Valid() {
					g2 := fl.global.EnsureNamed(fl.rerootLocal(f.hctx, p[1]))
					if g1 != g2 {
						fl.global.Merge(g1, g2)
					}
				}
			}
		}
	}
	return nil
}

// passC applies every frame's Kills (§4.5 Pass C).
func (fl *flattener) passC() {
	for _, f := range fl.frames {
		def := fl.reg.Get(f.def)
		for _, k := range def.Kills {
			g := fl.rerootLocal(f.hctx, k.Name)
			if id, ok := fl.global.Lookup(g); ok {
				fl.global.Node(id).Flags |= efmodel.NodeKilled
			}
		}
	}
}

// passD unifies nodes whose canonical name is global, i.e. ends in
// "!" (§4.5 Pass D): the first occurrence of a global leaf is
// registered, every later one is merged into it.
func (fl *flattener) passD() {
	seen := make(map[string]efmodel.NodeID)
	fl.global.Each(func(id efmodel.NodeID) bool {
		canon := fl.global.CanonicalName(id)
		leaf := fl.pool.Leaf(canon)
		if !strings.HasSuffix(leaf, "!") {
			return true
		}
		existing, ok := seen[leaf]
		if !ok {
			seen[leaf] = id
			return true
		}
		if existing == id {
			return true
		}
		implicit := fl.global.Node(existing).Flags.Has(efmodel.NodeImplicitSubstrate) ||
			fl.global.Node(id).Flags.Has(efmodel.NodeImplicitSubstrate)
		if !implicit && len(fl.global.Aliases(existing)) > 1 && len(fl.global.Aliases(id)) > 1 {
			fl.warnings = append(fl.warnings, fmt.Errorf("%w: %q merged across %d and %d aliases", ErrGlobalSplit, leaf, len(fl.global.Aliases(existing)), len(fl.global.Aliases(id))).Error())
		}
		fl.global.Merge(existing, id)
		return true
	})
}

// passE folds coupling caps, explicit resistors, and distances (§4.5
// Pass E). A cap touching a substrate-flagged node is folded into the
// other node's lumped substrate capacitance instead of becoming a
// coupling entry.
func (fl *flattener) passE() error {
	for _, f := range fl.frames {
		def := fl.reg.Get(f.def)

		if fl.flags.Has(FlatCaps) {
			for _, c := range def.Caps {
				if err := fl.foldTwoNode(f, c, fl.capAccum); err != nil {
					return err
				}
			}
		}
		if fl.flags.Has(FlatResistors) {
			for _, r := range def.Resistors {
				if err := fl.foldTwoNode(f, r, fl.resAccum); err != nil {
					return err
				}
			}
		}
		if fl.flags.Has(FlatDistances) {
			for _, d := range def.Distances {
				a := fl.rerootLocal(f.hctx, d.A)
				b := fl.rerootLocal(f.hctx, d.B)
				fl.dist.Record(a, b, d.Min, d.Max)
			}
		}
	}
	return nil
}

func (fl *flattener) foldTwoNode(f frame, c efmodel.Connection, accum map[couplingKey]float64) error {
	pairs, err := fl.resolvePair(c.Name1, c.Name2)
	if err != nil {
		return fmt.Errorf("%s: %w", fl.reg.Name(f.def), err)
	}
	for _, p := range pairs {
		if !p[1].Valid() {
			continue
		}
		a := fl.global.EnsureNamed(fl.rerootLocal(f.hctx, p[0]))
		b := fl.global.EnsureNamed(fl.rerootLocal(f.hctx, p[1]))
		an, bn := fl.global.Node(a), fl.global.Node(b)
		switch {
		case an.Flags.Has(efmodel.NodeSubstrate):
			bn.SubstrateCap += c.Value
		case bn.Flags.Has(efmodel.NodeSubstrate):
			an.SubstrateCap += c.Value
		default:
			k := normalizeKey(a, b)
			accum[k] += c.Value
		}
	}
	return nil
}
