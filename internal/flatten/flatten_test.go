package flatten_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/defreg"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// fixture builds a two-level hierarchy: "top" instantiates "leaf" twice
// as an arrayed Use "x[0:1]" separated by 10 layout units on X. Each
// leaf instance has local nodes "in", "out", and a global "Vdd!".
func fixture(t *testing.T) (*defreg.Registry, *hiername.Pool, map[efmodel.DefID]*nodetable.Table, efmodel.DefID) {
	t.Helper()
	pool := hiername.NewPool()
	reg := defreg.New()
	tables := make(map[efmodel.DefID]*nodetable.Table)

	leafID := reg.NewDef("leaf")
	leafTbl := nodetable.New(pool)
	tables[leafID] = leafTbl
	leafTbl.EnsureNamed(pool.Intern(efmodel.NilHierName, "in"))
	leafTbl.EnsureNamed(pool.Intern(efmodel.NilHierName, "out"))
	vddID := leafTbl.EnsureNamed(pool.Intern(efmodel.NilHierName, "Vdd!"))
	leafTbl.Node(vddID).SubstrateCap = 1.0

	topID := reg.NewDef("top")
	tables[topID] = nodetable.New(pool)
	topDef := reg.Get(topID)
	topDef.Uses = []efmodel.Use{
		{
			ID:        "x",
			Child:     leafID,
			Transform: efmodel.Identity,
			X:         efmodel.ArrayRange{Lo: 0, Hi: 1, Sep: 10},
			Y:         efmodel.ArrayRange{Lo: 0, Hi: 0, Sep: 0},
		},
	}
	return reg, pool, tables, topID
}

func TestFlattenPopulatesArrayedUseAndMergesGlobals(t *testing.T) {
	reg, pool, tables, topID := fixture(t)

	res, err := flatten.Flatten(context.Background(), reg, pool, tables, topID, flatten.FlatNodes)
	require.NoError(t, err)

	for _, name := range []string{"x[0]/in", "x[0]/out", "x[1]/in", "x[1]/out"} {
		_, ok := res.Table.Lookup(pool.FromPath(name))
		assert.True(t, ok, "expected node %q in flat table", name)
	}

	x0vdd, ok := res.Table.Lookup(pool.FromPath("x[0]/Vdd!"))
	require.True(t, ok)
	x1vdd, ok := res.Table.Lookup(pool.FromPath("x[1]/Vdd!"))
	require.True(t, ok)
	assert.Equal(t, x0vdd, x1vdd, "the two instances' Vdd! must have merged into one global node (Pass D)")

	// Each instance's local Vdd! contributed 1.0 of substrate cap.
	assert.InDelta(t, 2.0, res.Table.Node(x0vdd).SubstrateCap, 1e-9)
}

func TestFlattenNoNameMergeKeepsGlobalsSeparate(t *testing.T) {
	reg, pool, tables, topID := fixture(t)

	res, err := flatten.Flatten(context.Background(), reg, pool, tables, topID, flatten.FlatNodes|flatten.NoNameMerge)
	require.NoError(t, err)

	x0vdd, ok := res.Table.Lookup(pool.FromPath("x[0]/Vdd!"))
	require.True(t, ok)
	x1vdd, ok := res.Table.Lookup(pool.FromPath("x[1]/Vdd!"))
	require.True(t, ok)
	assert.NotEqual(t, x0vdd, x1vdd, "NoNameMerge must leave the two Vdd! instances distinct")
}

func TestFlattenAppliesKillAndDropsDeadDevice(t *testing.T) {
	pool := hiername.NewPool()
	reg := defreg.New()
	tables := make(map[efmodel.DefID]*nodetable.Table)

	id := reg.NewDef("cell")
	tbl := nodetable.New(pool)
	tables[id] = tbl
	aName := pool.Intern(efmodel.NilHierName, "a")
	bName := pool.Intern(efmodel.NilHierName, "b")
	aID := tbl.EnsureNamed(aName)
	bID := tbl.EnsureNamed(bName)

	def := reg.Get(id)
	def.Kills = []efmodel.Kill{{Name: aName}}
	def.Devices = []efmodel.Dev{
		{
			Class: efmodel.DevMOSFET,
			Terms: []efmodel.DevTerm{{Node: aID}, {Node: bID}},
		},
	}

	res, err := flatten.Flatten(context.Background(), reg, pool, tables, id, flatten.FlatNodes)
	require.NoError(t, err)

	gid, ok := res.Table.Lookup(aName)
	require.True(t, ok)
	assert.True(t, res.Table.Node(gid).Flags.Has(efmodel.NodeKilled))

	// b never got killed, so the device survives (not all terminals dead).
	require.Len(t, res.Devices, 1)

	// Now kill b too and confirm the device becomes dead.
	def.Kills = append(def.Kills, efmodel.Kill{Name: bName})
	res2, err := flatten.Flatten(context.Background(), reg, pool, tables, id, flatten.FlatNodes)
	require.NoError(t, err)
	assert.Empty(t, res2.Devices, "device with every terminal on a killed node must be dropped")
}

func TestFlattenConnectionMergesTwoNodes(t *testing.T) {
	pool := hiername.NewPool()
	reg := defreg.New()
	tables := make(map[efmodel.DefID]*nodetable.Table)

	id := reg.NewDef("cell")
	tbl := nodetable.New(pool)
	tables[id] = tbl
	pName := pool.Intern(efmodel.NilHierName, "p")
	qName := pool.Intern(efmodel.NilHierName, "q")
	tbl.EnsureNamed(pName)
	tbl.EnsureNamed(qName)

	def := reg.Get(id)
	def.Connections = []efmodel.Connection{
		{
			Name1: efmodel.ConnName{Template: "p"},
			Name2: efmodel.ConnName{Template: "q"},
			Value: 5,
		},
	}

	res, err := flatten.Flatten(context.Background(), reg, pool, tables, id, flatten.FlatNodes)
	require.NoError(t, err)

	pID, ok := res.Table.Lookup(pName)
	require.True(t, ok)
	qID, ok := res.Table.Lookup(qName)
	require.True(t, ok)
	assert.Equal(t, pID, qID, "merge record must unify p and q")
	assert.InDelta(t, 5.0, res.Table.Node(pID).SubstrateCap, 1e-9)
}

func TestFlattenFoldsSubstrateCapIntoLumpedCapacitance(t *testing.T) {
	pool := hiername.NewPool()
	reg := defreg.New()
	tables := make(map[efmodel.DefID]*nodetable.Table)

	id := reg.NewDef("cell")
	tbl := nodetable.New(pool)
	tables[id] = tbl
	sigName := pool.Intern(efmodel.NilHierName, "sig")
	subName := pool.Intern(efmodel.NilHierName, "substrate")
	tbl.EnsureNamed(sigName)
	subID := tbl.EnsureNamed(subName)
	tbl.Node(subID).Flags |= efmodel.NodeSubstrate

	def := reg.Get(id)
	def.Caps = []efmodel.Connection{
		{
			Name1: efmodel.ConnName{Template: "sig"},
			Name2: efmodel.ConnName{Template: "substrate"},
			Value: 3.5,
		},
	}

	res, err := flatten.Flatten(context.Background(), reg, pool, tables, id, flatten.FlatNodes|flatten.FlatCaps)
	require.NoError(t, err)

	gid, ok := res.Table.Lookup(sigName)
	require.True(t, ok)
	assert.InDelta(t, 3.5, res.Table.Node(gid).SubstrateCap, 1e-9)
	assert.Empty(t, res.Caps, "a cap to a substrate-flagged node folds into SubstrateCap, not a coupling entry")
}

func TestFlattenDetectsCycle(t *testing.T) {
	pool := hiername.NewPool()
	reg := defreg.New()
	tables := make(map[efmodel.DefID]*nodetable.Table)

	aID := reg.NewDef("a")
	bID := reg.NewDef("b")
	tables[aID] = nodetable.New(pool)
	tables[bID] = nodetable.New(pool)

	reg.Get(aID).Uses = []efmodel.Use{{ID: "u_b", Child: bID, Transform: efmodel.Identity, X: efmodel.ArrayRange{Sep: 0}, Y: efmodel.ArrayRange{Sep: 0}}}
	reg.Get(bID).Uses = []efmodel.Use{{ID: "u_a", Child: aID, Transform: efmodel.Identity, X: efmodel.ArrayRange{Sep: 0}, Y: efmodel.ArrayRange{Sep: 0}}}

	_, err := flatten.Flatten(context.Background(), reg, pool, tables, aID, flatten.FlatNodes)
	require.Error(t, err)
	assert.ErrorIs(t, err, flatten.ErrCycle)
}

func TestFlattenOneLevelStopsAtGrandchildren(t *testing.T) {
	reg, pool, tables, topID := fixture(t)

	res, err := flatten.FlattenOneLevel(context.Background(), reg, pool, tables, topID, flatten.FlatNodes)
	require.NoError(t, err)

	_, ok := res.Table.Lookup(pool.FromPath("x[0]/in"))
	assert.True(t, ok, "one level of flattening must absorb the direct Use")
}
