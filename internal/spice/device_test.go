package spice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/internal/spice"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func namedNode(t *testing.T, table *nodetable.Table, pool *hiername.Pool, name string) efmodel.NodeID {
	t.Helper()
	return table.EnsureNamed(pool.FromPath(name))
}

func TestDeviceLineRendersMOSFETInDrainGateSourceSubOrder(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	drain := namedNode(t, table, pool, "drain")
	gate := namedNode(t, table, pool, "gate")
	source := namedNode(t, table, pool, "source")
	sub := namedNode(t, table, pool, "Vss!")

	types := classindex.NewDeviceTypes()
	typeIdx := types.Intern("nfet")

	dev := efmodel.Dev{
		Class:     efmodel.DevMOSFET,
		Type:      typeIdx,
		Width:     5,
		Length:    2,
		Substrate: sub,
		Terms: []efmodel.DevTerm{
			{Node: drain},
			{Node: gate, Attr: "m1"},
			{Node: source},
		},
	}

	namer := spice.NewNamer(spice.SPICE3, pool)
	counters := spice.NewInstanceCounters()
	apt := spice.NewAreaPerimTracker()

	line, err := spice.DeviceLine(spice.RenderOptions{Flavor: spice.SPICE3}, table, namer, types, dev, counters, apt)
	require.NoError(t, err)
	assert.Equal(t, "Mm1 drain gate source Vss nfet", line)
}

func TestDeviceLineFallsBackToCounterWhenNoGateAttr(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	drain := namedNode(t, table, pool, "drain")
	gate := namedNode(t, table, pool, "gate")
	source := namedNode(t, table, pool, "source")

	types := classindex.NewDeviceTypes()
	typeIdx := types.Intern("nfet")

	dev := efmodel.Dev{
		Class: efmodel.DevMOSFET,
		Type:  typeIdx,
		Terms: []efmodel.DevTerm{
			{Node: drain},
			{Node: gate},
			{Node: source},
		},
	}

	namer := spice.NewNamer(spice.SPICE3, pool)
	counters := spice.NewInstanceCounters()
	apt := spice.NewAreaPerimTracker()

	a, err := spice.DeviceLine(spice.RenderOptions{Flavor: spice.SPICE3}, table, namer, types, dev, counters, apt)
	require.NoError(t, err)
	b, err := spice.DeviceLine(spice.RenderOptions{Flavor: spice.SPICE3}, table, namer, types, dev, counters, apt)
	require.NoError(t, err)

	assert.Equal(t, "M0 drain gate source 0 nfet", a)
	assert.Equal(t, "M1 drain gate source 0 nfet", b)
}

func TestDeviceLineRendersResistorWithValue(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	a := namedNode(t, table, pool, "a")
	b := namedNode(t, table, pool, "b")

	dev := efmodel.Dev{
		Class:      efmodel.DevRes,
		Type:       -1,
		Resistance: 1500,
		Terms: []efmodel.DevTerm{
			{Node: a},
			{Node: b},
		},
	}

	namer := spice.NewNamer(spice.SPICE3, pool)
	counters := spice.NewInstanceCounters()
	apt := spice.NewAreaPerimTracker()
	types := classindex.NewDeviceTypes()

	line, err := spice.DeviceLine(spice.RenderOptions{Flavor: spice.SPICE3}, table, namer, types, dev, counters, apt)
	require.NoError(t, err)
	assert.Equal(t, "R0 a b 1.5k", line)
}

func TestDeviceLineRendersDiodePAnodeCathode(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	anode := namedNode(t, table, pool, "anode")
	cathode := namedNode(t, table, pool, "cathode")

	types := classindex.NewDeviceTypes()
	typeIdx := types.Intern("pdiode")

	dev := efmodel.Dev{
		Class: efmodel.DevDiodeP,
		Type:  typeIdx,
		Terms: []efmodel.DevTerm{
			{}, // drain slot unused for diodes
			{Node: anode},
			{Node: cathode},
		},
	}

	namer := spice.NewNamer(spice.SPICE3, pool)
	counters := spice.NewInstanceCounters()
	apt := spice.NewAreaPerimTracker()

	line, err := spice.DeviceLine(spice.RenderOptions{Flavor: spice.SPICE3}, table, namer, types, dev, counters, apt)
	require.NoError(t, err)
	assert.Equal(t, "D0 anode cathode pdiode", line)
}
