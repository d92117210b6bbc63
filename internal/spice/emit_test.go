package spice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/internal/spice"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func TestEmitFlatWritesOptionGlobalDevicesAndEnd(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)

	drain := namedNode(t, table, pool, "drain")
	gate := namedNode(t, table, pool, "gate")
	source := namedNode(t, table, pool, "source")
	sub := namedNode(t, table, pool, "Vss!")
	table.Node(sub).Flags |= efmodel.NodeSubstratePort

	types := classindex.NewDeviceTypes()
	typeIdx := types.Intern("nfet")

	res := &flatten.Result{
		Table: table,
		Devices: []efmodel.Dev{
			{
				Class:     efmodel.DevMOSFET,
				Type:      typeIdx,
				Substrate: sub,
				Terms: []efmodel.DevTerm{
					{Node: drain},
					{Node: gate},
					{Node: source},
				},
			},
		},
	}

	var buf strings.Builder
	opts := spice.Options{
		RenderOptions: spice.RenderOptions{Flavor: spice.SPICE3},
		Scale:         "1u",
		EmitGlobal:    true,
	}
	err := spice.EmitFlat(&buf, opts, pool, types, res)
	require.NoError(t, err)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, ".option scale=1u", lines[0])
	assert.Equal(t, ".global Vss", lines[1])
	assert.Equal(t, "M0 drain gate source Vss nfet", lines[2])
	assert.Equal(t, ".end", lines[3])
}

func TestEmitFlatLVSSuppressesGlobalLine(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	sub := namedNode(t, table, pool, "Vss!")
	table.Node(sub).Flags |= efmodel.NodeSubstratePort

	types := classindex.NewDeviceTypes()
	res := &flatten.Result{Table: table}

	var buf strings.Builder
	opts := spice.Options{EmitGlobal: true, LVS: true}
	err := spice.EmitFlat(&buf, opts, pool, types, res)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), ".global")
}

func TestEmitFlatSubcktWrapsBodyWithEnds(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	a := namedNode(t, table, pool, "a")
	b := namedNode(t, table, pool, "b")

	types := classindex.NewDeviceTypes()
	res := &flatten.Result{
		Table: table,
		Resistors: []flatten.Coupling{
			{A: a, B: b, Value: 1500},
		},
	}

	var buf strings.Builder
	opts := spice.Options{
		RenderOptions: spice.RenderOptions{Flavor: spice.SPICE3},
		Subckt:        true,
		Name:          "inv",
		Ports:         []efmodel.NodeID{a, b},
	}
	err := spice.EmitFlat(&buf, opts, pool, types, res)
	require.NoError(t, err)

	out := strings.TrimRight(buf.String(), "\n")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ".subckt inv a b", lines[0])
	assert.Equal(t, "R0 a b 1.5k", lines[1])
	assert.Equal(t, ".ends", lines[2])
}
