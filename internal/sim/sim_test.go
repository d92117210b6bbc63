package sim_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/internal/sim"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func namedNode(t *testing.T, table *nodetable.Table, pool *hiername.Pool, name string) efmodel.NodeID {
	t.Helper()
	return table.EnsureNamed(pool.FromPath(name))
}

func TestEmitRendersHeaderAndFETLine(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	drain := namedNode(t, table, pool, "drain")
	gate := namedNode(t, table, pool, "gate")
	source := namedNode(t, table, pool, "source")

	types := classindex.NewDeviceTypes()
	typeIdx := types.Intern("p")

	res := &flatten.Result{
		Table: table,
		Devices: []efmodel.Dev{
			{
				Class:  efmodel.DevMOSFET,
				Type:   typeIdx,
				Length: 2,
				Width:  5,
				Loc:    efmodel.Rect{X0: 10, Y0: 20},
				Terms: []efmodel.DevTerm{
					{Node: drain},
					{Node: gate},
					{Node: source},
				},
			},
		},
	}

	var buf strings.Builder
	warnings, err := sim.Emit(&buf, sim.Options{Scale: "100", Tech: "scmos"}, pool, types, res)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "| units: 100 tech: scmos format: MIT", lines[0])
	assert.Equal(t, "p gate source drain 2 5 10 20", lines[1])
}

func TestEmitFallsBackToNWithWarningForUnknownPrefix(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	drain := namedNode(t, table, pool, "drain")
	gate := namedNode(t, table, pool, "gate")
	source := namedNode(t, table, pool, "source")

	types := classindex.NewDeviceTypes()
	typeIdx := types.Intern("bsim4")

	res := &flatten.Result{
		Table: table,
		Devices: []efmodel.Dev{
			{
				Class: efmodel.DevMOSFET,
				Type:  typeIdx,
				Terms: []efmodel.DevTerm{
					{Node: drain},
					{Node: gate},
					{Node: source},
				},
			},
		},
	}

	var buf strings.Builder
	warnings, err := sim.Emit(&buf, sim.Options{}, pool, types, res)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "bsim4")
	assert.True(t, strings.HasPrefix(strings.Split(buf.String(), "\n")[1], "n "))
}

func TestEmitRendersSubstrateCapAsPseudoDevice(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	id := namedNode(t, table, pool, "diff")
	table.Node(id).SubstrateCap = 250

	types := classindex.NewDeviceTypes()
	res := &flatten.Result{Table: table}

	var buf strings.Builder
	_, err := sim.Emit(&buf, sim.Options{}, pool, types, res)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "C diff GND 250\n")
}
