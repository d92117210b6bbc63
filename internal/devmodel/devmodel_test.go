package devmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/devmodel"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func mosfet(width float64, drain, gate, source, sub efmodel.NodeID) efmodel.Dev {
	return efmodel.Dev{
		Class:     efmodel.DevMOSFET,
		Type:      0,
		Length:    2,
		Width:     width,
		Substrate: sub,
		Terms: []efmodel.DevTerm{
			{Node: drain},
			{Node: gate},
			{Node: source},
		},
	}
}

func TestConservativeMergeCombinesIdenticalDevices(t *testing.T) {
	a := mosfet(5, 1, 2, 3, 10)
	b := mosfet(5, 1, 2, 3, 10)
	insts := devmodel.NewInstances([]efmodel.Dev{a, b})

	merged, _ := devmodel.MergeAll(insts, devmodel.Conservative{})
	live := devmodel.Live(merged)

	require.Len(t, live, 1)
	assert.Equal(t, 2.0, live[0].Multiplier)
	assert.True(t, merged[1].Killed)
}

func TestConservativeMergeRejectsDifferentWidth(t *testing.T) {
	a := mosfet(5, 1, 2, 3, 10)
	b := mosfet(6, 1, 2, 3, 10)
	insts := devmodel.NewInstances([]efmodel.Dev{a, b})

	merged, _ := devmodel.MergeAll(insts, devmodel.Conservative{})
	live := devmodel.Live(merged)

	assert.Len(t, live, 2)
}

func TestAggressiveMergeAccumulatesFractionalWidth(t *testing.T) {
	a := mosfet(10, 1, 2, 3, 10)
	b := mosfet(5, 1, 2, 3, 10)
	insts := devmodel.NewInstances([]efmodel.Dev{a, b})

	merged, _ := devmodel.MergeAll(insts, devmodel.Aggressive{})
	live := devmodel.Live(merged)

	require.Len(t, live, 1)
	assert.InDelta(t, 1.5, live[0].Multiplier, 1e-9)
}

func TestSymmetricOrientationAcceptsSwappedSourceDrain(t *testing.T) {
	a := mosfet(5, 1, 2, 3, 10)
	bSwapped := mosfet(5, 3, 2, 1, 10) // source/drain swapped
	insts := devmodel.NewInstances([]efmodel.Dev{a, bSwapped})

	merged, _ := devmodel.MergeAll(insts, devmodel.Conservative{})
	live := devmodel.Live(merged)

	require.Len(t, live, 1)
}

func TestAsymmetricOrientationRejectsSwappedSourceDrain(t *testing.T) {
	a := mosfet(5, 1, 2, 3, 10)
	a.Class = efmodel.DevAsymFET
	bSwapped := mosfet(5, 3, 2, 1, 10)
	bSwapped.Class = efmodel.DevAsymFET
	insts := devmodel.NewInstances([]efmodel.Dev{a, bSwapped})

	merged, _ := devmodel.MergeAll(insts, devmodel.Conservative{})
	live := devmodel.Live(merged)

	assert.Len(t, live, 2)
}

func TestExplicitSDAttributeOverridesDefaultOrientation(t *testing.T) {
	a := mosfet(5, 1, 2, 3, 10)
	b := mosfet(5, 1, 2, 3, 10)
	// b's terminal list physically looks like a, but an explicit
	// attribute forces terminal 0 to be read as the source instead.
	b.Terms[0].Attr = "S"
	b.Terms[2].Attr = "D"
	insts := devmodel.NewInstances([]efmodel.Dev{a, b})

	merged, warnings := devmodel.MergeAll(insts, devmodel.Conservative{})
	live := devmodel.Live(merged)

	// a's orientation (drain=1,source=3) no longer matches b's
	// overridden orientation (source=1,drain=3) under an asymmetric
	// read, but MOSFET is symmetric so the swapped pair still merges.
	require.Len(t, live, 1)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], devmodel.ErrParallelMergeConflict)
}

func TestMergeWithoutAttributeConflictReportsNoWarning(t *testing.T) {
	a := mosfet(5, 1, 2, 3, 10)
	b := mosfet(5, 1, 2, 3, 10)
	insts := devmodel.NewInstances([]efmodel.Dev{a, b})

	_, warnings := devmodel.MergeAll(insts, devmodel.Conservative{})

	assert.Empty(t, warnings)
}

func TestEvalTemplateSubstitutesKnownVariables(t *testing.T) {
	d := efmodel.Dev{Width: 2, Length: 0.5}
	v, ok, err := devmodel.EvalTemplate("w*1e-6", d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 2e-6, v, 1e-12)
}

func TestEvalTemplateLeavesUnknownTemplateVerbatim(t *testing.T) {
	d := efmodel.Dev{}
	_, ok, err := devmodel.EvalTemplate("bsim4", d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalTemplatePerTerminalAreaPerim(t *testing.T) {
	d := efmodel.Dev{
		Terms: []efmodel.DevTerm{
			{HasAreaPerim: true, AreaPerim: efmodel.AreaPerim{Area: 12, Perim: 4}},
		},
	}
	v, ok, err := devmodel.EvalTemplate("a0", d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 12, v, 1e-9)
}
