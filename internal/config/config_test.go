package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/config"
	"github.com/rtimothyedwards/extflat/internal/devmodel"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/sim"
	"github.com/rtimothyedwards/extflat/internal/spice"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func TestDefaultSpiceOptionsResolve(t *testing.T) {
	o := config.DefaultSpiceOptions()

	flavor, err := o.Flavor()
	require.NoError(t, err)
	assert.Equal(t, spice.SPICE2, flavor)

	strat, err := o.MergeStrategy()
	require.NoError(t, err)
	assert.Nil(t, strat)

	mode, err := o.ShortMode()
	require.NoError(t, err)
	assert.Equal(t, spice.ShortNone, mode)

	flags := o.FlattenFlags()
	assert.True(t, flags.Has(flatten.FlatNodes))
	assert.True(t, flags.Has(flatten.FlatCaps))
	assert.False(t, flags.Has(flatten.NoFlatSubcircuit))
}

func TestLVSSpiceOptionsUsesConservativeMergeAndFlatOutput(t *testing.T) {
	o := config.LVSSpiceOptions()

	strat, err := o.MergeStrategy()
	require.NoError(t, err)
	assert.IsType(t, devmodel.Conservative{}, strat)

	assert.False(t, o.Global)
	assert.False(t, o.Hierarchy)
	assert.True(t, o.LVS)
}

func TestSpiceOptionsRejectsUnknownFormat(t *testing.T) {
	o := config.DefaultSpiceOptions()
	o.Format = "bogus"

	_, err := o.Flavor()
	assert.Error(t, err)
}

func TestDescendOffSetsNoFlatSubcircuit(t *testing.T) {
	o := config.DefaultSpiceOptions()
	o.Descend = false

	flags := o.FlattenFlags()
	assert.True(t, flags.Has(flatten.NoFlatSubcircuit))
}

func TestFlatOptionsCarriesScaleOnlyWhenEnabled(t *testing.T) {
	o := config.DefaultSpiceOptions()
	o.ScaleOn = false

	opts, err := o.FlatOptions("top", "1.0", false, nil)
	require.NoError(t, err)
	assert.Empty(t, opts.Scale)

	o.ScaleOn = true
	opts, err = o.FlatOptions("top", "1.0", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0", opts.Scale)
}

func TestDefaultSimOptionsResolve(t *testing.T) {
	o := config.DefaultSimOptions()

	opts, err := o.Resolve("1.0", "scmos", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, sim.MIT, opts.Format)
	assert.Nil(t, opts.AliasWriter)
}

func TestFormatScale(t *testing.T) {
	assert.Equal(t, "0.01u", config.FormatScale(efmodel.Scale{Internal: 100, Lambda: 1, CIF: 1}))
	assert.Empty(t, config.FormatScale(efmodel.Scale{}))
}

func TestSimOptionsRejectsUnknownFormat(t *testing.T) {
	o := config.DefaultSimOptions()
	o.Format = "bogus"

	_, err := o.Resolve("1.0", "scmos", nil, nil)
	assert.Error(t, err)
}
