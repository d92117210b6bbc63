package spice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/internal/spice"
)

func TestNamerSPICE2AssignsMonotonicIntegers(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	a := namedNode(t, table, pool, "a")
	b := namedNode(t, table, pool, "b")

	namer := spice.NewNamer(spice.SPICE2, pool)
	an, err := namer.Name(table, a)
	require.NoError(t, err)
	bn, err := namer.Name(table, b)
	require.NoError(t, err)
	again, err := namer.Name(table, a)
	require.NoError(t, err)

	assert.Equal(t, "0", an)
	assert.Equal(t, "1", bn)
	assert.Equal(t, "0", again, "repeated lookup of the same node must reuse its cached index")
}

func TestNamerSPICE3RendersFullHierarchicalPath(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	id := namedNode(t, table, pool, "x/y/sig")

	namer := spice.NewNamer(spice.SPICE3, pool)
	n, err := namer.Name(table, id)
	require.NoError(t, err)
	assert.Equal(t, "x/y/sig", n)
}

func TestNamerHSPICEShortensOverlongNames(t *testing.T) {
	pool := hiername.NewPool()
	table := nodetable.New(pool)
	id := namedNode(t, table, pool, "this_is_a_really_long_instance_prefix/sig")

	namer := spice.NewNamer(spice.HSPICE, pool)
	n, err := namer.Name(table, id)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(n), 15)
	assert.Equal(t, "x0/sig", n)
}
