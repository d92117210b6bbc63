package extreader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/defreg"
	"github.com/rtimothyedwards/extflat/internal/extreader"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func newReader(src extreader.MapSource) (*extreader.Reader, *defreg.Registry, *hiername.Pool) {
	pool := hiername.NewPool()
	reg := defreg.New()
	types := classindex.NewDeviceTypes()
	layers := classindex.NewLayerNames()
	return extreader.New(pool, reg, types, layers, src), reg, pool
}

const childExt = `tech scmos
scale 1 1 1
node in 0 0 0 0 metal1
node out 0 0 0 0 metal1
device mosfet nfet 0 0 10 10 2 4 in 5 - out 5 -
`

const parentExt = `tech scmos
scale 1 1 1
use child inst0 1 0 0 0 1 0
node top 0 0 0 0 metal1
merge top inst0/in 0
killnode inst0/out
`

func TestReadHierarchyPopulatesDefsAndFollowsUses(t *testing.T) {
	r, reg, _ := newReader(extreader.MapSource{
		"parent": parentExt,
		"child":  childExt,
	})

	rootID, err := r.ReadHierarchy("parent")
	require.NoError(t, err)

	root := reg.Get(rootID)
	assert.True(t, root.Flags.Has(efmodel.DefAvailable))
	require.Len(t, root.Uses, 1)
	assert.Equal(t, "inst0", root.Uses[0].ID)

	childID, ok := reg.Lookup("child")
	require.True(t, ok)
	child := reg.Get(childID)
	assert.True(t, child.Flags.Has(efmodel.DefAvailable))
	require.Len(t, child.Devices, 1)
	assert.Equal(t, efmodel.DevMOSFET, child.Devices[0].Class)
	assert.Len(t, child.Devices[0].Terms, 2)
}

func TestReadHierarchyRecordsKillAndMerge(t *testing.T) {
	r, reg, _ := newReader(extreader.MapSource{
		"parent": parentExt,
		"child":  childExt,
	})

	rootID, err := r.ReadHierarchy("parent")
	require.NoError(t, err)

	root := reg.Get(rootID)
	require.Len(t, root.Kills, 1)
	require.Len(t, root.Connections, 1)
	assert.Equal(t, "top", root.Connections[0].Name1.Template)
}

func TestReadHierarchyNoSuchDefWrapsSentinel(t *testing.T) {
	r, _, _ := newReader(extreader.MapSource{})
	_, err := r.ReadHierarchy("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, defreg.ErrNoSuchDef)
}

func TestHandleNodeAccumulatesOnDuplicateDeclaration(t *testing.T) {
	const ext = `node a 10 5 0 0 metal1
node a 20 5 0 0 metal1
`
	r, reg, pool := newReader(extreader.MapSource{"d": ext})
	id, err := r.ReadHierarchy("d")
	require.NoError(t, err)

	table := r.TableFor(id)
	h := pool.Intern(efmodel.NilHierName, "a")
	nid, ok := table.Lookup(h)
	require.True(t, ok)
	n := table.Node(nid)
	assert.InDelta(t, 30, n.Resistance, 1e-9)
	assert.InDelta(t, 10, n.SubstrateCap, 1e-9)
	_ = reg
}

func TestHandleKillnodeTagsSubsequentNodesAfterKill(t *testing.T) {
	const ext = `node a 0 0 0 0 metal1
killnode a
node b 0 0 0 0 metal1
`
	r, _, pool := newReader(extreader.MapSource{"d": ext})
	id, err := r.ReadHierarchy("d")
	require.NoError(t, err)

	table := r.TableFor(id)
	hb := pool.Intern(efmodel.NilHierName, "b")
	bid, ok := table.Lookup(hb)
	require.True(t, ok)
	assert.True(t, table.Node(bid).Flags.Has(efmodel.NodeAfterKill))

	ha := pool.Intern(efmodel.NilHierName, "a")
	aid, ok := table.Lookup(ha)
	require.True(t, ok)
	assert.False(t, table.Node(aid).Flags.Has(efmodel.NodeAfterKill))
}

func TestHandleLegacyFetSolvesLengthFromAreaAndPerimeter(t *testing.T) {
	const ext = `node s 0 0 0 0 metal1
node d 0 0 0 0 metal1
node g 0 0 0 0 metal1
fet nfet 0 0 10 10 40 28 - s 5 - g 5 - d 5 -
`
	r, reg, _ := newReader(extreader.MapSource{"d": ext})
	id, err := r.ReadHierarchy("d")
	require.NoError(t, err)
	def := reg.Get(id)
	require.Len(t, def.Devices, 1)
	dev := def.Devices[0]
	assert.Equal(t, efmodel.DevFET, dev.Class)
	assert.Greater(t, dev.Length, 0.0)
	assert.Greater(t, dev.Width, 0.0)
	assert.Equal(t, efmodel.NilNodeID, dev.Substrate)
}

func TestHandleAttrReferencingUndeclaredNodeIsNonFatalWarning(t *testing.T) {
	const ext = `attr ghost 0 0 1 1 metal1 "stray"
node a 0 0 0 0 metal1
`
	r, _, _ := newReader(extreader.MapSource{"d": ext})
	_, err := r.ReadHierarchy("d")
	require.NoError(t, err)
	require.Len(t, r.Warnings, 1)
}

func TestHandleResistClassesMismatchAcrossFiles(t *testing.T) {
	r, _, _ := newReader(extreader.MapSource{
		"parent": "resistclasses 2\nuse child inst0 1 0 0 0 1 0\n",
		"child":  "resistclasses 3\n",
	})
	_, err := r.ReadHierarchy("parent")
	require.Error(t, err)
	assert.ErrorIs(t, err, defreg.ErrClassMismatch)
}
