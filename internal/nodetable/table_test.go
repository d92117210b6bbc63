package nodetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func newTestTable(t *testing.T) (*Table, *hiername.Pool) {
	t.Helper()
	pool := hiername.NewPool()
	return New(pool), pool
}

func TestEnsureNamedCreatesOnce(t *testing.T) {
	tab, pool := newTestTable(t)
	h := pool.Intern(efmodel.NilHierName, "in")

	a := tab.EnsureNamed(h)
	b := tab.EnsureNamed(h)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, tab.Len())
}

func TestCanonicalNameIsBestUnderEFHNBest(t *testing.T) {
	tab, pool := newTestTable(t)
	a := pool.Intern(efmodel.NilHierName, "abc")
	id := tab.EnsureNamed(a)

	b := pool.Intern(efmodel.NilHierName, "ab")
	tab.AddAlias(id, b, -1)

	// "ab" is shorter than "abc", so it must win canonical status even
	// though it was added second (§4.4: canonical promotion on arrival
	// of a strictly-better name).
	assert.Equal(t, b, tab.CanonicalName(id))

	for _, alias := range tab.Aliases(id) {
		assert.True(t, pool.EFHNBest(tab.CanonicalName(id), alias) <= 0,
			"canonical name must be best-or-equal to every alias")
	}
}

func TestAliasBackPointersAlwaysResolveToOwningNode(t *testing.T) {
	tab, pool := newTestTable(t)
	h1 := pool.Intern(efmodel.NilHierName, "A")
	h2 := pool.Intern(efmodel.NilHierName, "B")
	id := tab.EnsureNamed(h1)
	tab.AddAlias(id, h2, -1)

	for _, name := range tab.Aliases(id) {
		got, ok := tab.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestMergeSumsParasiticsAndConcatenatesAttrs(t *testing.T) {
	tab, pool := newTestTable(t)
	hA := pool.Intern(efmodel.NilHierName, "A")
	hB := pool.Intern(efmodel.NilHierName, "B")

	target := tab.EnsureNamed(hA)
	source := tab.EnsureNamed(hB)

	tab.Node(target).SubstrateCap = 10
	tab.Node(target).AreaPerim = []efmodel.AreaPerim{{Area: 1, Perim: 2}}
	tab.Node(target).Attrs = []efmodel.Attribute{{Text: "t1"}}

	tab.Node(source).SubstrateCap = 15
	tab.Node(source).AreaPerim = []efmodel.AreaPerim{{Area: 3, Perim: 4}}
	tab.Node(source).Attrs = []efmodel.Attribute{{Text: "t2"}}

	before := tab.Len()
	tab.Merge(target, source)

	assert.Equal(t, before-1, tab.Len(), "merge must remove exactly one live node")
	assert.InDelta(t, 25.0, tab.Node(target).SubstrateCap, 1e-9)
	assert.Equal(t, efmodel.AreaPerim{Area: 4, Perim: 6}, tab.Node(target).AreaPerim[0])
	assert.Len(t, tab.Node(target).Attrs, 2)

	// No surviving reference to source's old name may resolve to
	// anything but target.
	got, ok := tab.Lookup(hB)
	require.True(t, ok)
	assert.Equal(t, target, got)
}

func TestMergeKeepsBestNameCanonicalRegardlessOfDirection(t *testing.T) {
	tab, pool := newTestTable(t)
	hLong := pool.Intern(efmodel.NilHierName, "verylongname")
	hShort := pool.Intern(efmodel.NilHierName, "ab")

	target := tab.EnsureNamed(hLong)
	source := tab.EnsureNamed(hShort)

	tab.Merge(target, source)
	assert.Equal(t, hShort, tab.CanonicalName(target), "shorter name must win canonical status even though it was the merge source")
}

func TestEachVisitsEveryLiveNodeExactlyOnce(t *testing.T) {
	tab, pool := newTestTable(t)
	var ids []efmodel.NodeID
	for _, n := range []string{"a", "b", "c", "d"} {
		ids = append(ids, tab.EnsureNamed(pool.Intern(efmodel.NilHierName, n)))
	}
	tab.Merge(ids[0], ids[1])

	seen := map[efmodel.NodeID]int{}
	tab.Each(func(id efmodel.NodeID) bool {
		seen[id]++
		return true
	})
	assert.Equal(t, tab.Len(), len(seen))
	for _, c := range seen {
		assert.Equal(t, 1, c)
	}
}

func TestDistanceTableCanonicalKey(t *testing.T) {
	pool := hiername.NewPool()
	dt := NewDistanceTable(pool)
	a := pool.Intern(efmodel.NilHierName, "abc")
	b := pool.Intern(efmodel.NilHierName, "ab")

	dt.Record(a, b, 1, 5)
	dt.Record(b, a, 2, 10)

	all := dt.All()
	require.Len(t, all, 1, "A-to-B and B-to-A must collide into one entry")
	assert.Equal(t, 1.0, all[0].Min)
	assert.Equal(t, 10.0, all[0].Max)
}
