// Package hiername implements the interned hierarchical-path-component
// pool described in spec.md §4.1: HierName values are small handles
// into a Pool, deduplicated by (parent, leaf), with a precomputed hash
// combining the leaf's character hash with the parent's.
//
// The sharding and FNV-based shard selection here are grounded on the
// teacher's sharded LRU decode cache (hive/namecache/cache.go): same
// fixed shard count and shard-selection strategy, but entries are
// never evicted — this is an intern pool, not a cache, so Pool owns
// its entries for the lifetime of the session.
package hiername

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// numShards must be a power of two for fast modulo via bitmask,
// matching namecache's shard count.
const numShards = 16

type key struct {
	parent efmodel.HierName
	leaf   string
}

type entry struct {
	parent efmodel.HierName
	leaf   string
	hash   uint32
}

type shard struct {
	mu      sync.Mutex
	byKey   map[key]efmodel.HierName
	entries []entry // not populated: every entry lives in Pool.global
}

// Pool interns HierName values for one session. It is not a package
// singleton: a session.Session owns exactly one Pool, created fresh
// per command invocation (§5).
type Pool struct {
	shards [numShards]*shard
	mu     sync.Mutex
	// global is a flat append-only slice of entries; a HierName handle
	// is its index here.
	global []entry
}

// NewPool creates an empty intern pool.
func NewPool() *Pool {
	p := &Pool{}
	for i := range p.shards {
		p.shards[i] = &shard{byKey: make(map[key]efmodel.HierName)}
	}
	return p
}

// rotate4 rotates a 32-bit running sum 4 bits left, the mixing step
// spec.md §4.1 and §8 both specify: "ab" and "ba" must hash
// differently, which a plain additive hash would not guarantee.
func rotate4(h uint32) uint32 {
	return (h << 4) | (h >> 28)
}

// leafHash combines a parent hash with a leaf string the way spec.md
// §8 requires: each character rotates the running hash before folding
// in, so character order inside a leaf changes the result ("ab" and
// "ba" must hash differently).
func leafHash(parentHash uint32, leaf string) uint32 {
	h := parentHash
	for i := 0; i < len(leaf); i++ {
		h = rotate4(h) + uint32(leaf[i])
	}
	return h
}

func shardFor(k key) int {
	h := fnv.New32a()
	h.Write([]byte(k.leaf)) //nolint:errcheck // fnv Write never errors
	return int((h.Sum32() ^ uint32(k.parent)) & (numShards - 1))
}

// Intern returns the handle for (parent, leaf), creating it if this is
// the first time the pair has been seen. parent must be NilHierName or
// a handle this Pool previously returned.
func (p *Pool) Intern(parent efmodel.HierName, leaf string) efmodel.HierName {
	k := key{parent, leaf}
	s := p.shards[shardFor(k)]

	s.mu.Lock()
	if h, ok := s.byKey[k]; ok {
		s.mu.Unlock()
		return h
	}
	s.mu.Unlock()

	var parentHash uint32
	if parent.Valid() {
		parentHash = p.hashOf(parent)
	}
	e := entry{parent: parent, leaf: leaf, hash: leafHash(parentHash, leaf)}

	p.mu.Lock()
	h := efmodel.HierName(len(p.global))
	p.global = append(p.global, e)
	p.mu.Unlock()

	s.mu.Lock()
	// Re-check: another goroutine may have interned the same pair
	// while we built e above. Session use is single-threaded per
	// spec.md §5, but the pool itself stays safe for concurrent reads.
	if existing, ok := s.byKey[k]; ok {
		s.mu.Unlock()
		return existing
	}
	s.byKey[k] = h
	s.mu.Unlock()
	return h
}

// FromPath interns a "/"-separated path string as a full HierName
// chain, returning the handle for its final component.
func (p *Pool) FromPath(path string) efmodel.HierName {
	cur := efmodel.NilHierName
	for _, comp := range strings.Split(path, "/") {
		if comp == "" {
			continue
		}
		cur = p.Intern(cur, comp)
	}
	return cur
}

func (p *Pool) hashOf(h efmodel.HierName) uint32 {
	p.mu.Lock()
	e := p.global[h]
	p.mu.Unlock()
	return e.hash
}

// Hash returns h's precomputed structural hash.
func (p *Pool) Hash(h efmodel.HierName) uint32 {
	if !h.Valid() {
		return 0
	}
	return p.hashOf(h)
}

// Parent returns h's parent handle, or (NilHierName, false) if h is
// top-level.
func (p *Pool) Parent(h efmodel.HierName) (efmodel.HierName, bool) {
	p.mu.Lock()
	e := p.global[h]
	p.mu.Unlock()
	return e.parent, e.parent.Valid()
}

// Leaf returns h's own path component (without parent prefix).
func (p *Pool) Leaf(h efmodel.HierName) string {
	p.mu.Lock()
	e := p.global[h]
	p.mu.Unlock()
	return e.leaf
}

// Depth returns the number of path components in h, i.e. the count
// used by EFHNBest rule (1): fewer components wins.
func (p *Pool) Depth(h efmodel.HierName) int {
	n := 0
	for cur := h; cur.Valid(); {
		n++
		parent, ok := p.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	return n
}

// Equal reports whether a and b name the same path: same leaf string
// at every level and equal parent chains (§3 HierName comparison is
// structural). Because Intern deduplicates by (parent, leaf), equal
// paths always produce the same handle, so Equal is just ==; this
// method exists to document and test that invariant explicitly.
func Equal(a, b efmodel.HierName) bool { return a == b }
