package spice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Namer renders a flat node's SPICE name according to Flavor,
// carrying the per-emission state each flavor needs: SPICE2's
// monotonic integer counter (cached on EFNode.Client) and HSPICE's
// subckt-name shortening hash (§4.7).
type Namer struct {
	flavor Flavor
	pool   *hiername.Pool

	spice2Next int

	hspicePrefixes map[string]string
	hspiceNext     int
	zNext          int
}

// NewNamer creates a Namer for one emission pass. A fresh Namer must
// be used per emitted file: the SPICE2 counter and HSPICE shortening
// hash are not meant to persist across files.
func NewNamer(flavor Flavor, pool *hiername.Pool) *Namer {
	return &Namer{
		flavor:         flavor,
		pool:           pool,
		hspicePrefixes: make(map[string]string),
	}
}

// Name renders table's node id per n's flavor.
func (n *Namer) Name(table *nodetable.Table, id efmodel.NodeID) (string, error) {
	canon := table.CanonicalName(id)
	switch n.flavor {
	case SPICE2:
		node := table.Node(id)
		idx, ok := node.Client.(int)
		if !ok {
			idx = n.spice2Next
			n.spice2Next++
			node.Client = idx
		}
		return strconv.Itoa(idx), nil
	case SPICE3, NGSPICE:
		return n.pool.ToStr(canon, hiername.RenderOptions{
			Trim:  hiername.TrimGlobal,
			Subst: hiername.SubstSemicolon,
		}), nil
	case HSPICE:
		s := n.pool.ToStr(canon, hiername.RenderOptions{
			Trim:    hiername.TrimGlobal,
			Subst:   hiername.SubstSemicolon,
			DotToAt: true,
		})
		if len(s) <= 15 {
			return s, nil
		}
		return n.shorten(s)
	default:
		return "", fmt.Errorf("spice: unknown flavor %d", n.flavor)
	}
}

// shorten implements HSPICE's over-length fallback chain: shorten the
// hierarchical prefix to x<N>, then if still too long fall back to a
// flat z@<K>, then give up (§4.7).
func (n *Namer) shorten(s string) (string, error) {
	prefix, leaf := s, s
	if i := strings.LastIndex(s, "/"); i >= 0 {
		prefix, leaf = s[:i], s[i+1:]
	} else {
		prefix = ""
	}

	short, ok := n.hspicePrefixes[prefix]
	if !ok {
		short = fmt.Sprintf("x%d", n.hspiceNext)
		n.hspiceNext++
		n.hspicePrefixes[prefix] = short
	}
	candidate := short
	if prefix != "" {
		candidate = short + "/" + leaf
	}
	if len(candidate) <= 15 {
		return candidate, nil
	}

	z := fmt.Sprintf("z@%d", n.zNext)
	n.zNext++
	if len(z) <= 15 {
		return z, nil
	}
	return "", ErrNamesTooLong
}
