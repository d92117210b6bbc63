// Package sim implements the .sim emitter of spec.md §4.8: the older,
// simpler net-list format ext2sim historically produced alongside
// SPICE output — one-character device codes, space-separated
// terminals, then length/width/x/y, with node attributes and
// substrate caps folded in as pseudo-devices.
//
// Grounded on the teacher's printer package for the same "one
// lightweight line-oriented format alongside the richer one" shape
// internal/spice's package doc already credits that package with.
package sim

import (
	"fmt"
	"io"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Format selects the `.sim` header's declared coordinate convention
// (§6: "format: <MIT|SU|LBL>").
type Format string

const (
	MIT Format = "MIT"
	SU  Format = "SU"
	LBL Format = "LBL"
)

// Options configures one .sim emission.
type Options struct {
	Scale  string
	Tech   string
	Format Format
	// AliasWriter, if non-nil, receives one "= <canonical> <alias>"
	// line per non-canonical name bound to a node (§4.8 .al sidecar).
	AliasWriter io.Writer
	// NodesWriter, if non-nil, receives one "<name> <x> <y> <layer>"
	// line per node with a recorded location (§4.8 .nodes sidecar).
	NodesWriter io.Writer
}

// Warning is a non-fatal emission note (§4.8's device-prefix fallback).
type Warning struct {
	Message string
}

func (w Warning) Error() string { return w.Message }

// Emit writes res as a .sim file to w, plus any requested sidecar
// output to opts.AliasWriter/opts.NodesWriter, returning every
// fallback warning encountered along the way.
func Emit(w io.Writer, opts Options, pool *hiername.Pool, types *classindex.DeviceTypes, res *flatten.Result) ([]Warning, error) {
	var warnings []Warning

	format := opts.Format
	if format == "" {
		format = MIT
	}
	fmt.Fprintf(w, "| units: %s tech: %s format: %s\n", opts.Scale, opts.Tech, format)

	for _, dev := range res.Devices {
		line, warn, err := deviceLine(pool, res.Table, types, dev)
		if err != nil {
			return warnings, err
		}
		if warn != "" {
			warnings = append(warnings, Warning{Message: warn})
		}
		fmt.Fprintln(w, line)
	}

	if err := emitPseudoDevices(w, pool, res.Table); err != nil {
		return warnings, err
	}

	if opts.AliasWriter != nil {
		if err := emitAliases(opts.AliasWriter, pool, res.Table); err != nil {
			return warnings, err
		}
	}
	if opts.NodesWriter != nil {
		if err := emitNodes(opts.NodesWriter, pool, res.Table); err != nil {
			return warnings, err
		}
	}

	return warnings, nil
}

// deviceLine renders one "<code> <terms...> <l> <w> <x> <y>" line
// (§4.8). FET classes are coded by the device type's leading
// character when it is 'n' or 'p'; any other leading character falls
// back to 'n' with a warning, since the format has room for exactly
// one prefix character.
func deviceLine(pool *hiername.Pool, table interface {
	CanonicalName(efmodel.NodeID) efmodel.HierName
}, types *classindex.DeviceTypes, dev efmodel.Dev) (line string, warning string, err error) {
	name := func(id efmodel.NodeID) string {
		if id == efmodel.NilNodeID {
			return "GND"
		}
		return pool.ToStr(table.CanonicalName(id), hiername.RenderOptions{Trim: hiername.TrimGlobal})
	}
	term := func(i int) efmodel.NodeID {
		if i < 0 || i >= len(dev.Terms) {
			return efmodel.NilNodeID
		}
		return dev.Terms[i].Node
	}

	var code byte
	switch dev.Class {
	case efmodel.DevFET, efmodel.DevMOSFET, efmodel.DevAsymFET:
		code = 'n'
		if dev.Type >= 0 {
			typeName := types.Name(dev.Type)
			switch {
			case len(typeName) > 0 && (typeName[0] == 'n' || typeName[0] == 'p'):
				code = typeName[0]
			case len(typeName) > 0:
				warning = fmt.Sprintf("device type %q does not start with n or p; falling back to n", typeName)
			}
		}
	case efmodel.DevBJT:
		code = 'b'
	case efmodel.DevRes, efmodel.DevRSubckt:
		code = 'r'
	case efmodel.DevCap, efmodel.DevCapReverse, efmodel.DevCSubckt:
		code = 'c'
	case efmodel.DevSubckt, efmodel.DevMSubckt:
		code = 'x'
	default:
		return "", "", fmt.Errorf("sim: unrenderable device class %d", dev.Class)
	}

	gate, source, drain := name(term(1)), name(term(2)), name(term(0))
	x, y := dev.Loc.X0, dev.Loc.Y0

	line = fmt.Sprintf("%c %s %s %s %s %s %d %d", code, gate, source, drain, siLen(dev.Length), siLen(dev.Width), x, y)
	return line, warning, nil
}

func siLen(v float64) string {
	return fmt.Sprintf("%g", v)
}

func emitPseudoDevices(w io.Writer, pool *hiername.Pool, table interface {
	Each(func(efmodel.NodeID) bool)
	Node(efmodel.NodeID) *efmodel.EFNode
	CanonicalName(efmodel.NodeID) efmodel.HierName
}) error {
	table.Each(func(id efmodel.NodeID) bool {
		n := table.Node(id)
		name := pool.ToStr(table.CanonicalName(id), hiername.RenderOptions{Trim: hiername.TrimGlobal})

		if n.SubstrateCap != 0 {
			fmt.Fprintf(w, "C %s GND %s\n", name, siLen(n.SubstrateCap))
		}
		if len(n.Attrs) > 0 {
			attrs := make([]string, len(n.Attrs))
			for i, a := range n.Attrs {
				attrs[i] = a.Text
			}
			fmt.Fprintf(w, "A %s %s\n", name, joinComma(attrs))
		}
		return true
	})
	return nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

func emitAliases(w io.Writer, pool *hiername.Pool, table interface {
	Each(func(efmodel.NodeID) bool)
	Aliases(efmodel.NodeID) []efmodel.HierName
}) error {
	table.Each(func(id efmodel.NodeID) bool {
		aliases := table.Aliases(id)
		if len(aliases) < 2 {
			return true
		}
		canon := pool.ToStr(aliases[0], hiername.RenderOptions{Trim: hiername.TrimGlobal})
		for _, a := range aliases[1:] {
			fmt.Fprintf(w, "= %s %s\n", canon, pool.ToStr(a, hiername.RenderOptions{Trim: hiername.TrimGlobal}))
		}
		return true
	})
	return nil
}

func emitNodes(w io.Writer, pool *hiername.Pool, table interface {
	Each(func(efmodel.NodeID) bool)
	Node(efmodel.NodeID) *efmodel.EFNode
	CanonicalName(efmodel.NodeID) efmodel.HierName
}) error {
	table.Each(func(id efmodel.NodeID) bool {
		n := table.Node(id)
		if !n.HasLoc {
			return true
		}
		name := pool.ToStr(table.CanonicalName(id), hiername.RenderOptions{Trim: hiername.TrimGlobal})
		fmt.Fprintf(w, "%s %d %d %d\n", name, n.Loc.X0, n.Loc.Y0, n.LayerType)
		return true
	})
	return nil
}
