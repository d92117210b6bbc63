package spice

import (
	"fmt"
	"io"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Options configures one flat-SPICE emission (§4.7's top-level flow).
type Options struct {
	RenderOptions
	// Scale, if non-empty, emits a leading ".option scale=<Scale>" line.
	Scale string
	// EmitGlobal emits a ".global" line listing every substrate-port
	// node, suppressed in LVS mode.
	EmitGlobal bool
	LVS        bool
	// Subckt wraps the body in ".subckt <Name> <ports...>" / ".ends"
	// instead of a bare ".end".
	Subckt bool
	Name   string
	Ports  []efmodel.NodeID
}

// EmitFlat writes one complete flat SPICE deck for res to w: an
// optional .option line, an optional .global line, an optional
// .subckt wrapper, every device/resistor/capacitor line, then .ends
// or .end (§4.7).
func EmitFlat(w io.Writer, opts Options, pool *hiername.Pool, types *classindex.DeviceTypes, res *flatten.Result) error {
	namer := NewNamer(opts.Flavor, pool)
	counters := NewInstanceCounters()
	apt := NewAreaPerimTracker()

	if opts.Scale != "" {
		fmt.Fprintf(w, ".option scale=%s\n", opts.Scale)
	}
	if opts.EmitGlobal && !opts.LVS {
		if err := emitGlobalLine(w, res.Table, namer); err != nil {
			return err
		}
	}
	if opts.Subckt {
		if err := emitSubcktHeader(w, res.Table, namer, opts); err != nil {
			return err
		}
	}

	for _, dev := range res.Devices {
		line, err := DeviceLine(opts.RenderOptions, res.Table, namer, types, dev, counters, apt)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, line)
	}

	if err := emitCouplings(w, res.Table, namer, res.Resistors, "R", decimalIndex, SIValue); err != nil {
		return err
	}
	if err := emitCouplings(w, res.Table, namer, res.Caps, "C", decimalIndex, SIValue); err != nil {
		return err
	}

	if opts.Subckt {
		fmt.Fprintln(w, ".ends")
	} else {
		fmt.Fprintln(w, ".end")
	}
	return nil
}

// emitGlobalLine lists every node flagged as a substrate port, in
// table iteration order, as a single ".global" line. Emits nothing if
// no such node exists.
func emitGlobalLine(w io.Writer, table *nodetable.Table, namer *Namer) error {
	var names []string
	var rangeErr error
	table.Each(func(id efmodel.NodeID) bool {
		n := table.Node(id)
		if !n.Flags.Has(efmodel.NodeSubstratePort) {
			return true
		}
		s, err := namer.Name(table, id)
		if err != nil {
			rangeErr = err
			return false
		}
		names = append(names, s)
		return true
	})
	if rangeErr != nil {
		return rangeErr
	}
	if len(names) == 0 {
		return nil
	}
	fmt.Fprint(w, ".global")
	for _, n := range names {
		fmt.Fprint(w, " ", n)
	}
	fmt.Fprintln(w)
	return nil
}

// emitSubcktHeader writes ".subckt <name> <ports...>", naming each
// port node in the order opts.Ports declares it.
func emitSubcktHeader(w io.Writer, table *nodetable.Table, namer *Namer, opts Options) error {
	fmt.Fprintf(w, ".subckt %s", opts.Name)
	for _, id := range opts.Ports {
		s, err := namer.Name(table, id)
		if err != nil {
			return err
		}
		fmt.Fprint(w, " ", s)
	}
	fmt.Fprintln(w)
	return nil
}

// emitCouplings renders one line per flattened two-terminal coupling
// (a folded resistor or lumped capacitor), as "<prefix><n> <a> <b>
// <value>".
func emitCouplings(w io.Writer, table *nodetable.Table, namer *Namer, couplings []flatten.Coupling, prefix string, id func(int) string, format func(float64) string) error {
	for i, c := range couplings {
		a, err := namer.Name(table, c.A)
		if err != nil {
			return err
		}
		b, err := namer.Name(table, c.B)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s %s %s %s\n", prefix, id(i), a, b, format(c.Value))
	}
	return nil
}
