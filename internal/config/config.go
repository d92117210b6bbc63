// Package config resolves the CLI option families of spec.md §6 into
// the typed options flatten/devmodel/spice/sim actually take: a
// command-layer translation step, not an algorithmic one, grounded on
// the teacher's cmd/hivectl subcommands each owning a small flag-to-
// printer.Options translation of their own (e.g. export.go's
// printer.DefaultOptions()-plus-overrides).
package config

import (
	"fmt"
	"io"

	"github.com/rtimothyedwards/extflat/internal/devmodel"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/sim"
	"github.com/rtimothyedwards/extflat/internal/spice"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// SpiceOptions bundles "extract to spice [options]"'s option families
// (§6).
type SpiceOptions struct {
	Format string // spice2 | spice3 | hspice | ngspice

	// CapThreshold/ResistThreshold hold cthresh/rthresh (negative means
	// "infinite"). No emitter reads them: every folded coupling cap and
	// resistor is emitted whatever its value.
	CapThreshold    float64
	ResistThreshold float64

	Merge string // none | conservative | aggressive

	// Descend is subcircuits {top|descend}: false stops flattening at
	// every DefIsSubcircuit boundary instead of flattening through it.
	Descend bool

	Hierarchy   bool // hierarchy {on|off}: emit per-Def .subckt calls
	Blackbox    bool // blackbox {on|off}: accepted but read by nothing; output is unchanged
	Renumber    bool // renumber {on|off}: accepted but read by nothing; SPICE2 nodes are always numbered from 0
	Global      bool // global {on|off}: emit a .global line
	Short       string // none | resistor | voltage
	ScaleOn     bool // scale {on|off}: emit a .option scale= line
	ResistorTee bool // resistor tee {on|off}
	Extresist   bool // extresist {on|off}: fold explicit resistors too
	LVS         bool // lvs: conventional combo for netlist comparison
}

// DefaultSpiceOptions returns the conventional non-LVS defaults.
func DefaultSpiceOptions() SpiceOptions {
	return SpiceOptions{
		Format:          "spice2",
		CapThreshold:    -1,
		ResistThreshold: -1,
		Merge:           "none",
		Descend:         true,
		Hierarchy:       true,
		Renumber:        true,
		Global:          true,
		Short:           "none",
	}
}

// LVSSpiceOptions returns the "lvs" conventional combo (§6): flat
// (not hierarchical) output under conservative merge with globals
// folded in rather than broken out, so two runs of the same circuit
// compare node-for-node.
func LVSSpiceOptions() SpiceOptions {
	o := DefaultSpiceOptions()
	o.LVS = true
	o.Merge = "conservative"
	o.Global = false
	o.Hierarchy = false
	return o
}

// Flavor resolves the Format family to a spice.Flavor.
func (o SpiceOptions) Flavor() (spice.Flavor, error) {
	switch o.Format {
	case "spice2":
		return spice.SPICE2, nil
	case "spice3":
		return spice.SPICE3, nil
	case "hspice":
		return spice.HSPICE, nil
	case "ngspice":
		return spice.NGSPICE, nil
	default:
		return 0, fmt.Errorf("config: unknown spice format %q", o.Format)
	}
}

// ShortMode resolves the Short family to a spice.ShortMode.
func (o SpiceOptions) ShortMode() (spice.ShortMode, error) {
	switch o.Short {
	case "", "none":
		return spice.ShortNone, nil
	case "resistor":
		return spice.ShortResistor, nil
	case "voltage":
		return spice.ShortVoltage, nil
	default:
		return 0, fmt.Errorf("config: unknown short mode %q", o.Short)
	}
}

// MergeStrategy resolves the Merge family to a devmodel.Strategy, or
// nil when merging is disabled.
func (o SpiceOptions) MergeStrategy() (devmodel.Strategy, error) {
	switch o.Merge {
	case "", "none":
		return nil, nil
	case "conservative":
		return devmodel.Conservative{}, nil
	case "aggressive":
		return devmodel.Aggressive{}, nil
	default:
		return nil, fmt.Errorf("config: unknown merge strategy %q", o.Merge)
	}
}

// FlattenFlags resolves Descend/Extresist/ResistorTee into the flags
// Flatten/FlattenOneLevel expect. Coupling caps are always folded;
// CapThreshold/ResistThreshold are not applied, here or after the
// flatten.
func (o SpiceOptions) FlattenFlags() flatten.Flags {
	flags := flatten.FlatNodes | flatten.FlatCaps
	if o.ResistorTee || o.Extresist {
		flags |= flatten.FlatResistors
	}
	if !o.Descend {
		flags |= flatten.NoFlatSubcircuit
	}
	return flags
}

// RenderOptions resolves Format/ResistorTee into a spice.RenderOptions.
func (o SpiceOptions) RenderOptions() (spice.RenderOptions, error) {
	flavor, err := o.Flavor()
	if err != nil {
		return spice.RenderOptions{}, err
	}
	return spice.RenderOptions{Flavor: flavor, TeeNetwork: o.ResistorTee}, nil
}

// FlatOptions resolves the full family set into a spice.Options for a
// flat (non-hierarchical) emission. scale is the already-computed
// ".option scale=" value (empty to suppress the line even when ScaleOn
// is set, e.g. because the root Def's own Scale record was trivial);
// resolving the Def's Scale record into that string is the caller's
// job since SpiceOptions has no access to a read Def.
func (o SpiceOptions) FlatOptions(name, scale string, subckt bool, ports []efmodel.NodeID) (spice.Options, error) {
	ro, err := o.RenderOptions()
	if err != nil {
		return spice.Options{}, err
	}
	s := ""
	if o.ScaleOn {
		s = scale
	}
	return spice.Options{
		RenderOptions: ro,
		Scale:         s,
		EmitGlobal:    o.Global,
		LVS:           o.LVS,
		Subckt:        subckt,
		Name:          name,
		Ports:         ports,
	}, nil
}

// HierOptions resolves the family set into a spice.HierOptions for a
// hierarchical emission.
func (o SpiceOptions) HierOptions(scale string) (spice.HierOptions, error) {
	ro, err := o.RenderOptions()
	if err != nil {
		return spice.HierOptions{}, err
	}
	s := ""
	if o.ScaleOn {
		s = scale
	}
	return spice.HierOptions{RenderOptions: ro, Scale: s}, nil
}

// FormatScale renders a Def's Scale record as the value half of a
// ".option scale=" line: lambda units per internal unit, the ratio
// SPICE's own scale option expects (§4.3's scale record is the inverse,
// internal units per lambda unit).
func FormatScale(s efmodel.Scale) string {
	if s.Internal == 0 {
		return ""
	}
	return fmt.Sprintf("%gu", float64(s.Lambda)/float64(s.Internal))
}

// SimOptions bundles "extract to sim [options]"'s option families.
type SimOptions struct {
	Alias  bool
	Labels bool
	Format string // MIT | SU | LBL
}

// DefaultSimOptions returns the conventional defaults.
func DefaultSimOptions() SimOptions {
	return SimOptions{Format: "MIT"}
}

// Resolve builds a sim.Options. scale/tech are the already-resolved
// header fields (from the root Def's Scale record and the reader's
// tech string); aliasW/nodesW are nil unless Alias/Labels requested
// the corresponding sidecar stream.
func (o SimOptions) Resolve(scale, tech string, aliasW, nodesW io.Writer) (sim.Options, error) {
	format, err := o.simFormat()
	if err != nil {
		return sim.Options{}, err
	}
	opts := sim.Options{Scale: scale, Tech: tech, Format: format}
	if o.Alias {
		opts.AliasWriter = aliasW
	}
	if o.Labels {
		opts.NodesWriter = nodesW
	}
	return opts, nil
}

func (o SimOptions) simFormat() (sim.Format, error) {
	switch o.Format {
	case "", "MIT":
		return sim.MIT, nil
	case "SU":
		return sim.SU, nil
	case "LBL":
		return sim.LBL, nil
	default:
		return "", fmt.Errorf("config: unknown sim format %q", o.Format)
	}
}
