// Package spice implements the flat and hierarchical SPICE emitters
// of spec.md §4.7: per-flavor node name rendering, device-line
// rendering per class, area/perimeter visited-once bookkeeping, and
// si_value numeric formatting.
//
// Grounded on the teacher's printer package: a multi-format emitter
// selected by an enum (there, JSON/.reg/text; here, the four SPICE
// flavors) sharing one walk over the same in-memory model.
package spice

// Flavor selects the target SPICE dialect, which governs node-name
// rendering and little else — device-line shape is flavor
// independent except for HSPICE's additional name-shortening pass.
type Flavor uint8

const (
	SPICE2 Flavor = iota
	SPICE3
	HSPICE
	NGSPICE
)

// String renders the flavor's canonical option-file/CLI spelling.
func (f Flavor) String() string {
	switch f {
	case SPICE2:
		return "spice2"
	case SPICE3:
		return "spice3"
	case HSPICE:
		return "hspice"
	case NGSPICE:
		return "ngspice"
	default:
		return "unknown"
	}
}
