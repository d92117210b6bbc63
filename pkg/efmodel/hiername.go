// Package efmodel defines the shared data model for the extraction
// flattener: interned hierarchical names, cell definitions and
// instances, electrical nodes, devices, and the parasitic records
// that connect them. Types here are plain values; the packages under
// internal/ own the pools, tables, and algorithms that operate on
// them.
package efmodel

// HierName is a handle into a hiername.Pool identifying one
// hierarchical path component together with its parent chain. The
// zero value, NilHierName, represents the top of a hierarchy (no
// parent).
//
// HierName is deliberately a small value type, not a pointer: pools
// intern by (parent, leaf) and hand back a stable index, so two
// HierNames compare equal with == iff they name the same interned
// path, without chasing a parent chain at comparison time.
type HierName int32

// NilHierName is the handle for "no name" / hierarchy root.
const NilHierName HierName = -1

// Valid reports whether h refers to a real interned name.
func (h HierName) Valid() bool { return h >= 0 }
