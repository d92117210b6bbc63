package flatten

import "errors"

// ErrCycle is returned when a Def's Use graph contains a loop back to
// one of its own open ancestors; the original hierarchy is required to
// be acyclic and Flatten refuses to spin forever on a malformed one.
var ErrCycle = errors.New("flatten: cyclic Def hierarchy")

// ErrRangeMismatch is the malformed-Connection case of spec.md §4.5
// Pass B: a Connection's two name templates expand to incompatible
// element counts and neither side is a plain scalar.
var ErrRangeMismatch = errors.New("flatten: connection subscript ranges do not match")

// ErrGlobalSplit is reported when two global nets sharing the same
// "!"-suffixed leaf name were declared independently (each already
// carrying more than one alias) and had to be merged into one; this
// is non-fatal but means the two were almost certainly meant to be
// distinct nets.
var ErrGlobalSplit = errors.New("flatten: independently declared global nets merged")

// ErrPortOptimizedOut is reported when a child Def's declared port
// cannot be found in the parent's post-absorption flat table, most
// often because nothing at the child's own level ever connected that
// port to a device or another port. The call site falls back to
// node 0 rather than failing the emission.
var ErrPortOptimizedOut = errors.New("flatten: port optimized out of flattened network")
