package defreg

import "errors"

// ErrNoSuchDef is the NoSuchDef kind of spec.md §7: a `use` record
// names a Def whose .ext file cannot be located along the search
// path. Aborts the read of the file that referenced it.
var ErrNoSuchDef = errors.New("defreg: no such def")

// ErrClassMismatch is the ClassMismatch kind of spec.md §7: a later
// .ext file's `resistclasses` count disagrees with one already
// recorded. Aborts the read of the offending file.
var ErrClassMismatch = errors.New("defreg: resistclasses mismatch")
