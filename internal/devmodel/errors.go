package devmodel

import "errors"

// ErrParallelMergeConflict is reported once per merged pair when one
// side of a parallel-merge candidate carries an explicit S/D terminal
// attribute the other lacks (§4.6). The merge still proceeds, using
// whichever side's attribute is the more specific (explicit) one.
var ErrParallelMergeConflict = errors.New("devmodel: source/drain attribute conflict on parallel merge")
