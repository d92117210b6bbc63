package nodetable

import "errors"

// ErrNodeMissing is the NodeMissing kind of spec.md §7. No function in
// this module returns it: the reader reports an undeclared node as
// extreader.NodeMissingWarning, a Connection creates any node it
// names, and a Kill of an unknown name is skipped without a warning.
var ErrNodeMissing = errors.New("nodetable: node missing")
