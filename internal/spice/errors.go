package spice

import "errors"

// ErrNamesTooLong is returned by the HSPICE node namer when a node's
// rendered name still exceeds the 15-character limit after both the
// subckt-prefix shortening pass and the z@<K> fallback (§4.7).
var ErrNamesTooLong = errors.New("spice: node name too long for hspice even after shortening")
