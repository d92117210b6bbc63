package session

// Kind classifies one of the named non-fatal error/warning kinds of
// spec.md §7, as a bit in ErrorSummary.Kinds.
type Kind uint16

const (
	// KindNodeMissing is the NodeMissing kind: an attr or subcircuit
	// record named a node its .ext file never declared. A Connection
	// or Kill naming an undeclared node does not raise it.
	KindNodeMissing Kind = 1 << iota
	// KindParallelMergeConflict is the ParallelMergeConflict kind: a
	// parallel-merge pair disagreed on an explicit S/D attribute.
	KindParallelMergeConflict
	// KindGlobalSplit is the GlobalSplit kind: two independently
	// declared globals sharing a leaf name had to be merged.
	KindGlobalSplit
	// KindPortOptimizedOut is the PortOptimizedOut kind: a Def's
	// declared port did not survive flat-hash reconciliation.
	KindPortOptimizedOut
	// KindVerifyOpen is the VerifyOpen kind: a net's declared
	// terminal was never reached by connected paint.
	KindVerifyOpen
	// KindVerifyShort is the VerifyShort kind: connected paint
	// reached a label outside the net being checked.
	KindVerifyShort
	// KindSimDeviceFallback covers the .sim emitter's device-prefix
	// fallback (§4.8): a FET's device-type name didn't start with n
	// or p, so the line was rendered as an n-device anyway. Not one
	// of §7's ten named kinds, but it is the same
	// shape-of-non-fatal-warning and belongs in the same summary.
	KindSimDeviceFallback
)

// ErrorSummary accumulates non-fatal warnings encountered across one
// command's init→read→flatten→emit→teardown lifetime (§5's
// command-scoped resource lifetime): a total count plus a bitset of
// which kinds were seen, cheap to carry and to branch on when a CLI
// command decides its exit status.
type ErrorSummary struct {
	Count int
	Kinds Kind
}

// Has reports whether k was seen at least once.
func (s ErrorSummary) Has(k Kind) bool { return s.Kinds&k == k }

// Clean reports whether no warnings were recorded at all.
func (s ErrorSummary) Clean() bool { return s.Count == 0 }

func (s *ErrorSummary) record(k Kind) {
	s.Count++
	s.Kinds |= k
}
