package verify

import "errors"

var (
	// ErrOpen indicates a net's declared terminal was never reached by
	// connected paint.
	ErrOpen = errors.New("verify: net not fully connected")

	// ErrShort indicates connected paint reached a label belonging to
	// a name outside the net being checked.
	ErrShort = errors.New("verify: net shorted to another net")
)

// Err returns ErrOpen/ErrShort/nil classifying r, for callers that
// want a single error value rather than the Result struct's fields
// (e.g. to use with errors.Is in a CLI exit-code mapping).
func (r Result) Err() error {
	switch {
	case r.Open:
		return ErrOpen
	case r.Shorted:
		return ErrShort
	default:
		return nil
	}
}
