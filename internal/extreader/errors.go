package extreader

import "fmt"

// BadFileError is the BadFile kind of spec.md §7: a malformed .ext
// record. It reports enough to locate the problem without aborting
// the whole session — only the read of the offending file aborts.
type BadFileError struct {
	File   string
	Line   int
	Token  string
	Reason string
}

func (e *BadFileError) Error() string {
	return fmt.Sprintf("%s:%d: bad record near %q: %s", e.File, e.Line, e.Token, e.Reason)
}

func badFile(file string, line int, token, reason string) error {
	return &BadFileError{File: file, Line: line, Token: token, Reason: reason}
}
