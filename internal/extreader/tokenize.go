package extreader

import "strings"

// tokenize splits one .ext record line into whitespace-separated
// fields, treating a double-quoted span (used by `attr`'s text field)
// as a single token with its quotes stripped. A `#` outside quotes
// starts a comment that runs to end of line (§6).
func tokenize(line string) []string {
	var toks []string
	var b strings.Builder
	inQuote := false
	flush := func() {
		if b.Len() > 0 {
			toks = append(toks, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == '#' && !inQuote:
			flush()
			return toks
		case (c == ' ' || c == '\t') && !inQuote:
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return toks
}
