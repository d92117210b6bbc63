package verify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseNetList reads the net-list file grammar of spec.md §6: one net
// per paragraph, blank lines separating nets, each non-blank line a
// terminal name (a '/'-separated path with an optional trailing '!'
// or '#').
func ParseNetList(r io.Reader) ([]Net, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var nets []Net
	var cur []string
	lineNo := 0

	flush := func() {
		if len(cur) > 0 {
			nets = append(nets, Net{Terminals: cur})
			cur = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("verify: read net list: %w", err)
	}
	flush()

	return nets, nil
}
