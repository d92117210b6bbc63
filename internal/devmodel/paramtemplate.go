package devmodel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// ErrBadTemplate is returned when a template that otherwise matched
// the recognized grammar evaluates to an invalid expression (e.g. a
// terminal index past the device's terminal count).
var ErrBadTemplate = errors.New("devmodel: malformed parameter template")

// variable is one recognized type-letter substitution, optionally
// qualified by a terminal index (§4.6: "a small grammar of
// type-letters (a,p,l,w,s,x,y,r,c) with an optional digit suffix
// identifying a terminal").
type variable struct {
	letter byte
	term   int // -1 when no digit suffix was given
}

func (v variable) resolve(d efmodel.Dev) (float64, error) {
	switch v.letter {
	case 'a':
		if v.term < 0 {
			return d.Area, nil
		}
		return termAreaPerim(d, v.term, true)
	case 'p':
		if v.term < 0 {
			return d.Perim, nil
		}
		return termAreaPerim(d, v.term, false)
	case 'l':
		if v.term < 0 {
			return d.Length, nil
		}
		return termLength(d, v.term)
	case 'w':
		return d.Width, nil
	case 's':
		if d.Substrate != efmodel.NilNodeID {
			return 1, nil
		}
		return 0, nil
	case 'x':
		if v.term == 1 {
			return float64(d.Loc.X1), nil
		}
		return float64(d.Loc.X0), nil
	case 'y':
		if v.term == 1 {
			return float64(d.Loc.Y1), nil
		}
		return float64(d.Loc.Y0), nil
	case 'r':
		return d.Resistance, nil
	case 'c':
		return d.Capacitance, nil
	default:
		return 0, fmt.Errorf("%w: unknown variable %q", ErrBadTemplate, string(v.letter))
	}
}

func termAreaPerim(d efmodel.Dev, term int, area bool) (float64, error) {
	if term < 0 || term >= len(d.Terms) {
		return 0, fmt.Errorf("%w: terminal %d out of range", ErrBadTemplate, term)
	}
	t := d.Terms[term]
	if !t.HasAreaPerim {
		return 0, nil
	}
	if area {
		return t.AreaPerim.Area, nil
	}
	return t.AreaPerim.Perim, nil
}

func termLength(d efmodel.Dev, term int) (float64, error) {
	if term < 0 || term >= len(d.Terms) {
		return 0, fmt.Errorf("%w: terminal %d out of range", ErrBadTemplate, term)
	}
	return d.Terms[term].Length, nil
}

const grammarLetters = "aplwsxyrc"

// EvalTemplate evaluates tpl against d. If tpl contains no recognized
// type-letter token at all, it is not an expression in this grammar
// and is returned unchanged with ok == false — the caller emits it
// verbatim (§4.6: "unknown templates are emitted verbatim"). Otherwise
// every recognized token is substituted with its numeric value and
// the resulting arithmetic expression (+, -, *, /, parens, float
// literals) is evaluated.
func EvalTemplate(tpl string, d efmodel.Dev) (value float64, ok bool, err error) {
	substituted, matched, err := substituteVariables(tpl, d)
	if err != nil {
		return 0, false, err
	}
	if !matched {
		return 0, false, nil
	}
	v, err := evalArith(substituted)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q: %v", ErrBadTemplate, tpl, err)
	}
	return v, true, nil
}

func substituteVariables(tpl string, d efmodel.Dev) (string, bool, error) {
	var b strings.Builder
	matched := false
	i := 0
	for i < len(tpl) {
		c := tpl[i]
		if isIdentChar(c) && strings.IndexByte(grammarLetters, c) >= 0 && !precededByIdent(tpl, i) {
			j := i + 1
			for j < len(tpl) && tpl[j] >= '0' && tpl[j] <= '9' {
				j++
			}
			term := -1
			if j > i+1 {
				n, _ := strconv.Atoi(tpl[i+1 : j])
				term = n
			}
			val, err := variable{letter: c, term: term}.resolve(d)
			if err != nil {
				return "", false, err
			}
			fmt.Fprintf(&b, "%g", val)
			matched = true
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), matched, nil
}

// precededByIdent prevents matching a grammar letter in the middle of
// a longer identifier (e.g. the "w" in a bare model name "nmos_w").
func precededByIdent(s string, i int) bool {
	if i == 0 {
		return false
	}
	c := s[i-1]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z'
}
