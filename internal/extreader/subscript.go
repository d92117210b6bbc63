package extreader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// parseConnName splits a `merge`/`cap`/`resist` name token into its
// base template and zero or more `[lo:hi]` subscript ranges (§4.3,
// §4.5 Pass B). "bus[0:3]" becomes template "bus%d" with one range
// {0,3}; a name with no brackets is returned as a scalar ConnName
// (Ranges == nil).
func parseConnName(tok string) (efmodel.ConnName, error) {
	var ranges []efmodel.SubRange
	base := tok
	for {
		open := strings.IndexByte(base, '[')
		if open < 0 {
			break
		}
		close := strings.IndexByte(base[open:], ']')
		if close < 0 {
			return efmodel.ConnName{}, fmt.Errorf("extreader: unterminated subscript in %q", tok)
		}
		close += open
		lo, hi, _, err := parseRangeSpec(base[open+1 : close])
		if err != nil {
			return efmodel.ConnName{}, fmt.Errorf("extreader: %q: %w", tok, err)
		}
		ranges = append(ranges, efmodel.SubRange{Lo: lo, Hi: hi})
		base = base[:open] + "%d" + base[close+1:]
	}
	return efmodel.ConnName{Template: base, Ranges: ranges}, nil
}

// parseRangeSpec parses one "lo:hi" or "lo:hi:sep" subscript body.
func parseRangeSpec(spec string) (lo, hi, sep int32, err error) {
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 1:
		v, e := strconv.Atoi(parts[0])
		if e != nil {
			return 0, 0, 0, fmt.Errorf("invalid subscript %q", spec)
		}
		return int32(v), int32(v), 0, nil
	case 2, 3:
		lov, e1 := strconv.Atoi(parts[0])
		hiv, e2 := strconv.Atoi(parts[1])
		if e1 != nil || e2 != nil {
			return 0, 0, 0, fmt.Errorf("invalid subscript %q", spec)
		}
		sepv := 0
		if len(parts) == 3 {
			s, e3 := strconv.Atoi(parts[2])
			if e3 != nil {
				return 0, 0, 0, fmt.Errorf("invalid subscript %q", spec)
			}
			sepv = s
		}
		return int32(lov), int32(hiv), int32(sepv), nil
	default:
		return 0, 0, 0, fmt.Errorf("invalid subscript %q", spec)
	}
}

// parseUseArrays parses the trailing "[xlo:xhi:xsep][ylo:yhi:ysep]"
// array suffix off a `use` record's ID field (§3 Use, §4.3). An ID
// with no suffix yields two non-array ranges.
func parseUseArrays(id string) (name string, x, y efmodel.ArrayRange, err error) {
	name = id
	var specs []string
	for {
		open := strings.IndexByte(name, '[')
		if open < 0 {
			break
		}
		close := strings.IndexByte(name[open:], ']')
		if close < 0 {
			return "", efmodel.ArrayRange{}, efmodel.ArrayRange{}, fmt.Errorf("extreader: unterminated array subscript in %q", id)
		}
		close += open
		specs = append(specs, name[open+1:close])
		name = name[:open] + name[close+1:]
	}
	x = efmodel.ArrayRange{}
	y = efmodel.ArrayRange{}
	if len(specs) >= 1 {
		lo, hi, sep, e := parseRangeSpec(specs[0])
		if e != nil {
			return "", x, y, e
		}
		x = efmodel.ArrayRange{Lo: lo, Hi: hi, Sep: sep}
	} else {
		x = efmodel.ArrayRange{Lo: 0, Hi: 0, Sep: 0}
	}
	if len(specs) >= 2 {
		lo, hi, sep, e := parseRangeSpec(specs[1])
		if e != nil {
			return "", x, y, e
		}
		y = efmodel.ArrayRange{Lo: lo, Hi: hi, Sep: sep}
	} else {
		y = efmodel.ArrayRange{Lo: 0, Hi: 0, Sep: 0}
	}
	return name, x, y, nil
}
