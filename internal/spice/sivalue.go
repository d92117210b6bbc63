package spice

import (
	"math"
	"strconv"
)

// siTable is the fixed suffix table §4.7 specifies, checked in order
// so the first matching entry wins. The
// two "above" thresholds (>1e9, >1e3) are listed before the general
// case but after every "below" threshold, since the ranges are
// disjoint and order only matters for the two of them relative to
// each other (1e9 must be tried before 1e3).
var siTable = []struct {
	below  bool
	bound  float64
	scale  float64
	suffix string
}{
	{true, 1e-13, 1e15, "f"},
	{true, 1e-10, 1e12, "p"},
	{true, 1e-7, 1e9, "n"},
	{true, 1e-4, 1e6, "u"},
	{true, 1e-2, 1e3, "m"},
	{false, 1e9, 1e-9, "G"},
	{false, 1e3, 1e-3, "k"},
}

// SIValue formats x with the SI suffix table of §4.7 and the smallest
// significant-digit count (3 through 9) whose round trip through
// strconv.ParseFloat reproduces the scaled value to within 1e-6
// relative error.
func SIValue(x float64) string {
	if x == 0 {
		return "0"
	}
	sign := ""
	v := x
	if v < 0 {
		sign, v = "-", -v
	}

	scale, suffix := 1.0, ""
	for _, e := range siTable {
		if e.below && v < e.bound {
			scale, suffix = e.scale, e.suffix
			break
		}
		if !e.below && v > e.bound {
			scale, suffix = e.scale, e.suffix
			break
		}
	}
	scaled := v * scale

	var formatted string
	for prec := 3; prec <= 9; prec++ {
		s := strconv.FormatFloat(scaled, 'g', prec, 64)
		back, err := strconv.ParseFloat(s, 64)
		if err == nil && withinRelative(back, scaled, 1e-6) {
			formatted = s
			break
		}
		if prec == 9 {
			formatted = s
		}
	}
	return sign + formatted + suffix
}

func withinRelative(got, want, tol float64) bool {
	if want == 0 {
		return got == 0
	}
	return math.Abs(got-want)/math.Abs(want) <= tol
}
