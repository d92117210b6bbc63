package spice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rtimothyedwards/extflat/internal/spice"
)

func TestSIValueFormatsAcrossThresholds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1500, "1.5k"},
		{-1500, "-1.5k"},
		{2.5e-15, "2.5f"},
		{1e-12, "1p"},
		{3e-9, "3n"},
		{4.7e-6, "4.7u"},
		{1e-3, "1m"},
		{2.5e9, "2.5G"},
		{5, "5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, spice.SIValue(c.in), "SIValue(%v)", c.in)
	}
}
