package verify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtimothyedwards/extflat/internal/verify"
)

func TestParseNetListSplitsParagraphsOnBlankLines(t *testing.T) {
	src := "a/in\nb/in\n\nVdd!\na/Vdd!\nb/Vdd!\n\n\nout#\n"

	nets, err := verify.ParseNetList(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, nets, 3)

	assert.Equal(t, []string{"a/in", "b/in"}, nets[0].Terminals)
	assert.Equal(t, "a/in", nets[0].Name())
	assert.Equal(t, []string{"Vdd!", "a/Vdd!", "b/Vdd!"}, nets[1].Terminals)
	assert.Equal(t, []string{"out#"}, nets[2].Terminals)
}

func TestParseNetListEmptyInputYieldsNoNets(t *testing.T) {
	nets, err := verify.ParseNetList(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, nets)
}
