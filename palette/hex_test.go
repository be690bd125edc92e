package palette

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abourass/pixels/colormath"
)

func TestParseHexForms(t *testing.T) {
	input := strings.Join([]string{
		"#ffaa00",
		"00ff7f",
		"#fa0",
	}, "\n")

	pal, err := ParseHex(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Palette{
		{R: 0xFF, G: 0xAA, B: 0x00},
		{R: 0x00, G: 0xFF, B: 0x7F},
		{R: 0xFF, G: 0xAA, B: 0x00},
	}, pal)
}

func TestParseHexSkipsCommentsAndBlanks(t *testing.T) {
	input := strings.Join([]string{
		"#!/usr/bin/env cat",
		"",
		"// a comment",
		"/* another one",
		"  #010203  ",
		"",
	}, "\n")

	pal, err := ParseHex(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, pal, 1)
	assert.Equal(t, colormath.RGB{R: 1, G: 2, B: 3}, pal[0])
}

func TestParseHexPreservesFileOrder(t *testing.T) {
	pal, err := ParseHex(strings.NewReader("#000000\n#ffffff\n#808080\n"))
	require.NoError(t, err)
	assert.Equal(t, Palette{
		{},
		{R: 255, G: 255, B: 255},
		{R: 128, G: 128, B: 128},
	}, pal)
}

func TestParseHexRejectsEmptyFile(t *testing.T) {
	_, err := ParseHex(strings.NewReader("// nothing here\n\n"))
	assert.Error(t, err)
}

func TestParseHexRejectsMalformedLine(t *testing.T) {
	_, err := ParseHex(strings.NewReader("#ffaa00\nnot-a-color\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseHexColorInvalidLengths(t *testing.T) {
	for _, s := range []string{"", "#ff", "#ffaa0", "#ffaa0000"} {
		_, err := ParseHexColor(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestWriteHexRoundtrip(t *testing.T) {
	pal := Palette{
		{R: 255, G: 170, B: 0},
		{R: 1, G: 2, B: 3},
	}

	var sb strings.Builder
	require.NoError(t, WriteHex(&sb, pal))
	assert.Equal(t, "#ffaa00\n#010203\n", sb.String())

	back, err := ParseHex(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, pal, back)
}
