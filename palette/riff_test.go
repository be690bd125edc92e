package palette

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPALRoundtrip(t *testing.T) {
	pals := []Palette{
		{
			{R: 0, G: 0, B: 0},
			{R: 255, G: 255, B: 255},
			{R: 170, G: 85, B: 0},
		},
	}

	var buf bytes.Buffer
	n, err := WritePAL(&buf, pals)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	back, err := ReadPAL(&buf)
	require.NoError(t, err)
	assert.Equal(t, pals, back)
}

func TestPALRoundtripMultiplePalettes(t *testing.T) {
	pals := []Palette{
		{{R: 1, G: 2, B: 3}},
		{{R: 4, G: 5, B: 6}, {R: 7, G: 8, B: 9}},
	}

	var buf bytes.Buffer
	_, err := WritePAL(&buf, pals)
	require.NoError(t, err)

	back, err := ReadPAL(&buf)
	require.NoError(t, err)
	assert.Equal(t, pals, back)
}

func TestReadPALRejectsGarbage(t *testing.T) {
	_, err := ReadPAL(bytes.NewReader([]byte("definitely not riff")))
	assert.Error(t, err)
}

func TestReadPALRejectsWrongContentType(t *testing.T) {
	// A well-formed RIFF stream with a non-PAL form type.
	data := []byte("RIFF\x04\x00\x00\x00WAVE")
	_, err := ReadPAL(bytes.NewReader(data))
	assert.Error(t, err)
}
