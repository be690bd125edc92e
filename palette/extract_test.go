package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abourass/pixels/colormath"
)

// solidPixels builds a flat RGBA buffer of n pixels of one color.
func solidPixels(n int, c colormath.RGB, alpha uint8) []uint8 {
	pix := make([]uint8, 0, n*4)
	for i := 0; i < n; i++ {
		pix = append(pix, c.R, c.G, c.B, alpha)
	}
	return pix
}

func TestExtractSingleColor(t *testing.T) {
	c := colormath.RGB{R: 200, G: 100, B: 50}
	for _, n := range []int{1, 64, 50000} {
		pal := Extract(solidPixels(n, c, 255), 8)
		require.Len(t, pal, 1, "pixels=%d", n)
		assert.Equal(t, c, pal[0])
	}
}

func TestExtractNeverExceedsRequested(t *testing.T) {
	// A gradient with many distinct colors.
	pix := make([]uint8, 0, 256*4)
	for i := 0; i < 256; i++ {
		pix = append(pix, uint8(i), uint8(255-i), uint8(i/2), 255)
	}
	for _, n := range []int{1, 3, 10} {
		pal := Extract(pix, n)
		assert.LessOrEqual(t, len(pal), n)
	}
}

func TestExtractNoDuplicates(t *testing.T) {
	pix := make([]uint8, 0, 1024*4)
	for i := 0; i < 1024; i++ {
		pix = append(pix, uint8(i%256), uint8((i*7)%256), uint8((i*13)%256), 255)
	}
	pal := Extract(pix, 16)
	seen := map[colormath.RGB]bool{}
	for _, c := range pal {
		assert.False(t, seen[c], "duplicate color %v", c)
		seen[c] = true
	}
}

func TestExtractSkipsTransparentPixels(t *testing.T) {
	opaque := solidPixels(32, colormath.RGB{R: 10, G: 20, B: 30}, 255)
	transparent := solidPixels(32, colormath.RGB{R: 250, G: 0, B: 0}, 127)
	pal := Extract(append(opaque, transparent...), 4)
	require.Len(t, pal, 1)
	assert.Equal(t, colormath.RGB{R: 10, G: 20, B: 30}, pal[0])
}

func TestExtractBackfillsSimilarColors(t *testing.T) {
	// Two colors closer than the dedup threshold: the runner-up is held
	// back first, then backfilled when the request leaves room.
	a := colormath.RGB{R: 10, G: 10, B: 10}
	b := colormath.RGB{R: 20, G: 20, B: 20}
	pix := append(solidPixels(48, a, 255), solidPixels(16, b, 255)...)

	pal := Extract(pix, 1)
	require.Len(t, pal, 1)
	assert.Equal(t, a, pal[0], "more frequent color selected first")

	pal = Extract(pix, 2)
	require.Len(t, pal, 2)
	assert.Equal(t, Palette{a, b}, pal)
}

func TestExtractFrequencyOrder(t *testing.T) {
	// Three well-separated colors with distinct frequencies.
	most := colormath.RGB{R: 250, G: 0, B: 0}
	mid := colormath.RGB{R: 0, G: 250, B: 0}
	least := colormath.RGB{R: 0, G: 0, B: 250}
	pix := append(solidPixels(60, most, 255), solidPixels(30, mid, 255)...)
	pix = append(pix, solidPixels(10, least, 255)...)

	pal := Extract(pix, 3)
	require.Len(t, pal, 3)
	assert.Equal(t, Palette{most, mid, least}, pal)
}

func TestExtractEmptyInputs(t *testing.T) {
	assert.Nil(t, Extract(nil, 4))
	assert.Nil(t, Extract(solidPixels(16, colormath.RGB{}, 255), 0))
	assert.Nil(t, Extract(solidPixels(16, colormath.RGB{R: 9}, 0), 4), "all transparent")
}

func TestQuantizeRoundsToStep(t *testing.T) {
	assert.Equal(t, uint8(0), quantize(3))
	assert.Equal(t, uint8(8), quantize(4))
	assert.Equal(t, uint8(48), quantize(50))
	assert.Equal(t, uint8(255), quantize(253), "clamped at the top")
}

func TestFoldMeanIncremental(t *testing.T) {
	mean := colormath.RGB{}
	mean = foldMean(mean, 0, colormath.RGB{R: 10})
	mean = foldMean(mean, 1, colormath.RGB{R: 20})
	assert.Equal(t, uint8(15), mean.R)
	mean = foldMean(mean, 2, colormath.RGB{R: 15})
	assert.Equal(t, uint8(15), mean.R)
}
