package pixel

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/Abourass/pixels/colormath"
	"github.com/Abourass/pixels/palette"
)

// The pixel-heavy passes operate on raw RGBA buffers so the synchronous
// pipeline and the offloaded worker run exactly the same code.

// pixelateBuf scales the buffer down by scale with smoothing, then back
// to full size with nearest-neighbor interpolation, producing the
// blocky look. Returns a fresh buffer of the same dimensions.
func pixelateBuf(pix []uint8, width, height int, scale float64) []uint8 {
	src := &image.NRGBA{
		Pix:    pix,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}

	sw := int(math.Round(float64(width) * scale))
	sh := int(math.Round(float64(height) * scale))
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}

	small := image.NewNRGBA(image.Rect(0, 0, sw, sh))
	draw.CatmullRom.Scale(small, small.Rect, src, src.Rect, draw.Src, nil)

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(out, out.Rect, small, small.Rect, draw.Src, nil)
	return out.Pix
}

// grayscaleBuf replaces each pixel's RGB with the plain integer average
// (R+G+B)/3, in place. Alpha is untouched.
func grayscaleBuf(pix []uint8) {
	for i := 0; i+3 < len(pix); i += 4 {
		avg := uint8((int(pix[i]) + int(pix[i+1]) + int(pix[i+2])) / 3)
		pix[i], pix[i+1], pix[i+2] = avg, avg, avg
	}
}

// mapPaletteBuf replaces each pixel's RGB with the nearest palette
// color, in place. Alpha is untouched. When stats is non-nil every
// match is tallied under its "r,g,b" key; a nil stats map skips the
// bookkeeping path entirely.
func mapPaletteBuf(pix []uint8, pal palette.Palette, stats ColorStats) {
	if stats == nil {
		for i := 0; i+3 < len(pix); i += 4 {
			c := colormath.Nearest(colormath.RGB{R: pix[i], G: pix[i+1], B: pix[i+2]}, pal)
			pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
		}
		return
	}

	for i := 0; i+3 < len(pix); i += 4 {
		c := colormath.Nearest(colormath.RGB{R: pix[i], G: pix[i+1], B: pix[i+2]}, pal)
		pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
		Record(c.Key(), stats)
	}
}
