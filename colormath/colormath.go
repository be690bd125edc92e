// Package colormath provides the color distance metric and nearest-color
// search the rest of the module is built on.
package colormath

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
)

// RGB is an opaque 8-bit color. Alpha is carried in raster buffers but
// never takes part in matching or quantization.
type RGB struct {
	R, G, B uint8
}

// New clamps each channel to [0,255] and returns the resulting color.
func New(r, g, b int) RGB {
	return RGB{clamp8(r), clamp8(g), clamp8(b)}
}

// FromColor reduces any color.Color to its 8-bit RGB components,
// discarding alpha.
func FromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

// Key returns the canonical "r,g,b" form used as a stats map key.
// Downstream consumers parse this, so the format is load-bearing.
func (c RGB) Key() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// RGBA implements color.Color.
func (c RGB) RGBA() (uint32, uint32, uint32, uint32) {
	r := uint32(c.R)
	r |= r << 8
	g := uint32(c.G)
	g |= g << 8
	b := uint32(c.B)
	b |= b << 8
	return r, g, b, 0xFFFF
}

// MarshalJSON encodes the color as a bare [r,g,b] triple.
func (c RGB) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "[%d,%d,%d]", c.R, c.G, c.B), nil
}

func (c *RGB) UnmarshalJSON(data []byte) error {
	var v [3]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid color triple: %w", err)
	}
	for _, ch := range v {
		if ch < 0 || ch > 255 {
			return fmt.Errorf("color channel out of range: %d", ch)
		}
	}
	*c = RGB{uint8(v[0]), uint8(v[1]), uint8(v[2])}
	return nil
}

// Distance is the Euclidean distance between two colors in RGB space.
// Lower means more similar. Symmetric, zero iff the colors are equal.
func Distance(a, b RGB) float64 {
	return math.Sqrt(distSq(a, b))
}

// Nearest returns the palette entry closest to c. Ties go to the last
// equally-close entry in palette order; keep it that way, output
// reproducibility depends on it. An empty palette yields the zero RGB;
// callers are expected to guarantee non-emptiness.
func Nearest(c RGB, palette []RGB) RGB {
	if len(palette) == 0 {
		return RGB{}
	}

	best, bestSum := palette[0], distSq(c, palette[0])
	if bestSum == 0 {
		return best
	}
	for _, v := range palette[1:] {
		sum := distSq(c, v)
		if sum <= bestSum {
			if sum == 0 {
				return v
			}
			best, bestSum = v, sum
		}
	}
	return best
}

func distSq(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return dr*dr + dg*dg + db*db
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
