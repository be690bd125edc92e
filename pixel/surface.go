// Package pixel renders a source image into pixel art: blocky
// pixelation, grayscale, and nearest-color palette remapping over a
// single mutable raster surface, with synchronous and offloaded
// pipeline variants sharing the same operation semantics.
package pixel

import (
	"image"

	"golang.org/x/image/draw"
)

// Surface is the render target: a mutable RGBA raster with an
// image-smoothing toggle. Exactly one pipeline stage owns it at a time.
type Surface struct {
	img       *image.NRGBA
	smoothing bool
}

// NewSurface creates a surface of the given size. Dimensions below 1
// are raised to 1; pipeline draws resize the surface anyway.
func NewSurface(width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Surface{
		img:       image.NewNRGBA(image.Rect(0, 0, width, height)),
		smoothing: true,
	}
}

func (s *Surface) Width() int  { return s.img.Rect.Dx() }
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Image exposes the backing raster. It is shared, not copied.
func (s *Surface) Image() *image.NRGBA { return s.img }

// Pix exposes the raw RGBA bytes in row-major order.
func (s *Surface) Pix() []uint8 { return s.img.Pix }

// SetSmoothing selects the interpolator used by Draw: smoothed
// (Catmull-Rom) when on, nearest-neighbor when off.
func (s *Surface) SetSmoothing(on bool) { s.smoothing = on }

func (s *Surface) Smoothing() bool { return s.smoothing }

// Resize reallocates the raster at the new size, discarding contents.
func (s *Surface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.img = image.NewNRGBA(image.Rect(0, 0, width, height))
}

// Draw scales src to cover the whole surface, replacing prior contents.
func (s *Surface) Draw(src image.Image) {
	s.scaler().Scale(s.img, s.img.Rect, src, src.Bounds(), draw.Src, nil)
}

func (s *Surface) scaler() draw.Interpolator {
	if s.smoothing {
		return draw.CatmullRom
	}
	return draw.NearestNeighbor
}

// TakePix moves the backing pixels out of the surface, returning them
// with the surface dimensions. The surface must not be read or drawn
// until AdoptPix hands a buffer back; used to transfer ownership across
// the worker boundary without copying.
func (s *Surface) TakePix() (pix []uint8, width, height int) {
	pix, width, height = s.img.Pix, s.Width(), s.Height()
	s.img.Pix = nil
	return pix, width, height
}

// AdoptPix installs pix as the surface contents at the given size.
func (s *Surface) AdoptPix(pix []uint8, width, height int) {
	s.img = &image.NRGBA{
		Pix:    pix,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
}
