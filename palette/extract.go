package palette

import (
	"image"
	"image/draw"
	"math"
	"sort"

	"github.com/Abourass/pixels/colormath"
)

const (
	// At most this many pixels are examined per extraction; larger
	// images are sampled at a stride.
	maxSamples = 10000
	// Channels are quantized to the nearest multiple of this step so
	// near-identical colors share a bucket.
	quantStep = 8
	// Candidates closer than this to an already-selected color are
	// held back for the backfill pass.
	dedupeDistance = 25.0
	// Pixels with alpha below this are treated as fully transparent.
	alphaOpaque = 128
)

// Extract builds a representative palette of at most numColors colors
// from a flat RGBA byte buffer. Transparent pixels are skipped, opaque
// pixels are grouped into quantized buckets carrying a running mean and
// a hit count, and buckets are selected by frequency with near-identical
// colors deduplicated. The result never pads with synthetic colors: it
// holds min(numColors, distinct surviving colors) entries.
func Extract(pixels []uint8, numColors int) Palette {
	if numColors < 1 || len(pixels) < 4 {
		return nil
	}

	type bucket struct {
		mean colormath.RGB
		hits int
	}
	buckets := make(map[colormath.RGB]*bucket)
	var order []colormath.RGB // first-seen order, keeps frequency ties stable

	total := len(pixels) / 4
	stride := total / maxSamples
	if stride < 1 {
		stride = 1
	}

	for i := 0; i < total; i += stride {
		off := i * 4
		if pixels[off+3] < alphaOpaque {
			continue
		}

		key := colormath.RGB{
			R: quantize(pixels[off]),
			G: quantize(pixels[off+1]),
			B: quantize(pixels[off+2]),
		}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.mean = foldMean(b.mean, b.hits, colormath.RGB{R: pixels[off], G: pixels[off+1], B: pixels[off+2]})
		b.hits++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return buckets[order[i]].hits > buckets[order[j]].hits
	})

	result := make(Palette, 0, numColors)
	var skipped []colormath.RGB
	for _, key := range order {
		c := buckets[key].mean
		if tooSimilar(result, c) {
			skipped = append(skipped, c)
			continue
		}
		result = append(result, c)
		if len(result) == numColors {
			return result
		}
	}

	// Backfill from the held-back buckets, still in frequency order,
	// skipping only exact duplicates.
	for _, c := range skipped {
		if result.Contains(c) {
			continue
		}
		result = append(result, c)
		if len(result) == numColors {
			break
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// ExtractImage is Extract over a decoded image.
func ExtractImage(img image.Image, numColors int) Palette {
	return Extract(rgbaPixels(img), numColors)
}

func quantize(v uint8) uint8 {
	q := (int(v) + quantStep/2) / quantStep * quantStep
	if q > 255 {
		q = 255
	}
	return uint8(q)
}

// foldMean folds one more sample into a running per-channel mean that
// has already absorbed n samples, rounding at every step.
func foldMean(mean colormath.RGB, n int, c colormath.RGB) colormath.RGB {
	if n == 0 {
		return c
	}
	fold := func(old, v uint8) uint8 {
		return uint8(math.Round((float64(old)*float64(n) + float64(v)) / float64(n+1)))
	}
	return colormath.RGB{
		R: fold(mean.R, c.R),
		G: fold(mean.G, c.G),
		B: fold(mean.B, c.B),
	}
}

func tooSimilar(selected Palette, c colormath.RGB) bool {
	for _, s := range selected {
		if colormath.Distance(s, c) < dedupeDistance {
			return true
		}
	}
	return false
}

// rgbaPixels flattens an image into the RGBA byte layout Extract wants.
func rgbaPixels(img image.Image) []uint8 {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == 4*nrgba.Rect.Dx() {
		return nrgba.Pix
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}
