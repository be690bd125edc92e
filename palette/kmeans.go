package palette

import (
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/Abourass/pixels/colormath"
)

// ExtractKMeans clusters a subsample of the image in RGB unit space and
// returns up to k cluster centers, ordered by cluster population so the
// dominant tones come first. Slower than Extract but usually yields a
// smoother palette on photographic input.
func ExtractKMeans(img image.Image, k int) (Palette, error) {
	if k < 1 {
		return nil, fmt.Errorf("invalid palette size: %d", k)
	}

	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return nil, fmt.Errorf("empty image")
	}

	step := 1
	if total > maxSamples {
		step = int(math.Sqrt(float64(total)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(total, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < alphaOpaque<<8 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(bl) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil, fmt.Errorf("no opaque pixels to cluster")
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, min(k, len(dataset)))
	if err != nil {
		return nil, fmt.Errorf("could not cluster colors: %w", err)
	}

	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	pal := make(Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		rgb := colormath.New(
			int(math.Round(col.R*255)),
			int(math.Round(col.G*255)),
			int(math.Round(col.B*255)),
		)
		if pal.Contains(rgb) {
			continue
		}
		pal = append(pal, rgb)
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("clustering produced no colors")
	}
	return pal, nil
}

// ExtractDominant returns up to k dominant colors, strongest first,
// with exact duplicates dropped.
func ExtractDominant(img image.Image, k int) Palette {
	if k < 1 {
		return nil
	}

	pal := make(Palette, 0, k)
	for _, c := range dominantcolor.FindWeight(img, k) {
		rgb := colormath.FromColor(c.RGBA)
		if pal.Contains(rgb) {
			continue
		}
		pal = append(pal, rgb)
		if len(pal) == k {
			break
		}
	}
	return pal
}
