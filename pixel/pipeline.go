package pixel

import (
	"image"
	"log/slog"
	"math"

	"github.com/Abourass/pixels/colormath"
	"github.com/Abourass/pixels/palette"
)

// DefaultScale is the user-facing scale applied when none is configured.
const DefaultScale = 8

// Config seeds a new pipeline. Every field is optional; setters can
// supply or change everything later.
type Config struct {
	Source  image.Image
	Surface *Surface
	// Scale is the user-facing block scale in [1,50]. Zero keeps the
	// default.
	Scale        int
	Palette      palette.Palette
	MaxWidth     int
	MaxHeight    int
	CollectStats bool
	Logger       *slog.Logger
}

// Pipeline renders a source image into pixel art on a single surface.
// All mutating methods return the pipeline for chaining. Configuration
// errors (missing source or surface, out-of-range numbers) are logged
// and leave state unchanged; nothing panics across this boundary. A
// pipeline is not safe for concurrent use; the offloaded variant covers
// that case.
type Pipeline struct {
	logger *slog.Logger

	src     image.Image
	surface *Surface
	drawn   bool

	// scale is the stored factor, always in (0, 0.5].
	scale     float64
	maxWidth  int
	maxHeight int

	palettes  []palette.Palette // never empty
	activeIdx int
	active    palette.Palette

	collectStats bool
	stats        ColorStats
}

// New creates a pipeline seeded with the default palette as its only
// available palette.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		logger:       logger,
		src:          cfg.Source,
		surface:      cfg.Surface,
		scale:        float64(DefaultScale) / 100,
		palettes:     []palette.Palette{palette.Default()},
		collectStats: cfg.CollectStats,
		stats:        ColorStats{},
	}
	p.active = p.palettes[0]

	if cfg.Scale != 0 {
		p.SetScale(cfg.Scale)
	}
	if len(cfg.Palette) > 0 {
		p.SetPalette(cfg.Palette)
	}
	if cfg.MaxWidth != 0 {
		p.SetMaxWidth(cfg.MaxWidth)
	}
	if cfg.MaxHeight != 0 {
		p.SetMaxHeight(cfg.MaxHeight)
	}

	return p
}

// SetScale accepts a block scale in [1,50], stored as scale/100.
// Out-of-range values keep the previous scale.
func (p *Pipeline) SetScale(scale int) *Pipeline {
	if scale < 1 || scale > 50 {
		p.logger.Warn("scale out of range, keeping previous", "scale", scale)
		return p
	}
	p.scale = float64(scale) / 100
	return p
}

// SetMaxWidth caps the output width for ResizeImage. Non-positive
// values keep the previous cap.
func (p *Pipeline) SetMaxWidth(width int) *Pipeline {
	if width < 1 {
		p.logger.Warn("invalid max width, keeping previous", "width", width)
		return p
	}
	p.maxWidth = width
	return p
}

// SetMaxHeight caps the output height for ResizeImage. Non-positive
// values keep the previous cap.
func (p *Pipeline) SetMaxHeight(height int) *Pipeline {
	if height < 1 {
		p.logger.Warn("invalid max height, keeping previous", "height", height)
		return p
	}
	p.maxHeight = height
	return p
}

// SetPalette makes pal the active palette without registering it in the
// available list. Empty palettes are ignored.
func (p *Pipeline) SetPalette(pal palette.Palette) *Pipeline {
	if len(pal) == 0 {
		p.logger.Warn("ignoring empty palette")
		return p
	}
	p.active = pal
	return p
}

// SetPaletteByIndex activates one of the available palettes. An
// out-of-range index is a no-op.
func (p *Pipeline) SetPaletteByIndex(i int) *Pipeline {
	if i < 0 || i >= len(p.palettes) {
		return p
	}
	p.activeIdx = i
	p.active = p.palettes[i]
	return p
}

// AddPalette appends pal to the available palettes without changing the
// active one.
func (p *Pipeline) AddPalette(pal palette.Palette) *Pipeline {
	if len(pal) == 0 {
		p.logger.Warn("ignoring empty palette")
		return p
	}
	p.palettes = append(p.palettes, pal)
	return p
}

// SetSource replaces the source image.
func (p *Pipeline) SetSource(img image.Image) *Pipeline {
	if img == nil {
		p.logger.Warn("ignoring nil source image")
		return p
	}
	p.src = img
	return p
}

// SetSurface replaces the render target.
func (p *Pipeline) SetSurface(s *Surface) *Pipeline {
	if s == nil {
		p.logger.Warn("ignoring nil surface")
		return p
	}
	p.surface = s
	return p
}

// SetCollectStats toggles per-pixel color tallying during palette
// conversion. Disabling skips the bookkeeping entirely.
func (p *Pipeline) SetCollectStats(on bool) *Pipeline {
	p.collectStats = on
	return p
}

func (p *Pipeline) Scale() float64                       { return p.scale }
func (p *Pipeline) MaxWidth() int                        { return p.maxWidth }
func (p *Pipeline) MaxHeight() int                       { return p.maxHeight }
func (p *Pipeline) Palette() palette.Palette             { return p.active }
func (p *Pipeline) AvailablePalettes() []palette.Palette { return p.palettes }
func (p *Pipeline) ColorStats() ColorStats               { return p.stats }
func (p *Pipeline) Source() image.Image                  { return p.src }
func (p *Pipeline) Surface() *Surface                    { return p.surface }

// SimilarColor returns the active-palette color nearest to c.
func (p *Pipeline) SimilarColor(c colormath.RGB) colormath.RGB {
	return colormath.Nearest(c, p.active)
}

// ColorSim scores how similar two colors are; lower is closer.
func (p *Pipeline) ColorSim(a, b colormath.RGB) float64 {
	return colormath.Distance(a, b)
}

// Draw copies the source image onto the surface at the source's natural
// dimensions, replacing any prior contents.
func (p *Pipeline) Draw() *Pipeline {
	if !p.configured("draw") {
		return p
	}

	b := p.src.Bounds()
	p.surface.Resize(b.Dx(), b.Dy())
	p.surface.SetSmoothing(true)
	p.surface.Draw(p.src)
	p.drawn = true
	return p
}

// ResizeImage redraws the source constrained by the configured maximum
// width and height, preserving aspect ratio. The width constraint
// applies first, then the height constraint to the result, so an image
// that still overflows vertically is rescaled a second time and can end
// up narrower than the width cap. This sequential behavior is
// observable and kept on purpose.
func (p *Pipeline) ResizeImage() *Pipeline {
	if !p.configured("resize") {
		return p
	}

	b := p.src.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())

	if p.maxWidth > 0 && w > float64(p.maxWidth) {
		ratio := float64(p.maxWidth) / w
		w = float64(p.maxWidth)
		h = math.Round(h * ratio)
	}
	if p.maxHeight > 0 && h > float64(p.maxHeight) {
		ratio := float64(p.maxHeight) / h
		h = float64(p.maxHeight)
		w = math.Round(w * ratio)
	}

	p.surface.Resize(int(w), int(h))
	p.surface.SetSmoothing(true)
	p.surface.Draw(p.src)
	p.drawn = true
	return p
}

// Pixelate redraws the surface through a scaled-down intermediate,
// producing blocks of roughly round(1/scale) pixels.
func (p *Pipeline) Pixelate() *Pipeline {
	if !p.hasBuffer("pixelate") {
		return p
	}

	pix, w, h := p.surface.TakePix()
	p.surface.AdoptPix(pixelateBuf(pix, w, h, p.scale), w, h)
	return p
}

// ConvertGrayscale averages each pixel's RGB channels in place.
func (p *Pipeline) ConvertGrayscale() *Pipeline {
	if !p.hasBuffer("grayscale") {
		return p
	}

	grayscaleBuf(p.surface.Pix())
	return p
}

// ConvertPalette remaps every pixel to the nearest active-palette
// color. When stats collection is enabled, the previous stats are
// replaced wholesale by this pass's tallies.
func (p *Pipeline) ConvertPalette() *Pipeline {
	if !p.hasBuffer("palette") {
		return p
	}
	if len(p.active) == 0 {
		p.logger.Error("no active palette, skipping conversion")
		return p
	}

	var stats ColorStats
	if p.collectStats {
		stats = ColorStats{}
	}
	mapPaletteBuf(p.surface.Pix(), p.active, stats)
	if p.collectStats {
		p.stats = stats
	}
	return p
}

// EffectOptions batches configuration and execution for ApplyEffects.
// Zero values leave the corresponding setting unchanged.
type EffectOptions struct {
	Scale        int
	Palette      palette.Palette
	PaletteIndex *int
	Grayscale    bool
	ApplyPalette bool
	MaxWidth     int
	MaxHeight    int
}

// sizeConstrained reports whether this call supplies a size cap, which
// is what triggers the trailing resize.
func (o EffectOptions) sizeConstrained() bool {
	return o.MaxWidth > 0 || o.MaxHeight > 0
}

// ApplyEffects applies the supplied configuration, then runs draw and
// pixelate, then the optional grayscale and palette passes, then a
// resize if this call supplied a size constraint. The order is fixed.
func (p *Pipeline) ApplyEffects(o EffectOptions) *Pipeline {
	if o.Scale != 0 {
		p.SetScale(o.Scale)
	}
	if len(o.Palette) > 0 {
		p.SetPalette(o.Palette)
	}
	if o.PaletteIndex != nil {
		p.SetPaletteByIndex(*o.PaletteIndex)
	}
	if o.MaxWidth > 0 {
		p.SetMaxWidth(o.MaxWidth)
	}
	if o.MaxHeight > 0 {
		p.SetMaxHeight(o.MaxHeight)
	}

	p.Draw().Pixelate()
	if o.Grayscale {
		p.ConvertGrayscale()
	}
	if o.ApplyPalette {
		p.ConvertPalette()
	}
	if o.sizeConstrained() {
		p.ResizeImage()
	}
	return p
}

func (p *Pipeline) configured(op string) bool {
	if p.src == nil {
		p.logger.Error("no source image configured", "op", op)
		return false
	}
	if p.surface == nil {
		p.logger.Error("no render surface configured", "op", op)
		return false
	}
	return true
}

func (p *Pipeline) hasBuffer(op string) bool {
	if p.surface == nil {
		p.logger.Error("no render surface configured", "op", op)
		return false
	}
	if !p.drawn {
		p.logger.Error("no image drawn yet", "op", op)
		return false
	}
	return true
}
