package pixel

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abourass/pixels/colormath"
	"github.com/Abourass/pixels/palette"
)

func testOffloaded(t *testing.T, cfg Config) *OffloadedPipeline {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	o := NewOffloaded(cfg)
	t.Cleanup(o.Close)
	return o
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("offloaded operation did not complete")
		return nil
	}
}

func TestOffloadedMatchesSynchronousPipeline(t *testing.T) {
	src := quadImage(16)
	pal := palette.Palette{
		{R: 220, G: 40, B: 40},
		{R: 40, G: 220, B: 40},
		{R: 40, G: 40, B: 220},
		{R: 220, G: 220, B: 40},
	}

	sync := testPipeline(src)
	sync.SetScale(25).SetPalette(pal).Draw().Pixelate().ConvertGrayscale().ConvertPalette()

	o := testOffloaded(t, Config{Source: src, Surface: NewSurface(1, 1), Scale: 25, Palette: pal})
	o.Draw()
	require.NoError(t, await(t, o.Pixelate()))
	require.NoError(t, await(t, o.ConvertGrayscale()))
	require.NoError(t, await(t, o.ConvertPalette()))

	assert.Equal(t, sync.Surface().Pix(), o.Surface().Pix())
}

func TestOffloadedFIFOWithoutAwaiting(t *testing.T) {
	src := quadImage(16)
	pal := palette.Palette{
		{R: 220, G: 40, B: 40},
		{R: 40, G: 220, B: 40},
		{R: 40, G: 40, B: 220},
	}

	// Reference: palette conversion applied to the pixelated buffer.
	ref := testPipeline(src)
	ref.SetScale(25).SetPalette(pal).Draw().Pixelate().ConvertPalette()

	// Queue both operations back to back without awaiting the first.
	// FIFO dispatch must still apply the conversion to the pixelated
	// result, never to the pre-pixelation buffer.
	o := testOffloaded(t, Config{Source: src, Surface: NewSurface(1, 1), Scale: 25, Palette: pal})
	o.Draw()
	first := o.Pixelate()
	second := o.ConvertPalette()
	require.NoError(t, await(t, second))
	require.NoError(t, await(t, first))

	assert.Equal(t, ref.Surface().Pix(), o.Surface().Pix())
}

func TestOffloadedBeforeDrawFails(t *testing.T) {
	o := testOffloaded(t, Config{Source: quadImage(8), Surface: NewSurface(1, 1)})
	err := await(t, o.Pixelate())
	require.Error(t, err)

	// A failed operation advances the queue; later requests still run.
	o.Draw()
	assert.NoError(t, await(t, o.Pixelate()))
}

func TestOffloadedApplyEffects(t *testing.T) {
	src := solidImage(40, 20, color.NRGBA{R: 90, G: 120, B: 30, A: 255})

	ref := New(Config{Source: src, Surface: NewSurface(1, 1), Logger: quietLogger(), CollectStats: true})
	ref.ApplyEffects(EffectOptions{Scale: 10, ApplyPalette: true, MaxWidth: 20})

	o := testOffloaded(t, Config{Source: src, Surface: NewSurface(1, 1), CollectStats: true})
	require.NoError(t, await(t, o.ApplyEffects(EffectOptions{Scale: 10, ApplyPalette: true, MaxWidth: 20})))

	assert.Equal(t, ref.Surface().Pix(), o.Surface().Pix())
	assert.Equal(t, ref.ColorStats(), o.ColorStats())
	assert.Equal(t, 20, o.Surface().Width())
	assert.Equal(t, 10, o.Surface().Height())
}

func TestOffloadedStatsCollectedOnWorker(t *testing.T) {
	src := quadImage(8)
	o := testOffloaded(t, Config{Source: src, Surface: NewSurface(1, 1), CollectStats: true})
	o.Draw()
	require.NoError(t, await(t, o.ConvertPalette()))
	assert.Equal(t, 64, o.ColorStats().Total())
}

func TestOffloadedConfigSettersImmediate(t *testing.T) {
	o := testOffloaded(t, Config{})
	o.SetScale(30)
	assert.Equal(t, 0.3, o.Scale())
	o.SetScale(99)
	assert.Equal(t, 0.3, o.Scale(), "invalid scale keeps previous")

	custom := palette.Palette{{R: 3}}
	o.AddPalette(custom)
	require.Len(t, o.AvailablePalettes(), 2)
	o.SetPaletteByIndex(5)
	assert.NotEqual(t, custom, o.Palette())
	o.SetPaletteByIndex(1)
	assert.Equal(t, custom, o.Palette())
}

func TestOffloadedCloseRejectsNewWork(t *testing.T) {
	o := NewOffloaded(Config{Source: quadImage(8), Surface: NewSurface(1, 1), Logger: quietLogger()})
	o.Draw()
	require.NoError(t, await(t, o.Pixelate()))

	o.Close()
	err := await(t, o.Pixelate())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOffloadedQueueDrainsManyRequests(t *testing.T) {
	o := testOffloaded(t, Config{Source: quadImage(16), Surface: NewSurface(1, 1)})
	o.Draw()

	var last <-chan error
	for i := 0; i < 10; i++ {
		o.ConvertGrayscale()
		last = o.ConvertPalette()
	}
	require.NoError(t, await(t, last))

	// After the queue drains the buffer holds only palette colors.
	pal := o.Palette()
	pix := o.Surface().Pix()
	for i := 0; i+3 < len(pix); i += 4 {
		c := colormath.RGB{R: pix[i], G: pix[i+1], B: pix[i+2]}
		require.True(t, pal.Contains(c), "pixel %d has non-palette color %v", i/4, c)
	}
}
