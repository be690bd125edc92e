package pixel

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/Abourass/pixels/colormath"
	"github.com/Abourass/pixels/palette"
)

// ErrClosed is returned for operations queued after Close.
var ErrClosed = errors.New("pipeline closed")

type opKind uint8

const (
	opPixelate opKind = iota
	opGrayscale
	opPalette
)

func (k opKind) String() string {
	switch k {
	case opPixelate:
		return "pixelate"
	case opGrayscale:
		return "grayscale"
	case opPalette:
		return "palette"
	}
	return "unknown"
}

// job carries one pixel-heavy operation across the worker boundary.
// The pix slice is moved, never shared: the sender must not touch it
// until the matching result comes back.
type job struct {
	op            opKind
	pix           []uint8
	width, height int
	scale         float64
	pal           palette.Palette
	collectStats  bool
}

// result hands the (possibly replaced) buffer back. pix is always
// returned, even on failure, so the surface can be restored.
type result struct {
	pix   []uint8
	stats ColorStats
	err   error
}

// OffloadedPipeline has the same contract as Pipeline, but Pixelate,
// ConvertGrayscale and ConvertPalette run on a separate worker
// goroutine. Requests drain through a strict FIFO queue with a single
// operation in flight: the result of request N is written back to the
// surface before N+1 dispatches, so later operations always observe the
// fully applied output of earlier ones. Configuration setters are
// synchronous and immediate, but an operation uses whatever
// configuration is current when it dispatches, not when it was queued.
type OffloadedPipeline struct {
	mu sync.Mutex
	p  *Pipeline

	// closeMu serializes queue submission against Close so a request is
	// never sent on a closed channel.
	closeMu sync.RWMutex
	closed  bool

	reqs    chan request
	jobs    chan job
	results chan result
	wg      sync.WaitGroup
	close   func()
}

type request struct {
	op   opKind
	done chan error
}

// NewOffloaded creates an offloaded pipeline and starts its dispatcher
// and worker goroutines. Call Close to stop them.
func NewOffloaded(cfg Config) *OffloadedPipeline {
	o := &OffloadedPipeline{
		p:       New(cfg),
		reqs:    make(chan request, 64),
		jobs:    make(chan job),
		results: make(chan result),
	}
	o.close = sync.OnceFunc(func() {
		o.closeMu.Lock()
		o.closed = true
		o.closeMu.Unlock()
		close(o.reqs)
		o.wg.Wait()
	})

	o.wg.Add(2)
	go o.dispatchLoop()
	go o.workerLoop()
	return o
}

// Close drains the queue and stops the worker. Queued operations run to
// completion; operations issued afterwards fail with ErrClosed.
func (o *OffloadedPipeline) Close() {
	o.close()
}

// Pixelate queues the pixelation pass. The returned channel delivers
// the outcome once the result has been written back to the surface.
func (o *OffloadedPipeline) Pixelate() <-chan error {
	return o.enqueue(opPixelate)
}

// ConvertGrayscale queues the grayscale pass.
func (o *OffloadedPipeline) ConvertGrayscale() <-chan error {
	return o.enqueue(opGrayscale)
}

// ConvertPalette queues the palette remap pass.
func (o *OffloadedPipeline) ConvertPalette() <-chan error {
	return o.enqueue(opPalette)
}

// ApplyEffects mirrors Pipeline.ApplyEffects: configuration and draw
// happen synchronously, the pixel-heavy passes go through the queue,
// and the trailing resize (when a size cap was supplied) runs after the
// last queued pass completes. The returned channel delivers the first
// failure, if any, once everything has been applied.
func (o *OffloadedPipeline) ApplyEffects(opts EffectOptions) <-chan error {
	o.mu.Lock()
	if opts.Scale != 0 {
		o.p.SetScale(opts.Scale)
	}
	if len(opts.Palette) > 0 {
		o.p.SetPalette(opts.Palette)
	}
	if opts.PaletteIndex != nil {
		o.p.SetPaletteByIndex(*opts.PaletteIndex)
	}
	if opts.MaxWidth > 0 {
		o.p.SetMaxWidth(opts.MaxWidth)
	}
	if opts.MaxHeight > 0 {
		o.p.SetMaxHeight(opts.MaxHeight)
	}
	o.p.Draw()
	o.mu.Unlock()

	pending := []<-chan error{o.enqueue(opPixelate)}
	if opts.Grayscale {
		pending = append(pending, o.enqueue(opGrayscale))
	}
	if opts.ApplyPalette {
		pending = append(pending, o.enqueue(opPalette))
	}

	done := make(chan error, 1)
	go func() {
		var err error
		for _, ch := range pending {
			if e := <-ch; err == nil {
				err = e
			}
		}
		if opts.sizeConstrained() && err == nil {
			o.mu.Lock()
			o.p.ResizeImage()
			o.mu.Unlock()
		}
		done <- err
	}()
	return done
}

func (o *OffloadedPipeline) enqueue(op opKind) <-chan error {
	done := make(chan error, 1)

	o.closeMu.RLock()
	defer o.closeMu.RUnlock()
	if o.closed {
		done <- ErrClosed
		return done
	}

	o.reqs <- request{op: op, done: done}
	return done
}

// dispatchLoop drains the FIFO queue, one request in flight at a time.
func (o *OffloadedPipeline) dispatchLoop() {
	defer o.wg.Done()
	defer close(o.jobs)

	for req := range o.reqs {
		req.done <- o.dispatch(req.op)
	}
}

func (o *OffloadedPipeline) dispatch(op opKind) error {
	o.mu.Lock()
	if o.p.surface == nil || !o.p.drawn {
		o.mu.Unlock()
		o.p.logger.Error("no image drawn yet", "op", op.String())
		return fmt.Errorf("no image drawn for %s", op)
	}

	// Configuration is read here, at dispatch time; the buffer leaves
	// the surface and must not be touched until the result returns.
	pix, w, h := o.p.surface.TakePix()
	j := job{
		op:           op,
		pix:          pix,
		width:        w,
		height:       h,
		scale:        o.p.scale,
		pal:          o.p.active,
		collectStats: o.p.collectStats,
	}
	o.mu.Unlock()

	o.jobs <- j
	res := <-o.results

	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.surface.AdoptPix(res.pix, w, h)
	if res.err != nil {
		o.p.logger.Error("offloaded operation failed", "op", op.String(), "error", res.err)
		return res.err
	}
	if op == opPalette && j.collectStats {
		o.p.stats = res.stats
	}
	return nil
}

func (o *OffloadedPipeline) workerLoop() {
	defer o.wg.Done()

	for j := range o.jobs {
		o.results <- execute(j)
	}
}

// execute runs one job in the worker context. The input buffer is
// always handed back, even on failure, so the caller can restore the
// surface.
func execute(j job) (res result) {
	defer func() {
		if r := recover(); r != nil {
			res = result{pix: j.pix, err: fmt.Errorf("worker panic: %v", r)}
		}
	}()

	switch j.op {
	case opPixelate:
		return result{pix: pixelateBuf(j.pix, j.width, j.height, j.scale)}
	case opGrayscale:
		grayscaleBuf(j.pix)
		return result{pix: j.pix}
	case opPalette:
		if len(j.pal) == 0 {
			return result{pix: j.pix, err: errors.New("empty palette")}
		}
		var stats ColorStats
		if j.collectStats {
			stats = ColorStats{}
		}
		mapPaletteBuf(j.pix, j.pal, stats)
		return result{pix: j.pix, stats: stats}
	}
	return result{pix: j.pix, err: fmt.Errorf("unknown operation %d", j.op)}
}

// Configuration and synchronous operations delegate to the wrapped
// pipeline under the lock. Draw and ResizeImage stay on the caller's
// goroutine; only the three pixel-heavy passes are offloaded.

func (o *OffloadedPipeline) Draw() *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.Draw()
	return o
}

func (o *OffloadedPipeline) ResizeImage() *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.ResizeImage()
	return o
}

func (o *OffloadedPipeline) SetScale(scale int) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetScale(scale)
	return o
}

func (o *OffloadedPipeline) SetMaxWidth(width int) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetMaxWidth(width)
	return o
}

func (o *OffloadedPipeline) SetMaxHeight(height int) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetMaxHeight(height)
	return o
}

func (o *OffloadedPipeline) SetPalette(pal palette.Palette) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetPalette(pal)
	return o
}

func (o *OffloadedPipeline) SetPaletteByIndex(i int) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetPaletteByIndex(i)
	return o
}

func (o *OffloadedPipeline) AddPalette(pal palette.Palette) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.AddPalette(pal)
	return o
}

func (o *OffloadedPipeline) SetSource(img image.Image) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetSource(img)
	return o
}

func (o *OffloadedPipeline) SetCollectStats(on bool) *OffloadedPipeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.p.SetCollectStats(on)
	return o
}

func (o *OffloadedPipeline) Scale() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.Scale()
}

func (o *OffloadedPipeline) MaxWidth() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.MaxWidth()
}

func (o *OffloadedPipeline) MaxHeight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.MaxHeight()
}

func (o *OffloadedPipeline) Palette() palette.Palette {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.Palette()
}

func (o *OffloadedPipeline) AvailablePalettes() []palette.Palette {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.AvailablePalettes()
}

func (o *OffloadedPipeline) ColorStats() ColorStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.ColorStats()
}

func (o *OffloadedPipeline) SimilarColor(c colormath.RGB) colormath.RGB {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.SimilarColor(c)
}

func (o *OffloadedPipeline) ColorSim(a, b colormath.RGB) float64 {
	return colormath.Distance(a, b)
}

func (o *OffloadedPipeline) Surface() *Surface {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.Surface()
}

func (o *OffloadedPipeline) Save(w io.Writer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.Save(w)
}

func (o *OffloadedPipeline) SaveFile(baseName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.p.SaveFile(baseName)
}
