package pixel

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Save encodes the current surface contents as PNG into w and logs a
// content fingerprint of the encoded bytes for reproducibility checks.
func (p *Pipeline) Save(w io.Writer) error {
	if p.surface == nil || !p.drawn {
		return fmt.Errorf("nothing to save: no image drawn")
	}

	digest := xxhash.New()
	enc := png.Encoder{
		CompressionLevel: png.BestCompression,
		BufferPool:       pngPool,
	}
	if err := enc.Encode(io.MultiWriter(w, digest), p.surface.Image()); err != nil {
		return fmt.Errorf("could not encode PNG: %w", err)
	}

	p.logger.Info("image encoded",
		"width", p.surface.Width(), "height", p.surface.Height(),
		"hash", fmt.Sprintf("%016x", digest.Sum64()))
	return nil
}

// SaveFile writes the surface as baseName+".png" in the working
// directory. An empty baseName defaults to "pixelit".
func (p *Pipeline) SaveFile(baseName string) (err error) {
	if baseName == "" {
		baseName = "pixelit"
	}
	name := baseName + ".png"

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", name, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close %q: %w", name, closeErr)
		}
	}()

	if err = p.Save(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("could not flush %q: %w", name, err)
	}
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
