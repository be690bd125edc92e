package pixel

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// LoadSource decodes an image file and makes it the pipeline source.
// Failures are logged and leave the previous source in place.
func (p *Pipeline) LoadSource(path string) *Pipeline {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		p.logger.Error("could not open image", "file", path, "error", err)
		return p
	}
	p.src = img
	return p
}

// LoadSourceURL fetches and decodes an image over HTTP and makes it the
// pipeline source. Failures are logged and leave the previous source in
// place.
func (p *Pipeline) LoadSourceURL(ctx context.Context, url string) *Pipeline {
	img, err := fetchImage(ctx, url)
	if err != nil {
		p.logger.Error("could not load image", "url", url, "error", err)
		return p
	}
	p.src = img
	return p
}

func fetchImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}
