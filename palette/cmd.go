package palette

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"
)

// ExtractCmd is the "extract" command: it builds a representative
// palette from an image and writes it as hex text or a RIFF PAL file.
type ExtractCmd struct {
	Image  string `arg:"" help:"Source image to extract colors from"`
	Colors int    `help:"Number of colors to extract" short:"n" default:"8"`
	Method string `help:"Extraction method" enum:"freq,kmeans,dominant" default:"freq"`
	Out    string `help:"Output file: .pal writes RIFF, anything else hex text. Prints hex lines when omitted."`
	Save   string `help:"Also save the palette into the local store under this name"`
	Store  string `help:"Palette store file. Defaults to the user config directory."`
}

func (c *ExtractCmd) Validate(kctx *kong.Context) error {
	if c.Colors < 1 {
		return fmt.Errorf("invalid number of colors: %d", c.Colors)
	}
	if _, err := os.Stat(c.Image); err != nil {
		return fmt.Errorf("invalid image path %q: %w", c.Image, err)
	}
	return nil
}

func (c *ExtractCmd) Run() error {
	img, err := imaging.Open(c.Image, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("could not open image %q: %w", c.Image, err)
	}

	var pal Palette
	switch c.Method {
	case "kmeans":
		if pal, err = ExtractKMeans(img, c.Colors); err != nil {
			return fmt.Errorf("kmeans extraction failed: %w", err)
		}
	case "dominant":
		pal = ExtractDominant(img, c.Colors)
	default:
		pal = ExtractImage(img, c.Colors)
	}
	if len(pal) == 0 {
		return fmt.Errorf("no colors extracted from %q", c.Image)
	}

	slog.Info("palette extracted", "file", c.Image, "method", c.Method, "colors", len(pal))

	if err := c.write(pal); err != nil {
		return err
	}

	if c.Save != "" {
		storePath := c.Store
		if storePath == "" {
			if storePath, err = DefaultStorePath(); err != nil {
				return err
			}
		}
		if err := NewStore(storePath).Append(c.Save, pal); err != nil {
			return err
		}
		slog.Info("palette saved", "name", c.Save, "store", storePath)
	}

	return nil
}

func (c *ExtractCmd) write(pal Palette) (err error) {
	if c.Out == "" {
		return WriteHex(os.Stdout, pal)
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", c.Out, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close %q: %w", c.Out, closeErr)
		}
	}()

	if strings.EqualFold(filepath.Ext(c.Out), ".pal") {
		if _, err = WritePAL(f, []Palette{pal}); err != nil {
			return err
		}
		return nil
	}
	return WriteHex(f, pal)
}

// ListCmd is the "palettes" command: it lists built-in palettes and any
// palettes saved in the local store.
type ListCmd struct {
	Store string `help:"Palette store file. Defaults to the user config directory."`
}

func (c *ListCmd) Run() error {
	for _, name := range Names() {
		fmt.Printf("%-12s %3d colors (built-in)\n", name, len(builtins[name]))
	}

	storePath := c.Store
	if storePath == "" {
		var err error
		if storePath, err = DefaultStorePath(); err != nil {
			return err
		}
	}

	names, pals, err := NewStore(storePath).Load()
	if err != nil {
		return err
	}
	for i, name := range names {
		fmt.Printf("%-12s %3d colors (saved)\n", name, len(pals[i]))
	}

	return nil
}
