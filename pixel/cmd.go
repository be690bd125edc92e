package pixel

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"

	"github.com/Abourass/pixels/palette"
	"github.com/Abourass/pixels/parallel"
)

// CLICmd is the "convert" command: it renders a file or a folder of
// images as pixel art, one pipeline per image, fanned out over the
// worker pool.
type CLICmd struct {
	Scan      string `help:"Source image or folder to scan" default:"."`
	Dest      string `help:"Destination folder for rendered images. Relative to the scan folder if not absolute." default:"pixelated"`
	Scale     int    `help:"Pixel block scale, 1-50" default:"8"`
	Palette   string `help:"Palette to apply: a built-in name, a RIFF .pal file or a hex text file" group:"palette"`
	Grayscale bool   `help:"Convert to grayscale" default:"false"`
	Stats     bool   `help:"Log per-color usage counts after palette conversion" default:"false" group:"palette"`
	Width     int    `help:"Max output width" group:"resize"`
	Height    int    `help:"Max output height" group:"resize"`

	pal palette.Palette
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scan, err := filepath.Abs(c.Scan)
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	info, err := os.Stat(scan)
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scan

	if !filepath.IsAbs(c.Dest) {
		base := scan
		if !info.IsDir() {
			base = filepath.Dir(scan)
		}
		c.Dest = filepath.Join(base, c.Dest)
	}

	if c.Scale < 1 || c.Scale > 50 {
		return fmt.Errorf("scale must be in 1-50, got %d", c.Scale)
	}
	if c.Width < 0 {
		return fmt.Errorf("invalid max width: %d", c.Width)
	}
	if c.Height < 0 {
		return fmt.Errorf("invalid max height: %d", c.Height)
	}

	if c.Palette != "" {
		if c.pal, err = palette.Load(c.Palette); err != nil {
			return err
		}
	} else if c.Stats {
		return fmt.Errorf("--stats needs a palette to tally against")
	}

	return nil
}

// Run processes every image through the pipeline, in parallel across
// the pool. Individual failures are logged and counted; the command
// fails only when at least one image failed.
func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := c.scanFiles()
	if err != nil {
		return err
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		worker(func(filePath string) func() {
			return func() {
				if err := c.renderOne(filePath); err != nil {
					errCount.Add(1)
					slog.Error("could not render image", "file", filePath, "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors, "total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) scanFiles() ([]string, error) {
	info, err := os.Stat(c.Scan)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %w", c.Scan, err)
	}
	if !info.IsDir() {
		return []string{c.Scan}, nil
	}

	entries, err := os.ReadDir(c.Scan)
	if err != nil {
		return nil, fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(c.Scan, entry.Name()))
	}
	return files, nil
}

func (c *CLICmd) renderOne(filePath string) (err error) {
	logger := slog.Default().With("file", filePath)

	img, err := imaging.Open(filePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}

	p := New(Config{
		Source:       img,
		Surface:      NewSurface(1, 1),
		Logger:       logger,
		CollectStats: c.Stats,
	})
	p.ApplyEffects(EffectOptions{
		Scale:        c.Scale,
		Palette:      c.pal,
		Grayscale:    c.Grayscale,
		ApplyPalette: len(c.pal) > 0,
		MaxWidth:     c.Width,
		MaxHeight:    c.Height,
	})

	if c.Stats {
		logColorStats(logger, p.ColorStats())
	}

	base := filepath.Base(filePath)
	destName := strings.TrimSuffix(base, filepath.Ext(base)) + ".png"

	outFile, err := os.CreateTemp(c.Dest, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}
		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(c.Dest, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
	}()

	if err = p.Save(outFile); err != nil {
		return err
	}

	canRename = true
	return nil
}

func logColorStats(logger *slog.Logger, stats ColorStats) {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return stats[keys[i]] > stats[keys[j]] })

	args := make([]any, 0, 2*len(keys)+2)
	args = append(args, "pixels", stats.Total())
	for _, key := range keys {
		args = append(args, key, stats[key])
	}
	logger.Info("color usage", args...)
}
