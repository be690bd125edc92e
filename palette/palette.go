// Package palette defines the ordered color palettes used for
// nearest-color remapping, their extraction from images, and their
// import/export formats (hex text, RIFF PAL, JSON store).
package palette

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Abourass/pixels/colormath"
)

// Palette is an ordered, non-empty sequence of colors. Order is
// significant for display and indexing; matching is order-independent
// except for ties.
type Palette []colormath.RGB

// Clone returns an independent copy.
func (p Palette) Clone() Palette {
	return slices.Clone(p)
}

// Contains reports whether c appears in the palette as an exact triple.
func (p Palette) Contains(c colormath.RGB) bool {
	return slices.Contains(p, c)
}

// builtins are the named palettes shipped with the module. "default" is
// also the palette every pipeline is seeded with.
var builtins = map[string]Palette{
	"default": {
		{R: 140, G: 143, B: 174},
		{R: 88, G: 69, B: 61},
		{R: 62, G: 49, B: 63},
		{R: 154, G: 99, B: 72},
		{R: 215, G: 155, B: 125},
		{R: 245, G: 237, B: 186},
		{R: 192, G: 199, B: 65},
		{R: 100, G: 125, B: 52},
		{R: 228, G: 148, B: 58},
		{R: 157, G: 48, B: 59},
		{R: 210, G: 100, B: 113},
		{R: 112, G: 58, B: 85},
		{R: 52, G: 28, B: 39},
		{R: 36, G: 36, B: 39},
		{R: 28, G: 5, B: 19},
		{R: 91, G: 110, B: 225},
		{R: 132, G: 126, B: 135},
		{R: 136, G: 97, B: 51},
		{R: 30, G: 30, B: 30},
	},
	"bw": {
		{R: 0, G: 0, B: 0},
		{R: 255, G: 255, B: 255},
	},
	"gameboy": {
		{R: 15, G: 56, B: 15},
		{R: 48, G: 98, B: 48},
		{R: 139, G: 172, B: 15},
		{R: 155, G: 188, B: 15},
	},
	"gray16": grayRamp(16),
	"vga16": {
		{R: 0, G: 0, B: 0},
		{R: 0, G: 0, B: 170},
		{R: 0, G: 170, B: 0},
		{R: 0, G: 170, B: 170},
		{R: 170, G: 0, B: 0},
		{R: 170, G: 0, B: 170},
		{R: 170, G: 85, B: 0},
		{R: 170, G: 170, B: 170},
		{R: 85, G: 85, B: 85},
		{R: 85, G: 85, B: 255},
		{R: 85, G: 255, B: 85},
		{R: 85, G: 255, B: 255},
		{R: 255, G: 85, B: 85},
		{R: 255, G: 85, B: 255},
		{R: 255, G: 255, B: 85},
		{R: 255, G: 255, B: 255},
	},
}

// Default returns a copy of the palette pipelines are seeded with.
func Default() Palette {
	return builtins["default"].Clone()
}

// Names lists the built-in palette names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load resolves nameOrPath as a built-in palette name, a RIFF PAL file
// (".pal" extension), or a hex text file (anything else).
func Load(nameOrPath string) (pal Palette, err error) {
	if builtin, ok := builtins[strings.ToLower(nameOrPath)]; ok {
		return builtin.Clone(), nil
	}

	f, err := os.Open(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", nameOrPath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close palette file %q: %w", nameOrPath, closeErr)
		}
	}()

	if strings.EqualFold(filepath.Ext(nameOrPath), ".pal") {
		pals, err := ReadPAL(f)
		if err != nil {
			return nil, fmt.Errorf("could not read palette file %q: %w", nameOrPath, err)
		}
		for _, p := range pals {
			pal = append(pal, p...)
		}
		if len(pal) == 0 {
			return nil, fmt.Errorf("palette file %q holds no colors", nameOrPath)
		}
		return pal, nil
	}

	if pal, err = ParseHex(f); err != nil {
		return nil, fmt.Errorf("could not parse palette file %q: %w", nameOrPath, err)
	}
	return pal, nil
}

func grayRamp(n int) Palette {
	pal := make(Palette, n)
	for i := range pal {
		v := uint8(i * 255 / (n - 1))
		pal[i] = colormath.RGB{R: v, G: v, B: v}
	}
	return pal
}
