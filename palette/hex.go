package palette

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Abourass/pixels/colormath"
)

// ParseHex reads a palette from plain text, one color per line, in
// #RRGGBB, RRGGBB or #RGB form. Blank lines and lines starting with
// "//", "/*" or "#!" are skipped. A file yielding zero colors is
// rejected.
func ParseHex(r io.Reader) (Palette, error) {
	var pal Palette

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" ||
			strings.HasPrefix(line, "//") ||
			strings.HasPrefix(line, "/*") ||
			strings.HasPrefix(line, "#!") {
			continue
		}

		c, err := ParseHexColor(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		pal = append(pal, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read palette text: %w", err)
	}

	if len(pal) == 0 {
		return nil, fmt.Errorf("no valid colors found")
	}
	return pal, nil
}

// ParseHexColor parses a single #RRGGBB, RRGGBB or #RGB color. The
// short form expands each nibble (#fa0 -> #ffaa00).
func ParseHexColor(s string) (colormath.RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	var c colormath.RGB
	switch len(s) {
	case 4:
		n, err := fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		if err != nil {
			return colormath.RGB{}, fmt.Errorf("could not read color %q: %w", s, err)
		} else if n < 3 {
			return colormath.RGB{}, fmt.Errorf("insufficient color fields in %q: %d", s, n)
		}

		c.R |= c.R << 4
		c.G |= c.G << 4
		c.B |= c.B << 4
	case 7:
		n, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
		if err != nil {
			return colormath.RGB{}, fmt.Errorf("could not read color %q: %w", s, err)
		} else if n < 3 {
			return colormath.RGB{}, fmt.Errorf("insufficient color fields in %q: %d", s, n)
		}
	default:
		return colormath.RGB{}, fmt.Errorf("invalid color %q, should be #RGB, RRGGBB or #RRGGBB", s)
	}

	return c, nil
}

// WriteHex emits the palette as one #RRGGBB line per color, in order.
func WriteHex(w io.Writer, pal Palette) error {
	for _, c := range pal {
		if _, err := fmt.Fprintf(w, "#%02x%02x%02x\n", c.R, c.G, c.B); err != nil {
			return fmt.Errorf("could not write color: %w", err)
		}
	}
	return nil
}
