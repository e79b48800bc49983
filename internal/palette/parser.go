package palette

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Parse reads a palette definition from an io.Reader.
// The format is a "Name: <name>" line followed by one "#RRGGBB [label]" per
// line. Lines starting with "//" or "# " are comments.
func Parse(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "Name") {
			p.Name = strings.TrimSpace(value)
			continue
		}
		fields := strings.Fields(line)
		c, err := ParseHex(fields[0])
		if err != nil {
			if strings.HasPrefix(line, "#") {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.Swatches = append(p.Swatches, Swatch{Name: strings.Join(fields[1:], " "), Color: c})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseHex parses #RRGGBB or #RRGGBBAA.
func ParseHex(s string) (color.NRGBA, error) {
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("color must start with #")
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid hex length")
}

// ParseColor accepts a hex colour or an SVG colour keyword such as "tomato".
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return ParseHex(s)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}, nil
	}
	return color.NRGBA{}, fmt.Errorf("unknown colour %q", s)
}
