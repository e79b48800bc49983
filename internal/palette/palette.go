// Package palette provides the named colour sets offered as spray colours.
package palette

import (
	"fmt"
	"image/color"
)

// DefaultName is the palette used when none is configured.
const DefaultName = "graffiti"

// DefaultColor is the initial spray colour.
var DefaultColor = color.NRGBA{R: 0xE7, G: 0x4C, B: 0x3C, A: 0xFF}

// Swatch is one colour of a palette.
type Swatch struct {
	Name  string
	Color color.NRGBA
}

// Palette is an ordered list of swatches.
type Palette struct {
	Name     string
	Swatches []Swatch
}

// Len returns the number of swatches.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Swatches)
}

// At returns swatch i, clamped to the valid range. An empty palette yields
// black.
func (p *Palette) At(i int) Swatch {
	if p.Len() == 0 {
		return Swatch{Name: "black", Color: color.NRGBA{A: 255}}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.Swatches) {
		i = len(p.Swatches) - 1
	}
	return p.Swatches[i]
}

// Index returns the position of c in the palette, or -1.
func (p *Palette) Index(c color.NRGBA) int {
	if p == nil {
		return -1
	}
	for i, s := range p.Swatches {
		if s.Color == c {
			return i
		}
	}
	return -1
}

// String renders the palette in the file format read by Parse.
func (p *Palette) String() string {
	if p == nil {
		return ""
	}
	out := fmt.Sprintf("Name: %s\n", p.Name)
	for _, s := range p.Swatches {
		if s.Name == "" {
			out += Hex(s.Color) + "\n"
			continue
		}
		out += fmt.Sprintf("%s %s\n", Hex(s.Color), s.Name)
	}
	return out
}

// Hex formats c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
