// Package layers composes the background, template and drawing layers of a
// canvas into the single buffer handed to the display.
//
// The composition order is fixed: an opaque white base, then the background,
// then the translucent template at its anchor offset, then the drawing layer.
package layers

import (
	"fmt"
	"image"
	"image/color"

	"github.com/example/spraycan/internal/render"
)

// Base is the colour every composite starts from.
var Base = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Template is a translucent guide image placed at Offset in canvas
// coordinates. Its opacity is already applied to the alpha channel.
type Template struct {
	Image  *image.NRGBA
	Offset image.Point
}

// Stack holds the three layers of a canvas. Background and Template are
// replaced wholesale and never mutated; Drawing is the only layer that
// accumulates paint.
type Stack struct {
	Background *image.NRGBA
	Template   *Template
	Drawing    *image.NRGBA
}

// NewStack returns a stack with an empty, fully transparent drawing layer of
// the given size.
func NewStack(width, height int) (*Stack, error) {
	drawing, err := render.New(width, height, color.NRGBA{})
	if err != nil {
		return nil, err
	}
	return &Stack{Drawing: drawing}, nil
}

// Size returns the canvas dimensions.
func (s *Stack) Size() image.Point {
	return s.Drawing.Bounds().Size()
}

// SetBackground replaces the background layer. The image must already match
// the canvas size; nil removes the background.
func (s *Stack) SetBackground(img *image.NRGBA) error {
	if img != nil && !render.SameSize(img, s.Drawing) {
		return fmt.Errorf("background is %v, canvas is %v", img.Bounds().Size(), s.Size())
	}
	s.Background = img
	return nil
}

// SetTemplate replaces the template layer; nil removes it.
func (s *Stack) SetTemplate(t *Template) {
	if t != nil && t.Image == nil {
		t = nil
	}
	s.Template = t
}

// ResetDrawing clears the drawing layer to fully transparent. Background and
// template are kept.
func (s *Stack) ResetDrawing() {
	render.Clear(s.Drawing)
}

// Composite rebuilds the composite buffer from the current layers.
func (s *Stack) Composite() *image.NRGBA {
	return Recomposite(s.Background, s.Template, s.Drawing)
}

// Recomposite blends background, template and drawing, in that order, over an
// opaque white base the size of drawing. It has no side effects on its inputs
// and always returns a freshly allocated buffer.
func Recomposite(background *image.NRGBA, tpl *Template, drawing *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, drawing.Bounds().Dx(), drawing.Bounds().Dy()))
	render.Fill(out, Base)
	if background != nil {
		render.DrawOver(out, background, image.Point{})
	}
	if tpl != nil && tpl.Image != nil {
		render.PasteWithMask(tpl.Image, out, tpl.Offset.X, tpl.Offset.Y, true)
	}
	render.DrawOver(out, drawing, image.Point{})
	return out
}
