package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// MaxPixels bounds the size of a single buffer. Requests above it fail with an
// AllocationError instead of exhausting memory.
var MaxPixels = 64 << 20

// ErrAllocation is matched by every AllocationError.
var ErrAllocation = errors.New("pixel buffer allocation failed")

// AllocationError reports a canvas that could not be created at the requested
// size. Callers are expected to retry with a smaller fixed size.
type AllocationError struct {
	Width  int
	Height int
	Err    error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate %dx%d buffer: %v", e.Width, e.Height, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is reports ErrAllocation so callers do not need the concrete type.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// New allocates a width x height buffer filled with fill.
func New(width, height int, fill color.NRGBA) (buf *image.NRGBA, err error) {
	if width <= 0 || height <= 0 {
		return nil, &AllocationError{Width: width, Height: height, Err: fmt.Errorf("dimensions must be positive")}
	}
	if width > MaxPixels/height {
		return nil, &AllocationError{Width: width, Height: height, Err: fmt.Errorf("exceeds %d pixel limit", MaxPixels)}
	}
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = &AllocationError{Width: width, Height: height, Err: fmt.Errorf("%v", r)}
		}
	}()
	buf = image.NewNRGBA(image.Rect(0, 0, width, height))
	Fill(buf, fill)
	return buf, nil
}

// NewTransparent allocates a fully transparent buffer the size of r. It is used
// for scratch layers whose size is already known to be valid.
func NewTransparent(r image.Rectangle) *image.NRGBA {
	return image.NewNRGBA(r)
}

// Fill sets every pixel of buf to c.
func Fill(buf *image.NRGBA, c color.NRGBA) {
	if buf == nil {
		return
	}
	b := buf.Bounds()
	if b.Empty() {
		return
	}
	// Fill the first row, then double it into the rest.
	rowLen := b.Dx() * 4
	first := buf.Pix[:rowLen]
	for i := 0; i < rowLen; i += 4 {
		first[i+0] = c.R
		first[i+1] = c.G
		first[i+2] = c.B
		first[i+3] = c.A
	}
	for y := 1; y < b.Dy(); y++ {
		off := y * buf.Stride
		copy(buf.Pix[off:off+rowLen], first)
	}
}

// Clear makes every pixel of buf fully transparent.
func Clear(buf *image.NRGBA) {
	if buf == nil {
		return
	}
	clear(buf.Pix)
}

// Copy returns a deep copy of buf with its origin moved to (0, 0). A nil buffer
// copies to nil.
func Copy(buf *image.NRGBA) *image.NRGBA {
	if buf == nil {
		return nil
	}
	b := buf.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		si := buf.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * out.Stride
		copy(out.Pix[di:di+rowLen], buf.Pix[si:si+rowLen])
	}
	return out
}

// Crop returns a copy of the part of buf inside rect. The rectangle is clipped
// to the buffer bounds.
func Crop(buf *image.NRGBA, rect image.Rectangle) *image.NRGBA {
	if buf == nil {
		return nil
	}
	rect = rect.Intersect(buf.Bounds())
	if rect.Empty() {
		return image.NewNRGBA(image.Rectangle{})
	}
	return Copy(buf.SubImage(rect).(*image.NRGBA))
}

// Equal reports whether a and b have the same size and identical pixels.
func Equal(a, b *image.NRGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	rowLen := ab.Dx() * 4
	for y := 0; y < ab.Dy(); y++ {
		ai := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		bi := b.PixOffset(bb.Min.X, bb.Min.Y+y)
		ar := a.Pix[ai : ai+rowLen]
		br := b.Pix[bi : bi+rowLen]
		for i := range ar {
			if ar[i] != br[i] {
				return false
			}
		}
	}
	return true
}

// SameSize reports whether both buffers have identical dimensions.
func SameSize(a, b *image.NRGBA) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Bounds().Dx() == b.Bounds().Dx() && a.Bounds().Dy() == b.Bounds().Dy()
}
