// Package export flattens the canvas layers and writes them as image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/example/spraycan/internal/layers"
	"github.com/example/spraycan/internal/render"
)

// ErrExport matches every export Error.
var ErrExport = errors.New("export failed")

// Error reports a failed save. The canvas is not affected.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export: %v", e.Err)
	}
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrExport }

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// FormatFromPath picks the encoding from the file extension. An empty
// extension selects PNG.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("unsupported image format %q", filepath.Ext(path))
}

// Options selects which layers end up in the exported image.
type Options struct {
	IncludeBackground bool
	IncludeTemplate   bool
	// Transparent keeps the alpha channel when neither background nor
	// template is included, yielding only the drawn strokes.
	Transparent bool
}

// DefaultOptions includes every layer.
func DefaultOptions() Options {
	return Options{IncludeBackground: true, IncludeTemplate: true}
}

// Layers is the input to Compose.
type Layers struct {
	Background *image.NRGBA
	Template   *layers.Template
	Drawing    *image.NRGBA
}

// Compose builds the image to export. With Transparent set and both
// background and template excluded it returns a copy of the drawing layer;
// otherwise the selected layers are flattened onto white and every pixel is
// opaque.
func Compose(l Layers, opts Options) *image.NRGBA {
	if l.Drawing == nil {
		return nil
	}
	if opts.Transparent && !opts.IncludeBackground && !opts.IncludeTemplate {
		return render.Copy(l.Drawing)
	}
	var bg *image.NRGBA
	var tpl *layers.Template
	if opts.IncludeBackground {
		bg = l.Background
	}
	if opts.IncludeTemplate {
		tpl = l.Template
	}
	return layers.Recomposite(bg, tpl, l.Drawing)
}

// Encode writes img to w in format f. JPEG output is flattened onto white
// first since the format has no alpha.
func Encode(w io.Writer, img *image.NRGBA, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		if !img.Opaque() {
			img = render.Flatten(img, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format %q", f)
}

// Save writes img to path, choosing the encoding from the extension.
func Save(path string, img *image.NRGBA) error {
	if img == nil {
		return &Error{Path: path, Err: errors.New("nothing to save")}
	}
	f, err := FormatFromPath(path)
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	out, err := os.Create(path)
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := Encode(out, img, f); err != nil {
		_ = out.Close()
		return &Error{Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

// Write encodes img to w. name is used only for error messages.
func Write(w io.Writer, name string, img *image.NRGBA, f Format) error {
	if img == nil {
		return &Error{Path: name, Err: errors.New("nothing to save")}
	}
	if err := Encode(w, img, f); err != nil {
		return &Error{Path: name, Err: err}
	}
	return nil
}
