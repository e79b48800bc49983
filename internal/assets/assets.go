// Package assets loads background, template and sound files and converts
// decoded images into the canvas pixel layout.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/example/spraycan/internal/layers"
	"github.com/example/spraycan/internal/render"
)

// ErrAssetLoad matches every LoadError.
var ErrAssetLoad = errors.New("asset load failed")

// Kind names the slot an asset was loaded for.
type Kind string

const (
	KindBackground Kind = "background"
	KindTemplate   Kind = "template"
	KindSound      Kind = "sound"
	KindClipboard  Kind = "clipboard"
)

// LoadError reports an unreadable or undecodable asset. The previous state of
// the slot is left untouched by callers on this error.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrAssetLoad }

// TemplateSpec describes how a template image is fitted onto the canvas.
type TemplateSpec struct {
	Width, Height int
	// Opacity scales the template's alpha channel, 0 to 1.
	Opacity float64
	// Anchor is where the centre of the template lands on the canvas.
	Anchor image.Point
}

// DefaultTemplateSpec returns the 1000x1000 template at 30% opacity centred on
// (725, 540).
func DefaultTemplateSpec() TemplateSpec {
	return TemplateSpec{Width: 1000, Height: 1000, Opacity: 0.3, Anchor: image.Pt(725, 540)}
}

// Offset returns the top-left paste position of the template.
func (s TemplateSpec) Offset() image.Point {
	return s.Anchor.Sub(image.Pt(s.Width/2, s.Height/2))
}

// ToPixelBuffer converts any decoded image into a straight-alpha NRGBA buffer
// with its origin at (0, 0). Every image entering the canvas goes through
// here.
func ToPixelBuffer(img image.Image) *image.NRGBA {
	if img == nil {
		return nil
	}
	if n, ok := img.(*image.NRGBA); ok {
		return render.Copy(n)
	}
	return imaging.Clone(img)
}

// Decode reads an image in any registered format.
func Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// FitBackground stretches img to exactly width x height with a Lanczos filter
// and flattens it onto white so the result is opaque.
func FitBackground(img image.Image, width, height int) *image.NRGBA {
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	return render.Flatten(resized, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}

// FitTemplate resizes img to the spec's size, scales its alpha by the spec's
// opacity and places it at the spec's offset.
func FitTemplate(img image.Image, spec TemplateSpec) *layers.Template {
	resized := imaging.Resize(img, spec.Width, spec.Height, imaging.Lanczos)
	render.ScaleAlpha(resized, spec.Opacity)
	return &layers.Template{Image: resized, Offset: spec.Offset()}
}

// LoadBackground decodes the image at path and fits it to the canvas size.
func LoadBackground(path string, width, height int) (*image.NRGBA, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, &LoadError{Kind: KindBackground, Path: path, Err: err}
	}
	return FitBackground(img, width, height), nil
}

// LoadTemplate decodes the image at path and fits it as a template.
func LoadTemplate(path string, spec TemplateSpec) (*layers.Template, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, &LoadError{Kind: KindTemplate, Path: path, Err: err}
	}
	return FitTemplate(img, spec), nil
}

var soundExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".ogg": true, ".oga": true, ".flac": true, ".aiff": true,
}

// CheckSound verifies that path is a readable audio file. The content is
// sniffed; files without a recognisable header are accepted when their
// extension names an audio format.
func CheckSound(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Kind: KindSound, Path: path, Err: err}
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return &LoadError{Kind: KindSound, Path: path, Err: err}
	}
	if n == 0 {
		return &LoadError{Kind: KindSound, Path: path, Err: errors.New("empty file")}
	}
	ctype := DetectContentType(head[:n])
	switch {
	case strings.HasPrefix(ctype, "audio/"), ctype == "application/ogg":
		return nil
	case ctype == "application/octet-stream" && soundExtensions[strings.ToLower(filepath.Ext(path))]:
		return nil
	}
	return &LoadError{Kind: KindSound, Path: path, Err: fmt.Errorf("unsupported content type %s", ctype)}
}

// DetectContentType sniffs the MIME type of data, recognising MP3 frames that
// carry no ID3 tag.
func DetectContentType(data []byte) string {
	ctype := http.DetectContentType(data)
	if ctype == "application/octet-stream" && len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "audio/mpeg"
	}
	if ctype == "application/octet-stream" && bytes.HasPrefix(data, []byte("fLaC")) {
		return "audio/flac"
	}
	return ctype
}
