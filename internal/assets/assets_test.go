package assets

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestLoadBackgroundResizesAndFlattens(t *testing.T) {
	path := writePNG(t, uniform(30, 20, color.NRGBA{R: 0, G: 0, B: 255, A: 128}))
	bg, err := LoadBackground(path, 64, 48)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), bg.Bounds())
	c := bg.NRGBAAt(32, 24)
	assert.Equal(t, uint8(255), c.A)
	assert.InDelta(t, 127, int(c.R), 2)
	assert.Equal(t, uint8(255), c.B)
}

func TestLoadBackgroundErrors(t *testing.T) {
	_, err := LoadBackground(filepath.Join(t.TempDir(), "missing.png"), 10, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssetLoad))

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = LoadBackground(bad, 10, 10)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, KindBackground, le.Kind)
	assert.Equal(t, bad, le.Path)
}

func TestLoadTemplateAppliesSpec(t *testing.T) {
	path := writePNG(t, uniform(10, 10, color.NRGBA{R: 0, G: 0, B: 0, A: 255}))
	spec := DefaultTemplateSpec()
	assert.Equal(t, image.Pt(225, 40), spec.Offset())

	spec = TemplateSpec{Width: 40, Height: 20, Opacity: 0.3, Anchor: image.Pt(50, 50)}
	tpl, err := LoadTemplate(path, spec)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 40), tpl.Offset)
	assert.Equal(t, image.Rect(0, 0, 40, 20), tpl.Image.Bounds())
	assert.InDelta(t, 77, int(tpl.Image.NRGBAAt(20, 10).A), 1)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "none.png"), spec)
	assert.ErrorIs(t, err, ErrAssetLoad)
}

func TestToPixelBuffer(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 8, 7))
	src.SetRGBA(6, 6, color.RGBA{R: 100, A: 200})
	buf := ToPixelBuffer(src)
	require.NotNil(t, buf)
	assert.Equal(t, image.Rect(0, 0, 3, 2), buf.Bounds())
	assert.Equal(t, uint8(200), buf.NRGBAAt(1, 1).A)
	assert.InDelta(t, 127, int(buf.NRGBAAt(1, 1).R), 1)

	n := uniform(2, 2, color.NRGBA{R: 1, A: 255})
	cp := ToPixelBuffer(n)
	cp.Pix[0] = 9
	assert.Equal(t, uint8(1), n.Pix[0])
	assert.Nil(t, ToPixelBuffer(nil))
}

func TestCheckSound(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "spray.wav")
	header := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	require.NoError(t, os.WriteFile(wav, header, 0o644))
	assert.NoError(t, CheckSound(wav))

	mp3 := filepath.Join(dir, "spray.mp3")
	require.NoError(t, os.WriteFile(mp3, []byte{0xFF, 0xFB, 0x90, 0x64, 0, 0, 0, 0}, 0o644))
	assert.NoError(t, CheckSound(mp3))

	txt := filepath.Join(dir, "notes.wav")
	require.NoError(t, os.WriteFile(txt, []byte("hello, this is text"), 0o644))
	err := CheckSound(txt)
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, KindSound, le.Kind)

	assert.ErrorIs(t, CheckSound(filepath.Join(dir, "missing.ogg")), ErrAssetLoad)

	empty := filepath.Join(dir, "empty.ogg")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.ErrorIs(t, CheckSound(empty), ErrAssetLoad)
}
