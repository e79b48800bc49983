package appstate

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"

	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
)

func newTestController(t *testing.T, opts ...Option) *controller {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.Width, cfg.Height = 120, 90
	cfg.SizeIndex = 0
	sess, err := session.New(cfg, session.WithRand(rand.New(rand.NewPCG(3, 4))))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(sess.Close)
	return newController(New(sess, opts...))
}

func press(t *testing.T, c *controller, action string) bool {
	t.Helper()
	return c.key(action)
}

func TestCanvasMapping(t *testing.T) {
	canvas := image.Pt(200, 100)
	zoom := fitZoom(canvas, 200+swatchWidth+200, 100+statusHeight+bottomHeight)
	if zoom != 1 {
		t.Fatalf("zoom = %v, want 1 (height bound)", zoom)
	}
	rect := canvasRect(canvas, 428, 148, 2)
	p := image.Pt(57, 33)
	got := toCanvas(toWindow(p, rect, 2), rect, 2)
	if got != p {
		t.Errorf("round trip = %v, want %v", got, p)
	}
	if q := toCanvas(image.Pt(rect.Min.X-1, rect.Min.Y), rect, 2); q.X >= 0 {
		t.Errorf("left of canvas mapped inside: %v", q)
	}
}

func TestLookupIgnoresShiftOnSymbols(t *testing.T) {
	c := newTestController(t)
	b := c.bindings()
	cases := []struct {
		ev   key.Event
		want string
	}{
		{key.Event{Rune: '+', Modifiers: key.ModShift}, actSizeUp},
		{key.Event{Rune: 'Z', Code: key.CodeZ, Modifiers: key.ModControl}, actUndo},
		{key.Event{Rune: -1, Code: key.CodeEscape}, actQuit},
		{key.Event{Rune: 'B', Modifiers: key.ModShift}, actToggleBG},
		{key.Event{Rune: 'b'}, actClearBG},
	}
	for _, tc := range cases {
		got, ok := lookup(b, tc.ev)
		if !ok || got != tc.want {
			t.Errorf("lookup(%+v) = %q, %v; want %q", tc.ev, got, ok, tc.want)
		}
	}
	if _, ok := lookup(b, key.Event{Rune: 'k'}); ok {
		t.Errorf("unbound key matched")
	}
}

func TestQuitAndRestartNeedConfirmation(t *testing.T) {
	c := newTestController(t)
	if press(t, c, actQuit) {
		t.Fatalf("quit on first press")
	}
	if c.activeMessage() == "" {
		t.Errorf("expected confirmation prompt")
	}
	c.cancelPending()
	if press(t, c, actQuit) {
		t.Fatalf("quit after cancelled confirmation")
	}
	if !press(t, c, actQuit) {
		t.Fatalf("second press did not quit")
	}

	c.press(image.Pt(60, 45))
	c.release(image.Pt(60, 45))
	before := c.sess.State().Undoable
	press(t, c, actRestart)
	if c.sess.State().Undoable != before {
		t.Fatalf("restart ran without confirmation")
	}
	press(t, c, actRestart)
	if c.sess.State().Undoable != before+1 {
		t.Errorf("restart was not recorded in history")
	}
	if a := c.sess.Drawing().NRGBAAt(60, 45).A; a != 0 {
		t.Errorf("paint left after restart: alpha %d", a)
	}
}

func TestStrokeAndUndo(t *testing.T) {
	c := newTestController(t)
	c.move(image.Pt(60, 45), true)
	c.press(image.Pt(60, 45))
	c.move(image.Pt(70, 45), true)
	c.release(image.Pt(70, 45))
	if c.sess.Drawing().NRGBAAt(60, 45).A == 0 {
		t.Fatalf("stroke left no paint")
	}
	press(t, c, actUndo)
	if a := c.sess.Drawing().NRGBAAt(60, 45).A; a != 0 {
		t.Errorf("undo left alpha %d", a)
	}
	press(t, c, actUndo)
	if c.activeMessage() != "nothing to undo" {
		t.Errorf("message = %q", c.activeMessage())
	}
	c.release(image.Pt(0, 0))
}

func TestBrushKeys(t *testing.T) {
	c := newTestController(t)
	start := c.sess.State()
	press(t, c, actSizeUp)
	press(t, c, actOpacityDown)
	press(t, c, actEraser)
	st := c.sess.State()
	if st.SizeIndex != start.SizeIndex+1 || st.OpacityIndex != start.OpacityIndex-1 || !st.Eraser {
		t.Errorf("unexpected state %+v", st)
	}
	press(t, c, actSizeDown)
	press(t, c, actSizeDown)
	if c.sess.State().SizeIndex != 0 {
		t.Errorf("size did not clamp at the lowest level")
	}
}

func TestPaletteSelection(t *testing.T) {
	p := &palette.Palette{Name: "two", Swatches: []palette.Swatch{
		{Name: "ink", Color: color.NRGBA{0x10, 0x10, 0x10, 0xFF}},
		{Name: "chalk", Color: color.NRGBA{0xF0, 0xF0, 0xF0, 0xFF}},
	}}
	c := newTestController(t, WithPalette(p))
	if !c.digit('2') {
		t.Fatalf("digit not handled")
	}
	if c.sess.Brush().Color != p.At(1).Color {
		t.Errorf("colour = %v", c.sess.Brush().Color)
	}
	if !c.digit('9') || c.colorIdx != 1 {
		t.Errorf("out of range digit changed selection to %d", c.colorIdx)
	}
	press(t, c, actNextColor)
	if c.colorIdx != 0 {
		t.Errorf("next colour did not wrap: %d", c.colorIdx)
	}
	press(t, c, actPrevColor)
	if c.colorIdx != 1 {
		t.Errorf("previous colour did not wrap: %d", c.colorIdx)
	}
	if c.digit('x') {
		t.Errorf("letter handled as digit")
	}
}

func TestSaveWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	origNow := now
	now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = origNow })

	c := newTestController(t, WithSaveDir(filepath.Join(dir, "pieces")))
	press(t, c, actSave)
	want := filepath.Join(dir, "pieces", "spraycan-20240501-123000.png")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected %s: %v", want, err)
	}
}

func TestClipboardFailureKeepsState(t *testing.T) {
	origRead, origWrite := readClipboard, writeClipboard
	t.Cleanup(func() { readClipboard, writeClipboard = origRead, origWrite })
	readClipboard = func() (image.Image, error) { return nil, errors.New("no display") }
	var copied image.Image
	writeClipboard = func(img image.Image) error { copied = img; return nil }

	c := newTestController(t)
	press(t, c, actPaste)
	if c.sess.State().HasBackground {
		t.Errorf("failed paste set a background")
	}
	press(t, c, actCopy)
	if copied == nil || copied.Bounds().Dx() != 120 {
		t.Errorf("copy did not export the canvas: %v", copied)
	}

	readClipboard = func() (image.Image, error) { return image.NewNRGBA(image.Rect(0, 0, 10, 10)), nil }
	press(t, c, actPaste)
	if !c.sess.State().HasBackground {
		t.Errorf("paste did not set the background")
	}
}

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestReloadShortcuts(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, "wall.png")
	writePNG(t, bg, color.NRGBA{G: 200, A: 255})

	c := newTestController(t, WithSources(Sources{Background: bg}))
	press(t, c, actReloadTemplate)
	if msg := c.activeMessage(); msg != "no template file to reload" {
		t.Errorf("message = %q", msg)
	}

	press(t, c, actReloadBG)
	st := c.sess.State()
	if !st.HasBackground || st.BackgroundPath != bg {
		t.Fatalf("background not loaded: %+v", st)
	}
	press(t, c, actClearBG)
	undoable := c.sess.State().Undoable
	press(t, c, actReloadBG)
	if st := c.sess.State(); !st.HasBackground || st.Undoable != undoable+1 {
		t.Errorf("reload after clear: %+v", st)
	}
	if got := c.sess.Composite().NRGBAAt(60, 45); got.G != 200 || got.R != 0 {
		t.Errorf("composite pixel %v, want the reloaded background", got)
	}

	if err := os.WriteFile(bg, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	undoable = c.sess.State().Undoable
	press(t, c, actReloadBG)
	if st := c.sess.State(); !st.HasBackground || st.Undoable != undoable {
		t.Errorf("failed reload changed state: %+v", st)
	}
	if c.activeMessage() == "" {
		t.Errorf("failed reload was not reported")
	}
}

func TestReloadKeysAreBound(t *testing.T) {
	b := newTestController(t).bindings()
	for r, want := range map[rune]string{'b': actReloadBG, 't': actReloadTemplate, 'l': actReloadSound} {
		got, ok := lookup(b, key.Event{Rune: r, Modifiers: key.ModControl})
		if !ok || got != want {
			t.Errorf("Ctrl+%c = %q, %v; want %q", r, got, ok, want)
		}
	}
}
