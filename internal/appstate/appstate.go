package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"

	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
)

const (
	statusHeight = 24
	bottomHeight = 24
	swatchWidth  = 28
)

var (
	barColor     = color.RGBA{220, 220, 220, 255}
	checkerLight = color.RGBA{220, 220, 220, 255}
	checkerDark  = color.RGBA{192, 192, 192, 255}
)

// fitZoom returns the largest scale at which a canvas of the given size fits
// the drawing area of the window.
func fitZoom(canvas image.Point, winW, winH int) float64 {
	availW := winW - swatchWidth
	availH := winH - statusHeight - bottomHeight
	if canvas.X <= 0 || canvas.Y <= 0 || availW <= 0 || availH <= 0 {
		return 1
	}
	zx := float64(availW) / float64(canvas.X)
	zy := float64(availH) / float64(canvas.Y)
	return math.Min(zx, zy)
}

// canvasRect returns where the canvas is drawn in window coordinates. The
// canvas is centred in the drawing area.
func canvasRect(canvas image.Point, winW, winH int, zoom float64) image.Rectangle {
	w := int(float64(canvas.X) * zoom)
	h := int(float64(canvas.Y) * zoom)
	x0 := swatchWidth + (winW-swatchWidth-w)/2
	y0 := statusHeight + (winH-statusHeight-bottomHeight-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// toCanvas maps a window position onto canvas coordinates. Positions outside
// the canvas map outside the canvas bounds.
func toCanvas(p image.Point, dst image.Rectangle, zoom float64) image.Point {
	if zoom <= 0 {
		zoom = 1
	}
	return image.Pt(
		int(math.Floor(float64(p.X-dst.Min.X)/zoom)),
		int(math.Floor(float64(p.Y-dst.Min.Y)/zoom)),
	)
}

// toWindow is the inverse of toCanvas.
func toWindow(p image.Point, dst image.Rectangle, zoom float64) image.Point {
	return image.Pt(
		dst.Min.X+int(float64(p.X)*zoom),
		dst.Min.Y+int(float64(p.Y)*zoom),
	)
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// lookup finds the action for a key press. Shift is ignored for symbols so
// that '+' matches regardless of keyboard layout.
func lookup(bindings map[KeyShortcut]string, e key.Event) (string, bool) {
	if e.Code != key.CodeUnknown {
		if name, ok := bindings[KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}]; ok {
			return name, true
		}
	}
	ks := KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers}
	if name, ok := bindings[ks]; ok {
		return name, true
	}
	if ks.Rune > 0 && !unicode.IsLetter(ks.Rune) {
		ks.Modifiers &^= key.ModShift
		name, ok := bindings[ks]
		return name, ok
	}
	return "", false
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// Shortcut is a clickable label in the bottom bar.
type Shortcut struct {
	label  string
	action func()
	rect   image.Rectangle
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState) {
	col := color.RGBA{200, 200, 200, 255}
	switch state {
	case StateHover:
		col = color.RGBA{180, 180, 180, 255}
	case StatePressed:
		col = color.RGBA{150, 150, 150, 255}
	}
	draw.Draw(dst, s.rect, &image.Uniform{col}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, color.Black, 1)
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle     { return s.rect }
func (s *Shortcut) SetRect(r image.Rectangle) { s.rect = r }

func (s *Shortcut) Activate() {
	if s.action != nil {
		s.action()
	}
}

// SwatchButton selects a palette colour.
type SwatchButton struct {
	swatch   palette.Swatch
	selected bool
	rect     image.Rectangle
	onSelect func()
}

func (b *SwatchButton) Draw(dst *image.RGBA, state ButtonState) {
	draw.Draw(dst, b.rect.Inset(2), &image.Uniform{b.swatch.Color}, image.Point{}, draw.Src)
	border := color.Color(color.RGBA{128, 128, 128, 255})
	thick := 1
	if b.selected || state == StateHover {
		border = color.Black
		thick = 2
	}
	drawRect(dst, b.rect.Inset(1), border, thick)
}

func (b *SwatchButton) Rect() image.Rectangle     { return b.rect }
func (b *SwatchButton) SetRect(r image.Rectangle) { b.rect = r }

func (b *SwatchButton) Activate() {
	if b.onSelect != nil {
		b.onSelect()
	}
}

// layoutSwatches positions one button per palette colour down the left edge.
func layoutSwatches(p *palette.Palette, selected int, height int) []*SwatchButton {
	buttons := make([]*SwatchButton, 0, p.Len())
	size := swatchWidth
	if n := p.Len(); n > 0 {
		if avail := (height - statusHeight - bottomHeight) / n; avail < size {
			size = max(avail, 6)
		}
	}
	for i := 0; i < p.Len(); i++ {
		y := statusHeight + i*size
		buttons = append(buttons, &SwatchButton{
			swatch:   p.At(i),
			selected: i == selected,
			rect:     image.Rect(0, y, swatchWidth, y+size),
		})
	}
	return buttons
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

var (
	backdropMu    sync.Mutex
	backdropCache *image.RGBA
)

// drawBackdrop fills dst with a cached checkerboard pattern.
func drawBackdrop(dst *image.RGBA) {
	backdropMu.Lock()
	defer backdropMu.Unlock()
	b := dst.Bounds()
	if backdropCache == nil || backdropCache.Bounds() != b {
		backdropCache = image.NewRGBA(b)
		drawCheckerboard(backdropCache, backdropCache.Bounds(), 8, checkerLight, checkerDark)
	}
	draw.Draw(dst, b, backdropCache, image.Point{}, draw.Src)
}

func setPixel(img *image.RGBA, x, y int, col color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, col)
	}
}

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			setPixel(img, x+dx, y+dy, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// drawCircle draws a one pixel midpoint circle outline.
func drawCircle(img *image.RGBA, cx, cy, r int, col color.Color) {
	x := r
	y := 0
	err := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			setPixel(img, cx+p[0], cy+p[1], col)
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Min.Y, col, thick)
	drawLine(img, rect.Max.X-1, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, col, thick)
	drawLine(img, rect.Max.X-1, rect.Max.Y-1, rect.Min.X, rect.Max.Y-1, col, thick)
	drawLine(img, rect.Min.X, rect.Max.Y-1, rect.Min.X, rect.Min.Y, col, thick)
}

// drawCursor outlines the brush footprint with a small cross at its centre.
// The outline is drawn twice so it stays visible on light and dark paint.
func drawCursor(dst *image.RGBA, centre image.Point, radius int, col color.Color) {
	if radius < 2 {
		radius = 2
	}
	drawCircle(dst, centre.X, centre.Y, radius+1, color.White)
	drawCircle(dst, centre.X, centre.Y, radius, col)
	const arm = 4
	drawLine(dst, centre.X-arm, centre.Y, centre.X+arm, centre.Y, color.Black, 1)
	drawLine(dst, centre.X, centre.Y-arm, centre.X, centre.Y+arm, color.Black, 1)
}

// statusLine summarises the brush for the top bar.
func statusLine(st session.DrawingState, swatch string, zoom float64) string {
	mode := "spray"
	if st.Eraser {
		mode = "eraser"
	}
	line := fmt.Sprintf("%s  %s %s  size %d (%d)  opacity %d%%  undo %d  %dx%d @ %.0f%%",
		mode, palette.Hex(st.Color), swatch, st.Radius, st.SizeIndex+1, st.Opacity,
		st.Undoable, st.Width, st.Height, zoom*100)
	if st.HasTemplate {
		line += "  [template]"
	}
	if st.HasBackground {
		line += "  [background]"
	}
	return line
}

func drawStatus(dst *image.RGBA, width int, text string, col color.NRGBA) {
	rect := image.Rect(0, 0, width, statusHeight)
	draw.Draw(dst, rect, &image.Uniform{barColor}, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(4, 4, statusHeight-4, statusHeight-4), &image.Uniform{col}, image.Point{}, draw.Src)
	drawRect(dst, image.Rect(4, 4, statusHeight-4, statusHeight-4), color.Black, 1)
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(statusHeight+2, 16)}
	d.DrawString(text)
}

var shortcutLabels = []struct {
	label, action string
}{
	{"^Z:undo", actUndo},
	{"E:eraser", actEraser},
	{"+/-:size", actSizeUp},
	{",/.:opacity", actOpacityUp},
	{"[/]:colour", actNextColor},
	{"B/T:clear layer", actClearBG},
	{"^S:save", actSave},
	{"^C:copy", actCopy},
	{"^V:paste bg", actPaste},
	{"^B:reload bg", actReloadBG},
	{"R:restart", actRestart},
	{"Esc:quit", actQuit},
}

// layoutShortcuts builds the bottom bar buttons. trigger receives the action
// name when a label is clicked.
func layoutShortcuts(width, height int, trigger func(string)) []*Shortcut {
	x := swatchWidth + 4
	y := height - bottomHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	out := make([]*Shortcut, 0, len(shortcutLabels))
	for _, l := range shortcutLabels {
		action := l.action
		sc := &Shortcut{label: l.label, action: func() { trigger(action) }}
		w := meas.MeasureString(sc.label).Ceil()
		sc.SetRect(image.Rect(x-2, y-14, x+w+2, y+4))
		out = append(out, sc)
		x = sc.rect.Max.X + 8
	}
	return out
}

func drawShortcuts(dst *image.RGBA, width, height int, shortcuts []*Shortcut, hover int) {
	rect := image.Rect(0, height-bottomHeight, width, height)
	draw.Draw(dst, rect, &image.Uniform{barColor}, image.Point{}, draw.Src)
	for i, sc := range shortcuts {
		state := StateDefault
		if i == hover {
			state = StateHover
		}
		sc.Draw(dst, state)
	}
}

func drawMessage(dst *image.RGBA, width, height int, msg string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: face}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()
	px := (width - wmsg) / 2
	py := (height-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
	drawRect(dst, rect, color.Black, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

// paintState is everything a frame needs. It is captured on the event loop
// and rendered on the paint goroutine.
type paintState struct {
	width, height int
	composite     *image.NRGBA
	zoom          float64
	state         session.DrawingState
	swatchName    string
	swatches      []*SwatchButton
	shortcuts     []*Shortcut
	hoverShortcut int
	cursor        image.Point
	showCursor    bool
	message       string
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState, log *zap.Logger) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Warn("new buffer", zap.Error(err))
		return
	}
	defer b.Release()
	dst := b.RGBA()

	drawBackdrop(dst)
	if ctx.Err() != nil {
		return
	}

	img := st.composite
	rect := canvasRect(img.Bounds().Size(), st.width, st.height, st.zoom)
	scaler := xdraw.Interpolator(xdraw.ApproxBiLinear)
	if st.zoom >= 1 {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(dst, rect, img, img.Bounds(), draw.Over, nil)
	if ctx.Err() != nil {
		return
	}

	if st.showCursor {
		c := toWindow(st.cursor, rect, st.zoom)
		col := color.Color(st.state.Color)
		if st.state.Eraser {
			col = color.Black
		}
		drawCursor(dst, c, int(float64(st.state.Radius)*st.zoom), col)
	}

	drawStatus(dst, st.width, statusLine(st.state, st.swatchName, st.zoom), st.state.Color)
	draw.Draw(dst, image.Rect(0, statusHeight, swatchWidth, st.height-bottomHeight), &image.Uniform{barColor}, image.Point{}, draw.Src)
	for _, sb := range st.swatches {
		sb.Draw(dst, StateDefault)
	}
	drawShortcuts(dst, st.width, st.height, st.shortcuts, st.hoverShortcut)
	if ctx.Err() != nil {
		return
	}

	if st.message != "" {
		drawMessage(dst, st.width, st.height, st.message)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func messageExpiry(until time.Time) time.Duration {
	d := time.Until(until)
	if d < 0 {
		return 0
	}
	return d
}
