package appstate

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/spraycan/internal/export"
	"github.com/example/spraycan/internal/notify"
	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
)

const frameDropThreshold = 3

// Sources names the files the reload shortcuts fall back to before anything
// was loaded in the window.
type Sources struct {
	Background string
	Template   string
	Sound      string
}

// AppState is the paint window. It forwards pointer and key input to a
// drawing session and shows the session's published composite.
type AppState struct {
	Session     *session.Session
	Palette     *palette.Palette
	Notifier    *notify.Notifier
	Output      string
	SaveDir     string
	SaveOptions export.Options
	Title       string
	Sources     Sources

	log       *zap.Logger
	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithPalette sets the swatches offered in the window.
func WithPalette(p *palette.Palette) Option { return func(a *AppState) { a.Palette = p } }

// WithNotifier sets the desktop notifier used on save and failure.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithOutput sets the file written by the save shortcut. When empty a
// timestamped name in the save directory is used.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithSaveDir sets the directory for timestamped saves.
func WithSaveDir(dir string) Option { return func(a *AppState) { a.SaveDir = dir } }

// WithSaveOptions selects the layers written by the save shortcut.
func WithSaveOptions(opts export.Options) Option {
	return func(a *AppState) { a.SaveOptions = opts }
}

// WithSources sets the files offered by the reload shortcuts.
func WithSources(src Sources) Option { return func(a *AppState) { a.Sources = src } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithLogger sets the window logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *AppState) {
		if l != nil {
			a.log = l
		}
	}
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState driving sess.
func New(sess *session.Session, opts ...Option) *AppState {
	a := &AppState{
		Session:     sess,
		SaveOptions: export.DefaultOptions(),
		Title:       "Spraycan",
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		a.Session.Close()
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window on screen s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	defer a.notifyClose()

	canvas := a.Session.Size()
	width := canvas.X + swatchWidth
	height := canvas.Y + statusHeight + bottomHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		a.log.Error("new window", zap.Error(err))
		a.Notifier.Failure(fmt.Errorf("new window: %w", err))
		return
	}
	defer w.Release()

	ctl := newController(a)
	bindings := ctl.bindings()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st, a.log)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	stopPainting := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	zoom := fitZoom(canvas, width, height)
	hoverShortcut := -1
	var swatches []*SwatchButton
	var shortcuts []*Shortcut

	// Expired messages need a frame without them.
	var expiry *time.Timer
	scheduleClear := func() {
		if msg := ctl.activeMessage(); msg != "" {
			if expiry != nil {
				expiry.Stop()
			}
			expiry = time.AfterFunc(messageExpiry(ctl.messageUntil), func() { w.Send(paint.Event{}) })
		}
	}
	defer func() {
		if expiry != nil {
			expiry.Stop()
		}
	}()

	trigger := func(action string) {
		if ctl.key(action) {
			stopPainting()
			w.Send(lifecycle.Event{To: lifecycle.StageDead})
			return
		}
		scheduleClear()
		w.Send(paint.Event{})
	}
	relayout := func() {
		zoom = fitZoom(canvas, width, height)
		swatches = layoutSwatches(ctl.palette, ctl.colorIdx, height)
		for i, sb := range swatches {
			idx := i
			sb.onSelect = func() { ctl.selectColor(idx) }
		}
		shortcuts = layoutShortcuts(width, height, trigger)
	}
	relayout()

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPainting()
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			relayout()
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			for i, sb := range swatches {
				sb.selected = i == ctl.colorIdx
			}
			st := a.Session.State()
			frame := paintState{
				width:         width,
				height:        height,
				composite:     a.Session.Composite(),
				zoom:          zoom,
				state:         st,
				swatchName:    ctl.palette.At(ctl.colorIdx).Name,
				swatches:      cloneSwatches(swatches),
				shortcuts:     shortcuts,
				hoverShortcut: hoverShortcut,
				cursor:        ctl.hover,
				showCursor:    ctl.inside && st.Stroke == session.Idle,
				message:       ctl.activeMessage(),
			}
			select {
			case paintCh <- frame:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- frame
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			rect := canvasRect(canvas, width, height, zoom)
			cp := toCanvas(p, rect, zoom)

			if !ctl.pressed && p.Y >= height-bottomHeight {
				hoverShortcut = -1
				for i, sc := range shortcuts {
					if p.In(sc.Rect()) {
						hoverShortcut = i
						if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
							sc.Activate()
						}
						break
					}
				}
				w.Send(paint.Event{})
				continue
			}
			if !ctl.pressed && p.X < swatchWidth {
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					for _, sb := range swatches {
						if p.In(sb.Rect()) {
							sb.Activate()
							scheduleClear()
							break
						}
					}
				}
				ctl.move(cp, false)
				w.Send(paint.Event{})
				continue
			}

			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				ctl.cancelPending()
				ctl.press(cp)
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				ctl.release(cp)
			case e.Button == mouse.ButtonWheelUp:
				a.Session.IncreaseSize()
			case e.Button == mouse.ButtonWheelDown:
				a.Session.DecreaseSize()
			case e.Direction == mouse.DirNone:
				ctl.move(cp, p.In(rect))
			}
			w.Send(paint.Event{})
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if action, ok := lookup(bindings, e); ok {
				if ctl.key(action) {
					stopPainting()
					return
				}
			} else if ctl.digit(e.Rune) {
				ctl.cancelPending()
			} else {
				ctl.cancelPending()
				continue
			}
			scheduleClear()
			w.Send(paint.Event{})
		case error:
			a.log.Warn("window event", zap.Error(e))
		}
	}
}

// cloneSwatches copies the buttons so the paint goroutine never sees a
// later selection change mid-frame.
func cloneSwatches(in []*SwatchButton) []*SwatchButton {
	out := make([]*SwatchButton, len(in))
	for i, sb := range in {
		c := *sb
		out[i] = &c
	}
	return out
}
