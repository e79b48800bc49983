// Package session coordinates a drawing: it owns the layer stack, the brush,
// the undo history and the stroke state machine, and publishes the composite
// buffer read by the display.
//
// All methods except Composite must be called from a single goroutine, in
// event order. Composite may be called from any goroutine; the buffer it
// returns is never modified afterwards.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/example/spraycan/internal/assets"
	"github.com/example/spraycan/internal/audio"
	"github.com/example/spraycan/internal/export"
	"github.com/example/spraycan/internal/history"
	"github.com/example/spraycan/internal/layers"
	"github.com/example/spraycan/internal/render"
	"github.com/example/spraycan/internal/spray"
)

// StrokeState is the state of the stroke state machine.
type StrokeState int

const (
	Idle StrokeState = iota
	Spraying
)

func (s StrokeState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Spraying:
		return "spraying"
	}
	return fmt.Sprintf("StrokeState(%d)", int(s))
}

// DrawingState is a read-only view of the session for display and tests.
type DrawingState struct {
	Width, Height int
	Color         color.NRGBA
	Radius        int
	SizeIndex     int
	Opacity       int
	OpacityIndex  int
	Eraser        bool
	Stroke        StrokeState
	HasBackground bool
	HasTemplate   bool
	Sound         string
	// BackgroundPath and TemplatePath are the last files loaded into the
	// layers, kept after the layer is cleared so it can be reloaded.
	BackgroundPath string
	TemplatePath   string
	// Undoable is the number of undo steps available.
	Undoable int
}

type stroke struct {
	state   StrokeState
	last    image.Point
	painted bool
	updates int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRand sets the random source used by the spray engine. A fixed seed
// makes strokes reproducible.
func WithRand(src spray.Source) Option {
	return func(s *Session) { s.rng = src }
}

// WithPlayer sets the audio player used while spraying.
func WithPlayer(p audio.Player) Option {
	return func(s *Session) {
		if p != nil {
			s.player = p
		}
	}
}

// WithPlayerFactory sets how a player is created when a sound is loaded.
func WithPlayerFactory(f func(path string) audio.Player) Option {
	return func(s *Session) { s.newPlayer = f }
}

// Session is the drawing coordinator.
type Session struct {
	cfg Config
	log *zap.Logger
	rng spray.Source

	stack   *layers.Stack
	engine  *spray.Engine
	history *history.Stack

	sizes     spray.Levels
	opacities spray.Levels
	color     color.NRGBA
	eraser    bool

	stroke    stroke
	composite atomic.Pointer[image.NRGBA]

	player    audio.Player
	newPlayer func(path string) audio.Player
	sound     string
	fellBack  bool

	// last files loaded into each layer
	backgroundPath string
	templatePath   string
}

// New allocates the canvas and records the initial state as the undo floor.
// When the configured size cannot be allocated the fallback size is used.
func New(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{cfg: cfg, log: zap.NewNop(), player: audio.Nop{}}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>32))
	}
	if s.newPlayer == nil {
		log := s.log
		s.newPlayer = func(path string) audio.Player {
			return audio.NewCommandPlayer(path, audio.WithLogger(log))
		}
	}

	stack, err := layers.NewStack(cfg.Width, cfg.Height)
	if err != nil {
		if !errors.Is(err, render.ErrAllocation) || cfg.FallbackWidth <= 0 || cfg.FallbackHeight <= 0 {
			return nil, err
		}
		s.log.Warn("canvas allocation failed, using fallback size",
			zap.Int("width", cfg.Width), zap.Int("height", cfg.Height),
			zap.Int("fallback_width", cfg.FallbackWidth), zap.Int("fallback_height", cfg.FallbackHeight),
			zap.Error(err))
		stack, err = layers.NewStack(cfg.FallbackWidth, cfg.FallbackHeight)
		if err != nil {
			return nil, fmt.Errorf("fallback canvas: %w", err)
		}
		s.fellBack = true
	}
	s.stack = stack
	s.engine = spray.New(s.rng, spray.WithConfig(cfg.Spray))
	s.history = history.New(cfg.HistoryDepth)
	s.sizes = spray.NewLevels(cfg.SizeLevels, cfg.SizeIndex)
	s.opacities = spray.NewLevels(cfg.OpacityLevels, cfg.OpacityIndex)
	s.color = cfg.Color
	s.color.A = 255

	s.publish()
	s.history.Push(s.entry())

	if cfg.Sound != "" {
		if err := s.SetSound(cfg.Sound); err != nil {
			s.log.Warn("spray sound not loaded", zap.Error(err))
		}
	}
	return s, nil
}

// FellBack reports whether the canvas uses the fallback size.
func (s *Session) FellBack() bool { return s.fellBack }

// Size returns the canvas dimensions.
func (s *Session) Size() image.Point { return s.stack.Size() }

// Composite returns the current composite buffer. Callers must not modify it.
func (s *Session) Composite() *image.NRGBA { return s.composite.Load() }

// Drawing returns a copy of the drawing layer.
func (s *Session) Drawing() *image.NRGBA { return render.Copy(s.stack.Drawing) }

// Background returns the current background layer, or nil.
func (s *Session) Background() *image.NRGBA { return s.stack.Background }

// Template returns the current template layer, or nil.
func (s *Session) Template() *layers.Template { return s.stack.Template }

// Brush returns the brush applied by the next spray.
func (s *Session) Brush() spray.Brush {
	return spray.Brush{
		Color:   s.color,
		Radius:  s.sizes.Value(),
		Opacity: s.opacities.Value(),
		Eraser:  s.eraser,
	}
}

// State returns a snapshot of the session state.
func (s *Session) State() DrawingState {
	size := s.stack.Size()
	return DrawingState{
		Width:          size.X,
		Height:         size.Y,
		Color:          s.color,
		Radius:         s.sizes.Value(),
		SizeIndex:      s.sizes.Index(),
		Opacity:        s.opacities.Value(),
		OpacityIndex:   s.opacities.Index(),
		Eraser:         s.eraser,
		Stroke:         s.stroke.state,
		HasBackground:  s.stack.Background != nil,
		HasTemplate:    s.stack.Template != nil,
		Sound:          s.sound,
		BackgroundPath: s.backgroundPath,
		TemplatePath:   s.templatePath,
		Undoable:       max(s.history.Len()-1, 0),
	}
}

func (s *Session) publish() {
	s.composite.Store(s.stack.Composite())
}

// entry captures the committed state. The published composite is shared
// since it is never modified.
func (s *Session) entry() history.Entry {
	return history.Entry{
		Composite:  s.Composite(),
		Drawing:    render.Copy(s.stack.Drawing),
		Background: s.stack.Background,
		Template:   s.stack.Template,
	}
}

func (s *Session) restore(e history.Entry) {
	s.stack.Drawing = render.Copy(e.Drawing)
	s.stack.Background = e.Background
	s.stack.Template = e.Template
	if e.Composite != nil {
		s.composite.Store(e.Composite)
	} else {
		s.publish()
	}
}

// PointerDown starts a stroke at p: the current state is recorded for undo,
// the spray sound starts unless erasing, and one application is made at p.
func (s *Session) PointerDown(p image.Point) {
	if s.stroke.state == Spraying {
		s.PointerMove(p)
		return
	}
	s.history.Push(s.entry())
	s.stroke = stroke{state: Spraying, last: p}
	if !s.eraser {
		s.startAudio()
	}
	s.log.Debug("stroke started", zap.Int("x", p.X), zap.Int("y", p.Y), zap.Bool("eraser", s.eraser))
	s.apply(p)
}

// PointerMove continues the stroke at p. Moves outside a stroke are ignored.
func (s *Session) PointerMove(p image.Point) {
	if s.stroke.state != Spraying {
		return
	}
	if s.stationary(p) {
		if !s.eraser && !s.player.Playing() {
			s.startAudio()
		}
		return
	}
	s.apply(p)
	s.stroke.last = p
}

// PointerUp ends the stroke. The history entry recorded at pointer-down is
// sealed with the finished stroke so a single undo reverts it; a stroke that
// changed nothing leaves no entry.
func (s *Session) PointerUp(p image.Point) {
	if s.stroke.state != Spraying {
		return
	}
	s.stopAudio()
	painted := s.stroke.painted
	s.stroke = stroke{state: Idle, last: p}
	if !painted {
		s.history.Drop()
		return
	}
	s.publish()
	s.history.ReplaceTop(s.entry())
	s.log.Debug("stroke finished", zap.Int("history", s.history.Len()))
}

func (s *Session) endStroke() {
	if s.stroke.state == Spraying {
		s.PointerUp(s.stroke.last)
	}
}

func (s *Session) stationary(p image.Point) bool {
	if !s.cfg.Sensor.Enabled {
		return false
	}
	d := p.Sub(s.stroke.last)
	return abs(d.X) < s.cfg.Sensor.Threshold && abs(d.Y) < s.cfg.Sensor.Threshold
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (s *Session) apply(p image.Point) {
	if s.engine.Apply(s.stack.Drawing, p, s.Brush()).Empty() {
		return
	}
	s.stroke.painted = true
	s.stroke.updates++
	if every := s.cfg.RecompositeEvery; every <= 1 || s.stroke.updates%every == 0 {
		s.publish()
	}
}

func (s *Session) startAudio() {
	if err := s.player.PlayLoop(); err != nil {
		s.log.Warn("spray sound failed to start", zap.Error(err))
	}
}

func (s *Session) stopAudio() {
	if err := s.player.Stop(); err != nil {
		s.log.Warn("spray sound failed to stop", zap.Error(err))
	}
}

// Undo reverts the last stroke or layer change. It reports false when there
// is nothing to undo.
func (s *Session) Undo() bool {
	s.endStroke()
	e, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(e)
	return true
}

// Restart clears the drawing layer, keeping background and template.
func (s *Session) Restart() {
	s.endStroke()
	s.stack.ResetDrawing()
	s.reloaded("restart")
}

func (s *Session) reloaded(what string) {
	s.publish()
	s.history.Push(s.entry())
	s.log.Debug("layers reloaded", zap.String("action", what))
}

// SetBackground replaces the background layer. img must match the canvas
// size; nil removes the background.
func (s *Session) SetBackground(img *image.NRGBA) error {
	s.endStroke()
	if err := s.stack.SetBackground(img); err != nil {
		return &assets.LoadError{Kind: assets.KindBackground, Err: err}
	}
	s.reloaded("background")
	return nil
}

// ClearBackground removes the background layer.
func (s *Session) ClearBackground() {
	if s.stack.Background == nil {
		return
	}
	_ = s.SetBackground(nil)
}

// LoadBackground reads an image file and installs it as the background. On
// error the current background is kept.
func (s *Session) LoadBackground(path string) error {
	size := s.Size()
	img, err := assets.LoadBackground(path, size.X, size.Y)
	if err != nil {
		return err
	}
	if err := s.SetBackground(img); err != nil {
		return err
	}
	s.backgroundPath = path
	return nil
}

// PasteBackground fits an already decoded image as the background.
func (s *Session) PasteBackground(img image.Image) error {
	if img == nil {
		return &assets.LoadError{Kind: assets.KindClipboard, Err: errors.New("no image")}
	}
	size := s.Size()
	return s.SetBackground(assets.FitBackground(img, size.X, size.Y))
}

// SetTemplate replaces the template layer; nil removes it.
func (s *Session) SetTemplate(t *layers.Template) {
	s.endStroke()
	s.stack.SetTemplate(t)
	s.reloaded("template")
}

// ClearTemplate removes the template layer.
func (s *Session) ClearTemplate() {
	if s.stack.Template == nil {
		return
	}
	s.SetTemplate(nil)
}

// LoadTemplate reads an image file and installs it as the template using the
// configured size, opacity and anchor. On error the current template is kept.
func (s *Session) LoadTemplate(path string) error {
	t, err := assets.LoadTemplate(path, s.cfg.Template)
	if err != nil {
		return err
	}
	s.SetTemplate(t)
	s.templatePath = path
	return nil
}

// SetSound validates and installs the spray sound. On error the previous
// sound is kept.
func (s *Session) SetSound(path string) error {
	if err := assets.CheckSound(path); err != nil {
		return err
	}
	s.stopAudio()
	s.player = s.newPlayer(path)
	s.sound = path
	return nil
}

// SetColor sets the paint colour. Alpha is ignored; opacity comes from the
// opacity level.
func (s *Session) SetColor(c color.NRGBA) {
	c.A = 255
	s.color = c
}

// IncreaseSize moves to the next larger brush size.
func (s *Session) IncreaseSize() bool { return s.sizes.Increase() }

// DecreaseSize moves to the next smaller brush size.
func (s *Session) DecreaseSize() bool { return s.sizes.Decrease() }

// SelectSize selects a size level by index, clamped.
func (s *Session) SelectSize(idx int) int { return s.sizes.Select(idx) }

// IncreaseOpacity moves to the next higher opacity level.
func (s *Session) IncreaseOpacity() bool { return s.opacities.Increase() }

// DecreaseOpacity moves to the next lower opacity level.
func (s *Session) DecreaseOpacity() bool { return s.opacities.Decrease() }

// SelectOpacity selects an opacity level by index, clamped.
func (s *Session) SelectOpacity(idx int) int { return s.opacities.Select(idx) }

// SetEraser switches eraser mode. Entering it mid-stroke silences the spray
// sound.
func (s *Session) SetEraser(on bool) {
	s.eraser = on
	if on && s.stroke.state == Spraying {
		s.stopAudio()
	}
}

// ToggleEraser flips eraser mode and returns the new mode.
func (s *Session) ToggleEraser() bool {
	s.SetEraser(!s.eraser)
	return s.eraser
}

// ExportImage composes the image to save with the selected layers.
func (s *Session) ExportImage(opts export.Options) *image.NRGBA {
	return export.Compose(export.Layers{
		Background: s.stack.Background,
		Template:   s.stack.Template,
		Drawing:    s.stack.Drawing,
	}, opts)
}

// Save writes the selected layers to path.
func (s *Session) Save(path string, opts export.Options) error {
	return export.Save(path, s.ExportImage(opts))
}

// Close ends any stroke in progress and stops the sound.
func (s *Session) Close() {
	s.endStroke()
	s.stopAudio()
}
