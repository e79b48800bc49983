package appstate

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mobile/event/key"

	"github.com/example/spraycan/internal/clipboard"
	"github.com/example/spraycan/internal/export"
	"github.com/example/spraycan/internal/notify"
	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
)

// Seams for tests.
var (
	writeClipboard = clipboard.WriteImage
	readClipboard  = clipboard.ReadImage
	now            = time.Now
)

const messageDuration = 2 * time.Second

// controller turns window input into session calls. It is owned by the
// event loop goroutine.
type controller struct {
	sess     *session.Session
	palette  *palette.Palette
	notifier *notify.Notifier
	log      *zap.Logger

	output  string
	saveDir string
	saveOpt export.Options
	sources Sources

	colorIdx int
	pressed  bool
	hover    image.Point
	inside   bool

	pending      string
	message      string
	messageUntil time.Time
}

// action names bound to keyboard shortcuts.
const (
	actUndo           = "undo"
	actEraser         = "eraser"
	actSizeUp         = "size+"
	actSizeDown       = "size-"
	actOpacityUp      = "opacity+"
	actOpacityDown    = "opacity-"
	actNextColor      = "color+"
	actPrevColor      = "color-"
	actClearBG        = "clearbg"
	actClearTemplate  = "cleartemplate"
	actToggleBG       = "savebg"
	actToggleTemplate = "savetemplate"
	actSave           = "save"
	actCopy           = "copy"
	actPaste          = "paste"
	actReloadBG       = "reloadbg"
	actReloadTemplate = "reloadtemplate"
	actReloadSound    = "reloadsound"
	actRestart        = "restart"
	actQuit           = "quit"
)

var defaultKeys = map[string]shortcutList{
	actUndo:           {{Rune: 'z', Modifiers: key.ModControl}, {Rune: 'u'}},
	actEraser:         {{Rune: 'e'}},
	actSizeUp:         {{Rune: '+'}, {Rune: '='}, {Code: key.CodeUpArrow}},
	actSizeDown:       {{Rune: '-'}, {Code: key.CodeDownArrow}},
	actOpacityUp:      {{Rune: '.'}, {Code: key.CodeRightArrow}},
	actOpacityDown:    {{Rune: ','}, {Code: key.CodeLeftArrow}},
	actNextColor:      {{Rune: ']'}},
	actPrevColor:      {{Rune: '['}},
	actClearBG:        {{Rune: 'b'}},
	actClearTemplate:  {{Rune: 't'}},
	actToggleBG:       {{Rune: 'b', Modifiers: key.ModShift}},
	actToggleTemplate: {{Rune: 't', Modifiers: key.ModShift}},
	actSave:           {{Rune: 's', Modifiers: key.ModControl}},
	actCopy:           {{Rune: 'c', Modifiers: key.ModControl}},
	actPaste:          {{Rune: 'v', Modifiers: key.ModControl}},
	actReloadBG:       {{Rune: 'b', Modifiers: key.ModControl}},
	actReloadTemplate: {{Rune: 't', Modifiers: key.ModControl}},
	actReloadSound:    {{Rune: 'l', Modifiers: key.ModControl}},
	actRestart:        {{Rune: 'r'}},
	actQuit:           {{Code: key.CodeEscape}, {Rune: 'q'}},
}

// confirmed lists the actions that need a second press.
var confirmed = map[string]string{
	actRestart: "press R again to restart",
	actQuit:    "press Esc again to quit",
}

func newController(a *AppState) *controller {
	c := &controller{
		sess:     a.Session,
		palette:  a.Palette,
		notifier: a.Notifier,
		log:      a.log,
		output:   a.Output,
		saveDir:  a.SaveDir,
		saveOpt:  a.SaveOptions,
		sources:  a.Sources,
	}
	if c.palette == nil {
		c.palette = palette.Default()
	}
	c.colorIdx = c.palette.Index(c.sess.Brush().Color)
	return c
}

func (c *controller) bindings() map[KeyShortcut]string {
	out := make(map[KeyShortcut]string)
	for name, keys := range defaultKeys {
		for _, sc := range keys.KeyboardShortcuts() {
			out[sc] = name
		}
	}
	return out
}

// press starts a stroke at canvas point p.
func (c *controller) press(p image.Point) {
	c.pressed = true
	c.sess.PointerDown(p)
}

func (c *controller) move(p image.Point, inside bool) {
	c.hover, c.inside = p, inside
	if c.pressed {
		c.sess.PointerMove(p)
	}
}

func (c *controller) release(p image.Point) {
	if !c.pressed {
		return
	}
	c.pressed = false
	c.sess.PointerUp(p)
}

// selectColor picks palette swatch idx as the spray colour.
func (c *controller) selectColor(idx int) {
	if c.palette.Len() == 0 {
		return
	}
	idx = ((idx % c.palette.Len()) + c.palette.Len()) % c.palette.Len()
	c.colorIdx = idx
	sw := c.palette.At(idx)
	c.sess.SetColor(sw.Color)
	c.say(fmt.Sprintf("colour %s", sw.Name))
}

func (c *controller) say(msg string) {
	c.message = msg
	c.messageUntil = now().Add(messageDuration)
	c.log.Debug(msg)
}

func (c *controller) fail(what string, err error) {
	c.log.Warn(what, zap.Error(err))
	c.say(fmt.Sprintf("%s: %v", what, err))
	c.notifier.Failure(fmt.Errorf("%s: %w", what, err))
}

// activeMessage returns the message to overlay, if any.
func (c *controller) activeMessage() string {
	if c.message != "" && now().Before(c.messageUntil) {
		return c.message
	}
	return ""
}

// digit handles the palette digit keys. 1-9 select the first nine swatches
// and 0 the tenth.
func (c *controller) digit(r rune) bool {
	if r < '0' || r > '9' {
		return false
	}
	idx := int(r - '1')
	if r == '0' {
		idx = 9
	}
	if idx >= c.palette.Len() {
		return true
	}
	c.selectColor(idx)
	return true
}

// key runs the action bound to name. It reports whether the window should
// close.
func (c *controller) key(name string) (quit bool) {
	if msg, ok := confirmed[name]; ok && c.pending != name {
		c.pending = name
		c.say(msg)
		return false
	}
	c.pending = ""

	switch name {
	case actUndo:
		if !c.sess.Undo() {
			c.say("nothing to undo")
		}
	case actEraser:
		if c.sess.ToggleEraser() {
			c.say("eraser on")
		} else {
			c.say("eraser off")
		}
	case actSizeUp:
		c.sess.IncreaseSize()
	case actSizeDown:
		c.sess.DecreaseSize()
	case actOpacityUp:
		c.sess.IncreaseOpacity()
	case actOpacityDown:
		c.sess.DecreaseOpacity()
	case actNextColor:
		c.selectColor(c.colorIdx + 1)
	case actPrevColor:
		c.selectColor(c.colorIdx - 1)
	case actClearBG:
		c.sess.ClearBackground()
	case actClearTemplate:
		c.sess.ClearTemplate()
	case actToggleBG:
		c.saveOpt.IncludeBackground = !c.saveOpt.IncludeBackground
		c.say(fmt.Sprintf("save background: %v", c.saveOpt.IncludeBackground))
	case actToggleTemplate:
		c.saveOpt.IncludeTemplate = !c.saveOpt.IncludeTemplate
		c.say(fmt.Sprintf("save template: %v", c.saveOpt.IncludeTemplate))
	case actSave:
		c.save()
	case actCopy:
		if err := writeClipboard(c.sess.ExportImage(c.saveOpt)); err != nil {
			c.fail("copy", err)
			return false
		}
		c.say("image copied to clipboard")
	case actPaste:
		img, err := readClipboard()
		if err == nil {
			err = c.sess.PasteBackground(img)
		}
		if err != nil {
			c.fail("paste", err)
			return false
		}
		c.say("background pasted")
	case actReloadBG, actReloadTemplate, actReloadSound:
		c.reload(name)
	case actRestart:
		c.sess.Restart()
		c.say("canvas cleared")
	case actQuit:
		return true
	}
	return false
}

// reload reads the layer or sound file again from disk. The last file loaded
// in the session wins over the startup sources.
func (c *controller) reload(action string) {
	st := c.sess.State()
	var kind, path string
	var load func(string) error
	switch action {
	case actReloadBG:
		kind, path, load = "background", firstNonEmpty(st.BackgroundPath, c.sources.Background), c.sess.LoadBackground
	case actReloadTemplate:
		kind, path, load = "template", firstNonEmpty(st.TemplatePath, c.sources.Template), c.sess.LoadTemplate
	case actReloadSound:
		kind, path, load = "sound", firstNonEmpty(st.Sound, c.sources.Sound), c.sess.SetSound
	default:
		return
	}
	if path == "" {
		c.say(fmt.Sprintf("no %s file to reload", kind))
		return
	}
	if err := load(path); err != nil {
		c.fail("reload "+kind, err)
		return
	}
	c.say(fmt.Sprintf("%s reloaded", kind))
	c.notifier.Load(kind, path)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// cancelPending forgets an unconfirmed restart or quit.
func (c *controller) cancelPending() { c.pending = "" }

func (c *controller) savePath() string {
	if c.output != "" {
		return c.output
	}
	name := fmt.Sprintf("spraycan-%s.png", now().Format("20060102-150405"))
	if c.saveDir != "" {
		return filepath.Join(c.saveDir, name)
	}
	return name
}

func (c *controller) save() {
	path := c.savePath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.fail("save", err)
			return
		}
	}
	if err := c.sess.Save(path, c.saveOpt); err != nil {
		c.fail("save", err)
		return
	}
	c.say(fmt.Sprintf("saved %s", path))
	c.notifier.Save(path)
}
