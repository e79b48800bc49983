package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/spraycan/internal/appstate"
	"github.com/example/spraycan/internal/clipboard"
	"github.com/example/spraycan/internal/export"
	"github.com/example/spraycan/internal/session"
)

// paintCmd opens the interactive paint window.
type paintCmd struct {
	*root
	fs            *flag.FlagSet
	background    string
	template      string
	sound         string
	output        string
	fromClipboard bool
	include       includeFlags
}

func (p *paintCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func (p *paintCmd) Program() string {
	return p.root.program + " paint"
}

func (p *paintCmd) Template() string {
	return "paint.txt"
}

func parsePaintCmd(args []string, r *root) (*paintCmd, error) {
	fs := flag.NewFlagSet("paint", flag.ExitOnError)
	cmd := &paintCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.background, "background", "", "image file shown behind the paint")
	fs.StringVar(&cmd.template, "template", "", "stencil image drawn translucently over the background")
	fs.StringVar(&cmd.sound, "sound", "", "sound file looped while spraying (overrides the config)")
	fs.StringVar(&cmd.output, "output", "", "file written by Ctrl+S (default: timestamped name in save_dir)")
	fs.BoolVar(&cmd.fromClipboard, "from-clipboard", false, "use the clipboard image as the background")
	cmd.include.register(fs, export.Options{IncludeBackground: true})
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	if cmd.fromClipboard && cmd.background != "" {
		return nil, fmt.Errorf("-from-clipboard cannot be combined with -background")
	}
	if cmd.output != "" {
		if _, err := export.FormatFromPath(cmd.output); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

func (p *paintCmd) Run() error {
	cfg, err := p.sessionConfig()
	if err != nil {
		return err
	}
	if p.sound != "" {
		cfg.Sound = ""
	}
	sess, err := session.New(cfg, p.sessionOptions()...)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	if sess.FellBack() {
		size := sess.Size()
		p.log.Warn("using fallback canvas", zap.Int("width", size.X), zap.Int("height", size.Y))
	}
	if err := p.loadLayers(sess, layerSources{
		background:    p.background,
		template:      p.template,
		fromClipboard: p.fromClipboard,
	}); err != nil {
		sess.Close()
		return err
	}
	if p.sound != "" {
		if err := sess.SetSound(p.sound); err != nil {
			p.notifyFailure(err)
			sess.Close()
			return err
		}
		p.notifyLoad("sound", p.sound)
	}

	saveDir := ""
	if p.config != nil {
		saveDir = p.config.SaveDir
	}
	app := appstate.New(sess,
		appstate.WithPalette(p.activePalette),
		appstate.WithNotifier(p.notifier),
		appstate.WithOutput(p.output),
		appstate.WithSaveDir(saveDir),
		appstate.WithSaveOptions(p.include.options()),
		appstate.WithSources(appstate.Sources{
			Background: p.background,
			Template:   p.template,
			Sound:      sess.State().Sound,
		}),
		appstate.WithLogger(p.log),
	)
	app.Run()
	return nil
}

// layerSources names the images installed before painting starts.
type layerSources struct {
	background    string
	template      string
	fromClipboard bool
}

func (r *root) loadLayers(sess *session.Session, src layerSources) error {
	if src.fromClipboard {
		img, err := clipboard.ReadImage()
		if err == nil {
			err = sess.PasteBackground(img)
		}
		if err != nil {
			err = fmt.Errorf("read clipboard: %w", err)
			r.notifyFailure(err)
			return err
		}
		r.notifyLoad("background", "clipboard")
	}
	if src.background != "" {
		if err := sess.LoadBackground(src.background); err != nil {
			r.notifyFailure(err)
			return err
		}
		r.notifyLoad("background", src.background)
	}
	if src.template != "" {
		if err := sess.LoadTemplate(src.template); err != nil {
			r.notifyFailure(err)
			return err
		}
		r.notifyLoad("template", src.template)
	}
	return nil
}

// includeFlags are the save layer selections shared by paint and spray.
type includeFlags struct {
	background  bool
	template    bool
	transparent bool
}

func (f *includeFlags) register(fs *flag.FlagSet, def export.Options) {
	fs.BoolVar(&f.background, "include-background", def.IncludeBackground, "include the background layer in the saved image")
	fs.BoolVar(&f.template, "include-template", def.IncludeTemplate, "include the template layer in the saved image")
	fs.BoolVar(&f.transparent, "transparent", def.Transparent, "keep transparency when no background or template is included")
}

func (f includeFlags) options() export.Options {
	return export.Options{
		IncludeBackground: f.background,
		IncludeTemplate:   f.template,
		Transparent:       f.transparent,
	}
}
