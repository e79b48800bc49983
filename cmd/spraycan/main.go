package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/spraycan/internal/audio"
	"github.com/example/spraycan/internal/config"
	"github.com/example/spraycan/internal/notify"
	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs            *flag.FlagSet
	program       string
	notifier      *notify.Notifier
	config        *config.Config
	log           *zap.Logger
	debug         bool
	saveAlerts    bool
	loadAlerts    bool
	failureAlerts bool
	paletteName   string
	activePalette *palette.Palette
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("spraycan", flag.ExitOnError),
		program:  "spraycan",
		notifier: notify.New(prefs),
		config:   cfg,
		log:      zap.NewNop(),
	}
	r.fs.BoolVar(&r.debug, "debug", false, "enable development logging")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.loadAlerts, "notify-load", cfg.Notify.Load, "show a desktop notification after loading a background, template or sound")
	r.fs.BoolVar(&r.failureAlerts, "notify-failure", cfg.Notify.Failure, "show a desktop notification when a load or save fails")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.paletteName, "palette", "", "colour palette to use (graffiti, neon, mono or a file)")
	r.fs.Usage = usageFunc(r)
	return r
}

// newLogger builds the process logger. Debug runs get zap's development
// logger; otherwise warnings and errors go to stderr in console form.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	l, err := newLogger(r.debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)
	r.log = l

	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventLoad, r.loadAlerts)
		r.notifier.Enable(notify.EventFailure, r.failureAlerts)
	}
	r.activePalette = r.resolvePalette()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "paint":
		cmd, err = parsePaintCmd(subArgs, r)
	case "spray":
		cmd, err = parseSprayCmd(subArgs, r)
	case "colors", "colours":
		cmd, err = parseColorsCmd(subArgs, r)
	case "levels":
		cmd, err = parseLevelsCmd(subArgs, r)
	case "palettes":
		cmd, err = parsePalettesCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// resolvePalette applies the palette precedence: flag, SPRAYCAN_PALETTE,
// config file, built in default.
func (r *root) resolvePalette() *palette.Palette {
	name := r.paletteName
	if name == "" {
		name = os.Getenv("SPRAYCAN_PALETTE")
	}
	if name == "" && r.config != nil {
		name = r.config.Palette
	}
	if r.config != nil {
		if p, ok := r.config.Palettes[strings.ToLower(name)]; ok {
			return p
		}
	}
	p, err := palette.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != palette.DefaultName {
			fmt.Fprintf(os.Stderr, "warning: failed to load palette '%s': %v. using default.\n", name, err)
		}
		return palette.Default()
	}
	return p
}

// sessionConfig converts the loaded configuration, falling back to defaults
// for a missing config.
func (r *root) sessionConfig() (session.Config, error) {
	if r.config == nil {
		return session.DefaultConfig(), nil
	}
	return r.config.Session()
}

// sessionOptions wires the logger and the configured sound player.
func (r *root) sessionOptions() []session.Option {
	opts := []session.Option{session.WithLogger(r.log)}
	if r.config != nil && r.config.Audio.Player != "" {
		argv := strings.Fields(r.config.Audio.Player)
		log := r.log
		opts = append(opts, session.WithPlayerFactory(func(path string) audio.Player {
			return audio.NewCommandPlayer(path, audio.WithLogger(log), audio.WithCommand(argv...))
		}))
	}
	return opts
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyLoad(kind, path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Load(kind, path)
}

func (r *root) notifyFailure(err error) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Failure(err)
}
