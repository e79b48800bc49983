package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/example/spraycan/internal/clipboard"
	"github.com/example/spraycan/internal/export"
	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
)

// Seams for tests.
var (
	stdout          io.Writer = os.Stdout
	stdoutTerminal            = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	writeClipboard            = clipboard.WriteImage
)

// sprayCmd replays strokes against a session without opening a window.
type sprayCmd struct {
	*root
	fs            *flag.FlagSet
	background    string
	template      string
	fromClipboard bool
	colorSpec     string
	sizeIndex     int
	radius        int
	opacity       int
	seed          uint64
	eraser        bool
	step          int
	output        string
	format        string
	toClipboard   bool
	include       includeFlags
	strokes       [][]image.Point
}

func (s *sprayCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func (s *sprayCmd) Program() string {
	return s.root.program + " spray"
}

func (s *sprayCmd) Template() string {
	return "spray.txt"
}

func parseSprayCmd(args []string, r *root) (*sprayCmd, error) {
	fs := flag.NewFlagSet("spray", flag.ExitOnError)
	cmd := &sprayCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.background, "background", "", "image file placed behind the paint")
	fs.StringVar(&cmd.template, "template", "", "stencil image drawn translucently over the background")
	fs.BoolVar(&cmd.fromClipboard, "from-clipboard", false, "use the clipboard image as the background")
	fs.StringVar(&cmd.colorSpec, "color", "", "spray colour: palette name, #RRGGBB or a colour keyword")
	fs.IntVar(&cmd.sizeIndex, "size-index", -1, "brush size level (see levels)")
	fs.IntVar(&cmd.radius, "radius", 0, "brush radius in pixels, overriding the size levels")
	fs.IntVar(&cmd.opacity, "opacity", 0, "brush opacity percent, overriding the opacity levels")
	fs.Uint64Var(&cmd.seed, "seed", 1, "random seed for the particle pattern")
	fs.BoolVar(&cmd.eraser, "eraser", false, "erase instead of spraying")
	fs.IntVar(&cmd.step, "step", 4, "distance in pixels between interpolated pointer moves")
	fs.StringVar(&cmd.output, "output", "", "output file, or - for stdout")
	fs.StringVar(&cmd.format, "format", "", "output format (png, jpeg, bmp, tiff); default from the file extension")
	fs.BoolVar(&cmd.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	cmd.include.register(fs, export.DefaultOptions())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, &UsageError{of: cmd}
	}
	if cmd.output == "" && !cmd.toClipboard {
		return nil, fmt.Errorf("an -output file or -to-clipboard is required")
	}
	if cmd.fromClipboard && cmd.background != "" {
		return nil, fmt.Errorf("-from-clipboard cannot be combined with -background")
	}
	if cmd.radius < 0 {
		return nil, fmt.Errorf("-radius must be positive")
	}
	if cmd.opacity < 0 || cmd.opacity > 100 {
		return nil, fmt.Errorf("-opacity must be between 1 and 100")
	}
	if cmd.step < 1 {
		return nil, fmt.Errorf("-step must be at least 1")
	}
	strokes, err := parseStrokes(fs.Args())
	if err != nil {
		return nil, err
	}
	cmd.strokes = strokes
	return cmd, nil
}

// parseStrokes reads "x,y" points. A "/" token ends the current stroke.
func parseStrokes(args []string) ([][]image.Point, error) {
	var strokes [][]image.Point
	var cur []image.Point
	for _, tok := range args {
		if tok == "/" {
			if len(cur) > 0 {
				strokes = append(strokes, cur)
				cur = nil
			}
			continue
		}
		p, err := parsePoint(tok)
		if err != nil {
			return nil, err
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		strokes = append(strokes, cur)
	}
	if len(strokes) == 0 {
		return nil, fmt.Errorf("no points given")
	}
	return strokes, nil
}

func parsePoint(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return image.Pt(x, y), nil
}

// interpolate fills the gaps between stroke points so that consecutive
// moves are at most step pixels apart, like a real pointer drag.
func interpolate(stroke []image.Point, step int) []image.Point {
	if len(stroke) < 2 || step < 1 {
		return stroke
	}
	out := []image.Point{stroke[0]}
	for i := 1; i < len(stroke); i++ {
		a, b := stroke[i-1], stroke[i]
		d := b.Sub(a)
		n := int(math.Ceil(math.Hypot(float64(d.X), float64(d.Y)) / float64(step)))
		for j := 1; j <= n; j++ {
			out = append(out, image.Pt(
				a.X+int(math.Round(float64(d.X*j)/float64(n))),
				a.Y+int(math.Round(float64(d.Y*j)/float64(n))),
			))
		}
	}
	return out
}

// resolveColor accepts a swatch name from the active palette before
// falling back to hex and colour keywords.
func resolveColor(spec string, p *palette.Palette) (color.NRGBA, error) {
	for i := 0; i < p.Len(); i++ {
		if sw := p.At(i); strings.EqualFold(sw.Name, spec) {
			return sw.Color, nil
		}
	}
	return palette.ParseColor(spec)
}

func (s *sprayCmd) Run() error {
	cfg, err := s.sessionConfig()
	if err != nil {
		return err
	}
	cfg.Sound = ""
	if s.radius > 0 {
		cfg.SizeLevels, cfg.SizeIndex = []int{s.radius}, 0
	} else if s.sizeIndex >= 0 {
		cfg.SizeIndex = s.sizeIndex
	}
	if s.opacity > 0 {
		cfg.OpacityLevels, cfg.OpacityIndex = []int{s.opacity}, 0
	}
	if s.colorSpec != "" {
		c, err := resolveColor(s.colorSpec, s.activePalette)
		if err != nil {
			return err
		}
		cfg.Color = c
	}

	opts := append(s.sessionOptions(), session.WithRand(rand.New(rand.NewPCG(s.seed, s.seed^0x5eed))))
	sess, err := session.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	defer sess.Close()
	if err := s.loadLayers(sess, layerSources{
		background:    s.background,
		template:      s.template,
		fromClipboard: s.fromClipboard,
	}); err != nil {
		return err
	}
	sess.SetEraser(s.eraser)

	for _, stroke := range s.strokes {
		pts := interpolate(stroke, s.step)
		sess.PointerDown(pts[0])
		for _, p := range pts[1:] {
			sess.PointerMove(p)
		}
		sess.PointerUp(pts[len(pts)-1])
	}
	s.log.Debug("strokes replayed", zap.Int("strokes", len(s.strokes)), zap.Int("undoable", sess.State().Undoable))

	img := sess.ExportImage(s.include.options())
	if s.toClipboard {
		if err := writeClipboard(img); err != nil {
			err = fmt.Errorf("copy to clipboard: %w", err)
			s.notifyFailure(err)
			return err
		}
	}
	if s.output == "" {
		return nil
	}
	return s.write(img)
}

func (s *sprayCmd) write(img *image.NRGBA) error {
	format := export.Format(strings.ToLower(s.format))
	if format == "jpg" {
		format = export.JPEG
	}
	if s.output == "-" {
		if format == "" {
			format = export.PNG
		}
		if stdoutTerminal() {
			return errors.New("refusing to write image data to a terminal; redirect stdout or use -output FILE")
		}
		return export.Write(stdout, "stdout", img, format)
	}
	if format != "" {
		f, err := os.Create(s.output)
		if err != nil {
			return &export.Error{Path: s.output, Err: err}
		}
		if err := export.Write(f, s.output, img, format); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return &export.Error{Path: s.output, Err: err}
		}
	} else if err := export.Save(s.output, img); err != nil {
		s.notifyFailure(err)
		return err
	}
	s.notifySave(s.output)
	return nil
}
