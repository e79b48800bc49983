package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/example/spraycan/internal/config"
	"github.com/example/spraycan/internal/palette"
)

func testRoot() *root {
	cfg := config.New()
	cfg.Canvas.Width, cfg.Canvas.Height = 120, 80
	return &root{
		program:       "spraycan",
		config:        cfg,
		log:           zap.NewNop(),
		activePalette: palette.Default(),
	}
}

func TestParseSprayRequiresOutput(t *testing.T) {
	_, err := parseSprayCmd([]string{"10,10"}, testRoot())
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "-output file or -to-clipboard is required"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseSprayRejectsClipboardWithBackground(t *testing.T) {
	_, err := parseSprayCmd([]string{"-output", "x.png", "-from-clipboard", "-background", "a.png", "1,1"}, testRoot())
	if err == nil || !strings.Contains(err.Error(), "-from-clipboard cannot be combined") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseStrokes(t *testing.T) {
	got, err := parseStrokes([]string{"1,2", "3, 4", "/", "/", "5,6"})
	if err != nil {
		t.Fatalf("parseStrokes: %v", err)
	}
	want := [][]image.Point{{{1, 2}, {3, 4}}, {{5, 6}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, bad := range [][]string{{"12"}, {"a,1"}, {"/"}} {
		if _, err := parseStrokes(bad); err == nil {
			t.Errorf("parseStrokes(%q): expected error", bad)
		}
	}
}

func TestInterpolate(t *testing.T) {
	pts := interpolate([]image.Point{{0, 0}, {10, 0}}, 4)
	if pts[0] != (image.Point{}) || pts[len(pts)-1] != (image.Point{10, 0}) {
		t.Fatalf("endpoints lost: %v", pts)
	}
	for i := 1; i < len(pts); i++ {
		if d := pts[i].X - pts[i-1].X; d > 4 || d <= 0 {
			t.Errorf("gap %d between %v and %v", d, pts[i-1], pts[i])
		}
	}
	single := []image.Point{{3, 3}}
	if got := interpolate(single, 4); !reflect.DeepEqual(got, single) {
		t.Errorf("single point changed: %v", got)
	}
}

func TestResolveColorUsesPaletteNames(t *testing.T) {
	p := palette.Default()
	sw := p.At(0)
	c, err := resolveColor(strings.ToUpper(sw.Name), p)
	if err != nil || c != sw.Color {
		t.Fatalf("resolveColor(%q) = %v, %v", sw.Name, c, err)
	}
	if _, err := resolveColor("#00FF00", p); err != nil {
		t.Errorf("hex colour rejected: %v", err)
	}
	if _, err := resolveColor("not-a-colour", p); err == nil {
		t.Errorf("expected error for unknown colour")
	}
}

func runSpray(t *testing.T, args ...string) []byte {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.png")
	cmd, err := parseSprayCmd(append([]string{"-output", out}, args...), testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return data
}

func TestSprayIsReproducible(t *testing.T) {
	args := []string{"-seed", "7", "-radius", "20", "-color", "#0000FF", "20,40", "100,40"}
	a := runSpray(t, args...)
	b := runSpray(t, args...)
	if !bytes.Equal(a, b) {
		t.Fatalf("same seed produced different images")
	}
	img, err := png.Decode(bytes.NewReader(a))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
	r, g, b2, _ := img.At(60, 40).RGBA()
	if b2 <= r || b2 <= g {
		t.Errorf("stroke centre not blue: %d %d %d", r>>8, g>>8, b2>>8)
	}
	if c := runSpray(t, "-seed", "8", "-radius", "20", "-color", "#0000FF", "20,40", "100,40"); bytes.Equal(a, c) {
		t.Errorf("different seeds produced identical images")
	}
}

func TestSprayStdout(t *testing.T) {
	origOut, origTerm := stdout, stdoutTerminal
	t.Cleanup(func() { stdout, stdoutTerminal = origOut, origTerm })

	stdoutTerminal = func() bool { return true }
	cmd, err := parseSprayCmd([]string{"-output", "-", "10,10"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "terminal") {
		t.Fatalf("expected terminal refusal, got %v", err)
	}

	var buf bytes.Buffer
	stdout = &buf
	stdoutTerminal = func() bool { return false }
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("stdout is not a PNG: %v", err)
	}
}

func TestSprayToClipboard(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	var got image.Image
	writeClipboard = func(img image.Image) error { got = img; return nil }

	cmd, err := parseSprayCmd([]string{"-to-clipboard", "-radius", "5", "-transparent", "-include-background=false", "-include-template=false", "30,30"}, testRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got == nil {
		t.Fatalf("nothing copied")
	}
	if _, _, _, a := got.At(0, 0).RGBA(); a != 0 {
		t.Errorf("transparent export has opaque corner")
	}
}

func TestUsageErrorRendersHelp(t *testing.T) {
	r := testRoot()
	r.fs = nil
	msg := (&UsageError{of: &paintCmd{root: r}}).Error()
	if !strings.Contains(msg, "spraycan paint") || !strings.Contains(msg, "Esc Esc") {
		t.Errorf("unexpected help:\n%s", msg)
	}
}

func TestConfigPrint(t *testing.T) {
	r := testRoot()
	c := &configCmd{root: r}
	var buf bytes.Buffer
	if err := c.runPrint(&buf); err != nil {
		t.Fatalf("print: %v", err)
	}
	if _, err := config.Parse(strings.NewReader(buf.String())); err != nil {
		t.Errorf("printed config does not parse: %v", err)
	}
	if !strings.Contains(buf.String(), "width = 120") {
		t.Errorf("expected canvas width in output:\n%s", buf.String())
	}
}
