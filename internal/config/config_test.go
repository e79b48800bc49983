package config

import (
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
palette = street
save_dir = /tmp/paintings

[canvas]
width = 1280
height = 720

[brush]
size_levels = 10, 30, 50
size_index = 1
opacity_levels = 40,80
color = tomato

[spray]
density = 5.5
max_alpha = 180

[template]
opacity = 0.5
anchor_x = 640

[sensor]
enabled = false
threshold = 3

[audio]
sound = "/tmp/spray.wav"

[notify]
save = true
load = true
failure = false

[palette.street]
#111111 asphalt
#FFFFFF
`
	r := strings.NewReader(input)
	cfg, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Palette != "street" {
		t.Errorf("Expected palette 'street', got '%s'", cfg.Palette)
	}
	if cfg.SaveDir != "/tmp/paintings" {
		t.Errorf("Expected save_dir '/tmp/paintings', got '%s'", cfg.SaveDir)
	}
	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 720 || cfg.Canvas.FallbackWidth != 800 {
		t.Errorf("Unexpected canvas: %+v", cfg.Canvas)
	}
	if !reflect.DeepEqual(cfg.Brush.SizeLevels, []int{10, 30, 50}) || cfg.Brush.SizeIndex != 1 {
		t.Errorf("Unexpected brush sizes: %+v", cfg.Brush)
	}
	if !reflect.DeepEqual(cfg.Brush.OpacityLevels, []int{40, 80}) {
		t.Errorf("Unexpected opacity levels: %v", cfg.Brush.OpacityLevels)
	}
	if cfg.Spray.Density != 5.5 || cfg.Spray.MaxAlpha != 180 || cfg.Spray.Falloff != 1.8 {
		t.Errorf("Unexpected spray: %+v", cfg.Spray)
	}
	if cfg.Template.Opacity != 0.5 || cfg.Template.AnchorX != 640 || cfg.Template.AnchorY != 540 {
		t.Errorf("Unexpected template: %+v", cfg.Template)
	}
	if cfg.Sensor.Enabled || cfg.Sensor.Threshold != 3 {
		t.Errorf("Unexpected sensor: %+v", cfg.Sensor)
	}
	if cfg.Audio.Sound != "/tmp/spray.wav" {
		t.Errorf("Unexpected sound %q", cfg.Audio.Sound)
	}
	if !cfg.Notify.Save || !cfg.Notify.Load || cfg.Notify.Failure {
		t.Errorf("Unexpected notify: %+v", cfg.Notify)
	}

	p, ok := cfg.Palettes["street"]
	if !ok {
		t.Fatal("Expected palette 'street' to be loaded")
	}
	if p.Len() != 2 || p.At(0).Name != "asphalt" || p.At(0).Color != (color.NRGBA{0x11, 0x11, 0x11, 0xFF}) {
		t.Errorf("Unexpected palette: %+v", p)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bad int":        "[canvas]\nwidth = wide\n",
		"negative":       "[canvas]\nheight = -3\n",
		"bad bool":       "[notify]\nsave = perhaps\n",
		"descending":     "[brush]\nsize_levels = 30,10\n",
		"opacity > 100":  "[brush]\nopacity_levels = 50,150\n",
		"bad colour":     "[brush]\ncolor = #XYZXYZ\n",
		"alpha range":    "[spray]\nmax_alpha = 300\n",
		"template range": "[template]\nopacity = 2\n",
	}
	for name, input := range cases {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `palette = neon
save_dir = /home/user/art

[brush]
size_levels = 5,15,25
color = #00FF00

[history]
depth = 20

[audio]
sound = /usr/share/sounds/spray.ogg
player = paplay

[notify]
save = true
load = false
failure = true

[palette.custom]
#000000 black
#FFFFFF white
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	// 4. Compare everything
	if !reflect.DeepEqual(cfg, cfg2) {
		t.Errorf("Config mismatch:\n%+v\nvs\n%+v", cfg, cfg2)
	}
	if cfg2.String() != generated {
		t.Errorf("String not stable:\n%s\nvs\n%s", generated, cfg2.String())
	}
}

func TestSessionConversion(t *testing.T) {
	cfg := New()
	cfg.Brush.Color = "#102030"
	cfg.Spray.MaxAlpha = 150
	cfg.Template.AnchorX, cfg.Template.AnchorY = 10, 20
	s, err := cfg.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if s.Color != (color.NRGBA{0x10, 0x20, 0x30, 0xFF}) {
		t.Errorf("Unexpected colour %+v", s.Color)
	}
	if s.Spray.MaxAlpha != 150 || s.Spray.Density != 4 {
		t.Errorf("Unexpected spray %+v", s.Spray)
	}
	if s.Template.Anchor.X != 10 || s.Template.Anchor.Y != 20 || s.Template.Width != 1000 {
		t.Errorf("Unexpected template %+v", s.Template)
	}
	if s.HistoryDepth != 50 || !s.Sensor.Enabled || s.Sensor.Threshold != 2 {
		t.Errorf("Unexpected history/sensor %+v %+v", s.HistoryDepth, s.Sensor)
	}

	cfg.Brush.Color = "nonsense"
	if _, err := cfg.Session(); err == nil {
		t.Error("expected error for invalid colour")
	}
}

func TestLoaderPaths(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.rc")
	if err := os.WriteFile(override, []byte("palette = mono\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader("1.0.0", override)
	if got := l.GetConfigPath(); got != override {
		t.Fatalf("GetConfigPath = %q, want %q", got, override)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Palette != "mono" {
		t.Errorf("Expected palette mono, got %q", cfg.Palette)
	}

	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv(EnvPath, "")
	l = NewLoader("1.0.0", filepath.Join(dir, "missing.rc"))
	if got := l.GetConfigPath(); got != "" {
		t.Errorf("Expected no config path, got %q", got)
	}
	cfg, err = l.Load()
	if err != nil || cfg.Canvas.Width != 1920 {
		t.Errorf("Expected defaults, got %+v, %v", cfg, err)
	}
}

func TestLoaderEnvAndParseErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	env := filepath.Join(dir, "env.rc")
	if err := os.WriteFile(env, []byte("[canvas]\nwidth = 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPath, env)
	cfg, err := NewLoader("1.0.0", "").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.Width != 640 {
		t.Errorf("Expected width from %s, got %d", EnvPath, cfg.Canvas.Width)
	}

	if err := os.WriteFile(env, []byte("[canvas]\nwidth = zero\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewLoader("1.0.0", "").Load()
	if err == nil || !strings.Contains(err.Error(), env) {
		t.Errorf("Expected error naming %s, got %v", env, err)
	}
}
