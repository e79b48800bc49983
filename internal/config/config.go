package config

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/example/spraycan/internal/assets"
	"github.com/example/spraycan/internal/palette"
	"github.com/example/spraycan/internal/session"
	"github.com/example/spraycan/internal/spray"
)

// Canvas holds the canvas dimensions.
type Canvas struct {
	Width          int
	Height         int
	FallbackWidth  int
	FallbackHeight int
}

// Brush holds the discrete brush levels and the starting colour.
type Brush struct {
	SizeLevels    []int
	SizeIndex     int
	OpacityLevels []int
	OpacityIndex  int
	Color         string
}

// Spray holds the particle tuning.
type Spray struct {
	Density          float64
	Falloff          float64
	MaxAlpha         int
	RecompositeEvery int
}

// Template holds how template images are fitted.
type Template struct {
	Width   int
	Height  int
	Opacity float64
	AnchorX int
	AnchorY int
}

// History holds undo settings.
type History struct {
	Depth int
}

// Sensor holds the stationary pointer policy.
type Sensor struct {
	Enabled   bool
	Threshold int
}

// Audio holds spray sound settings.
type Audio struct {
	Sound  string
	Player string
}

// Notify holds notification settings.
type Notify struct {
	Save    bool
	Load    bool
	Failure bool
}

// Config holds the application configuration.
type Config struct {
	Palette  string
	SaveDir  string
	Canvas   Canvas
	Brush    Brush
	Spray    Spray
	Template Template
	History  History
	Sensor   Sensor
	Audio    Audio
	Notify   Notify
	Palettes map[string]*palette.Palette
}

// New creates a new Config with defaults.
func New() *Config {
	d := session.DefaultConfig()
	return &Config{
		Palette: "", // Default to empty to allow fallback to Env/Default
		Canvas: Canvas{
			Width:          d.Width,
			Height:         d.Height,
			FallbackWidth:  d.FallbackWidth,
			FallbackHeight: d.FallbackHeight,
		},
		Brush: Brush{
			SizeLevels:    d.SizeLevels,
			SizeIndex:     d.SizeIndex,
			OpacityLevels: d.OpacityLevels,
			OpacityIndex:  d.OpacityIndex,
			Color:         palette.Hex(d.Color),
		},
		Spray: Spray{
			Density:          d.Spray.Density,
			Falloff:          d.Spray.Falloff,
			MaxAlpha:         int(d.Spray.MaxAlpha),
			RecompositeEvery: d.RecompositeEvery,
		},
		Template: Template{
			Width:   d.Template.Width,
			Height:  d.Template.Height,
			Opacity: d.Template.Opacity,
			AnchorX: d.Template.Anchor.X,
			AnchorY: d.Template.Anchor.Y,
		},
		History: History{Depth: d.HistoryDepth},
		Sensor:  Sensor{Enabled: d.Sensor.Enabled, Threshold: d.Sensor.Threshold},
		Notify: Notify{
			Save:    false,
			Load:    false,
			Failure: true,
		},
		Palettes: make(map[string]*palette.Palette),
	}
}

// Session converts the configuration into session settings.
func (c *Config) Session() (session.Config, error) {
	s := session.DefaultConfig()
	s.Width, s.Height = c.Canvas.Width, c.Canvas.Height
	s.FallbackWidth, s.FallbackHeight = c.Canvas.FallbackWidth, c.Canvas.FallbackHeight
	if len(c.Brush.SizeLevels) > 0 {
		s.SizeLevels = append([]int(nil), c.Brush.SizeLevels...)
	}
	s.SizeIndex = c.Brush.SizeIndex
	if len(c.Brush.OpacityLevels) > 0 {
		s.OpacityLevels = append([]int(nil), c.Brush.OpacityLevels...)
	}
	s.OpacityIndex = c.Brush.OpacityIndex
	if c.Brush.Color != "" {
		col, err := palette.ParseColor(c.Brush.Color)
		if err != nil {
			return s, fmt.Errorf("brush color: %w", err)
		}
		s.Color = col
	}
	sp := spray.DefaultConfig()
	if c.Spray.Density > 0 {
		sp.Density = c.Spray.Density
	}
	if c.Spray.Falloff > 0 {
		sp.Falloff = c.Spray.Falloff
	}
	if c.Spray.MaxAlpha > 0 && c.Spray.MaxAlpha <= 255 {
		sp.MaxAlpha = uint8(c.Spray.MaxAlpha)
	}
	s.Spray = sp
	s.RecompositeEvery = c.Spray.RecompositeEvery
	s.Template = assets.TemplateSpec{
		Width:   c.Template.Width,
		Height:  c.Template.Height,
		Opacity: c.Template.Opacity,
		Anchor:  image.Pt(c.Template.AnchorX, c.Template.AnchorY),
	}
	s.HistoryDepth = c.History.Depth
	s.Sensor = session.SensorPolicy{Enabled: c.Sensor.Enabled, Threshold: c.Sensor.Threshold}
	s.Sound = c.Audio.Sound
	return s, nil
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Palette != "" {
		fmt.Fprintf(&sb, "palette = %s\n", c.Palette)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[canvas]\n")
	fmt.Fprintf(&sb, "width = %d\n", c.Canvas.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Canvas.Height)
	fmt.Fprintf(&sb, "fallback_width = %d\n", c.Canvas.FallbackWidth)
	fmt.Fprintf(&sb, "fallback_height = %d\n", c.Canvas.FallbackHeight)
	sb.WriteString("\n")

	sb.WriteString("[brush]\n")
	fmt.Fprintf(&sb, "size_levels = %s\n", joinInts(c.Brush.SizeLevels))
	fmt.Fprintf(&sb, "size_index = %d\n", c.Brush.SizeIndex)
	fmt.Fprintf(&sb, "opacity_levels = %s\n", joinInts(c.Brush.OpacityLevels))
	fmt.Fprintf(&sb, "opacity_index = %d\n", c.Brush.OpacityIndex)
	if c.Brush.Color != "" {
		fmt.Fprintf(&sb, "color = %s\n", c.Brush.Color)
	}
	sb.WriteString("\n")

	sb.WriteString("[spray]\n")
	fmt.Fprintf(&sb, "density = %s\n", formatFloat(c.Spray.Density))
	fmt.Fprintf(&sb, "falloff = %s\n", formatFloat(c.Spray.Falloff))
	fmt.Fprintf(&sb, "max_alpha = %d\n", c.Spray.MaxAlpha)
	fmt.Fprintf(&sb, "recomposite_every = %d\n", c.Spray.RecompositeEvery)
	sb.WriteString("\n")

	sb.WriteString("[template]\n")
	fmt.Fprintf(&sb, "width = %d\n", c.Template.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Template.Height)
	fmt.Fprintf(&sb, "opacity = %s\n", formatFloat(c.Template.Opacity))
	fmt.Fprintf(&sb, "anchor_x = %d\n", c.Template.AnchorX)
	fmt.Fprintf(&sb, "anchor_y = %d\n", c.Template.AnchorY)
	sb.WriteString("\n")

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "depth = %d\n", c.History.Depth)
	sb.WriteString("\n")

	sb.WriteString("[sensor]\n")
	fmt.Fprintf(&sb, "enabled = %v\n", c.Sensor.Enabled)
	fmt.Fprintf(&sb, "threshold = %d\n", c.Sensor.Threshold)
	sb.WriteString("\n")

	sb.WriteString("[audio]\n")
	if c.Audio.Sound != "" {
		fmt.Fprintf(&sb, "sound = %s\n", c.Audio.Sound)
	}
	if c.Audio.Player != "" {
		fmt.Fprintf(&sb, "player = %s\n", c.Audio.Player)
	}
	sb.WriteString("\n")

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "load = %v\n", c.Notify.Load)
	fmt.Fprintf(&sb, "failure = %v\n", c.Notify.Failure)
	sb.WriteString("\n")

	// Palette sections
	// Sort keys for deterministic output
	var names []string
	for name := range c.Palettes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := c.Palettes[name]
		fmt.Fprintf(&sb, "[palette.%s]\n", name)
		for _, s := range p.Swatches {
			if s.Name != "" {
				fmt.Fprintf(&sb, "%s %s\n", palette.Hex(s.Color), s.Name)
			} else {
				fmt.Fprintf(&sb, "%s\n", palette.Hex(s.Color))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
