package session

import (
	"image/color"

	"github.com/example/spraycan/internal/assets"
	"github.com/example/spraycan/internal/history"
	"github.com/example/spraycan/internal/spray"
)

// SensorPolicy controls how pointer moves that barely change position are
// treated. Some styluses keep reporting the last position while they emit
// events; with the policy enabled such moves are ignored for drawing.
type SensorPolicy struct {
	Enabled bool
	// Threshold is the per-axis distance in pixels below which a move is
	// considered stationary.
	Threshold int
}

// Config is the static configuration of a Session.
type Config struct {
	Width, Height                 int
	FallbackWidth, FallbackHeight int

	SizeLevels    []int
	SizeIndex     int
	OpacityLevels []int
	OpacityIndex  int
	Color         color.NRGBA

	Spray    spray.Config
	Template assets.TemplateSpec

	HistoryDepth int
	Sensor       SensorPolicy
	// RecompositeEvery publishes a new composite after this many spray
	// applications during a stroke. The drawing layer is always updated.
	RecompositeEvery int
	// Sound is an optional spray sound loaded at start-up.
	Sound string
}

// DefaultConfig returns the configuration of the full-screen application.
func DefaultConfig() Config {
	return Config{
		Width:            1920,
		Height:           1080,
		FallbackWidth:    800,
		FallbackHeight:   600,
		SizeLevels:       []int{20, 60, 100, 140, 180, 220},
		SizeIndex:        2,
		OpacityLevels:    []int{50, 60, 70, 80, 90, 100},
		OpacityIndex:     5,
		Color:            color.NRGBA{R: 0xE7, G: 0x4C, B: 0x3C, A: 0xFF},
		Spray:            spray.DefaultConfig(),
		Template:         assets.DefaultTemplateSpec(),
		HistoryDepth:     history.DefaultDepth,
		Sensor:           SensorPolicy{Enabled: true, Threshold: 2},
		RecompositeEvery: 1,
	}
}
