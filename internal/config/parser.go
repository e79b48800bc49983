package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/spraycan/internal/palette"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	// Context for parsing
	var currentSection string
	var currentPalette *palette.Palette

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Swatch lines inside a palette section start with a hex colour
		if currentPalette != nil && strings.HasPrefix(line, "#") {
			fields := strings.Fields(line)
			if c, err := palette.ParseHex(fields[0]); err == nil {
				currentPalette.Swatches = append(currentPalette.Swatches, palette.Swatch{
					Name:  strings.Join(fields[1:], " "),
					Color: c,
				})
				continue
			}
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Handle Sections
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentPalette = nil

			if strings.HasPrefix(currentSection, "palette.") {
				name := strings.TrimPrefix(currentSection, "palette.")
				currentPalette = &palette.Palette{Name: name}
				cfg.Palettes[name] = currentPalette
			}
			continue
		}

		// Parse Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		// Remove quotes if present
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentPalette != nil:
			if key == "name" {
				currentPalette.Name = value
			}
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "canvas":
			err = setCanvasField(&cfg.Canvas, key, value)
		case currentSection == "brush":
			err = setBrushField(&cfg.Brush, key, value)
		case currentSection == "spray":
			err = setSprayField(&cfg.Spray, key, value)
		case currentSection == "template":
			err = setTemplateField(&cfg.Template, key, value)
		case currentSection == "history":
			err = setHistoryField(&cfg.History, key, value)
		case currentSection == "sensor":
			err = setSensorField(&cfg.Sensor, key, value)
		case currentSection == "audio":
			setAudioField(&cfg.Audio, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "palette":
		cfg.Palette = value
	case "save_dir":
		cfg.SaveDir = value
	}
	return nil
}

func setCanvasField(c *Canvas, key, value string) error {
	var target *int
	switch key {
	case "width":
		target = &c.Width
	case "height":
		target = &c.Height
	case "fallback_width":
		target = &c.FallbackWidth
	case "fallback_height":
		target = &c.FallbackHeight
	default:
		return nil
	}
	return setPositiveInt(target, key, value)
}

func setBrushField(b *Brush, key, value string) error {
	var err error
	switch key {
	case "size_levels":
		b.SizeLevels, err = parseLevels(key, value)
	case "opacity_levels":
		b.OpacityLevels, err = parseLevels(key, value)
		for _, v := range b.OpacityLevels {
			if v > 100 {
				return fmt.Errorf("opacity level %d above 100", v)
			}
		}
	case "size_index":
		b.SizeIndex, err = parseInt(key, value)
	case "opacity_index":
		b.OpacityIndex, err = parseInt(key, value)
	case "color", "colour":
		if _, perr := palette.ParseColor(value); perr != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, perr)
		}
		b.Color = value
	}
	return err
}

func setSprayField(s *Spray, key, value string) error {
	var err error
	switch key {
	case "density":
		s.Density, err = parsePositiveFloat(key, value)
	case "falloff":
		s.Falloff, err = parsePositiveFloat(key, value)
	case "max_alpha":
		s.MaxAlpha, err = parseInt(key, value)
		if err == nil && (s.MaxAlpha < 1 || s.MaxAlpha > 255) {
			err = fmt.Errorf("max_alpha must be between 1 and 255")
		}
	case "recomposite_every":
		s.RecompositeEvery, err = parseInt(key, value)
	}
	return err
}

func setTemplateField(t *Template, key, value string) error {
	var err error
	switch key {
	case "width":
		err = setPositiveInt(&t.Width, key, value)
	case "height":
		err = setPositiveInt(&t.Height, key, value)
	case "opacity":
		t.Opacity, err = strconv.ParseFloat(value, 64)
		if err == nil && (t.Opacity < 0 || t.Opacity > 1) {
			err = fmt.Errorf("opacity must be between 0 and 1")
		}
	case "anchor_x":
		t.AnchorX, err = parseInt(key, value)
	case "anchor_y":
		t.AnchorY, err = parseInt(key, value)
	}
	return err
}

func setHistoryField(h *History, key, value string) error {
	if key == "depth" {
		return setPositiveInt(&h.Depth, key, value)
	}
	return nil
}

func setSensorField(s *Sensor, key, value string) error {
	var err error
	switch key {
	case "enabled":
		s.Enabled, err = parseBool(key, value)
	case "threshold":
		s.Threshold, err = parseInt(key, value)
	}
	return err
}

func setAudioField(a *Audio, key, value string) {
	switch key {
	case "sound":
		a.Sound = value
	case "player":
		a.Player = value
	}
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(key, value)
	if err != nil {
		return err
	}
	switch key {
	case "save":
		n.Save = b
	case "load":
		n.Load = b
	case "failure":
		n.Failure = b
	}
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	return n, nil
}

func setPositiveInt(target *int, key, value string) error {
	n, err := parseInt(key, value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	*target = n
	return nil
}

func parsePositiveFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return f, nil
}

// parseLevels reads an ascending comma separated list of positive integers.
func parseLevels(key, value string) ([]int, error) {
	var levels []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := parseInt(key, part)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("%s: level %d must be positive", key, n)
		}
		if len(levels) > 0 && n <= levels[len(levels)-1] {
			return nil, fmt.Errorf("%s: levels must be ascending", key)
		}
		levels = append(levels, n)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%s: no levels", key)
	}
	return levels, nil
}
