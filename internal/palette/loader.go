package palette

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	embedded "github.com/example/spraycan/assets"
)

// Loader handles loading palettes from various sources.
type Loader struct {
	ConfigDir string
	SystemDir string
}

// NewLoader creates a new Loader with standard paths.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "spraycan", "palettes"),
		SystemDir: "/usr/share/spraycan/palettes",
	}
}

// Load attempts to load a palette by name or path.
// Order:
// 1. If it's a file path that exists, load it.
// 2. Check embedded palettes.
// 3. Check ConfigDir.
// 4. Check SystemDir.
func (l *Loader) Load(name string) (*Palette, error) {
	if name == "" {
		name = DefaultName
	}

	if _, err := os.Stat(name); err == nil {
		return parseFile(name, "")
	}

	base := strings.TrimSuffix(name, embedded.PaletteExt)
	if data, err := embedded.Palette(base); err == nil {
		return withName(Parse(bytes.NewReader(data)))(base)
	}

	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, base+embedded.PaletteExt)
		if _, err := os.Stat(path); err == nil {
			return parseFile(path, base)
		}
	}

	return nil, fmt.Errorf("palette '%s' not found", name)
}

// Names lists every palette reachable by name, embedded ones first.
func (l *Loader) Names() []string {
	seen := map[string]bool{}
	var names []string
	for _, n := range embedded.PaletteNames() {
		seen[n] = true
		names = append(names, n)
	}
	var extra []string
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			n, ok := strings.CutSuffix(e.Name(), embedded.PaletteExt)
			if !ok || e.IsDir() || seen[n] {
				continue
			}
			seen[n] = true
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func parseFile(path, fallbackName string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if fallbackName == "" {
		fallbackName = strings.TrimSuffix(filepath.Base(path), embedded.PaletteExt)
	}
	p, err := withName(Parse(f))(fallbackName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// withName fills in a missing palette name.
func withName(p *Palette, err error) func(string) (*Palette, error) {
	return func(name string) (*Palette, error) {
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = name
		}
		return p, nil
	}
}

// Default returns the embedded default palette.
func Default() *Palette {
	data, err := embedded.Palette(DefaultName)
	if err == nil {
		if p, err := Parse(bytes.NewReader(data)); err == nil && p.Len() > 0 {
			return p
		}
	}
	return &Palette{Name: DefaultName, Swatches: []Swatch{{Name: "red", Color: DefaultColor}}}
}
