package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

// Embedded colour palettes shipped with Spraycan.
//
//go:embed palettes/*.palette
var embeddedPalettes embed.FS

// PaletteExt is the file extension of palette files.
const PaletteExt = ".palette"

var (
	loadPalettesOnce sync.Once
	loadPalettesErr  error

	paletteData = map[string][]byte{}
)

func loadPalettes() {
	entries, err := fs.ReadDir(embeddedPalettes, "palettes")
	if err != nil {
		loadPalettesErr = err
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, PaletteExt) {
			continue
		}
		data, err := embeddedPalettes.ReadFile("palettes/" + name)
		if err != nil {
			loadPalettesErr = err
			return
		}
		paletteData[strings.TrimSuffix(name, PaletteExt)] = data
	}
}

func ensurePalettes() error {
	loadPalettesOnce.Do(loadPalettes)
	return loadPalettesErr
}

// Palette returns a copy of the raw definition of an embedded palette.
func Palette(name string) ([]byte, error) {
	if err := ensurePalettes(); err != nil {
		return nil, err
	}
	data, ok := paletteData[strings.TrimSuffix(name, PaletteExt)]
	if !ok {
		return nil, fmt.Errorf("palette %q not embedded", name)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// PaletteNames lists the embedded palettes in alphabetical order.
func PaletteNames() []string {
	if err := ensurePalettes(); err != nil {
		return nil
	}
	names := make([]string, 0, len(paletteData))
	for name := range paletteData {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
