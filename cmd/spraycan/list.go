package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/spraycan/internal/palette"
)

type colorsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	cmd := &colorsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *colorsCmd) Run() error {
	p := c.activePalette
	if p.Len() == 0 {
		fmt.Fprintln(os.Stdout, "no colors available")
		return nil
	}
	cfg, err := c.sessionConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "palette %s (* marks the starting color):\n", p.Name)
	for idx, entry := range p.Swatches {
		marker := " "
		if entry.Color == cfg.Color {
			marker = "*"
		}
		hex := palette.Hex(entry.Color)
		name := entry.Name
		if name == "" {
			name = hex
		}
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", entry.Color.R, entry.Color.G, entry.Color.B)
		fmt.Fprintf(os.Stdout, "%s %2d: %-14s %s %s\n", marker, idx+1, name, hex, block)
	}
	return nil
}

func (c *colorsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *colorsCmd) Program() string {
	return c.root.program + " colors"
}

func (c *colorsCmd) Template() string {
	return "colors.txt"
}

type levelsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseLevelsCmd(args []string, r *root) (*levelsCmd, error) {
	fs := flag.NewFlagSet("levels", flag.ExitOnError)
	cmd := &levelsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *levelsCmd) Run() error {
	cfg, err := c.sessionConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "brush sizes (radius, * marks the starting size):")
	printLevels(cfg.SizeLevels, cfg.SizeIndex, "%3dpx")
	fmt.Fprintln(os.Stdout, "opacities (* marks the starting opacity):")
	printLevels(cfg.OpacityLevels, cfg.OpacityIndex, "%3d%%")
	return nil
}

func printLevels(levels []int, start int, format string) {
	start = clampIndex(start, len(levels))
	for idx, v := range levels {
		marker := " "
		if idx == start {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %d: "+format+"\n", marker, idx, v)
	}
}

func clampIndex(idx, n int) int {
	if n == 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func (c *levelsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *levelsCmd) Program() string {
	return c.root.program + " levels"
}

func (c *levelsCmd) Template() string {
	return "levels.txt"
}

type palettesCmd struct {
	*root
	fs *flag.FlagSet
}

func parsePalettesCmd(args []string, r *root) (*palettesCmd, error) {
	fs := flag.NewFlagSet("palettes", flag.ExitOnError)
	cmd := &palettesCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *palettesCmd) Run() error {
	names := palette.NewLoader().Names()
	if c.config != nil {
		for name := range c.config.Palettes {
			names = append(names, name+" (config)")
		}
	}
	active := ""
	if c.activePalette != nil {
		active = c.activePalette.Name
	}
	fmt.Fprintln(os.Stdout, "available palettes (* marks the active palette):")
	for _, name := range names {
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", marker, name)
	}
	return nil
}

func (c *palettesCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *palettesCmd) Program() string {
	return c.root.program + " palettes"
}

func (c *palettesCmd) Template() string {
	return "palettes.txt"
}
