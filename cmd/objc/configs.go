package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Color   bool `cli:"name=color desc='colour output even when not on a terminal'"`
	NoColor bool `cli:"name=nocolor desc='never colour output'"`
	Flow    bool `cli:"name=flow desc='emit yaml in flow style'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

// colors returns the palette for w, or nil when w gets plain text.
func (cfg *MainConfig) colors(w io.Writer) *palette {
	if cfg.NoColor {
		return nil
	}
	if !cfg.Color {
		f, ok := w.(*os.File)
		if !ok || !isatty.IsTerminal(f.Fd()) {
			return nil
		}
	}
	return newPalette()
}

type palette struct {
	key, typ, null, add, del func(a ...any) string
}

func newPalette() *palette {
	mk := func(c *color.Color) func(a ...any) string {
		c.EnableColor()
		return c.SprintFunc()
	}
	return &palette{
		key:  mk(color.RGB(128, 216, 236)),
		typ:  mk(color.RGB(255, 0, 196)),
		null: mk(color.RGB(96, 96, 96)),
		add:  mk(color.New(color.FgGreen)),
		del:  mk(color.New(color.FgRed)),
	}
}

type DumpConfig struct {
	*MainConfig

	Format string `cli:"name=f aliases=format desc='input format: evolve, text or kv (default: detect)'"`
	Path   string `cli:"name=path desc='only dump nodes selected by query, like $.a[0].b'"`
	Sealed bool   `cli:"name=sealed desc='input is a sealed envelope'"`

	Dump *cli.Command
}

type DiffConfig struct {
	*MainConfig

	Format string `cli:"name=f aliases=format desc='input format: evolve, text or kv (default: detect)'"`
	Sealed bool   `cli:"name=sealed desc='inputs are sealed envelopes'"`

	Diff *cli.Command
}

type TickConfig struct {
	*MainConfig
	Reverse bool

	Tick *cli.Command
}

type SealConfig struct {
	*MainConfig

	Compression string `cli:"name=c aliases=compression desc='none, lz4 or zstd'"`

	Seal *cli.Command
}

type OpenConfig struct {
	*MainConfig

	Info bool `cli:"name=info desc='print the envelope header instead of the payload'"`

	Open *cli.Command
}
