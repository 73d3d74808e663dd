package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	dc := &DumpConfig{MainConfig: cfg.MainConfig, Format: cfg.Format, Sealed: cfg.Sealed}
	a, err := dc.dumpFile(cc, args[0])
	if err != nil {
		return err
	}
	b, err := dc.dumpFile(cc, args[1])
	if err != nil {
		return err
	}
	differs, err := writeDiff(cc.Out, string(a), string(b), cfg.colors(cc.Out))
	if err != nil {
		return err
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// writeDiff writes a line diff of a and b to w, prefixing lines with
// "- ", "+ " or two spaces, and reports whether they differ.
func writeDiff(w io.Writer, a, b string, p *palette) (bool, error) {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	differs := false
	var sb strings.Builder
	for _, d := range diffs {
		prefix, paint := "  ", func(a ...any) string { return fmt.Sprint(a...) }
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, differs = "+ ", true
			if p != nil {
				paint = p.add
			}
		case diffmatchpatch.DiffDelete:
			prefix, differs = "- ", true
			if p != nil {
				paint = p.del
			}
		}
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln == "" {
				continue
			}
			sb.WriteString(paint(prefix + strings.TrimSuffix(ln, "\n")))
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return differs, err
}
