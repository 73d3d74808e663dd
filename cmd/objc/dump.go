package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/signadot/objcodec/blob"
	"github.com/signadot/objcodec/evolve"
	"github.com/signadot/objcodec/format"
	"github.com/signadot/objcodec/kv"
	"github.com/signadot/objcodec/text"
	"github.com/signadot/objcodec/tree"
)

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	return dumpFiles(cfg, cc, cc.Out, args)
}

func dumpFiles(cfg *DumpConfig, cc *cli.Context, w io.Writer, files []string) error {
	pal := cfg.colors(w)
	for i, file := range files {
		out, err := cfg.dumpFile(cc, file)
		if err != nil {
			return err
		}
		if _, err := w.Write(colorize(out, pal, cfg.Flow)); err != nil {
			return err
		}
		if i < len(files)-1 {
			if _, err := w.Write([]byte("---\n")); err != nil {
				return err
			}
		}
	}
	return nil
}

// dumpFile renders file as uncoloured yaml.
func (cfg *DumpConfig) dumpFile(cc *cli.Context, file string) ([]byte, error) {
	d, err := readInput(cc, file)
	if err != nil {
		return nil, err
	}
	n, err := cfg.toTree(d)
	if err != nil {
		return nil, fmt.Errorf("error processing %s: %w", file, err)
	}
	return text.Emit(n, cfg.Flow)
}

func (cfg *DumpConfig) toTree(data []byte) (*tree.Node, error) {
	if cfg.Sealed {
		raw, err := blob.Open(data)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	f, err := cfg.inputFormat(data)
	if err != nil {
		return nil, err
	}
	var n *tree.Node
	switch f {
	case format.EvolvableFormat:
		n, err = evolve.Inspect(data)
	case format.FixedFormat:
		err = fmt.Errorf("%s payloads cannot be read without their Go type", f)
	case format.TextFormat:
		n, err = text.Parse(data)
	case format.KVFormat:
		n, err = kv.Inspect(strings.TrimRight(string(data), "\r\n"))
	}
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return n, nil
	}
	sel, err := n.Select(cfg.Path)
	if err != nil {
		return nil, err
	}
	if len(sel) == 1 {
		return sel[0], nil
	}
	return tree.FromSlice(sel), nil
}

func (cfg *DumpConfig) inputFormat(data []byte) (format.Format, error) {
	if cfg.Format != "" {
		f, err := format.ParseFormat(cfg.Format)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		return f, nil
	}
	if f, ok := format.Detect(data); ok {
		return f, nil
	}
	line := bytes.TrimRight(data, "\r\n")
	if bytes.Contains(line, []byte("=")) && !bytes.ContainsAny(line, "\n:") {
		return format.KVFormat, nil
	}
	return format.TextFormat, nil
}

// colorize colours the keys, type names and nulls of block style yaml.
func colorize(out []byte, p *palette, flow bool) []byte {
	if p == nil || flow {
		return out
	}
	var b strings.Builder
	for _, ln := range strings.SplitAfter(string(out), "\n") {
		b.WriteString(colorLine(ln, p))
	}
	return []byte(b.String())
}

func colorLine(ln string, p *palette) string {
	body := strings.TrimRight(ln, "\n")
	nl := ln[len(body):]
	indent := len(body) - len(strings.TrimLeft(body, " -"))
	rest := body[indent:]
	var k, v string
	if i := strings.Index(rest, ": "); i > 0 {
		k, v = rest[:i], rest[i+2:]
	} else if strings.HasSuffix(rest, ":") {
		k = rest[:len(rest)-1]
	} else {
		if rest == "null" {
			return body[:indent] + p.null(rest) + nl
		}
		return ln
	}
	if k == "" || strings.ContainsAny(k[:1], `"'{[`) {
		return ln
	}
	switch {
	case k == text.DefaultTypeKey && v != "":
		v = " " + p.typ(v)
	case v == "null":
		v = " " + p.null(v)
	case v != "":
		v = " " + v
	}
	return body[:indent] + p.key(k) + ":" + v + nl
}
