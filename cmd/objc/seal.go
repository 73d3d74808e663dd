package main

import (
	"errors"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/objcodec/blob"
	"github.com/signadot/objcodec/text"
	"github.com/signadot/objcodec/tree"
)

func inputArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "-", nil
	case 1:
		return args[0], nil
	}
	return "", fmt.Errorf("%w: at most one file, got %v", cli.ErrUsage, args)
}

func seal(cfg *SealConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Seal.Parse(cc, args)
	if err != nil {
		return err
	}
	file, err := inputArg(args)
	if err != nil {
		return err
	}
	c, err := blob.ParseCompression(cfg.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	raw, err := readInput(cc, file)
	if err != nil {
		return err
	}
	env, err := blob.Seal(raw, c)
	if err != nil {
		return err
	}
	_, err = cc.Out.Write(env)
	return err
}

func open(cfg *OpenConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Open.Parse(cc, args)
	if err != nil {
		return err
	}
	file, err := inputArg(args)
	if err != nil {
		return err
	}
	env, err := readInput(cc, file)
	if err != nil {
		return err
	}
	if !cfg.Info {
		raw, err := blob.Open(env)
		if err != nil {
			return err
		}
		_, err = cc.Out.Write(raw)
		return err
	}
	h, body, err := blob.ReadHeader(env)
	if err != nil {
		return err
	}
	_, err = blob.Open(env)
	n := tree.NewObject().
		Set("compression", tree.FromString(h.Compression.String())).
		Set("size", tree.FromInt(int64(h.Size))).
		Set("body", tree.FromInt(int64(len(body)))).
		Set("digest", tree.FromString(h.Digest.String())).
		Set("valid", tree.FromBool(err == nil))
	out, merr := text.Emit(n, cfg.Flow)
	if merr != nil {
		return merr
	}
	if _, werr := cc.Out.Write(colorize(out, cfg.colors(cc.Out), cfg.Flow)); werr != nil {
		return werr
	}
	if errors.Is(err, blob.ErrDigest) {
		return cli.ExitCodeErr(1)
	}
	return err
}
