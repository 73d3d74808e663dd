package main

import (
	"bufio"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/objcodec/kv"
)

func tick(cfg *TickConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Tick.Parse(cc, args)
	if err != nil {
		return err
	}
	f := kv.Tick
	if cfg.Reverse {
		f = kv.Untick
	}
	if len(args) != 0 {
		for _, a := range args {
			if _, err := fmt.Fprintln(cc.Out, f(a)); err != nil {
				return err
			}
		}
		return nil
	}
	sc := bufio.NewScanner(cc.In)
	sc.Buffer(nil, 64<<20)
	for sc.Scan() {
		if _, err := fmt.Fprintln(cc.Out, f(sc.Text())); err != nil {
			return err
		}
	}
	return sc.Err()
}
