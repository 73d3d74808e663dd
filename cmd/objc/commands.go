package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})
	return cli.NewCommandAt(&cfg.Main, "objc").
		WithSynopsis("objc [opts] command [opts]").
		WithDescription("objc inspects and converts objcodec payloads.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return objcMain(cfg, cc, args)
		}).
		WithSubs(
			DumpCommand(cfg),
			DiffCommand(cfg),
			TickCommand(cfg),
			UntickCommand(cfg),
			SealCommand(cfg),
			OpenCommand(cfg))
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Dump, "dump").
		WithAliases("d").
		WithSynopsis("dump [-f format] [-path query] [files]").
		WithDescription("dump payloads as yaml, decoded without their Go types").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("di").
		WithSynopsis("diff [-f format] a b").
		WithDescription("line diff of the dumps of two payloads, exit code 1 if they differ").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

func TickCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TickConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Tick, "tick").
		WithSynopsis("tick [strings]").
		WithDescription("tick-code kv strings given as arguments or lines of stdin").
		WithRun(func(cc *cli.Context, args []string) error {
			return tick(cfg, cc, args)
		})
}

func UntickCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TickConfig{MainConfig: mainCfg, Reverse: true}
	return cli.NewCommandAt(&cfg.Tick, "untick").
		WithSynopsis("untick [strings]").
		WithDescription("restore escaped kv strings from tick-coded ones").
		WithRun(func(cc *cli.Context, args []string) error {
			return tick(cfg, cc, args)
		})
}

func SealCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SealConfig{MainConfig: mainCfg, Compression: "zstd"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Seal, "seal").
		WithSynopsis("seal [-c none|lz4|zstd] [file]").
		WithDescription("wrap a payload in a compressed, digested envelope").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return seal(cfg, cc, args)
		})
}

func OpenCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &OpenConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Open, "open").
		WithSynopsis("open [-info] [file]").
		WithDescription("check and unwrap a sealed envelope").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return open(cfg, cc, args)
		})
}
