package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"mmreg/config"
	"mmreg/log"
)

var version = "devel"

func main() {
	cli := parseArgs(os.Args[1:])

	if cli.mode == initMode {
		checkf(runInit(cli.Config, cli.Init.Force), "failed to write configuration")
		return
	}

	cfg, err := loadConfig(cli.Config)
	checkf(err, "failed to load configuration")

	switch cli.mode {
	case genMode:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		checkf(runGen(ctx, &cli.Gen, cfg), "code generation failed")
	case dumpMode:
		checkf(runDump(os.Stdout, &cli.Dump), "dump failed")
	case peekMode:
		checkf(runPeek(os.Stdout, &cli.Peek, cfg), "peek failed")
	case pokeMode:
		checkf(runPoke(&cli.Poke, cfg), "poke failed")
	case shellMode:
		checkf(runShell(&cli.Shell, cfg), "shell error")
	case versionMode:
		fmt.Println("mmreg", version)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path, err := config.DefaultPath()
	if err != nil {
		log.ModCLI.Warnf("no user config directory: %s", err)
		return config.Default(), nil
	}
	return config.LoadOrDefault(path)
}

// runInit writes the default configuration at path, or at the default
// location if path is empty.
func runInit(path string, force bool) error {
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Println("configuration written to", path)
	return nil
}
