package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-faster/errors"

	"mmreg/log"
)

type mode byte

const (
	genMode     mode = iota // Generate Go register definitions
	dumpMode                // Dump resolved SVD as JSON
	peekMode                // Read a register or field
	pokeMode                // Write a register or field
	shellMode               // Interactive shell
	initMode                // Write default configuration
	versionMode             // Show mmreg version
)

type (
	CLI struct {
		Gen     Gen     `cmd:"" help:"Generate Go register definitions from SVD files."`
		Dump    Dump    `cmd:"" help:"Print the resolved SVD device description as JSON."`
		Peek    Peek    `cmd:"" help:"Read a register or a field."`
		Poke    Poke    `cmd:"" help:"Write a register or a field."`
		Shell   Shell   `cmd:"" help:"Interactive register shell."`
		Init    Init    `cmd:"" help:"Write the default configuration file."`
		Version Version `cmd:"" help:"Show mmreg version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"${config_help}" type:"path" placeholder:"FILE"`

		mode mode
	}

	Gen struct {
		SVD         []string `arg:"" name:"file.svd" help:"SVD files to generate from." type:"existingfile"`
		Output      string   `short:"o" help:"${output_help}" type:"path" placeholder:"PATH"`
		Package     string   `short:"p" help:"Package name (default: from config, then device name)."`
		Peripherals []string `help:"Only generate these peripherals." placeholder:"P0,P1,..."`
		NoEnums     bool     `name:"no-enums" help:"Don't generate enumerated values constants."`
		Banks       bool     `help:"Also generate simulated register banks for hwio tables."`
	}

	Dump struct {
		SVD string `arg:"" name:"file.svd" type:"existingfile"`
	}

	Peek struct {
		SVD    string `arg:"" name:"file.svd" type:"existingfile"`
		Path   string `arg:"" name:"path" help:"Register or field, as PERIPH.REG[.FIELD]."`
		Device string `help:"${device_help}" type:"path"`
	}

	Poke struct {
		SVD    string `arg:"" name:"file.svd" type:"existingfile"`
		Path   string `arg:"" name:"path" help:"Register or field, as PERIPH.REG[.FIELD]."`
		Value  string `arg:"" name:"value" help:"Value to write (decimal, 0x hex or 0b binary)."`
		Device string `help:"${device_help}" type:"path"`
	}

	Shell struct {
		SVD    string `arg:"" name:"file.svd" type:"existingfile"`
		Sim    bool   `help:"Run against a simulated register file instead of physical memory."`
		Device string `help:"${device_help}" type:"path"`
	}

	Init struct {
		Force bool `short:"f" help:"Overwrite an existing configuration file."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"config_help": "Configuration file (default: mmreg.toml in the user config directory).",
	"output_help": "Output file, or directory when generating from multiple SVD files.",
	"device_help": "Physical memory device (default: from config, then /dev/mem).",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("mmreg"),
		kong.Description("Typed memory-mapped register access and SVD code generator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "gen":
		cfg.mode = genMode
	case "dump":
		cfg.mode = dumpMode
	case "peek":
		cfg.mode = peekMode
	case "poke":
		cfg.mode = pokeMode
	case "shell":
		cfg.mode = shellMode
	case "init":
		cfg.mode = initMode
	default:
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	var tok string
	if err := ctx.Scan.PopValueInto("log", &tok); err != nil {
		return err
	}
	mask, nolog, err := parseLogModules(tok)
	if err != nil {
		return err
	}
	if nolog {
		log.Disable()
		return nil
	}
	log.EnableDebugModules(mask)
	return nil
}

// parseLogModules parses the --log flag value.
func parseLogModules(s string) (mask log.ModuleMask, nolog bool, err error) {
	allLogs := false
	for _, v := range strings.Split(s, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return 0, false, errors.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return 0, false, errors.New("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return 0, false, errors.New("cannot combine 'no' with other log modules")
		}
		return 0, true, nil
	}
	if allLogs {
		mask = log.ModuleMaskAll
	}
	return mask, false, nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
