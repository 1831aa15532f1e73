package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/go-faster/errors"

	"mmreg/config"
	"mmreg/hw/hwio"
	"mmreg/log"
	"mmreg/sim"
	"mmreg/svd"
)

// session executes shell commands against a simulated register file or
// against physical memory.
type session struct {
	dev *svd.Device
	sim *sim.Sim // nil on hardware

	device string // physical memory device
}

func newSession(dev *svd.Device, simulated bool, device string) *session {
	s := &session{dev: dev, device: device}
	if simulated {
		s.sim = sim.New(dev)
	}
	return s
}

// bus returns the bus on which e can be accessed, and a function to release it.
func (s *session) bus(e svd.Entry) (hwio.BankIO32, func(), error) {
	if s.sim != nil {
		return s.sim, func() {}, nil
	}
	m, err := mapEntry(s.device, e)
	if err != nil {
		return nil, nil, err
	}
	return m, func() { m.Close() }, nil
}

// exec runs one command line. It reports whether the shell should exit.
func (s *session) exec(w io.Writer, line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp(w)
	case "peek", "p":
		err = s.cmdPeek(w, args)
	case "poke", "w":
		err = s.cmdPoke(w, args)
	case "info", "i":
		err = s.cmdInfo(w, args)
	case "regs", "r":
		err = s.cmdRegs(w, args)
	case "periphs", "ls":
		s.cmdPeriphs(w)
	case "reset":
		err = s.cmdReset(w)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		log.ModCLI.DebugZ("command failed").String("cmd", cmd).Error("err", err).End()
		fmt.Fprintf(w, "Error: %s\n", err)
	}
	return false
}

func (s *session) printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Commands:
    peek <P.R[.F]>         - Read a register or a field
    poke <P.R[.F]> <value> - Write a register or a field
    info <P.R[.F]>         - Describe a register or a field
    regs <P>               - Show the registers of a peripheral
    periphs                - List peripherals
    reset                  - Restore reset values (simulation only)
    help                   - Show this help
    quit                   - Exit`)
}

func (s *session) cmdPeek(w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: peek <P.R[.F]>")
	}
	e, err := s.dev.Lookup(args[0])
	if err != nil {
		return err
	}
	bus, release, err := s.bus(e)
	if err != nil {
		return err
	}
	defer release()

	val, err := readEntry(bus, e, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = 0x%x\n", e, val)
	return nil
}

func (s *session) cmdPoke(w io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: poke <P.R[.F]> <value>")
	}
	e, err := s.dev.Lookup(args[0])
	if err != nil {
		return err
	}
	val, err := parseValue(args[1])
	if err != nil {
		return err
	}
	bus, release, err := s.bus(e)
	if err != nil {
		return err
	}
	defer release()

	if err := writeEntry(bus, e, val); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s <- 0x%x\n", e, val)
	return nil
}

func (s *session) cmdInfo(w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: info <P.R[.F]>")
	}
	e, err := s.dev.Lookup(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, e.Describe())
	if e.Field != nil {
		for _, ev := range e.Field.Enums {
			fmt.Fprintf(w, "    %-12s = %d\n", ev.Name, ev.Value)
		}
		return nil
	}
	for _, f := range e.Register.Fields {
		fe := svd.Entry{Peripheral: e.Peripheral, Register: e.Register, Field: f}
		fmt.Fprintf(w, "    %s\n", fe.Describe())
	}
	return nil
}

func (s *session) cmdRegs(w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: regs <P>")
	}
	p := s.dev.Peripheral(args[0])
	if p == nil {
		return errors.Errorf("unknown peripheral %q", args[0])
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range p.Registers {
		e := svd.Entry{Peripheral: p, Register: r}
		val := "--"
		if r.Access.CanRead() {
			bus, release, err := s.bus(e)
			if err != nil {
				return err
			}
			v, err := readEntry(bus, e, true)
			release()
			if err != nil {
				return errors.Wrapf(err, "read %s", e)
			}
			val = fmt.Sprintf("0x%08x", v)
		}
		fmt.Fprintf(tw, "%s\t0x%08x\t%s\t%s\n", r.Name, r.Address, r.Access.SVDName(), val)
	}
	return tw.Flush()
}

func (s *session) cmdPeriphs(w io.Writer) {
	names := make([]string, 0, len(s.dev.Peripherals))
	for _, p := range s.dev.Peripherals {
		names = append(names, fmt.Sprintf("%s\t0x%08x", p.Name, p.BaseAddress))
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range names {
		fmt.Fprintln(tw, n)
	}
	tw.Flush()
}

func (s *session) cmdReset(w io.Writer) error {
	if s.sim == nil {
		return errors.New("reset is only available in simulation")
	}
	s.sim.Reset()
	fmt.Fprintln(w, "registers reset")
	return nil
}

// completer completes command names and register paths.
func (s *session) completer() *readline.PrefixCompleter {
	paths := func(string) []string {
		var names []string
		for _, p := range s.dev.Peripherals {
			for _, r := range p.Registers {
				names = append(names, p.Name+"."+r.Name)
			}
		}
		return names
	}
	periphs := func(string) []string {
		var names []string
		for _, p := range s.dev.Peripherals {
			names = append(names, p.Name)
		}
		return names
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("peek", readline.PcItemDynamic(paths)),
		readline.PcItem("poke", readline.PcItemDynamic(paths)),
		readline.PcItem("info", readline.PcItemDynamic(paths)),
		readline.PcItem("regs", readline.PcItemDynamic(periphs)),
		readline.PcItem("periphs"),
		readline.PcItem("reset"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func runShell(sh *Shell, cfg config.Config) error {
	dev, err := svd.ParseFile(sh.SVD)
	if err != nil {
		return err
	}
	s := newSession(dev, sh.Sim, deviceOr(sh.Device, cfg))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Shell.Prompt,
		HistoryFile:     cfg.Shell.History,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "create readline")
	}
	defer rl.Close()

	log.SetOutput(rl.Stderr())
	log.ModCLI.InfoZ("shell started").
		String("device", dev.Name).
		Bool("sim", sh.Sim).
		End()

	s.printHelp(rl.Stdout())
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err != nil {
			return nil // EOF
		}
		if s.exec(rl.Stdout(), line) {
			return nil
		}
	}
}
