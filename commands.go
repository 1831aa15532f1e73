package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"mmreg/config"
	"mmreg/gen"
	"mmreg/log"
	"mmreg/svd"
)

// genJobs builds one generation job per SVD file. Command line flags take
// precedence over the configuration. With several SVD files, the output is a
// directory holding one package per file, named after the file unless the
// package is given on the command line.
func genJobs(g *Gen, cfg config.Config) []gen.Job {
	opts := gen.Options{
		Package:     cfg.Gen.Package,
		Peripherals: cfg.Gen.Peripherals,
		Enums:       cfg.Gen.Enums && !g.NoEnums,
		RegImport:   cfg.Gen.RegImport,
		Banks:       cfg.Gen.Banks || g.Banks,
		HwioImport:  cfg.Gen.HwioImport,
	}
	if g.Package != "" {
		opts.Package = g.Package
	}
	if len(g.Peripherals) != 0 {
		opts.Peripherals = g.Peripherals
	}
	output := cfg.Gen.Output
	if g.Output != "" {
		output = g.Output
	}

	if len(g.SVD) == 1 {
		return []gen.Job{{SVD: g.SVD[0], Output: output, Options: opts}}
	}

	dir := output
	if filepath.Ext(dir) == ".go" {
		dir = filepath.Dir(dir)
	}
	jobs := make([]gen.Job, 0, len(g.SVD))
	for _, path := range g.SVD {
		stem := gen.PackageName(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		o := opts
		if g.Package == "" {
			o.Package = stem
		}
		jobs = append(jobs, gen.Job{
			SVD:     path,
			Output:  filepath.Join(dir, stem, stem+".go"),
			Options: o,
		})
	}
	return jobs
}

func runGen(ctx context.Context, g *Gen, cfg config.Config) error {
	jobs := genJobs(g, cfg)
	log.ModCLI.DebugZ("starting generation").Int("jobs", len(jobs)).End()
	return gen.RunJobs(ctx, jobs)
}

func runDump(w io.Writer, d *Dump) error {
	dev, err := svd.ParseFile(d.SVD)
	if err != nil {
		return err
	}
	return svd.WriteJSON(w, dev)
}

func deviceOr(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Bus.Device
}

func lookup(path, name string) (svd.Entry, error) {
	dev, err := svd.ParseFile(path)
	if err != nil {
		return svd.Entry{}, err
	}
	return dev.Lookup(name)
}

func runPeek(w io.Writer, p *Peek, cfg config.Config) error {
	e, err := lookup(p.SVD, p.Path)
	if err != nil {
		return err
	}
	if !e.Access().CanRead() {
		return errors.Errorf("%s is %s", e, e.Access().SVDName())
	}

	m, err := mapEntry(deviceOr(p.Device, cfg), e)
	if err != nil {
		return err
	}
	defer m.Close()

	val, err := readEntry(m, e, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = 0x%x\n", e, val)
	return nil
}

func runPoke(p *Poke, cfg config.Config) error {
	e, err := lookup(p.SVD, p.Path)
	if err != nil {
		return err
	}
	val, err := parseValue(p.Value)
	if err != nil {
		return err
	}
	if !e.Access().CanWrite() {
		return errors.Errorf("%s is %s", e, e.Access().SVDName())
	}

	m, err := mapEntry(deviceOr(p.Device, cfg), e)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := writeEntry(m, e, val); err != nil {
		return err
	}
	log.ModCLI.InfoZ("register written").
		Stringer("entry", e).
		Hex32("value", val).
		End()
	return nil
}
