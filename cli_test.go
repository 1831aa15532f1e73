package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mmreg/config"
	"mmreg/log"
	"mmreg/svd"
)

const (
	sampleSVD = "svd/testdata/sample.svd"
	packedSVD = "svd/testdata/packed.svd"
)

func TestParseLogModules(t *testing.T) {
	mask, nolog, err := parseLogModules("svd,gen")
	require.NoError(t, err)
	require.False(t, nolog)
	require.Equal(t, log.ModSVD.Mask()|log.ModGen.Mask(), mask)

	mask, _, err = parseLogModules("all")
	require.NoError(t, err)
	require.Equal(t, log.ModuleMaskAll, mask)

	_, nolog, err = parseLogModules("no")
	require.NoError(t, err)
	require.True(t, nolog)

	for _, bad := range []string{"unknown", "all,no", "no,svd"} {
		_, _, err = parseLogModules(bad)
		require.Error(t, err, bad)
	}
}

func TestParseArgsModes(t *testing.T) {
	tests := []struct {
		args []string
		want mode
	}{
		{[]string{"gen", sampleSVD}, genMode},
		{[]string{"dump", sampleSVD}, dumpMode},
		{[]string{"peek", sampleSVD, "GPIOA.IDR"}, peekMode},
		{[]string{"poke", sampleSVD, "GPIOA.MODER", "0x1"}, pokeMode},
		{[]string{"shell", "--sim", sampleSVD}, shellMode},
		{[]string{"init", "--force"}, initMode},
		{[]string{"version"}, versionMode},
	}
	for _, tt := range tests {
		cli := parseArgs(tt.args)
		require.Equal(t, tt.want, cli.mode, strings.Join(tt.args, " "))
	}

	cli := parseArgs([]string{"shell", "--sim", "--device", "/dev/null", sampleSVD})
	require.True(t, cli.Shell.Sim)
	require.Equal(t, "/dev/null", cli.Shell.Device)
}

func TestGenJobs(t *testing.T) {
	cfg := config.Default()
	cfg.Gen.Package = "cfgpkg"
	cfg.Gen.Peripherals = []string{"RCC"}

	jobs := genJobs(&Gen{SVD: []string{"a.svd"}}, cfg)
	require.Len(t, jobs, 1)
	require.Equal(t, "regs.go", jobs[0].Output)
	require.Equal(t, "cfgpkg", jobs[0].Options.Package)
	require.Equal(t, []string{"RCC"}, jobs[0].Options.Peripherals)
	require.True(t, jobs[0].Options.Enums)

	// Flags take precedence.
	jobs = genJobs(&Gen{
		SVD:         []string{"a.svd"},
		Output:      "out/x.go",
		Package:     "flagpkg",
		Peripherals: []string{"GPIOA"},
		NoEnums:     true,
	}, cfg)
	require.Equal(t, "out/x.go", jobs[0].Output)
	require.Equal(t, "flagpkg", jobs[0].Options.Package)
	require.Equal(t, []string{"GPIOA"}, jobs[0].Options.Peripherals)
	require.False(t, jobs[0].Options.Enums)
	require.False(t, jobs[0].Options.Banks)

	jobs = genJobs(&Gen{SVD: []string{"a.svd"}, Banks: true}, cfg)
	require.True(t, jobs[0].Options.Banks)
	cfg.Gen.Banks = true
	cfg.Gen.HwioImport = "example.com/hwio"
	jobs = genJobs(&Gen{SVD: []string{"a.svd"}}, cfg)
	require.True(t, jobs[0].Options.Banks)
	require.Equal(t, "example.com/hwio", jobs[0].Options.HwioImport)
	cfg.Gen.Banks = false

	cfg.Gen.Package = ""
	jobs = genJobs(&Gen{SVD: []string{"dir/STM32F4.svd", "nRF52-840.svd"}, Output: "gen"}, cfg)
	require.Len(t, jobs, 2)
	require.Equal(t, filepath.Join("gen", "stm32f4", "stm32f4.go"), jobs[0].Output)
	require.Equal(t, "stm32f4", jobs[0].Options.Package)
	require.Equal(t, filepath.Join("gen", "nrf52840", "nrf52840.go"), jobs[1].Output)
	require.Equal(t, "nrf52840", jobs[1].Options.Package)
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "mmreg.toml")

	require.NoError(t, runInit(path, false))
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, config.Default().Bus.Device, cfg.Bus.Device)

	require.ErrorContains(t, runInit(path, false), "already exists")
	require.NoError(t, runInit(path, true))
}

func TestRunDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runDump(&buf, &Dump{SVD: sampleSVD}))
	require.Contains(t, buf.String(), `"GPIOA"`)
	require.Contains(t, buf.String(), `"0x40020400"`)
}

func TestParseValue(t *testing.T) {
	for s, want := range map[string]uint32{
		"10":         10,
		"0x1f":       0x1f,
		"0b101":      5,
		"0xffffffff": 0xffffffff,
	} {
		got, err := parseValue(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}
	for _, s := range []string{"", "0x1ffffffff", "-1", "abc"} {
		_, err := parseValue(s)
		require.Error(t, err, s)
	}
}

func newTestSession(t *testing.T) *session {
	t.Helper()
	dev, err := svd.ParseFile(sampleSVD)
	require.NoError(t, err)
	return newSession(dev, true, "")
}

// run executes the shell command line and returns its output.
func run(t *testing.T, s *session, line string) string {
	t.Helper()
	var buf bytes.Buffer
	require.False(t, s.exec(&buf, line), line)
	return buf.String()
}

func TestShellPeekPoke(t *testing.T) {
	s := newTestSession(t)

	require.Equal(t, "GPIOA.MODER = 0xa8000000\n", run(t, s, "peek GPIOA.MODER"))
	require.Equal(t, "GPIOA.MODER.MODER1 <- 0x2\n", run(t, s, "poke gpioa.moder.moder1 2"))
	require.Equal(t, "GPIOA.MODER = 0xa8000008\n", run(t, s, "peek GPIOA.MODER"))
	require.Equal(t, "GPIOA.MODER.MODER1 = 0x2\n", run(t, s, "p GPIOA.MODER.MODER1"))

	// Peripherals don't share registers.
	require.Equal(t, "GPIOB.MODER = 0xa8000000\n", run(t, s, "peek GPIOB.MODER"))

	// Read-only field of a read-write register.
	run(t, s, "poke GPIOA.LCKR 0xffffffff")
	require.Equal(t, "GPIOA.LCKR = 0xffff0000\n", run(t, s, "peek GPIOA.LCKR"))

	// 16-bit register with a read-only bit set at reset.
	run(t, s, "poke RCC.CR 0")
	require.Equal(t, "RCC.CR = 0x2\n", run(t, s, "peek RCC.CR"))
	require.Contains(t, run(t, s, "poke RCC.CR 0x10000"), "overflows")
}

func TestShellAccessErrors(t *testing.T) {
	s := newTestSession(t)

	require.Equal(t, "Error: GPIOA.BSRR is write-only\n", run(t, s, "peek GPIOA.BSRR"))
	require.Equal(t, "Error: GPIOA.IDR is read-only\n", run(t, s, "poke GPIOA.IDR 1"))
	require.Contains(t, run(t, s, "poke GPIOA.MODER.MODER1 4"), "overflows")
	require.Contains(t, run(t, s, "poke GPIOA.MODER.MODER1 zz"), "invalid value")
	require.Contains(t, run(t, s, "peek GPIOA.NOPE"), "Error:")
	require.Contains(t, run(t, s, "peek"), "usage: peek")
	require.Contains(t, run(t, s, "poke GPIOA.MODER"), "usage: poke")

	// Write-only registers can be written.
	require.Equal(t, "GPIOA.BSRR.BS0 <- 0x1\n", run(t, s, "poke GPIOA.BSRR.BS0 1"))
}

func TestShellReset(t *testing.T) {
	s := newTestSession(t)

	run(t, s, "poke GPIOA.MODER 0")
	require.Equal(t, "GPIOA.MODER = 0x0\n", run(t, s, "peek GPIOA.MODER"))
	require.Equal(t, "registers reset\n", run(t, s, "reset"))
	require.Equal(t, "GPIOA.MODER = 0xa8000000\n", run(t, s, "peek GPIOA.MODER"))

	hw := newSession(s.dev, false, "")
	require.Contains(t, run(t, hw, "reset"), "only available in simulation")
}

func TestShellListings(t *testing.T) {
	s := newTestSession(t)

	out := run(t, s, "regs gpioa")
	require.Contains(t, out, "0xa8000000")
	require.Regexp(t, `BSRR\s+0x40020018\s+write-only\s+--`, out)
	require.Regexp(t, `AFRL\s+0x40020020\s+read-write\s+0x00000000`, out)
	require.Contains(t, run(t, s, "regs FOO"), `unknown peripheral "FOO"`)

	out = run(t, s, "periphs")
	require.Regexp(t, `GPIOA\s+0x40020000`, out)
	require.Regexp(t, `RCC\s+0x40023800`, out)

	out = run(t, s, "info GPIOA.LCKR")
	require.Contains(t, out, "GPIOA.LCKR @ 0x4002001c")
	require.Contains(t, out, "GPIOA.LCKR.LCK @ 0x4002001c [15:0] read-only")

	out = run(t, s, "info GPIOA.MODER.MODER2")
	require.Contains(t, out, "[5:4]")
	require.Regexp(t, `Alternate\s+= 2`, out)

	require.Contains(t, run(t, s, "frobnicate"), "Unknown command: frobnicate")
	require.Contains(t, run(t, s, "help"), "peek <P.R[.F]>")
	require.Empty(t, run(t, s, "   "))
}

func TestShellPackedRegisters(t *testing.T) {
	dev, err := svd.ParseFile(packedSVD)
	require.NoError(t, err)
	s := newSession(dev, true, "")

	require.Equal(t, "TIM.CR1 = 0x1\n", run(t, s, "peek TIM.CR1"))
	require.Equal(t, "TIM.CR2 = 0x10\n", run(t, s, "peek TIM.CR2"))
	run(t, s, "poke TIM.CR2.MMS 5")
	require.Equal(t, "TIM.CR2 = 0x50\n", run(t, s, "peek TIM.CR2"))
	require.Equal(t, "TIM.CR1 = 0x1\n", run(t, s, "peek TIM.CR1"))

	run(t, s, "poke TIM.RCR 0xab")
	require.Equal(t, "TIM.PSC = 0x7\n", run(t, s, "peek TIM.PSC"))
	require.Equal(t, "TIM.RCR = 0xab\n", run(t, s, "peek TIM.RCR"))
	require.Contains(t, run(t, s, "poke TIM.RCR 0x100"), "overflows")

	out := run(t, s, "regs TIM")
	require.Regexp(t, `CR2\s+0x40001002\s+read-write\s+0x00000050`, out)
	require.Regexp(t, `EGR\s+0x40001006\s+write-only\s+--`, out)

	// A field named RESET.
	require.Equal(t, "PWR.CR.RESET = 0x1\n", run(t, s, "peek PWR.CR.RESET"))
}

func TestShellRegsBusError(t *testing.T) {
	dev, err := svd.ParseFile(sampleSVD)
	require.NoError(t, err)
	hw := newSession(dev, false, filepath.Join(t.TempDir(), "nomem"))

	out := run(t, hw, "regs GPIOA")
	require.True(t, strings.HasPrefix(out, "Error:"), out)
	require.NotContains(t, out, "MODER")
}

func TestShellQuit(t *testing.T) {
	s := newTestSession(t)
	for _, cmd := range []string{"quit", "exit", "q", "QUIT"} {
		require.True(t, s.exec(&bytes.Buffer{}, cmd), cmd)
	}
}
