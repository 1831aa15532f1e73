package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmreg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[gen]
package = "stm32f4"
peripherals = ["GPIOA", "RCC"]
enums = false

[shell]
history = "/tmp/mmreg_history"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Gen.Package = "stm32f4"
	want.Gen.Peripherals = []string{"GPIOA", "RCC"}
	want.Gen.Enums = false
	want.Shell.History = "/tmp/mmreg_history"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadUnknownSetting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmreg.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bus]\nspeed = 12\n"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "unknown setting")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "mmreg.toml")

	cfg := Default()
	cfg.Gen.Package = "regs"
	cfg.Bus.Device = "/dev/uio0"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Save/Load mismatch (-want +got):\n%s", diff)
	}
}
