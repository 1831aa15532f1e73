// Package config loads and saves the mmreg configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"

	"mmreg/hw/hwio"
)

type Config struct {
	Gen   GenConfig   `toml:"gen"`
	Bus   BusConfig   `toml:"bus"`
	Shell ShellConfig `toml:"shell"`
}

type GenConfig struct {
	Package     string   `toml:"package"`
	Output      string   `toml:"output"`
	Peripherals []string `toml:"peripherals"`
	Enums       bool     `toml:"enums"`
	RegImport   string   `toml:"reg_import"`
	Banks       bool     `toml:"banks"` // simulated hwio register banks
	HwioImport  string   `toml:"hwio_import"`
}

type BusConfig struct {
	Device string `toml:"device"` // physical memory device
}

type ShellConfig struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"` // history file, none if empty
}

const DefaultFileMode = os.FileMode(0o755)

const cfgFilename = "mmreg.toml"

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Gen: GenConfig{
			Output: "regs.go",
			Enums:  true,
		},
		Bus: BusConfig{
			Device: hwio.DevMem,
		},
		Shell: ShellConfig{
			Prompt: "mmreg> ",
		},
	}
}

// DefaultPath returns the path of the configuration file in the user
// configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "user config directory")
	}
	return filepath.Join(dir, "mmreg", cfgFilename), nil
}

// Load decodes the configuration file at path. Settings missing from the
// file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		return Config{}, errors.Errorf("load config %s: unknown setting %q", path, undec[0].String())
	}
	return cfg, nil
}

// LoadOrDefault is like Load but returns the default configuration if the
// file doesn't exist.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes cfg at path, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultFileMode); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, buf, 0o644)
}
