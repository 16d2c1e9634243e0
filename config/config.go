// Package config loads qir-run settings from TOML files.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/qir-runtime/backend/sim"
	"github.com/wippyai/qir-runtime/output"
)

// Config is the qir-run configuration file.
//
//	[engine]
//	interpreter = false
//	memory_limit_pages = 256
//
//	[simulator]
//	shots = 100
//	seed = 7
//	max_qubits = 20
//
//	[output]
//	format = "text"
//	color = "auto"
//	keep_shots = false
//
//	[log]
//	level = "warn"
type Config struct {
	Engine    Engine    `toml:"engine"`
	Simulator Simulator `toml:"simulator"`
	Output    Output    `toml:"output"`
	Log       Log       `toml:"log"`
}

type Engine struct {
	Interpreter      bool   `toml:"interpreter"`
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
}

type Simulator struct {
	Shots     int     `toml:"shots"`
	Seed      *uint64 `toml:"seed"` // nil draws a random seed
	MaxQubits int     `toml:"max_qubits"`
}

type Output struct {
	Format    string `toml:"format"`
	Color     string `toml:"color"` // auto, always or never
	KeepShots bool   `toml:"keep_shots"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: Engine{MemoryLimitPages: 256},
		Simulator: Simulator{
			Shots:     1,
			MaxQubits: sim.DefaultMaxQubits,
		},
		Output: Output{Format: string(output.FormatText), Color: "auto"},
		Log:    Log{Level: "warn"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, cfg.Validate()
}

var levels = []string{"debug", "info", "warn", "error"}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Simulator.Shots < 1 {
		errs = append(errs, fmt.Errorf("simulator.shots must be positive, got %d", c.Simulator.Shots))
	}
	if c.Simulator.MaxQubits < 1 || c.Simulator.MaxQubits > sim.QubitLimit {
		errs = append(errs, fmt.Errorf("simulator.max_qubits must be within 1..%d, got %d", sim.QubitLimit, c.Simulator.MaxQubits))
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color))
	}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %s, got %q", strings.Join(levels, ", "), c.Log.Level))
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
