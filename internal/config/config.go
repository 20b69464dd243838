// Package config handles application configuration and setup
package config

import (
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// MachineOptions returns the interpreter options for a run.
func MachineOptions(logger *log.Logger, opts options.Runner) []vm.Option {
	return []vm.Option{
		vm.WithLogger(logger),
		vm.WithQuirks(vm.Quirks{
			IncrementIndexOnBlockTransfer: opts.IncrementIndexOnBlockTransfer,
			ShiftUsesVY:                   opts.ShiftUsesVY,
			SubtractSetsNotBorrow:         opts.SubtractSetsNotBorrow,
		}),
	}
}
