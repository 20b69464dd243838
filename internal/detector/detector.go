// Package detector handles system architecture detection.
package detector

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// ErrUnknownSystem is returned for a system option that names no known system.
var ErrUnknownSystem = errors.New("unknown system")

// Detector handles system architecture detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new system detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the system architecture from options or file auto-detection.
// It first checks if a system is explicitly specified in options, otherwise
// attempts to detect the system from the input filename extension.
func (d *Detector) Detect(opts options.Program) (arch.System, error) {
	if opts.System != "" {
		system, _ := arch.SystemFromString(opts.System)
		if system == "" {
			return "", fmt.Errorf("%w: %s", ErrUnknownSystem, opts.System)
		}
		return system, nil
	}

	system := d.detectFromFile(opts.Input)
	d.logger.Debug("Auto-detected system",
		log.Stringer("system", system),
		log.String("file", opts.Input))
	return system, nil
}

// detectFromFile determines the system type based on file extension.
// Headerless files without a known extension are treated as CHIP-8 programs.
func (d *Detector) detectFromFile(filename string) arch.System {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".nes":
		return arch.NES
	default:
		return arch.CHIP8System
	}
}
