// Package loader handles CHIP-8 program file loading operations.
package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/arch/system/nes/cartridge"
)

var (
	// ErrUnsupportedSystem is returned for input files of a system other than CHIP-8.
	ErrUnsupportedSystem = errors.New("unsupported system")
	// ErrEmptyProgram is returned for input files without any content.
	ErrEmptyProgram = errors.New("empty program")
)

// Loader handles loading program files from disk.
type Loader struct{}

// New creates a new program loader.
func New() *Loader {
	return &Loader{}
}

// Load loads the program image of the input file. CHIP-8 programs have no
// header, the whole file is loaded as a raw buffer.
func (l *Loader) Load(input string, system arch.System) ([]byte, error) {
	if system != arch.CHIP8System {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSystem, system)
	}

	file, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", input, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading file info %s: %w", input, err)
	}

	size := int(info.Size())
	switch {
	case size == 0:
		return nil, fmt.Errorf("loading %s: %w", input, ErrEmptyProgram)
	case size > vm.MaxProgramSize:
		return nil, fmt.Errorf("loading %s: %w", input,
			&vm.ProgramSizeError{Size: size, Capacity: vm.MaxProgramSize})
	}

	cart, err := cartridge.LoadBuffer(file)
	if err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}

	// the buffer is padded to a full bank
	size = min(size, len(cart.PRG))
	return cart.PRG[:size], nil
}
