// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Input  string
	Output string
}

// Flags contains behavior options shared by all commands.
type Flags struct {
	System string
	Debug  bool
	Quiet  bool
}

// RunFlags contains the options of the run command.
type RunFlags struct {
	Cycles      uint64
	Rate        int
	Keys        string
	Breakpoints string
	Trace       bool

	IncrementIndex bool
	ShiftUsesVY    bool
	NotBorrow      bool
}

// DisasmFlags contains the options of the disasm command.
type DisasmFlags struct {
	Linear        bool
	NoHexComments bool
	NoOffsets     bool
}

// Program options of the interpreter.
type Program struct {
	Parameters
	Flags
	RunFlags
	DisasmFlags
}

// Runner defines options to control a headless run.
type Runner struct {
	Cycles      uint64   // cycles to run, 0 for no limit
	Rate        int      // cycles per second, 0 for unpaced
	Keys        []uint8  // keys held pressed for the whole run
	Breakpoints []uint16 // addresses to stop at before executing
	Trace       bool

	IncrementIndexOnBlockTransfer bool
	ShiftUsesVY                   bool
	SubtractSetsNotBorrow         bool
}

// Disassembler defines options to control the disassembler output.
type Disassembler struct {
	Linear         bool
	HexComments    bool
	OffsetComments bool
}

// NewDisassembler returns a new options instance with default options.
func NewDisassembler() Disassembler {
	return Disassembler{
		HexComments:    true,
		OffsetComments: true,
	}
}
