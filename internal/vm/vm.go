package vm

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrogolib/log"
)

// CHIP-8 memory layout and hardware constants.
//
//	0x000-0x1FF: Interpreter area, the font is stored at 0x050-0x09F
//	0x200-0xFFF: Program space
const (
	// MemorySize is the size of the addressable memory.
	MemorySize = 0x1000
	// AddressMask reduces any address to the 4KB address space.
	AddressMask = MemorySize - 1
	// ProgramStart is the address where programs are loaded and execution
	// begins.
	ProgramStart = 0x200
	// MaxProgramSize is the largest program that fits into memory.
	MaxProgramSize = MemorySize - ProgramStart

	// RegisterCount is the number of general purpose registers.
	RegisterCount = 16
	// FlagRegister is the index of VF, used for carry, borrow and collision.
	FlagRegister = 0xF

	// StackSize is the maximum number of nested subroutine calls.
	StackSize = 16
	// KeyCount is the number of keys on the hexadecimal keypad.
	KeyCount = 16

	// InstructionSize is the size of every instruction in bytes.
	InstructionSize = 2
)

// Quirks switches between behaviours that differ across historical
// interpreters.
type Quirks struct {
	// IncrementIndexOnBlockTransfer makes FX55 and FX65 leave I pointing
	// behind the last transferred byte, as the COSMAC VIP
	// interpreter did.
	IncrementIndexOnBlockTransfer bool
	// ShiftUsesVY makes 8XY6 and 8XYE shift VY and store the result in VX
	// instead of shifting VX in place.
	ShiftUsesVY bool
	// SubtractSetsNotBorrow makes 8XY5 and 8XY7 set VF to 1 when no borrow
	// occurs, as the COSMAC VIP interpreter did. By default VF is 1 on borrow.
	SubtractSetsNotBorrow bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger that unknown instructions are reported to.
func WithLogger(logger *log.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithQuirks sets the interpreter quirks.
func WithQuirks(quirks Quirks) Option {
	return func(m *Machine) {
		m.quirks = quirks
	}
}

// WithRandom sets the random byte source used by the CXNN instruction.
func WithRandom(random func() uint8) Option {
	return func(m *Machine) {
		m.random = random
	}
}

// Machine is the state of a CHIP-8 virtual machine. It is not safe for
// concurrent use, except for the keypad which can be written from any
// goroutine using SetKey.
type Machine struct {
	v      [RegisterCount]uint8
	memory [MemorySize]byte
	index  uint16
	pc     uint16
	stack  [StackSize]uint16
	sp     uint8

	delayTimer uint8
	soundTimer uint8

	keypad  keypad
	display Framebuffer

	opcode uint16 // instruction word of the current cycle

	awaitingKey    bool
	keyRegister    uint8 // target register of a pending key wait
	soundActive    bool
	displayChanged bool
	unknownOpcodes uint64
	halt           error

	logger *log.Logger
	quirks Quirks
	random func() uint8
}

// New returns a new machine with the font installed and the program counter
// pointing to ProgramStart.
func New(options ...Option) *Machine {
	m := &Machine{
		random: randomByte,
	}
	for _, option := range options {
		option(m)
	}
	m.Reset()
	return m
}

func randomByte() uint8 {
	return uint8(rand.UintN(256))
}

// Reset reinitializes the machine state. Options passed to New are kept.
func (m *Machine) Reset() {
	m.v = [RegisterCount]uint8{}
	m.memory = [MemorySize]byte{}
	copy(m.memory[FontAddress:], font[:])
	m.index = 0
	m.pc = ProgramStart
	m.stack = [StackSize]uint16{}
	m.sp = 0
	m.delayTimer = 0
	m.soundTimer = 0
	m.keypad.reset()
	m.display = Framebuffer{}
	m.opcode = 0
	m.awaitingKey = false
	m.keyRegister = 0
	m.soundActive = false
	m.displayChanged = false
	m.unknownOpcodes = 0
	m.halt = nil
}

// LoadProgram copies a program image into memory at ProgramStart and clears
// the rest of the program space. The program counter restarts at
// ProgramStart and a pending key wait is cancelled, other state is kept.
// Programs larger than MaxProgramSize are rejected without modifying memory.
func (m *Machine) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return &ProgramSizeError{Size: len(program), Capacity: MaxProgramSize}
	}
	n := copy(m.memory[ProgramStart:], program)
	clear(m.memory[ProgramStart+n:])
	m.pc = ProgramStart
	m.awaitingKey = false
	m.keyRegister = 0
	return nil
}

// Register returns the value of register VX.
func (m *Machine) Register(x uint8) uint8 { return m.v[x&0xF] }

// Registers returns a copy of all registers.
func (m *Machine) Registers() [RegisterCount]uint8 { return m.v }

// Index returns the index register I.
func (m *Machine) Index() uint16 { return m.index }

// ProgramCounter returns the address of the next instruction to execute.
func (m *Machine) ProgramCounter() uint16 { return m.pc }

// StackPointer returns the number of return addresses on the call stack.
func (m *Machine) StackPointer() uint8 { return m.sp }

// Stack returns a copy of the return addresses currently on the call stack,
// the most recent call last.
func (m *Machine) Stack() []uint16 {
	stack := make([]uint16, m.sp)
	copy(stack, m.stack[:m.sp])
	return stack
}

// DelayTimer returns the current delay timer value.
func (m *Machine) DelayTimer() uint8 { return m.delayTimer }

// SoundTimer returns the current sound timer value.
func (m *Machine) SoundTimer() uint8 { return m.soundTimer }

// ReadMemory returns the byte at the given address, reduced to the 4KB
// address space.
func (m *Machine) ReadMemory(address uint16) byte {
	return m.memory[address&AddressMask]
}

// CurrentInstruction returns the instruction word fetched in the last cycle.
func (m *Machine) CurrentInstruction() uint16 { return m.opcode }

// UnknownOpcodes returns how many unknown instruction words were skipped.
func (m *Machine) UnknownOpcodes() uint64 { return m.unknownOpcodes }

// AwaitingKey returns whether the machine is blocked on a FX0A instruction
// until a key gets pressed.
func (m *Machine) AwaitingKey() bool { return m.awaitingKey }

// SoundActive returns whether the sound timer expired in the last cycle,
// which is the signal for the caller to play a tone for that cycle.
func (m *Machine) SoundActive() bool { return m.soundActive }

// DisplayChanged returns whether the framebuffer was modified since the last
// call to ClearDisplayChanged.
func (m *Machine) DisplayChanged() bool { return m.displayChanged }

// ClearDisplayChanged resets the display changed flag.
func (m *Machine) ClearDisplayChanged() { m.displayChanged = false }

// Halted returns the fatal error that stopped the machine, or nil.
func (m *Machine) Halted() error { return m.halt }

// Framebuffer returns a copy of the current framebuffer.
func (m *Machine) Framebuffer() Framebuffer { return m.display }

// Pixel returns whether the pixel at the given position is set. Positions
// outside of the display are never set.
func (m *Machine) Pixel(x, y int) bool { return m.display.Pixel(x, y) }

// SetKey sets the pressed state of a keypad key. Keys outside of the keypad
// are ignored. It is safe to call SetKey concurrently with Step.
func (m *Machine) SetKey(key uint8, pressed bool) {
	if key >= KeyCount {
		return
	}
	m.keypad[key].Store(pressed)
}

// KeyPressed returns whether the given key is currently pressed.
func (m *Machine) KeyPressed(key uint8) bool {
	if key >= KeyCount {
		return false
	}
	return m.keypad[key].Load()
}

// String returns formatted information about the machine state.
func (m *Machine) String() string {
	return fmt.Sprintf("Machine{Registers: [% 02X], I: %04X, PC: %04X, "+
		"Stack: %04X, SP: %d, DT: %02X, ST: %02X, Keypad: %016b}",
		m.v[:], m.index, m.pc, m.stack[:m.sp], m.sp, m.delayTimer,
		m.soundTimer, m.keypad.bits())
}
