// Package vm implements a CHIP-8 interpreter.
//
// # Machine Overview
//
// A Machine holds the complete state of the virtual machine:
//   - 16 general purpose 8-bit registers V0-VF, VF doubles as carry, borrow
//     and collision flag
//   - 4KB of memory, the hexadecimal font is stored at FontAddress and
//     programs are loaded at ProgramStart
//   - the 16-bit index register I and the program counter
//   - a call stack of StackSize return addresses
//   - the delay and sound timers
//   - a 16 key hexadecimal keypad
//   - a monochrome 64x32 framebuffer
//
// # Execution
//
// Every call to Step performs exactly one cycle: the instruction word at the
// program counter is fetched, the program counter is advanced by 2, the word
// is decoded into an Instruction and executed, and finally both timers are
// decremented. Decoding and execution are separate so that Decode can be
// used and tested on its own.
//
// Unknown instruction words are reported to the configured logger, counted
// and otherwise ignored. Stack overflow, stack underflow and key indexes
// outside of the keypad halt the machine; Step returns the error for that
// cycle and every following one until Reset is called.
//
// # Waiting for input
//
// The FX0A instruction puts the machine into an explicit waiting state that
// can be queried with AwaitingKey. While waiting, every Step only polls the
// keypad and runs the timers, the program counter stays at the address of
// the waiting instruction. Once a key is pressed its index is stored in the
// target register and execution continues with the next instruction.
//
// # Usage Example
//
//	machine := vm.New(vm.WithLogger(logger))
//	if err := machine.LoadProgram(rom); err != nil {
//		return fmt.Errorf("loading program: %w", err)
//	}
//
//	for {
//		machine.SetKey(0x5, pressed)
//		if err := machine.Step(); err != nil {
//			return fmt.Errorf("executing cycle: %w", err)
//		}
//		render(machine.Framebuffer())
//	}
package vm
