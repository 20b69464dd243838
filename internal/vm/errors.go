package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrProgramTooLarge is returned when a program does not fit into the
	// memory area starting at ProgramStart.
	ErrProgramTooLarge = errors.New("program too large")
	// ErrStackOverflow is returned when a subroutine call exceeds StackSize
	// nested calls.
	ErrStackOverflow = errors.New("stack overflow")
	// ErrStackUnderflow is returned when a subroutine return is executed
	// with an empty call stack.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrInvalidKey is returned when a key instruction references a key
	// outside of the keypad.
	ErrInvalidKey = errors.New("invalid key")
)

// ProgramSizeError is returned by LoadProgram for programs that exceed the
// available memory.
type ProgramSizeError struct {
	Size     int
	Capacity int
}

func (e *ProgramSizeError) Error() string {
	return fmt.Sprintf("%s (program size: %d, free memory: %d)",
		ErrProgramTooLarge, e.Size, e.Capacity)
}

// Unwrap allows checking for ErrProgramTooLarge with errors.Is.
func (e *ProgramSizeError) Unwrap() error {
	return ErrProgramTooLarge
}
