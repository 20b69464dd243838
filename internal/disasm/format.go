// Package disasm turns CHIP-8 instruction words into assembly text.
package disasm

import (
	"fmt"

	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Format returns the assembly text of a single instruction word, for
// example "ld V0, $0A" or "drw V0, V1, $5". Words that do not encode a
// known instruction are returned as a ".word $XXXX" directive.
func Format(word uint16) string {
	return formatInstruction(vm.Decode(word), "")
}

// formatInstruction formats a decoded instruction. A non empty target
// replaces the address operand of jumps, calls and index loads.
func formatInstruction(ins vm.Instruction, target string) string {
	if ins.Op == vm.OpUnknown {
		return fmt.Sprintf(".word $%04X", ins.Word)
	}

	name := instructionName(ins)
	if params := formatParams(ins, target); params != "" {
		return fmt.Sprintf("%s %s", name, params)
	}
	return name
}

// instructionName returns the mnemonic from the CHIP-8 opcode tables, the
// interpreter's own mnemonic is used for words the tables do not cover.
func instructionName(ins vm.Instruction) string {
	if info := lookupInstruction(ins.Word); info != nil {
		return info.Name
	}
	return ins.Op.Mnemonic()
}

// lookupInstruction finds the opcode table entry that matches word.
func lookupInstruction(word uint16) *chip8.Instruction {
	firstNibble := (word & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&word == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// formatParams formats the operands of an instruction.
func formatParams(ins vm.Instruction, target string) string {
	address := fmt.Sprintf("$%03X", ins.NNN)
	if target != "" {
		address = target
	}

	switch ins.Op {
	case vm.OpCls, vm.OpRet:
		return ""
	case vm.OpJp, vm.OpCall:
		return address
	case vm.OpJpV0:
		return "V0, " + address
	case vm.OpLdIndex:
		return "I, " + address

	case vm.OpSeImm, vm.OpSneImm, vm.OpLdImm, vm.OpAddImm, vm.OpRnd:
		return fmt.Sprintf("V%X, $%02X", ins.X, ins.NN)
	case vm.OpSeReg, vm.OpSneReg, vm.OpLdReg, vm.OpOr, vm.OpAnd, vm.OpXor,
		vm.OpAddReg, vm.OpSub, vm.OpSubn:
		return fmt.Sprintf("V%X, V%X", ins.X, ins.Y)
	case vm.OpShr, vm.OpShl, vm.OpSkp, vm.OpSknp:
		return fmt.Sprintf("V%X", ins.X)
	case vm.OpDrw:
		return fmt.Sprintf("V%X, V%X, $%X", ins.X, ins.Y, ins.N)

	case vm.OpLdDelay:
		return fmt.Sprintf("V%X, DT", ins.X)
	case vm.OpLdKey:
		return fmt.Sprintf("V%X, K", ins.X)
	case vm.OpSetDelay:
		return fmt.Sprintf("DT, V%X", ins.X)
	case vm.OpSetSound:
		return fmt.Sprintf("ST, V%X", ins.X)
	case vm.OpAddIndex:
		return fmt.Sprintf("I, V%X", ins.X)
	case vm.OpLdFont:
		return fmt.Sprintf("F, V%X", ins.X)
	case vm.OpBcd:
		return fmt.Sprintf("B, V%X", ins.X)
	case vm.OpStore:
		return fmt.Sprintf("[I], V%X", ins.X)
	case vm.OpLoad:
		return fmt.Sprintf("V%X, [I]", ins.X)
	}
	return ""
}
