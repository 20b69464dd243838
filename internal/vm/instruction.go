package vm

import "fmt"

// Op identifies a decoded CHIP-8 operation.
type Op uint8

// All operations of the CHIP-8 instruction set. OpUnknown is the zero value
// and is used for instruction words that match no encoding.
const (
	OpUnknown  Op = iota
	OpCls         // 00E0
	OpRet         // 00EE
	OpJp          // 1NNN
	OpCall        // 2NNN
	OpSeImm       // 3XNN
	OpSneImm      // 4XNN
	OpSeReg       // 5XY0
	OpLdImm       // 6XNN
	OpAddImm      // 7XNN
	OpLdReg       // 8XY0
	OpOr          // 8XY1
	OpAnd         // 8XY2
	OpXor         // 8XY3
	OpAddReg      // 8XY4
	OpSub         // 8XY5
	OpShr         // 8XY6
	OpSubn        // 8XY7
	OpShl         // 8XYE
	OpSneReg      // 9XY0
	OpLdIndex     // ANNN
	OpJpV0        // BNNN
	OpRnd         // CXNN
	OpDrw         // DXYN
	OpSkp         // EX9E
	OpSknp        // EXA1
	OpLdDelay     // FX07
	OpLdKey       // FX0A
	OpSetDelay    // FX15
	OpSetSound    // FX18
	OpAddIndex    // FX1E
	OpLdFont      // FX29
	OpBcd         // FX33
	OpStore       // FX55
	OpLoad        // FX65
)

var opNames = [...]string{
	OpUnknown:  "unknown",
	OpCls:      "cls",
	OpRet:      "ret",
	OpJp:       "jp",
	OpCall:     "call",
	OpSeImm:    "se",
	OpSneImm:   "sne",
	OpSeReg:    "se",
	OpLdImm:    "ld",
	OpAddImm:   "add",
	OpLdReg:    "ld",
	OpOr:       "or",
	OpAnd:      "and",
	OpXor:      "xor",
	OpAddReg:   "add",
	OpSub:      "sub",
	OpShr:      "shr",
	OpSubn:     "subn",
	OpShl:      "shl",
	OpSneReg:   "sne",
	OpLdIndex:  "ld",
	OpJpV0:     "jp",
	OpRnd:      "rnd",
	OpDrw:      "drw",
	OpSkp:      "skp",
	OpSknp:     "sknp",
	OpLdDelay:  "ld",
	OpLdKey:    "ld",
	OpSetDelay: "ld",
	OpSetSound: "ld",
	OpAddIndex: "add",
	OpLdFont:   "ld",
	OpBcd:      "ld",
	OpStore:    "ld",
	OpLoad:     "ld",
}

// Mnemonic returns the assembler mnemonic of the operation.
func (o Op) Mnemonic() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpUnknown]
}

// String returns the mnemonic, used for logging.
func (o Op) String() string {
	return o.Mnemonic()
}

// Instruction is a decoded instruction word. All operand fields are
// extracted for every word, the Op defines which of them are meaningful.
type Instruction struct {
	Op   Op
	Word uint16 // raw instruction word

	X   uint8  // register index in bits 8-11
	Y   uint8  // register index in bits 4-7
	N   uint8  // 4-bit immediate in bits 0-3
	NN  uint8  // 8-bit immediate in bits 0-7
	NNN uint16 // 12-bit address in bits 0-11
}

func (i Instruction) String() string {
	return fmt.Sprintf("%04X %s", i.Word, i.Op)
}

// Decode decodes an instruction word. Words that match no known encoding
// are returned with OpUnknown.
func Decode(word uint16) Instruction {
	ins := Instruction{
		Word: word,
		X:    uint8((word & 0x0F00) >> 8),
		Y:    uint8((word & 0x00F0) >> 4),
		N:    uint8(word & 0x000F),
		NN:   uint8(word & 0x00FF),
		NNN:  word & 0x0FFF,
	}
	ins.Op = decodeOp(word)
	return ins
}

func decodeOp(word uint16) Op {
	switch word & 0xF000 {
	case 0x0000:
		switch word {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}
	case 0x1000:
		return OpJp
	case 0x2000:
		return OpCall
	case 0x3000:
		return OpSeImm
	case 0x4000:
		return OpSneImm
	case 0x5000:
		return OpSeReg
	case 0x6000:
		return OpLdImm
	case 0x7000:
		return OpAddImm
	case 0x8000:
		return decodeArithmetic(word)
	case 0x9000:
		return OpSneReg
	case 0xA000:
		return OpLdIndex
	case 0xB000:
		return OpJpV0
	case 0xC000:
		return OpRnd
	case 0xD000:
		return OpDrw
	case 0xE000:
		switch word & 0x00FF {
		case 0x9E:
			return OpSkp
		case 0xA1:
			return OpSknp
		}
	case 0xF000:
		return decodeMisc(word)
	}
	return OpUnknown
}

// decodeArithmetic decodes the 8XYN family, multiplexed on the last nibble.
func decodeArithmetic(word uint16) Op {
	switch word & 0x000F {
	case 0x0:
		return OpLdReg
	case 0x1:
		return OpOr
	case 0x2:
		return OpAnd
	case 0x3:
		return OpXor
	case 0x4:
		return OpAddReg
	case 0x5:
		return OpSub
	case 0x6:
		return OpShr
	case 0x7:
		return OpSubn
	case 0xE:
		return OpShl
	}
	return OpUnknown
}

// decodeMisc decodes the FXNN family, multiplexed on the last byte.
func decodeMisc(word uint16) Op {
	switch word & 0x00FF {
	case 0x07:
		return OpLdDelay
	case 0x0A:
		return OpLdKey
	case 0x15:
		return OpSetDelay
	case 0x18:
		return OpSetSound
	case 0x1E:
		return OpAddIndex
	case 0x29:
		return OpLdFont
	case 0x33:
		return OpBcd
	case 0x55:
		return OpStore
	case 0x65:
		return OpLoad
	}
	return OpUnknown
}
