package vm

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Step runs a single machine cycle: fetch, decode, execute and timer update.
// A returned error is fatal, the machine is halted and every further call
// returns the same error until Reset is called.
func (m *Machine) Step() error {
	if m.halt != nil {
		return m.halt
	}

	if m.awaitingKey {
		m.pollKey()
	} else {
		address := m.pc
		m.opcode = m.fetch(address)
		m.pc += InstructionSize

		if err := m.execute(Decode(m.opcode), address); err != nil {
			m.halt = fmt.Errorf("executing %04X at %04X: %w", m.opcode, address, err)
			return m.halt
		}
	}

	m.tickTimers()
	return nil
}

// fetch reads the big endian instruction word at address.
func (m *Machine) fetch(address uint16) uint16 {
	hi := m.memory[address&AddressMask]
	lo := m.memory[(address+1)&AddressMask]
	return uint16(hi)<<8 | uint16(lo)
}

// tickTimers decrements both timers, flagging the sound signal when the
// sound timer expires in this cycle.
func (m *Machine) tickTimers() {
	if m.delayTimer > 0 {
		m.delayTimer--
	}

	m.soundActive = m.soundTimer == 1
	if m.soundTimer > 0 {
		m.soundTimer--
	}
}

// pollKey completes a pending key wait once any key is pressed.
func (m *Machine) pollKey() {
	key, ok := m.keypad.firstPressed()
	if !ok {
		return
	}

	m.v[m.keyRegister] = key
	m.awaitingKey = false
	m.pc += InstructionSize
}

// execute runs a decoded instruction. The program counter already points
// to the following instruction, address is the address of ins.
func (m *Machine) execute(ins Instruction, address uint16) error {
	switch ins.Op {
	case OpCls:
		m.display = Framebuffer{}
		m.displayChanged = true
	case OpRet:
		if m.sp == 0 {
			return ErrStackUnderflow
		}
		m.sp--
		m.pc = m.stack[m.sp]
	case OpJp:
		m.pc = ins.NNN
	case OpCall:
		if m.sp >= StackSize {
			return ErrStackOverflow
		}
		m.stack[m.sp] = m.pc
		m.sp++
		m.pc = ins.NNN

	case OpSeImm:
		m.skipIf(m.v[ins.X] == ins.NN)
	case OpSneImm:
		m.skipIf(m.v[ins.X] != ins.NN)
	case OpSeReg:
		m.skipIf(m.v[ins.X] == m.v[ins.Y])
	case OpSneReg:
		m.skipIf(m.v[ins.X] != m.v[ins.Y])

	case OpLdImm:
		m.v[ins.X] = ins.NN
	case OpAddImm:
		m.v[ins.X] += ins.NN

	case OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpShr, OpSubn, OpShl:
		m.executeArithmetic(ins)

	case OpLdIndex:
		m.index = ins.NNN
	case OpJpV0:
		m.pc = ins.NNN + uint16(m.v[0])
	case OpRnd:
		m.v[ins.X] = m.random() & ins.NN
	case OpDrw:
		m.draw(ins)

	case OpSkp, OpSknp:
		key := m.v[ins.X]
		if key >= KeyCount {
			return fmt.Errorf("%w: V%X holds %02X", ErrInvalidKey, ins.X, key)
		}
		pressed := m.keypad[key].Load()
		m.skipIf(pressed == (ins.Op == OpSkp))

	case OpLdDelay:
		m.v[ins.X] = m.delayTimer
	case OpLdKey:
		m.waitForKey(ins.X, address)
	case OpSetDelay:
		m.delayTimer = m.v[ins.X]
	case OpSetSound:
		m.soundTimer = m.v[ins.X]

	case OpAddIndex:
		m.index += uint16(m.v[ins.X])
	case OpLdFont:
		m.index = GlyphAddress(m.v[ins.X])
	case OpBcd:
		value := m.v[ins.X]
		m.writeMemory(m.index, value/100)
		m.writeMemory(m.index+1, value/10%10)
		m.writeMemory(m.index+2, value%10)
	case OpStore:
		for i := uint16(0); i <= uint16(ins.X); i++ {
			m.writeMemory(m.index+i, m.v[i])
		}
		m.advanceIndex(ins.X)
	case OpLoad:
		for i := uint16(0); i <= uint16(ins.X); i++ {
			m.v[i] = m.memory[(m.index+i)&AddressMask]
		}
		m.advanceIndex(ins.X)

	case OpUnknown:
		m.unknownOpcodes++
		if m.logger != nil {
			m.logger.Warn("Unknown opcode",
				log.Hex("opcode", ins.Word),
				log.Hex("address", address))
		}
	}

	return nil
}

// executeArithmetic runs the 8XYN register operations. Operations that
// produce a carry, borrow or shifted out bit write VF as their last step,
// so the flag wins when VF is also the destination register.
func (m *Machine) executeArithmetic(ins Instruction) {
	x, y := ins.X, ins.Y
	var flag uint8

	switch ins.Op {
	case OpLdReg:
		m.v[x] = m.v[y]
		return
	case OpOr:
		m.v[x] |= m.v[y]
		return
	case OpAnd:
		m.v[x] &= m.v[y]
		return
	case OpXor:
		m.v[x] ^= m.v[y]
		return

	case OpAddReg:
		sum := uint16(m.v[x]) + uint16(m.v[y])
		m.v[x] = uint8(sum)
		flag = uint8(sum >> 8)
	case OpSub:
		flag = m.borrowFlag(m.v[x], m.v[y])
		m.v[x] -= m.v[y]
	case OpSubn:
		flag = m.borrowFlag(m.v[y], m.v[x])
		m.v[x] = m.v[y] - m.v[x]
	case OpShr:
		source := m.shiftSource(x, y)
		flag = source & 0x01 // least significant bit
		m.v[x] = source >> 1
	case OpShl:
		source := m.shiftSource(x, y)
		flag = source >> 7 // most significant bit
		m.v[x] = source << 1

	default:
		return
	}

	m.v[FlagRegister] = flag
}

// borrowFlag returns the VF value of the subtraction minuend - subtrahend:
// 1 on borrow, or 1 on no borrow with the SubtractSetsNotBorrow quirk.
func (m *Machine) borrowFlag(minuend, subtrahend uint8) uint8 {
	borrow := minuend < subtrahend
	if m.quirks.SubtractSetsNotBorrow {
		return boolToFlag(!borrow)
	}
	return boolToFlag(borrow)
}

func (m *Machine) shiftSource(x, y uint8) uint8 {
	if m.quirks.ShiftUsesVY {
		return m.v[y]
	}
	return m.v[x]
}

// draw runs DXYN. The origin wraps around the display, the sprite itself is
// clipped at the right and bottom edges.
func (m *Machine) draw(ins Instruction) {
	originX := int(m.v[ins.X]) % DisplayWidth
	originY := int(m.v[ins.Y]) % DisplayHeight

	var buf [15]byte
	sprite := buf[:ins.N]
	for row := range sprite {
		sprite[row] = m.memory[(int(m.index)+row)&AddressMask]
	}

	m.v[FlagRegister] = 0
	if m.display.drawSprite(originX, originY, sprite) {
		m.v[FlagRegister] = 1
	}
	m.displayChanged = true
}

// waitForKey runs FX0A. A key that is already pressed is latched right away,
// otherwise the machine enters the waiting state and the program counter
// stays on the wait instruction until a key arrives.
func (m *Machine) waitForKey(x uint8, address uint16) {
	if key, ok := m.keypad.firstPressed(); ok {
		m.v[x] = key
		return
	}

	m.awaitingKey = true
	m.keyRegister = x
	m.pc = address
}

func (m *Machine) skipIf(condition bool) {
	if condition {
		m.pc += InstructionSize
	}
}

// writeMemory stores a byte in memory. The font is read only for programs,
// writes into it are dropped.
func (m *Machine) writeMemory(address uint16, value byte) {
	address &= AddressMask
	if address >= FontAddress && address < FontAddress+uint16(len(font)) {
		if m.logger != nil {
			m.logger.Debug("Ignoring write to font memory",
				log.Hex("address", address),
				log.Hex("opcode", m.opcode))
		}
		return
	}
	m.memory[address] = value
}

func (m *Machine) advanceIndex(x uint8) {
	if m.quirks.IncrementIndexOnBlockTransfer {
		m.index += uint16(x) + 1
	}
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
