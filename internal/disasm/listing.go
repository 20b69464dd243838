package disasm

import (
	"fmt"

	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/set"
)

const (
	startLabel  = "Start"
	funcNaming  = "_func_%04x"
	labelNaming = "_label_%04x"
	dataNaming  = "_data_%04x"

	dataBytesPerLine = 8
)

// Line is a single line of a disassembly listing.
type Line struct {
	Address uint16
	Data    []byte // raw program bytes covered by the line
	Label   string // label defined at Address, if any
	Text    string // instruction or data directive
	Code    bool   // Data holds an instruction
	Comment string
}

// Listing disassembles every 2 byte word of program linearly, base is the
// address the program is loaded at. A trailing odd byte is emitted as data.
func Listing(program []byte, base uint16) []Line {
	lines := make([]Line, 0, len(program)/vm.InstructionSize+1)

	for i := 0; i < len(program); i += vm.InstructionSize {
		address := base + uint16(i)
		if i+1 == len(program) {
			lines = append(lines, dataLine(address, program[i:]))
			break
		}

		ins := vm.Decode(uint16(program[i])<<8 | uint16(program[i+1]))
		lines = append(lines, Line{
			Address: address,
			Data:    program[i : i+vm.InstructionSize],
			Text:    formatInstruction(ins, ""),
			Code:    ins.Op != vm.OpUnknown,
		})
	}
	return lines
}

// Trace disassembles program by following the control flow from its first
// instruction. Bytes that are not reachable as code are emitted as data,
// branch, call and index load targets inside the program get labels.
func Trace(program []byte, base uint16) []Line {
	t := newTracer(program, base)
	t.run()
	t.assignLabels()
	return t.lines()
}

type tracer struct {
	program []byte
	base    uint16

	code     set.Set[uint16] // addresses of instructions
	visited  set.Set[uint16]
	branches set.Set[uint16] // jump destinations
	calls    set.Set[uint16] // call destinations
	data     set.Set[uint16] // index load destinations

	labels map[uint16]string
	queue  []uint16
}

func newTracer(program []byte, base uint16) *tracer {
	return &tracer{
		program:  program,
		base:     base,
		code:     set.New[uint16](),
		visited:  set.New[uint16](),
		branches: set.New[uint16](),
		calls:    set.New[uint16](),
		data:     set.New[uint16](),
		labels:   map[uint16]string{},
	}
}

// contains returns whether a full instruction word at address lies inside
// the program.
func (t *tracer) contains(address uint16) bool {
	offset := int(address) - int(t.base)
	return offset >= 0 && offset+1 < len(t.program)
}

func (t *tracer) word(address uint16) uint16 {
	offset := int(address - t.base)
	return uint16(t.program[offset])<<8 | uint16(t.program[offset+1])
}

// addAddressToParse queues address for parsing unless it was seen before.
func (t *tracer) addAddressToParse(address uint16) {
	if !t.contains(address) || t.visited.Contains(address) {
		return
	}
	t.visited.Add(address)
	t.queue = append(t.queue, address)
}

func (t *tracer) run() {
	t.addAddressToParse(t.base)

	for len(t.queue) > 0 {
		address := t.queue[0]
		t.queue = t.queue[1:]
		t.processAddress(address)
	}
}

// processAddress decodes the instruction at address and queues all
// addresses that execution can continue at.
func (t *tracer) processAddress(address uint16) {
	ins := vm.Decode(t.word(address))
	if ins.Op == vm.OpUnknown {
		// unknown instructions are considered the start of data
		return
	}
	t.code.Add(address)

	next := address + vm.InstructionSize

	switch ins.Op {
	case vm.OpJp:
		t.addBranch(t.branches, ins.NNN)
	case vm.OpCall:
		t.addBranch(t.calls, ins.NNN)
		t.addAddressToParse(next)
	case vm.OpRet, vm.OpJpV0:
		// return address and computed jump target are unknown here
	case vm.OpSeImm, vm.OpSneImm, vm.OpSeReg, vm.OpSneReg, vm.OpSkp, vm.OpSknp:
		t.addAddressToParse(next)
		t.addAddressToParse(next + vm.InstructionSize)
	case vm.OpLdIndex:
		if t.inProgram(ins.NNN) {
			t.data.Add(ins.NNN)
		}
		t.addAddressToParse(next)
	default:
		t.addAddressToParse(next)
	}
}

func (t *tracer) addBranch(destinations set.Set[uint16], target uint16) {
	if !t.contains(target) {
		return
	}
	destinations.Add(target)
	t.addAddressToParse(target)
}

// inProgram returns whether address points at any byte of the program.
func (t *tracer) inProgram(address uint16) bool {
	offset := int(address) - int(t.base)
	return offset >= 0 && offset < len(t.program)
}

// assignLabels names every referenced address, call destinations take
// precedence over jump destinations and those over data references.
func (t *tracer) assignLabels() {
	for address := range t.data {
		t.labels[address] = fmt.Sprintf(dataNaming, address)
	}
	for address := range t.branches {
		t.labels[address] = fmt.Sprintf(labelNaming, address)
	}
	for address := range t.calls {
		t.labels[address] = fmt.Sprintf(funcNaming, address)
	}
	if len(t.program) > 0 {
		t.labels[t.base] = startLabel
	}
}

// lines builds the listing in address order.
func (t *tracer) lines() []Line {
	var lines []Line
	var pending []byte // data bytes not yet emitted
	var pendingAddress uint16

	flush := func() {
		for len(pending) > 0 {
			n := min(len(pending), dataBytesPerLine)
			line := dataLine(pendingAddress, pending[:n])
			line.Label = t.labels[pendingAddress]
			lines = append(lines, line)
			pending = pending[n:]
			pendingAddress += uint16(n)
		}
	}

	for i := 0; i < len(t.program); {
		address := t.base + uint16(i)
		_, labeled := t.labels[address]

		if t.code.Contains(address) && !t.branchInto(address) {
			flush()
			lines = append(lines, t.codeLine(address))
			i += vm.InstructionSize
			continue
		}

		if labeled || len(pending) == dataBytesPerLine {
			flush()
		}
		if len(pending) == 0 {
			pendingAddress = address
		}
		pending = t.program[i-len(pending) : i+1]
		i++
	}
	flush()

	t.commentBranchIntoInstructions(lines)
	return lines
}

// branchInto returns whether the second byte of the instruction at address
// is itself a label, in which case the instruction is emitted as data.
func (t *tracer) branchInto(address uint16) bool {
	_, ok := t.labels[address+1]
	return ok
}

func (t *tracer) codeLine(address uint16) Line {
	ins := vm.Decode(t.word(address))

	var target string
	switch ins.Op {
	case vm.OpJp, vm.OpCall, vm.OpLdIndex:
		target = t.labels[ins.NNN]
	}

	offset := int(address - t.base)
	return Line{
		Address: address,
		Data:    t.program[offset : offset+vm.InstructionSize],
		Label:   t.labels[address],
		Text:    formatInstruction(ins, target),
		Code:    true,
	}
}

// commentBranchIntoInstructions marks data lines that hold an instruction
// whose second byte is a branch destination.
func (t *tracer) commentBranchIntoInstructions(lines []Line) {
	for i, line := range lines {
		if line.Code || !t.code.Contains(line.Address) {
			continue
		}
		lines[i].Comment = "branch into instruction detected: " + Format(t.word(line.Address))
	}
}

func dataLine(address uint16, data []byte) Line {
	text := fmt.Sprintf(".byte $%02X", data[0])
	for _, b := range data[1:] {
		text += fmt.Sprintf(", $%02X", b)
	}
	return Line{
		Address: address,
		Data:    data,
		Text:    text,
	}
}
