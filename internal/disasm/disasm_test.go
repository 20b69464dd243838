package disasm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want string
	}{
		{"CLS", 0x00E0, "cls"},
		{"RET", 0x00EE, "ret"},
		{"SYS", 0x0123, ".word $0123"},
		{"JP addr", 0x1234, "jp $234"},
		{"JP V0 addr", 0xB234, "jp V0, $234"},
		{"CALL addr", 0x2204, "call $204"},
		{"SE Vx, byte", 0x3A12, "se VA, $12"},
		{"SNE Vx, byte", 0x4A12, "sne VA, $12"},
		{"SE Vx, Vy", 0x5120, "se V1, V2"},
		{"SE Vx, Vy low nibble ignored", 0x5121, "se V1, V2"},
		{"SNE Vx, Vy", 0x9120, "sne V1, V2"},
		{"LD Vx, byte", 0x600A, "ld V0, $0A"},
		{"ADD Vx, byte", 0x7301, "add V3, $01"},
		{"LD Vx, Vy", 0x8120, "ld V1, V2"},
		{"OR", 0x8121, "or V1, V2"},
		{"AND", 0x8122, "and V1, V2"},
		{"XOR", 0x8123, "xor V1, V2"},
		{"ADD Vx, Vy", 0x8124, "add V1, V2"},
		{"SUB", 0x8125, "sub V1, V2"},
		{"SHR", 0x8126, "shr V1"},
		{"SUBN", 0x8127, "subn V1, V2"},
		{"SHL", 0x812E, "shl V1"},
		{"LD I, addr", 0xA2A0, "ld I, $2A0"},
		{"RND", 0xC50F, "rnd V5, $0F"},
		{"DRW", 0xD015, "drw V0, V1, $5"},
		{"SKP", 0xE39E, "skp V3"},
		{"SKNP", 0xE3A1, "sknp V3"},
		{"LD Vx, DT", 0xF307, "ld V3, DT"},
		{"LD Vx, K", 0xF30A, "ld V3, K"},
		{"LD DT, Vx", 0xF315, "ld DT, V3"},
		{"LD ST, Vx", 0xF318, "ld ST, V3"},
		{"ADD I, Vx", 0xF31E, "add I, V3"},
		{"LD F, Vx", 0xF329, "ld F, V3"},
		{"LD B, Vx", 0xF333, "ld B, V3"},
		{"LD [I], Vx", 0xF555, "ld [I], V5"},
		{"LD Vx, [I]", 0xF565, "ld V5, [I]"},
		{"unknown misc", 0xF5FF, ".word $F5FF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.word))
		})
	}
}

func TestListing(t *testing.T) {
	lines := Listing([]byte{0x00, 0xE0, 0xFF, 0xFF, 0xD0}, 0x200)

	assert.Equal(t, 3, len(lines))

	assert.Equal(t, uint16(0x200), lines[0].Address)
	assert.Equal(t, "cls", lines[0].Text)
	assert.True(t, lines[0].Code)

	assert.Equal(t, uint16(0x202), lines[1].Address)
	assert.Equal(t, ".word $FFFF", lines[1].Text)
	assert.False(t, lines[1].Code)

	assert.Equal(t, uint16(0x204), lines[2].Address)
	assert.Equal(t, ".byte $D0", lines[2].Text)
	assert.Equal(t, 1, len(lines[2].Data))
}

func TestListing_Empty(t *testing.T) {
	assert.Equal(t, 0, len(Listing(nil, 0x200)))
	assert.Equal(t, 0, len(Trace(nil, 0x200)))
}

// traceProgram clears the screen, calls a subroutine, loops forever and
// holds a sprite after the code.
var traceProgram = []byte{
	0x00, 0xE0, // $200 cls
	0xA2, 0x0C, // $202 ld I, $20C
	0x22, 0x0A, // $204 call $20A
	0x12, 0x06, // $206 jp $206
	0xAB, 0xCD, // $208 unreachable
	0x00, 0xEE, // $20A ret
	0xF0, 0x90, 0x90, // $20C sprite
}

func TestTrace(t *testing.T) {
	lines := Trace(traceProgram, 0x200)

	want := []struct {
		address uint16
		label   string
		text    string
		code    bool
	}{
		{0x200, "Start", "cls", true},
		{0x202, "", "ld I, _data_020c", true},
		{0x204, "", "call _func_020a", true},
		{0x206, "_label_0206", "jp _label_0206", true},
		{0x208, "", ".byte $AB, $CD", false},
		{0x20A, "_func_020a", "ret", true},
		{0x20C, "_data_020c", ".byte $F0, $90, $90", false},
	}

	assert.Equal(t, len(want), len(lines))
	for i, w := range want {
		assert.Equal(t, w.address, lines[i].Address)
		assert.Equal(t, w.label, lines[i].Label)
		assert.Equal(t, w.text, lines[i].Text)
		assert.Equal(t, w.code, lines[i].Code)
	}
}

func TestTrace_SkipFollowsBothPaths(t *testing.T) {
	lines := Trace([]byte{
		0x30, 0x01, // $200 se V0, $01
		0x12, 0x00, // $202 jp $200
		0x00, 0xEE, // $204 ret
	}, 0x200)

	assert.Equal(t, 3, len(lines))
	for _, line := range lines {
		assert.True(t, line.Code)
	}
	assert.Equal(t, "jp Start", lines[1].Text)
}

func TestTrace_UnknownInstructionStopsFlow(t *testing.T) {
	lines := Trace([]byte{0x60, 0x01, 0x01, 0x23, 0x00, 0xE0}, 0x200)

	assert.Equal(t, 2, len(lines))
	assert.True(t, lines[0].Code)
	assert.Equal(t, ".byte $01, $23, $00, $E0", lines[1].Text)
	assert.False(t, lines[1].Code)
}

func TestTrace_TargetOutsideProgram(t *testing.T) {
	lines := Trace([]byte{0x13, 0x00}, 0x200)

	assert.Equal(t, 1, len(lines))
	assert.Equal(t, "jp $300", lines[0].Text)
}

func TestTrace_BranchIntoInstruction(t *testing.T) {
	lines := Trace([]byte{
		0x60, 0x12, // $200 ld V0, $12
		0x12, 0x01, // $202 jp $201
	}, 0x200)

	assert.Equal(t, 3, len(lines))

	assert.Equal(t, ".byte $60", lines[0].Text)
	assert.False(t, lines[0].Code)
	assert.True(t, strings.Contains(lines[0].Comment, "branch into instruction detected"))

	assert.Equal(t, "_label_0201", lines[1].Label)
	assert.Equal(t, "jp $212", lines[1].Text)
	assert.True(t, lines[1].Code)

	assert.Equal(t, ".byte $01", lines[2].Text)
}

func TestWrite(t *testing.T) {
	lines := Trace(traceProgram, 0x200)

	var buf bytes.Buffer
	opts := options.Disassembler{HexComments: true, OffsetComments: true}
	assert.NoError(t, Write(&buf, lines, 0x200, opts))

	out := buf.String()
	assert.True(t, strings.Contains(out, ".org $200\n"))
	assert.True(t, strings.Contains(out, "Start:\n"))
	assert.True(t, strings.Contains(out, "_func_020a:\n"))
	assert.True(t, strings.Contains(out, "; $0200 00 E0\n"))
	assert.True(t, strings.Contains(out, "    .byte $F0, $90, $90"))
}

func TestWrite_NoComments(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, Listing([]byte{0x00, 0xE0}, 0x200), 0x200, options.Disassembler{}))

	out := buf.String()
	assert.True(t, strings.Contains(out, "    cls\n"))
	assert.False(t, strings.Contains(out, ";  "))
	assert.False(t, strings.Contains(out, "00 E0"))
}
