package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
)

// Write writes lines as an assembly listing to w. base is the load address
// of the program and is emitted as the origin directive.
func Write(w io.Writer, lines []Line, base uint16, opts options.Disassembler) error {
	if _, err := fmt.Fprintf(w, "; CHIP-8 program disassembly\n\n"); err != nil {
		return fmt.Errorf("writing header comment: %w", err)
	}
	if _, err := fmt.Fprintf(w, ".org $%03X\n\n", base); err != nil {
		return fmt.Errorf("writing org directive: %w", err)
	}

	for _, line := range lines {
		if line.Label != "" {
			if _, err := fmt.Fprintf(w, "%s:\n", line.Label); err != nil {
				return fmt.Errorf("writing label %s: %w", line.Label, err)
			}
		}

		if err := writeLine(w, line, opts); err != nil {
			return fmt.Errorf("writing line at $%04X: %w", line.Address, err)
		}
	}
	return nil
}

func writeLine(w io.Writer, line Line, opts options.Disassembler) error {
	text := "    " + line.Text

	comment := lineComment(line, opts)
	if comment == "" {
		_, err := fmt.Fprintf(w, "%s\n", text)
		return err
	}
	_, err := fmt.Fprintf(w, "%-32s ; %s\n", text, comment)
	return err
}

// lineComment builds the trailing comment of a line from its address,
// the opcode bytes and any note attached by the disassembler.
func lineComment(line Line, opts options.Disassembler) string {
	var parts []string
	if opts.OffsetComments {
		parts = append(parts, fmt.Sprintf("$%04X", line.Address))
	}
	if opts.HexComments && line.Code {
		var hex strings.Builder
		for i, b := range line.Data {
			if i > 0 {
				hex.WriteByte(' ')
			}
			fmt.Fprintf(&hex, "%02X", b)
		}
		parts = append(parts, hex.String())
	}
	if line.Comment != "" {
		parts = append(parts, line.Comment)
	}
	return strings.Join(parts, " ")
}
