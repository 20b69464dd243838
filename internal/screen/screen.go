// Package screen renders the CHIP-8 framebuffer as text.
package screen

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/vm"
	"golang.org/x/term"
)

// Style defines the glyphs used for lit and dark pixels.
type Style struct {
	On  string
	Off string
}

var (
	// Blocks draws lit pixels as full blocks, for terminal output.
	Blocks = Style{On: "█", Off: " "}
	// ASCII draws pixels with plain characters, for files and pipes.
	ASCII = Style{On: "#", Off: "."}
)

// StyleFor returns the style to use for output written to f.
func StyleFor(f *os.File) Style {
	if term.IsTerminal(int(f.Fd())) {
		return Blocks
	}
	return ASCII
}

// Render writes the framebuffer to w, one text line per display row.
func Render(w io.Writer, fb *vm.Framebuffer, style Style) error {
	buf := bufio.NewWriter(w)

	for y := range vm.DisplayHeight {
		for x := range vm.DisplayWidth {
			glyph := style.Off
			if fb.Pixel(x, y) {
				glyph = style.On
			}
			if _, err := buf.WriteString(glyph); err != nil {
				return fmt.Errorf("writing pixel: %w", err)
			}
		}
		if err := buf.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing line end: %w", err)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flushing screen: %w", err)
	}
	return nil
}
