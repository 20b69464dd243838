package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// drawProgram draws the glyph for 0 at the top left corner and loops.
var drawProgram = []byte{
	0x00, 0xE0, // cls
	0x60, 0x00, // ld V0, $00
	0xF0, 0x29, // ld F, V0
	0xD0, 0x05, // drw V0, V0, $5
	0x12, 0x08, // jp $208
}

func TestNew(t *testing.T) {
	p := New(log.NewTestLogger(t))

	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
	assert.NotNil(t, p.loader)
}

func TestRun(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{Input: createTempFile(t, "draw.ch8", drawProgram)},
	}

	var buf bytes.Buffer
	result, err := p.Run(context.Background(), opts, options.Runner{Cycles: 10}, &buf)
	assert.NoError(t, err)
	assert.Equal(t, runner.CycleLimit, result.Reason)
	assert.Equal(t, uint64(10), result.Cycles)

	rows := strings.Split(buf.String(), "\n")
	assert.Equal(t, "####"+strings.Repeat(".", vm.DisplayWidth-4), rows[0])
	assert.Equal(t, "#..#"+strings.Repeat(".", vm.DisplayWidth-4), rows[1])
	assert.True(t, strings.Contains(buf.String(), "stopped: cycle limit after 10 cycles at $0208"))
}

func TestRun_HaltWritesState(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{Input: createTempFile(t, "ret.ch8", []byte{0x00, 0xEE})},
	}

	var buf bytes.Buffer
	result, err := p.Run(context.Background(), opts, options.Runner{Cycles: 10}, &buf)
	assert.True(t, errors.Is(err, vm.ErrStackUnderflow))
	assert.Equal(t, runner.Halted, result.Reason)
	assert.True(t, strings.Contains(buf.String(), "stopped: halted"))
}

func TestRun_LoadError(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{Input: createTempFile(t, "empty.ch8", nil)},
	}

	var buf bytes.Buffer
	_, err := p.Run(context.Background(), opts, options.Runner{Cycles: 1}, &buf)
	assert.True(t, errors.Is(err, loader.ErrEmptyProgram))
	assert.Equal(t, 0, buf.Len())
}

func TestDisassemble(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{Input: createTempFile(t, "draw.ch8", drawProgram)},
	}

	var buf bytes.Buffer
	assert.NoError(t, p.Disassemble(context.Background(), opts, options.NewDisassembler(), &buf))

	out := buf.String()
	assert.True(t, strings.Contains(out, "Start:\n"))
	assert.True(t, strings.Contains(out, "drw V0, V0, $5"))
	assert.True(t, strings.Contains(out, "_label_0208:\n"))
	assert.True(t, strings.Contains(out, "jp _label_0208"))
}

func TestDisassemble_Linear(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{Input: createTempFile(t, "draw.ch8", drawProgram)},
	}

	var buf bytes.Buffer
	disasmOpts := options.Disassembler{Linear: true}
	assert.NoError(t, p.Disassemble(context.Background(), opts, disasmOpts, &buf))

	out := buf.String()
	assert.True(t, strings.Contains(out, "jp $208"))
	assert.False(t, strings.Contains(out, "_label_"))
}

func TestDisassemble_Cancelled(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{Input: createTempFile(t, "draw.ch8", drawProgram)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := p.Disassemble(ctx, opts, options.NewDisassembler(), &buf)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCreateWriter(t *testing.T) {
	w, err := CreateWriter(options.Program{})
	assert.NoError(t, err)
	assert.Equal(t, os.Stdout, w)

	output := filepath.Join(t.TempDir(), "out.asm")
	w, err = CreateWriter(options.Program{Parameters: options.Parameters{Output: output}})
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func createTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return tmpFile
}
