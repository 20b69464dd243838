// Package pipeline orchestrates the load, run and disassembly workflows.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrochip8/internal/screen"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete program workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
	}
}

// Run loads the input program, runs it headless and writes the final
// screen and machine state to w. The state is also written when the run
// ended with an error.
func (p *Pipeline) Run(ctx context.Context, opts options.Program, runOpts options.Runner,
	w io.Writer) (runner.Result, error) {

	program, err := p.load(opts)
	if err != nil {
		return runner.Result{}, err
	}

	machine := vm.New(config.MachineOptions(p.logger, runOpts)...)
	if err := machine.LoadProgram(program); err != nil {
		return runner.Result{}, fmt.Errorf("loading program into memory: %w", err)
	}

	p.logger.Info("Running CHIP-8 program",
		log.String("file", opts.Input),
		log.Int("size", len(program)))

	result, runErr := runner.New(p.logger, machine, runOpts).Run(ctx)

	if err := writeState(w, machine, result); err != nil {
		return result, fmt.Errorf("writing machine state: %w", err)
	}
	if runErr != nil {
		return result, fmt.Errorf("running program: %w", runErr)
	}
	return result, nil
}

// Disassemble loads the input program and writes its assembly listing to w.
func (p *Pipeline) Disassemble(ctx context.Context, opts options.Program, disasmOpts options.Disassembler,
	w io.Writer) error {

	program, err := p.load(opts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Info("Disassembling CHIP-8 program",
		log.String("file", opts.Input),
		log.Int("size", len(program)))

	var lines []disasm.Line
	if disasmOpts.Linear {
		lines = disasm.Listing(program, vm.ProgramStart)
	} else {
		lines = disasm.Trace(program, vm.ProgramStart)
	}

	if err := disasm.Write(w, lines, vm.ProgramStart, disasmOpts); err != nil {
		return fmt.Errorf("writing disassembly: %w", err)
	}
	return nil
}

func (p *Pipeline) load(opts options.Program) ([]byte, error) {
	system, err := p.detector.Detect(opts)
	if err != nil {
		return nil, fmt.Errorf("detecting system: %w", err)
	}

	program, err := p.loader.Load(opts.Input, system)
	if err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}
	return program, nil
}

// writeState writes the framebuffer followed by a register summary.
func writeState(w io.Writer, machine *vm.Machine, result runner.Result) error {
	style := screen.ASCII
	if f, ok := w.(*os.File); ok {
		style = screen.StyleFor(f)
	}

	fb := machine.Framebuffer()
	if err := screen.Render(w, &fb, style); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\nstopped: %s after %d cycles at $%04X, %d unknown opcodes\n",
		machine, result.Reason, result.Cycles, result.Address, machine.UnknownOpcodes())
	return err
}

// CreateWriter returns the output file, stdout if no output file is set.
// Only a created file needs to be closed by the caller.
func CreateWriter(opts options.Program) (*os.File, error) {
	if opts.Output == "" {
		return os.Stdout, nil
	}

	file, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output file %s: %w", opts.Output, err)
	}
	return file, nil
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("retrochip8", log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Debug("Build", log.String("date", date))
	}
}
