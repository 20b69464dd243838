// Package main implements the main entry point for a CHIP-8 interpreter and disassembler
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/pipeline"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	cmd := cli.NewRootCommand(cli.Handlers{
		Run:    runProgram,
		Disasm: disassembleProgram,
	})

	if err := cmd.ExecuteContext(ctx); err != nil {
		logCommandError(err)
		os.Exit(1)
	}
}

// loggedError marks an error that a command handler already logged.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string { return e.err.Error() }

func (e *loggedError) Unwrap() error { return e.err }

// logCommandError logs errors returned by the command tree that were not
// logged by a handler, like unknown commands.
func logCommandError(err error) {
	var logged *loggedError
	if errors.As(err, &logged) {
		return
	}

	logger := config.CreateLogger(false, false)
	logger.Error(err.Error())

	var usageErr *cli.UsageError
	if errors.As(err, &usageErr) {
		usageErr.ShowUsage()
	}
}

func runProgram(ctx context.Context, opts options.Program, runOpts options.Runner) error {
	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	pipeline.PrintBanner(logger, opts, version, commit, date)

	return withWriter(logger, opts, func(p *pipeline.Pipeline, w *os.File) error {
		_, err := p.Run(ctx, opts, runOpts, w)
		return reportError(logger, "Running failed", err)
	})
}

func disassembleProgram(ctx context.Context, opts options.Program, disasmOpts options.Disassembler) error {
	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	pipeline.PrintBanner(logger, opts, version, commit, date)

	return withWriter(logger, opts, func(p *pipeline.Pipeline, w *os.File) error {
		return reportError(logger, "Disassembling failed", p.Disassemble(ctx, opts, disasmOpts, w))
	})
}

// withWriter calls process with a new pipeline and the output writer and
// closes a created output file afterwards.
func withWriter(logger *log.Logger, opts options.Program, process func(*pipeline.Pipeline, *os.File) error) error {
	w, err := pipeline.CreateWriter(opts)
	if err != nil {
		logger.Error("Creating output failed", log.Err(err))
		return &loggedError{err: err}
	}

	err = process(pipeline.New(logger), w)

	if opts.Output != "" {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			logger.Error("Closing output failed", log.Err(closeErr))
			err = &loggedError{err: closeErr}
		}
	}
	return err
}

// reportError logs err unless it is nil. A cancellation by the user is not
// treated as failure.
func reportError(logger *log.Logger, msg string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("Operation cancelled")
		return nil
	default:
		logger.Error(msg, log.Err(err))
		return &loggedError{err: err}
	}
}
