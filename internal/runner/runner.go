// Package runner drives a CHIP-8 machine without a graphical frontend.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// StopReason describes why a run ended.
type StopReason int

const (
	// CycleLimit means the configured number of cycles was executed.
	CycleLimit StopReason = iota
	// Breakpoint means the program counter reached a breakpoint address.
	Breakpoint
	// Cancelled means the context was cancelled.
	Cancelled
	// Halted means the machine stopped on a fatal error.
	Halted
)

func (r StopReason) String() string {
	switch r {
	case CycleLimit:
		return "cycle limit"
	case Breakpoint:
		return "breakpoint"
	case Cancelled:
		return "cancelled"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Result summarizes a finished run.
type Result struct {
	Cycles  uint64
	Reason  StopReason
	Beeps   uint64
	Frames  uint64 // cycles that changed the display
	Address uint16 // program counter when the run ended
}

// Runner executes cycles of a machine until a stop condition is met.
type Runner struct {
	logger      *log.Logger
	machine     *vm.Machine
	opts        options.Runner
	breakpoints set.Set[uint16]
}

// New returns a runner for the given machine. The program must already be
// loaded into the machine.
func New(logger *log.Logger, machine *vm.Machine, opts options.Runner) *Runner {
	breakpoints := set.New[uint16]()
	for _, address := range opts.Breakpoints {
		breakpoints.Add(address & vm.AddressMask)
	}

	return &Runner{
		logger:      logger,
		machine:     machine,
		opts:        opts,
		breakpoints: breakpoints,
	}
}

// Run executes cycles until the cycle limit is reached, a breakpoint is
// hit, the machine halts or ctx is cancelled. A fatal machine error and a
// cancelled context are returned as error together with the result.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	for _, key := range r.opts.Keys {
		r.machine.SetKey(key, true)
	}

	var tick <-chan time.Time
	if r.opts.Rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(r.opts.Rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	var result Result
	for r.opts.Cycles == 0 || result.Cycles < r.opts.Cycles {
		if err := r.wait(ctx, tick); err != nil {
			return r.stop(result, Cancelled), err
		}

		address := r.machine.ProgramCounter()
		if r.breakpoints.Contains(address) && !r.machine.AwaitingKey() {
			r.logger.Info("Breakpoint reached", log.Hex("address", address))
			return r.stop(result, Breakpoint), nil
		}

		if r.opts.Trace && !r.machine.AwaitingKey() {
			r.trace(address)
		}

		if err := r.machine.Step(); err != nil {
			return r.stop(result, Halted), fmt.Errorf("running cycle %d: %w", result.Cycles, err)
		}
		result.Cycles++

		if r.machine.SoundActive() {
			result.Beeps++
			r.logger.Info("Beep", log.Int("cycle", int(result.Cycles)))
		}
		if r.machine.DisplayChanged() {
			result.Frames++
			r.machine.ClearDisplayChanged()
		}
	}

	return r.stop(result, CycleLimit), nil
}

// wait blocks until the next cycle is due or ctx is done.
func (r *Runner) wait(ctx context.Context, tick <-chan time.Time) error {
	if tick == nil {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tick:
		return nil
	}
}

func (r *Runner) stop(result Result, reason StopReason) Result {
	result.Reason = reason
	result.Address = r.machine.ProgramCounter()
	r.logger.Debug("Run stopped",
		log.Stringer("reason", reason),
		log.Int("cycles", int(result.Cycles)),
		log.Hex("address", result.Address))
	return result
}

func (r *Runner) trace(address uint16) {
	word := uint16(r.machine.ReadMemory(address))<<8 | uint16(r.machine.ReadMemory(address+1))
	r.logger.Debug("Executing",
		log.Hex("address", address),
		log.Hex("opcode", word),
		log.String("instruction", disasm.Format(word)))
}
