// Package cli handles command line interface logic
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultRate = 500

// Handlers are called with the parsed options of the executed command.
type Handlers struct {
	Run    func(ctx context.Context, opts options.Program, runOpts options.Runner) error
	Disasm func(ctx context.Context, opts options.Program, disasmOpts options.Disassembler) error
}

// UsageError represents an error that should show usage information
type UsageError struct {
	cmd *cobra.Command
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage of the command that failed.
func (e *UsageError) ShowUsage() {
	fmt.Println(e.cmd.UsageString())
}

// NewRootCommand returns the command tree of the program.
func NewRootCommand(handlers Handlers) *cobra.Command {
	var opts options.Program

	root := &cobra.Command{
		Use:           "retrochip8",
		Short:         "CHIP-8 interpreter and disassembler",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetFlagErrorFunc(flagError)
	readOptionFlags(root.PersistentFlags(), &opts)

	root.AddCommand(newRunCommand(&opts, handlers.Run))
	root.AddCommand(newDisasmCommand(&opts, handlers.Disasm))
	return root
}

func newRunCommand(opts *options.Program, handler func(context.Context, options.Program, options.Runner) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [options] <file to run>",
		Short: "Run a CHIP-8 program without display and print the final screen",
		Args:  singleFileArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]

			runOpts, err := createRunnerOptions(opts.RunFlags)
			if err != nil {
				return &UsageError{cmd: cmd, msg: err.Error()}
			}
			return handler(cmd.Context(), *opts, runOpts)
		},
	}
	cmd.SetFlagErrorFunc(flagError)
	readRunFlags(cmd.Flags(), &opts.RunFlags)
	return cmd
}

func newDisasmCommand(opts *options.Program, handler func(context.Context, options.Program, options.Disassembler) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm [options] <file to disassemble>",
		Short: "Disassemble a CHIP-8 program",
		Args:  singleFileArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return handler(cmd.Context(), *opts, createDisasmOptions(opts.DisasmFlags))
		},
	}
	cmd.SetFlagErrorFunc(flagError)
	readDisasmFlags(cmd.Flags(), &opts.DisasmFlags)
	return cmd
}

func singleFileArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &UsageError{
			cmd: cmd,
			msg: fmt.Sprintf("expected exactly one input file, got %d arguments", len(args)),
		}
	}
	return nil
}

func flagError(cmd *cobra.Command, err error) error {
	return &UsageError{cmd: cmd, msg: err.Error()}
}

// createRunnerOptions validates the run flags and converts them to runner options.
func createRunnerOptions(flags options.RunFlags) (options.Runner, error) {
	if flags.Rate < 0 {
		return options.Runner{}, fmt.Errorf("invalid rate %d, must not be negative", flags.Rate)
	}

	keys, err := parseKeys(flags.Keys)
	if err != nil {
		return options.Runner{}, err
	}
	breakpoints, err := parseBreakpoints(flags.Breakpoints)
	if err != nil {
		return options.Runner{}, err
	}

	return options.Runner{
		Cycles:      flags.Cycles,
		Rate:        flags.Rate,
		Keys:        keys,
		Breakpoints: breakpoints,
		Trace:       flags.Trace,

		IncrementIndexOnBlockTransfer: flags.IncrementIndex,
		ShiftUsesVY:                   flags.ShiftUsesVY,
		SubtractSetsNotBorrow:         flags.NotBorrow,
	}, nil
}

// createDisasmOptions creates disassembler options based on program options
func createDisasmOptions(flags options.DisasmFlags) options.Disassembler {
	disasmOpts := options.NewDisassembler()
	disasmOpts.Linear = flags.Linear

	// Apply inverse logic for hex comments and offsets
	disasmOpts.HexComments = !flags.NoHexComments
	disasmOpts.OffsetComments = !flags.NoOffsets
	return disasmOpts
}

// parseKeys parses a string of hex digits like "5a" into keypad keys.
// Separators between the digits are ignored.
func parseKeys(s string) ([]uint8, error) {
	var keys []uint8
	for _, c := range s {
		if c == ',' || c == ' ' {
			continue
		}
		key, err := strconv.ParseUint(string(c), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid key '%c', keys are hex digits 0-F", c)
		}
		keys = append(keys, uint8(key))
	}
	return keys, nil
}

// parseBreakpoints parses comma separated hex addresses, with or without
// a $ or 0x prefix.
func parseBreakpoints(s string) ([]uint16, error) {
	var addresses []uint16
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		digits := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(field), "$"), "0x")
		address, err := strconv.ParseUint(digits, 16, 16)
		if err != nil || address > vm.AddressMask {
			return nil, fmt.Errorf("invalid breakpoint address '%s'", field)
		}
		addresses = append(addresses, uint16(address))
	}
	return addresses, nil
}

func readOptionFlags(flags *pflag.FlagSet, opts *options.Program) {
	flags.StringVarP(&opts.Output, "output", "o", "", "name of the output file, printed on console if no name given")
	flags.StringVarP(&opts.System, "system", "s", "", "system of the input file (chip8) - if not auto-detected from file extension")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "perform operations quietly")
}

func readRunFlags(flags *pflag.FlagSet, opts *options.RunFlags) {
	flags.Uint64Var(&opts.Cycles, "cycles", 0, "number of cycles to run, 0 runs until interrupted")
	flags.IntVar(&opts.Rate, "rate", defaultRate, "cycles per second, 0 runs unpaced")
	flags.StringVar(&opts.Keys, "keys", "", "hex digits of the keys to hold pressed during the run, for example 5a")
	flags.StringVar(&opts.Breakpoints, "break", "", "comma separated hex addresses to stop at, for example 0x20a,0x300")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, requires --debug")
	flags.BoolVar(&opts.IncrementIndex, "quirk-index", false, "block transfers advance the index register past the transferred registers")
	flags.BoolVar(&opts.ShiftUsesVY, "quirk-shift", false, "shift instructions read their source from VY")
	flags.BoolVar(&opts.NotBorrow, "quirk-borrow", false, "subtractions set VF when no borrow occurs")
}

func readDisasmFlags(flags *pflag.FlagSet, opts *options.DisasmFlags) {
	flags.BoolVar(&opts.Linear, "linear", false, "disassemble every word instead of following the control flow")
	flags.BoolVar(&opts.NoHexComments, "nohexcomments", false, "do not output opcode bytes as hex values in comments")
	flags.BoolVar(&opts.NoOffsets, "nooffsets", false, "do not output addresses in comments")
}
