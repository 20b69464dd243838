package detector

import (
	"errors"
	"testing"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestDetect(t *testing.T) {
	logger := log.NewTestLogger(t)
	d := New(logger)

	tests := []struct {
		name       string
		systemOpt  string
		inputFile  string
		wantSystem arch.System
	}{
		{
			name:       "explicit CHIP8 system option",
			systemOpt:  "chip8",
			inputFile:  "game.bin",
			wantSystem: arch.CHIP8System,
		},
		{
			name:       "explicit NES system option",
			systemOpt:  "nes",
			inputFile:  "game.ch8",
			wantSystem: arch.NES,
		},
		{
			name:       "detect from .ch8 extension",
			inputFile:  "game.ch8",
			wantSystem: arch.CHIP8System,
		},
		{
			name:       "detect from .nes extension",
			inputFile:  "game.nes",
			wantSystem: arch.NES,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options.Program{
				Parameters: options.Parameters{Input: tt.inputFile},
				Flags:      options.Flags{System: tt.systemOpt},
			}

			got, err := d.Detect(opts)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantSystem, got)
		})
	}
}

func TestDetect_UnknownSystem(t *testing.T) {
	d := New(log.NewTestLogger(t))

	opts := options.Program{
		Parameters: options.Parameters{Input: "game.ch8"},
		Flags:      options.Flags{System: "gameboy-color-plus"},
	}
	_, err := d.Detect(opts)
	assert.True(t, errors.Is(err, ErrUnknownSystem))
}

func TestDetectFromFile(t *testing.T) {
	d := New(log.NewTestLogger(t))

	tests := []struct {
		name       string
		filename   string
		wantSystem arch.System
	}{
		{
			name:       ".ch8 extension",
			filename:   "pong.ch8",
			wantSystem: arch.CHIP8System,
		},
		{
			name:       ".CH8 extension (uppercase)",
			filename:   "PONG.CH8",
			wantSystem: arch.CHIP8System,
		},
		{
			name:       ".rom extension",
			filename:   "game.rom",
			wantSystem: arch.CHIP8System,
		},
		{
			name:       "no extension",
			filename:   "game",
			wantSystem: arch.CHIP8System,
		},
		{
			name:       ".nes extension",
			filename:   "super_mario.nes",
			wantSystem: arch.NES,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.detectFromFile(tt.filename)
			assert.Equal(t, tt.wantSystem, got)
		})
	}
}
