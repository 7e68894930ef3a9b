// Package host drives a chip8.Machine from a frame-based host loop.
//
// Hosts call Frame once per display frame (timer_hz times a second). Each
// frame overwrites the keypad, runs cycles_per_second/timer_hz instructions
// and ticks the timers once, so instruction rate and timer rate stay
// decoupled regardless of how fast the host actually renders.
package host

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tliron/commonlog"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
)

// Session owns one machine for the lifetime of an emulation run. All
// methods are safe for concurrent use; machine access is serialised.
type Session struct {
	mu      sync.Mutex
	machine *chip8.Machine
	log     commonlog.Logger

	cyclesPerFrame float64
	carry          float64
	frames         uint64
}

// NewSession wraps m. Pacing comes from cfg.
func NewSession(m *chip8.Machine, cfg config.Emulation) *Session {
	return &Session{
		machine:        m,
		log:            commonlog.GetLogger("chip8.host"),
		cyclesPerFrame: float64(cfg.CyclesPerSecond) / float64(cfg.TimerHz),
	}
}

// NewMachine builds a machine configured from cfg.
func NewMachine(cfg config.Emulation) *chip8.Machine {
	opts := []chip8.Option{
		chip8.WithQuirks(chip8.Quirks{ShiftUsesVy: cfg.ShiftUsesVy}),
	}
	if cfg.Seed != 0 {
		opts = append(opts, chip8.WithSeed(cfg.Seed))
	}
	return chip8.New(opts...)
}

// Open reads a ROM image from path and starts a session for it.
func Open(path string, cfg config.Emulation) (*Session, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}
	s, err := Load(rom, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	s.log.Info("session started",
		"rom", path,
		"size", len(rom),
		"cycles_per_second", cfg.CyclesPerSecond,
		"timer_hz", cfg.TimerHz,
		"shift_uses_vy", cfg.ShiftUsesVy)
	return s, nil
}

// Load starts a session for an in-memory ROM image.
func Load(rom []byte, cfg config.Emulation) (*Session, error) {
	if len(rom) == 0 {
		return nil, errors.New("empty rom")
	}
	m := NewMachine(cfg)
	if err := m.LoadProgram(rom); err != nil {
		return nil, err
	}
	return NewSession(m, cfg), nil
}

// Frame runs one host frame with the given keypad state. It returns the
// fault that halted the machine, now or on an earlier frame.
func (s *Session) Frame(keys [chip8.KeyCount]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Err(); err != nil {
		return err
	}
	s.machine.SetKeys(keys)

	s.carry += s.cyclesPerFrame
	budget := int(s.carry)
	s.carry -= float64(budget)

	ran := 0
	for ran < budget {
		if err := s.machine.Cycle(); err != nil {
			s.logHalt(err)
			return err
		}
		ran++
		// Keys cannot change before the next frame, so further cycles would
		// only repeat the same Fx0A poll.
		if s.machine.Waiting() {
			break
		}
	}

	s.machine.TickTimers()
	s.frames++
	s.log.Debugf("frame %d: %d/%d cycles, pc=%03X", s.frames, ran, budget, s.machine.PC)
	return nil
}

func (s *Session) logHalt(err error) {
	var execErr *chip8.ExecError
	if errors.As(err, &execErr) {
		s.log.Error("machine halted",
			"pc", fmt.Sprintf("%03X", execErr.PC),
			"opcode", fmt.Sprintf("%04X", execErr.Opcode),
			"cause", execErr.Err.Error(),
			"frame", s.frames)
		return
	}
	s.log.Error("machine halted", "cause", err.Error())
}

// Reset restarts the loaded program from power-on state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Reset()
	s.carry = 0
	s.frames = 0
	s.log.Info("session reset")
}

// Snapshot returns a copy of the display.
func (s *Session) Snapshot() chip8.Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Framebuffer()
}

// SoundActive reports whether the buzzer should be sounding.
func (s *Session) SoundActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.SoundActive()
}

// Halted returns the fault that stopped the machine, or nil.
func (s *Session) Halted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Err()
}

// Cycles returns the number of instructions executed since the last reset.
func (s *Session) Cycles() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Cycles
}

// Frames returns the number of completed frames since the last reset.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Do runs fn with exclusive access to the machine.
func (s *Session) Do(fn func(m *chip8.Machine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.machine)
}
