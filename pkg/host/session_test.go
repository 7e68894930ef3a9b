package host

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
)

func rom(words ...uint16) []byte {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return b
}

func pacing(cyclesPerSecond, timerHz int) config.Emulation {
	cfg := config.Default().Emulation
	cfg.CyclesPerSecond = cyclesPerSecond
	cfg.TimerHz = timerHz
	return cfg
}

var noKeys [chip8.KeyCount]bool

func TestFrameRunsBudget(t *testing.T) {
	s, err := Load(rom(0x1200), pacing(600, 60))
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.NoError(t, s.Frame(noKeys))
	}
	assert.Equal(t, uint64(30), s.Cycles())
	assert.Equal(t, uint64(3), s.Frames())
}

func TestFrameCarriesFraction(t *testing.T) {
	s, err := Load(rom(0x1200), pacing(90, 60))
	assert.NoError(t, err)

	assert.NoError(t, s.Frame(noKeys))
	assert.Equal(t, uint64(1), s.Cycles())
	assert.NoError(t, s.Frame(noKeys))
	assert.Equal(t, uint64(3), s.Cycles())
}

func TestFrameTicksTimersOnce(t *testing.T) {
	s, err := Load(rom(0x1200), pacing(600, 60))
	assert.NoError(t, err)
	s.Do(func(m *chip8.Machine) {
		m.DelayTimer = 10
		m.SoundTimer = 2
	})
	assert.True(t, s.SoundActive())

	for i := 0; i < 3; i++ {
		assert.NoError(t, s.Frame(noKeys))
	}
	s.Do(func(m *chip8.Machine) {
		assert.Equal(t, uint8(7), m.DelayTimer)
		assert.Equal(t, uint8(0), m.SoundTimer)
	})
	assert.False(t, s.SoundActive())
}

func TestFrameStopsWhileWaitingForKey(t *testing.T) {
	// F30A waits for a key into V3, then spins.
	s, err := Load(rom(0xF30A, 0x1202), pacing(600, 60))
	assert.NoError(t, err)

	assert.NoError(t, s.Frame(noKeys))
	assert.Equal(t, uint64(1), s.Cycles())
	s.Do(func(m *chip8.Machine) {
		assert.True(t, m.Waiting())
		assert.Equal(t, uint16(chip8.ProgramStart), m.PC)
	})

	keys := noKeys
	keys[0xB] = true
	assert.NoError(t, s.Frame(keys))
	assert.Equal(t, uint64(11), s.Cycles())
	s.Do(func(m *chip8.Machine) {
		assert.False(t, m.Waiting())
		assert.Equal(t, uint8(0xB), m.V[3])
	})
}

func TestFrameHaltsOnFault(t *testing.T) {
	s, err := Load(rom(0x6001, 0x0123), pacing(600, 60))
	assert.NoError(t, err)
	s.Do(func(m *chip8.Machine) { m.DelayTimer = 5 })

	err = s.Frame(noKeys)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, chip8.ErrUnknownOpcode))

	var execErr *chip8.ExecError
	assert.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0x202), execErr.PC)
	assert.Equal(t, uint16(0x0123), execErr.Opcode)

	// Later frames report the same fault without running or ticking.
	again := s.Frame(noKeys)
	assert.True(t, errors.Is(again, chip8.ErrUnknownOpcode))
	assert.Equal(t, uint64(1), s.Cycles())
	assert.Error(t, s.Halted())
	s.Do(func(m *chip8.Machine) {
		assert.Equal(t, uint8(5), m.DelayTimer)
	})
}

func TestResetRestartsProgram(t *testing.T) {
	s, err := Load(rom(0x7001, 0x0123), pacing(600, 60))
	assert.NoError(t, err)
	assert.Error(t, s.Frame(noKeys))

	s.Reset()
	assert.NoError(t, s.Halted())
	assert.Equal(t, uint64(0), s.Cycles())
	assert.Equal(t, uint64(0), s.Frames())
	s.Do(func(m *chip8.Machine) {
		assert.Equal(t, uint16(chip8.ProgramStart), m.PC)
		assert.Equal(t, uint8(0), m.V[0])
	})

	assert.Error(t, s.Frame(noKeys))
	s.Do(func(m *chip8.Machine) {
		assert.Equal(t, uint8(1), m.V[0])
	})
}

func TestSnapshotShowsGlyph(t *testing.T) {
	// Draw glyph 0 at the origin and spin.
	s, err := Load(rom(0x6000, 0xF029, 0xD005, 0x1206), pacing(600, 60))
	assert.NoError(t, err)
	assert.NoError(t, s.Frame(noKeys))

	fb := s.Snapshot()
	assert.Equal(t, 14, fb.Lit())
	assert.True(t, fb[0][0])
	assert.False(t, fb[1][1])
}

func TestLoadRejectsBadRoms(t *testing.T) {
	_, err := Load(nil, pacing(600, 60))
	assert.Error(t, err)

	_, err = Load(make([]byte, chip8.MaxProgramSize+1), pacing(600, 60))
	assert.True(t, errors.Is(err, chip8.ErrProgramTooLarge))
}

func TestOpenReadsRomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spin.ch8")
	assert.NoError(t, os.WriteFile(path, rom(0x1200), 0o644))

	s, err := Open(path, pacing(600, 60))
	assert.NoError(t, err)
	assert.NoError(t, s.Frame(noKeys))
	assert.Equal(t, uint64(10), s.Cycles())

	_, err = Open(filepath.Join(t.TempDir(), "missing.ch8"), pacing(600, 60))
	assert.Error(t, err)
}

func TestNewMachineAppliesQuirksAndSeed(t *testing.T) {
	cfg := pacing(600, 60)
	cfg.ShiftUsesVy = true
	cfg.Seed = 42

	a := NewMachine(cfg)
	b := NewMachine(cfg)
	assert.True(t, a.Quirks.ShiftUsesVy)

	prog := rom(0xC0FF, 0xC1FF, 0xC2FF)
	assert.NoError(t, a.LoadProgram(prog))
	assert.NoError(t, b.LoadProgram(prog))
	for i := 0; i < 3; i++ {
		assert.NoError(t, a.Cycle())
		assert.NoError(t, b.Cycle())
	}
	assert.Equal(t, a.V, b.V)
}

func TestSessionConcurrentAccess(t *testing.T) {
	s, err := Load(rom(0x6000, 0xF029, 0xD005, 0x1200), pacing(600, 60))
	assert.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.Frame(noKeys)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			fb := s.Snapshot()
			_ = fb.Lit()
			_ = s.SoundActive()
		}
	}()
	wg.Wait()
	assert.NoError(t, s.Halted())
	assert.Equal(t, uint64(100), s.Frames())
}
