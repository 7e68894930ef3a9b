package chip8

import (
	"fmt"
	"math/rand/v2"
)

const (
	MemorySize     = 0x1000
	ProgramStart   = 0x200
	MaxProgramSize = MemorySize - ProgramStart

	RegisterCount = 16
	StackDepth    = 16
	KeyCount      = 16

	DisplayWidth  = 64
	DisplayHeight = 32

	// FontAddress is where the hexadecimal digit glyphs live. Each glyph is
	// glyphSize bytes tall.
	FontAddress = 0x000
	glyphSize   = 5
)

// RegF is the flag register overwritten by carry, borrow, shift and
// collision results.
const RegF = 0xF

// fontset holds the 4x5 sprites for the digits 0-F.
var fontset = [16 * glyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Framebuffer is the 64x32 monochrome display, row-major.
type Framebuffer [DisplayHeight][DisplayWidth]bool

// RandomSource returns one uniformly distributed byte per call.
type RandomSource func() byte

// Machine is a complete CHIP-8 interpreter. It is not safe for concurrent
// use; the host must serialise Cycle, TickTimers and SetKeys.
type Machine struct {
	Memory [MemorySize]byte
	V      [RegisterCount]byte
	I      uint16

	PC    uint16
	SP    uint8
	Stack [StackDepth]uint16

	DelayTimer uint8
	SoundTimer uint8

	Quirks Quirks

	// Cycles counts successfully executed instructions.
	Cycles uint64

	keys    [KeyCount]bool
	display Framebuffer

	waiting bool
	err     error

	rom    []byte
	random RandomSource
}

// Option configures a Machine at construction.
type Option func(*Machine)

// WithQuirks selects the shift-source behaviour for 8xy6/8xyE.
func WithQuirks(q Quirks) Option {
	return func(m *Machine) {
		m.Quirks = q
	}
}

// WithRandom replaces the Cxkk random source.
func WithRandom(src RandomSource) Option {
	return func(m *Machine) {
		m.random = src
	}
}

// WithSeed seeds the default PCG random source so runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(m *Machine) {
		r := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
		m.random = func() byte { return byte(r.UintN(256)) }
	}
}

// New creates a powered-on machine: font loaded, display cleared, PC at 0x200.
func New(opts ...Option) *Machine {
	m := &Machine{
		PC: ProgramStart,
		random: func() byte {
			return byte(rand.UintN(256))
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ClearDisplay()
	m.loadFontset()
	return m
}

func (m *Machine) loadFontset() {
	copy(m.Memory[FontAddress:], fontset[:])
}

// LoadProgram copies program into memory at 0x200. A program that does not
// fit is rejected and memory is left untouched. Loading again overwrites the
// previous image byte for byte without clearing what lies past its end.
func (m *Machine) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	copy(m.Memory[ProgramStart:], program)
	m.rom = append(m.rom[:0], program...)
	return nil
}

// ClearDisplay turns every pixel off.
func (m *Machine) ClearDisplay() {
	m.display = Framebuffer{}
}

// Reset returns the machine to power-on state and reloads the last program
// passed to LoadProgram. Quirks and the random source are kept.
func (m *Machine) Reset() {
	m.Memory = [MemorySize]byte{}
	m.V = [RegisterCount]byte{}
	m.I = 0
	m.PC = ProgramStart
	m.SP = 0
	m.Stack = [StackDepth]uint16{}
	m.DelayTimer = 0
	m.SoundTimer = 0
	m.Cycles = 0
	m.keys = [KeyCount]bool{}
	m.waiting = false
	m.err = nil

	m.ClearDisplay()
	m.loadFontset()
	copy(m.Memory[ProgramStart:], m.rom)
}

// SetKeys overwrites the whole keypad state.
func (m *Machine) SetKeys(keys [KeyCount]bool) {
	m.keys = keys
}

// Keys returns the current keypad state.
func (m *Machine) Keys() [KeyCount]bool {
	return m.keys
}

// Framebuffer returns a copy of the display.
func (m *Machine) Framebuffer() Framebuffer {
	return m.display
}

// TickTimers decrements the delay and sound timers, stopping at zero. The host
// calls it at 60 Hz independently of Cycle.
func (m *Machine) TickTimers() {
	if m.DelayTimer > 0 {
		m.DelayTimer--
	}
	if m.SoundTimer > 0 {
		m.SoundTimer--
	}
}

// SoundActive reports whether the buzzer should be sounding.
func (m *Machine) SoundActive() bool {
	return m.SoundTimer > 0
}

// Waiting reports whether the last cycle stalled on Fx0A.
func (m *Machine) Waiting() bool {
	return m.waiting
}

// Err returns the fault that halted the machine, or nil.
func (m *Machine) Err() error {
	return m.err
}
