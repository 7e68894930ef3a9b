// Package beep generates the CHIP-8 buzzer: a square wave that sounds while
// the sound timer is non-zero.
package beep

import (
	"encoding/binary"
	"math"
	"sync"
)

// square is a free-running square wave oscillator. It keeps its phase while
// gated off so that re-opening the gate does not click mid-period.
type square struct {
	period    int
	amplitude int16
	phase     int
}

func newSquare(sampleRate, hz int, volume float64) square {
	period := 2
	if hz > 0 && sampleRate/hz > 2 {
		period = sampleRate / hz
	}
	volume = math.Max(0, math.Min(1, volume))
	return square{
		period:    period,
		amplitude: int16(volume * math.MaxInt16),
	}
}

func (s *square) next(on bool) int16 {
	var v int16
	if on {
		if s.phase < s.period/2 {
			v = s.amplitude
		} else {
			v = -s.amplitude
		}
	}
	s.phase = (s.phase + 1) % s.period
	return v
}

// Tone is an endless stream of 16-bit signed little-endian stereo PCM, the
// format ebiten's audio player expects. It is silent while the gate is off.
type Tone struct {
	mu   sync.Mutex
	osc  square
	gate bool
}

// NewTone creates a gated square wave at hz.
func NewTone(sampleRate, hz int, volume float64) *Tone {
	return &Tone{osc: newSquare(sampleRate, hz, volume)}
}

// SetGate opens or closes the gate. Safe to call while another goroutine
// is reading.
func (t *Tone) SetGate(on bool) {
	t.mu.Lock()
	t.gate = on
	t.mu.Unlock()
}

// Gate reports whether the tone is currently audible.
func (t *Tone) Gate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gate
}

// Read fills p with whole stereo frames (4 bytes each).
func (t *Tone) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p) / 4 * 4
	for i := 0; i < n; i += 4 {
		v := uint16(t.osc.next(t.gate))
		binary.LittleEndian.PutUint16(p[i:], v)
		binary.LittleEndian.PutUint16(p[i+2:], v)
	}
	return n, nil
}
