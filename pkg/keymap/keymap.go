// Package keymap translates host keyboard input to the 16-key CHIP-8 pad.
//
// The conventional layout maps the left-hand 4x4 block of a QWERTY
// keyboard onto the COSMAC VIP keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
package keymap

import "unicode"

// KeyCount is the size of the CHIP-8 keypad.
const KeyCount = 16

// Layout is the host row order; Layout[i] produces Pad[i].
const Layout = "1234qwerasdfzxcv"

// Pad lists the CHIP-8 key produced by each position of Layout.
var Pad = [KeyCount]uint8{
	0x1, 0x2, 0x3, 0xC,
	0x4, 0x5, 0x6, 0xD,
	0x7, 0x8, 0x9, 0xE,
	0xA, 0x0, 0xB, 0xF,
}

var byRune = func() map[rune]uint8 {
	m := make(map[rune]uint8, KeyCount)
	for i, r := range Layout {
		m[r] = Pad[i]
	}
	return m
}()

// Lookup returns the CHIP-8 key for a host character, ignoring case.
func Lookup(r rune) (uint8, bool) {
	k, ok := byRune[unicode.ToLower(r)]
	return k, ok
}

// Latch turns a stream of key presses into per-frame key state for hosts
// that never see key releases. A press holds its key down for a fixed number
// of frames, restarting the count if it repeats.
type Latch struct {
	frames int
	held   [KeyCount]int
}

// NewLatch creates a latch holding each press for frames frames.
func NewLatch(frames int) *Latch {
	if frames < 1 {
		frames = 1
	}
	return &Latch{frames: frames}
}

// Press registers a host character. It reports whether the character maps
// to a CHIP-8 key.
func (l *Latch) Press(r rune) bool {
	k, ok := Lookup(r)
	if !ok {
		return false
	}
	l.held[k] = l.frames
	return true
}

// Advance returns the key state for the current frame and ages every held
// key by one frame.
func (l *Latch) Advance() [KeyCount]bool {
	var keys [KeyCount]bool
	for k, n := range l.held {
		if n > 0 {
			keys[k] = true
			l.held[k] = n - 1
		}
	}
	return keys
}

// Release drops every held key.
func (l *Latch) Release() {
	l.held = [KeyCount]int{}
}
