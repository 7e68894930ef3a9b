package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/host"
	"gochip8/pkg/keymap"
)

func TestRenderHalfBlocks(t *testing.T) {
	var fb chip8.Framebuffer
	fb[0][0], fb[1][0] = true, true // both halves
	fb[0][1] = true                 // top only
	fb[3][2] = true                 // bottom of the second line

	lines := strings.Split(renderHalfBlocks(fb), "\r\n")
	assert.Equal(t, chip8.DisplayHeight/2+1, len(lines))
	assert.Equal(t, "", lines[len(lines)-1])

	first := []rune(lines[0])
	assert.Equal(t, chip8.DisplayWidth, len(first))
	assert.Equal(t, '█', first[0])
	assert.Equal(t, '▀', first[1])
	assert.Equal(t, ' ', first[2])
	assert.Equal(t, '▄', []rune(lines[1])[2])
}

func TestReadKeysForwardsReads(t *testing.T) {
	out := make(chan []byte, 8)
	done := make(chan struct{})
	defer close(done)
	readKeys(strings.NewReader("qv"), out, done)

	var got []byte
	for chunk := range out {
		got = append(got, chunk...)
	}
	assert.Equal(t, "qv", string(got))
}

// endlessKeys never runs out of input.
type endlessKeys struct{}

func (endlessKeys) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'q'
	}
	return len(p), nil
}

func TestReadKeysStopsWhenDone(t *testing.T) {
	out := make(chan []byte)
	done := make(chan struct{})
	close(done)

	// Nobody receives, so this only returns if done is honoured.
	readKeys(endlessKeys{}, out, done)

	_, ok := <-out
	assert.False(t, ok)
}

func newTestConsole(t *testing.T, words ...uint16) (*console, *bytes.Buffer) {
	t.Helper()
	rom := make([]byte, 0, len(words)*2)
	for _, w := range words {
		rom = append(rom, byte(w>>8), byte(w))
	}
	session, err := host.Load(rom, config.Default().Emulation)
	assert.NoError(t, err)

	var out bytes.Buffer
	return &console{
		session: session,
		latch:   keymap.NewLatch(2),
		out:     &out,
		romName: "test",
	}, &out
}

func TestConsoleKeys(t *testing.T) {
	c, _ := newTestConsole(t, 0x1200)

	assert.True(t, c.key('w'))
	keys := c.latch.Advance()
	assert.True(t, keys[0x5])

	assert.False(t, c.key(keyEscape))
	assert.False(t, c.key(keyCtrlC))
}

func TestConsoleIgnoresEscapeSequences(t *testing.T) {
	c, _ := newTestConsole(t, 0x1200)

	// Arrow up and F5 as a terminal sends them.
	assert.True(t, c.input([]byte("\x1b[A")))
	assert.True(t, c.input([]byte("\x1b[15~")))
	keys := c.latch.Advance()
	for k, down := range keys {
		if down {
			t.Errorf("key %X pressed by an escape sequence", k)
		}
	}

	assert.True(t, c.input([]byte("zx")))
	keys = c.latch.Advance()
	assert.True(t, keys[0xA])
	assert.True(t, keys[0x0])

	assert.False(t, c.input([]byte{keyEscape}))
}

func TestConsoleFrameDrawsAndBeeps(t *testing.T) {
	// Set ST=3 from V0, then spin.
	c, out := newTestConsole(t, 0x6003, 0xF018, 0x1204)

	c.frame()
	assert.True(t, strings.HasPrefix(out.String(), ansiHome))
	assert.True(t, strings.Contains(out.String(), "cycles"))
	assert.True(t, strings.HasSuffix(out.String(), "\a"))

	// The bell rings on the rising edge only.
	out.Reset()
	c.frame()
	assert.False(t, strings.Contains(out.String(), "\a"))
}

func TestConsoleShowsHaltAndResets(t *testing.T) {
	c, out := newTestConsole(t, 0x0123)

	c.frame()
	assert.True(t, strings.Contains(out.String(), "halted"))

	assert.True(t, c.key(keyCtrlR))
	assert.NoError(t, c.session.Halted())
	assert.Equal(t, uint64(0), c.session.Cycles())
}
