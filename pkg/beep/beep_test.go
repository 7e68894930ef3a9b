package beep

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/retroenv/retrogolib/assert"
)

func TestToneSilentWhenGateClosed(t *testing.T) {
	tone := NewTone(44100, 440, 0.5)
	buf := make([]byte, 4096)

	n, err := tone.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 4096, n)
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected silence with the gate closed")
		}
	}
}

func TestToneSquareWave(t *testing.T) {
	// 8 samples per period: 4 high, 4 low.
	tone := NewTone(800, 100, 1)
	tone.SetGate(true)
	assert.True(t, tone.Gate())

	buf := make([]byte, 8*4)
	_, err := tone.Read(buf)
	assert.NoError(t, err)

	for i := 0; i < 8; i++ {
		left := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		right := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		assert.Equal(t, left, right)
		if i < 4 {
			assert.True(t, left > 0)
		} else {
			assert.True(t, left < 0)
		}
	}
}

func TestToneReadsWholeFrames(t *testing.T) {
	tone := NewTone(44100, 440, 0.5)
	n, err := tone.Read(make([]byte, 10))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestRecorderWAV(t *testing.T) {
	rec := NewRecorder(8000, 400, 50, 0.5)
	rec.Frame(true)
	rec.Frame(false)
	rec.Frame(true)
	assert.Equal(t, 3*160, rec.Len())
	assert.Equal(t, 60*time.Millisecond, rec.Duration())

	path := filepath.Join(t.TempDir(), "beep.wav")
	f, err := os.Create(path)
	assert.NoError(t, err)
	assert.NoError(t, rec.WriteWAV(f))
	assert.NoError(t, f.Close())

	in, err := os.Open(path)
	assert.NoError(t, err)
	defer in.Close()

	dec := wav.NewDecoder(in)
	assert.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	assert.NoError(t, err)
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, 3*160, len(buf.Data))

	// The middle frame is silent.
	for _, v := range buf.Data[160:320] {
		if v != 0 {
			t.Fatalf("expected silence in the gated-off frame, got %d", v)
		}
	}
	assert.True(t, buf.Data[0] != 0)
}
