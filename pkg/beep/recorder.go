package beep

import (
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth      = 16
	pcmFormat     = 1
	monoChannels  = 1
	wavSampleSize = bitDepth / 8
)

// Recorder captures the buzzer one host frame at a time, for hosts that run
// without an audio device.
type Recorder struct {
	sampleRate      int
	samplesPerFrame int
	osc             square
	samples         []int
}

// NewRecorder creates a recorder producing sampleRate mono samples per
// second, with frameHz frames per second.
func NewRecorder(sampleRate, toneHz, frameHz int, volume float64) *Recorder {
	perFrame := 1
	if frameHz > 0 && sampleRate/frameHz > 0 {
		perFrame = sampleRate / frameHz
	}
	return &Recorder{
		sampleRate:      sampleRate,
		samplesPerFrame: perFrame,
		osc:             newSquare(sampleRate, toneHz, volume),
	}
}

// Frame appends one frame of audio, tone or silence.
func (r *Recorder) Frame(on bool) {
	for i := 0; i < r.samplesPerFrame; i++ {
		r.samples = append(r.samples, int(r.osc.next(on)))
	}
}

// Len returns the number of recorded samples.
func (r *Recorder) Len() int {
	return len(r.samples)
}

// Duration returns the recorded length.
func (r *Recorder) Duration() time.Duration {
	return time.Duration(len(r.samples)) * time.Second / time.Duration(r.sampleRate)
}

// WriteWAV encodes everything recorded so far as 16-bit mono PCM.
func (r *Recorder) WriteWAV(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, r.sampleRate, bitDepth, monoChannels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: monoChannels,
			SampleRate:  r.sampleRate,
		},
		Data:           r.samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
