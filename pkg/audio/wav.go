package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WavRecorder renders the buzzer into a 16-bit mono WAV stream, one emulated
// frame at a time.
type WavRecorder struct {
	enc             *wav.Encoder
	tone            *Tone
	samplesPerFrame int
	samples         []float32
	buf             *goaudio.IntBuffer
	frames          int
}

// NewWavRecorder writes to w at the tone's sample rate. frameRate is the
// number of Advance calls per emulated second.
func NewWavRecorder(w io.WriteSeeker, tone *Tone, frameRate int) (*WavRecorder, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", frameRate)
	}
	rate := tone.SampleRate()
	n := rate / frameRate

	return &WavRecorder{
		enc:             wav.NewEncoder(w, rate, wavBitDepth, 1, 1),
		tone:            tone,
		samplesPerFrame: n,
		samples:         make([]float32, n),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
			Data:           make([]int, n),
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

func (r *WavRecorder) SetActive(on bool) {
	r.tone.SetActive(on)
}

// Advance appends one frame of samples.
func (r *WavRecorder) Advance() error {
	r.tone.Fill(r.samples)
	for i, s := range r.samples {
		r.buf.Data[i] = int(s * 32767)
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("writing wav frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written.
func (r *WavRecorder) Frames() int {
	return r.frames
}

// SamplesPerFrame returns how many samples each Advance writes.
func (r *WavRecorder) SamplesPerFrame() int {
	return r.samplesPerFrame
}

// Close finalises the WAV header. The underlying writer stays open.
func (r *WavRecorder) Close() error {
	return r.enc.Close()
}
