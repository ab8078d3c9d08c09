// Package audio turns the sound timer into an audible tone. The machine only
// reports whether the buzzer should be on; everything here is host side.
package audio

import (
	"sync"
)

const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 440.0
	DefaultAmplitude  = 0.25
)

// Tone is a square wave generator that outputs silence while inactive. It is
// safe to toggle from the emulation goroutine while an audio callback reads
// samples.
type Tone struct {
	mu         sync.Mutex
	active     bool
	phase      float64
	step       float64
	amplitude  float32
	sampleRate int
}

func NewTone(freq float64, sampleRate int, amplitude float32) *Tone {
	return &Tone{
		step:       freq / float64(sampleRate),
		amplitude:  amplitude,
		sampleRate: sampleRate,
	}
}

func (t *Tone) SampleRate() int {
	return t.sampleRate
}

func (t *Tone) SetActive(on bool) {
	t.mu.Lock()
	t.active = on
	t.mu.Unlock()
}

func (t *Tone) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Fill writes the next len(buf) samples. The phase keeps running while
// silent so toggling does not click mid-period.
func (t *Tone) Fill(buf []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range buf {
		var s float32
		if t.active {
			s = t.amplitude
			if t.phase >= 0.5 {
				s = -t.amplitude
			}
		}
		buf[i] = s

		t.phase += t.step
		if t.phase >= 1 {
			t.phase -= 1
		}
	}
}
