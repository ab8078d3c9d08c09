//go:build !headless

package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer streams a Tone to the default output device.
type OtoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	tone   *Tone

	sampleBuf []float32
	started   bool
	mutex     sync.Mutex
}

func NewOtoPlayer(tone *Tone) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   tone.SampleRate(),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	p := &OtoPlayer{
		ctx:       ctx,
		tone:      tone,
		sampleBuf: make([]float32, 1024),
	}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// Read implements io.Reader for oto, producing float32 little-endian samples.
func (op *OtoPlayer) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]
	op.tone.Fill(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return numSamples * 4, nil
}

func (op *OtoPlayer) SetActive(on bool) {
	op.tone.SetActive(on)
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Close() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.started = false
	if op.player == nil {
		return nil
	}
	err := op.player.Close()
	op.player = nil
	return err
}
