//go:build headless

package audio

// OtoPlayer is a silent stand-in for builds without an audio device.
type OtoPlayer struct {
	tone    *Tone
	started bool
}

func NewOtoPlayer(tone *Tone) (*OtoPlayer, error) {
	return &OtoPlayer{tone: tone}, nil
}

func (op *OtoPlayer) Read(p []byte) (int, error) {
	return len(p), nil
}

func (op *OtoPlayer) SetActive(on bool) {
	op.tone.SetActive(on)
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Close() error {
	op.started = false
	return nil
}
