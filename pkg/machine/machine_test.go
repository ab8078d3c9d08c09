package machine

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/cpu"
	"gochip8/pkg/display"
)

type countingRenderer struct {
	frames int
}

func (r *countingRenderer) Render(*display.Display) error {
	r.frames++
	return nil
}

// quitAfter asks to quit once it has been polled limit times.
type quitAfter struct {
	polls, limit int
}

func (s *quitAfter) Poll(*[display.Keys]bool) bool {
	s.polls++
	return s.limit > 0 && s.polls >= s.limit
}

type recordingBuzzer struct {
	states []bool
}

func (b *recordingBuzzer) SetActive(on bool) {
	b.states = append(b.states, on)
}

func program(words ...uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w>>8), byte(w))
	}
	return out
}

func TestFrameTicksTimersAndBuzzer(t *testing.T) {
	buzzer := &recordingBuzzer{}
	m, err := New(program(0x6002, 0xF018, 0x1204), Config{
		CyclesPerFrame: 3,
		Buzzer:         buzzer,
	})
	assert.NoError(t, err)

	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(1), m.CPU.SoundTimer())
	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(0), m.CPU.SoundTimer())

	assert.Len(t, buzzer.states, 2)
	assert.True(t, buzzer.states[0])
	assert.False(t, buzzer.states[1])
	assert.Equal(t, uint64(2), m.Frames())
}

func TestFrameRefreshesOnlyWhenDirty(t *testing.T) {
	renderer := &countingRenderer{}
	// I := glyph 0, draw it, spin
	m, err := New(program(0xF029, 0xD015, 0x1204), Config{
		CyclesPerFrame: 3,
		Renderer:       renderer,
	})
	assert.NoError(t, err)

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, renderer.frames)
	assert.Equal(t, 14, m.Display.Lit())

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, renderer.frames)
}

func TestRunStopsOnQuit(t *testing.T) {
	m, err := New(program(0x1200), Config{
		FrameRate: 1000,
		Source:    &quitAfter{limit: 25},
		Logger:    log.NewTestLogger(t),
	})
	assert.NoError(t, err)
	assert.NoError(t, m.Run(context.Background()))
	assert.True(t, m.Frames() >= 2)
}

func TestRunCancelsBlockingKeyWait(t *testing.T) {
	m, err := New(program(0xF00A), Config{FrameRate: 1000})
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.True(t, m.CPU.Stopped())
}

func TestRunReturnsFatalError(t *testing.T) {
	m, err := New(program(0x00EE), Config{FrameRate: 1000})
	assert.NoError(t, err)

	err = m.Run(context.Background())
	assert.True(t, errors.Is(err, cpu.ErrStackUnderflow))
}

func TestNewRejectsOversizedImage(t *testing.T) {
	_, err := New(make([]byte, 4000), Config{})
	assert.Error(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	m, err := New(program(0x6A07, 0xA300, 0xFA33, 0xF029, 0xD015, 0x120A), Config{CyclesPerFrame: 6})
	assert.NoError(t, err)
	assert.NoError(t, m.Frame())

	snap, err := m.Snapshot()
	assert.NoError(t, err)
	want := m.CPU.State()
	lit := m.Display.Lit()

	// diverge, then roll back
	m.Display.Clear()
	assert.NoError(t, m.CPU.Memory().Write(0x301, 0xEE))
	assert.NoError(t, m.Frame())

	assert.NoError(t, m.Restore(snap))
	assert.Equal(t, want, m.CPU.State())
	assert.Equal(t, lit, m.Display.Lit())
	b, err := m.CPU.Memory().Read(0x301)
	assert.NoError(t, err)
	assert.Equal(t, byte(0), b)

	// A fresh machine picks up the same state.
	m2, err := New(nil, Config{})
	assert.NoError(t, err)
	assert.NoError(t, m2.Restore(snap))
	assert.Equal(t, want, m2.CPU.State())
	assert.True(t, bytes.Equal(m.Display.SaveState(), m2.Display.SaveState()))
}

func TestRestoreRejectsBadArchive(t *testing.T) {
	m, err := New(program(0x6A07), Config{CyclesPerFrame: 1})
	assert.NoError(t, err)
	assert.NoError(t, m.Frame())
	want := m.CPU.State()

	assert.Error(t, m.Restore([]byte("not a zip")))
	assert.Equal(t, want, m.CPU.State())
}
