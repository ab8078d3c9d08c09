// Package machine couples a CPU to a display and paces it at a fixed frame
// rate with 60 Hz timers.
package machine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/cpu"
	"gochip8/pkg/display"
)

const (
	DefaultCyclesPerFrame = 10
	DefaultFrameRate      = 60
)

// Buzzer is switched on while the sound timer is non-zero.
type Buzzer interface {
	SetActive(on bool)
}

type Config struct {
	// CyclesPerFrame is the number of instructions executed per frame.
	// Defaults to DefaultCyclesPerFrame.
	CyclesPerFrame int
	// FrameRate is the number of frames per second Run aims for. Timers tick
	// once per frame. Defaults to DefaultFrameRate.
	FrameRate int

	Renderer display.Renderer
	Source   display.Source
	Buzzer   Buzzer

	// Logger receives lifecycle messages. Nil keeps the machine silent.
	Logger *log.Logger
	// Trace hands Logger to the CPU for a per-instruction debug trace.
	Trace bool
	Rand  func() byte

	KeyWait cpu.KeyWaitMode
}

type Machine struct {
	CPU     *cpu.CPU
	Display *display.Display

	cfg    Config
	frames uint64
}

// New loads image into a fresh CPU wired to a new display.
func New(image []byte, cfg Config) (*Machine, error) {
	if cfg.CyclesPerFrame <= 0 {
		cfg.CyclesPerFrame = DefaultCyclesPerFrame
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}

	opts := []cpu.Option{
		cpu.WithTimerMode(cpu.TimersExternal),
		cpu.WithKeyWaitMode(cfg.KeyWait),
	}
	if cfg.Rand != nil {
		opts = append(opts, cpu.WithRand(cfg.Rand))
	}
	if cfg.Trace && cfg.Logger != nil {
		opts = append(opts, cpu.WithLogger(cfg.Logger))
	}

	c, err := cpu.New(image, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}

	m := &Machine{
		CPU:     c,
		Display: display.New(cfg.Source, cfg.Renderer),
		cfg:     cfg,
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("Machine created",
			log.Int("image_size", len(image)),
			log.Int("cycles_per_frame", cfg.CyclesPerFrame),
			log.Int("frame_rate", cfg.FrameRate))
	}
	return m, nil
}

// Frames returns the number of frames completed.
func (m *Machine) Frames() uint64 {
	return m.frames
}

// Frame executes one frame worth of instructions, ticks the timers, updates
// the buzzer and refreshes the display if it changed.
func (m *Machine) Frame() error {
	for i := 0; i < m.cfg.CyclesPerFrame; i++ {
		if err := m.CPU.Step(m.Display); err != nil {
			return err
		}
	}
	m.CPU.Tick()
	if m.cfg.Buzzer != nil {
		m.cfg.Buzzer.SetActive(m.CPU.SoundTimer() > 0)
	}
	m.frames++
	return m.Display.Refresh()
}

// Run paces Frame until the program quits, ctx is cancelled or a fatal error
// occurs. Quit and cancellation return nil.
func (m *Machine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(m.cfg.FrameRate))
	defer ticker.Stop()

	// a blocking key wait only notices cancellation through Stop
	stop := context.AfterFunc(ctx, m.CPU.Stop)
	defer stop()

	defer func() {
		if m.cfg.Buzzer != nil {
			m.cfg.Buzzer.SetActive(false)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := m.Frame()
		switch {
		case err == nil:
			continue
		case errors.Is(err, cpu.ErrQuit):
			m.logInfo("Quit requested")
			return nil
		case errors.Is(err, cpu.ErrStopped) && ctx.Err() != nil:
			return nil
		}

		if m.cfg.Logger != nil {
			m.cfg.Logger.Error("Machine halted",
				log.Hex("pc", m.CPU.PC()),
				log.Err(err))
		}
		return err
	}
}

func (m *Machine) logInfo(msg string) {
	if m.cfg.Logger != nil {
		m.cfg.Logger.Info(msg, log.Int("frames", int(m.frames)))
	}
}
