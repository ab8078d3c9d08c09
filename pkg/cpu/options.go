package cpu

import (
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// TimerMode selects who drives the delay and sound timers.
type TimerMode int

const (
	// TimersPerStep decrements both timers once per executed Step.
	TimersPerStep TimerMode = iota
	// TimersExternal leaves timer decrements to the host calling Tick at 60 Hz.
	TimersExternal
)

// KeyWaitMode selects how Fx0A waits for a key.
type KeyWaitMode int

const (
	// KeyWaitBlocking polls input inside a single Step until a key goes down.
	KeyWaitBlocking KeyWaitMode = iota
	// KeyWaitNonBlocking parks the CPU in the Waiting state; every Step polls
	// once and returns without advancing PC until a key goes down.
	KeyWaitNonBlocking
)

const defaultKeyPollInterval = time.Millisecond

// Option configures a CPU at construction.
type Option func(*CPU)

// WithRand replaces the random byte source used by Cxkk.
func WithRand(fn func() byte) Option {
	return func(c *CPU) {
		c.rand = fn
	}
}

// WithLogger enables a debug trace of every executed instruction.
func WithLogger(logger *log.Logger) Option {
	return func(c *CPU) {
		c.logger = logger
	}
}

func WithTimerMode(m TimerMode) Option {
	return func(c *CPU) {
		c.timerMode = m
	}
}

func WithKeyWaitMode(m KeyWaitMode) Option {
	return func(c *CPU) {
		c.keyWaitMode = m
	}
}

// WithKeyPollInterval sets how long a blocking Fx0A sleeps between polls.
func WithKeyPollInterval(d time.Duration) Option {
	return func(c *CPU) {
		c.keyPollInterval = d
	}
}

func randomByte() byte {
	return byte(rand.Intn(256))
}
