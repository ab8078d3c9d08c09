package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// terminal puts stdin into raw non-blocking mode and forwards every byte
// to a keypad until Stop.
type terminal struct {
	keypad *terminalKeypad

	fd          int
	oldState    *term.State
	nonblockSet bool

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
}

func newTerminal(keypad *terminalKeypad) *terminal {
	return &terminal{
		keypad: keypad,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (t *terminal) Start() error {
	t.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		close(t.done)
		return fmt.Errorf("setting raw mode: %w", err)
	}
	t.oldState = oldState

	if err := syscall.SetNonblock(t.fd, true); err != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
		close(t.done)
		return fmt.Errorf("setting nonblocking stdin: %w", err)
	}
	t.nonblockSet = true

	go t.read()
	return nil
}

func (t *terminal) read() {
	defer close(t.done)
	buf := make([]byte, 16)

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, err := syscall.Read(t.fd, buf)
		for _, b := range buf[:max(n, 0)] {
			t.keypad.Feed(b)
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || (err == nil && n == 0) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Stop ends the reader and restores the terminal.
func (t *terminal) Stop() {
	t.stopped.Do(func() {
		close(t.stopCh)
	})
	<-t.done
	if t.nonblockSet {
		_ = syscall.SetNonblock(t.fd, false)
		t.nonblockSet = false
	}
	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
}
