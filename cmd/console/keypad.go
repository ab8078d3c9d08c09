package main

import (
	"sync"
	"time"

	"gochip8/pkg/display"
)

// keyHold is how long a keypress stays down. Terminals only report presses,
// so release is synthesized once the hold expires; auto-repeat keeps a held
// key alive.
const keyHold = 150 * time.Millisecond

const (
	ctrlC  = 0x03
	escape = 0x1B
)

// keyBytes maps terminal input to the hex keypad using the same
// 1234/QWER/ASDF/ZXCV layout as the desktop host.
var keyBytes = map[byte]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// terminalKeypad is a display.Source fed by raw stdin bytes.
type terminalKeypad struct {
	mu    sync.Mutex
	until [display.Keys]time.Time
	quit  bool
	now   func() time.Time
}

func newTerminalKeypad() *terminalKeypad {
	return &terminalKeypad{now: time.Now}
}

// Feed records one input byte.
func (k *terminalKeypad) Feed(b byte) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if b == ctrlC || b == escape {
		k.quit = true
		return
	}
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	if key, ok := keyBytes[b]; ok {
		k.until[key] = k.now().Add(keyHold)
	}
}

func (k *terminalKeypad) Poll(keys *[display.Keys]bool) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	for i, t := range k.until {
		keys[i] = now.Before(t)
	}
	return k.quit
}
