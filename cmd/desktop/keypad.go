package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"gochip8/pkg/display"
)

// keymap lays the hex keypad over the left side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var keymap = [display.Keys]ebiten.Key{
	0x1: ebiten.Key1, 0x2: ebiten.Key2, 0x3: ebiten.Key3, 0xC: ebiten.Key4,
	0x4: ebiten.KeyQ, 0x5: ebiten.KeyW, 0x6: ebiten.KeyE, 0xD: ebiten.KeyR,
	0x7: ebiten.KeyA, 0x8: ebiten.KeyS, 0x9: ebiten.KeyD, 0xE: ebiten.KeyF,
	0xA: ebiten.KeyZ, 0x0: ebiten.KeyX, 0xB: ebiten.KeyC, 0xF: ebiten.KeyV,
}

// keypadSource reads the keypad from the keyboard state. pressed is
// ebiten.IsKeyPressed outside of tests.
type keypadSource struct {
	pressed func(ebiten.Key) bool
}

func (s keypadSource) Poll(keys *[display.Keys]bool) bool {
	for k, key := range keymap {
		keys[k] = s.pressed(key)
	}
	return s.pressed(ebiten.KeyEscape)
}
