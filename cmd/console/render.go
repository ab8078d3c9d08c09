package main

import (
	"bufio"
	"io"

	"gochip8/pkg/display"
)

const (
	cursorHome = "\x1b[H"
	clearAll   = "\x1b[2J"
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// halfBlocks is indexed by top | bottom<<1.
var halfBlocks = [4]string{" ", "▀", "▄", "█"}

// ansiRenderer draws two framebuffer rows per terminal line using half
// block characters, giving a 64x16 character screen.
type ansiRenderer struct {
	w *bufio.Writer
}

func newANSIRenderer(w io.Writer) *ansiRenderer {
	return &ansiRenderer{w: bufio.NewWriter(w)}
}

func (r *ansiRenderer) Render(d *display.Display) error {
	r.w.WriteString(cursorHome)
	for y := 0; y < display.Height; y += 2 {
		for x := 0; x < display.Width; x++ {
			idx := 0
			if d.Pixel(x, y) {
				idx |= 1
			}
			if d.Pixel(x, y+1) {
				idx |= 2
			}
			r.w.WriteString(halfBlocks[idx])
		}
		// raw mode does not translate newlines
		r.w.WriteString("\r\n")
	}
	return r.w.Flush()
}
