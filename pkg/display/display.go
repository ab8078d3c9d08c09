package display

import (
	"fmt"

	"gochip8/pkg/grid"
)

const (
	Width  = 64
	Height = 32
	// Keys is the size of the hex keypad.
	Keys = 16
)

// Source feeds host input into the keypad. Poll updates keys in place and
// reports whether the host asked to terminate.
type Source interface {
	Poll(keys *[Keys]bool) (quit bool)
}

// Renderer pushes a finished frame to the user-visible surface.
type Renderer interface {
	Render(d *Display) error
}

// Display owns the monochrome framebuffer and the keypad state.
type Display struct {
	pixels [Width * Height]bool
	keys   [Keys]bool
	dirty  bool

	Source   Source
	Renderer Renderer
}

// New returns a cleared display. Either collaborator may be nil.
func New(src Source, r Renderer) *Display {
	return &Display{Source: src, Renderer: r}
}

func (d *Display) Clear() {
	d.pixels = [Width * Height]bool{}
	d.dirty = true
}

// Pixel reports the pixel at (x, y). Coordinates wrap.
func (d *Display) Pixel(x, y int) bool {
	x, y = grid.Wrap(x, y, Width, Height)
	return d.pixels[grid.Index(x, y, Width)]
}

// SetPixel sets the pixel at (x, y). Coordinates wrap.
func (d *Display) SetPixel(x, y int, on bool) {
	x, y = grid.Wrap(x, y, Width, Height)
	i := grid.Index(x, y, Width)
	if d.pixels[i] != on {
		d.pixels[i] = on
		d.dirty = true
	}
}

// Dirty reports whether the framebuffer changed since the last Refresh.
func (d *Display) Dirty() bool {
	return d.dirty
}

// Refresh renders the framebuffer if it changed since the last call.
func (d *Display) Refresh() error {
	if !d.dirty {
		return nil
	}
	if d.Renderer != nil {
		if err := d.Renderer.Render(d); err != nil {
			return err
		}
	}
	d.dirty = false
	return nil
}

// PollInput drains pending input from the Source into the keypad.
func (d *Display) PollInput() (quit bool) {
	if d.Source == nil {
		return false
	}
	return d.Source.Poll(&d.keys)
}

// IsKeyHeld reports whether keypad key k (0x0-0xF) is down.
func (d *Display) IsKeyHeld(k byte) bool {
	if int(k) >= Keys {
		return false
	}
	return d.keys[k]
}

// Press and Release set keypad state directly, bypassing the Source.
func (d *Display) Press(k byte) {
	if int(k) < Keys {
		d.keys[k] = true
	}
}

func (d *Display) Release(k byte) {
	if int(k) < Keys {
		d.keys[k] = false
	}
}

// Lit returns the number of pixels currently on.
func (d *Display) Lit() int {
	n := 0
	for _, p := range d.pixels {
		if p {
			n++
		}
	}
	return n
}

// SaveState serialises the framebuffer as one byte per pixel.
func (d *Display) SaveState() []byte {
	buf := make([]byte, len(d.pixels))
	for i, p := range d.pixels {
		if p {
			buf[i] = 1
		}
	}
	return buf
}

// LoadState restores a framebuffer written by SaveState and marks it dirty.
func (d *Display) LoadState(data []byte) error {
	if len(data) != len(d.pixels) {
		return fmt.Errorf("display.LoadState: need %d bytes, got %d", len(d.pixels), len(data))
	}
	for i, b := range data {
		d.pixels[i] = b != 0
	}
	d.dirty = true
	return nil
}
