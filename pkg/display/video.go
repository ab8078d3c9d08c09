package display

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

var (
	// DefaultOn and DefaultOff are the phosphor colours used by Image.
	DefaultOn  = color.RGBA{0xE8, 0xF1, 0xFF, 0xFF}
	DefaultOff = color.RGBA{0x10, 0x10, 0x18, 0xFF}
)

// FramebufferRGBA expands the framebuffer into a Width×Height RGBA8888 byte
// slice (length Width*Height*4).
func (d *Display) FramebufferRGBA(on, off color.RGBA) []byte {
	pixels := make([]byte, Width*Height*4)
	for i, lit := range d.pixels {
		c := off
		if lit {
			c = on
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the framebuffer as an *image.RGBA using the default colours.
func (d *Display) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    d.FramebufferRGBA(DefaultOn, DefaultOff),
		Stride: Width * 4,
		Rect:   image.Rect(0, 0, Width, Height),
	}
}

// SaveScreenshot encodes the current framebuffer as a PNG and writes it to filename.
func (d *Display) SaveScreenshot(filename string) error {
	img := d.Image()
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
