package memory

import (
	"errors"
	"fmt"
)

const (
	// Size is the total addressable memory of the machine.
	Size = 4096
	// ProgramStart is where program images are loaded and execution begins.
	// Everything below it holds the font table and is write-protected.
	ProgramStart = 0x200
	// MaxImageSize is the largest program image that fits above ProgramStart.
	MaxImageSize = Size - ProgramStart
)

var (
	ErrImageTooLarge = errors.New("program image too large")
	ErrProtected     = errors.New("write to protected memory")
	ErrOutOfBounds   = errors.New("memory access out of bounds")
)

// Memory is the byte-addressable store shared by the font table and the
// program region.
type Memory struct {
	data [Size]byte
}

// New returns a zeroed memory with the font table installed at FontBase.
func New() *Memory {
	m := &Memory{}
	copy(m.data[FontBase:], fontSet[:])
	return m
}

// LoadImage copies a program image verbatim to ProgramStart.
func (m *Memory) LoadImage(img []byte) error {
	if len(img) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrImageTooLarge, len(img), MaxImageSize)
	}
	copy(m.data[ProgramStart:], img)
	return nil
}

// Read returns the byte at addr.
func (m *Memory) Read(addr uint16) (byte, error) {
	if int(addr) >= Size {
		return 0, fmt.Errorf("%w: read 0x%04X", ErrOutOfBounds, addr)
	}
	return m.data[addr], nil
}

// Write stores val at addr. Writes below ProgramStart are rejected.
func (m *Memory) Write(addr uint16, val byte) error {
	if addr < ProgramStart {
		return fmt.Errorf("%w: write 0x%04X", ErrProtected, addr)
	}
	if int(addr) >= Size {
		return fmt.Errorf("%w: write 0x%04X", ErrOutOfBounds, addr)
	}
	m.data[addr] = val
	return nil
}

// Bytes returns a copy of the whole address space.
func (m *Memory) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, m.data[:])
	return out
}

// Restore replaces the whole address space, font region included.
func (m *Memory) Restore(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("memory restore: need %d bytes, got %d", Size, len(data))
	}
	copy(m.data[:], data)
	return nil
}
