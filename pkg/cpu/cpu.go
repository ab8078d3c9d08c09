package cpu

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/disasm"
	"gochip8/pkg/memory"
)

const (
	NumRegs    = 16
	StackDepth = 16
	// RegF is the flag register written by arithmetic and sprite opcodes.
	RegF = 0xF

	instrSize = 2
)

// Display is the part of the display/input surface the CPU touches.
type Display interface {
	Clear()
	Pixel(x, y int) bool
	SetPixel(x, y int, on bool)
	IsKeyHeld(k byte) bool
	PollInput() (quit bool)
}

type CPU struct {
	regs [NumRegs]byte

	i  uint16
	pc uint16
	sp uint8

	stack [StackDepth]uint16

	dt byte // delay timer
	st byte // sound timer

	// waiting is set while a non-blocking Fx0A is parked on a key press.
	waiting bool
	waitReg uint8
	waitKey [16]bool // keys held at the previous poll of the wait

	mem *memory.Memory

	rand            func() byte
	logger          *log.Logger
	timerMode       TimerMode
	keyWaitMode     KeyWaitMode
	keyPollInterval time.Duration

	stopped atomic.Bool
}

// New creates a CPU with its own memory, the font table installed and image
// loaded at memory.ProgramStart.
func New(image []byte, opts ...Option) (*CPU, error) {
	c := &CPU{
		pc:              memory.ProgramStart,
		mem:             memory.New(),
		rand:            randomByte,
		keyPollInterval: defaultKeyPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.mem.LoadImage(image); err != nil {
		return nil, err
	}
	return c, nil
}

// Memory exposes the CPU-owned memory for inspection.
func (c *CPU) Memory() *memory.Memory {
	return c.mem
}

func (c *CPU) PC() uint16 { return c.pc }
func (c *CPU) I() uint16  { return c.i }
func (c *CPU) SP() uint8  { return c.sp }

// V returns general register x (only the low nibble of x is used).
func (c *CPU) V(x byte) byte {
	return c.regs[x&0xF]
}

// Registers returns a copy of V0..VF.
func (c *CPU) Registers() [NumRegs]byte {
	return c.regs
}

func (c *CPU) DelayTimer() byte {
	return c.dt
}

func (c *CPU) SoundTimer() byte {
	return c.st
}

// Waiting reports whether a non-blocking key wait is pending.
func (c *CPU) Waiting() bool {
	return c.waiting
}

// Tick decrements both timers toward zero. Hosts using TimersExternal call
// it at 60 Hz.
func (c *CPU) Tick() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

// Stop asks the CPU to give up. A blocking key wait returns ErrStopped at its
// next poll, and every later Step fails with ErrStopped. Safe to call from
// another goroutine.
func (c *CPU) Stop() {
	c.stopped.Store(true)
}

// Stopped reports whether Stop has been called.
func (c *CPU) Stopped() bool {
	return c.stopped.Load()
}

// Step executes one instruction against d.
func (c *CPU) Step(d Display) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	if d.PollInput() {
		return ErrQuit
	}

	if c.waiting {
		c.resumeKeyWait(d)
		c.stepTimers()
		return nil
	}

	pc := c.pc
	hi, err := c.mem.Read(pc)
	if err != nil {
		return fmt.Errorf("fetch at 0x%03X: %w", pc, err)
	}
	lo, err := c.mem.Read(pc + 1)
	if err != nil {
		return fmt.Errorf("fetch at 0x%03X: %w", pc, err)
	}
	word := uint16(hi)<<8 | uint16(lo)

	if c.logger != nil {
		line, _ := disasm.Decode(word)
		c.logger.Debug("Executing instruction",
			log.Hex("pc", pc),
			log.Hex("opcode", word),
			log.String("instruction", line.String()))
	}

	c.pc += instrSize
	if err := c.execute(d, Decode(word)); err != nil {
		c.pc = pc
		if _, ok := err.(*UnknownInstructionError); ok {
			return &UnknownInstructionError{Word: word, PC: pc}
		}
		return fmt.Errorf("opcode 0x%04X at 0x%03X: %w", word, pc, err)
	}

	c.stepTimers()
	return nil
}

func (c *CPU) stepTimers() {
	if c.timerMode == TimersPerStep {
		c.Tick()
	}
}

// execute dispatches on (opClass, opVariant, regY). PC already points at the
// next instruction; control-flow handlers overwrite it.
func (c *CPU) execute(d Display, f Fields) error {
	x, y := f.RegX, f.RegY
	vx, vy := c.regs[x], c.regs[y]

	switch f.OpClass {
	case 0x0:
		switch {
		case f.Addr == 0x0E0:
			d.Clear()
		case f.Addr == 0x0EE:
			return c.ret()
		default:
			return &UnknownInstructionError{}
		}

	case 0x1:
		c.pc = f.Addr

	case 0x2:
		return c.call(f.Addr)

	case 0x3:
		c.skipIf(vx == f.Imm)

	case 0x4:
		c.skipIf(vx != f.Imm)

	case 0x5:
		if f.OpVariant != 0 {
			return &UnknownInstructionError{}
		}
		c.skipIf(vx == vy)

	case 0x6:
		c.regs[x] = f.Imm

	case 0x7:
		c.regs[x] = vx + f.Imm

	case 0x8:
		return c.executeALU(x, f.OpVariant, vx, vy)

	case 0x9:
		if f.OpVariant != 0 {
			return &UnknownInstructionError{}
		}
		c.skipIf(vx != vy)

	case 0xA:
		c.i = f.Addr

	case 0xB:
		c.pc = f.Addr + uint16(c.regs[0])

	case 0xC:
		c.regs[x] = c.rand() & f.Imm

	case 0xD:
		return c.draw(d, vx, vy, f.OpVariant)

	case 0xE:
		switch f.Imm {
		case 0x9E:
			c.skipIf(d.IsKeyHeld(vx & 0xF))
		case 0xA1:
			c.skipIf(!d.IsKeyHeld(vx & 0xF))
		default:
			return &UnknownInstructionError{}
		}

	case 0xF:
		return c.executeMisc(d, x, f.Imm)
	}
	return nil
}

// executeALU handles the 8xyN register-register group. Flags are computed
// from the operands read before any register is written.
func (c *CPU) executeALU(x, variant, vx, vy byte) error {
	switch variant {
	case 0x0:
		c.regs[x] = vy
	case 0x1:
		c.regs[x] = vx | vy
	case 0x2:
		c.regs[x] = vx & vy
	case 0x3:
		c.regs[x] = vx ^ vy
	case 0x4:
		sum, carry := addWithCarry(vx, vy)
		c.regs[x] = sum
		c.regs[RegF] = carry
	case 0x5:
		diff, flag := subWithBorrow(vx, vy)
		c.regs[RegF] = flag
		c.regs[x] = diff
	case 0x6:
		res, flag := shiftRight(vx)
		c.regs[RegF] = flag
		c.regs[x] = res
	case 0x7:
		diff, flag := subWithBorrow(vy, vx)
		c.regs[RegF] = flag
		c.regs[x] = diff
	case 0xE:
		res, flag := shiftLeft(vx)
		c.regs[RegF] = flag
		c.regs[x] = res
	default:
		return &UnknownInstructionError{}
	}
	return nil
}

// executeMisc handles the Fxkk group.
func (c *CPU) executeMisc(d Display, x, sel byte) error {
	vx := c.regs[x]

	switch sel {
	case 0x07:
		c.regs[x] = c.dt
	case 0x0A:
		return c.waitForKey(d, x)
	case 0x15:
		c.dt = vx
	case 0x18:
		c.st = vx
	case 0x1E:
		c.i += uint16(vx)
	case 0x29:
		c.i = uint16(vx) * memory.FontGlyphSize
	case 0x33:
		for i, digit := range bcd(vx) {
			if err := c.mem.Write(c.i+uint16(i), digit); err != nil {
				return err
			}
		}
	case 0x55:
		for r := uint16(0); r <= uint16(x); r++ {
			if err := c.mem.Write(c.i+r, c.regs[r]); err != nil {
				return err
			}
		}
	case 0x65:
		for r := uint16(0); r <= uint16(x); r++ {
			v, err := c.mem.Read(c.i + r)
			if err != nil {
				return err
			}
			c.regs[r] = v
		}
	default:
		return &UnknownInstructionError{}
	}
	return nil
}

// skipIf steps over the following instruction when cond holds.
func (c *CPU) skipIf(cond bool) {
	if cond {
		c.pc += instrSize
	}
}

func (c *CPU) call(addr uint16) error {
	if int(c.sp) >= StackDepth {
		return ErrStackOverflow
	}
	c.stack[c.sp] = c.pc
	c.sp++
	c.pc = addr
	return nil
}

func (c *CPU) ret() error {
	if c.sp == 0 {
		return ErrStackUnderflow
	}
	c.sp--
	c.pc = c.stack[c.sp]
	return nil
}

// draw XORs an n-row sprite from memory at I onto the display at (vx, vy).
// VF ends up 1 if any lit pixel was turned off.
func (c *CPU) draw(d Display, vx, vy, n byte) error {
	var collision byte
	for row := uint16(0); row < uint16(n); row++ {
		bits, err := c.mem.Read(c.i + row)
		if err != nil {
			return err
		}
		py := int(vy) + int(row)
		for bit := 0; bit < 8; bit++ {
			if bits&(0x80>>bit) == 0 {
				continue
			}
			px := int(vx) + bit
			old := d.Pixel(px, py)
			if old {
				collision = 1
			}
			d.SetPixel(px, py, !old)
		}
	}
	c.regs[RegF] = collision
	return nil
}
