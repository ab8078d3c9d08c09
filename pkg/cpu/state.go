package cpu

import (
	"fmt"

	"gochip8/pkg/memory"
)

// State is the serialisable register file. Memory travels separately as a
// raw image.
type State struct {
	Regs    [NumRegs]byte      `json:"regs"`
	I       uint16             `json:"i"`
	PC      uint16             `json:"pc"`
	SP      uint8              `json:"sp"`
	Stack   [StackDepth]uint16 `json:"stack"`
	DT      byte               `json:"dt"`
	ST      byte               `json:"st"`
	Waiting bool               `json:"waiting"`
	WaitReg uint8              `json:"wait_reg"`
	WaitKey [16]bool           `json:"wait_key"`
}

// State captures registers and timers.
func (c *CPU) State() State {
	return State{
		Regs:    c.regs,
		I:       c.i,
		PC:      c.pc,
		SP:      c.sp,
		Stack:   c.stack,
		DT:      c.dt,
		ST:      c.st,
		Waiting: c.waiting,
		WaitReg: c.waitReg,
		WaitKey: c.waitKey,
	}
}

// SetState replaces the register file. The stack pointer and program counter
// are validated so a restored CPU cannot start outside memory.
func (c *CPU) SetState(s State) error {
	if int(s.SP) > StackDepth {
		return fmt.Errorf("stack pointer %d exceeds depth %d", s.SP, StackDepth)
	}
	if int(s.PC) >= memory.Size {
		return fmt.Errorf("program counter 0x%04X: %w", s.PC, memory.ErrOutOfBounds)
	}
	c.regs = s.Regs
	c.i = s.I
	c.pc = s.PC
	c.sp = s.SP
	c.stack = s.Stack
	c.dt = s.DT
	c.st = s.ST
	c.waiting = s.Waiting
	c.waitReg = s.WaitReg & 0xF
	c.waitKey = s.WaitKey
	return nil
}
