package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow      = errors.New("call stack overflow")
	ErrStackUnderflow     = errors.New("return with empty call stack")
	ErrUnknownInstruction = errors.New("unknown instruction")
	// ErrQuit is returned by Step when the host asked to terminate while
	// input was being polled.
	ErrQuit = errors.New("quit requested")
	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("cpu stopped")
)

// UnknownInstructionError carries the raw word that matched no handler.
type UnknownInstructionError struct {
	Word uint16
	PC   uint16
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction 0x%04X at 0x%03X", e.Word, e.PC)
}

func (e *UnknownInstructionError) Is(target error) bool {
	return target == ErrUnknownInstruction
}
