// Package disasm renders CHIP-8 instruction words as assembly text.
// Instruction identification uses the retrogolib CHIP-8 opcode tables, the
// operand syntax follows the Cowgod reference and is accepted by pkg/asm.
package disasm

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// instructionSize is the size of every CHIP-8 instruction in bytes.
const instructionSize = 2

// Line is one disassembled instruction or data word.
type Line struct {
	Address  uint16
	Word     uint16
	Mnemonic string
	Operands string
	Data     bool // word did not match any known opcode
}

func (l Line) String() string {
	if l.Operands == "" {
		return l.Mnemonic
	}
	return l.Mnemonic + " " + l.Operands
}

// Lookup returns the retrogolib opcode descriptor matching word.
func Lookup(word uint16) (chip8.Opcode, bool) {
	firstNibble := (word & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&word == op.Info.Value {
			return op, op.Instruction != nil
		}
	}
	return chip8.Opcode{}, false
}

// Decode disassembles a single instruction word. The bool result is false
// when the word is not a known instruction; the returned Line then renders
// it as a data word.
func Decode(word uint16) (Line, bool) {
	op, ok := Lookup(word)
	if !ok {
		return Line{
			Word:     word,
			Mnemonic: ".WORD",
			Operands: fmt.Sprintf("$%04X", word),
			Data:     true,
		}, false
	}

	return Line{
		Word:     word,
		Mnemonic: strings.ToUpper(op.Instruction.Name),
		Operands: formatOperands(word),
	}, true
}

// Program disassembles a program image linearly, assigning addresses from
// base. A trailing odd byte is emitted as a .BYTE directive.
func Program(image []byte, base uint16) []Line {
	lines := make([]Line, 0, len(image)/instructionSize+1)
	i := 0
	for ; i+1 < len(image); i += instructionSize {
		word := uint16(image[i])<<8 | uint16(image[i+1])
		line, _ := Decode(word)
		line.Address = base + uint16(i)
		lines = append(lines, line)
	}
	if i < len(image) {
		lines = append(lines, Line{
			Address:  base + uint16(i),
			Word:     uint16(image[i]),
			Mnemonic: ".BYTE",
			Operands: fmt.Sprintf("$%02X", image[i]),
			Data:     true,
		})
	}
	return lines
}

// IsSkip reports whether word is one of the conditional skip instructions.
func IsSkip(word uint16) bool {
	op, ok := Lookup(word)
	return ok && chip8.SkipInstructions.Contains(op.Instruction.Name)
}

// formatOperands formats the operand list of word by its bit pattern.
func formatOperands(word uint16) string {
	x := (word & 0x0F00) >> 8
	y := (word & 0x00F0) >> 4
	n := word & 0x000F
	kk := word & 0x00FF
	nnn := word & 0x0FFF

	switch word & 0xF000 {
	case 0x0000:
		return ""
	case 0x1000, 0x2000:
		return fmt.Sprintf("$%03X", nnn)
	case 0x3000, 0x4000, 0x6000, 0x7000, 0xC000:
		return fmt.Sprintf("V%X, $%02X", x, kk)
	case 0x5000, 0x9000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0x8000:
		// shifts only print Vy when it is set
		if (n == 0x6 || n == 0xE) && y == 0 {
			return fmt.Sprintf("V%X", x)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, $%03X", nnn)
	case 0xB000:
		return fmt.Sprintf("V0, $%03X", nnn)
	case 0xD000:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, n)
	case 0xE000:
		return fmt.Sprintf("V%X", x)
	}

	// 0xF000 family
	switch kk {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x1E:
		return fmt.Sprintf("I, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return fmt.Sprintf("V%X", x)
}
