package disasm

import (
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
	"github.com/retroenv/retrogolib/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		word        uint16
		instruction *chip8.Instruction
		operands    string
	}{
		{"clear screen", 0x00E0, chip8.Cls, ""},
		{"return", 0x00EE, chip8.Ret, ""},
		{"jump", 0x1234, chip8.Jp, "$234"},
		{"jump v0", 0xB300, chip8.Jp, "V0, $300"},
		{"call", 0x2300, chip8.Call, "$300"},
		{"skip equal byte", 0x3A42, chip8.Se, "VA, $42"},
		{"skip not equal regs", 0x9120, chip8.Sne, "V1, V2"},
		{"load byte", 0x6005, chip8.Ld, "V0, $05"},
		{"load index", 0xA2F0, chip8.Ld, "I, $2F0"},
		{"load delay", 0xF307, chip8.Ld, "V3, DT"},
		{"wait key", 0xF40A, chip8.Ld, "V4, K"},
		{"store bcd", 0xF533, chip8.Ld, "B, V5"},
		{"store regs", 0xF655, chip8.Ld, "[I], V6"},
		{"load regs", 0xF765, chip8.Ld, "V7, [I]"},
		{"add byte", 0x7003, chip8.Add, "V0, $03"},
		{"add regs", 0x8124, chip8.Add, "V1, V2"},
		{"add index", 0xF21E, chip8.Add, "I, V2"},
		{"xor", 0x8AB3, chip8.Xor, "VA, VB"},
		{"shift right", 0x8306, chip8.Shr, "V3"},
		{"shift left", 0x830E, chip8.Shl, "V3"},
		{"shift right with vy", 0x8316, chip8.Shr, "V3, V1"},
		{"random", 0xC1FF, chip8.Rnd, "V1, $FF"},
		{"draw", 0xD125, chip8.Drw, "V1, V2, $5"},
		{"skip pressed", 0xE59E, chip8.Skp, "V5"},
		{"skip not pressed", 0xE5A1, chip8.Sknp, "V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := Decode(tt.word)
			assert.True(t, ok)
			assert.False(t, line.Data)
			assert.Equal(t, strings.ToUpper(tt.instruction.Name), line.Mnemonic)
			assert.Equal(t, tt.operands, line.Operands)
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	line, ok := Decode(0x5121) // 5xy1 is not defined
	assert.False(t, ok)
	assert.True(t, line.Data)
	assert.Equal(t, ".WORD $5121", line.String())
}

func TestProgram(t *testing.T) {
	image := []byte{0x60, 0x05, 0x70, 0x03, 0x12, 0x04, 0xAB}
	lines := Program(image, 0x200)

	assert.Len(t, lines, 4)
	assert.Equal(t, uint16(0x200), lines[0].Address)
	assert.Equal(t, uint16(0x6005), lines[0].Word)
	assert.Equal(t, uint16(0x202), lines[1].Address)
	assert.Equal(t, strings.ToUpper(chip8.Jp.Name)+" $204", lines[2].String())
	assert.Equal(t, ".BYTE $AB", lines[3].String())
	assert.True(t, lines[3].Data)
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip(0x3000))
	assert.True(t, IsSkip(0xE09E))
	assert.False(t, IsSkip(0x1200))
	assert.False(t, IsSkip(0x5121))
}
