package cpu

// Fields is a decoded instruction word: four nibbles plus the two derived
// operand forms.
type Fields struct {
	OpClass   uint8  // bits 15-12
	RegX      uint8  // bits 11-8
	RegY      uint8  // bits 7-4
	OpVariant uint8  // bits 3-0
	Addr      uint16 // low 12 bits
	Imm       uint8  // low 8 bits
}

// Decode splits a 16-bit instruction word into its fields. It is total:
// every word decodes.
func Decode(word uint16) Fields {
	return Fields{
		OpClass:   uint8(word >> 12 & 0xF),
		RegX:      uint8(word >> 8 & 0xF),
		RegY:      uint8(word >> 4 & 0xF),
		OpVariant: uint8(word & 0xF),
		Addr:      word & 0x0FFF,
		Imm:       uint8(word & 0x00FF),
	}
}

// Word reassembles the instruction word from its nibbles.
func (f Fields) Word() uint16 {
	return EncodeInstruction(uint16(f.OpClass), uint16(f.RegX), uint16(f.RegY), uint16(f.OpVariant))
}

// EncodeInstruction packs four nibbles into an instruction word.
func EncodeInstruction(opClass, regX, regY, opVariant uint16) uint16 {
	return (opClass&0xF)<<12 | (regX&0xF)<<8 | (regY&0xF)<<4 | opVariant&0xF
}
