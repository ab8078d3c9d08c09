// Package asm is a two-pass assembler for CHIP-8 programs written in the
// Cowgod mnemonic syntax. Output is a big-endian image meant to be loaded at
// memory.ProgramStart.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gochip8/pkg/cpu"
	"gochip8/pkg/memory"
)

const instrSize = 2

var zeroOperandOps = map[string]uint16{
	"CLS": 0x00E0,
	"RET": 0x00EE,
}

// 8xyN register-register operations keyed to their variant nibble.
var registerPairOps = map[string]uint16{
	"OR":   0x1,
	"AND":  0x2,
	"XOR":  0x3,
	"SUB":  0x5,
	"SUBN": 0x7,
}

var shiftOps = map[string]uint16{
	"SHR": 0x6,
	"SHL": 0xE,
}

var keySkipOps = map[string]uint16{
	"SKP":  0x9E,
	"SKNP": 0xA1,
}

// compareOps maps SE/SNE to their byte form and register form classes.
var compareOps = map[string][2]uint16{
	"SE":  {0x3, 0x5},
	"SNE": {0x4, 0x9},
}

// LD Fx forms with a named destination.
var loadToSpecial = map[string]uint16{
	"DT":  0x15,
	"ST":  0x18,
	"F":   0x29,
	"B":   0x33,
	"[I]": 0x55,
}

// LD Fx forms with a named source.
var loadFromSpecial = map[string]uint16{
	"DT":  0x07,
	"K":   0x0A,
	"[I]": 0x65,
}

var otherOps = map[string]bool{
	"JP":   true,
	"CALL": true,
	"LD":   true,
	"ADD":  true,
	"RND":  true,
	"DRW":  true,
}

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble assembles code and returns the image plus a source map from
// absolute address to 1-based source line.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	address := uint32(memory.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		if p.mnemonic == ".ORG" {
			target, err := parseOrigin(p, address)
			if err != nil {
				return err
			}
			address = target
			continue
		}

		length, err := lineLength(p)
		if err != nil {
			return err
		}
		if address+length > memory.Size {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += length
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)
	address := func() uint32 { return uint32(memory.ProgramStart + len(program)) }

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p, address())
			if err != nil {
				return nil, nil, err
			}
			program = append(program, make([]byte, target-address())...)
			continue

		case ".BYTE":
			sourceMap[uint16(address())] = lineNo
			for _, op := range p.operands {
				val, err := a.parseValue(op, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue

		case ".WORD":
			sourceMap[uint16(address())] = lineNo
			for _, op := range p.operands {
				val, err := a.parseValue(op, 0xFFFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val>>8), byte(val))
			}
			continue
		}

		instr, err := a.encode(p)
		if err != nil {
			return nil, nil, err
		}
		sourceMap[uint16(address())] = lineNo
		program = append(program, byte(instr>>8), byte(instr))
	}

	return program, sourceMap, nil
}

// encode assembles one instruction line into its word.
func (a *Assembler) encode(p parsedLine) (uint16, error) {
	m, ops, lineNo := p.mnemonic, p.operands, p.lineNo

	if word, ok := zeroOperandOps[m]; ok {
		if len(ops) != 0 {
			return 0, fmt.Errorf("%s expects 0 operands on line %d", m, lineNo)
		}
		return word, nil
	}

	if variant, ok := registerPairOps[m]; ok {
		x, y, err := twoRegisters(p)
		if err != nil {
			return 0, err
		}
		return cpu.EncodeInstruction(0x8, x, y, variant), nil
	}

	if variant, ok := shiftOps[m]; ok {
		if len(ops) != 1 && len(ops) != 2 {
			return 0, fmt.Errorf("%s expects 1 or 2 operands on line %d", m, lineNo)
		}
		x, err := expectRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		var y uint16
		if len(ops) == 2 {
			if y, err = expectRegister(ops[1], lineNo); err != nil {
				return 0, err
			}
		}
		return cpu.EncodeInstruction(0x8, x, y, variant), nil
	}

	if sel, ok := keySkipOps[m]; ok {
		if len(ops) != 1 {
			return 0, fmt.Errorf("%s expects 1 operand on line %d", m, lineNo)
		}
		x, err := expectRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		return withImmediate(0xE, x, sel), nil
	}

	if classes, ok := compareOps[m]; ok {
		if len(ops) != 2 {
			return 0, fmt.Errorf("%s expects 2 operands on line %d", m, lineNo)
		}
		x, err := expectRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if y, ok := parseRegister(ops[1]); ok {
			return cpu.EncodeInstruction(classes[1], x, y, 0), nil
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return withImmediate(classes[0], x, kk), nil
	}

	switch m {
	case "JP":
		switch len(ops) {
		case 1:
			addr, err := a.parseValue(ops[0], 0xFFF, lineNo)
			return 0x1000 | addr, err
		case 2:
			if r, ok := parseRegister(ops[0]); !ok || r != 0 {
				return 0, fmt.Errorf("JP with two operands needs V0 on line %d", lineNo)
			}
			addr, err := a.parseValue(ops[1], 0xFFF, lineNo)
			return 0xB000 | addr, err
		}
		return 0, fmt.Errorf("JP expects 1 or 2 operands on line %d", lineNo)

	case "CALL":
		if len(ops) != 1 {
			return 0, fmt.Errorf("CALL expects 1 operand on line %d", lineNo)
		}
		addr, err := a.parseValue(ops[0], 0xFFF, lineNo)
		return 0x2000 | addr, err

	case "LD":
		return a.encodeLoad(p)

	case "ADD":
		if len(ops) != 2 {
			return 0, fmt.Errorf("ADD expects 2 operands on line %d", lineNo)
		}
		if strings.EqualFold(ops[0], "I") {
			x, err := expectRegister(ops[1], lineNo)
			return withImmediate(0xF, x, 0x1E), err
		}
		x, err := expectRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if y, ok := parseRegister(ops[1]); ok {
			return cpu.EncodeInstruction(0x8, x, y, 0x4), nil
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		return withImmediate(0x7, x, kk), err

	case "RND":
		if len(ops) != 2 {
			return 0, fmt.Errorf("RND expects 2 operands on line %d", lineNo)
		}
		x, err := expectRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		return withImmediate(0xC, x, kk), err

	case "DRW":
		if len(ops) != 3 {
			return 0, fmt.Errorf("DRW expects 3 operands on line %d", lineNo)
		}
		x, err := expectRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y, err := expectRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		n, err := a.parseValue(ops[2], 0xF, lineNo)
		return cpu.EncodeInstruction(0xD, x, y, n), err
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, m)
}

func (a *Assembler) encodeLoad(p parsedLine) (uint16, error) {
	ops, lineNo := p.operands, p.lineNo
	if len(ops) != 2 {
		return 0, fmt.Errorf("LD expects 2 operands on line %d", lineNo)
	}
	dst, src := strings.ToUpper(ops[0]), strings.ToUpper(ops[1])

	if sel, ok := loadToSpecial[dst]; ok {
		x, err := expectRegister(src, lineNo)
		return withImmediate(0xF, x, sel), err
	}
	if dst == "I" {
		addr, err := a.parseValue(ops[1], 0xFFF, lineNo)
		return 0xA000 | addr, err
	}

	x, err := expectRegister(dst, lineNo)
	if err != nil {
		return 0, err
	}
	if sel, ok := loadFromSpecial[src]; ok {
		return withImmediate(0xF, x, sel), nil
	}
	if y, ok := parseRegister(src); ok {
		return cpu.EncodeInstruction(0x8, x, y, 0x0), nil
	}
	kk, err := a.parseValue(ops[1], 0xFF, lineNo)
	return withImmediate(0x6, x, kk), err
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}
		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	mnemonic, rest := line, ""
	if sp := strings.IndexAny(line, " \t"); sp >= 0 {
		mnemonic, rest = line[:sp], line[sp+1:]
	}
	p.mnemonic = normalizeMnemonic(mnemonic)

	rest = strings.TrimSpace(rest)
	if rest != "" {
		for _, op := range strings.Split(rest, ",") {
			op = strings.TrimSpace(op)
			if op == "" {
				return p, fmt.Errorf("empty operand on line %d", lineNo)
			}
			p.operands = append(p.operands, op)
		}
	}

	if (p.mnemonic == ".BYTE" || p.mnemonic == ".WORD") && len(p.operands) == 0 {
		return p, fmt.Errorf("%s expects at least one operand on line %d", p.mnemonic, lineNo)
	}
	if p.mnemonic == ".ORG" && len(p.operands) != 1 {
		return p, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}

	return p, nil
}

// normalizeMnemonic upper-cases m and folds directive aliases.
func normalizeMnemonic(m string) string {
	m = strings.ToUpper(m)
	switch m {
	case "DB", "BYTE":
		return ".BYTE"
	case "DW", "WORD":
		return ".WORD"
	case "ORG":
		return ".ORG"
	}
	return m
}

func lineLength(p parsedLine) (uint32, error) {
	switch p.mnemonic {
	case ".BYTE":
		return uint32(len(p.operands)), nil
	case ".WORD":
		return uint32(len(p.operands) * 2), nil
	}
	if _, ok := instructionLength(p.mnemonic); !ok {
		return 0, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}
	return instrSize, nil
}

// parseOrigin validates a .ORG target. Origins are absolute addresses and may
// only move forward.
func parseOrigin(p parsedLine, address uint32) (uint32, error) {
	target, err := parseNumber(p.operands[0])
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", p.lineNo, p.operands[0])
	}
	if target < memory.ProgramStart || target >= memory.Size {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", p.lineNo, p.operands[0])
	}
	if uint32(target) < address {
		return 0, fmt.Errorf("cannot move origin backward on line %d", p.lineNo)
	}
	return uint32(target), nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

// parseRegister accepts V0 through VF in either case.
func parseRegister(token string) (uint16, bool) {
	if len(token) != 2 || (token[0] != 'V' && token[0] != 'v') {
		return 0, false
	}
	n, err := strconv.ParseUint(token[1:], 16, 8)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}

func expectRegister(token string, lineNo int) (uint16, error) {
	r, ok := parseRegister(token)
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	return r, nil
}

func twoRegisters(p parsedLine) (uint16, uint16, error) {
	if len(p.operands) != 2 {
		return 0, 0, fmt.Errorf("%s expects 2 operands on line %d", p.mnemonic, p.lineNo)
	}
	x, err := expectRegister(p.operands[0], p.lineNo)
	if err != nil {
		return 0, 0, err
	}
	y, err := expectRegister(p.operands[1], p.lineNo)
	return x, y, err
}

// parseNumber accepts decimal, Go-style prefixed literals and $ or # hex.
func parseNumber(token string) (uint64, error) {
	if strings.HasPrefix(token, "$") || strings.HasPrefix(token, "#") {
		return strconv.ParseUint(token[1:], 16, 32)
	}
	return strconv.ParseUint(token, 0, 32)
}

// parseValue resolves a numeric literal or label and checks it against limit.
func (a *Assembler) parseValue(token string, limit uint16, lineNo int) (uint16, error) {
	if value, err := parseNumber(token); err == nil {
		if value > uint64(limit) {
			return 0, fmt.Errorf("value out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.labels[normalizeLabel(token)]; ok {
		if addr > limit {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid value '%s' on line %d", token, lineNo)
}

func withImmediate(class, x, kk uint16) uint16 {
	return cpu.EncodeInstruction(class, x, kk>>4, kk)
}

// instructionLength returns the byte length of an instruction. Every CHIP-8
// instruction is one word.
func instructionLength(mnemonic string) (uint16, bool) {
	mnemonic = strings.ToUpper(mnemonic)

	if _, ok := zeroOperandOps[mnemonic]; ok {
		return instrSize, true
	}
	if _, ok := registerPairOps[mnemonic]; ok {
		return instrSize, true
	}
	if _, ok := shiftOps[mnemonic]; ok {
		return instrSize, true
	}
	if _, ok := keySkipOps[mnemonic]; ok {
		return instrSize, true
	}
	if _, ok := compareOps[mnemonic]; ok {
		return instrSize, true
	}
	if otherOps[mnemonic] {
		return instrSize, true
	}
	return 0, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
