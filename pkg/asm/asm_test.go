package asm

import (
	"reflect"
	"strings"
	"testing"

	"gochip8/pkg/disasm"
)

// encodeWords converts instruction words to the big-endian image layout.
func encodeWords(words ...uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w)
	}
	return out
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := normalizeLabel("label"); got != "LABEL" {
		t.Errorf("normalizeLabel(\"label\") = %q; want \"LABEL\"", got)
	}

	lenTests := []struct {
		mnemonic string
		wantLen  uint16
		wantOk   bool
	}{
		{"CLS", 2, true},
		{"drw", 2, true},
		{"SKNP", 2, true},
		{"LD", 2, true},
		{"HLT", 0, false},
	}
	for _, tc := range lenTests {
		gotLen, gotOk := instructionLength(tc.mnemonic)
		if gotLen != tc.wantLen || gotOk != tc.wantOk {
			t.Errorf("instructionLength(%q) = %d, %v; want %d, %v", tc.mnemonic, gotLen, gotOk, tc.wantLen, tc.wantOk)
		}
	}

	regTests := []struct {
		token string
		want  uint16
		ok    bool
	}{
		{"V0", 0, true},
		{"vf", 0xF, true},
		{"VA", 0xA, true},
		{"VG", 0, false},
		{"V10", 0, false},
		{"I", 0, false},
	}
	for _, tc := range regTests {
		got, ok := parseRegister(tc.token)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseRegister(%q) = %d, %v; want %d, %v", tc.token, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"LD V0, 5",
			parsedLine{lineNo: 1, mnemonic: "LD", operands: []string{"V0", "5"}},
			false,
		},
		{
			"  ld [I], v3  ; comment",
			parsedLine{lineNo: 1, mnemonic: "LD", operands: []string{"[I]", "v3"}},
			false,
		},
		{
			"START: CLS",
			parsedLine{lineNo: 1, labels: []string{"START"}, mnemonic: "CLS", operands: nil},
			false,
		},
		{
			"LABEL1: LABEL2: RET",
			parsedLine{lineNo: 1, labels: []string{"LABEL1", "LABEL2"}, mnemonic: "RET", operands: nil},
			false,
		},
		{
			"DRW\tV1, V2, 5",
			parsedLine{lineNo: 1, mnemonic: "DRW", operands: []string{"V1", "V2", "5"}},
			false,
		},
		{
			".org 0x300",
			parsedLine{lineNo: 1, mnemonic: ".ORG", operands: []string{"0x300"}},
			false,
		},
		{
			"db $F0, $90",
			parsedLine{lineNo: 1, mnemonic: ".BYTE", operands: []string{"$F0", "$90"}},
			false,
		},
		// Invalid cases
		{
			"1LABEL: CLS",
			parsedLine{lineNo: 1},
			true,
		},
		{
			"LD V0,, 5",
			parsedLine{lineNo: 1},
			true,
		},
		{
			".BYTE",
			parsedLine{lineNo: 1},
			true,
		},
		{
			".ORG",
			parsedLine{lineNo: 1},
			true,
		},
	}

	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if !tc.wantErr {
			if got.lineNo != tc.want.lineNo {
				t.Errorf("parseLine(%q) lineNo = %d, want %d", tc.line, got.lineNo, tc.want.lineNo)
			}
			if got.mnemonic != tc.want.mnemonic {
				t.Errorf("parseLine(%q) mnemonic = %q, want %q", tc.line, got.mnemonic, tc.want.mnemonic)
			}
			if !reflect.DeepEqual(got.labels, tc.want.labels) && !(len(got.labels) == 0 && len(tc.want.labels) == 0) {
				t.Errorf("parseLine(%q) labels = %v, want %v", tc.line, got.labels, tc.want.labels)
			}
			if !reflect.DeepEqual(got.operands, tc.want.operands) && !(len(got.operands) == 0 && len(tc.want.operands) == 0) {
				t.Errorf("parseLine(%q) operands = %v, want %v", tc.line, got.operands, tc.want.operands)
			}
		}
	}
}

func TestAssembleInstructions(t *testing.T) {
	tests := []struct {
		src  string
		want uint16
	}{
		{"CLS", 0x00E0},
		{"RET", 0x00EE},
		{"JP $234", 0x1234},
		{"JP V0, $300", 0xB300},
		{"CALL 0x300", 0x2300},
		{"SE VA, $42", 0x3A42},
		{"SNE V1, 7", 0x4107},
		{"SE V1, V2", 0x5120},
		{"SNE V1, V2", 0x9120},
		{"LD V0, 5", 0x6005},
		{"LD V1, V2", 0x8120},
		{"LD I, $2F0", 0xA2F0},
		{"LD V3, DT", 0xF307},
		{"LD V4, K", 0xF40A},
		{"LD DT, V5", 0xF515},
		{"LD ST, V6", 0xF618},
		{"LD F, V7", 0xF729},
		{"LD B, V8", 0xF833},
		{"LD [I], V9", 0xF955},
		{"LD VA, [I]", 0xFA65},
		{"ADD V0, 3", 0x7003},
		{"ADD V1, V2", 0x8124},
		{"ADD I, V2", 0xF21E},
		{"OR V1, V2", 0x8121},
		{"AND V1, V2", 0x8122},
		{"XOR VA, VB", 0x8AB3},
		{"SUB V1, V2", 0x8125},
		{"SHR V3", 0x8306},
		{"SHR V3, V1", 0x8316},
		{"SUBN V1, V2", 0x8127},
		{"SHL V3", 0x830E},
		{"RND V1, #FF", 0xC1FF},
		{"DRW V1, V2, 5", 0xD125},
		{"SKP V5", 0xE59E},
		{"SKNP V5", 0xE5A1},
		{"ld v0, 0b101", 0x6005},
	}

	for _, tc := range tests {
		got, _, err := Assemble(tc.src)
		if err != nil {
			t.Errorf("Assemble(%q): unexpected error %v", tc.src, err)
			continue
		}
		if !reflect.DeepEqual(got, encodeWords(tc.want)) {
			t.Errorf("Assemble(%q) = % X, want %04X", tc.src, got, tc.want)
		}
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    []byte
		wantErr bool
	}{
		{
			"Labels resolve from 0x200",
			`
			LD V0, 5
			LOOP:
			ADD V0, 1
			JP LOOP
			`,
			encodeWords(0x6005, 0x7001, 0x1202),
			false,
		},
		{
			"Forward reference",
			`
			CALL sub
			JP $200
			sub: RET
			`,
			encodeWords(0x2204, 0x1200, 0x00EE),
			false,
		},
		{
			".ORG",
			`
			CLS
			.ORG 0x206
			RET
			`,
			append(encodeWords(0x00E0), 0, 0, 0, 0, 0x00, 0xEE),
			false,
		},
		{
			"Data directives",
			`
			LD I, sprite
			sprite: .BYTE $F0, 0x90, 144
			.WORD $1234
			`,
			[]byte{0xA2, 0x02, 0xF0, 0x90, 0x90, 0x12, 0x34},
			false,
		},
		{
			"Comments",
			`
			; Comment
			LD V0, 1 // Comment
			`,
			encodeWords(0x6001),
			false,
		},
		// Errors
		{
			"Unknown Instruction",
			`FOOBAR V0`,
			nil,
			true,
		},
		{
			"Duplicate Label",
			`
			L: CLS
			l: RET
			`,
			nil,
			true,
		},
		{
			"Invalid Register",
			`ADD V0, VG`,
			nil,
			true,
		},
		{
			"Invalid Operand Count",
			`DRW V0, V1`,
			nil,
			true,
		},
		{
			"Undefined Label",
			`JP NOWHERE`,
			nil,
			true,
		},
		{
			"Byte Out Of Range",
			`LD V0, 256`,
			nil,
			true,
		},
		{
			"Nibble Out Of Range",
			`DRW V0, V1, 16`,
			nil,
			true,
		},
		{
			"JP Needs V0",
			`JP V1, $300`,
			nil,
			true,
		},
		{
			".ORG Backward",
			`
			CLS
			.ORG 0x200
			`,
			nil,
			true,
		},
		{
			".ORG Below Program Start",
			`.ORG 0x100`,
			nil,
			true,
		},
		{
			"Program Too Large",
			`
			.ORG 0xFFE
			CLS
			CLS
			`,
			nil,
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := Assemble(tc.code)
			if (err != nil) != tc.wantErr {
				t.Errorf("Assemble() error = %v, wantErr %v", err, tc.wantErr)
				return
			}
			if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Assemble() = % X, want % X", got, tc.want)
			}
		})
	}
}

func TestErrorsCarryLineNumbers(t *testing.T) {
	_, _, err := Assemble("CLS\n\nLD V0, 999\n")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error mentioning line 3, got %v", err)
	}
}

// Every instruction the disassembler prints must assemble back to the same
// word.
func TestDisassemblyRoundTrip(t *testing.T) {
	var words []uint16
	for w := 0x1000; w <= 0xFFFF; w += 0x0111 {
		words = append(words, uint16(w))
	}
	words = append(words, 0x00E0, 0x00EE, 0x8126, 0x812E, 0xF30A, 0xF555, 0xF665, 0xE1A1)
	img := encodeWords(words...)

	var sb strings.Builder
	for _, line := range disasm.Program(img, 0x200) {
		sb.WriteString(line.String())
		sb.WriteByte('\n')
	}

	got, _, err := Assemble(sb.String())
	if err != nil {
		t.Fatalf("reassembling disassembly: %v", err)
	}
	if !reflect.DeepEqual(got, img) {
		t.Errorf("round trip mismatch:\n got % X\nwant % X", got, img)
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LD V0, 1", "LD V0, 1"},
		{"LD V0, 1 ; comment", "LD V0, 1 "},
		{"LD V0, 1 // comment", "LD V0, 1 "},
		{"// comment", ""},
		{"; comment", ""},
		{"LD V0, 1 ; first // second", "LD V0, 1 "},
	}
	for _, tc := range tests {
		if got := stripComments(tc.input); got != tc.want {
			t.Errorf("stripComments(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
