package asm

import (
	"fmt"
	"strings"
	"testing"
)

// smallProgram counts V1 up to ten.
const smallProgram = `
    LD V0, 10
    LD V1, 0
loop:
    ADD V1, 1
    SE V1, V0
    JP loop
halt:
    JP halt
`

// mediumProgram draws a few digits with subroutines and sprite data.
const mediumProgram = `
    JP main

draw_digit:
    LD F, V2
    DRW V0, V1, 5
    ADD V0, 6
    RET

draw_score:
    LD I, score
    LD B, V3
    LD V2, [I]
    LD V4, V2
    LD V0, 2
    LD V1, 2
    LD V2, V4
    CALL draw_digit
    RET

wait_key:
    LD V5, K
    SKNP V5
    JP wait_key
    RET

main:
    CLS
    LD V3, 157
    CALL draw_score
    LD I, box
    LD V0, 30
    LD V1, 12
    DRW V0, V1, 4
    RND V6, $0F
    LD DT, V6
timer:
    LD V7, DT
    SE V7, 0
    JP timer
    CALL wait_key
    JP main

score:
    .BYTE 0, 0, 0
box:
    .BYTE $FF, $81, $81, $FF
`

// largeProgram repeats a block of mixed instructions under unique labels.
var largeProgram = func() string {
	var sb strings.Builder
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&sb, "block_%d:\n", i)
		sb.WriteString("    LD V0, $10\n    ADD V0, V1\n    SHR V0\n    XOR V2, V0\n")
		fmt.Fprintf(&sb, "    SE V2, %d\n    JP block_%d\n", i%256, i)
	}
	sb.WriteString("end: JP end\n")
	return sb.String()
}()

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}
