// Command console runs a CHIP-8 program inside an ANSI terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/utils"
)

func main() {
	cycles := flag.Int("cycles", machine.DefaultCyclesPerFrame, "instructions executed per 60 Hz frame")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <rom.ch8|source.asm>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// the screen owns stdout, so only errors are logged unless debugging
	logger := config.CreateLogger(*debug, !*debug)

	prog, err := utils.LoadProgram(flag.Arg(0))
	if err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	keypad := newTerminalKeypad()
	m, err := machine.New(prog.Image, machine.Config{
		CyclesPerFrame: *cycles,
		Renderer:       newANSIRenderer(os.Stdout),
		Source:         keypad,
		Logger:         logger,
		KeyWait:        cpu.KeyWaitNonBlocking,
	})
	if err != nil {
		logger.Fatal("Creating machine failed", log.Err(err))
	}

	term := newTerminal(keypad)
	if err := term.Start(); err != nil {
		logger.Fatal("Terminal setup failed", log.Err(err))
	}
	fmt.Print(clearAll + hideCursor)

	err = m.Run(app.Context())

	term.Stop()
	fmt.Print(showCursor + "\r\n")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Machine halted at 0x%03X: %v\n", m.CPU.PC(), err)
		os.Exit(1)
	}
}
