//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/bradleyjkemp/memviz"

	"gochip8/pkg/audio"
	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/disasm"
	"gochip8/pkg/machine"
	"gochip8/pkg/memory"
	"gochip8/pkg/script"
	"gochip8/pkg/utils"
)

const defaultSteps = 10000

func main() {
	inPath := flag.String("in", "", "input ROM (.ch8) or assembly source (.asm, .s, .src)")
	outPath := flag.String("out", "", "write the assembled image (default: input with .ch8 extension)")
	showDisasm := flag.Bool("disasm", false, "print a disassembly of the program image")
	runProgram := flag.Bool("run", false, "run the program headless")
	steps := flag.Int("steps", defaultSteps, "instruction budget for -run, rounded up to whole frames")
	cycles := flag.Int("cycles", machine.DefaultCyclesPerFrame, "instructions per 60 Hz frame")
	scriptPath := flag.String("script", "", "drive the machine with a Lua script instead of -run")
	screenshot := flag.String("screenshot", "", "write the final framebuffer as PNG")
	memvizPath := flag.String("memviz", "", "write the final CPU state as a Graphviz dot file")
	wavPath := flag.String("wav", "", "record the buzzer into a WAV file while running")
	debug := flag.Bool("debug", false, "enable debug logging and an instruction trace")
	quiet := flag.Bool("q", false, "only log errors")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in with a ROM or assembly source")
		flag.Usage()
		os.Exit(2)
	}
	if *runProgram && *scriptPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -script, not both")
		os.Exit(2)
	}

	prog, err := utils.LoadProgram(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading %q failed: %v\n", *inPath, err)
		os.Exit(1)
	}

	if utils.IsSource(prog.Path) || *outPath != "" {
		output := *outPath
		if output == "" {
			output = utils.DefaultOutputPath(prog.Path)
		}
		if err := os.WriteFile(output, prog.Image, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write image %q: %v\n", output, err)
			os.Exit(1)
		}
		fmt.Printf("assembled %d bytes -> %s\n", len(prog.Image), output)
	}

	if *showDisasm {
		printDisassembly(prog)
	}

	if !*runProgram && *scriptPath == "" {
		return
	}

	logger := config.CreateLogger(*debug, *quiet)
	cfg := machine.Config{
		CyclesPerFrame: *cycles,
		Logger:         logger,
		Trace:          *debug,
		KeyWait:        cpu.KeyWaitNonBlocking,
	}

	var rec *audio.WavRecorder
	if *wavPath != "" {
		f, err := os.Create(*wavPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create %q: %v\n", *wavPath, err)
			os.Exit(1)
		}
		defer f.Close()
		tone := audio.NewTone(audio.DefaultFrequency, audio.DefaultSampleRate, audio.DefaultAmplitude)
		rec, err = audio.NewWavRecorder(f, tone, machine.DefaultFrameRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wav recorder: %v\n", err)
			os.Exit(1)
		}
		cfg.Buzzer = rec
	}

	m, err := machine.New(prog.Image, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating machine failed: %v\n", err)
		os.Exit(1)
	}

	if *scriptPath != "" {
		err = runScript(m, *scriptPath)
	} else {
		err = runFrames(m, *steps, *cycles, rec)
	}
	if rec != nil {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", prog.Name(), err)
		os.Exit(1)
	}

	printState(prog.Name(), m)

	if *screenshot != "" {
		if err := m.Display.SaveScreenshot(*screenshot); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write screenshot %q: %v\n", *screenshot, err)
			os.Exit(1)
		}
	}
	if *memvizPath != "" {
		if err := writeMemviz(*memvizPath, m.CPU.State()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write state graph %q: %v\n", *memvizPath, err)
			os.Exit(1)
		}
	}
}

// runFrames executes at least steps instructions in whole frames. The
// program asking to quit ends the run early without error.
func runFrames(m *machine.Machine, steps, cycles int, rec *audio.WavRecorder) error {
	if cycles <= 0 {
		cycles = machine.DefaultCyclesPerFrame
	}
	frames := (steps + cycles - 1) / cycles
	for i := 0; i < frames; i++ {
		err := m.Frame()
		if errors.Is(err, cpu.ErrQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec != nil {
			if err := rec.Advance(); err != nil {
				return err
			}
		}
	}
	return nil
}

func runScript(m *machine.Machine, path string) error {
	r := script.New(m, nil)
	defer r.Close()
	if err := r.RunFile(path); err != nil {
		return err
	}
	fmt.Printf("script executed %d instructions\n", r.Steps())
	return nil
}

func printDisassembly(prog utils.Program) {
	lines := disasm.Program(prog.Image, memory.ProgramStart)
	for _, line := range lines {
		fmt.Printf("%03X  %04X  %s\n", line.Address, line.Word, line.String())
	}
}

func printState(name string, m *machine.Machine) {
	c := m.CPU
	fmt.Printf("run complete (%s): frames=%d PC=0x%03X I=0x%03X SP=%d DT=%d ST=%d lit=%d\n",
		name, m.Frames(), c.PC(), c.I(), c.SP(), c.DelayTimer(), c.SoundTimer(), m.Display.Lit())
	regs := c.Registers()
	for x, v := range regs {
		fmt.Printf("V%X=0x%02X", x, v)
		if x%8 == 7 {
			fmt.Println()
		} else {
			fmt.Print(" ")
		}
	}
}

func writeMemviz(path string, state cpu.State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	memviz.Map(f, &state)
	return f.Close()
}
