package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"

	"gochip8/pkg/audio"
	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/display"
	"gochip8/pkg/machine"
	"gochip8/pkg/utils"
)

const (
	screenScale = 10
	statsAddr   = "localhost:12600"
)

var overlayColor = color.RGBA{0, 220, 90, 255}

// frameRenderer keeps the last refreshed frame as RGBA so Draw only has to
// upload it.
type frameRenderer struct {
	pixels []byte
}

func (r *frameRenderer) Render(d *display.Display) error {
	r.pixels = d.FramebufferRGBA(display.DefaultOn, display.DefaultOff)
	return nil
}

type Game struct {
	m        *machine.Machine
	renderer *frameRenderer
	logger   *log.Logger

	screen  *ebiten.Image // 64x32 canvas, scaled on draw
	overlay bool
	slot    []byte // quick-save snapshot
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		snap, err := g.m.Snapshot()
		if err != nil {
			g.logger.Error("Quick-save failed", log.Err(err))
		} else {
			g.slot = snap
			g.logger.Info("Quick-saved", log.Int("bytes", len(snap)))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && g.slot != nil {
		if err := g.m.Restore(g.slot); err != nil {
			g.logger.Error("Quick-load failed", log.Err(err))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.overlay = !g.overlay
	}

	err := g.m.Frame()
	if errors.Is(err, cpu.ErrQuit) {
		return ebiten.Termination
	}
	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screen == nil {
		g.screen = ebiten.NewImage(display.Width, display.Height)
	}
	if g.renderer.pixels != nil {
		g.screen.WritePixels(g.renderer.pixels)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(screenScale, screenScale)
	screen.DrawImage(g.screen, op)

	if g.overlay {
		for i, line := range overlayLines(g.m) {
			text.Draw(screen, line, basicfont.Face7x13, 4, 14+i*14, overlayColor)
		}
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return display.Width * screenScale, display.Height * screenScale
}

// overlayLines formats the register file for the F12 overlay.
func overlayLines(m *machine.Machine) []string {
	c := m.CPU
	regs := c.Registers()
	lines := []string{
		fmt.Sprintf("PC %03X  I %03X  SP %X  DT %02X  ST %02X", c.PC(), c.I(), c.SP(), c.DelayTimer(), c.SoundTimer()),
	}
	for row := 0; row < len(regs); row += 8 {
		line := ""
		for x := row; x < row+8; x++ {
			line += fmt.Sprintf("V%X %02X ", x, regs[x])
		}
		lines = append(lines, line[:len(line)-1])
	}
	lines = append(lines, fmt.Sprintf("frame %d", m.Frames()))
	if c.Waiting() {
		lines = append(lines, "waiting for key")
	}
	return lines
}

func startStatsView(logger *log.Logger) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsAddr))
		mgr := statsview.New()
		mgr.Start()
	}()
	logger.Info("Stats server available", log.String("url", "http://"+statsAddr+"/debug/statsview"))
}

func main() {
	cycles := flag.Int("cycles", machine.DefaultCyclesPerFrame, "instructions executed per 60 Hz frame")
	mute := flag.Bool("mute", false, "disable the buzzer")
	stats := flag.Bool("statsview", false, "serve runtime statistics on "+statsAddr)
	debug := flag.Bool("debug", false, "enable debug logging and an instruction trace")
	quiet := flag.Bool("q", false, "only log errors")
	flag.Parse()

	logger := config.CreateLogger(*debug, *quiet)
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] <rom.ch8|source.asm>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	prog, err := utils.LoadProgram(flag.Arg(0))
	if err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	renderer := &frameRenderer{}
	cfg := machine.Config{
		CyclesPerFrame: *cycles,
		Renderer:       renderer,
		Source:         keypadSource{pressed: ebiten.IsKeyPressed},
		Logger:         logger,
		Trace:          *debug,
		KeyWait:        cpu.KeyWaitNonBlocking,
	}

	if !*mute {
		player, err := audio.NewOtoPlayer(audio.NewTone(audio.DefaultFrequency, audio.DefaultSampleRate, audio.DefaultAmplitude))
		if err != nil {
			logger.Warn("Audio unavailable, running muted", log.Err(err))
		} else {
			player.Start()
			defer player.Close()
			cfg.Buzzer = player
		}
	}

	if *stats {
		startStatsView(logger)
	}

	m, err := machine.New(prog.Image, cfg)
	if err != nil {
		logger.Fatal("Creating machine failed", log.Err(err))
	}

	ebiten.SetWindowSize(display.Width*screenScale, display.Height*screenScale)
	ebiten.SetWindowTitle("gochip8 - " + prog.Name())
	ebiten.SetTPS(machine.DefaultFrameRate)

	game := &Game{m: m, renderer: renderer, logger: logger}
	if err := ebiten.RunGame(game); err != nil {
		logger.Error("Machine halted", log.Hex("pc", m.CPU.PC()), log.Err(err))
		os.Exit(1)
	}
}
