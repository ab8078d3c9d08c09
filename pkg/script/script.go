// Package script drives a machine from Lua. Scripts step the CPU, poke the
// keypad and inspect registers and pixels, which makes them handy for
// scripted regression runs of ROMs.
//
// The machine should be built with cpu.KeyWaitNonBlocking: keys can only be
// pressed between steps, so a blocking key wait would never return.
package script

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
	lua "github.com/yuin/gopher-lua"

	"gochip8/pkg/machine"
)

// ErrScript wraps failures raised by the Lua code itself.
var ErrScript = errors.New("script error")

type Runner struct {
	m      *machine.Machine
	state  *lua.LState
	logger *log.Logger

	steps int
	fatal error // machine error that aborted the script
}

// New creates a Lua state bound to m. Logger may be nil.
func New(m *machine.Machine, logger *log.Logger) *Runner {
	r := &Runner{
		m:      m,
		state:  lua.NewState(),
		logger: logger,
	}
	r.register()
	return r
}

func (r *Runner) Close() {
	r.state.Close()
}

// Steps returns the number of instructions executed through step().
func (r *Runner) Steps() int {
	return r.steps
}

// Run executes a chunk of Lua source.
func (r *Runner) Run(code string) error {
	return r.result(r.state.DoString(code))
}

// RunFile executes a Lua file.
func (r *Runner) RunFile(path string) error {
	return r.result(r.state.DoFile(path))
}

func (r *Runner) result(err error) error {
	if r.fatal != nil {
		return r.fatal
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScript, err)
	}
	return nil
}

func (r *Runner) register() {
	funcs := map[string]lua.LGFunction{
		"step":    r.luaStep,
		"frame":   r.luaFrame,
		"pc":      r.luaPC,
		"index":   r.luaIndex,
		"reg":     r.luaReg,
		"delay":   r.luaDelay,
		"sound":   r.luaSound,
		"pixel":   r.luaPixel,
		"lit":     r.luaLit,
		"press":   r.luaPress,
		"release": r.luaRelease,
		"waiting": r.luaWaiting,
		"log":     r.luaLog,
	}
	for name, fn := range funcs {
		r.state.SetGlobal(name, r.state.NewFunction(fn))
	}
}

// abort records a machine error and unwinds the Lua stack.
func (r *Runner) abort(L *lua.LState, err error) int {
	r.fatal = err
	L.RaiseError("%v", err)
	return 0
}

func (r *Runner) luaStep(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		if err := r.m.CPU.Step(r.m.Display); err != nil {
			return r.abort(L, err)
		}
		r.steps++
	}
	return 0
}

func (r *Runner) luaFrame(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		if err := r.m.Frame(); err != nil {
			return r.abort(L, err)
		}
	}
	return 0
}

func (r *Runner) luaPC(L *lua.LState) int {
	L.Push(lua.LNumber(r.m.CPU.PC()))
	return 1
}

func (r *Runner) luaIndex(L *lua.LState) int {
	L.Push(lua.LNumber(r.m.CPU.I()))
	return 1
}

func (r *Runner) luaReg(L *lua.LState) int {
	x := L.CheckInt(1)
	if x < 0 || x > 0xF {
		L.ArgError(1, "register out of range")
		return 0
	}
	L.Push(lua.LNumber(r.m.CPU.V(byte(x))))
	return 1
}

func (r *Runner) luaDelay(L *lua.LState) int {
	L.Push(lua.LNumber(r.m.CPU.DelayTimer()))
	return 1
}

func (r *Runner) luaSound(L *lua.LState) int {
	L.Push(lua.LNumber(r.m.CPU.SoundTimer()))
	return 1
}

func (r *Runner) luaPixel(L *lua.LState) int {
	x, y := L.CheckInt(1), L.CheckInt(2)
	L.Push(lua.LBool(r.m.Display.Pixel(x, y)))
	return 1
}

func (r *Runner) luaLit(L *lua.LState) int {
	L.Push(lua.LNumber(r.m.Display.Lit()))
	return 1
}

func (r *Runner) luaPress(L *lua.LState) int {
	r.m.Display.Press(checkKey(L))
	return 0
}

func (r *Runner) luaRelease(L *lua.LState) int {
	r.m.Display.Release(checkKey(L))
	return 0
}

func (r *Runner) luaWaiting(L *lua.LState) int {
	L.Push(lua.LBool(r.m.CPU.Waiting()))
	return 1
}

func (r *Runner) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	if r.logger != nil {
		r.logger.Info(msg,
			log.Hex("pc", r.m.CPU.PC()),
			log.Int("steps", r.steps))
	}
	return 0
}

func checkKey(L *lua.LState) byte {
	k := L.CheckInt(1)
	if k < 0 || k > 0xF {
		L.ArgError(1, "key out of range")
	}
	return byte(k)
}
