package cpu

import "time"

// waitForKey implements Fx0A. A key counts only when it goes from released to
// held, so a key already down when the wait starts must be released and
// pressed again.
func (c *CPU) waitForKey(d Display, x byte) error {
	c.waitReg = x
	c.waitKey = heldKeys(d)

	if c.keyWaitMode == KeyWaitNonBlocking {
		c.waiting = true
		return nil
	}

	for {
		if c.stopped.Load() {
			return ErrStopped
		}
		if d.PollInput() {
			return ErrQuit
		}
		if c.resolveKey(d) {
			return nil
		}
		time.Sleep(c.keyPollInterval)
	}
}

// resumeKeyWait is the non-blocking path: one poll per Step, PC stays on the
// instruction after Fx0A until a key goes down.
func (c *CPU) resumeKeyWait(d Display) {
	if c.resolveKey(d) {
		c.waiting = false
	}
}

// resolveKey stores the lowest newly held key in the wait register.
func (c *CPU) resolveKey(d Display) bool {
	now := heldKeys(d)
	prev := c.waitKey
	c.waitKey = now
	for k := range now {
		if now[k] && !prev[k] {
			c.regs[c.waitReg] = byte(k)
			return true
		}
	}
	return false
}

func heldKeys(d Display) [16]bool {
	var keys [16]bool
	for k := range keys {
		keys[k] = d.IsKeyHeld(byte(k))
	}
	return keys
}
