package scan

import "time"

// countdown drives the auto-commit window of one session: a fixed
// number of ticks, one timer armed at a time. It is owned by the
// engine loop goroutine, so there is no locking; stop is synchronous
// and idempotent, and a tick that has already fired when stop runs is
// discarded by the engine's session-identity check.
type countdown struct {
	timer     *time.Timer
	remaining int
}

func newCountdown(ticks int) *countdown {
	return &countdown{remaining: ticks}
}

// arm schedules the next tick.
func (c *countdown) arm(d time.Duration, fire func()) {
	c.timer = time.AfterFunc(d, fire)
}

// tick consumes one remaining tick and reports how many are left.
func (c *countdown) tick() int {
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

// stop cancels the pending timer, if any. Stopping an already-stopped
// countdown is a no-op.
func (c *countdown) stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
