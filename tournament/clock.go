// Package tournament contains the game driver and the batch scheduler.
package tournament

import "time"

// TimeControl is the byo-yomi time control for a whole batch.
type TimeControl struct {
	MainTime      time.Duration
	ByoYomiTime   time.Duration
	ByoYomiStones int

	// Increment is credited back to the mover after every move.
	Increment time.Duration
}

// Phase is the clock phase of one player.
type Phase int

const (
	PhaseMain Phase = iota
	PhaseByoYomi
)

// Clock tracks one player's time during a game. It is only touched by
// the driver between that player's move attempts.
type Clock struct {
	tc         TimeControl
	Phase      Phase
	Remaining  time.Duration
	StonesToDo int
}

// NewClock starts a clock in main time.
func NewClock(tc TimeControl) *Clock {
	return &Clock{
		tc:        tc,
		Phase:     PhaseMain,
		Remaining: tc.MainTime,
	}
}

// Consume charges one move against the clock and reports whether the
// player lost on time. Exhausted main time flows into the first
// byo-yomi period; a byo-yomi period completed in time, or overrun only
// after its stone quota was met, starts the next period. Overrunning a
// period with stones still to play loses.
func (c *Clock) Consume(elapsed time.Duration) (lost bool) {
	c.Remaining -= elapsed
	c.Remaining += c.tc.Increment
	c.StonesToDo--

	if c.Remaining < 0 {
		if c.tc.ByoYomiTime == 0 && c.tc.ByoYomiStones == 0 {
			// No overtime configured: main time is absolute.
			return true
		}
		if c.Phase == PhaseMain || c.StonesToDo == 0 {
			c.nextPeriod()
			return false
		}
		return true
	}

	if c.Phase == PhaseByoYomi && c.StonesToDo == 0 {
		c.nextPeriod()
	}

	return false
}

func (c *Clock) nextPeriod() {
	c.Phase = PhaseByoYomi
	c.Remaining = c.tc.ByoYomiTime
	c.StonesToDo = c.tc.ByoYomiStones
}

// ReportStones is the stone count passed with time_left: the byo-yomi
// quota, or 0 while in main time.
func (c *Clock) ReportStones() int {
	if c.Phase == PhaseMain {
		return 0
	}
	return c.StonesToDo
}
