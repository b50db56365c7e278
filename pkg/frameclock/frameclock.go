// Package frameclock predicts when an output will next present a frame,
// from its fixed refresh interval and the time the last frame was shown.
// Redraws scheduled against the predicted time land exactly one scanout
// ahead instead of drifting across VBlanks.
package frameclock

import "time"

// FrameClock tracks presentation timing for one output.
type FrameClock struct {
	lastPresentationTime time.Duration
	hasLast              bool
	// Zero means the output has no fixed refresh interval.
	refreshInterval time.Duration
	vrr             bool
}

// New creates a frame clock. A zero refreshInterval means the output has
// no fixed refresh cadence and frames present as soon as they are ready.
func New(refreshInterval time.Duration, vrr bool) *FrameClock {
	return &FrameClock{
		refreshInterval: refreshInterval,
		vrr:             vrr,
	}
}

// RefreshInterval returns the output's refresh interval, zero if none.
func (c *FrameClock) RefreshInterval() time.Duration {
	return c.refreshInterval
}

// VRR reports whether variable refresh rate is active.
func (c *FrameClock) VRR() bool {
	return c.vrr
}

// SetVRR switches variable refresh rate on or off. Changing the mode
// drops presentation history since the cadence is about to change.
func (c *FrameClock) SetVRR(vrr bool) {
	if c.vrr == vrr {
		return
	}

	c.vrr = vrr
	c.hasLast = false
}

// Presented records the time the last frame was actually shown. Zero
// timestamps are ignored; some drivers report them for discarded frames.
func (c *FrameClock) Presented(presentationTime time.Duration) {
	if presentationTime == 0 {
		return
	}

	c.lastPresentationTime = presentationTime
	c.hasLast = true
}

// NextPresentationTime predicts the next presentation deadline at the
// given time.
func (c *FrameClock) NextPresentationTime(now time.Duration) time.Duration {
	if c.refreshInterval == 0 || !c.hasLast {
		return now
	}

	last := c.lastPresentationTime
	interval := c.refreshInterval

	// A VBlank can complete slightly before its nominal presentation
	// time. Shift now forward so the arithmetic below sees it in the
	// frame it belongs to.
	if now <= last {
		now += interval

		if now < last {
			// 2+ frames early; resynchronize against the last
			// presentation outright.
			now = last + interval
		}
	}

	sinceLast := now - last
	toNext := (sinceLast/interval + 1) * interval

	// With VRR, waiting out a full missed interval is pointless; the
	// display can present as soon as we submit.
	if c.vrr && toNext > interval {
		return now
	}
	return last + toNext
}
