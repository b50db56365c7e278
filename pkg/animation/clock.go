// Package animation implements the motion engine driving every smooth
// transition in the compositor: easing curves, damped springs and
// deceleration for gesture flings, all advanced off a shareable clock.
//
// The clock is lazy: it samples monotonic time once and then returns the
// same instant until cleared, so every animation advanced within one frame
// sees the same "now". It can also run at an adjusted rate (slow motion)
// or report that animations should complete instantly (animations off).
package animation

import "time"

var processStart = time.Now()

// monotonicTime returns time elapsed since process start. The absolute
// origin is irrelevant; only deltas matter.
func monotonicTime() time.Duration {
	return time.Since(processStart)
}

// Clock is a shareable lazy clock that can change rate.
//
// Copies of a Clock share state, so one instance can drive every animation
// on an output while tests and the slowdown setting steer it centrally.
type Clock struct {
	inner *adjustableClock
}

type lazyClock struct {
	time    time.Duration
	hasTime bool
}

type adjustableClock struct {
	inner             lazyClock
	currentTime       time.Duration
	lastSeenTime      time.Duration
	rate              float64
	completeInstantly bool
}

// NewClock returns a clock that samples monotonic time on first use.
func NewClock() Clock {
	return Clock{inner: newAdjustableClock(lazyClock{})}
}

// ClockWithTime returns a clock frozen at the given time, advanced only by
// SetUnadjusted. Used by tests.
func ClockWithTime(t time.Duration) Clock {
	return Clock{inner: newAdjustableClock(lazyClock{time: t, hasTime: true})}
}

// Now returns the current time, adjusted for rate changes.
func (c Clock) Now() time.Duration {
	return c.inner.now()
}

// NowUnadjusted returns the underlying time without rate adjustment.
func (c Clock) NowUnadjusted() time.Duration {
	return c.inner.inner.now()
}

// SetUnadjusted sets the unadjusted clock time.
func (c Clock) SetUnadjusted(t time.Duration) {
	c.inner.inner.set(t)
}

// Clear drops the stored time so the next query re-samples monotonic time.
func (c Clock) Clear() {
	c.inner.inner.clear()
}

// Rate returns the clock rate.
func (c Clock) Rate() float64 {
	return c.inner.rate
}

// SetRate sets the clock rate, clamped to [0, 1000]. Rate changes apply to
// time deltas from this point on; the adjusted time never jumps.
func (c Clock) SetRate(rate float64) {
	c.inner.setRate(rate)
}

// ShouldCompleteInstantly reports whether animations should skip straight
// to their target value.
func (c Clock) ShouldCompleteInstantly() bool {
	return c.inner.completeInstantly
}

// SetCompleteInstantly sets whether animations complete instantly.
func (c Clock) SetCompleteInstantly(v bool) {
	c.inner.completeInstantly = v
}

// Same reports whether two clocks share the same underlying state.
func (c Clock) Same(other Clock) bool {
	return c.inner == other.inner
}

func (l *lazyClock) now() time.Duration {
	if !l.hasTime {
		l.time = monotonicTime()
		l.hasTime = true
	}
	return l.time
}

func (l *lazyClock) set(t time.Duration) {
	l.time = t
	l.hasTime = true
}

func (l *lazyClock) clear() {
	l.hasTime = false
}

func newAdjustableClock(inner lazyClock) *adjustableClock {
	t := inner.now()
	return &adjustableClock{
		inner:        inner,
		currentTime:  t,
		lastSeenTime: t,
		rate:         1,
	}
}

func (c *adjustableClock) setRate(rate float64) {
	c.rate = min(max(rate, 0), 1000)
}

func (c *adjustableClock) now() time.Duration {
	t := c.inner.now()
	if c.lastSeenTime == t {
		return c.currentTime
	}

	if c.lastSeenTime < t {
		delta := time.Duration(float64(t-c.lastSeenTime) * c.rate)
		c.currentTime += delta
	} else {
		delta := time.Duration(float64(c.lastSeenTime-t) * c.rate)
		c.currentTime -= delta
	}

	c.lastSeenTime = t
	return c.currentTime
}
