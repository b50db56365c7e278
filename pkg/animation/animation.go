package animation

import (
	"math"
	"time"
)

// ConfigKind selects the motion model of an animation configuration.
type ConfigKind int

const (
	ConfigEasing ConfigKind = iota
	ConfigSpring
)

// Config is the resolved configuration for one animation kind. Easing
// fields apply when Kind is ConfigEasing, spring fields when it is
// ConfigSpring.
type Config struct {
	Off  bool
	Kind ConfigKind

	DurationMs uint32
	Curve      Curve

	DampingRatio float64
	Stiffness    float64
	Epsilon      float64
}

// EaseConfig builds an easing configuration.
func EaseConfig(durationMs uint32, curve Curve) Config {
	return Config{Kind: ConfigEasing, DurationMs: durationMs, Curve: curve}
}

// SpringConfig builds a spring configuration.
func SpringConfig(dampingRatio, stiffness, epsilon float64) Config {
	return Config{
		Kind:         ConfigSpring,
		DampingRatio: dampingRatio,
		Stiffness:    stiffness,
		Epsilon:      epsilon,
	}
}

type kind int

const (
	kindEasing kind = iota
	kindSpring
	kindDeceleration
)

// Animation interpolates a single scalar from a start to a target value
// over time. The motion model is a tagged union: easing curve, damped
// spring, or exponential deceleration, interpreted by ValueAt.
type Animation struct {
	from            float64
	to              float64
	initialVelocity float64
	isOff           bool
	duration        time.Duration
	// Time until the value first reaches the target. Best effort; springs
	// can overshoot and come back.
	clampedDuration time.Duration
	startTime       time.Duration
	clock           Clock

	kind      kind
	curve     Curve
	spring    Spring
	decelRate float64
}

// New creates an animation from the given configuration.
//
// The initial velocity usually comes from a gesture handoff; it is divided
// by the clock rate so slowed-down animations stay continuous with the
// gesture that spawned them.
func New(clock Clock, from, to, initialVelocity float64, config Config) *Animation {
	initialVelocity /= math.Max(clock.Rate(), 0.001)

	rv := Ease(clock, from, to, initialVelocity, 0, EaseOutCubic)
	if config.Off {
		rv.isOff = true
		return rv
	}

	rv.ReplaceConfig(config)
	return rv
}

// ReplaceConfig swaps the animation's motion model in place, preserving
// the start time so the change causes no visual jump.
func (a *Animation) ReplaceConfig(config Config) {
	a.isOff = config.Off
	if config.Off {
		a.duration = 0
		a.clampedDuration = 0
		return
	}

	startTime := a.startTime

	switch config.Kind {
	case ConfigSpring:
		params := NewSpringParams(config.DampingRatio, config.Stiffness, config.Epsilon)
		spring := Spring{
			From:            a.from,
			To:              a.to,
			InitialVelocity: a.initialVelocity,
			Params:          params,
		}
		*a = *NewSpring(a.clock, spring)
	default:
		*a = *Ease(a.clock, a.from, a.to, a.initialVelocity,
			uint64(config.DurationMs), config.Curve)
	}

	a.startTime = startTime
}

// Restarted returns a new animation with the same motion model but new
// endpoints, starting now. Spring and deceleration restarts keep the
// velocity they were created with; the passed velocity applies to easing
// restarts only.
func (a *Animation) Restarted(from, to, initialVelocity float64) *Animation {
	if a.isOff {
		clone := *a
		return &clone
	}

	initialVelocity /= math.Max(a.clock.Rate(), 0.001)

	switch a.kind {
	case kindEasing:
		return Ease(a.clock, from, to, initialVelocity,
			uint64(a.duration.Milliseconds()), a.curve)
	case kindSpring:
		spring := Spring{
			From:            from,
			To:              to,
			InitialVelocity: a.initialVelocity,
			Params:          a.spring.Params,
		}
		return NewSpring(a.clock, spring)
	default:
		const threshold = 0.001
		return Decelerate(a.clock, from, a.initialVelocity, a.decelRate, threshold)
	}
}

// Ease creates a curve-based animation with a fixed duration.
func Ease(clock Clock, from, to, initialVelocity float64, durationMs uint64, curve Curve) *Animation {
	duration := time.Duration(durationMs) * time.Millisecond

	return &Animation{
		from:            from,
		to:              to,
		initialVelocity: initialVelocity,
		duration:        duration,
		// Easing does not overshoot, so the first time the value reaches
		// the target is the total duration.
		clampedDuration: duration,
		startTime:       clock.Now(),
		clock:           clock,
		kind:            kindEasing,
		curve:           curve,
	}
}

// NewSpring creates a spring-based animation. The duration is solved from
// the spring parameters.
func NewSpring(clock Clock, spring Spring) *Animation {
	duration := spring.Duration()
	clampedDuration, ok := spring.ClampedDuration()
	if !ok {
		clampedDuration = duration
	}

	return &Animation{
		from:            spring.From,
		to:              spring.To,
		initialVelocity: spring.InitialVelocity,
		duration:        duration,
		clampedDuration: clampedDuration,
		startTime:       clock.Now(),
		clock:           clock,
		kind:            kindSpring,
		spring:          spring,
	}
}

// Decelerate creates a fling animation: the velocity decays exponentially
// at the given rate until it falls below threshold. Used for gesture
// handoff on release.
func Decelerate(clock Clock, from, initialVelocity, decelerationRate, threshold float64) *Animation {
	var durationS float64
	if initialVelocity != 0 {
		coeff := 1000 * math.Log(decelerationRate)
		durationS = math.Log(-coeff*threshold/math.Abs(initialVelocity)) / coeff
	}
	duration := secsToDuration(durationS)

	to := from - initialVelocity/(1000*math.Log(decelerationRate))

	return &Animation{
		from:            from,
		to:              to,
		initialVelocity: initialVelocity,
		duration:        duration,
		clampedDuration: duration,
		startTime:       clock.Now(),
		clock:           clock,
		kind:            kindDeceleration,
		decelRate:       decelerationRate,
	}
}

// IsDone reports whether the animation has run its full duration.
func (a *Animation) IsDone() bool {
	if a.clock.ShouldCompleteInstantly() {
		return true
	}

	return a.clock.Now() >= a.startTime+a.duration
}

// IsClampedDone reports whether the value has reached the target for the
// first time.
func (a *Animation) IsClampedDone() bool {
	if a.clock.ShouldCompleteInstantly() {
		return true
	}

	return a.clock.Now() >= a.startTime+a.clampedDuration
}

// ValueAt returns the interpolated value at the given time.
func (a *Animation) ValueAt(at time.Duration) float64 {
	if at <= a.startTime {
		return a.from
	} else if a.startTime+a.duration <= at {
		return a.to
	}

	if a.clock.ShouldCompleteInstantly() {
		return a.to
	}

	passed := at - a.startTime

	switch a.kind {
	case kindEasing:
		x := passed.Seconds() / a.duration.Seconds()
		x = math.Min(math.Max(x, 0), 1)
		return a.curve.Y(x)*(a.to-a.from) + a.from
	case kindSpring:
		value := a.spring.ValueAt(passed)

		// Guard against numerical blowup in extreme spring configurations.
		span := (a.to - a.from) * 10
		lo := a.from - span
		hi := a.to + span
		if a.from <= a.to {
			return math.Min(math.Max(value, lo), hi)
		}
		return math.Min(math.Max(value, hi), lo)
	default:
		coeff := 1000 * math.Log(a.decelRate)
		return a.from +
			(math.Pow(a.decelRate, 1000*passed.Seconds())-1)/coeff*a.initialVelocity
	}
}

// Value returns the interpolated value at the current clock time.
func (a *Animation) Value() float64 {
	return a.ValueAt(a.clock.Now())
}

// ClampedValue returns a value that sticks to the target once it has first
// reached it, hiding spring overshoot on properties that must not exceed
// their target. Best effort.
func (a *Animation) ClampedValue() float64 {
	if a.IsClampedDone() {
		return a.to
	}

	return a.Value()
}

// To returns the target value.
func (a *Animation) To() float64 {
	return a.to
}

// From returns the start value.
func (a *Animation) From() float64 {
	return a.from
}

// StartTime returns the animation's start time.
func (a *Animation) StartTime() time.Duration {
	return a.startTime
}

// EndTime returns the time the animation completes.
func (a *Animation) EndTime() time.Duration {
	return a.startTime + a.duration
}

// Duration returns the animation's total duration.
func (a *Animation) Duration() time.Duration {
	return a.duration
}

// Offset shifts both endpoints by the given amount, used when the
// coordinate space the animation runs in moves under it.
func (a *Animation) Offset(offset float64) {
	a.from += offset
	a.to += offset

	if a.kind == kindSpring {
		a.spring.From += offset
		a.spring.To += offset
	}
}
