package animation

import (
	"math"
	"time"
)

const (
	// Machine epsilons used as comparison thresholds. The float32 epsilon
	// guards the critical-damping case, where the exact-equality window of
	// the float64 epsilon is too narrow to be hit in practice.
	epsF64 = 2.220446049250313e-16
	epsF32 = 1.1920929e-07
)

// durationForever stands in for an unbounded duration on degenerate
// (undamped) springs.
const durationForever = time.Duration(math.MaxInt64)

// SpringParams are the physical parameters of a damped spring with unit
// mass.
type SpringParams struct {
	Damping   float64
	Mass      float64
	Stiffness float64
	Epsilon   float64
}

// Spring is one spring motion from a start position to a rest position.
type Spring struct {
	From            float64
	To              float64
	InitialVelocity float64
	Params          SpringParams
}

// NewSpringParams derives spring parameters from a damping ratio (1 is
// critically damped, below oscillates, above crawls), a stiffness and the
// rest threshold epsilon.
func NewSpringParams(dampingRatio, stiffness, epsilon float64) SpringParams {
	dampingRatio = math.Max(dampingRatio, 0)
	stiffness = math.Max(stiffness, 0)
	epsilon = math.Max(epsilon, 0)

	mass := 1.
	criticalDamping := 2 * math.Sqrt(mass*stiffness)
	return SpringParams{
		Damping:   dampingRatio * criticalDamping,
		Mass:      mass,
		Stiffness: stiffness,
		Epsilon:   epsilon,
	}
}

// ValueAt returns the spring position at time t after the start.
func (s Spring) ValueAt(t time.Duration) float64 {
	return s.oscillate(t.Seconds())
}

// Duration computes how long the spring takes to come to rest.
//
// Based on the spring solving in libadwaita and RBBAnimation.
func (s Spring) Duration() time.Duration {
	const delta = 0.001

	beta := s.Params.Damping / (2 * s.Params.Mass)

	if math.Abs(beta) <= epsF64 || beta < 0 {
		return durationForever
	}

	if math.Abs(s.To-s.From) <= epsF64 {
		return 0
	}

	omega0 := math.Sqrt(s.Params.Stiffness / s.Params.Mass)

	// Initial estimate: time for the amplitude envelope e^(-beta*t) to
	// decay below epsilon.
	x0 := -math.Log(s.Params.Epsilon) / beta

	if math.Abs(beta-omega0) <= epsF32 || beta < omega0 {
		return secsToDuration(x0)
	}

	// Overdamped springs move slower than their envelope. Refine the
	// estimate with Newton's method against the oscillation itself.
	y0 := s.oscillate(x0)
	m := (s.oscillate(x0+delta) - y0) / delta

	x1 := (s.To - y0 + m*x0) / m
	y1 := s.oscillate(x1)

	for i := 0; math.Abs(s.To-y1) > s.Params.Epsilon; i++ {
		if i > 1000 {
			return 0
		}

		x0 = x1
		y0 = y1

		m := (s.oscillate(x0+delta) - y0) / delta

		x1 = (s.To - y0 + m*x0) / m
		y1 = s.oscillate(x1)

		if math.IsInf(y1, 0) || math.IsNaN(y1) {
			return secsToDuration(x0)
		}
	}

	return secsToDuration(x1)
}

// ClampedDuration computes the time until the spring first reaches its rest
// position, stepping in 1 ms increments. Returns false if it does not get
// there within 3 s.
func (s Spring) ClampedDuration() (time.Duration, bool) {
	beta := s.Params.Damping / (2 * s.Params.Mass)

	if math.Abs(beta) <= epsF64 || beta < 0 {
		return durationForever, true
	}

	if math.Abs(s.To-s.From) <= epsF64 {
		return 0, true
	}

	i := 1
	y := s.oscillate(float64(i) / 1000)
	for (s.To > s.From && y < s.To-s.Params.Epsilon) ||
		(s.To < s.From && y > s.To+s.Params.Epsilon) {
		if i > 3000 {
			return 0, false
		}

		i++
		y = s.oscillate(float64(i) / 1000)
	}

	return time.Duration(i) * time.Millisecond, true
}

// oscillate returns the spring position at t seconds, solving the damped
// harmonic motion equation for the critical, under and overdamped cases.
func (s Spring) oscillate(t float64) float64 {
	b := s.Params.Damping
	m := s.Params.Mass
	k := s.Params.Stiffness
	v0 := s.InitialVelocity

	beta := b / (2 * m)
	omega0 := math.Sqrt(k / m)

	x0 := s.From - s.To

	envelope := math.Exp(-beta * t)

	switch {
	case math.Abs(beta-omega0) <= epsF32:
		// Critically damped.
		return s.To + envelope*(x0+(beta*x0+v0)*t)
	case beta < omega0:
		// Underdamped.
		omega1 := math.Sqrt(omega0*omega0 - beta*beta)
		return s.To + envelope*
			(x0*math.Cos(omega1*t)+((beta*x0+v0)/omega1)*math.Sin(omega1*t))
	default:
		// Overdamped.
		omega2 := math.Sqrt(beta*beta - omega0*omega0)
		return s.To + envelope*
			(x0*math.Cosh(omega2*t)+((beta*x0+v0)/omega2)*math.Sinh(omega2*t))
	}
}

func secsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
