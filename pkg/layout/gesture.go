package layout

import "time"

// gestureHistoryWindow bounds how far back velocity estimation looks.
const gestureHistoryWindow = 150 * time.Millisecond

type swipeEvent struct {
	timestamp time.Duration
	delta     float64
}

// SwipeTracker accumulates interactive scroll deltas and estimates the
// release velocity from the trailing event history.
type SwipeTracker struct {
	current float64
	history []swipeEvent
}

func newSwipeTracker(start float64) *SwipeTracker {
	return &SwipeTracker{current: start}
}

// Update accumulates one gesture delta at the given time.
func (g *SwipeTracker) Update(delta float64, timestamp time.Duration) {
	g.current += delta
	g.history = append(g.history, swipeEvent{timestamp: timestamp, delta: delta})
	g.trim(timestamp)
}

func (g *SwipeTracker) trim(now time.Duration) {
	cutoff := now - gestureHistoryWindow
	i := 0
	for i < len(g.history) && g.history[i].timestamp < cutoff {
		i++
	}
	g.history = g.history[i:]
}

// Position is the accumulated gesture position.
func (g *SwipeTracker) Position() float64 {
	return g.current
}

// Velocity estimates the release velocity in units per second across the
// events still inside the history window.
func (g *SwipeTracker) Velocity(now time.Duration) float64 {
	g.trim(now)
	if len(g.history) < 2 {
		return 0
	}
	span := g.history[len(g.history)-1].timestamp - g.history[0].timestamp
	if span <= 0 {
		return 0
	}
	var sum float64
	for _, e := range g.history {
		sum += e.delta
	}
	return sum / span.Seconds()
}
