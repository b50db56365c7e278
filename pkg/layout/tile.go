package layout

import (
	"time"

	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/geometry"
)

// configureTimeout bounds how long a size request may sit unacknowledged
// before the window counts as unresponsive and the solver falls back to
// its last committed size.
const configureTimeout = 300 * time.Millisecond

// Tile is one window placed in a column, together with the sizing and
// animation state the engine tracks for it.
type Tile struct {
	win Window

	// committed is the last size the client acknowledged. Zero until the
	// first acknowledgment.
	committed geometry.Size

	// pending is an emitted size request awaiting acknowledgment.
	pending      geometry.Size
	pendingSince time.Duration
	hasPending   bool

	// heightWeight is this tile's share of column height relative to its
	// siblings. 1 is an equal share; explicit heights adjust it.
	heightWeight float64

	fullscreen bool

	// Solved geometry, filled in by the owning workspace after every
	// mutation. targetSize is the size the engine wants and requests
	// from the client; layoutSize is the size layout actually uses,
	// which falls back to the committed size while the client is
	// unresponsive. targetY is in strip coordinates relative to the
	// working area top.
	targetSize geometry.Size
	layoutSize geometry.Size
	targetY    float64

	openAnim   *animation.Animation
	heightAnim *animation.Animation
	moveXAnim  *animation.Animation
	moveYAnim  *animation.Animation
}

func newTile(win Window, clock animation.Clock, openConfig animation.Config) *Tile {
	t := &Tile{win: win, heightWeight: 1}
	t.openAnim = animation.New(clock, 0, 1, 0, openConfig)
	return t
}

// Window returns the wrapped window handle.
func (t *Tile) Window() Window {
	return t.win
}

// ID returns the wrapped window's id.
func (t *Tile) ID() WindowID {
	return t.win.ID()
}

// IsFullscreen reports whether the tile bypasses column layout.
func (t *Tile) IsFullscreen() bool {
	return t.fullscreen
}

// IsUnresponsive reports whether a size request has been pending longer
// than the configure timeout.
func (t *Tile) IsUnresponsive(now time.Duration) bool {
	return t.hasPending && now-t.pendingSince > configureTimeout
}

// clamp applies the window's min/max constraints to a proposed size.
func (t *Tile) clamp(size geometry.Size) geometry.Size {
	return clampSize(size, t.win.MinSize(), t.win.MaxSize())
}

// naturalWidth is the width a fit-content column allots for this tile.
func (t *Tile) naturalWidth() float64 {
	w := t.committed.W
	if w <= 0 {
		w = t.win.PreferredSize().W
	}
	if w <= 0 {
		w = t.win.MinSize().W
	}
	return t.clamp(geometry.Size{W: w, H: 1}).W
}

// requestSizeIfNeeded emits a size-negotiation request when the target
// size differs from both the committed and the already-requested size.
// A pending request stays tracked until the client acknowledges; a
// target change re-requests and restarts the deadline.
func (t *Tile) requestSizeIfNeeded(now time.Duration) {
	want := t.targetSize
	if t.hasPending {
		if t.pending == want {
			return
		}
	} else if want == t.committed {
		return
	}
	t.pending = want
	t.pendingSince = now
	t.hasPending = true
	t.win.RequestSize(want)
}

// acknowledge records a size the client committed to.
func (t *Tile) acknowledge(size geometry.Size) {
	t.committed = size
	t.hasPending = false
}

// renderedHeight is the interpolated height for the current frame.
func (t *Tile) renderedHeight() float64 {
	if t.heightAnim != nil {
		return t.heightAnim.Value()
	}
	return t.layoutSize.H
}

// renderedOffsetX is the decaying horizontal offset left over from a
// move between columns.
func (t *Tile) renderedOffsetX() float64 {
	if t.moveXAnim != nil {
		return t.moveXAnim.Value()
	}
	return 0
}

// renderedOffsetY is the decaying vertical offset from stack shuffles.
func (t *Tile) renderedOffsetY() float64 {
	if t.moveYAnim != nil {
		return t.moveYAnim.Value()
	}
	return 0
}

// opacity is 1 for settled tiles and below 1 while the open animation
// plays.
func (t *Tile) opacity() float64 {
	if t.openAnim != nil {
		return t.openAnim.ClampedValue()
	}
	return 1
}

// animateHeightTo restarts the height animation toward a new target from
// the currently rendered height.
func (t *Tile) animateHeightTo(target float64, clock animation.Clock, cfg animation.Config) {
	current := t.renderedHeight()
	if current == target {
		t.heightAnim = nil
		return
	}
	if t.heightAnim != nil {
		if t.heightAnim.To() == target {
			return
		}
		t.heightAnim = t.heightAnim.Restarted(current, target, 0)
		return
	}
	t.heightAnim = animation.New(clock, current, target, 0, cfg)
}

// animateMoveXFrom starts a decaying offset from the tile's previous
// horizontal position, used when a tile changes column.
func (t *Tile) animateMoveXFrom(delta float64, clock animation.Clock, cfg animation.Config) {
	from := delta + t.renderedOffsetX()
	if from == 0 {
		t.moveXAnim = nil
		return
	}
	t.moveXAnim = animation.New(clock, from, 0, 0, cfg)
}

// animateMoveYFrom starts a decaying offset from the tile's previous
// vertical position, used when tiles shuffle within a column.
func (t *Tile) animateMoveYFrom(delta float64, clock animation.Clock, cfg animation.Config) {
	from := delta + t.renderedOffsetY()
	if from == 0 {
		t.moveYAnim = nil
		return
	}
	t.moveYAnim = animation.New(clock, from, 0, 0, cfg)
}

// advanceAnimations drops finished animations so their targets become
// authoritative.
func (t *Tile) advanceAnimations() {
	if t.openAnim != nil && t.openAnim.IsClampedDone() {
		t.openAnim = nil
	}
	if t.heightAnim != nil && t.heightAnim.IsDone() {
		t.heightAnim = nil
	}
	if t.moveXAnim != nil && t.moveXAnim.IsDone() {
		t.moveXAnim = nil
	}
	if t.moveYAnim != nil && t.moveYAnim.IsDone() {
		t.moveYAnim = nil
	}
}

// areAnimationsOngoing reports whether any tile animation is live.
func (t *Tile) areAnimationsOngoing() bool {
	return t.openAnim != nil || t.heightAnim != nil || t.moveXAnim != nil || t.moveYAnim != nil
}
