package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/config"
	"github.com/fuchaoran001/niri/pkg/frameclock"
	"github.com/fuchaoran001/niri/pkg/geometry"
	"github.com/fuchaoran001/niri/pkg/ipc"
	"github.com/fuchaoran001/niri/pkg/layout"
)

// simWindow stands in for a real client surface. It records the last
// size request and acknowledges it on the next frame, like a well
// behaved client committing in response to a configure.
type simWindow struct {
	id        layout.WindowID
	title     string
	minSize   geometry.Size
	maxSize   geometry.Size
	preferred geometry.Size
	pending   *geometry.Size
}

func (w *simWindow) ID() layout.WindowID          { return w.id }
func (w *simWindow) Title() string                { return w.title }
func (w *simWindow) MinSize() geometry.Size       { return w.minSize }
func (w *simWindow) MaxSize() geometry.Size       { return w.maxSize }
func (w *simWindow) PreferredSize() geometry.Size { return w.preferred }

func (w *simWindow) RequestSize(size geometry.Size) {
	s := size
	w.pending = &s
}

// Engine owns the layout tree and the simulated windows driving it.
// Commands arrive from connection goroutines while the frame loop
// advances animations, so every entry point takes the mutex.
type Engine struct {
	mu      sync.Mutex
	layout  *layout.Layout
	clock   animation.Clock
	started time.Time
	frames  map[string]*frameclock.FrameClock
	windows map[layout.WindowID]*simWindow
	nextID  layout.WindowID

	wasAnimating bool

	// OnQuit runs when a client sends the quit action.
	OnQuit func()
}

// NewEngine builds an engine from a validated configuration.
func NewEngine(cfg *config.Config) (*Engine, error) {
	opts, err := layout.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	clock := animation.NewClock()
	applyClockSettings(clock, opts)
	return &Engine{
		layout:  layout.New(clock, opts),
		clock:   clock,
		started: time.Now(),
		frames:  make(map[string]*frameclock.FrameClock),
		windows: make(map[layout.WindowID]*simWindow),
		nextID:  1,
	}, nil
}

// applyClockSettings maps the animation options onto the shared clock:
// slowdown scales the clock rate, animations off makes everything
// complete instantly.
func applyClockSettings(clock animation.Clock, opts layout.Options) {
	slowdown := opts.Slowdown
	if slowdown <= 0 {
		slowdown = 1
	}
	clock.SetRate(1 / slowdown)
	clock.SetCompleteInstantly(opts.AnimationsOff)
}

// AddOutput registers a simulated output to the right of the existing
// ones and gives it a frame clock with the given refresh interval.
func (e *Engine) AddOutput(name string, size geometry.Size, scale float64, refresh time.Duration, vrr bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	var x float64
	for _, m := range e.layout.Monitors() {
		if right := m.Output().X + m.Output().W; right > x {
			x = right
		}
	}
	if !e.layout.AddOutput(name, geometry.Rect{X: x, W: size.W, H: size.H}, scale) {
		return false
	}
	e.frames[name] = frameclock.New(refresh, vrr)
	return true
}

// toggleVRRLocked flips variable refresh rate on one output's frame
// clock, defaulting to the focused output.
func (e *Engine) toggleVRRLocked(output string) bool {
	if output == "" {
		m := e.layout.ActiveMonitor()
		if m == nil {
			return false
		}
		output = m.Name()
	}
	fc, ok := e.frames[output]
	if !ok {
		return false
	}
	fc.SetVRR(!fc.VRR())
	return true
}

// OpenWindow maps a new simulated window and returns its id.
func (e *Engine) OpenWindow(title string) layout.WindowID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openWindowLocked(title)
}

func (e *Engine) openWindowLocked(title string) layout.WindowID {
	id := e.nextID
	if title == "" {
		title = fmt.Sprintf("window %d", id)
	}
	win := &simWindow{id: id, title: title}
	if !e.layout.AddWindow(win, layout.InsertEnd) {
		return 0
	}
	e.nextID++
	e.windows[id] = win
	return id
}

// ApplyConfig swaps in a reloaded configuration.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	opts, err := layout.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	applyClockSettings(e.clock, opts)
	e.layout.UpdateOptions(opts)
	return nil
}

// Frame runs one frame: re-sample the clock, let simulated clients
// acknowledge pending size requests, advance animations. It reports
// whether anything moved, including the frame an animation finishes on.
func (e *Engine) Frame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.Clear()

	acked := false
	for id, win := range e.windows {
		if win.pending == nil {
			continue
		}
		size := *win.pending
		win.pending = nil
		if e.layout.SizeAcknowledged(id, size) {
			acked = true
		}
	}

	e.layout.AdvanceAnimations()

	animating := e.layout.AreAnimationsOngoing()
	changed := acked || animating || e.wasAnimating
	e.wasAnimating = animating
	return changed
}

// FramePresented records the presentation time on every output's frame
// clock.
func (e *Engine) FramePresented(now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, fc := range e.frames {
		fc.Presented(now)
	}
}

// NextFrameIn returns how long to wait before the next frame, following
// the earliest predicted presentation deadline across outputs.
func (e *Engine) NextFrameIn(now time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := time.Duration(-1)
	for _, fc := range e.frames {
		t := fc.NextPresentationTime(now)
		if next < 0 || t < next {
			next = t
		}
	}
	if next <= now {
		return time.Millisecond
	}
	return next - now
}

// StateFrame builds the payload pushed to subscribers.
func (e *Engine) StateFrame() *ipc.StatePayload {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := &ipc.StatePayload{
		Animating: e.layout.AreAnimationsOngoing(),
		Snapshot:  e.layout.Snapshot(),
	}
	for _, m := range e.layout.Monitors() {
		st.Frames = append(st.Frames, ipc.OutputFrame{
			Name:     m.Name(),
			Geometry: m.Output(),
			Elements: m.RenderElements(),
		})
	}
	return st
}

// HandleCommand runs one action against the layout and reports the
// outcome. Actions that do not apply in the current state come back
// with OK false rather than an error.
func (e *Engine) HandleCommand(cmd *ipc.CommandPayload) *ipc.ResultPayload {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.layout
	ok := false
	switch cmd.Action {
	case ipc.ActionFocusLeft:
		ok = l.FocusLeft()
	case ipc.ActionFocusRight:
		ok = l.FocusRight()
	case ipc.ActionFocusUp:
		ok = l.FocusUp()
	case ipc.ActionFocusDown:
		ok = l.FocusDown()
	case ipc.ActionFocusWindow:
		ok = l.FocusWindow(layout.WindowID(cmd.WindowID))
	case ipc.ActionMoveColumnLeft:
		ok = l.MoveColumnLeft()
	case ipc.ActionMoveColumnRight:
		ok = l.MoveColumnRight()
	case ipc.ActionMoveWindowUp:
		ok = l.MoveWindowUp()
	case ipc.ActionMoveWindowDown:
		ok = l.MoveWindowDown()
	case ipc.ActionConsumeIntoColumn:
		ok = l.ConsumeIntoColumn()
	case ipc.ActionExpelFromColumn:
		ok = l.ExpelFromColumn()
	case ipc.ActionSetColumnWidth:
		change, err := ipc.ParseSizeChange(cmd.Size)
		if err != nil {
			return &ipc.ResultPayload{Error: err.Error()}
		}
		ok = l.SetColumnWidth(change)
	case ipc.ActionSetWindowHeight:
		change, err := ipc.ParseSizeChange(cmd.Size)
		if err != nil {
			return &ipc.ResultPayload{Error: err.Error()}
		}
		ok = l.SetWindowHeight(change)
	case ipc.ActionResetWindowHeight:
		ok = l.ResetWindowHeight()
	case ipc.ActionSwitchPresetColumnWidth:
		ok = l.SwitchPresetColumnWidth()
	case ipc.ActionCenterColumn:
		ok = l.CenterColumn()
	case ipc.ActionFullscreenWindow:
		ok = l.ToggleFullscreen()
	case ipc.ActionCloseWindow:
		ok = e.closeActiveLocked()
	case ipc.ActionOpenWindow:
		id := e.openWindowLocked(cmd.Title)
		if id == 0 {
			return &ipc.ResultPayload{Error: "no output to place the window on"}
		}
		ok = true
	case ipc.ActionSwitchWorkspace:
		ok = l.SwitchWorkspace(cmd.Index)
	case ipc.ActionSwitchWorkspaceUp:
		ok = l.SwitchWorkspaceUp()
	case ipc.ActionSwitchWorkspaceDown:
		ok = l.SwitchWorkspaceDown()
	case ipc.ActionMoveWindowToWorkspaceUp:
		ok = l.MoveWindowToWorkspaceUp()
	case ipc.ActionMoveWindowToWorkspaceDown:
		ok = l.MoveWindowToWorkspaceDown()
	case ipc.ActionFocusOutput:
		ok = l.FocusOutput(cmd.Output)
	case ipc.ActionMoveWindowToOutput:
		ok = l.MoveWindowToOutput(cmd.Output)
	case ipc.ActionToggleVRR:
		ok = e.toggleVRRLocked(cmd.Output)
	case ipc.ActionViewGestureBegin:
		ok = l.ViewGestureBegin()
	case ipc.ActionViewGestureUpdate:
		// Gesture velocity needs real event times, not the frame-latched
		// animation clock.
		ok = l.ViewGestureUpdate(cmd.Delta, time.Since(e.started))
	case ipc.ActionViewGestureEnd:
		ok = l.ViewGestureEnd(time.Since(e.started))
	case ipc.ActionState:
		snap := l.Snapshot()
		return &ipc.ResultPayload{OK: true, State: &snap}
	case ipc.ActionQuit:
		if e.OnQuit != nil {
			go e.OnQuit()
		}
		ok = true
	default:
		return &ipc.ResultPayload{Error: fmt.Sprintf("unknown action %q", cmd.Action)}
	}
	return &ipc.ResultPayload{OK: ok}
}

// closeActiveLocked closes the focused window and forgets its simulated
// client.
func (e *Engine) closeActiveLocked() bool {
	win := e.layout.ActiveWindow()
	if win == nil {
		return false
	}
	id := win.ID()
	if !e.layout.RemoveWindow(id) {
		return false
	}
	delete(e.windows, id)
	return true
}
