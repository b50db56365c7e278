package layout

import (
	"time"

	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/geometry"
)

// Layout is the whole engine: every output, workspace, column and
// window, plus the animations moving between their target states. All
// methods must be called from one goroutine; nothing here blocks.
type Layout struct {
	monitors  []*Monitor
	activeIdx int

	// stash holds workspaces that lost their output, until one returns.
	stash []*Workspace

	clock animation.Clock
	opts  *Options
	wsIDs IDCounter
}

// New builds an empty engine. Outputs and windows arrive through
// lifecycle events.
func New(clock animation.Clock, opts Options) *Layout {
	o := opts
	return &Layout{
		activeIdx: -1,
		clock:     clock,
		opts:      &o,
	}
}

// Clock returns the clock animations run on.
func (l *Layout) Clock() animation.Clock {
	return l.clock
}

// Options returns the currently applied options.
func (l *Layout) Options() Options {
	return *l.opts
}

// UpdateOptions applies a new configuration across every monitor.
// Animations already in flight keep their original parameters; anything
// started afterwards uses the new ones.
func (l *Layout) UpdateOptions(opts Options) {
	o := opts
	l.opts = &o
	for _, m := range l.monitors {
		m.updateOptions(l.opts)
	}
	for _, ws := range l.stash {
		ws.opts = l.opts
	}
}

// Monitors returns all connected outputs' monitors.
func (l *Layout) Monitors() []*Monitor {
	return l.monitors
}

// ActiveMonitor returns the focused monitor, nil without outputs.
func (l *Layout) ActiveMonitor() *Monitor {
	if l.activeIdx < 0 || l.activeIdx >= len(l.monitors) {
		return nil
	}
	return l.monitors[l.activeIdx]
}

// MonitorByName finds a monitor by connector name.
func (l *Layout) MonitorByName(name string) *Monitor {
	for _, m := range l.monitors {
		if m.name == name {
			return m
		}
	}
	return nil
}

// AddOutput connects a new output. Workspaces stranded by earlier
// disconnects move onto it. Duplicate names are rejected.
func (l *Layout) AddOutput(name string, rect geometry.Rect, scale float64) bool {
	if l.MonitorByName(name) != nil {
		return false
	}
	m := newMonitor(name, rect, scale, l.clock, l.opts, &l.wsIDs)
	for _, ws := range l.stash {
		m.adoptWorkspace(ws)
	}
	l.stash = nil
	m.cleanupWorkspaces()
	l.monitors = append(l.monitors, m)
	if l.activeIdx < 0 {
		l.activeIdx = 0
	}
	return true
}

// RemoveOutput disconnects an output. Its occupied workspaces move to
// the first remaining monitor, or wait in the stash when none remains.
func (l *Layout) RemoveOutput(name string) bool {
	idx := -1
	for i, m := range l.monitors {
		if m.name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	removed := l.monitors[idx]
	l.monitors = append(l.monitors[:idx], l.monitors[idx+1:]...)
	if l.activeIdx > idx {
		l.activeIdx--
	}
	if l.activeIdx >= len(l.monitors) {
		l.activeIdx = len(l.monitors) - 1
	}

	var orphans []*Workspace
	for _, ws := range removed.workspaces {
		if !ws.isEmpty() {
			orphans = append(orphans, ws)
		}
	}
	if len(l.monitors) == 0 {
		l.stash = append(l.stash, orphans...)
		return true
	}
	dst := l.monitors[0]
	for _, ws := range orphans {
		dst.adoptWorkspace(ws)
	}
	dst.cleanupWorkspaces()
	return true
}

// FocusOutput moves monitor focus by connector name.
func (l *Layout) FocusOutput(name string) bool {
	for i, m := range l.monitors {
		if m.name == name {
			l.activeIdx = i
			return true
		}
	}
	return false
}

// ActiveWorkspace returns the focused monitor's focused workspace, nil
// without outputs.
func (l *Layout) ActiveWorkspace() *Workspace {
	m := l.ActiveMonitor()
	if m == nil {
		return nil
	}
	return m.ActiveWorkspace()
}

// ActiveWindow returns the window holding focus, nil when none does.
func (l *Layout) ActiveWindow() Window {
	ws := l.ActiveWorkspace()
	if ws == nil {
		return nil
	}
	return ws.ActiveWindow()
}

// AddWindow manages a new window on the focused monitor's active
// workspace. Without outputs the window is rejected; the embedder holds
// mapping back until an output exists.
func (l *Layout) AddWindow(win Window, hint InsertHint) bool {
	m := l.ActiveMonitor()
	if m == nil {
		return false
	}
	m.addWindow(win, hint)
	return true
}

// RemoveWindow takes a closed window out of the model, leaving its
// fade-out ghost behind.
func (l *Layout) RemoveWindow(id WindowID) bool {
	for _, m := range l.monitors {
		if m.removeWindow(id) {
			return true
		}
	}
	return false
}

// CloseActiveWindow removes the focused window.
func (l *Layout) CloseActiveWindow() bool {
	win := l.ActiveWindow()
	if win == nil {
		return false
	}
	return l.RemoveWindow(win.ID())
}

// SizeAcknowledged records a client's committed size.
func (l *Layout) SizeAcknowledged(id WindowID, size geometry.Size) bool {
	for _, m := range l.monitors {
		if ws, ok := m.findWindow(id); ok {
			return ws.acknowledgeSize(id, size)
		}
	}
	return false
}

// FindWindow reports which monitor and workspace hold a window.
func (l *Layout) FindWindow(id WindowID) (*Monitor, *Workspace, bool) {
	for _, m := range l.monitors {
		if ws, ok := m.findWindow(id); ok {
			return m, ws, true
		}
	}
	return nil, nil, false
}

// FocusWindow moves focus to a window wherever it is: its monitor, its
// workspace, its column.
func (l *Layout) FocusWindow(id WindowID) bool {
	for i, m := range l.monitors {
		ws, ok := m.findWindow(id)
		if !ok {
			continue
		}
		l.activeIdx = i
		if idx := m.workspaceIdx(ws); idx >= 0 && idx != m.activeIdx {
			m.switchToWorkspace(idx)
		}
		return ws.activateWindow(id)
	}
	return false
}

// FocusLeft moves focus one column left. At the strip edge it is a
// no-op.
func (l *Layout) FocusLeft() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.focusLeft()
}

// FocusRight mirrors FocusLeft.
func (l *Layout) FocusRight() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.focusRight()
}

// FocusUp moves focus up within the column, then to the workspace
// above, then to the previous output.
func (l *Layout) FocusUp() bool {
	m := l.ActiveMonitor()
	if m == nil {
		return false
	}
	if m.focusUp() {
		return true
	}
	if l.activeIdx > 0 {
		l.activeIdx--
		return true
	}
	return false
}

// FocusDown mirrors FocusUp toward the workspace below and the next
// output.
func (l *Layout) FocusDown() bool {
	m := l.ActiveMonitor()
	if m == nil {
		return false
	}
	if m.focusDown() {
		return true
	}
	if l.activeIdx+1 < len(l.monitors) {
		l.activeIdx++
		return true
	}
	return false
}

// MoveColumnLeft swaps the active column with its left neighbour.
func (l *Layout) MoveColumnLeft() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.moveColumnLeft()
}

// MoveColumnRight mirrors MoveColumnLeft.
func (l *Layout) MoveColumnRight() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.moveColumnRight()
}

// MoveWindowUp swaps the active window with the one above it.
func (l *Layout) MoveWindowUp() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.moveWindowUp()
}

// MoveWindowDown mirrors MoveWindowUp.
func (l *Layout) MoveWindowDown() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.moveWindowDown()
}

// ConsumeIntoColumn stacks the next column's active window under the
// active column.
func (l *Layout) ConsumeIntoColumn() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.consumeIntoColumn()
}

// ExpelFromColumn splits the active window out into its own column.
func (l *Layout) ExpelFromColumn() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.expelFromColumn()
}

// SetColumnWidth changes the active column's width policy.
func (l *Layout) SetColumnWidth(change SizeChange) bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.setColumnWidth(change)
}

// SetWindowHeight changes the active window's share of its column.
func (l *Layout) SetWindowHeight(change SizeChange) bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.setWindowHeight(change)
}

// ResetWindowHeight returns the active window to an equal share.
func (l *Layout) ResetWindowHeight() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.resetWindowHeight()
}

// SwitchPresetColumnWidth cycles the active column through the
// configured presets.
func (l *Layout) SwitchPresetColumnWidth() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.switchPresetColumnWidth()
}

// CenterColumn centers the active column in the view.
func (l *Layout) CenterColumn() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.centerColumn()
}

// SwitchWorkspace jumps to a workspace by index on the focused monitor.
// Out-of-range indices clamp to the stack ends.
func (l *Layout) SwitchWorkspace(idx int) bool {
	m := l.ActiveMonitor()
	if m == nil {
		return false
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.workspaces) {
		idx = len(m.workspaces) - 1
	}
	m.switchToWorkspace(idx)
	return true
}

// SwitchWorkspaceUp moves one workspace up the stack.
func (l *Layout) SwitchWorkspaceUp() bool {
	m := l.ActiveMonitor()
	return m != nil && m.switchWorkspaceUp()
}

// SwitchWorkspaceDown mirrors SwitchWorkspaceUp.
func (l *Layout) SwitchWorkspaceDown() bool {
	m := l.ActiveMonitor()
	return m != nil && m.switchWorkspaceDown()
}

// MoveWindowToWorkspaceUp carries the focused window to the workspace
// above, following it with focus.
func (l *Layout) MoveWindowToWorkspaceUp() bool {
	m := l.ActiveMonitor()
	return m != nil && m.moveWindowToWorkspace(false)
}

// MoveWindowToWorkspaceDown mirrors MoveWindowToWorkspaceUp.
func (l *Layout) MoveWindowToWorkspaceDown() bool {
	m := l.ActiveMonitor()
	return m != nil && m.moveWindowToWorkspace(true)
}

// MoveWindowToOutput carries the focused window to another output's
// active workspace.
func (l *Layout) MoveWindowToOutput(name string) bool {
	src := l.ActiveMonitor()
	if src == nil {
		return false
	}
	win := src.ActiveWorkspace().ActiveWindow()
	if win == nil {
		return false
	}
	dstIdx := -1
	for i, m := range l.monitors {
		if m.name == name {
			dstIdx = i
			break
		}
	}
	if dstIdx < 0 || l.monitors[dstIdx] == src {
		return false
	}
	t, ok := src.extractWindow(win.ID())
	if !ok {
		return false
	}
	l.monitors[dstIdx].insertTile(t, InsertAfterActive)
	l.activeIdx = dstIdx
	return true
}

// SetFullscreen puts a window into or out of fullscreen.
func (l *Layout) SetFullscreen(id WindowID, on bool) bool {
	for i, m := range l.monitors {
		ws, ok := m.findWindow(id)
		if !ok {
			continue
		}
		if on {
			l.activeIdx = i
			if idx := m.workspaceIdx(ws); idx >= 0 && idx != m.activeIdx {
				m.switchToWorkspace(idx)
			}
		}
		return ws.setFullscreen(id, on)
	}
	return false
}

// ToggleFullscreen flips the focused window's fullscreen state.
func (l *Layout) ToggleFullscreen() bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.toggleFullscreen()
}

// ViewGestureBegin starts interactive scrolling on the focused
// workspace.
func (l *Layout) ViewGestureBegin() bool {
	ws := l.ActiveWorkspace()
	if ws == nil {
		return false
	}
	ws.gestureBegin()
	return true
}

// ViewGestureUpdate feeds one scroll delta. The timestamp shares the
// animation clock's time base.
func (l *Layout) ViewGestureUpdate(delta float64, timestamp time.Duration) bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.gestureUpdate(delta, timestamp)
}

// ViewGestureEnd releases the gesture into a deceleration.
func (l *Layout) ViewGestureEnd(timestamp time.Duration) bool {
	ws := l.ActiveWorkspace()
	return ws != nil && ws.gestureEnd(timestamp)
}

// AdvanceAnimations reaps finished animations everywhere. Call once per
// frame after rendering.
func (l *Layout) AdvanceAnimations() {
	for _, m := range l.monitors {
		m.advanceAnimations()
	}
}

// AreAnimationsOngoing reports whether any output needs another frame.
func (l *Layout) AreAnimationsOngoing() bool {
	for _, m := range l.monitors {
		if m.areAnimationsOngoing() {
			return true
		}
	}
	return false
}
