package layout

import (
	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/geometry"
)

// Monitor owns one output's vertical workspace stack. The stack always
// ends in exactly one empty workspace: filling it grows the stack, and
// an emptied workspace anywhere else is removed right away.
type Monitor struct {
	name   string
	output geometry.Rect
	scale  float64

	workspaces []*Workspace
	activeIdx  int

	// switchAnim interpolates the workspace index as a float while a
	// switch is in progress.
	switchAnim *animation.Animation

	clock animation.Clock
	opts  *Options
	ids   *IDCounter
}

func newMonitor(name string, output geometry.Rect, scale float64, clock animation.Clock, opts *Options, ids *IDCounter) *Monitor {
	m := &Monitor{
		name:   name,
		output: output,
		scale:  scale,
		clock:  clock,
		opts:   opts,
		ids:    ids,
	}
	m.appendWorkspace()
	return m
}

// Name returns the output's connector name.
func (m *Monitor) Name() string {
	return m.name
}

// Output returns the output's rectangle in global logical coordinates.
func (m *Monitor) Output() geometry.Rect {
	return m.output
}

// Scale returns the output's scale factor.
func (m *Monitor) Scale() float64 {
	return m.scale
}

// Workspaces returns the stack, top to bottom.
func (m *Monitor) Workspaces() []*Workspace {
	return m.workspaces
}

// ActiveWorkspaceIdx returns the focused workspace's index.
func (m *Monitor) ActiveWorkspaceIdx() int {
	return m.activeIdx
}

// ActiveWorkspace returns the focused workspace. The stack is never
// empty.
func (m *Monitor) ActiveWorkspace() *Workspace {
	return m.workspaces[m.activeIdx]
}

// workArea is the output rectangle minus the configured struts.
func (m *Monitor) workArea() geometry.Rect {
	s := m.opts.Struts
	r := geometry.Rect{
		X: m.output.X + s.Left,
		Y: m.output.Y + s.Top,
		W: m.output.W - s.Left - s.Right,
		H: m.output.H - s.Top - s.Bottom,
	}
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}
	return r
}

func (m *Monitor) appendWorkspace() {
	ws := newWorkspace(WorkspaceID(m.ids.Next()), m.clock, m.opts, m.output, m.workArea(), m.scale)
	m.workspaces = append(m.workspaces, ws)
}

// cleanupWorkspaces restores the stack invariant after any mutation:
// empty workspaces above the tail go away and a used tail grows a new
// empty workspace below it.
func (m *Monitor) cleanupWorkspaces() {
	for i := 0; i < len(m.workspaces)-1; {
		if m.workspaces[i].isEmpty() {
			m.removeWorkspaceAt(i)
		} else {
			i++
		}
	}
	if !m.workspaces[len(m.workspaces)-1].isEmpty() {
		m.appendWorkspace()
	}
}

func (m *Monitor) removeWorkspaceAt(i int) {
	m.workspaces = append(m.workspaces[:i], m.workspaces[i+1:]...)
	if m.activeIdx > i {
		m.activeIdx--
		if m.switchAnim != nil {
			m.switchAnim.Offset(-1)
		}
	}
	if m.activeIdx >= len(m.workspaces) {
		m.activeIdx = len(m.workspaces) - 1
	}
}

// renderedWorkspaceIdx is the float workspace position for the current
// frame.
func (m *Monitor) renderedWorkspaceIdx() float64 {
	if m.switchAnim != nil {
		return m.switchAnim.Value()
	}
	return float64(m.activeIdx)
}

// switchToWorkspace focuses the workspace at idx, sliding the view from
// wherever the previous switch left it.
func (m *Monitor) switchToWorkspace(idx int) bool {
	if idx < 0 || idx >= len(m.workspaces) || idx == m.activeIdx {
		return false
	}
	current := m.renderedWorkspaceIdx()
	m.activeIdx = idx
	target := float64(idx)
	if current == target {
		m.switchAnim = nil
		return true
	}
	if m.switchAnim != nil {
		m.switchAnim = m.switchAnim.Restarted(current, target, 0)
	} else {
		m.switchAnim = animation.New(m.clock, current, target, 0, m.opts.Anims.WorkspaceSwitch)
	}
	return true
}

func (m *Monitor) switchWorkspaceUp() bool {
	return m.switchToWorkspace(m.activeIdx - 1)
}

func (m *Monitor) switchWorkspaceDown() bool {
	return m.switchToWorkspace(m.activeIdx + 1)
}

// focusUp moves focus within the active column, spilling to the
// workspace above at the top of the stack.
func (m *Monitor) focusUp() bool {
	if m.ActiveWorkspace().focusUp() {
		return true
	}
	return m.switchWorkspaceUp()
}

// focusDown mirrors focusUp toward the workspace below.
func (m *Monitor) focusDown() bool {
	if m.ActiveWorkspace().focusDown() {
		return true
	}
	return m.switchWorkspaceDown()
}

// addWindow places a new window on the active workspace.
func (m *Monitor) addWindow(win Window, hint InsertHint) *Tile {
	t := m.ActiveWorkspace().addWindow(win, hint)
	m.cleanupWorkspaces()
	return t
}

// removeWindow closes a window anywhere on this monitor.
func (m *Monitor) removeWindow(id WindowID) bool {
	for _, ws := range m.workspaces {
		if _, ok := ws.removeWindow(id); ok {
			m.cleanupWorkspaces()
			return true
		}
	}
	return false
}

// findWindow locates the workspace holding a window.
func (m *Monitor) findWindow(id WindowID) (*Workspace, bool) {
	for _, ws := range m.workspaces {
		if ci, _ := ws.findWindow(id); ci >= 0 {
			return ws, true
		}
	}
	return nil, false
}

func (m *Monitor) workspaceIdx(ws *Workspace) int {
	for i, w := range m.workspaces {
		if w == ws {
			return i
		}
	}
	return -1
}

// moveWindowToWorkspace carries the focused window one workspace up or
// down, following it with focus.
func (m *Monitor) moveWindowToWorkspace(down bool) bool {
	ws := m.ActiveWorkspace()
	win := ws.ActiveWindow()
	if win == nil {
		return false
	}
	tgt := m.activeIdx - 1
	if down {
		tgt = m.activeIdx + 1
	}
	if tgt < 0 || tgt >= len(m.workspaces) {
		return false
	}
	target := m.workspaces[tgt]
	t, ok := ws.extractWindow(win.ID())
	if !ok {
		return false
	}
	target.insertTile(t, InsertAfterActive)
	m.cleanupWorkspaces()
	if idx := m.workspaceIdx(target); idx >= 0 {
		m.switchToWorkspace(idx)
	}
	return true
}

// insertTile places a tile from another monitor on the active
// workspace.
func (m *Monitor) insertTile(t *Tile, hint InsertHint) {
	m.ActiveWorkspace().insertTile(t, hint)
	m.cleanupWorkspaces()
}

// extractWindow detaches a window from whichever workspace holds it,
// without a close animation.
func (m *Monitor) extractWindow(id WindowID) (*Tile, bool) {
	for _, ws := range m.workspaces {
		if t, ok := ws.extractWindow(id); ok {
			m.cleanupWorkspaces()
			return t, true
		}
	}
	return nil, false
}

// adoptWorkspace takes over a workspace that lost its output, placing
// it above the trailing empty workspace.
func (m *Monitor) adoptWorkspace(ws *Workspace) {
	ws.setGeometry(m.output, m.workArea(), m.scale)
	ws.opts = m.opts
	idx := len(m.workspaces) - 1
	m.workspaces = append(m.workspaces, nil)
	copy(m.workspaces[idx+1:], m.workspaces[idx:])
	m.workspaces[idx] = ws
	if m.activeIdx >= idx {
		m.activeIdx++
	}
}

// setGeometry applies a new output rectangle and scale to the whole
// stack.
func (m *Monitor) setGeometry(output geometry.Rect, scale float64) {
	m.output = output
	m.scale = scale
	wa := m.workArea()
	for _, ws := range m.workspaces {
		ws.setGeometry(output, wa, scale)
	}
}

// updateOptions swaps in a freshly resolved configuration.
func (m *Monitor) updateOptions(opts *Options) {
	m.opts = opts
	wa := m.workArea()
	for _, ws := range m.workspaces {
		ws.updateOptions(opts, wa)
	}
}

// advanceAnimations drops finished animations across the stack and
// reaps workspaces whose last ghost expired.
func (m *Monitor) advanceAnimations() {
	if m.switchAnim != nil && m.switchAnim.IsDone() {
		m.switchAnim = nil
	}
	for _, ws := range m.workspaces {
		ws.advanceAnimations()
	}
	m.cleanupWorkspaces()
}

// areAnimationsOngoing reports whether this monitor needs another
// frame.
func (m *Monitor) areAnimationsOngoing() bool {
	if m.switchAnim != nil {
		return true
	}
	for _, ws := range m.workspaces {
		if ws.areAnimationsOngoing() {
			return true
		}
	}
	return false
}

// RenderElements produces the monitor's rectangles for this frame.
// During a workspace switch the neighbouring workspace slides in, so up
// to two stacks contribute.
func (m *Monitor) RenderElements() []RenderElement {
	f := m.renderedWorkspaceIdx()
	var els []RenderElement
	for i, ws := range m.workspaces {
		shift := (float64(i) - f) * m.output.H
		// Cull bands that slid fully off the output.
		if !m.output.Translate(0, shift).Intersects(m.output) {
			continue
		}
		els = append(els, ws.renderElements(shift)...)
	}
	sortElements(els)
	return els
}
