package layout

import (
	"testing"
	"time"

	"github.com/fuchaoran001/niri/pkg/geometry"
)

func TestWorkspaceStackGrowsBelowOccupied(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	m := l.ActiveMonitor()
	addWindow(t, l, "a", InsertEnd)
	if got := len(m.Workspaces()); got != 2 {
		t.Fatalf("expected 2 workspaces, got %d", got)
	}

	// Occupying the trailing workspace grows a fresh one below it.
	if !l.SwitchWorkspaceDown() {
		t.Fatal("expected switch down to succeed")
	}
	addWindow(t, l, "b", InsertEnd)
	if got := len(m.Workspaces()); got != 3 {
		t.Fatalf("expected a fresh trailing workspace, got %d", got)
	}
	if m.ActiveWorkspaceIdx() != 1 {
		t.Fatalf("expected to stay on workspace 1, got %d", m.ActiveWorkspaceIdx())
	}
	checkInvariants(t, l)
}

func TestWorkspaceSwitchSlidesBands(t *testing.T) {
	l, clock := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	settle(l, clock, 4*time.Second)

	if !l.SwitchWorkspaceDown() {
		t.Fatal("expected switch down to succeed")
	}
	m := l.ActiveMonitor()
	if m.ActiveWorkspaceIdx() != 1 {
		t.Fatalf("expected active workspace 1, got %d", m.ActiveWorkspaceIdx())
	}
	if m.switchAnim == nil || m.switchAnim.From() != 0 || m.switchAnim.To() != 1 {
		t.Fatalf("expected a switch animation 0 to 1, got %v", m.switchAnim)
	}

	// Mid switch the departing workspace renders shifted up off screen.
	clock.SetUnadjusted(4*time.Second + 100*time.Millisecond)
	f := m.renderedWorkspaceIdx()
	if f <= 0 || f >= 1 {
		t.Fatalf("expected the switch mid flight, got %v", f)
	}
	els := m.RenderElements()
	if len(els) != 1 || els[0].WindowID != a.id {
		t.Fatalf("expected the departing band visible, got %v", els)
	}
	if els[0].Rect.Y >= 0 {
		t.Fatalf("expected the departing band above the output, got %v", els[0].Rect.Y)
	}

	// Once settled, the old band is fully out and culled.
	end := m.switchAnim.EndTime()
	settle(l, clock, end)
	if m.switchAnim != nil {
		t.Fatal("expected the switch animation reaped")
	}
	if m.renderedWorkspaceIdx() != 1 {
		t.Fatalf("expected workspace index settled at 1, got %v", m.renderedWorkspaceIdx())
	}
	if els := m.RenderElements(); len(els) != 0 {
		t.Fatalf("expected the empty workspace to render nothing, got %d elements", len(els))
	}

	if l.SwitchWorkspaceDown() {
		t.Fatal("expected no workspace below the trailing one")
	}
	if !l.SwitchWorkspaceUp() {
		t.Fatal("expected switch up to succeed")
	}
}

func TestWorkspaceSwitchRetargetsMidFlight(t *testing.T) {
	l, clock := newTestLayout(testOptions())
	addWindow(t, l, "a", InsertEnd)
	settle(l, clock, 4*time.Second)

	if !l.SwitchWorkspaceDown() {
		t.Fatal("expected switch down to succeed")
	}
	m := l.ActiveMonitor()
	clock.SetUnadjusted(4*time.Second + 80*time.Millisecond)
	f := m.renderedWorkspaceIdx()

	// Reversing mid flight continues from the current fractional index.
	if !l.SwitchWorkspaceUp() {
		t.Fatal("expected switch up to succeed")
	}
	if m.switchAnim == nil || m.switchAnim.From() != f || m.switchAnim.To() != 0 {
		t.Fatalf("expected a retarget from %v to 0, got %v", f, m.switchAnim)
	}
}

func TestSwitchWorkspaceClampsIndex(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	addWindow(t, l, "a", InsertEnd)
	m := l.ActiveMonitor()

	if !l.SwitchWorkspace(99) {
		t.Fatal("expected an out-of-range switch to clamp")
	}
	if got := m.ActiveWorkspaceIdx(); got != 1 {
		t.Fatalf("expected the last workspace, got %d", got)
	}
	if !l.SwitchWorkspace(-5) {
		t.Fatal("expected a negative switch to clamp")
	}
	if got := m.ActiveWorkspaceIdx(); got != 0 {
		t.Fatalf("expected the first workspace, got %d", got)
	}
}

func TestMoveWindowToWorkspaceDownAndBack(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertEnd)

	if !l.MoveWindowToWorkspaceDown() {
		t.Fatal("expected move down to succeed")
	}
	m := l.ActiveMonitor()
	if m.ActiveWorkspaceIdx() != 1 {
		t.Fatalf("expected focus to follow to workspace 1, got %d", m.ActiveWorkspaceIdx())
	}
	if got := len(m.Workspaces()); got != 3 {
		t.Fatalf("expected 3 workspaces, got %d", got)
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected b to stay focused, got %d", got)
	}
	if got := m.Workspaces()[0].Columns()[0].Tiles()[0].ID(); got != a.id {
		t.Fatalf("expected a left behind, got %d", got)
	}
	checkInvariants(t, l)

	if !l.MoveWindowToWorkspaceUp() {
		t.Fatal("expected move up to succeed")
	}
	if m.ActiveWorkspaceIdx() != 0 {
		t.Fatalf("expected focus back on workspace 0, got %d", m.ActiveWorkspaceIdx())
	}
	if got := len(m.Workspaces()); got != 2 {
		t.Fatalf("expected the emptied workspace to collapse, got %d", got)
	}
	ws := l.ActiveWorkspace()
	if len(ws.Columns()) != 2 || l.ActiveWindow().ID() != b.id {
		t.Fatal("expected b re-inserted next to a")
	}
	checkInvariants(t, l)

	if !l.FocusLeft() {
		t.Fatal("expected FocusLeft to succeed")
	}
	if l.MoveWindowToWorkspaceUp() {
		t.Fatal("expected no workspace above the first")
	}
}

func TestMoveLastWindowToWorkspaceDownCollapsesSource(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)

	if !l.MoveWindowToWorkspaceDown() {
		t.Fatal("expected move down to succeed")
	}
	m := l.ActiveMonitor()
	if got := len(m.Workspaces()); got != 2 {
		t.Fatalf("expected the emptied workspace gone, got %d", got)
	}
	if m.ActiveWorkspaceIdx() != 0 {
		t.Fatalf("expected the surviving workspace active, got %d", m.ActiveWorkspaceIdx())
	}
	if got := l.ActiveWindow().ID(); got != a.id {
		t.Fatalf("expected a focused, got %v", got)
	}
	checkInvariants(t, l)
}

func TestFocusCrossesToNextMonitor(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	l.AddOutput("HDMI-1", geometry.Rect{X: 1280, W: 1920, H: 1080}, 1)
	addWindow(t, l, "a", InsertEnd)

	// Down from the bottom of the first monitor's stack lands on the
	// second monitor.
	if !l.FocusDown() {
		t.Fatal("expected focus down into the trailing workspace")
	}
	if !l.FocusDown() {
		t.Fatal("expected focus down onto the next monitor")
	}
	if got := l.ActiveMonitor().Name(); got != "HDMI-1" {
		t.Fatalf("expected HDMI-1 focused, got %s", got)
	}
	if l.FocusDown() {
		t.Fatal("expected nothing below the last monitor")
	}

	if !l.FocusUp() {
		t.Fatal("expected focus back up")
	}
	if got := l.ActiveMonitor().Name(); got != "eDP-1" {
		t.Fatalf("expected eDP-1 focused, got %s", got)
	}
	if got := l.ActiveMonitor().ActiveWorkspaceIdx(); got != 1 {
		t.Fatalf("expected eDP-1 to keep its own active workspace, got %d", got)
	}
}

func TestMoveWindowToOutput(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	l.AddOutput("HDMI-1", geometry.Rect{X: 1280, W: 1920, H: 1080}, 1)
	a := addWindow(t, l, "a", InsertEnd)

	if l.MoveWindowToOutput("DP-9") {
		t.Fatal("expected an unknown output to fail")
	}
	if l.MoveWindowToOutput("eDP-1") {
		t.Fatal("expected a move to the same output to fail")
	}
	if !l.MoveWindowToOutput("HDMI-1") {
		t.Fatal("expected the move to succeed")
	}
	if got := l.ActiveMonitor().Name(); got != "HDMI-1" {
		t.Fatalf("expected focus to follow to HDMI-1, got %s", got)
	}
	mon, _, ok := l.FindWindow(a.id)
	if !ok || mon.Name() != "HDMI-1" {
		t.Fatalf("expected a on HDMI-1, got %v", mon)
	}
	// The column re-solves against the new output's geometry.
	if got := l.ActiveWorkspace().Columns()[0].targetWidth; got != 960 {
		t.Fatalf("expected width 960 on the wider output, got %v", got)
	}
	checkInvariants(t, l)
}

func TestRemoveOutputMovesWorkspaces(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	l.AddOutput("HDMI-1", geometry.Rect{X: 1280, W: 1920, H: 1080}, 1)
	a := addWindow(t, l, "a", InsertEnd)
	l.FocusOutput("HDMI-1")
	b := addWindow(t, l, "b", InsertEnd)

	if !l.RemoveOutput("HDMI-1") {
		t.Fatal("expected RemoveOutput to succeed")
	}
	if got := len(l.Monitors()); got != 1 {
		t.Fatalf("expected one monitor left, got %d", got)
	}
	for _, w := range []*fakeWindow{a, b} {
		mon, _, ok := l.FindWindow(w.id)
		if !ok || mon.Name() != "eDP-1" {
			t.Fatalf("expected %s rehomed to eDP-1", w.title)
		}
	}
	checkInvariants(t, l)
}

func TestRemoveLastOutputStashesWorkspaces(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)

	if !l.RemoveOutput("eDP-1") {
		t.Fatal("expected RemoveOutput to succeed")
	}
	if len(l.Monitors()) != 0 || l.ActiveMonitor() != nil {
		t.Fatal("expected no monitors left")
	}
	if l.AddWindow(newFakeWindow("x"), InsertEnd) {
		t.Fatal("expected AddWindow without an output to fail")
	}

	// The stashed workspace comes back with the next output.
	if !l.AddOutput("eDP-1", geometry.Rect{W: 1280, H: 720}, 1) {
		t.Fatal("expected AddOutput to succeed")
	}
	mon, _, ok := l.FindWindow(a.id)
	if !ok || mon.Name() != "eDP-1" {
		t.Fatal("expected a restored from the stash")
	}
	checkInvariants(t, l)
}

func TestAddOutputRejectsDuplicateName(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	if l.AddOutput("eDP-1", geometry.Rect{W: 640, H: 480}, 1) {
		t.Fatal("expected a duplicate output name to fail")
	}
}

func TestFocusWindowSwitchesWorkspaceAndColumn(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	l.SwitchWorkspaceDown()
	b := addWindow(t, l, "b", InsertEnd)

	if !l.FocusWindow(a.id) {
		t.Fatal("expected FocusWindow to succeed")
	}
	if got := l.ActiveMonitor().ActiveWorkspaceIdx(); got != 0 {
		t.Fatalf("expected workspace 0 active, got %d", got)
	}
	if got := l.ActiveWindow().ID(); got != a.id {
		t.Fatalf("expected a focused, got %d", got)
	}
	if !l.FocusWindow(b.id) {
		t.Fatal("expected FocusWindow to succeed")
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected b focused, got %d", got)
	}
	if l.FocusWindow(9999) {
		t.Fatal("expected an unknown window to fail")
	}
}
