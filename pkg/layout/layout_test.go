package layout

import (
	"math"
	"testing"
	"time"

	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/geometry"
)

// fakeWindow is a scripted protocol client. It records every size
// request so tests can assert on configure traffic.
type fakeWindow struct {
	id        WindowID
	title     string
	min       geometry.Size
	max       geometry.Size
	preferred geometry.Size
	requests  []geometry.Size
}

func (w *fakeWindow) ID() WindowID                   { return w.id }
func (w *fakeWindow) Title() string                  { return w.title }
func (w *fakeWindow) MinSize() geometry.Size         { return w.min }
func (w *fakeWindow) MaxSize() geometry.Size         { return w.max }
func (w *fakeWindow) PreferredSize() geometry.Size   { return w.preferred }
func (w *fakeWindow) RequestSize(size geometry.Size) { w.requests = append(w.requests, size) }

var nextFakeID WindowID

func newFakeWindow(title string) *fakeWindow {
	nextFakeID++
	return &fakeWindow{id: nextFakeID, title: title}
}

// testOptions zeroes the gap so expected geometry stays round.
func testOptions() Options {
	opts := DefaultOptions()
	opts.Gap = 0
	return opts
}

func newTestLayout(opts Options) (*Layout, animation.Clock) {
	clock := animation.ClockWithTime(0)
	l := New(clock, opts)
	l.AddOutput("eDP-1", geometry.Rect{W: 1280, H: 720}, 1)
	return l, clock
}

func addWindow(t *testing.T, l *Layout, title string, hint InsertHint) *fakeWindow {
	t.Helper()
	w := newFakeWindow(title)
	if !l.AddWindow(w, hint) {
		t.Fatalf("expected AddWindow %s to succeed", title)
	}
	return w
}

func settle(l *Layout, clock animation.Clock, at time.Duration) {
	clock.SetUnadjusted(at)
	l.AdvanceAnimations()
}

// checkInvariants verifies the structural rules every operation must
// preserve: no empty columns, only the trailing workspace empty, every
// window in exactly one place.
func checkInvariants(t *testing.T, l *Layout) {
	t.Helper()
	seen := map[WindowID]int{}
	for _, m := range l.Monitors() {
		wss := m.Workspaces()
		if len(wss) == 0 {
			t.Fatalf("expected at least one workspace on %s", m.Name())
		}
		if last := wss[len(wss)-1]; len(last.Columns()) != 0 {
			t.Fatalf("expected trailing workspace on %s to be empty", m.Name())
		}
		for i, ws := range wss {
			if i < len(wss)-1 && ws.isEmpty() {
				t.Fatalf("expected workspace %d on %s to be occupied", i, m.Name())
			}
			for ci, col := range ws.Columns() {
				if len(col.Tiles()) == 0 {
					t.Fatalf("expected column %d on workspace %d to have tiles", ci, i)
				}
				for _, tile := range col.Tiles() {
					seen[tile.ID()]++
				}
			}
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("expected window %d to appear exactly once, got %d", id, n)
		}
	}
}

func TestAddWindowsCreateColumns(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	addWindow(t, l, "a", InsertEnd)
	addWindow(t, l, "b", InsertEnd)
	addWindow(t, l, "c", InsertEnd)

	ws := l.ActiveWorkspace()
	if len(ws.Columns()) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(ws.Columns()))
	}
	if ws.ActiveColumnIdx() != 2 {
		t.Fatalf("expected active column 2, got %d", ws.ActiveColumnIdx())
	}
	for i, col := range ws.Columns() {
		if col.targetWidth != 640 {
			t.Fatalf("expected column %d width 640, got %v", i, col.targetWidth)
		}
	}
	if got := len(l.ActiveMonitor().Workspaces()); got != 2 {
		t.Fatalf("expected an occupied and a trailing workspace, got %d", got)
	}
	checkInvariants(t, l)
}

func TestInsertHints(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertAfterActive)
	c := addWindow(t, l, "c", InsertInActiveColumn)
	d := addWindow(t, l, "d", InsertAfterActive)

	cols := l.ActiveWorkspace().Columns()
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[0].Tiles()[0].ID() != a.id {
		t.Fatalf("expected a in column 0, got %d", cols[0].Tiles()[0].ID())
	}
	if len(cols[1].Tiles()) != 2 || cols[1].Tiles()[0].ID() != b.id || cols[1].Tiles()[1].ID() != c.id {
		t.Fatalf("expected column 1 to stack b over c")
	}
	if cols[2].Tiles()[0].ID() != d.id {
		t.Fatalf("expected d in column 2, got %d", cols[2].Tiles()[0].ID())
	}
	if got := l.ActiveWindow(); got == nil || got.ID() != d.id {
		t.Fatalf("expected focus on d, got %v", got)
	}
	checkInvariants(t, l)
}

func TestFocusMovesAndStopsAtEdges(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertEnd)
	c := addWindow(t, l, "c", InsertEnd)

	if !l.FocusLeft() {
		t.Fatal("expected FocusLeft to succeed")
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected focus on b, got %d", got)
	}
	if !l.FocusLeft() {
		t.Fatal("expected FocusLeft to succeed")
	}
	if got := l.ActiveWindow().ID(); got != a.id {
		t.Fatalf("expected focus on a, got %d", got)
	}
	if l.FocusLeft() {
		t.Fatal("expected FocusLeft at the left edge to fail")
	}

	if !l.FocusRight() || !l.FocusRight() {
		t.Fatal("expected FocusRight to succeed")
	}
	if got := l.ActiveWindow().ID(); got != c.id {
		t.Fatalf("expected focus back on c, got %d", got)
	}
	if l.FocusRight() {
		t.Fatal("expected FocusRight at the right edge to fail")
	}
}

func TestCloseWindowInColumnFocusesNeighborBelow(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertInActiveColumn)
	c := addWindow(t, l, "c", InsertInActiveColumn)

	// Close the top window: the one sliding up into its slot takes
	// focus.
	if !l.FocusUp() || !l.FocusUp() {
		t.Fatal("expected FocusUp to succeed")
	}
	if got := l.ActiveWindow().ID(); got != a.id {
		t.Fatalf("expected focus on a, got %d", got)
	}
	if !l.CloseActiveWindow() {
		t.Fatal("expected close to succeed")
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected focus on b after closing a, got %d", got)
	}

	// Close the bottom window: focus moves up instead.
	if !l.FocusDown() {
		t.Fatal("expected FocusDown to succeed")
	}
	if got := l.ActiveWindow().ID(); got != c.id {
		t.Fatalf("expected focus on c, got %d", got)
	}
	if !l.CloseActiveWindow() {
		t.Fatal("expected close to succeed")
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected focus on b after closing c, got %d", got)
	}
	checkInvariants(t, l)
}

func TestCloseColumnFocusesColumnToRight(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	addWindow(t, l, "b", InsertEnd)
	c := addWindow(t, l, "c", InsertEnd)

	if !l.FocusLeft() {
		t.Fatal("expected FocusLeft to succeed")
	}
	if !l.CloseActiveWindow() {
		t.Fatal("expected close to succeed")
	}
	if got := l.ActiveWindow().ID(); got != c.id {
		t.Fatalf("expected the column from the right to take focus, got %d", got)
	}

	// With nothing to the right, focus falls back to the left.
	if !l.CloseActiveWindow() {
		t.Fatal("expected close to succeed")
	}
	if got := l.ActiveWindow().ID(); got != a.id {
		t.Fatalf("expected focus on a, got %d", got)
	}
	checkInvariants(t, l)
}

func TestCloseFadesGhostThenCollapsesWorkspace(t *testing.T) {
	l, clock := newTestLayout(testOptions())
	addWindow(t, l, "a", InsertEnd)
	if !l.CloseActiveWindow() {
		t.Fatal("expected close to succeed")
	}

	// The ghost keeps the workspace alive while it fades out in place.
	m := l.ActiveMonitor()
	if got := len(m.Workspaces()); got != 2 {
		t.Fatalf("expected the ghost to keep the workspace, got %d workspaces", got)
	}
	els := m.RenderElements()
	if len(els) != 1 || !els[0].Closing || els[0].ZOrder != ZClosing {
		t.Fatalf("expected a single closing ghost, got %v", els)
	}
	if els[0].Rect != (geometry.Rect{X: 0, Y: 0, W: 640, H: 720}) {
		t.Fatalf("expected the ghost at the window's last place, got %v", els[0].Rect)
	}
	if els[0].Opacity != 1 {
		t.Fatalf("expected full opacity at close time, got %v", els[0].Opacity)
	}

	clock.SetUnadjusted(50 * time.Millisecond)
	els = m.RenderElements()
	if len(els) != 1 {
		t.Fatalf("expected the ghost mid fade, got %d elements", len(els))
	}
	if math.Abs(els[0].Opacity-0.25) > 1e-9 {
		t.Fatalf("expected opacity 0.25 mid fade, got %v", els[0].Opacity)
	}

	// Once the fade ends the ghost is reaped and the empty workspace
	// collapses.
	settle(l, clock, 200*time.Millisecond)
	if got := len(m.Workspaces()); got != 1 {
		t.Fatalf("expected the emptied workspace to collapse, got %d", got)
	}
	if els := m.RenderElements(); len(els) != 0 {
		t.Fatalf("expected no elements after the fade, got %d", len(els))
	}
	checkInvariants(t, l)
}

func TestMoveColumnRightKeepsMovedColumnPinned(t *testing.T) {
	clock := animation.ClockWithTime(0)
	l := New(clock, testOptions())
	l.AddOutput("DP-1", geometry.Rect{W: 800, H: 600}, 1)

	a := addWindow(t, l, "a", InsertEnd)
	l.SetColumnWidth(SizeChange{Kind: SetFixed, Value: 400})
	addWindow(t, l, "b", InsertEnd)
	l.SetColumnWidth(SizeChange{Kind: SetFixed, Value: 300})
	addWindow(t, l, "c", InsertEnd)
	l.SetColumnWidth(SizeChange{Kind: SetFixed, Value: 500})

	settle(l, clock, 4*time.Second)
	l.FocusLeft()
	l.FocusLeft()

	ws := l.ActiveWorkspace()
	ws.viewOffset = 0
	ws.viewOffsetAnim = nil

	if !l.MoveColumnRight() {
		t.Fatal("expected MoveColumnRight to succeed")
	}
	want := []float64{300, 400, 500}
	for i, col := range ws.Columns() {
		if math.Abs(col.targetWidth-want[i]) > 1e-9 {
			t.Fatalf("expected column %d width %v, got %v", i, want[i], col.targetWidth)
		}
	}
	if ws.ActiveColumnIdx() != 1 {
		t.Fatalf("expected active column 1, got %d", ws.ActiveColumnIdx())
	}
	if got := l.ActiveWindow().ID(); got != a.id {
		t.Fatalf("expected a to stay focused, got %d", got)
	}
	if ws.viewOffset != 300 {
		t.Fatalf("expected view target 300, got %v", ws.viewOffset)
	}
	anim := ws.viewOffsetAnim
	if anim == nil || anim.From() != 0 || anim.To() != 300 {
		t.Fatalf("expected view animation 0 to 300, got %v", anim)
	}

	// The moved column's own shift and the view shift cancel exactly,
	// so it never moves on screen while everything slides around it.
	moved := ws.Columns()[1]
	for _, ms := range []int{10, 120, 400} {
		clock.SetUnadjusted(4*time.Second + time.Duration(ms)*time.Millisecond)
		xs := ws.renderedColumnXs()
		screen := xs[1] + moved.renderedOffsetX() - ws.renderedViewOffset()
		if math.Abs(screen) > 1e-6 {
			t.Fatalf("expected the moved column pinned at 0, got %v after %dms", screen, ms)
		}
	}

	clock.SetUnadjusted(anim.EndTime())
	if got := ws.renderedViewOffset(); got != 300 {
		t.Fatalf("expected view offset 300 after the animation, got %v", got)
	}
	checkInvariants(t, l)
}

func TestConsumeExpelRoundTrip(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertEnd)

	l.FocusLeft()
	if !l.ConsumeIntoColumn() {
		t.Fatal("expected consume to succeed")
	}
	ws := l.ActiveWorkspace()
	if len(ws.Columns()) != 1 {
		t.Fatalf("expected the emptied column removed, got %d columns", len(ws.Columns()))
	}
	col := ws.Columns()[0]
	if len(col.Tiles()) != 2 || col.Tiles()[0].ID() != a.id || col.Tiles()[1].ID() != b.id {
		t.Fatal("expected b stacked below a")
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected the consumed window focused, got %d", got)
	}
	checkInvariants(t, l)

	if !l.ExpelFromColumn() {
		t.Fatal("expected expel to succeed")
	}
	if len(ws.Columns()) != 2 {
		t.Fatalf("expected 2 columns after expel, got %d", len(ws.Columns()))
	}
	if ws.ActiveColumnIdx() != 1 || l.ActiveWindow().ID() != b.id {
		t.Fatal("expected b expelled into its own focused column")
	}
	checkInvariants(t, l)

	// No column to the right of the rightmost one.
	if l.ConsumeIntoColumn() {
		t.Fatal("expected consume at the right edge to fail")
	}
}

func TestMoveWindowUpDownSwapsWithinColumn(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertInActiveColumn)

	col := l.ActiveWorkspace().Columns()[0]
	if !l.MoveWindowUp() {
		t.Fatal("expected MoveWindowUp to succeed")
	}
	if col.Tiles()[0].ID() != b.id || col.Tiles()[1].ID() != a.id {
		t.Fatal("expected b swapped above a")
	}
	if got := l.ActiveWindow().ID(); got != b.id {
		t.Fatalf("expected b to stay focused, got %d", got)
	}
	if l.MoveWindowUp() {
		t.Fatal("expected MoveWindowUp at the top to fail")
	}
	if !l.MoveWindowDown() {
		t.Fatal("expected MoveWindowDown to succeed")
	}
	if col.Tiles()[0].ID() != a.id || col.Tiles()[1].ID() != b.id {
		t.Fatal("expected the original order restored")
	}
}

func TestSetWindowHeightRedistributes(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertInActiveColumn)

	col := l.ActiveWorkspace().Columns()[0]
	tiles := col.Tiles()
	if tiles[0].layoutSize.H != 360 || tiles[1].layoutSize.H != 360 {
		t.Fatalf("expected equal heights 360, got %v and %v", tiles[0].layoutSize.H, tiles[1].layoutSize.H)
	}

	// b is active; fixing its height squeezes a.
	if !l.SetWindowHeight(SizeChange{Kind: SetFixed, Value: 500}) {
		t.Fatal("expected SetWindowHeight to succeed")
	}
	if math.Abs(tiles[1].layoutSize.H-500) > 1e-6 || math.Abs(tiles[0].layoutSize.H-220) > 1e-6 {
		t.Fatalf("expected heights 220/500, got %v/%v", tiles[0].layoutSize.H, tiles[1].layoutSize.H)
	}
	if got := b.requests[len(b.requests)-1]; got != (geometry.Size{W: 640, H: 500}) {
		t.Fatalf("expected b asked to resize to 640x500, got %v", got)
	}

	if !l.SetWindowHeight(SizeChange{Kind: AdjustFixed, Value: 20}) {
		t.Fatal("expected height adjust to succeed")
	}
	if math.Abs(tiles[1].layoutSize.H-520) > 1e-6 || math.Abs(tiles[0].layoutSize.H-200) > 1e-6 {
		t.Fatalf("expected heights 200/520, got %v/%v", tiles[0].layoutSize.H, tiles[1].layoutSize.H)
	}

	if !l.ResetWindowHeight() {
		t.Fatal("expected reset to succeed")
	}
	if tiles[0].layoutSize.H != 360 || tiles[1].layoutSize.H != 360 {
		t.Fatalf("expected heights back to 360, got %v/%v", tiles[0].layoutSize.H, tiles[1].layoutSize.H)
	}

	// A lone window in its column has nobody to trade space with.
	addWindow(t, l, "c", InsertEnd)
	if l.SetWindowHeight(SizeChange{Kind: SetFixed, Value: 500}) {
		t.Fatal("expected height change on a single window to fail")
	}
	_ = a
}

func TestWindowSizeConstraintsRespected(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	addWindow(t, l, "a", InsertEnd)
	b := newFakeWindow("b")
	b.max = geometry.Size{W: 300}
	if !l.AddWindow(b, InsertInActiveColumn) {
		t.Fatal("expected AddWindow to succeed")
	}

	// The column keeps its policy width; the constrained tile renders
	// narrower inside it.
	col := l.ActiveWorkspace().Columns()[0]
	if col.targetWidth != 640 {
		t.Fatalf("expected column width 640, got %v", col.targetWidth)
	}
	bt := col.Tiles()[1]
	if bt.layoutSize.W != 300 {
		t.Fatalf("expected clamped tile width 300, got %v", bt.layoutSize.W)
	}
	if got := b.requests[0]; got != (geometry.Size{W: 300, H: 360}) {
		t.Fatalf("expected request 300x360, got %v", got)
	}
	for _, el := range l.ActiveMonitor().RenderElements() {
		if el.WindowID == b.id && el.Rect.W != 300 {
			t.Fatalf("expected b rendered 300 wide, got %v", el.Rect.W)
		}
	}
}

func TestWindowMinHeightWinsOverShare(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := newFakeWindow("b")
	b.min = geometry.Size{H: 500}
	if !l.AddWindow(b, InsertInActiveColumn) {
		t.Fatal("expected AddWindow to succeed")
	}

	tiles := l.ActiveWorkspace().Columns()[0].Tiles()
	if math.Abs(tiles[1].layoutSize.H-500) > 1e-6 {
		t.Fatalf("expected b held at its minimum 500, got %v", tiles[1].layoutSize.H)
	}
	if math.Abs(tiles[0].layoutSize.H-220) > 1e-6 {
		t.Fatalf("expected a squeezed to 220, got %v", tiles[0].layoutSize.H)
	}
	_ = a
}

func TestUnresponsiveWindowKeepsCommittedSize(t *testing.T) {
	l, clock := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	if len(a.requests) != 1 || a.requests[0] != (geometry.Size{W: 640, H: 720}) {
		t.Fatalf("expected one initial request 640x720, got %v", a.requests)
	}
	l.SizeAcknowledged(a.id, geometry.Size{W: 640, H: 720})

	l.SetColumnWidth(SizeChange{Kind: SetProportion, Value: 0.25})
	if len(a.requests) != 2 || a.requests[1] != (geometry.Size{W: 320, H: 720}) {
		t.Fatalf("expected a resize request 320x720, got %v", a.requests)
	}
	ws := l.ActiveWorkspace()
	col := ws.Columns()[0]
	if col.targetWidth != 320 {
		t.Fatalf("expected layout to follow the request, got %v", col.targetWidth)
	}

	// No acknowledgement within the configure timeout: geometry falls
	// back to the committed size, without re-requesting anything.
	clock.SetUnadjusted(301 * time.Millisecond)
	ws.resolveTargets(true)
	if col.targetWidth != 640 {
		t.Fatalf("expected committed width 640 while unresponsive, got %v", col.targetWidth)
	}
	if len(a.requests) != 2 {
		t.Fatalf("expected no new requests while one is pending, got %d", len(a.requests))
	}

	// The late acknowledgement lands and the layout snaps forward.
	l.SizeAcknowledged(a.id, geometry.Size{W: 320, H: 720})
	if col.targetWidth != 320 {
		t.Fatalf("expected width 320 after the ack, got %v", col.targetWidth)
	}
	checkInvariants(t, l)
}

func TestSnapshotMirrorsTree(t *testing.T) {
	l, _ := newTestLayout(testOptions())
	a := addWindow(t, l, "a", InsertEnd)
	b := addWindow(t, l, "b", InsertInActiveColumn)

	snap := l.Snapshot()
	if snap.ActiveOutput != "eDP-1" || len(snap.Outputs) != 1 {
		t.Fatalf("expected one active output eDP-1, got %+v", snap)
	}
	out := snap.Outputs[0]
	if out.Geometry != (geometry.Rect{W: 1280, H: 720}) || out.Scale != 1 {
		t.Fatalf("expected output geometry mirrored, got %+v", out)
	}
	if len(out.Workspaces) != 2 || out.ActiveWorkspace != 0 {
		t.Fatalf("expected two workspaces with the first active, got %+v", out)
	}
	wsSnap := out.Workspaces[0]
	if len(wsSnap.Columns) != 1 || wsSnap.ActiveColumn != 0 {
		t.Fatalf("expected one active column, got %+v", wsSnap)
	}
	colSnap := wsSnap.Columns[0]
	if colSnap.WidthKind != "proportion" || colSnap.WidthValue != 0.5 || colSnap.Width != 640 {
		t.Fatalf("expected a half proportion column 640 wide, got %+v", colSnap)
	}
	if len(colSnap.Windows) != 2 || colSnap.ActiveWindow != 1 {
		t.Fatalf("expected two windows with the second active, got %+v", colSnap)
	}
	if colSnap.Windows[0].ID != uint64(a.id) || colSnap.Windows[0].Title != "a" {
		t.Fatalf("expected window a first, got %+v", colSnap.Windows[0])
	}
	if colSnap.Windows[1].ID != uint64(b.id) || colSnap.Windows[1].Size != (geometry.Size{W: 640, H: 360}) {
		t.Fatalf("expected window b at 640x360, got %+v", colSnap.Windows[1])
	}
}
