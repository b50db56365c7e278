package layout

import (
	"math"
	"time"

	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/geometry"
)

// Deceleration parameters for released view gestures.
const (
	viewDecelerationRate      = 0.998
	viewDecelerationThreshold = 1.0
)

// WorkspaceID identifies a workspace for its lifetime.
type WorkspaceID uint64

// InsertHint says where a new window lands on the strip.
type InsertHint int

const (
	// InsertEnd appends a new column at the right end of the strip.
	InsertEnd InsertHint = iota
	// InsertAfterActive opens a new column right of the active one.
	InsertAfterActive
	// InsertInActiveColumn stacks the window below the active window.
	InsertInActiveColumn
)

// closingTile is the ghost a closed window leaves behind while its close
// animation plays. The rect is in strip coordinates so the ghost scrolls
// with the view.
type closingTile struct {
	windowID WindowID
	rect     geometry.Rect
	anim     *animation.Animation
}

// Workspace is one infinite horizontal strip of columns plus the view
// scrolling over it.
type Workspace struct {
	id WorkspaceID

	columns   []*Column
	activeIdx int

	// viewOffset is the strip x under the working area's left edge once
	// all motion settles. The animation and gesture, when live, override
	// the rendered value.
	viewOffset     float64
	viewOffsetAnim *animation.Animation
	gesture        *SwipeTracker

	// savedViewOffset restores the view when fullscreen ends.
	savedViewOffset    float64
	hasSavedViewOffset bool

	closing []*closingTile

	output   geometry.Rect
	workArea geometry.Rect
	scale    float64

	clock animation.Clock
	opts  *Options
}

func newWorkspace(id WorkspaceID, clock animation.Clock, opts *Options, output, workArea geometry.Rect, scale float64) *Workspace {
	return &Workspace{
		id:       id,
		output:   output,
		workArea: workArea,
		scale:    scale,
		clock:    clock,
		opts:     opts,
	}
}

// ID returns the workspace's stable id.
func (ws *Workspace) ID() WorkspaceID {
	return ws.id
}

// Columns returns the strip's columns in left-to-right order.
func (ws *Workspace) Columns() []*Column {
	return ws.columns
}

// ActiveColumnIdx returns the focused column's index. Meaningless when
// the workspace is empty.
func (ws *Workspace) ActiveColumnIdx() int {
	return ws.activeIdx
}

// ActiveColumn returns the focused column, nil on an empty workspace.
func (ws *Workspace) ActiveColumn() *Column {
	if len(ws.columns) == 0 {
		return nil
	}
	return ws.columns[ws.activeIdx]
}

// ActiveWindow returns the focused window, nil on an empty workspace.
func (ws *Workspace) ActiveWindow() Window {
	col := ws.ActiveColumn()
	if col == nil {
		return nil
	}
	t := col.ActiveTile()
	if t == nil {
		return nil
	}
	return t.win
}

// ViewOffset returns the settled scroll position target.
func (ws *Workspace) ViewOffset() float64 {
	return ws.viewOffset
}

// WorkArea returns the working area tiles lay out in.
func (ws *Workspace) WorkArea() geometry.Rect {
	return ws.workArea
}

func (ws *Workspace) hasWindows() bool {
	return len(ws.columns) > 0
}

// isEmpty counts live ghosts as occupancy so close animations on a
// workspace's last window still get to play out.
func (ws *Workspace) isEmpty() bool {
	return len(ws.columns) == 0 && len(ws.closing) == 0
}

func (ws *Workspace) findWindow(id WindowID) (int, int) {
	for ci, col := range ws.columns {
		if ti := col.tileIdx(id); ti >= 0 {
			return ci, ti
		}
	}
	return -1, -1
}

// setGeometry moves the workspace to new output dimensions. Geometry
// changes apply instantly; only user-visible operations animate.
func (ws *Workspace) setGeometry(output, workArea geometry.Rect, scale float64) {
	ws.output = output
	ws.workArea = workArea
	ws.scale = scale
	ws.resolveTargets(false)
	ws.gesture = nil
	ws.viewOffsetAnim = nil
	if len(ws.columns) > 0 {
		ws.viewOffset = ws.viewOffsetTargetFor(ws.activeIdx, -1, ws.viewOffset)
	}
}

// updateOptions swaps in a freshly resolved configuration and the work
// area it implies. Animations already in flight keep the parameters
// they started with.
func (ws *Workspace) updateOptions(opts *Options, workArea geometry.Rect) {
	ws.opts = opts
	ws.workArea = workArea
	ws.resolveTargets(true)
	if len(ws.columns) > 0 {
		ws.animateViewOffsetTo(ws.viewOffsetTargetFor(ws.activeIdx, -1, ws.viewOffset))
	}
}

// resolveTargets runs the solver: column target widths and strip
// positions, tile target sizes and stack positions, and the size
// requests those targets imply. With animate set, width and height
// changes restart their animations from the currently rendered values.
func (ws *Workspace) resolveTargets(animate bool) {
	now := ws.clock.Now()
	gap := ws.opts.Gap
	n := len(ws.columns)
	if n == 0 {
		return
	}

	widths := make([]float64, n)
	for i, col := range ws.columns {
		layoutW, desiredW := ws.columnWidths(col, now)
		widths[i] = layoutW

		fresh := col.targetWidth == 0
		prevW := col.targetWidth
		col.targetWidth = layoutW
		if !animate {
			col.widthAnim = nil
		} else if !fresh && prevW != layoutW {
			col.animateWidthTo(layoutW, ws.clock, ws.opts.Anims.WindowResize)
		}

		ws.resolveColumnHeights(col, layoutW, desiredW, now, animate)
	}

	xs := columnXs(widths, gap)
	for i, col := range ws.columns {
		col.targetX = xs[i]
	}

	for _, col := range ws.columns {
		for _, t := range col.tiles {
			t.requestSizeIfNeeded(now)
		}
	}
}

// columnWidths resolves one column's width policy against its tiles'
// constraints. The layout width is what geometry uses, with
// unresponsive tiles holding their committed width; the desired width
// ignores responsiveness and drives size requests.
func (ws *Workspace) columnWidths(col *Column, now time.Duration) (float64, float64) {
	var natural float64
	for _, t := range col.tiles {
		if w := t.naturalWidth(); w > natural {
			natural = w
		}
	}
	raw := solveColumnWidth(col.width, ws.workArea.W, ws.opts.Gap, natural)

	layoutW, desiredW := 1.0, 1.0
	for _, t := range col.tiles {
		if t.fullscreen {
			layoutW = math.Max(layoutW, ws.output.W)
			desiredW = math.Max(desiredW, ws.output.W)
			continue
		}
		clamped := t.clamp(geometry.Size{W: raw, H: 1}).W
		desiredW = math.Max(desiredW, clamped)
		if t.IsUnresponsive(now) && t.committed.W > 0 {
			clamped = t.committed.W
		}
		layoutW = math.Max(layoutW, clamped)
	}
	return layoutW, desiredW
}

func (ws *Workspace) resolveColumnHeights(col *Column, layoutColW, desiredColW float64, now time.Duration, animate bool) {
	layoutEntries := make([]heightEntry, len(col.tiles))
	desiredEntries := make([]heightEntry, len(col.tiles))
	for i, t := range col.tiles {
		e := heightEntry{weight: t.heightWeight, min: t.win.MinSize().H, max: t.win.MaxSize().H}
		if t.fullscreen {
			e.min, e.max = ws.output.H, ws.output.H
		}
		desiredEntries[i] = e
		if !t.fullscreen && t.IsUnresponsive(now) && t.committed.H > 0 {
			e.min, e.max = t.committed.H, t.committed.H
		}
		layoutEntries[i] = e
	}
	layoutHeights := solveHeights(ws.workArea.H, ws.opts.Gap, layoutEntries)
	desiredHeights := solveHeights(ws.workArea.H, ws.opts.Gap, desiredEntries)

	var y float64
	for i, t := range col.tiles {
		fresh := t.layoutSize == (geometry.Size{})
		prevH := t.layoutSize.H

		if t.fullscreen {
			t.layoutSize = ws.output.Size()
			t.targetSize = ws.output.Size()
		} else {
			t.layoutSize = geometry.Size{
				W: t.clamp(geometry.Size{W: layoutColW, H: 1}).W,
				H: layoutHeights[i],
			}
			if t.IsUnresponsive(now) && t.committed.W > 0 {
				t.layoutSize.W = t.committed.W
			}
			t.targetSize = geometry.Size{
				W: t.clamp(geometry.Size{W: desiredColW, H: 1}).W,
				H: desiredHeights[i],
			}
		}
		t.targetY = y

		if !animate {
			t.heightAnim = nil
		} else if !fresh && prevH != t.layoutSize.H {
			t.animateHeightTo(t.layoutSize.H, ws.clock, ws.opts.Anims.WindowResize)
		}
		y += layoutHeights[i] + ws.opts.Gap
	}
}

// renderedColumnXs derives each column's strip x for the current frame
// from the rendered widths, so a resizing column shifts its followers
// smoothly. Decaying move offsets are not included.
func (ws *Workspace) renderedColumnXs() []float64 {
	xs := make([]float64, len(ws.columns))
	var x float64
	for i, col := range ws.columns {
		xs[i] = x
		x += col.renderedWidth() + ws.opts.Gap
	}
	return xs
}

func (ws *Workspace) renderedXByColumn() map[*Column]float64 {
	xs := ws.renderedColumnXs()
	m := make(map[*Column]float64, len(xs))
	for i, col := range ws.columns {
		m[col] = xs[i]
	}
	return m
}

// animateColumnShifts compares pre-mutation strip positions with the
// current ones and starts decaying offsets covering the jumps.
func (ws *Workspace) animateColumnShifts(prev map[*Column]float64) {
	xs := ws.renderedColumnXs()
	for i, col := range ws.columns {
		old, ok := prev[col]
		if !ok {
			continue
		}
		if delta := old - xs[i]; delta != 0 {
			col.animateMoveXFrom(delta, ws.clock, ws.opts.Anims.WindowMovement)
		}
	}
}

// animateTileShifts is the vertical counterpart for one column's stack.
func (ws *Workspace) animateTileShifts(col *Column, prev map[*Tile]float64) {
	ys := col.renderedTileYs(ws.opts.Gap)
	for i, t := range col.tiles {
		old, ok := prev[t]
		if !ok {
			continue
		}
		if delta := old - ys[i]; delta != 0 {
			t.animateMoveYFrom(delta, ws.clock, ws.opts.Anims.WindowMovement)
		}
	}
}

// renderedViewOffset is the scroll position for the current frame. A
// live gesture overrides the animation, which overrides the settled
// value.
func (ws *Workspace) renderedViewOffset() float64 {
	if ws.gesture != nil {
		return ws.gesture.Position()
	}
	if ws.viewOffsetAnim != nil {
		return ws.viewOffsetAnim.Value()
	}
	return ws.viewOffset
}

// animateViewOffsetTo scrolls toward target, starting from whatever
// position is currently rendered so motion never jumps. A fresh spring
// replaces whatever was running, which matters after a fling: the
// deceleration in flight must not dictate where the view ends up.
func (ws *Workspace) animateViewOffsetTo(target float64) {
	current := ws.renderedViewOffset()
	ws.gesture = nil
	ws.viewOffset = target
	if current == target {
		ws.viewOffsetAnim = nil
		return
	}
	if ws.viewOffsetAnim != nil && ws.viewOffsetAnim.To() == target {
		return
	}
	ws.viewOffsetAnim = animation.New(ws.clock, current, target, 0, ws.opts.Anims.HorizontalViewMovement)
}

// viewOffsetTargetFor picks the scroll target that satisfies the
// visibility policy for column idx. cur is the offset to move minimally
// from, prevIdx the previously active column for the on-overflow rule,
// -1 when not applicable.
func (ws *Workspace) viewOffsetTargetFor(idx, prevIdx int, cur float64) float64 {
	col := ws.columns[idx]
	gap := ws.opts.Gap
	width := ws.workArea.W
	colX, colW := col.targetX, col.targetWidth

	centered := colX + colW/2 - width/2
	if ws.opts.AlwaysCenterSingleColumn && len(ws.columns) == 1 {
		return centered
	}
	switch ws.opts.CenterFocusedColumn {
	case CenterAlways:
		return centered
	case CenterOnOverflow:
		if prevIdx >= 0 && prevIdx < len(ws.columns) && prevIdx != idx {
			prev := ws.columns[prevIdx]
			lo := math.Min(colX, prev.targetX)
			hi := math.Max(colX+colW, prev.targetX+prev.targetWidth)
			if hi-lo > width-2*gap {
				return centered
			}
		}
	}

	lo := colX + colW + gap - width
	hi := colX - gap
	if lo > hi {
		// Wider than the view: pin the left edge.
		return hi
	}
	return math.Min(math.Max(cur, lo), hi)
}

// scrollToActive brings the active column into view per policy.
func (ws *Workspace) scrollToActive(prevIdx int) {
	if len(ws.columns) == 0 {
		ws.viewOffset = 0
		ws.viewOffsetAnim = nil
		ws.gesture = nil
		return
	}
	ws.animateViewOffsetTo(ws.viewOffsetTargetFor(ws.activeIdx, prevIdx, ws.viewOffset))
}

// viewOffsetBounds is the scrollable range for gestures: from the first
// column's leading gap to the last column's trailing gap.
func (ws *Workspace) viewOffsetBounds() (float64, float64) {
	gap := ws.opts.Gap
	lo := -gap
	if len(ws.columns) == 0 {
		return lo, lo
	}
	last := ws.columns[len(ws.columns)-1]
	hi := last.targetX + last.targetWidth + gap - ws.workArea.W
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// addWindow wraps a new window in a tile and places it per hint.
func (ws *Workspace) addWindow(win Window, hint InsertHint) *Tile {
	t := newTile(win, ws.clock, ws.opts.Anims.WindowOpen)
	ws.insertTile(t, hint)
	return t
}

// insertTile places an existing tile, used both for new windows and for
// windows moved in from another workspace.
func (ws *Workspace) insertTile(t *Tile, hint InsertHint) {
	prevActive := ws.activeIdx

	if hint == InsertInActiveColumn && len(ws.columns) > 0 {
		col := ws.columns[ws.activeIdx]
		prevYs := col.renderedYByTile(ws.opts.Gap)
		col.addTile(col.activeIdx+1, t)
		ws.resolveTargets(true)
		ws.animateTileShifts(col, prevYs)
	} else {
		idx := len(ws.columns)
		if hint == InsertAfterActive && len(ws.columns) > 0 {
			idx = ws.activeIdx + 1
		}
		prevXs := ws.renderedXByColumn()
		ws.insertColumnAt(idx, newColumn(t, ws.opts.DefaultColumnWidth))
		ws.activeIdx = idx
		ws.resolveTargets(true)
		ws.animateColumnShifts(prevXs)
	}
	ws.scrollToActive(prevActive)
}

func (ws *Workspace) insertColumnAt(idx int, col *Column) {
	ws.columns = append(ws.columns, nil)
	copy(ws.columns[idx+1:], ws.columns[idx:])
	ws.columns[idx] = col
}

func (ws *Workspace) removeColumnAt(ci int) {
	ws.columns = append(ws.columns[:ci], ws.columns[ci+1:]...)
	if ws.activeIdx > ci || ws.activeIdx >= len(ws.columns) {
		ws.activeIdx--
	}
	if ws.activeIdx < 0 {
		ws.activeIdx = 0
	}
}

// takeTile detaches a tile from the strip, fixing focus and animating
// the survivors into their new positions. The detached tile's travel
// animations are cleared; the destination restarts them.
func (ws *Workspace) takeTile(ci, ti int) *Tile {
	col := ws.columns[ci]
	prevXs := ws.renderedXByColumn()
	prevYs := col.renderedYByTile(ws.opts.Gap)

	t := col.removeTile(ti)
	columnGone := len(col.tiles) == 0
	if columnGone {
		ws.removeColumnAt(ci)
	}
	ws.resolveTargets(true)
	ws.animateColumnShifts(prevXs)
	if !columnGone {
		ws.animateTileShifts(col, prevYs)
	}

	t.moveXAnim = nil
	t.moveYAnim = nil
	t.heightAnim = nil
	return t
}

// removeWindow closes a window: a ghost fades out at its last rendered
// place while the survivors rearrange.
func (ws *Workspace) removeWindow(id WindowID) (*Tile, bool) {
	ci, ti := ws.findWindow(id)
	if ci < 0 {
		return nil, false
	}
	ws.pushClosingGhost(ci, ti)
	t := ws.takeTile(ci, ti)

	if t.fullscreen && ws.hasSavedViewOffset {
		ws.animateViewOffsetTo(ws.savedViewOffset)
		ws.hasSavedViewOffset = false
	} else {
		ws.scrollToActive(-1)
	}
	return t, true
}

// extractWindow detaches a window without a close animation, for moves
// to another workspace or output.
func (ws *Workspace) extractWindow(id WindowID) (*Tile, bool) {
	ci, ti := ws.findWindow(id)
	if ci < 0 {
		return nil, false
	}
	t := ws.takeTile(ci, ti)
	ws.scrollToActive(-1)
	return t, true
}

func (ws *Workspace) pushClosingGhost(ci, ti int) {
	col := ws.columns[ci]
	t := col.tiles[ti]
	xs := ws.renderedColumnXs()
	ys := col.renderedTileYs(ws.opts.Gap)
	rect := geometry.Rect{
		X: xs[ci] + col.renderedOffsetX() + t.renderedOffsetX(),
		Y: ys[ti] + t.renderedOffsetY(),
		W: tileRenderWidth(col, t),
		H: t.renderedHeight(),
	}
	ws.closing = append(ws.closing, &closingTile{
		windowID: t.ID(),
		rect:     rect,
		anim:     animation.New(ws.clock, 1, 0, 0, ws.opts.Anims.WindowClose),
	})
}

// activateColumn moves focus to a column and scrolls it into view.
func (ws *Workspace) activateColumn(idx int) {
	if idx < 0 || idx >= len(ws.columns) || idx == ws.activeIdx {
		return
	}
	prev := ws.activeIdx
	ws.activeIdx = idx
	ws.scrollToActive(prev)
}

// activateWindow focuses a window wherever it sits on the strip.
func (ws *Workspace) activateWindow(id WindowID) bool {
	ci, ti := ws.findWindow(id)
	if ci < 0 {
		return false
	}
	ws.columns[ci].activate(ti)
	if ci != ws.activeIdx {
		ws.activateColumn(ci)
	} else {
		ws.scrollToActive(-1)
	}
	return true
}

func (ws *Workspace) focusLeft() bool {
	if len(ws.columns) == 0 || ws.activeIdx == 0 {
		return false
	}
	ws.activateColumn(ws.activeIdx - 1)
	return true
}

func (ws *Workspace) focusRight() bool {
	if len(ws.columns) == 0 || ws.activeIdx+1 >= len(ws.columns) {
		return false
	}
	ws.activateColumn(ws.activeIdx + 1)
	return true
}

func (ws *Workspace) focusUp() bool {
	col := ws.ActiveColumn()
	if col == nil || col.activeIdx == 0 {
		return false
	}
	col.activate(col.activeIdx - 1)
	return true
}

func (ws *Workspace) focusDown() bool {
	col := ws.ActiveColumn()
	if col == nil || col.activeIdx+1 >= len(col.tiles) {
		return false
	}
	col.activate(col.activeIdx + 1)
	return true
}

func (ws *Workspace) moveColumnLeft() bool {
	if len(ws.columns) < 2 || ws.activeIdx == 0 {
		return false
	}
	ws.moveColumn(ws.activeIdx, ws.activeIdx-1)
	return true
}

func (ws *Workspace) moveColumnRight() bool {
	if len(ws.columns) < 2 || ws.activeIdx+1 >= len(ws.columns) {
		return false
	}
	ws.moveColumn(ws.activeIdx, ws.activeIdx+1)
	return true
}

// moveColumn swaps the column at i into slot j. The view follows the
// moved column so it appears to stay put while the strip slides under
// it.
func (ws *Workspace) moveColumn(i, j int) {
	prevXs := ws.renderedXByColumn()
	oldX := ws.columns[i].targetX
	viewCur := ws.viewOffset

	ws.columns[i], ws.columns[j] = ws.columns[j], ws.columns[i]
	ws.activeIdx = j
	ws.resolveTargets(true)
	ws.animateColumnShifts(prevXs)

	delta := ws.columns[j].targetX - oldX
	ws.animateViewOffsetTo(ws.viewOffsetTargetFor(j, -1, viewCur+delta))
}

func (ws *Workspace) moveWindowUp() bool {
	col := ws.ActiveColumn()
	if col == nil || col.activeIdx == 0 {
		return false
	}
	ws.swapWindows(col, col.activeIdx, col.activeIdx-1)
	return true
}

func (ws *Workspace) moveWindowDown() bool {
	col := ws.ActiveColumn()
	if col == nil || col.activeIdx+1 >= len(col.tiles) {
		return false
	}
	ws.swapWindows(col, col.activeIdx, col.activeIdx+1)
	return true
}

func (ws *Workspace) swapWindows(col *Column, i, j int) {
	prevYs := col.renderedYByTile(ws.opts.Gap)
	col.swapTiles(i, j)
	col.activeIdx = j
	ws.resolveTargets(true)
	ws.animateTileShifts(col, prevYs)
}

// consumeIntoColumn pulls the next column's active window to the bottom
// of the active column.
func (ws *Workspace) consumeIntoColumn() bool {
	i := ws.activeIdx
	if len(ws.columns) < 2 || i+1 >= len(ws.columns) {
		return false
	}
	src := ws.columns[i+1]
	dst := ws.columns[i]
	t := src.ActiveTile()

	xs := ws.renderedColumnXs()
	oldX := xs[i+1] + src.renderedOffsetX() + t.renderedOffsetX()
	oldY := src.renderedTileYs(ws.opts.Gap)[src.activeIdx] + t.renderedOffsetY()
	oldH := t.renderedHeight()

	prevXs := ws.renderedXByColumn()
	prevYs := dst.renderedYByTile(ws.opts.Gap)

	src.removeTile(src.activeIdx)
	if len(src.tiles) == 0 {
		ws.removeColumnAt(i + 1)
	}
	dst.addTile(len(dst.tiles), t)

	ws.resolveTargets(true)
	ws.animateColumnShifts(prevXs)
	ws.animateTileShifts(dst, prevYs)
	ws.animateTileTravel(t, dst, oldX, oldY, oldH)
	ws.scrollToActive(-1)
	return true
}

// expelFromColumn pushes the active window out into its own column to
// the right.
func (ws *Workspace) expelFromColumn() bool {
	col := ws.ActiveColumn()
	if col == nil || len(col.tiles) < 2 {
		return false
	}
	i := ws.activeIdx

	xs := ws.renderedColumnXs()
	t := col.ActiveTile()
	oldX := xs[i] + col.renderedOffsetX() + t.renderedOffsetX()
	oldY := col.renderedTileYs(ws.opts.Gap)[col.activeIdx] + t.renderedOffsetY()
	oldH := t.renderedHeight()

	prevXs := ws.renderedXByColumn()
	prevYs := col.renderedYByTile(ws.opts.Gap)

	col.removeTile(col.activeIdx)
	newCol := newColumn(t, ws.opts.DefaultColumnWidth)
	ws.insertColumnAt(i+1, newCol)
	ws.activeIdx = i + 1

	ws.resolveTargets(true)
	ws.animateColumnShifts(prevXs)
	ws.animateTileShifts(col, prevYs)
	ws.animateTileTravel(t, newCol, oldX, oldY, oldH)
	ws.scrollToActive(i)
	return true
}

// animateTileTravel moves a tile visually from its old rendered spot to
// its new home after a cross-column move.
func (ws *Workspace) animateTileTravel(t *Tile, col *Column, oldX, oldY, oldH float64) {
	xs := ws.renderedColumnXs()
	var newX float64
	for i, c := range ws.columns {
		if c == col {
			newX = xs[i]
			break
		}
	}
	ys := col.renderedTileYs(ws.opts.Gap)
	var newY float64
	for i, tile := range col.tiles {
		if tile == t {
			newY = ys[i]
			break
		}
	}
	if delta := oldX - newX; delta != 0 {
		t.animateMoveXFrom(delta, ws.clock, ws.opts.Anims.WindowMovement)
	}
	if delta := oldY - newY; delta != 0 {
		t.animateMoveYFrom(delta, ws.clock, ws.opts.Anims.WindowMovement)
	}
	if oldH != t.layoutSize.H {
		t.heightAnim = animation.New(ws.clock, oldH, t.layoutSize.H, 0, ws.opts.Anims.WindowResize)
	}
}

// setColumnWidth applies a width change to the active column.
func (ws *Workspace) setColumnWidth(change SizeChange) bool {
	col := ws.ActiveColumn()
	if col == nil {
		return false
	}
	width := ws.workArea.W
	gap := ws.opts.Gap
	cur := col.targetWidth

	var next Width
	switch change.Kind {
	case SetFixed:
		next = FixedWidth(change.Value)
	case AdjustFixed:
		next = FixedWidth(cur + change.Value)
	case SetProportion:
		next = ProportionWidth(change.Value)
	case AdjustProportion:
		f := col.width.Value
		if col.width.Kind != WidthProportion {
			f = widthFraction(cur, width, gap)
		}
		next = ProportionWidth(f + change.Value)
	default:
		return false
	}

	if next.Kind == WidthProportion {
		next.Value = math.Min(math.Max(next.Value, 0.01), 1)
	} else if next.Value < 1 {
		next.Value = 1
	}
	col.setWidth(next)
	ws.resolveTargets(true)
	ws.scrollToActive(-1)
	return true
}

// switchPresetColumnWidth cycles the active column through the
// configured width presets.
func (ws *Workspace) switchPresetColumnWidth() bool {
	col := ws.ActiveColumn()
	presets := ws.opts.PresetColumnWidths
	if col == nil || len(presets) == 0 {
		return false
	}
	idx := col.presetIdx + 1
	if idx >= len(presets) {
		idx = 0
	}
	col.width = presets[idx]
	col.presetIdx = idx
	ws.resolveTargets(true)
	ws.scrollToActive(-1)
	return true
}

// setWindowHeight applies a height change to the active window by
// reweighting it against its siblings.
func (ws *Workspace) setWindowHeight(change SizeChange) bool {
	col := ws.ActiveColumn()
	if col == nil || len(col.tiles) < 2 {
		return false
	}
	t := col.ActiveTile()
	avail := ws.workArea.H - ws.opts.Gap*float64(len(col.tiles)-1)
	cur := t.layoutSize.H

	var target float64
	switch change.Kind {
	case SetFixed:
		target = change.Value
	case AdjustFixed:
		target = cur + change.Value
	case SetProportion:
		target = avail * change.Value
	case AdjustProportion:
		target = cur + avail*change.Value
	default:
		return false
	}
	target = math.Min(math.Max(target, 1), avail)

	var others float64
	for _, tile := range col.tiles {
		if tile != t {
			others += tile.heightWeight
		}
	}
	t.heightWeight = weightForHeight(target, avail, others)
	ws.resolveTargets(true)
	return true
}

// resetWindowHeight returns the active window to an equal share.
func (ws *Workspace) resetWindowHeight() bool {
	col := ws.ActiveColumn()
	if col == nil {
		return false
	}
	col.ActiveTile().heightWeight = 1
	ws.resolveTargets(true)
	return true
}

// centerColumn centers the active column in the view regardless of
// policy.
func (ws *Workspace) centerColumn() bool {
	col := ws.ActiveColumn()
	if col == nil {
		return false
	}
	ws.animateViewOffsetTo(col.targetX + col.targetWidth/2 - ws.workArea.W/2)
	return true
}

// setFullscreen puts a window into or out of fullscreen. Entering saves
// the view position; leaving restores it.
func (ws *Workspace) setFullscreen(id WindowID, on bool) bool {
	ci, ti := ws.findWindow(id)
	if ci < 0 {
		return false
	}
	t := ws.columns[ci].tiles[ti]
	if t.fullscreen == on {
		return true
	}
	t.fullscreen = on

	if on {
		if !ws.hasSavedViewOffset {
			ws.savedViewOffset = ws.viewOffset
			ws.hasSavedViewOffset = true
		}
		ws.columns[ci].activate(ti)
		prev := ws.activeIdx
		ws.activeIdx = ci
		ws.resolveTargets(true)
		ws.scrollToActive(prev)
		return true
	}

	ws.resolveTargets(true)
	if ws.hasSavedViewOffset {
		ws.animateViewOffsetTo(ws.savedViewOffset)
		ws.hasSavedViewOffset = false
	} else {
		ws.scrollToActive(-1)
	}
	return true
}

// toggleFullscreen flips the focused window's fullscreen state.
func (ws *Workspace) toggleFullscreen() bool {
	col := ws.ActiveColumn()
	if col == nil {
		return false
	}
	t := col.ActiveTile()
	return ws.setFullscreen(t.ID(), !t.fullscreen)
}

// gestureBegin starts interactive view scrolling from the currently
// rendered position, interrupting any scroll animation.
func (ws *Workspace) gestureBegin() {
	ws.gesture = newSwipeTracker(ws.renderedViewOffset())
	ws.viewOffsetAnim = nil
}

// gestureUpdate accumulates a scroll delta.
func (ws *Workspace) gestureUpdate(delta float64, timestamp time.Duration) bool {
	if ws.gesture == nil {
		return false
	}
	ws.gesture.Update(delta, timestamp)
	return true
}

// gestureEnd releases the gesture into a deceleration that lands inside
// the scrollable range. Out-of-range positions rubber-band back to the
// nearest edge.
func (ws *Workspace) gestureEnd(timestamp time.Duration) bool {
	g := ws.gesture
	if g == nil {
		return false
	}
	pos := g.Position()
	velocity := g.Velocity(timestamp)
	ws.gesture = nil

	lo, hi := ws.viewOffsetBounds()
	coeff := 1000.0 * math.Log(viewDecelerationRate)
	projected := pos - velocity/coeff
	target := math.Min(math.Max(projected, lo), hi)
	if target != projected {
		velocity = (pos - target) * coeff
	}

	anim := animation.Decelerate(ws.clock, pos, velocity, viewDecelerationRate, viewDecelerationThreshold)
	ws.viewOffsetAnim = anim
	ws.viewOffset = anim.To()

	if ws.opts.FocusFollowsScroll {
		ws.focusColumnNearestView()
	}
	return true
}

// focusColumnNearestView moves focus to the column whose center ends up
// closest to the view center, without scrolling further.
func (ws *Workspace) focusColumnNearestView() {
	if len(ws.columns) == 0 {
		return
	}
	center := ws.viewOffset + ws.workArea.W/2
	best := ws.activeIdx
	bestDist := math.Inf(1)
	for i, col := range ws.columns {
		d := math.Abs(col.targetX + col.targetWidth/2 - center)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	ws.activeIdx = best
}

// advanceAnimations drops finished animations and expired ghosts.
func (ws *Workspace) advanceAnimations() {
	if ws.viewOffsetAnim != nil && ws.viewOffsetAnim.IsDone() {
		ws.viewOffsetAnim = nil
	}
	for _, col := range ws.columns {
		col.advanceAnimations()
	}
	kept := ws.closing[:0]
	for _, g := range ws.closing {
		if !g.anim.IsClampedDone() {
			kept = append(kept, g)
		}
	}
	ws.closing = kept
}

// areAnimationsOngoing reports whether another frame is needed. A live
// gesture counts: it repositions the view every input event.
func (ws *Workspace) areAnimationsOngoing() bool {
	if ws.gesture != nil || ws.viewOffsetAnim != nil || len(ws.closing) > 0 {
		return true
	}
	for _, col := range ws.columns {
		if col.areAnimationsOngoing() {
			return true
		}
	}
	return false
}

// configureTimedOut reports whether any tile crossed the configure
// deadline since the last check, requiring a relayout from committed
// sizes.
func (ws *Workspace) configureTimedOut() bool {
	now := ws.clock.Now()
	for _, col := range ws.columns {
		for _, t := range col.tiles {
			if t.IsUnresponsive(now) {
				return true
			}
		}
	}
	return false
}

// acknowledgeSize records a client's committed size and resolves the
// layout against it.
func (ws *Workspace) acknowledgeSize(id WindowID, size geometry.Size) bool {
	ci, ti := ws.findWindow(id)
	if ci < 0 {
		return false
	}
	ws.columns[ci].tiles[ti].acknowledge(size)
	ws.resolveTargets(true)
	return true
}

// renderElements produces this workspace's rectangles, shifted by the
// vertical offset of a workspace switch in progress.
func (ws *Workspace) renderElements(shiftY float64) []RenderElement {
	els := make([]RenderElement, 0, ws.windowCount()+len(ws.closing))
	view := ws.renderedViewOffset()
	xs := ws.renderedColumnXs()

	for ci, col := range ws.columns {
		colX := xs[ci] + col.renderedOffsetX()
		ys := col.renderedTileYs(ws.opts.Gap)
		for ti, t := range col.tiles {
			if t.fullscreen {
				els = append(els, RenderElement{
					WindowID: t.ID(),
					Rect:     ws.output.Translate(0, shiftY).SnapToPixels(ws.scale),
					ZOrder:   ZFullscreen,
					Opacity:  t.opacity(),
				})
				continue
			}
			r := geometry.Rect{
				X: ws.workArea.X + colX + t.renderedOffsetX() - view,
				Y: ws.workArea.Y + ys[ti] + t.renderedOffsetY() + shiftY,
				W: tileRenderWidth(col, t),
				H: t.renderedHeight(),
			}
			z := ZNormal
			if ci == ws.activeIdx && ti == col.activeIdx {
				z = ZActive
			}
			els = append(els, RenderElement{
				WindowID: t.ID(),
				Rect:     r.SnapToPixels(ws.scale),
				ZOrder:   z,
				Opacity:  t.opacity(),
			})
		}
	}

	for _, g := range ws.closing {
		r := geometry.Rect{
			X: ws.workArea.X + g.rect.X - view,
			Y: ws.workArea.Y + g.rect.Y + shiftY,
			W: g.rect.W,
			H: g.rect.H,
		}
		els = append(els, RenderElement{
			WindowID: g.windowID,
			Rect:     r.SnapToPixels(ws.scale),
			ZOrder:   ZClosing,
			Opacity:  g.anim.ClampedValue(),
			Closing:  true,
		})
	}
	return els
}

func (ws *Workspace) windowCount() int {
	n := 0
	for _, col := range ws.columns {
		n += len(col.tiles)
	}
	return n
}
