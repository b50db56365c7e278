package layout

import (
	"github.com/fuchaoran001/niri/pkg/animation"
)

// WidthKind selects how a column's width is derived.
type WidthKind int

const (
	// WidthProportion sizes the column as a fraction of the working area.
	WidthProportion WidthKind = iota
	// WidthFixed sizes the column to a logical pixel count.
	WidthFixed
	// WidthFitContent sizes the column to its widest tile's natural width.
	WidthFitContent
)

// Width is a column sizing policy.
type Width struct {
	Kind WidthKind
	// Value is the fraction for WidthProportion and the pixel count for
	// WidthFixed. Unused for WidthFitContent.
	Value float64
}

// ProportionWidth builds a proportional sizing policy.
func ProportionWidth(fraction float64) Width {
	return Width{Kind: WidthProportion, Value: fraction}
}

// FixedWidth builds a fixed pixel sizing policy.
func FixedWidth(px float64) Width {
	return Width{Kind: WidthFixed, Value: px}
}

// FitContentWidth builds a policy tracking the widest tile.
func FitContentWidth() Width {
	return Width{Kind: WidthFitContent}
}

// SizeChangeKind distinguishes absolute and relative resize requests.
type SizeChangeKind int

const (
	// SetFixed sets an absolute size in logical pixels.
	SetFixed SizeChangeKind = iota
	// SetProportion sets an absolute fraction of the working area.
	SetProportion
	// AdjustFixed adds a pixel delta to the current size.
	AdjustFixed
	// AdjustProportion adds a fraction delta to the current proportion.
	AdjustProportion
)

// SizeChange describes a width or height adjustment. Proportions are
// expressed as fractions, so SetProportion 0.5 means half the working
// area.
type SizeChange struct {
	Kind  SizeChangeKind
	Value float64
}

// Column is a vertical stack of tiles sharing one width on the strip.
type Column struct {
	tiles     []*Tile
	activeIdx int

	width Width
	// presetIdx remembers the last preset applied by preset cycling, -1
	// when the width was set some other way.
	presetIdx int

	// Solved targets in strip coordinates, filled in by the owning
	// workspace after every mutation.
	targetX     float64
	targetWidth float64

	widthAnim *animation.Animation
	// moveAnim is a horizontal offset decaying to zero after the column
	// was displaced on the strip.
	moveAnim *animation.Animation
}

func newColumn(tile *Tile, width Width) *Column {
	return &Column{
		tiles:     []*Tile{tile},
		width:     width,
		presetIdx: -1,
	}
}

// Tiles returns the column's tiles, topmost first.
func (c *Column) Tiles() []*Tile {
	return c.tiles
}

// ActiveTile returns the tile holding focus within the column.
func (c *Column) ActiveTile() *Tile {
	if len(c.tiles) == 0 {
		return nil
	}
	return c.tiles[c.activeIdx]
}

// ActiveTileIdx returns the index of the focused tile.
func (c *Column) ActiveTileIdx() int {
	return c.activeIdx
}

// Width returns the column's sizing policy.
func (c *Column) Width() Width {
	return c.width
}

func (c *Column) setWidth(w Width) {
	c.width = w
	c.presetIdx = -1
}

// tileIdx finds a window's position in the stack, -1 when absent.
func (c *Column) tileIdx(id WindowID) int {
	for i, t := range c.tiles {
		if t.ID() == id {
			return i
		}
	}
	return -1
}

func (c *Column) activate(idx int) {
	if idx >= 0 && idx < len(c.tiles) {
		c.activeIdx = idx
	}
}

// addTile inserts a tile at idx and moves focus to it.
func (c *Column) addTile(idx int, tile *Tile) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(c.tiles) {
		idx = len(c.tiles)
	}
	c.tiles = append(c.tiles, nil)
	copy(c.tiles[idx+1:], c.tiles[idx:])
	c.tiles[idx] = tile
	c.activeIdx = idx
}

// removeTile takes a tile out of the stack. Focus stays at the same
// position, clamped to the shorter stack.
func (c *Column) removeTile(idx int) *Tile {
	tile := c.tiles[idx]
	c.tiles = append(c.tiles[:idx], c.tiles[idx+1:]...)
	if c.activeIdx > idx || c.activeIdx >= len(c.tiles) {
		c.activeIdx--
	}
	if c.activeIdx < 0 {
		c.activeIdx = 0
	}
	return tile
}

// swapTiles exchanges two stack positions.
func (c *Column) swapTiles(a, b int) {
	c.tiles[a], c.tiles[b] = c.tiles[b], c.tiles[a]
}

// isFullscreen reports whether the column currently shows a fullscreen
// tile.
func (c *Column) isFullscreen() bool {
	t := c.ActiveTile()
	return t != nil && t.fullscreen
}

// renderedWidth is the interpolated width for the current frame.
func (c *Column) renderedWidth() float64 {
	if c.widthAnim != nil {
		return c.widthAnim.Value()
	}
	return c.targetWidth
}

// renderedOffsetX is the decaying strip offset from column displacement.
func (c *Column) renderedOffsetX() float64 {
	if c.moveAnim != nil {
		return c.moveAnim.Value()
	}
	return 0
}

// animateWidthTo restarts the width animation toward a new target from
// the currently rendered width. Re-requesting the current target is a
// no-op so repeated commands do not schedule fresh animations.
func (c *Column) animateWidthTo(target float64, clock animation.Clock, cfg animation.Config) {
	current := c.renderedWidth()
	if current == target {
		c.widthAnim = nil
		return
	}
	if c.widthAnim != nil {
		if c.widthAnim.To() == target {
			return
		}
		c.widthAnim = c.widthAnim.Restarted(current, target, 0)
		return
	}
	c.widthAnim = animation.New(clock, current, target, 0, cfg)
}

// animateMoveXFrom starts a decaying offset from the column's previous
// strip position.
func (c *Column) animateMoveXFrom(delta float64, clock animation.Clock, cfg animation.Config) {
	from := delta + c.renderedOffsetX()
	if from == 0 {
		c.moveAnim = nil
		return
	}
	c.moveAnim = animation.New(clock, from, 0, 0, cfg)
}

// renderedTileYs derives each tile's stack y for the current frame from
// the rendered heights, so a resizing tile shifts the tiles below it
// smoothly. Decaying move offsets are not included.
func (c *Column) renderedTileYs(gap float64) []float64 {
	ys := make([]float64, len(c.tiles))
	var y float64
	for i, t := range c.tiles {
		ys[i] = y
		y += t.renderedHeight() + gap
	}
	return ys
}

func (c *Column) renderedYByTile(gap float64) map[*Tile]float64 {
	ys := c.renderedTileYs(gap)
	m := make(map[*Tile]float64, len(ys))
	for i, t := range c.tiles {
		m[t] = ys[i]
	}
	return m
}

// advanceAnimations drops finished animations on the column and its
// tiles.
func (c *Column) advanceAnimations() {
	if c.widthAnim != nil && c.widthAnim.IsDone() {
		c.widthAnim = nil
	}
	if c.moveAnim != nil && c.moveAnim.IsDone() {
		c.moveAnim = nil
	}
	for _, t := range c.tiles {
		t.advanceAnimations()
	}
}

// areAnimationsOngoing reports whether the column or any tile animates.
func (c *Column) areAnimationsOngoing() bool {
	if c.widthAnim != nil || c.moveAnim != nil {
		return true
	}
	for _, t := range c.tiles {
		if t.areAnimationsOngoing() {
			return true
		}
	}
	return false
}
