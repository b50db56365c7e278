package layout

import (
	"sort"

	"github.com/fuchaoran001/niri/pkg/geometry"
)

// Z-order bands, bottom to top.
const (
	ZNormal = iota
	ZActive
	ZClosing
	ZFullscreen
)

// RenderElement is one rectangle the embedder draws this frame. Rects
// are output-local logical coordinates snapped to the output's pixel
// grid.
type RenderElement struct {
	// WindowID is the live window, or the id a closing ghost used to
	// have.
	WindowID WindowID      `json:"window_id"`
	Rect     geometry.Rect `json:"rect"`
	ZOrder   int           `json:"z_order"`
	// Opacity is 1 for settled tiles, below 1 during open and close
	// animations.
	Opacity float64 `json:"opacity"`
	// Closing marks a ghost of an already-removed window.
	Closing bool `json:"closing,omitempty"`
}

// sortElements orders elements bottom to top for painting. The sort is
// stable so tiles in the same band keep strip order.
func sortElements(els []RenderElement) {
	sort.SliceStable(els, func(i, j int) bool {
		return els[i].ZOrder < els[j].ZOrder
	})
}

// tileRenderWidth picks the width a tile renders at. Tiles narrower
// than their column because of their own max-size constraint stay at
// that width; everything else follows the column's animated width.
func tileRenderWidth(col *Column, t *Tile) float64 {
	if t.layoutSize.W < col.targetWidth {
		return t.layoutSize.W
	}
	return col.renderedWidth()
}
