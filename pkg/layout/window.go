// Package layout implements the scrollable-tiling model: windows stack
// into columns, columns sit on an infinite horizontal strip per workspace,
// workspaces stack vertically per output, and the view scrolls over the
// strip instead of paging between fixed desktops.
//
// The package owns the data model (Layout, Monitor, Workspace, Column,
// Tile), the pure geometry solver deriving target rectangles from sizing
// policies, the command surface mutating the model, and the animations
// interpolating visible geometry between targets. Everything runs
// single-threaded on the compositor loop; nothing here blocks or touches
// I/O.
package layout

import "github.com/fuchaoran001/niri/pkg/geometry"

// WindowID identifies a managed window for its whole lifetime. 0 is never
// a valid id.
type WindowID uint64

// Window is the engine's handle to an external surface. The protocol
// collaborator implements it; the engine only reads constraints and emits
// size requests through it, never blocking on the client.
type Window interface {
	ID() WindowID
	Title() string

	// MinSize and MaxSize are the client's size constraints in logical
	// pixels. A zero component means unconstrained.
	MinSize() geometry.Size
	MaxSize() geometry.Size

	// PreferredSize is the size the client asked for when it mapped,
	// consulted before the first commit and for fit-content columns.
	PreferredSize() geometry.Size

	// RequestSize asks the client to resize. The client acknowledges
	// asynchronously through Layout.SizeAcknowledged.
	RequestSize(size geometry.Size)
}

// clampSize applies min/max constraints to a proposed size. Zero max
// components leave that axis unconstrained.
func clampSize(size, minSize, maxSize geometry.Size) geometry.Size {
	if minSize.W > 0 && size.W < minSize.W {
		size.W = minSize.W
	}
	if minSize.H > 0 && size.H < minSize.H {
		size.H = minSize.H
	}
	if maxSize.W > 0 && size.W > maxSize.W {
		size.W = maxSize.W
	}
	if maxSize.H > 0 && size.H > maxSize.H {
		size.H = maxSize.H
	}
	return size
}
