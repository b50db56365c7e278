package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jesseduffield/lazycore/pkg/boxlayout"
	"github.com/mattn/go-runewidth"

	"github.com/fuchaoran001/niri/pkg/ipc"
	"github.com/fuchaoran001/niri/pkg/layout"
)

// styleClass picks which palette entry paints a cell.
type styleClass uint8

const (
	classNone styleClass = iota
	classOutput
	classBorder
	classActive
	classGhost
	classDim
	classText
	classTitle
	classActiveTitle
)

type cell struct {
	r     rune
	class styleClass
}

// canvas is a grid of styled cells composed back to front and rendered
// into one styled string per frame.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, class styleClass) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, class: class}
}

// text places a string clipped to maxW display cells. Wide runes take
// two cells, the second marked with a zero rune the renderer skips.
func (c *canvas) text(x, y, maxW int, s string, class styleClass) {
	if maxW <= 0 {
		return
	}
	s = runewidth.Truncate(s, maxW, "")
	cx := x
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if cx+rw > x+maxW {
			break
		}
		c.set(cx, y, r, class)
		if rw == 2 {
			c.set(cx+1, y, 0, class)
		}
		cx += rw
	}
}

func (c *canvas) box(x, y, w, h int, cls styleClass) {
	c.set(x, y, '┌', cls)
	c.set(x+w-1, y, '┐', cls)
	c.set(x, y+h-1, '└', cls)
	c.set(x+w-1, y+h-1, '┘', cls)
	for i := 1; i < w-1; i++ {
		c.set(x+i, y, '─', cls)
		c.set(x+i, y+h-1, '─', cls)
	}
	for j := 1; j < h-1; j++ {
		c.set(x, y+j, '│', cls)
		c.set(x+w-1, y+j, '│', cls)
	}
}

// drawTile paints one window rectangle over whatever is below it.
func (c *canvas) drawTile(b tileBox, content []string) {
	cls := classBorder
	titleCls := classTitle
	switch {
	case b.ghost:
		cls, titleCls = classGhost, classGhost
	case b.opacity < 0.6:
		cls, titleCls = classDim, classDim
	case b.active:
		cls, titleCls = classActive, classActiveTitle
	}

	if b.w < 2 || b.h < 2 {
		c.set(b.x, b.y, '▪', cls)
		return
	}

	c.box(b.x, b.y, b.w, b.h, cls)
	// Blank the interior so lower tiles do not bleed through.
	for j := 1; j < b.h-1; j++ {
		for i := 1; i < b.w-1; i++ {
			c.set(b.x+i, b.y+j, ' ', classNone)
		}
	}
	if b.title != "" && b.w > 4 {
		c.text(b.x+2, b.y, b.w-4, " "+b.title+" ", titleCls)
	}
	for i, line := range content {
		if i >= b.h-2 {
			break
		}
		c.text(b.x+1, b.y+1+i, b.w-2, line, classText)
	}
}

// drawOutputFrame paints the border around one output's region with the
// output name in the top edge.
func (c *canvas) drawOutputFrame(x, y, w, h int, name string) {
	if w < 2 || h < 2 {
		return
	}
	c.box(x, y, w, h, classOutput)
	if name != "" && w > 4 {
		c.text(x+2, y, w-4, " "+name+" ", classOutput)
	}
}

func (c *canvas) render(styles map[styleClass]lipgloss.Style) string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		x := 0
		for x < c.w {
			cls := c.cells[y*c.w+x].class
			var run strings.Builder
			for x < c.w && c.cells[y*c.w+x].class == cls {
				if r := c.cells[y*c.w+x].r; r != 0 {
					run.WriteRune(r)
				}
				x++
			}
			seg := run.String()
			if st, ok := styles[cls]; ok && seg != "" {
				seg = st.Render(seg)
			}
			b.WriteString(seg)
		}
	}
	return b.String()
}

// tileBox is one window rectangle mapped into canvas cells.
type tileBox struct {
	id      uint64
	x, y    int
	w, h    int
	title   string
	opacity float64
	ghost   bool
	active  bool
}

type outputRegion struct {
	name string
	x, y int
	w, h int
	// boxes are back to front in paint order.
	boxes []tileBox
}

// scene is the frame layout for one terminal size: chrome rows plus one
// region per output with its window boxes already scaled to cells.
type scene struct {
	width        int
	canvasTop    int
	canvasHeight int
	outputs      []outputRegion
}

// chromeDims splits the terminal into the workspace bar, one region per
// output and the status bar.
func chromeDims(width, height int, outputs []string) map[string]boxlayout.Dimensions {
	outputBoxes := make([]*boxlayout.Box, 0, len(outputs))
	for _, name := range outputs {
		outputBoxes = append(outputBoxes, &boxlayout.Box{Window: "output:" + name, Weight: 1})
	}
	if len(outputBoxes) == 0 {
		outputBoxes = append(outputBoxes, &boxlayout.Box{Window: "output:", Weight: 1})
	}
	root := &boxlayout.Box{
		Direction: boxlayout.ROW,
		Children: []*boxlayout.Box{
			{Window: "workspaces", Size: 1},
			{Direction: boxlayout.COLUMN, Weight: 1, Children: outputBoxes},
			{Window: "status", Size: 1},
		},
	}
	return boxlayout.ArrangeWindows(root, 0, 0, width, height)
}

type windowMeta struct {
	title      string
	fullscreen bool
}

func snapshotMeta(snap *layout.Snapshot) map[uint64]windowMeta {
	meta := make(map[uint64]windowMeta)
	for _, out := range snap.Outputs {
		for _, ws := range out.Workspaces {
			for _, col := range ws.Columns {
				for _, win := range col.Windows {
					meta[win.ID] = windowMeta{title: win.Title, fullscreen: win.Fullscreen}
				}
			}
		}
	}
	return meta
}

// buildScene maps a state payload onto the terminal grid. Rects scale
// from logical pixels to cells per output region and clip to it.
func buildScene(st *ipc.StatePayload, width, height int) *scene {
	if st == nil || width < 8 || height < 6 {
		return nil
	}
	names := make([]string, 0, len(st.Frames))
	for _, f := range st.Frames {
		names = append(names, f.Name)
	}
	dims := chromeDims(width, height, names)
	sc := &scene{width: width, canvasTop: 1, canvasHeight: height - 2}
	meta := snapshotMeta(&st.Snapshot)

	for _, f := range st.Frames {
		d, ok := dims["output:"+f.Name]
		if !ok {
			continue
		}
		region := outputRegion{
			name: f.Name,
			x:    d.X0,
			y:    d.Y0 - sc.canvasTop,
			w:    d.X1 - d.X0 + 1,
			h:    d.Y1 - d.Y0 + 1,
		}
		ix, iy := region.x+1, region.y+1
		iw, ih := region.w-2, region.h-2
		if iw < 2 || ih < 2 || f.Geometry.W <= 0 || f.Geometry.H <= 0 {
			sc.outputs = append(sc.outputs, region)
			continue
		}
		sx := float64(iw) / f.Geometry.W
		sy := float64(ih) / f.Geometry.H

		for _, el := range f.Elements {
			if el.Opacity < 0.05 {
				continue
			}
			b := tileBox{
				id:      uint64(el.WindowID),
				x:       ix + int(math.Round(el.Rect.X*sx)),
				y:       iy + int(math.Round(el.Rect.Y*sy)),
				w:       int(math.Round(el.Rect.W * sx)),
				h:       int(math.Round(el.Rect.H * sy)),
				opacity: el.Opacity,
				ghost:   el.Closing,
				active:  el.ZOrder == layout.ZActive && f.Name == st.Snapshot.ActiveOutput,
			}
			if m, ok := meta[b.id]; ok && !b.ghost {
				b.title = m.title
			}
			if b.w < 2 {
				b.w = 2
			}
			if b.h < 2 {
				b.h = 2
			}
			if b.x < ix {
				b.w -= ix - b.x
				b.x = ix
			}
			if b.y < iy {
				b.h -= iy - b.y
				b.y = iy
			}
			if b.x+b.w > ix+iw {
				b.w = ix + iw - b.x
			}
			if b.y+b.h > iy+ih {
				b.h = iy + ih - b.y
			}
			if b.w < 2 || b.h < 2 {
				continue
			}
			region.boxes = append(region.boxes, b)
		}
		sc.outputs = append(sc.outputs, region)
	}
	return sc
}

// interiorSizes maps live windows to their tile interior in cells, the
// size their PTYs should run at.
func (sc *scene) interiorSizes() map[uint64][2]int {
	sizes := make(map[uint64][2]int)
	if sc == nil {
		return sizes
	}
	for _, region := range sc.outputs {
		for _, b := range region.boxes {
			if b.ghost {
				continue
			}
			sizes[b.id] = [2]int{b.w - 2, b.h - 2}
		}
	}
	return sizes
}

// palette is the set of styles the chrome and canvas draw with.
type palette struct {
	canvas     map[styleClass]lipgloss.Style
	outName    lipgloss.Style
	outActive  lipgloss.Style
	wsIdle     lipgloss.Style
	wsActive   lipgloss.Style
	status     lipgloss.Style
	statusOK   lipgloss.Style
	statusWarn lipgloss.Style
	hints      lipgloss.Style
}

func buildPalette() palette {
	border := lipgloss.AdaptiveColor{Light: "245", Dark: "240"}
	active := lipgloss.AdaptiveColor{Light: "32", Dark: "81"}
	ghost := lipgloss.AdaptiveColor{Light: "250", Dark: "237"}
	text := lipgloss.AdaptiveColor{Light: "238", Dark: "252"}

	return palette{
		canvas: map[styleClass]lipgloss.Style{
			classOutput:      lipgloss.NewStyle().Foreground(border).Faint(true),
			classBorder:      lipgloss.NewStyle().Foreground(border),
			classActive:      lipgloss.NewStyle().Foreground(active),
			classGhost:       lipgloss.NewStyle().Foreground(ghost).Faint(true),
			classDim:         lipgloss.NewStyle().Foreground(border).Faint(true),
			classText:        lipgloss.NewStyle().Foreground(text),
			classTitle:       lipgloss.NewStyle().Foreground(text).Bold(true),
			classActiveTitle: lipgloss.NewStyle().Foreground(active).Bold(true),
		},
		outName:    lipgloss.NewStyle().Foreground(border),
		outActive:  lipgloss.NewStyle().Foreground(active).Bold(true),
		wsIdle:     lipgloss.NewStyle().Foreground(border),
		wsActive:   lipgloss.NewStyle().Foreground(active).Bold(true).Reverse(true),
		status:     lipgloss.NewStyle().Foreground(text),
		statusOK:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}),
		statusWarn: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"}),
		hints:      lipgloss.NewStyle().Foreground(border),
	}
}

// fitLine hard-truncates a line that overflows, dropping styling when
// it has to cut.
func fitLine(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	plain := ansiEscapes.ReplaceAllString(s, "")
	return runewidth.Truncate(plain, width, "…")
}

func countWindows(snap *layout.Snapshot) int {
	n := 0
	for _, out := range snap.Outputs {
		for _, ws := range out.Workspaces {
			for _, col := range ws.Columns {
				n += len(col.Windows)
			}
		}
	}
	return n
}

// workspaceBar renders the top chrome line: each output with its
// workspace stack, the active ones highlighted.
func workspaceBar(st *ipc.StatePayload, width int, p palette) string {
	if st == nil {
		return ""
	}
	parts := make([]string, 0, len(st.Snapshot.Outputs))
	for _, out := range st.Snapshot.Outputs {
		nameStyle := p.outName
		if out.Name == st.Snapshot.ActiveOutput {
			nameStyle = p.outActive
		}
		var b strings.Builder
		b.WriteString(nameStyle.Render(out.Name))
		for i := range out.Workspaces {
			b.WriteString(" ")
			label := fmt.Sprintf("%d", i+1)
			if i == out.ActiveWorkspace {
				b.WriteString(p.wsActive.Render(label))
			} else {
				b.WriteString(p.wsIdle.Render(label))
			}
		}
		parts = append(parts, b.String())
	}
	return fitLine(" "+strings.Join(parts, "   "), width)
}

// statusBar renders the bottom chrome line: connection state on the
// left, key hints on the right.
func statusBar(st *ipc.StatePayload, connected bool, width int, p palette) string {
	var left string
	if !connected {
		left = p.statusWarn.Render("● connecting")
	} else {
		left = p.statusOK.Render("● connected")
		if st != nil {
			left += p.status.Render(fmt.Sprintf("  seq %d  %d windows", st.SequenceNum, countWindows(&st.Snapshot)))
			if st.Animating {
				left += p.status.Render("  animating")
			}
		}
	}
	hints := p.hints.Render("h/l focus  H/L move  ,/. stack  o open  x close  f full  [/] ws  q quit")
	gap := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		return fitLine(" "+left, width)
	}
	return " " + left + strings.Repeat(" ", gap) + hints + " "
}
