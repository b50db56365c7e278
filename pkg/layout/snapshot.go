package layout

import (
	"github.com/fuchaoran001/niri/pkg/geometry"
)

// Snapshot is the read-only state tree served to introspection clients.
type Snapshot struct {
	Outputs      []OutputSnapshot `json:"outputs"`
	ActiveOutput string           `json:"active_output,omitempty"`
}

type OutputSnapshot struct {
	Name            string              `json:"name"`
	Geometry        geometry.Rect       `json:"geometry"`
	Scale           float64             `json:"scale"`
	Workspaces      []WorkspaceSnapshot `json:"workspaces"`
	ActiveWorkspace int                 `json:"active_workspace"`
}

type WorkspaceSnapshot struct {
	ID           uint64           `json:"id"`
	Columns      []ColumnSnapshot `json:"columns"`
	ActiveColumn int              `json:"active_column"`
	ViewOffset   float64          `json:"view_offset"`
}

type ColumnSnapshot struct {
	Windows      []WindowSnapshot `json:"windows"`
	ActiveWindow int              `json:"active_window"`
	WidthKind    string           `json:"width_kind"`
	WidthValue   float64          `json:"width_value,omitempty"`
	X            float64          `json:"x"`
	Width        float64          `json:"width"`
}

type WindowSnapshot struct {
	ID         uint64        `json:"id"`
	Title      string        `json:"title"`
	Size       geometry.Size `json:"size"`
	Committed  geometry.Size `json:"committed_size"`
	Fullscreen bool          `json:"fullscreen,omitempty"`
}

func widthKindString(k WidthKind) string {
	switch k {
	case WidthFixed:
		return "fixed"
	case WidthFitContent:
		return "fit-content"
	default:
		return "proportion"
	}
}

// Snapshot captures the current model state. Targets are reported, not
// the in-flight interpolated values; the snapshot describes where the
// layout is headed, which is stable across frames.
func (l *Layout) Snapshot() Snapshot {
	s := Snapshot{Outputs: make([]OutputSnapshot, 0, len(l.monitors))}
	if m := l.ActiveMonitor(); m != nil {
		s.ActiveOutput = m.name
	}
	for _, m := range l.monitors {
		s.Outputs = append(s.Outputs, m.snapshot())
	}
	return s
}

func (m *Monitor) snapshot() OutputSnapshot {
	o := OutputSnapshot{
		Name:            m.name,
		Geometry:        m.output,
		Scale:           m.scale,
		Workspaces:      make([]WorkspaceSnapshot, 0, len(m.workspaces)),
		ActiveWorkspace: m.activeIdx,
	}
	for _, ws := range m.workspaces {
		o.Workspaces = append(o.Workspaces, ws.snapshot())
	}
	return o
}

func (ws *Workspace) snapshot() WorkspaceSnapshot {
	s := WorkspaceSnapshot{
		ID:           uint64(ws.id),
		Columns:      make([]ColumnSnapshot, 0, len(ws.columns)),
		ActiveColumn: ws.activeIdx,
		ViewOffset:   ws.viewOffset,
	}
	for _, col := range ws.columns {
		s.Columns = append(s.Columns, col.snapshot())
	}
	return s
}

func (c *Column) snapshot() ColumnSnapshot {
	s := ColumnSnapshot{
		Windows:      make([]WindowSnapshot, 0, len(c.tiles)),
		ActiveWindow: c.activeIdx,
		WidthKind:    widthKindString(c.width.Kind),
		WidthValue:   c.width.Value,
		X:            c.targetX,
		Width:        c.targetWidth,
	}
	for _, t := range c.tiles {
		s.Windows = append(s.Windows, WindowSnapshot{
			ID:         uint64(t.ID()),
			Title:      t.win.Title(),
			Size:       t.layoutSize,
			Committed:  t.committed,
			Fullscreen: t.fullscreen,
		})
	}
	return s
}
