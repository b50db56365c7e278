package layout

import (
	"github.com/fuchaoran001/niri/pkg/animation"
	"github.com/fuchaoran001/niri/pkg/config"
)

// CenterMode says when the view centers the active column.
type CenterMode int

const (
	// CenterNever keeps the default bring-into-view scrolling.
	CenterNever CenterMode = iota
	// CenterAlways centers the active column on every activation.
	CenterAlways
	// CenterOnOverflow centers only when the previously and newly active
	// columns cannot both fit in the view.
	CenterOnOverflow
)

// AnimationSet carries resolved parameters for every animation kind.
type AnimationSet struct {
	WorkspaceSwitch        animation.Config
	WindowOpen             animation.Config
	WindowClose            animation.Config
	HorizontalViewMovement animation.Config
	WindowMovement         animation.Config
	WindowResize           animation.Config
}

// Struts reserve space along output edges. The working area tiles lay
// out in excludes the reserved bands.
type Struts struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Options is the engine-facing form of the configuration. The engine
// never reads config files itself; the embedder resolves one of these
// and hands it over at construction and on live reloads.
type Options struct {
	Gap                      float64
	DefaultColumnWidth       Width
	PresetColumnWidths       []Width
	AlwaysCenterSingleColumn bool
	CenterFocusedColumn      CenterMode
	FocusFollowsScroll       bool
	Struts                   Struts

	AnimationsOff bool
	Slowdown      float64
	Anims         AnimationSet
}

// OptionsFromConfig resolves a validated configuration into engine
// options. A globally disabled animation section switches every kind
// off, which makes animations complete instantly while keeping all
// state transitions intact.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	o := Options{
		Gap:                      cfg.Layout.Gap,
		DefaultColumnWidth:       ProportionWidth(cfg.Layout.DefaultColumnWidth),
		AlwaysCenterSingleColumn: cfg.Layout.AlwaysCenterSingleColumn,
		FocusFollowsScroll:       cfg.Layout.FocusFollowsScroll == config.ScrollFocusAlways,
		Struts: Struts{
			Left:   cfg.Layout.Struts.Left,
			Right:  cfg.Layout.Struts.Right,
			Top:    cfg.Layout.Struts.Top,
			Bottom: cfg.Layout.Struts.Bottom,
		},
		AnimationsOff: cfg.Animations.Off,
		Slowdown:      cfg.Animations.Slowdown,
	}

	for _, f := range cfg.Layout.PresetColumnWidths {
		o.PresetColumnWidths = append(o.PresetColumnWidths, ProportionWidth(f))
	}

	switch cfg.Layout.CenterFocusedColumn {
	case config.CenterAlways:
		o.CenterFocusedColumn = CenterAlways
	case config.CenterOnOverflow:
		o.CenterFocusedColumn = CenterOnOverflow
	default:
		o.CenterFocusedColumn = CenterNever
	}

	var firstErr error
	resolve := func(a config.Animation) animation.Config {
		c, err := a.Resolve()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if cfg.Animations.Off {
			c.Off = true
		}
		return c
	}
	o.Anims = AnimationSet{
		WorkspaceSwitch:        resolve(cfg.Animations.WorkspaceSwitch),
		WindowOpen:             resolve(cfg.Animations.WindowOpen),
		WindowClose:            resolve(cfg.Animations.WindowClose),
		HorizontalViewMovement: resolve(cfg.Animations.HorizontalViewMovement),
		WindowMovement:         resolve(cfg.Animations.WindowMovement),
		WindowResize:           resolve(cfg.Animations.WindowResize),
	}
	if firstErr != nil {
		return Options{}, firstErr
	}
	return o, nil
}

// DefaultOptions resolves the built-in configuration defaults.
func DefaultOptions() Options {
	o, _ := OptionsFromConfig(config.DefaultConfig())
	return o
}
