package config

import (
	"github.com/fuchaoran001/niri/pkg/animation"
)

// Config is the root of the recognized configuration surface. Everything
// the layout engine consumes at workspace, column and window creation time
// comes through here; option syntax beyond this structure is rejected by
// the loader.
type Config struct {
	Layout     Layout     `yaml:"layout"`
	Animations Animations `yaml:"animations"`
}

type Layout struct {
	Gap                      float64   `yaml:"gap"`                  // logical px between tiles
	DefaultColumnWidth       float64   `yaml:"default_column_width"` // fraction of working width
	PresetColumnWidths       []float64 `yaml:"preset_column_widths"`
	AlwaysCenterSingleColumn bool      `yaml:"always_center_single_column"`
	CenterFocusedColumn      string    `yaml:"center_focused_column"` // never | always | on-overflow
	FocusFollowsScroll       string    `yaml:"focus_follows_scroll"`  // never | always
	Struts                   Struts    `yaml:"struts"`
}

// Struts reserve space along output edges for external panels; the
// reserved area is excluded from the working area tiles lay out in.
type Struts struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
}

type Animations struct {
	Off      bool    `yaml:"off"`
	Slowdown float64 `yaml:"slowdown"`

	WorkspaceSwitch        Animation `yaml:"workspace_switch"`
	WindowOpen             Animation `yaml:"window_open"`
	WindowClose            Animation `yaml:"window_close"`
	HorizontalViewMovement Animation `yaml:"horizontal_view_movement"`
	WindowMovement         Animation `yaml:"window_movement"`
	WindowResize           Animation `yaml:"window_resize"`
}

// Animation configures one animation kind. Exactly one motion model
// applies: either the easing fields or the spring block.
type Animation struct {
	Off        bool    `yaml:"off"`
	DurationMs uint32  `yaml:"duration_ms,omitempty"`
	Curve      string  `yaml:"curve,omitempty"`
	Spring     *Spring `yaml:"spring,omitempty"`
}

type Spring struct {
	DampingRatio float64 `yaml:"damping_ratio"`
	Stiffness    float64 `yaml:"stiffness"`
	Epsilon      float64 `yaml:"epsilon"`
}

// CenterFocusedColumn values.
const (
	CenterNever      = "never"
	CenterAlways     = "always"
	CenterOnOverflow = "on-overflow"
)

// FocusFollowsScroll values.
const (
	ScrollFocusNever  = "never"
	ScrollFocusAlways = "always"
)

// DefaultConfig returns the built-in defaults. Load unmarshals the user's
// file over these, so absent options keep their default while explicit
// zero values stick.
func DefaultConfig() *Config {
	return &Config{
		Layout: Layout{
			Gap:                 16,
			DefaultColumnWidth:  0.5,
			PresetColumnWidths:  []float64{1. / 3., 1. / 2., 2. / 3.},
			CenterFocusedColumn: CenterNever,
			FocusFollowsScroll:  ScrollFocusNever,
		},
		Animations: Animations{
			Slowdown:               1.0,
			WorkspaceSwitch:        springAnimation(1.0, 1000, 0.0001),
			WindowOpen:             easeAnimation(150, animation.EaseOutExpo),
			WindowClose:            easeAnimation(100, animation.EaseOutQuad),
			HorizontalViewMovement: springAnimation(1.0, 800, 0.0001),
			WindowMovement:         springAnimation(1.0, 800, 0.0001),
			WindowResize:           springAnimation(1.0, 800, 0.0001),
		},
	}
}

func springAnimation(dampingRatio, stiffness, epsilon float64) Animation {
	return Animation{
		Spring: &Spring{
			DampingRatio: dampingRatio,
			Stiffness:    stiffness,
			Epsilon:      epsilon,
		},
	}
}

func easeAnimation(durationMs uint32, curve animation.Curve) Animation {
	return Animation{DurationMs: durationMs, Curve: curve.String()}
}

// Resolve converts the animation entry into the engine's representation.
func (a Animation) Resolve() (animation.Config, error) {
	if a.Spring != nil {
		cfg := animation.SpringConfig(a.Spring.DampingRatio, a.Spring.Stiffness, a.Spring.Epsilon)
		cfg.Off = a.Off
		return cfg, nil
	}

	curve, err := animation.ParseCurve(a.Curve)
	if err != nil {
		return animation.Config{}, err
	}
	cfg := animation.EaseConfig(a.DurationMs, curve)
	cfg.Off = a.Off
	return cfg, nil
}
