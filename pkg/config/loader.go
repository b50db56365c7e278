package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrNegativeGap        = errors.New("gap must not be negative")
	ErrInvalidFraction    = errors.New("column width fraction must be in (0, 1]")
	ErrNegativeStrut      = errors.New("struts must not be negative")
	ErrInvalidSpring      = errors.New("spring stiffness must be positive")
	ErrInvalidSlowdown    = errors.New("animation slowdown must be positive")
	ErrAmbiguousAnimation = errors.New("animation specifies both easing and spring parameters")
	ErrUnknownEnumValue   = errors.New("unknown option value")
)

// Load reads, parses and validates the configuration file. Options absent
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the specified path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Layout.PresetColumnWidths == nil {
		cfg.Layout.PresetColumnWidths = def.Layout.PresetColumnWidths
	}
	if cfg.Layout.CenterFocusedColumn == "" {
		cfg.Layout.CenterFocusedColumn = def.Layout.CenterFocusedColumn
	}
	if cfg.Layout.FocusFollowsScroll == "" {
		cfg.Layout.FocusFollowsScroll = def.Layout.FocusFollowsScroll
	}
}

// Validate rejects malformed option values. The layout engine treats its
// inputs as preconditions and never re-validates, so everything user-made
// must pass through here first.
func Validate(cfg *Config) error {
	l := &cfg.Layout

	if l.Gap < 0 {
		return fmt.Errorf("%w: gap %v", ErrNegativeGap, l.Gap)
	}
	if l.DefaultColumnWidth <= 0 || l.DefaultColumnWidth > 1 {
		return fmt.Errorf("%w: default_column_width %v", ErrInvalidFraction, l.DefaultColumnWidth)
	}
	if len(l.PresetColumnWidths) == 0 {
		return fmt.Errorf("%w: preset_column_widths must not be empty", ErrInvalidFraction)
	}
	for _, w := range l.PresetColumnWidths {
		if w <= 0 || w > 1 {
			return fmt.Errorf("%w: preset width %v", ErrInvalidFraction, w)
		}
	}
	if l.Struts.Left < 0 || l.Struts.Right < 0 || l.Struts.Top < 0 || l.Struts.Bottom < 0 {
		return fmt.Errorf("%w: %+v", ErrNegativeStrut, l.Struts)
	}

	switch l.CenterFocusedColumn {
	case CenterNever, CenterAlways, CenterOnOverflow:
	default:
		return fmt.Errorf("%w: center_focused_column %q", ErrUnknownEnumValue, l.CenterFocusedColumn)
	}
	switch l.FocusFollowsScroll {
	case ScrollFocusNever, ScrollFocusAlways:
	default:
		return fmt.Errorf("%w: focus_follows_scroll %q", ErrUnknownEnumValue, l.FocusFollowsScroll)
	}

	a := &cfg.Animations
	if a.Slowdown <= 0 {
		return fmt.Errorf("%w: slowdown %v", ErrInvalidSlowdown, a.Slowdown)
	}

	kinds := []struct {
		name string
		anim Animation
	}{
		{"workspace_switch", a.WorkspaceSwitch},
		{"window_open", a.WindowOpen},
		{"window_close", a.WindowClose},
		{"horizontal_view_movement", a.HorizontalViewMovement},
		{"window_movement", a.WindowMovement},
		{"window_resize", a.WindowResize},
	}
	for _, k := range kinds {
		if err := validateAnimation(k.name, k.anim); err != nil {
			return err
		}
	}
	return nil
}

func validateAnimation(name string, a Animation) error {
	if a.Spring != nil {
		if a.DurationMs != 0 || a.Curve != "" {
			return fmt.Errorf("%w: %s", ErrAmbiguousAnimation, name)
		}
		if a.Spring.Stiffness <= 0 {
			return fmt.Errorf("%w: %s stiffness %v", ErrInvalidSpring, name, a.Spring.Stiffness)
		}
		if a.Spring.DampingRatio <= 0 {
			return fmt.Errorf("%w: %s damping_ratio %v", ErrInvalidSpring, name, a.Spring.DampingRatio)
		}
		if a.Spring.Epsilon <= 0 {
			return fmt.Errorf("%w: %s epsilon %v", ErrInvalidSpring, name, a.Spring.Epsilon)
		}
		return nil
	}

	if _, err := a.Resolve(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
