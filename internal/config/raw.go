package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLayout struct {
	Gap                 *int    `yaml:"gap"`
	MinColumnWidth      *int    `yaml:"min_column_width"`
	MinTileHeight       *int    `yaml:"min_tile_height"`
	DefaultColumnWidth  *string `yaml:"default_column_width"`
	Insert              *string `yaml:"insert"`
	CenterFocusedColumn *string `yaml:"center_focused_column"`
}

type RawFocus struct {
	EdgeLeft  *string `yaml:"edge_left"`
	EdgeRight *string `yaml:"edge_right"`
	EdgeUp    *string `yaml:"edge_up"`
	EdgeDown  *string `yaml:"edge_down"`
}

type RawAnimation struct {
	Duration *time.Duration `yaml:"duration"`
	Curve    *string        `yaml:"curve"`
}

type RawAnimations struct {
	WindowOpen       *RawAnimation  `yaml:"window_open"`
	WindowClose      *RawAnimation  `yaml:"window_close"`
	WindowMovement   *RawAnimation  `yaml:"window_movement"`
	WindowResize     *RawAnimation  `yaml:"window_resize"`
	ViewOffset       *RawAnimation  `yaml:"view_offset"`
	WorkspaceSwitch  *RawAnimation  `yaml:"workspace_switch"`
	ConfigureTimeout *time.Duration `yaml:"configure_timeout"`
}

type RawDebug struct {
	AnimationSlowdown *float64 `yaml:"animation_slowdown"`
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level"`
	Format    *string `yaml:"format"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawMetricsConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Listen  *string `yaml:"listen"`
}

// RawConfig is one file's worth of configuration. Nil fields were not set
// and leave the value underneath them alone.
type RawConfig struct {
	Include           IncludeList             `yaml:"include"`
	Backend           *string                 `yaml:"backend"`
	HeadlessOutputs   []HeadlessOutput        `yaml:"headless_outputs"`
	ReconcileInterval *time.Duration          `yaml:"reconcile_interval"`
	Layout            *RawLayout              `yaml:"layout"`
	Focus             *RawFocus               `yaml:"focus"`
	Animations        *RawAnimations          `yaml:"animations"`
	Debug             *RawDebug               `yaml:"debug"`
	Workspaces        []WorkspaceConfig       `yaml:"workspaces"`
	WindowRules       []WindowRule            `yaml:"window_rules"`
	Bindings          map[string]string       `yaml:"bindings"`
	Outputs           map[string]OutputConfig `yaml:"outputs"`
	SpawnAtStartup    []string                `yaml:"spawn_at_startup"`
	Logging           *RawLoggingConfig       `yaml:"logging"`
	Metrics           *RawMetricsConfig       `yaml:"metrics"`
}

func set[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	set(&out.Backend, overlay.Backend)
	if overlay.HeadlessOutputs != nil {
		out.HeadlessOutputs = overlay.HeadlessOutputs
	}
	set(&out.ReconcileInterval, overlay.ReconcileInterval)

	if overlay.Layout != nil {
		l := RawLayout{}
		if out.Layout != nil {
			l = *out.Layout
		}
		set(&l.Gap, overlay.Layout.Gap)
		set(&l.MinColumnWidth, overlay.Layout.MinColumnWidth)
		set(&l.MinTileHeight, overlay.Layout.MinTileHeight)
		set(&l.DefaultColumnWidth, overlay.Layout.DefaultColumnWidth)
		set(&l.Insert, overlay.Layout.Insert)
		set(&l.CenterFocusedColumn, overlay.Layout.CenterFocusedColumn)
		out.Layout = &l
	}
	if overlay.Focus != nil {
		f := RawFocus{}
		if out.Focus != nil {
			f = *out.Focus
		}
		set(&f.EdgeLeft, overlay.Focus.EdgeLeft)
		set(&f.EdgeRight, overlay.Focus.EdgeRight)
		set(&f.EdgeUp, overlay.Focus.EdgeUp)
		set(&f.EdgeDown, overlay.Focus.EdgeDown)
		out.Focus = &f
	}
	if overlay.Animations != nil {
		a := RawAnimations{}
		if out.Animations != nil {
			a = *out.Animations
		}
		a.WindowOpen = mergeRawAnimation(a.WindowOpen, overlay.Animations.WindowOpen)
		a.WindowClose = mergeRawAnimation(a.WindowClose, overlay.Animations.WindowClose)
		a.WindowMovement = mergeRawAnimation(a.WindowMovement, overlay.Animations.WindowMovement)
		a.WindowResize = mergeRawAnimation(a.WindowResize, overlay.Animations.WindowResize)
		a.ViewOffset = mergeRawAnimation(a.ViewOffset, overlay.Animations.ViewOffset)
		a.WorkspaceSwitch = mergeRawAnimation(a.WorkspaceSwitch, overlay.Animations.WorkspaceSwitch)
		set(&a.ConfigureTimeout, overlay.Animations.ConfigureTimeout)
		out.Animations = &a
	}
	if overlay.Debug != nil {
		d := RawDebug{}
		if out.Debug != nil {
			d = *out.Debug
		}
		set(&d.AnimationSlowdown, overlay.Debug.AnimationSlowdown)
		out.Debug = &d
	}

	if overlay.Workspaces != nil {
		out.Workspaces = overlay.Workspaces
	}
	if overlay.WindowRules != nil {
		// Rules accumulate; later files are matched after earlier ones.
		out.WindowRules = append(append([]WindowRule(nil), out.WindowRules...), overlay.WindowRules...)
	}
	if overlay.Bindings != nil {
		merged := make(map[string]string, len(out.Bindings)+len(overlay.Bindings))
		for key, action := range out.Bindings {
			merged[key] = action
		}
		for key, action := range overlay.Bindings {
			merged[key] = action
		}
		out.Bindings = merged
	}
	if overlay.Outputs != nil {
		merged := make(map[string]OutputConfig, len(out.Outputs)+len(overlay.Outputs))
		for name, o := range out.Outputs {
			merged[name] = o
		}
		for name, o := range overlay.Outputs {
			merged[name] = o
		}
		out.Outputs = merged
	}
	if overlay.SpawnAtStartup != nil {
		out.SpawnAtStartup = overlay.SpawnAtStartup
	}

	if overlay.Logging != nil {
		l := RawLoggingConfig{}
		if out.Logging != nil {
			l = *out.Logging
		}
		set(&l.Level, overlay.Logging.Level)
		set(&l.Format, overlay.Logging.Format)
		set(&l.File, overlay.Logging.File)
		set(&l.MaxSizeMB, overlay.Logging.MaxSizeMB)
		set(&l.MaxFiles, overlay.Logging.MaxFiles)
		out.Logging = &l
	}
	if overlay.Metrics != nil {
		m := RawMetricsConfig{}
		if out.Metrics != nil {
			m = *out.Metrics
		}
		set(&m.Enabled, overlay.Metrics.Enabled)
		set(&m.Listen, overlay.Metrics.Listen)
		out.Metrics = &m
	}
	return out
}

func mergeRawAnimation(base, overlay *RawAnimation) *RawAnimation {
	if overlay == nil {
		return base
	}
	out := RawAnimation{}
	if base != nil {
		out = *base
	}
	set(&out.Duration, overlay.Duration)
	set(&out.Curve, overlay.Curve)
	return &out
}
