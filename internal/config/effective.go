package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func get[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	get(&cfg.Backend, raw.Backend)
	if raw.HeadlessOutputs != nil {
		cfg.HeadlessOutputs = raw.HeadlessOutputs
	}
	get(&cfg.ReconcileInterval, raw.ReconcileInterval)

	if l := raw.Layout; l != nil {
		get(&cfg.Layout.Gap, l.Gap)
		get(&cfg.Layout.MinColumnWidth, l.MinColumnWidth)
		get(&cfg.Layout.MinTileHeight, l.MinTileHeight)
		get(&cfg.Layout.DefaultColumnWidth, l.DefaultColumnWidth)
		get(&cfg.Layout.Insert, l.Insert)
		get(&cfg.Layout.CenterFocusedColumn, l.CenterFocusedColumn)
	}
	if f := raw.Focus; f != nil {
		get(&cfg.Focus.EdgeLeft, f.EdgeLeft)
		get(&cfg.Focus.EdgeRight, f.EdgeRight)
		get(&cfg.Focus.EdgeUp, f.EdgeUp)
		get(&cfg.Focus.EdgeDown, f.EdgeDown)
	}
	if a := raw.Animations; a != nil {
		applyAnimation(&cfg.Animations.WindowOpen, a.WindowOpen)
		applyAnimation(&cfg.Animations.WindowClose, a.WindowClose)
		applyAnimation(&cfg.Animations.WindowMovement, a.WindowMovement)
		applyAnimation(&cfg.Animations.WindowResize, a.WindowResize)
		applyAnimation(&cfg.Animations.ViewOffset, a.ViewOffset)
		applyAnimation(&cfg.Animations.WorkspaceSwitch, a.WorkspaceSwitch)
		get(&cfg.Animations.ConfigureTimeout, a.ConfigureTimeout)
	}
	if d := raw.Debug; d != nil {
		get(&cfg.Debug.AnimationSlowdown, d.AnimationSlowdown)
	}

	if raw.Workspaces != nil {
		cfg.Workspaces = raw.Workspaces
	}
	if raw.WindowRules != nil {
		cfg.WindowRules = raw.WindowRules
	}
	// A binding set to an empty string removes the default for that key.
	for key, action := range raw.Bindings {
		if action == "" {
			delete(cfg.Bindings, key)
			continue
		}
		cfg.Bindings[key] = action
	}
	for name, o := range raw.Outputs {
		cfg.Outputs[name] = o
	}
	if raw.SpawnAtStartup != nil {
		cfg.SpawnAtStartup = raw.SpawnAtStartup
	}

	if l := raw.Logging; l != nil {
		get(&cfg.Logging.Level, l.Level)
		get(&cfg.Logging.Format, l.Format)
		get(&cfg.Logging.File, l.File)
		get(&cfg.Logging.MaxSizeMB, l.MaxSizeMB)
		get(&cfg.Logging.MaxFiles, l.MaxFiles)
	}
	if m := raw.Metrics; m != nil {
		get(&cfg.Metrics.Enabled, m.Enabled)
		get(&cfg.Metrics.Listen, m.Listen)
	}
	return cfg
}

func applyAnimation(dst *AnimationConfig, raw *RawAnimation) {
	if raw == nil {
		return
	}
	get(&dst.Duration, raw.Duration)
	get(&dst.Curve, raw.Curve)
}
