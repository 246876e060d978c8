package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/animation"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

// Backend names accepted by the backend key.
const (
	BackendAuto     = "auto"
	BackendX11      = "x11"
	BackendHeadless = "headless"
)

// LayoutConfig controls column and tile sizing.
type LayoutConfig struct {
	Gap                 int    `yaml:"gap"`
	MinColumnWidth      int    `yaml:"min_column_width"`
	MinTileHeight       int    `yaml:"min_tile_height"`
	DefaultColumnWidth  string `yaml:"default_column_width"` // weighted, auto, N, Npx or N%
	Insert              string `yaml:"insert"`
	CenterFocusedColumn string `yaml:"center_focused_column"`
}

// FocusConfig holds what focus and move do past an edge.
type FocusConfig struct {
	EdgeLeft  string `yaml:"edge_left"`  // stop | output
	EdgeRight string `yaml:"edge_right"` // stop | output
	EdgeUp    string `yaml:"edge_up"`    // stop | workspace
	EdgeDown  string `yaml:"edge_down"`  // stop | workspace
}

// AnimationConfig is one animation kind.
type AnimationConfig struct {
	Duration time.Duration `yaml:"duration"`
	Curve    string        `yaml:"curve"`
}

// AnimationsConfig groups every animation kind.
type AnimationsConfig struct {
	WindowOpen       AnimationConfig `yaml:"window_open"`
	WindowClose      AnimationConfig `yaml:"window_close"`
	WindowMovement   AnimationConfig `yaml:"window_movement"`
	WindowResize     AnimationConfig `yaml:"window_resize"`
	ViewOffset       AnimationConfig `yaml:"view_offset"`
	WorkspaceSwitch  AnimationConfig `yaml:"workspace_switch"`
	ConfigureTimeout time.Duration   `yaml:"configure_timeout"`
}

type DebugConfig struct {
	AnimationSlowdown float64 `yaml:"animation_slowdown"`
}

// WorkspaceConfig declares a named workspace.
type WorkspaceConfig struct {
	Name   string `yaml:"name"`
	Output string `yaml:"output,omitempty"`
}

// OutputConfig overrides where an output sits in the global space.
type OutputConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// HeadlessOutput is an output the headless backend pretends to have.
type HeadlessOutput struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Refresh int    `yaml:"refresh"` // mHz
}

// LoggingConfig configures the daemon's logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is auto, text or json. auto uses the colored console handler
	// when stderr is a terminal.
	Format string `yaml:"format"`
	// File, when set, receives a copy of every record.
	File      string `yaml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Config is the effective configuration after defaults, includes and
// overrides have been merged.
type Config struct {
	Backend           string                  `yaml:"backend"`
	HeadlessOutputs   []HeadlessOutput        `yaml:"headless_outputs"`
	ReconcileInterval time.Duration           `yaml:"reconcile_interval"`
	Layout            LayoutConfig            `yaml:"layout"`
	Focus             FocusConfig             `yaml:"focus"`
	Animations        AnimationsConfig        `yaml:"animations"`
	Debug             DebugConfig             `yaml:"debug"`
	Workspaces        []WorkspaceConfig       `yaml:"workspaces"`
	WindowRules       []WindowRule            `yaml:"window_rules"`
	Bindings          map[string]string       `yaml:"bindings"`
	Outputs           map[string]OutputConfig `yaml:"outputs"`
	SpawnAtStartup    []string                `yaml:"spawn_at_startup"`
	Logging           LoggingConfig           `yaml:"logging"`
	Metrics           MetricsConfig           `yaml:"metrics"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	opts := tiling.DefaultOptions()
	anim := func(p animation.Params) AnimationConfig {
		return AnimationConfig{Duration: p.Duration, Curve: string(p.Curve)}
	}
	return &Config{
		Backend: BackendAuto,
		HeadlessOutputs: []HeadlessOutput{
			{Name: "HEADLESS-1", Width: 1920, Height: 1080, Refresh: 60000},
		},
		ReconcileInterval: 5 * time.Second,
		Layout: LayoutConfig{
			Gap:                 opts.Gap,
			MinColumnWidth:      opts.MinColumnWidth,
			MinTileHeight:       opts.MinTileHeight,
			DefaultColumnWidth:  "weighted",
			Insert:              opts.Insert.String(),
			CenterFocusedColumn: string(opts.CenterFocusedColumn),
		},
		Focus: FocusConfig{
			EdgeLeft:  string(opts.EdgeLeft),
			EdgeRight: string(opts.EdgeRight),
			EdgeUp:    string(opts.EdgeUp),
			EdgeDown:  string(opts.EdgeDown),
		},
		Animations: AnimationsConfig{
			WindowOpen:       anim(opts.Animations.WindowOpen),
			WindowClose:      anim(opts.Animations.WindowClose),
			WindowMovement:   anim(opts.Animations.WindowMovement),
			WindowResize:     anim(opts.Animations.WindowResize),
			ViewOffset:       anim(opts.Animations.ViewOffset),
			WorkspaceSwitch:  anim(opts.Animations.WorkspaceSwitch),
			ConfigureTimeout: opts.Animations.ConfigureTimeout,
		},
		Debug: DebugConfig{AnimationSlowdown: opts.Slowdown},
		Bindings: map[string]string{
			"Mod4-h":         string(actions.FocusColumnLeft),
			"Mod4-l":         string(actions.FocusColumnRight),
			"Mod4-j":         string(actions.FocusWindowDown),
			"Mod4-k":         string(actions.FocusWindowUp),
			"Mod4-Shift-h":   string(actions.MoveColumnLeft),
			"Mod4-Shift-l":   string(actions.MoveColumnRight),
			"Mod4-Shift-j":   string(actions.MoveWindowDown),
			"Mod4-Shift-k":   string(actions.MoveWindowUp),
			"Mod4-comma":     string(actions.ConsumeWindowLeft),
			"Mod4-period":    string(actions.ExpelWindow),
			"Mod4-c":         string(actions.CenterColumn),
			"Mod4-f":         string(actions.FullscreenToggle),
			"Mod4-q":         string(actions.CloseWindow),
			"Mod4-minus":     "resize width -10%",
			"Mod4-equal":     "resize width +10%",
			"Mod4-Page_Up":   "switch-workspace up",
			"Mod4-Page_Down": "switch-workspace down",
		},
		Outputs: map[string]OutputConfig{},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "auto",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9464",
		},
	}
}

// DefaultConfigPath returns ~/.config/scrolltile/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "scrolltile", "config.yaml"), nil
}

// Validate checks every value and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendX11, BackendHeadless:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: auto, x11, headless")}
	}
	seenOutputs := map[string]bool{}
	for i, o := range c.HeadlessOutputs {
		path := fmt.Sprintf("headless_outputs[%d]", i)
		if strings.TrimSpace(o.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("name is required")}
		}
		if seenOutputs[o.Name] {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate output %q", o.Name)}
		}
		seenOutputs[o.Name] = true
		if o.Width <= 0 || o.Height <= 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("width and height must be > 0")}
		}
		if o.Refresh < 0 {
			return &ValidationError{Path: path + ".refresh", Err: fmt.Errorf("refresh must be >= 0")}
		}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}

	if c.Layout.Gap < 0 {
		return &ValidationError{Path: "layout.gap", Err: fmt.Errorf("gap must be >= 0")}
	}
	if c.Layout.MinColumnWidth < 1 {
		return &ValidationError{Path: "layout.min_column_width", Err: fmt.Errorf("min_column_width must be >= 1")}
	}
	if c.Layout.MinTileHeight < 1 {
		return &ValidationError{Path: "layout.min_tile_height", Err: fmt.Errorf("min_tile_height must be >= 1")}
	}
	if _, err := tiling.ParseSizePolicy(c.Layout.DefaultColumnWidth); err != nil {
		return &ValidationError{Path: "layout.default_column_width", Err: err}
	}
	if _, err := tiling.ParseInsertHint(c.Layout.Insert); err != nil {
		return &ValidationError{Path: "layout.insert", Err: err}
	}
	switch tiling.CenterMode(c.Layout.CenterFocusedColumn) {
	case tiling.CenterNever, tiling.CenterAlways:
	default:
		return &ValidationError{Path: "layout.center_focused_column", Err: fmt.Errorf("center_focused_column must be one of: never, always")}
	}

	horizontal := map[string]string{"focus.edge_left": c.Focus.EdgeLeft, "focus.edge_right": c.Focus.EdgeRight}
	for path, v := range horizontal {
		if p := tiling.EdgePolicy(v); p != tiling.EdgeStop && p != tiling.EdgeOutput {
			return &ValidationError{Path: path, Err: fmt.Errorf("must be one of: stop, output")}
		}
	}
	vertical := map[string]string{"focus.edge_up": c.Focus.EdgeUp, "focus.edge_down": c.Focus.EdgeDown}
	for path, v := range vertical {
		if p := tiling.EdgePolicy(v); p != tiling.EdgeStop && p != tiling.EdgeWorkspace {
			return &ValidationError{Path: path, Err: fmt.Errorf("must be one of: stop, workspace")}
		}
	}

	for _, kind := range c.animationKinds() {
		path := "animations." + kind.name
		if kind.cfg.Duration < 0 {
			return &ValidationError{Path: path + ".duration", Err: fmt.Errorf("duration must be >= 0")}
		}
		if _, err := animation.ParseCurve(kind.cfg.Curve); err != nil {
			return &ValidationError{Path: path + ".curve", Err: err}
		}
	}
	if c.Animations.ConfigureTimeout <= 0 {
		return &ValidationError{Path: "animations.configure_timeout", Err: fmt.Errorf("configure_timeout must be > 0")}
	}
	if c.Debug.AnimationSlowdown <= 0 {
		return &ValidationError{Path: "debug.animation_slowdown", Err: fmt.Errorf("animation_slowdown must be > 0")}
	}

	seenWS := map[string]bool{}
	for i, ws := range c.Workspaces {
		path := fmt.Sprintf("workspaces[%d].name", i)
		if strings.TrimSpace(ws.Name) == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("name is required")}
		}
		if seenWS[ws.Name] {
			return &ValidationError{Path: path, Err: fmt.Errorf("duplicate workspace %q", ws.Name)}
		}
		seenWS[ws.Name] = true
	}
	for i := range c.WindowRules {
		if err := c.WindowRules[i].validate(); err != nil {
			err.Path = fmt.Sprintf("window_rules[%d]%s", i, err.Path)
			return err
		}
	}

	keys := make([]string, 0, len(c.Bindings))
	for key := range c.Bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{Path: "bindings", Err: fmt.Errorf("bindings contains an empty key")}
		}
		if _, err := actions.Parse(c.Bindings[key]); err != nil {
			return &ValidationError{Path: "bindings." + key, Err: err}
		}
	}
	for i, cmd := range c.SpawnAtStartup {
		if strings.TrimSpace(cmd) == "" {
			return &ValidationError{Path: fmt.Sprintf("spawn_at_startup[%d]", i), Err: fmt.Errorf("command must not be empty")}
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be one of: auto, text, json")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		return &ValidationError{Path: "metrics.listen", Err: fmt.Errorf("listen is required when metrics are enabled")}
	}
	return nil
}

type animationKind struct {
	name string
	cfg  AnimationConfig
}

func (c *Config) animationKinds() []animationKind {
	a := c.Animations
	return []animationKind{
		{"window_open", a.WindowOpen},
		{"window_close", a.WindowClose},
		{"window_movement", a.WindowMovement},
		{"window_resize", a.WindowResize},
		{"view_offset", a.ViewOffset},
		{"workspace_switch", a.WorkspaceSwitch},
	}
}

// EngineOptions converts the configuration into layout engine options. The
// config must have been validated.
func (c *Config) EngineOptions() (tiling.Options, error) {
	opts := tiling.DefaultOptions()
	opts.Gap = c.Layout.Gap
	opts.MinColumnWidth = c.Layout.MinColumnWidth
	opts.MinTileHeight = c.Layout.MinTileHeight

	width, err := tiling.ParseSizePolicy(c.Layout.DefaultColumnWidth)
	if err != nil {
		return opts, &ValidationError{Path: "layout.default_column_width", Err: err}
	}
	opts.DefaultColumnWidth = width
	if opts.Insert, err = tiling.ParseInsertHint(c.Layout.Insert); err != nil {
		return opts, &ValidationError{Path: "layout.insert", Err: err}
	}
	opts.CenterFocusedColumn = tiling.CenterMode(c.Layout.CenterFocusedColumn)
	opts.EdgeLeft = tiling.EdgePolicy(c.Focus.EdgeLeft)
	opts.EdgeRight = tiling.EdgePolicy(c.Focus.EdgeRight)
	opts.EdgeUp = tiling.EdgePolicy(c.Focus.EdgeUp)
	opts.EdgeDown = tiling.EdgePolicy(c.Focus.EdgeDown)

	params := make([]animation.Params, 0, 6)
	for _, kind := range c.animationKinds() {
		curve, err := animation.ParseCurve(kind.cfg.Curve)
		if err != nil {
			return opts, &ValidationError{Path: "animations." + kind.name + ".curve", Err: err}
		}
		params = append(params, animation.Params{Duration: kind.cfg.Duration, Curve: curve})
	}
	opts.Animations = tiling.Animations{
		WindowOpen:       params[0],
		WindowClose:      params[1],
		WindowMovement:   params[2],
		WindowResize:     params[3],
		ViewOffset:       params[4],
		WorkspaceSwitch:  params[5],
		ConfigureTimeout: c.Animations.ConfigureTimeout,
	}
	opts.Slowdown = c.Debug.AnimationSlowdown

	opts.Workspaces = make([]tiling.NamedWorkspace, 0, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		opts.Workspaces = append(opts.Workspaces, tiling.NamedWorkspace{Name: ws.Name, Output: ws.Output})
	}
	opts.OutputPositions = make(map[string]tiling.Point, len(c.Outputs))
	for name, o := range c.Outputs {
		opts.OutputPositions[name] = tiling.Point{X: o.X, Y: o.Y}
	}
	return opts, nil
}

// Rules compiles the window rules.
func (c *Config) Rules() (*RuleSet, error) {
	return compileRules(c.WindowRules)
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
