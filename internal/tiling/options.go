package tiling

import (
	"fmt"
	"time"

	"github.com/1broseidon/scrolltile/internal/animation"
)

// InsertHint chooses where a newly mapped window goes relative to the focus.
type InsertHint int

const (
	InsertUnset InsertHint = iota
	InsertNewColumn
	InsertStackAbove
	InsertStackBelow
)

func (h InsertHint) String() string {
	switch h {
	case InsertNewColumn:
		return "new-column"
	case InsertStackAbove:
		return "stack-above"
	case InsertStackBelow:
		return "stack-below"
	default:
		return "unset"
	}
}

// ParseInsertHint parses new-column, stack-above or stack-below.
func ParseInsertHint(s string) (InsertHint, error) {
	switch s {
	case "new-column":
		return InsertNewColumn, nil
	case "stack-above":
		return InsertStackAbove, nil
	case "stack-below":
		return InsertStackBelow, nil
	default:
		return InsertUnset, fmt.Errorf("unknown insert hint %q (expected new-column, stack-above or stack-below)", s)
	}
}

// EdgePolicy decides what focus or move does past the last column or tile.
type EdgePolicy string

const (
	EdgeStop      EdgePolicy = "stop"
	EdgeOutput    EdgePolicy = "output"
	EdgeWorkspace EdgePolicy = "workspace"
)

// CenterMode controls how the view follows the active column.
type CenterMode string

const (
	CenterNever  CenterMode = "never"
	CenterAlways CenterMode = "always"
)

// Animations holds per-kind animation parameters.
type Animations struct {
	WindowOpen      animation.Params
	WindowClose     animation.Params
	WindowMovement  animation.Params
	WindowResize    animation.Params
	ViewOffset      animation.Params
	WorkspaceSwitch animation.Params

	// ConfigureTimeout bounds how long a tile waits for a configure ack
	// before its requested size is committed anyway.
	ConfigureTimeout time.Duration
}

// NamedWorkspace is a persistent workspace declared up front.
type NamedWorkspace struct {
	Name   string
	Output string
}

// Point is a logical position.
type Point struct {
	X int
	Y int
}

// Options are the policy values the engine reads. They are replaced wholesale
// between frames via SetOptions.
type Options struct {
	Gap                 int
	MinColumnWidth      int
	MinTileHeight       int
	DefaultColumnWidth  SizePolicy
	Insert              InsertHint
	CenterFocusedColumn CenterMode

	EdgeLeft  EdgePolicy
	EdgeRight EdgePolicy
	EdgeUp    EdgePolicy
	EdgeDown  EdgePolicy

	Animations Animations
	// Slowdown multiplies every animation duration.
	Slowdown float64

	Workspaces      []NamedWorkspace
	OutputPositions map[string]Point
}

// DefaultOptions returns the built-in policy.
func DefaultOptions() Options {
	ease := func(ms int) animation.Params {
		return animation.Params{Duration: time.Duration(ms) * time.Millisecond, Curve: animation.CurveEaseOutCubic}
	}
	return Options{
		Gap:                 8,
		MinColumnWidth:      400,
		MinTileHeight:       100,
		DefaultColumnWidth:  Weighted(1),
		Insert:              InsertNewColumn,
		CenterFocusedColumn: CenterNever,
		EdgeLeft:            EdgeStop,
		EdgeRight:           EdgeStop,
		EdgeUp:              EdgeStop,
		EdgeDown:            EdgeStop,
		Animations: Animations{
			WindowOpen:       ease(150),
			WindowClose:      ease(150),
			WindowMovement:   ease(250),
			WindowResize:     ease(250),
			ViewOffset:       animation.Params{Duration: 250 * time.Millisecond, Curve: animation.CurveEaseOutExpo},
			WorkspaceSwitch:  ease(250),
			ConfigureTimeout: 250 * time.Millisecond,
		},
		Slowdown: 1,
	}
}

func (o Options) params(p animation.Params) animation.Params {
	return p.Scaled(o.Slowdown)
}

func (o Options) configureTimeout() time.Duration {
	if o.Animations.ConfigureTimeout <= 0 {
		return 250 * time.Millisecond
	}
	return o.Animations.ConfigureTimeout
}
