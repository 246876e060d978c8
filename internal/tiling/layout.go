package tiling

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rect represents a window position and size
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Intersects reports whether r and o overlap by at least one pixel.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// Size is a width/height pair in logical pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SizeKind selects how a column width or tile height is derived.
type SizeKind int

const (
	SizeWeighted SizeKind = iota
	SizeFixed
	SizeAuto
)

func (k SizeKind) String() string {
	switch k {
	case SizeFixed:
		return "fixed"
	case SizeAuto:
		return "auto"
	default:
		return "weighted"
	}
}

// SizePolicy is a column width or tile height policy.
type SizePolicy struct {
	Kind   SizeKind
	Weight float64
	Pixels int
}

// Weighted returns a proportional policy.
func Weighted(w float64) SizePolicy {
	return SizePolicy{Kind: SizeWeighted, Weight: w}
}

// Fixed returns a fixed pixel policy.
func Fixed(px int) SizePolicy {
	return SizePolicy{Kind: SizeFixed, Pixels: px}
}

// Auto returns a policy that follows the window's preferred size.
func Auto() SizePolicy {
	return SizePolicy{Kind: SizeAuto}
}

func (p SizePolicy) String() string {
	switch p.Kind {
	case SizeFixed:
		return strconv.Itoa(p.Pixels) + "px"
	case SizeAuto:
		return "auto"
	default:
		return strconv.FormatFloat(p.Weight*100, 'f', 1, 64) + "%"
	}
}

// ParseSizePolicy parses "weighted", "auto", "N", "Npx" or "N%".
func ParseSizePolicy(s string) (SizePolicy, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "weighted":
		return Weighted(1), nil
	case "auto":
		return Auto(), nil
	}
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil || v <= 0 || v > 100 {
			return SizePolicy{}, fmt.Errorf("invalid proportion %q", s)
		}
		return Weighted(v / 100), nil
	}
	px, err := strconv.Atoi(strings.TrimSuffix(s, "px"))
	if err != nil || px <= 0 {
		return SizePolicy{}, fmt.Errorf("invalid size %q", s)
	}
	return Fixed(px), nil
}

// Span is one item on a layout axis.
type Span struct {
	Policy  SizePolicy
	Natural int
	Min     int
	Max     int
}

// SolveSpans distributes available pixels along one axis.
//
// Fixed spans take their pixels, auto spans take their natural size (capped at
// available) and weighted spans share whatever is left after the fixed, auto
// and inter-span gaps, proportionally to their normalised weights. Weighted
// shares use cumulative rounding so they add up to the remainder exactly.
// Every result is then clamped to max(floor, Min) and, when set, Max.
func SolveSpans(spans []Span, available, gap, floor int) []int {
	n := len(spans)
	if n == 0 {
		return nil
	}

	out := make([]int, n)
	remaining := available - gap*(n-1)
	weightSum := 0.0
	weighted := 0

	for i, s := range spans {
		switch s.Policy.Kind {
		case SizeFixed:
			out[i] = s.Policy.Pixels
			remaining -= out[i]
		case SizeAuto:
			out[i] = min(max(s.Natural, 0), available)
			remaining -= out[i]
		default:
			weighted++
			if s.Policy.Weight > 0 {
				weightSum += s.Policy.Weight
			}
		}
	}

	if weighted > 0 {
		if remaining < 0 {
			remaining = 0
		}
		cum := 0.0
		prev := 0
		for i, s := range spans {
			if s.Policy.Kind != SizeWeighted {
				continue
			}
			share := 1 / float64(weighted)
			if weightSum > 0 {
				share = max(s.Policy.Weight, 0) / weightSum
			}
			cum += share
			edge := int(math.Round(cum * float64(remaining)))
			out[i] = edge - prev
			prev = edge
		}
	}

	for i, s := range spans {
		out[i] = clampSpan(out[i], s, floor)
	}
	return out
}

func clampSpan(v int, s Span, floor int) int {
	lo := max(floor, s.Min, 1)
	if s.Max > 0 && v > s.Max {
		v = s.Max
	}
	if v < lo {
		v = lo
	}
	return v
}

// normalizeWeights rescales ws in place so the entries sum to 1. All-zero
// input is spread evenly.
func normalizeWeights(ws []float64) {
	if len(ws) == 0 {
		return
	}
	sum := 0.0
	for _, w := range ws {
		sum += w
	}
	for i := range ws {
		if sum <= 0 {
			ws[i] = 1 / float64(len(ws))
		} else {
			ws[i] /= sum
		}
	}
}

const (
	minWeight = 0.05
	maxWeight = 0.95
)

// setWeight gives ws[idx] the share p and scales the others to fill the rest.
func setWeight(ws []float64, idx int, p float64) {
	if len(ws) == 1 {
		ws[0] = 1
		return
	}
	p = math.Min(math.Max(p, minWeight), maxWeight)
	rest := 0.0
	for i, w := range ws {
		if i != idx {
			rest += w
		}
	}
	for i := range ws {
		switch {
		case i == idx:
			ws[i] = p
		case rest <= 0:
			ws[i] = (1 - p) / float64(len(ws)-1)
		default:
			ws[i] = ws[i] / rest * (1 - p)
		}
	}
}

// insertWeight gives ws[idx], a newly inserted entry, a 1/k share.
func insertWeight(ws []float64, idx int) {
	k := float64(len(ws))
	for i := range ws {
		if i != idx {
			ws[i] *= 1 - 1/k
		}
	}
	ws[idx] = 1 / k
	normalizeWeights(ws)
}
