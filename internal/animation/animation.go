// Package animation interpolates scalar values over monotonic time.
//
// A Value never schedules anything itself. Callers pass the current
// timestamp (time since an arbitrary origin) into every query, so the same
// Value always yields the same result for the same timestamp.
package animation

import (
	"fmt"
	"math"
	"time"
)

// Curve names an easing function.
type Curve string

const (
	CurveLinear         Curve = "linear"
	CurveEaseOutCubic   Curve = "ease-out-cubic"
	CurveEaseOutExpo    Curve = "ease-out-expo"
	CurveEaseInOutCubic Curve = "ease-in-out-cubic"
)

// ParseCurve validates a curve name.
func ParseCurve(name string) (Curve, error) {
	switch Curve(name) {
	case CurveLinear, CurveEaseOutCubic, CurveEaseOutExpo, CurveEaseInOutCubic:
		return Curve(name), nil
	case "":
		return CurveEaseOutCubic, nil
	default:
		return "", fmt.Errorf("unknown curve %q", name)
	}
}

// Ease maps linear progress t in [0,1] onto the curve.
func (c Curve) Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch c {
	case CurveLinear:
		return t
	case CurveEaseOutExpo:
		return 1 - math.Pow(2, -10*t)
	case CurveEaseInOutCubic:
		if t < 0.5 {
			return 4 * t * t * t
		}
		f := -2*t + 2
		return 1 - f*f*f/2
	default:
		f := 1 - t
		return 1 - f*f*f
	}
}

// Params configures one kind of animation.
type Params struct {
	Duration time.Duration
	Curve    Curve
}

// Off reports whether the animation completes instantly.
func (p Params) Off() bool {
	return p.Duration <= 0
}

// Scaled returns p with its duration multiplied by factor. Factors <= 0 are
// treated as 1.
func (p Params) Scaled(factor float64) Params {
	if factor <= 0 || factor == 1 {
		return p
	}
	p.Duration = time.Duration(float64(p.Duration) * factor)
	return p
}

// Value is an animatable scalar. The zero Value is settled at 0.
type Value struct {
	from   float64
	to     float64
	start  time.Duration
	params Params
	active bool
}

// NewValue returns a settled value.
func NewValue(v float64) Value {
	return Value{from: v, to: v}
}

// Jump cancels any in-flight animation and settles at v.
func (v *Value) Jump(target float64) {
	v.from = target
	v.to = target
	v.active = false
}

// Set starts an animation towards target at now. An in-flight animation is
// replaced, and the new one starts from the value interpolated at now.
func (v *Value) Set(target float64, now time.Duration, p Params) {
	if v.to == target {
		return
	}
	current := v.At(now)
	if p.Off() || current == target {
		v.Jump(target)
		return
	}
	v.from = current
	v.to = target
	v.start = now
	v.params = p
	v.active = true
}

// Offset shifts both ends of the animation by delta without restarting it.
func (v *Value) Offset(delta float64) {
	v.from += delta
	v.to += delta
}

// Target returns the value the animation settles at.
func (v *Value) Target() float64 {
	return v.to
}

// At returns the interpolated value at now.
func (v *Value) At(now time.Duration) float64 {
	if !v.active {
		return v.to
	}
	elapsed := now - v.start
	if elapsed <= 0 {
		return v.from
	}
	if elapsed >= v.params.Duration {
		return v.to
	}
	t := float64(elapsed) / float64(v.params.Duration)
	return v.from + (v.to-v.from)*v.params.Curve.Ease(t)
}

// Advance settles the value once its animation has ended and reports whether
// it is still animating.
func (v *Value) Advance(now time.Duration) bool {
	if !v.active {
		return false
	}
	if now-v.start >= v.params.Duration {
		v.from = v.to
		v.active = false
		return false
	}
	return true
}

// Animating reports whether an animation is in flight.
func (v *Value) Animating() bool {
	return v.active
}
