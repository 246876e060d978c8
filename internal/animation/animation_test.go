package animation

import (
	"math"
	"testing"
	"time"
)

func TestValue_InterpolatesLinearly(t *testing.T) {
	v := NewValue(0)
	p := Params{Duration: 100 * time.Millisecond, Curve: CurveLinear}
	v.Set(100, 0, p)

	tests := []struct {
		at   time.Duration
		want float64
	}{
		{0, 0},
		{25 * time.Millisecond, 25},
		{50 * time.Millisecond, 50},
		{100 * time.Millisecond, 100},
		{time.Second, 100},
	}
	for _, tt := range tests {
		if got := v.At(tt.at); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("At(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestValue_RetargetStartsFromCurrent(t *testing.T) {
	v := NewValue(0)
	p := Params{Duration: 100 * time.Millisecond, Curve: CurveLinear}
	v.Set(100, 0, p)

	// Halfway there, retarget back to zero.
	v.Set(0, 50*time.Millisecond, p)
	if got := v.At(50 * time.Millisecond); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected retarget to start at 50, got %v", got)
	}
	if got := v.At(100 * time.Millisecond); math.Abs(got-25) > 1e-9 {
		t.Fatalf("expected 25 halfway through retarget, got %v", got)
	}
	if got := v.At(150 * time.Millisecond); got != 0 {
		t.Fatalf("expected 0 at end, got %v", got)
	}
}

func TestValue_SameTargetKeepsInFlightAnimation(t *testing.T) {
	v := NewValue(0)
	p := Params{Duration: 100 * time.Millisecond, Curve: CurveLinear}
	v.Set(100, 0, p)
	v.Set(100, 50*time.Millisecond, p)

	if got := v.At(100 * time.Millisecond); got != 100 {
		t.Fatalf("expected original animation to finish at 100ms, got %v", got)
	}
}

func TestValue_AdvanceSettles(t *testing.T) {
	v := NewValue(10)
	v.Set(20, time.Second, Params{Duration: 200 * time.Millisecond, Curve: CurveEaseOutCubic})

	if !v.Advance(time.Second + 100*time.Millisecond) {
		t.Fatalf("expected value to still be animating")
	}
	if v.Advance(time.Second + 200*time.Millisecond) {
		t.Fatalf("expected value to settle at end of duration")
	}
	if v.Animating() {
		t.Fatalf("expected settled value")
	}
	if got := v.At(0); got != 20 {
		t.Fatalf("settled value should ignore timestamp, got %v", got)
	}
}

func TestValue_ZeroDurationJumps(t *testing.T) {
	v := NewValue(0)
	v.Set(42, time.Second, Params{})
	if v.Animating() {
		t.Fatalf("zero-duration animation should not be in flight")
	}
	if got := v.At(time.Second); got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestCurves_Endpoints(t *testing.T) {
	for _, c := range []Curve{CurveLinear, CurveEaseOutCubic, CurveEaseOutExpo, CurveEaseInOutCubic} {
		if c.Ease(0) != 0 || c.Ease(1) != 1 {
			t.Fatalf("curve %s: endpoints must be 0 and 1", c)
		}
		prev := 0.0
		for i := 1; i <= 10; i++ {
			cur := c.Ease(float64(i) / 10)
			if cur < prev {
				t.Fatalf("curve %s is not monotonic at %d", c, i)
			}
			prev = cur
		}
	}
}

func TestParseCurve(t *testing.T) {
	if c, err := ParseCurve(""); err != nil || c != CurveEaseOutCubic {
		t.Fatalf("empty curve should default to ease-out-cubic, got %q %v", c, err)
	}
	if _, err := ParseCurve("bounce"); err == nil {
		t.Fatalf("expected error for unknown curve")
	}
}

func TestParams_Scaled(t *testing.T) {
	p := Params{Duration: 100 * time.Millisecond}
	if got := p.Scaled(3).Duration; got != 300*time.Millisecond {
		t.Fatalf("expected 300ms, got %v", got)
	}
	if got := p.Scaled(0).Duration; got != 100*time.Millisecond {
		t.Fatalf("non-positive factor should be ignored, got %v", got)
	}
}
