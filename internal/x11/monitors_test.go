package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

func TestUpdateStrutsForMonitor(t *testing.T) {
	// Two 1920x1080 monitors side by side; a 30px top panel only on the left.
	left := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Monitor{X: 1920, Y: 0, Width: 1920, Height: 1080}
	panel := &ewmh.WmStrutPartial{Top: 30, TopStartX: 0, TopEndX: 1919}

	var accL, accR dockStruts
	updateStrutsForMonitor(&left, 3840, 1080, panel, &accL)
	updateStrutsForMonitor(&right, 3840, 1080, panel, &accR)

	if accL.top != 30 {
		t.Fatalf("left top strut = %d, want 30", accL.top)
	}
	if accR != (dockStruts{}) {
		t.Fatalf("right monitor should be unaffected, got %+v", accR)
	}
}

func TestUpdateStrutsForMonitor_RightDock(t *testing.T) {
	mon := Monitor{X: 1920, Y: 0, Width: 1920, Height: 1080}
	dock := &ewmh.WmStrutPartial{Right: 48, RightStartY: 0, RightEndY: 1079}

	var acc dockStruts
	updateStrutsForMonitor(&mon, 3840, 1080, dock, &acc)
	if acc.right != 48 || acc.left != 0 || acc.top != 0 || acc.bottom != 0 {
		t.Fatalf("unexpected struts %+v", acc)
	}
}

func TestRefreshMHz(t *testing.T) {
	// 1920x1080@60 CVT timing: 148.5 MHz, 2200x1125 total.
	m := randr.ModeInfo{DotClock: 148500000, Htotal: 2200, Vtotal: 1125}
	if got := refreshMHz(m); got != 60000 {
		t.Fatalf("refreshMHz = %d, want 60000", got)
	}
	if got := refreshMHz(randr.ModeInfo{}); got != 0 {
		t.Fatalf("refreshMHz of empty mode = %d, want 0", got)
	}
}

func TestHintsFromNormal(t *testing.T) {
	nh := &icccm.NormalHints{
		Flags:    hintMinSize | hintMaxSize,
		MinWidth: 200, MinHeight: 100,
		MaxWidth: 1 << 16, MaxHeight: 900,
		BaseWidth: 10,
	}
	h := hintsFromNormal(nh)
	want := SizeHints{MinWidth: 200, MinHeight: 100, MaxWidth: 0, MaxHeight: 900}
	if h != want {
		t.Fatalf("hintsFromNormal = %+v, want %+v", h, want)
	}
}
