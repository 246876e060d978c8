package hotkeys

import (
	"slices"
	"testing"
)

func TestIgnoreMasks(t *testing.T) {
	tests := []struct {
		name                    string
		caps, numLock, scrollLk uint16
		want                    []uint16
	}{
		{name: "caps only", caps: 2, want: []uint16{0, 2}},
		{name: "caps and numlock", caps: 2, numLock: 16, want: []uint16{0, 2, 16, 18}},
		{name: "all three", caps: 2, numLock: 16, scrollLk: 128, want: []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
		{name: "numlock shares caps mask", caps: 2, numLock: 2, want: []uint16{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ignoreMasks(tt.caps, tt.numLock, tt.scrollLk)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("ignoreMasks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatchFunc(t *testing.T) {
	var got string
	var d Dispatcher = DispatchFunc(func(action string) { got = action })
	d.Dispatch("focus-column-left")
	if got != "focus-column-left" {
		t.Fatalf("got %q", got)
	}
}
