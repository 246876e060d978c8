package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/thejerf/suture/v4"
)

func TestSanitizeError(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name       string
		ctx        context.Context
		err        error
		wantNil    bool
		wantCancel bool
		wantNoRest bool
	}{
		{name: "nil", ctx: live, err: nil, wantNil: true},
		{name: "plain error passes through", ctx: live, err: errors.New("boom")},
		{name: "stray cancel is stripped", ctx: live, err: context.Canceled},
		{name: "own cancel is kept", ctx: done, err: errors.New("boom"), wantCancel: true},
		{name: "do-not-restart survives", ctx: live, err: errors.Join(context.Canceled, suture.ErrDoNotRestart), wantNoRest: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeError(tt.ctx, tt.err)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected an error")
			}
			if errors.Is(got, context.Canceled) != tt.wantCancel {
				t.Fatalf("errors.Is(Canceled) = %v, want %v (%v)", !tt.wantCancel, tt.wantCancel, got)
			}
			if errors.Is(got, suture.ErrDoNotRestart) != tt.wantNoRest {
				t.Fatalf("errors.Is(ErrDoNotRestart) = %v, want %v", !tt.wantNoRest, tt.wantNoRest)
			}
		})
	}
}

func TestServiceFunc(t *testing.T) {
	called := false
	s := NewServiceFunc("probe", func(context.Context) error {
		called = true
		return nil
	})
	if s.String() != "probe" {
		t.Fatalf("name = %q", s.String())
	}
	if err := s.Serve(context.Background()); err != nil || !called {
		t.Fatalf("serve: err=%v called=%v", err, called)
	}
}
