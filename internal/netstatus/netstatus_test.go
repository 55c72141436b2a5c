package netstatus

import (
	"context"
	"testing"
	"time"
)

type fakeProbe struct {
	online bool
}

func (p *fakeProbe) Online(context.Context) bool { return p.online }

func TestCheckFiresCallbackOnReconnect(t *testing.T) {
	probe := &fakeProbe{online: false}
	fired := 0
	m := NewMonitor(probe, time.Minute, func(ctx context.Context) { fired++ })

	// Going offline must not fire the reconnect callback.
	if got := m.Check(context.Background()); got {
		t.Fatal("Check() = true, want false")
	}
	if fired != 0 {
		t.Fatalf("callback fired %d times while offline, want 0", fired)
	}
	if m.Online() {
		t.Fatal("Online() = true after offline check")
	}

	probe.online = true
	if got := m.Check(context.Background()); !got {
		t.Fatal("Check() = false, want true")
	}
	if fired != 1 {
		t.Fatalf("callback fired %d times on reconnect, want 1", fired)
	}

	// Staying online is not a transition.
	m.Check(context.Background())
	if fired != 1 {
		t.Fatalf("callback fired %d times while steadily online, want 1", fired)
	}
}

func TestMonitorStartsOptimistic(t *testing.T) {
	m := NewMonitor(&fakeProbe{}, time.Minute, nil)
	if !m.Online() {
		t.Fatal("Online() = false before first check, want true")
	}
}
