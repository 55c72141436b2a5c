// Package netstatus reports whether the backing services are reachable.
// The offline queue subscribes to offline→online transitions to trigger
// a drain.
package netstatus

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Probe answers a single reachability check.
type Probe interface {
	Online(ctx context.Context) bool
}

// DialProbe checks reachability by dialing a TCP address.
type DialProbe struct {
	Address string
	Timeout time.Duration
}

func (p DialProbe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// AlwaysOnline is the probe for purely local deployments.
type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context) bool { return true }

// Monitor polls a probe and invokes the registered callback on every
// offline→online transition. The current status is safe to read from any
// goroutine.
type Monitor struct {
	probe    Probe
	interval time.Duration
	onOnline func(ctx context.Context)

	mu     sync.RWMutex
	online bool
}

func NewMonitor(probe Probe, interval time.Duration, onOnline func(ctx context.Context)) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		onOnline: onOnline,
		// Start optimistic so the first write is attempted directly; a
		// failed attempt is classified and queued anyway.
		online: true,
	}
}

// Online reports the last observed status.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Check probes once and records the transition, firing the reconnect
// callback when the status flips from offline to online.
func (m *Monitor) Check(ctx context.Context) bool {
	current := m.probe.Online(ctx)

	m.mu.Lock()
	previous := m.online
	m.online = current
	m.mu.Unlock()

	if current != previous {
		slog.InfoContext(ctx, "connectivity changed", "online", current)
	}
	if current && !previous && m.onOnline != nil {
		m.onOnline(ctx)
	}
	return current
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
