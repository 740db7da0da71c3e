// Package connectivity tracks whether the backend is reachable. A Monitor
// owns a probe (typically the gateway's health check) and polls it; state
// changes are edge-triggered, so a handler registered for a transition fires
// exactly once per flip, not on every check. Monitors are plain values with
// an explicit lifecycle: construct one, Start it with a context, let the
// context end it.
package connectivity

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/apiarist/hivekeep/internal/logging"
)

// Direction names a transition edge.
type Direction int

const (
	Offline Direction = iota
	Online
)

func (d Direction) String() string {
	if d == Online {
		return "online"
	}
	return "offline"
}

// Probe checks reachability; a nil error means online.
type Probe func(ctx context.Context) error

// Status is the read-only view the coordinator depends on.
type Status interface {
	IsOnline() bool
}

type handler struct {
	id   int
	fn   func()
	once bool
}

type Monitor struct {
	probe    Probe
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	mu       sync.Mutex
	online   bool
	nextID   int
	handlers map[Direction][]handler
}

type Option func(*Monitor)

// WithInterval sets how often the probe runs.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithProbeTimeout bounds a single probe call.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.timeout = d }
}

func WithLogger(log logging.Logger) Option {
	return func(m *Monitor) { m.log = log }
}

// NewMonitor returns a Monitor that starts out offline; the first successful
// probe produces an offline→online transition. That is deliberate: pending
// records left over from a previous session get replayed on startup.
func NewMonitor(probe Probe, opts ...Option) *Monitor {
	m := &Monitor{
		probe:    probe,
		interval: 3 * time.Second,
		timeout:  3 * time.Second,
		log:      logging.Nop(),
		handlers: make(map[Direction][]handler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnTransition registers fn for every future transition in the given
// direction. The returned func cancels the registration.
func (m *Monitor) OnTransition(d Direction, fn func()) (cancel func()) {
	return m.register(d, fn, false)
}

// OnTransitionOnce registers fn for the next transition in the given
// direction only.
func (m *Monitor) OnTransitionOnce(d Direction, fn func()) {
	m.register(d, fn, true)
}

func (m *Monitor) register(d Direction, fn func(), once bool) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.handlers[d] = append(m.handlers[d], handler{id: id, fn: fn, once: once})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.handlers[d] = slices.DeleteFunc(m.handlers[d], func(h handler) bool {
			return h.id == id
		})
	}
}

// Start runs the probe loop until ctx is done. An immediate check runs
// before the first tick.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		m.CheckNow(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}

// CheckNow probes once and applies the result. Exposed so tests and manual
// "sync now" commands can force a re-check without waiting for the ticker.
func (m *Monitor) CheckNow(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.probe(probeCtx)
	cancel()
	m.setOnline(ctx, err == nil)
}

// setOnline records the probe outcome and fires transition handlers if the
// state flipped. Handlers run outside the lock, in registration order.
func (m *Monitor) setOnline(ctx context.Context, online bool) {
	var fire []handler

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online

	d := Offline
	if online {
		d = Online
	}
	fire = slices.Clone(m.handlers[d])
	m.handlers[d] = slices.DeleteFunc(m.handlers[d], func(h handler) bool {
		return h.once
	})
	m.mu.Unlock()

	m.log.Info(ctx, "connectivity changed", "state", d.String())
	for _, h := range fire {
		h.fn()
	}
}
