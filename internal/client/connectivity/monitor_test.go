package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProbe reports whatever result the test sets.
type flakyProbe struct {
	mu  sync.Mutex
	err error
}

func (p *flakyProbe) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *flakyProbe) probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func TestMonitorStartsOffline(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error { return nil })
	assert.False(t, m.IsOnline())
}

func TestMonitorCheckNow(t *testing.T) {
	p := &flakyProbe{}
	m := NewMonitor(p.probe)
	ctx := context.Background()

	m.CheckNow(ctx)
	assert.True(t, m.IsOnline())

	p.set(errors.New("connection refused"))
	m.CheckNow(ctx)
	assert.False(t, m.IsOnline())
}

func TestMonitorEdgeTriggered(t *testing.T) {
	p := &flakyProbe{}
	m := NewMonitor(p.probe)
	ctx := context.Background()

	var online, offline int
	m.OnTransition(Online, func() { online++ })
	m.OnTransition(Offline, func() { offline++ })

	// Repeated successful checks fire the online handler once.
	m.CheckNow(ctx)
	m.CheckNow(ctx)
	m.CheckNow(ctx)
	assert.Equal(t, 1, online)
	assert.Equal(t, 0, offline)

	p.set(errors.New("timeout"))
	m.CheckNow(ctx)
	m.CheckNow(ctx)
	assert.Equal(t, 1, online)
	assert.Equal(t, 1, offline)

	p.set(nil)
	m.CheckNow(ctx)
	assert.Equal(t, 2, online)
}

func TestMonitorOnTransitionOnce(t *testing.T) {
	p := &flakyProbe{}
	m := NewMonitor(p.probe)
	ctx := context.Background()

	var calls int
	m.OnTransitionOnce(Online, func() { calls++ })

	m.CheckNow(ctx)
	assert.Equal(t, 1, calls)

	p.set(errors.New("down"))
	m.CheckNow(ctx)
	p.set(nil)
	m.CheckNow(ctx)
	assert.Equal(t, 1, calls)
}

func TestMonitorCancelRegistration(t *testing.T) {
	p := &flakyProbe{}
	m := NewMonitor(p.probe)
	ctx := context.Background()

	var calls int
	cancel := m.OnTransition(Online, func() { calls++ })
	cancel()

	m.CheckNow(ctx)
	assert.Equal(t, 0, calls)
}

func TestMonitorHandlerOrder(t *testing.T) {
	p := &flakyProbe{}
	m := NewMonitor(p.probe)
	ctx := context.Background()

	var order []string
	m.OnTransition(Online, func() { order = append(order, "first") })
	m.OnTransition(Online, func() { order = append(order, "second") })

	m.CheckNow(ctx)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestMonitorStartPolls(t *testing.T) {
	p := &flakyProbe{}
	m := NewMonitor(p.probe, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flipped := make(chan struct{})
	m.OnTransitionOnce(Offline, func() { close(flipped) })

	m.Start(ctx)

	require.Eventually(t, m.IsOnline, time.Second, 5*time.Millisecond)

	p.set(errors.New("unreachable"))
	select {
	case <-flipped:
	case <-time.After(time.Second):
		t.Fatal("expected offline transition")
	}
	assert.False(t, m.IsOnline())
}

func TestMonitorProbeTimeout(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithProbeTimeout(10*time.Millisecond))

	done := make(chan struct{})
	go func() {
		m.CheckNow(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("probe did not observe the timeout")
	}
	assert.False(t, m.IsOnline())
}
