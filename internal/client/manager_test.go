package client

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/masterminds-game/masterminds/internal/config"
	"github.com/masterminds-game/masterminds/internal/protocol"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []protocol.Envelope
	inbound chan protocol.Envelope
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan protocol.Envelope, 8)}
}

func (t *fakeTransport) Send(env protocol.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, env)
	return nil
}

func (t *fakeTransport) Receive() (protocol.Envelope, error) {
	env, ok := <-t.inbound
	if !ok {
		return protocol.Envelope{}, errors.New("use of closed connection")
	}
	return env, nil
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.inbound) })
	return nil
}

func (t *fakeTransport) sentEvents() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sent))
	for i, env := range t.sent {
		out[i] = env.Event
	}
	return out
}

// fakeDialer fails its first `failures` attempts, then hands out fresh
// fake transports. With hang set it blocks until the dial context ends.
type fakeDialer struct {
	mu         sync.Mutex
	failures   int
	hang       bool
	attempts   int
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(ctx context.Context, wsURL string) (Transport, error) {
	d.mu.Lock()
	d.attempts++
	n := d.attempts
	hang := d.hang
	d.mu.Unlock()

	if hang {
		<-ctx.Done()
		// Return strictly after the deadline so racing selects resolve
		// against the context, not the dial result.
		time.Sleep(20 * time.Millisecond)
		return nil, ctx.Err()
	}
	if n <= d.failures {
		return nil, errors.New("connection refused")
	}

	t := newFakeTransport()
	d.mu.Lock()
	d.transports = append(d.transports, t)
	d.mu.Unlock()
	return t, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transports[i]
}

// recordingFactory hands out the same dialer and records the narrowed
// flag of every request.
type recordingFactory struct {
	mu       sync.Mutex
	dialer   Dialer
	narrowed []bool
}

func (f *recordingFactory) factory(narrowed bool) Dialer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.narrowed = append(f.narrowed, narrowed)
	return f.dialer
}

func (f *recordingFactory) lastNarrowed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.narrowed) > 0 && f.narrowed[len(f.narrowed)-1]
}

type fakeProber struct {
	err error
}

func (p fakeProber) Probe(ctx context.Context) error { return p.err }

type statusRecorder struct {
	mu   sync.Mutex
	seen []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *statusRecorder) saw(s Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.seen {
		if v == s {
			return true
		}
	}
	return false
}

func testClientConfig() config.ClientConfig {
	return config.ClientConfig{
		ServerURL:                "http://localhost:8080",
		ConnectTimeout:           200 * time.Millisecond,
		WatchdogTimeout:          10 * time.Second,
		MaxReconnectAttempts:     3,
		ReducedReconnectAttempts: 2,
		ProbeTimeout:             50 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, cfg config.ClientConfig, prober Prober, dialer Dialer) (*Manager, *recordingFactory) {
	t.Helper()
	rf := &recordingFactory{dialer: dialer}
	m, err := NewManager(cfg, prober, rf.factory, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, rf
}

func waitStatus(t *testing.T, m *Manager, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Status().Current() == want
	}, 5*time.Second, 10*time.Millisecond, "never reached status %s", want)
}

func TestManager_ConnectSuccess(t *testing.T) {
	dialer := &fakeDialer{}
	m, _ := newTestManager(t, testClientConfig(), fakeProber{}, dialer)

	rec := &statusRecorder{}
	m.Status().Subscribe(rec.record)

	m.Connect()
	waitStatus(t, m, StatusConnected)

	assert.True(t, rec.saw(StatusChecking))
	assert.True(t, rec.saw(StatusConnecting))
	assert.Equal(t, 1, dialer.dialCount())
}

func TestManager_ProbeFailureUsesReducedBudget(t *testing.T) {
	dialer := &fakeDialer{failures: math.MaxInt}
	m, _ := newTestManager(t, testClientConfig(),
		fakeProber{err: errors.New("probe refused")}, dialer)

	rec := &statusRecorder{}
	m.Status().Subscribe(rec.record)

	m.Connect()
	waitStatus(t, m, StatusFailed)

	assert.True(t, rec.saw(StatusServerUnavailable))
	// The transport is still attempted, but only with the reduced budget.
	assert.Equal(t, 2, dialer.dialCount())
}

func TestManager_ExhaustionFailsAndNarrows(t *testing.T) {
	dialer := &fakeDialer{failures: math.MaxInt}
	m, rf := newTestManager(t, testClientConfig(), nil, dialer)

	rec := &statusRecorder{}
	m.Status().Subscribe(rec.record)

	m.Connect()
	waitStatus(t, m, StatusFailed)

	assert.Equal(t, 3, dialer.dialCount())
	assert.True(t, rec.saw(StatusError), "each failed attempt surfaces an error transition")

	// After exhaustion, later dials request the narrowed configuration.
	_ = m.Reconnect(context.Background())
	assert.True(t, rf.lastNarrowed())
}

func TestManager_WatchdogBoundsConnecting(t *testing.T) {
	cfg := testClientConfig()
	cfg.WatchdogTimeout = 30 * time.Millisecond
	cfg.ConnectTimeout = 500 * time.Millisecond
	cfg.MaxReconnectAttempts = 1

	dialer := &fakeDialer{hang: true}
	m, _ := newTestManager(t, cfg, nil, dialer)

	rec := &statusRecorder{}
	m.Status().Subscribe(rec.record)

	m.Connect()

	require.Eventually(t, func() bool {
		return rec.saw(StatusTimeout)
	}, 5*time.Second, 10*time.Millisecond, "watchdog never fired")
}

func TestManager_DispatchesInboundEvents(t *testing.T) {
	dialer := &fakeDialer{}
	m, _ := newTestManager(t, testClientConfig(), nil, dialer)

	received := make(chan protocol.Envelope, 1)
	m.SetHandler(func(env protocol.Envelope) { received <- env })

	m.Connect()
	waitStatus(t, m, StatusConnected)

	env, err := protocol.NewEnvelope(protocol.EventLeftRoom, nil)
	require.NoError(t, err)
	dialer.transport(0).inbound <- env

	select {
	case got := <-received:
		assert.Equal(t, protocol.EventLeftRoom, got.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestManager_RedialsAfterTransportFailure(t *testing.T) {
	dialer := &fakeDialer{}
	m, _ := newTestManager(t, testClientConfig(), nil, dialer)

	rec := &statusRecorder{}
	m.Status().Subscribe(rec.record)

	m.Connect()
	waitStatus(t, m, StatusConnected)

	// Simulate the server dropping the connection.
	dialer.transport(0).Close()

	require.Eventually(t, func() bool {
		return dialer.dialCount() == 2 && m.Status().Current() == StatusConnected
	}, 5*time.Second, 10*time.Millisecond, "manager never redialed")
	assert.True(t, rec.saw(StatusDisconnected))
}

func TestManager_SendRequiresConnection(t *testing.T) {
	dialer := &fakeDialer{}
	m, _ := newTestManager(t, testClientConfig(), nil, dialer)

	err := m.Send(protocol.EventLeave, nil)
	assert.ErrorIs(t, err, ErrNotConnected)

	m.Connect()
	waitStatus(t, m, StatusConnected)

	require.NoError(t, m.Send(protocol.EventLeave, nil))
	assert.Equal(t, []string{protocol.EventLeave}, dialer.transport(0).sentEvents())
}

func TestManager_Reconnect(t *testing.T) {
	dialer := &fakeDialer{}
	m, _ := newTestManager(t, testClientConfig(), nil, dialer)

	m.Connect()
	waitStatus(t, m, StatusConnected)

	require.NoError(t, m.Reconnect(context.Background()))
	assert.Equal(t, StatusConnected, m.Status().Current())
	assert.Equal(t, 2, dialer.dialCount())

	// Sends go to the fresh transport.
	require.NoError(t, m.Send(protocol.EventLeave, nil))
	assert.Empty(t, dialer.transport(0).sentEvents())
	assert.Equal(t, []string{protocol.EventLeave}, dialer.transport(1).sentEvents())
}

func TestManager_ReconnectTimesOut(t *testing.T) {
	cfg := testClientConfig()
	cfg.ConnectTimeout = 50 * time.Millisecond

	dialer := &fakeDialer{hang: true}
	m, _ := newTestManager(t, cfg, nil, dialer)

	err := m.Reconnect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusTimeout, m.Status().Current())
}

func TestManager_ReconnectReportsDialFailure(t *testing.T) {
	dialer := &fakeDialer{failures: math.MaxInt}
	m, _ := newTestManager(t, testClientConfig(), nil, dialer)

	err := m.Reconnect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusError, m.Status().Current())
}
