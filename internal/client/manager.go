package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/config"
	"github.com/masterminds-game/masterminds/internal/protocol"
)

// ErrNotConnected is returned when sending without a live transport.
var ErrNotConnected = fmt.Errorf("not connected")

// DialerFactory builds a dialer, optionally in narrowed mode. The
// manager narrows the transport configuration after a connect cycle
// exhausts its attempt budget.
type DialerFactory func(narrowed bool) Dialer

// DefaultDialerFactory builds websocket dialers with the given
// handshake timeout.
func DefaultDialerFactory(handshakeTimeout time.Duration) DialerFactory {
	return func(narrowed bool) Dialer {
		return &WSDialer{
			HandshakeTimeout: handshakeTimeout,
			Narrowed:         narrowed,
		}
	}
}

// Manager owns one logical transport connection: it drives the
// connection-status state machine, the reconnection policy, and the
// watchdog that bounds how long "connecting" may last.
//
// The manager is created once at client start and torn down with Close
// at client shutdown.
type Manager struct {
	cfg     config.ClientConfig
	logger  *zap.Logger
	factory DialerFactory
	prober  Prober
	wsURL   string

	status   *StatusHolder
	watchdog watchdog

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	transport Transport
	gen       int
	handler   func(protocol.Envelope)
	narrowed  bool
}

// NewManager creates a Manager. prober may be nil to skip the
// availability check and dial directly.
//
// Precondition: cfg must be valid; factory and logger must be non-nil.
// Postcondition: Returns a Manager in the connecting state, not yet
// dialing; call Connect to start.
func NewManager(cfg config.ClientConfig, prober Prober, factory DialerFactory, logger *zap.Logger) (*Manager, error) {
	wsURL, err := WebsocketURL(cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:     cfg,
		logger:  logger,
		factory: factory,
		prober:  prober,
		wsURL:   wsURL,
		status:  NewStatusHolder(StatusConnecting),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Status returns the latest-status stream.
func (m *Manager) Status() *StatusHolder {
	return m.status
}

// SetHandler registers the callback invoked for every inbound event.
// The handler survives reconnects; it is reattached to each new
// transport automatically.
func (m *Manager) SetHandler(fn func(protocol.Envelope)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Send writes one event over the active transport.
func (m *Manager) Send(event string, payload any) error {
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()

	if t == nil {
		return ErrNotConnected
	}
	return t.Send(env)
}

// Connect starts the connection lifecycle in the background: an
// availability probe (when a prober is configured) followed by the dial
// cycle. Observe progress through Status.
func (m *Manager) Connect() {
	go m.connectCycle()
}

func (m *Manager) connectCycle() {
	budget := m.cfg.MaxReconnectAttempts

	if m.prober != nil {
		m.setStatus(StatusChecking)
		if err := m.prober.Probe(m.ctx); err != nil {
			// The server looks down. Surface that, but still attempt
			// the transport with a reduced budget in case only the
			// probe path is broken.
			m.logger.Warn("availability probe failed",
				zap.Error(err),
			)
			m.setStatus(StatusServerUnavailable)
			budget = m.cfg.ReducedReconnectAttempts
		}
	}

	m.dialCycle(budget)
}

// dialCycle attempts to establish the transport, retrying with
// exponential backoff up to budget attempts. Exhaustion transitions to
// failed and narrows the dialer configuration for any later cycle.
func (m *Manager) dialCycle(budget int) {
	op := func() error {
		if m.ctx.Err() != nil {
			return backoff.Permanent(m.ctx.Err())
		}

		m.setStatus(StatusConnecting)

		dctx, cancel := context.WithTimeout(m.ctx, m.cfg.ConnectTimeout)
		t, err := m.currentDialer().Dial(dctx, m.wsURL)
		cancel()
		if err != nil {
			m.logger.Debug("connect attempt failed",
				zap.Error(err),
			)
			m.setStatus(StatusError)
			return err
		}

		m.adopt(t)
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(budget-1)),
		m.ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.logger.Error("reconnection attempts exhausted",
			zap.Int("attempts", budget),
			zap.Error(err),
		)
		m.setStatus(StatusFailed)

		m.mu.Lock()
		m.narrowed = true
		m.mu.Unlock()
	}
}

// adopt installs a freshly dialed transport and starts its receive loop.
func (m *Manager) adopt(t Transport) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.transport = t
	m.mu.Unlock()

	m.setStatus(StatusConnected)
	go m.receiveLoop(t, gen)
}

// receiveLoop dispatches inbound events until the transport fails. A
// failure on a stale generation means a manual teardown already
// replaced this transport, and is ignored.
func (m *Manager) receiveLoop(t Transport, gen int) {
	for {
		env, err := t.Receive()
		if err != nil {
			m.mu.Lock()
			stale := gen != m.gen
			if !stale {
				m.transport = nil
			}
			m.mu.Unlock()

			if stale || m.ctx.Err() != nil {
				return
			}

			m.setStatus(StatusDisconnected)

			if isServerClose(err) {
				// The server closed us on purpose; ask for a fresh
				// connection immediately instead of waiting out the
				// transport's own reconnection.
				m.logger.Info("server closed connection, redialing")
			}
			m.dialCycle(m.currentBudget())
			return
		}

		m.mu.Lock()
		h := m.handler
		m.mu.Unlock()
		if h != nil {
			h(env)
		}
	}
}

// Reconnect is the manual retry operation, callable from any state. It
// tears down the current transport, dials a fresh one, and resolves on
// the first of: the connection succeeding, the dial failing, or the
// connect timeout elapsing.
//
// Postcondition: On success the status is connected; on failure the
// status reflects the failure mode and the error describes it.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.teardown()
	m.setStatus(StatusConnecting)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	type dialResult struct {
		t   Transport
		err error
	}
	ch := make(chan dialResult, 1)
	go func() {
		t, err := m.currentDialer().Dial(ctx, m.wsURL)
		ch <- dialResult{t: t, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			m.setStatus(StatusError)
			return res.err
		}
		m.adopt(res.t)
		return nil
	case <-ctx.Done():
		m.setStatus(StatusTimeout)
		return ctx.Err()
	}
}

// Close tears the manager down for good.
func (m *Manager) Close() {
	m.cancel()
	m.teardown()
	m.watchdog.Cancel()
}

// teardown discards the current transport. Bumping the generation
// detaches the old receive loop before the transport is closed, the
// moral equivalent of removing all listeners before discarding the
// socket.
func (m *Manager) teardown() {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.gen++
	m.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
}

// setStatus applies the watchdog discipline around every transition:
// entering connecting cancels any pre-existing watchdog before arming a
// new one; entering any other state cancels a pending watchdog.
func (m *Manager) setStatus(s Status) {
	if s == StatusConnecting {
		m.watchdog.Arm(m.cfg.WatchdogTimeout, func() {
			// Fire only if nothing else transitioned us away.
			if m.status.Current() == StatusConnecting {
				m.logger.Warn("connection watchdog fired",
					zap.Duration("after", m.cfg.WatchdogTimeout),
				)
				m.status.Set(StatusTimeout)
			}
		})
	} else {
		m.watchdog.Cancel()
	}
	m.status.Set(s)
}

func (m *Manager) currentDialer() Dialer {
	m.mu.Lock()
	narrowed := m.narrowed
	m.mu.Unlock()
	return m.factory(narrowed)
}

func (m *Manager) currentBudget() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.narrowed {
		return m.cfg.ReducedReconnectAttempts
	}
	return m.cfg.MaxReconnectAttempts
}
