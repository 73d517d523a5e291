// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// Human-readable status messages carried in ConnectionStatus.
const (
	StatusConnecting   = "Connecting..."
	StatusConnected    = "Connected"
	StatusFailed       = "Connection Failed"
	StatusReconnecting = "Reconnecting..."
	StatusReconnected  = "Reconnected"
	StatusDisconnected = "Disconnected"
)

const breakerName = "hub-send"

// Config holds Manager settings.
type Config struct {
	// RetryDelay is the fixed wait before a new start attempt after a
	// failed start or a closed connection.
	RetryDelay time.Duration

	// SendRateLimit caps outbound invocations per second (0 = unlimited).
	SendRateLimit float64
	SendBurst     int

	BreakerEnabled          bool
	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration

	// Now is the clock used for timestamps; defaults to time.Now.
	Now func() time.Time
}

// ConfigFromHub builds a manager Config from the hub config section.
func ConfigFromHub(cfg config.HubConfig) Config {
	return Config{
		RetryDelay:              cfg.RetryDelay,
		SendRateLimit:           cfg.SendRateLimit,
		SendBurst:               cfg.SendBurst,
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerFailureThreshold: cfg.BreakerFailureThreshold,
		BreakerTimeout:          cfg.BreakerTimeout,
	}
}

// Ack is the hub's completion of a SendLatLon invocation.
type Ack struct {
	Result   json.RawMessage `json:"result,omitempty"`
	SentAt   time.Time       `json:"sent_at"`
	Duration time.Duration   `json:"duration"`
}

type lifecycleKind int

const (
	evReconnecting lifecycleKind = iota
	evReconnected
	evClosed
)

type lifecycleEvent struct {
	kind lifecycleKind
	err  error
}

type locationObserver struct {
	id uint64
	fn func(models.LocationUpdate)
}

type statusObserver struct {
	id uint64
	fn func(models.ConnectionStatus)
}

// Manager owns the hub connection lifecycle.
type Manager struct {
	transport Transport
	cfg       Config
	log       zerolog.Logger

	mu        sync.RWMutex
	status    models.ConnectionStatus
	lastError string

	obsMu           sync.RWMutex
	nextObserverID  uint64
	locObservers    []locationObserver
	statusObservers []statusObserver

	// dispatchMu serializes every observer callback.
	dispatchMu sync.Mutex

	seq       atomic.Uint64
	lifecycle chan lifecycleEvent
	reconnect chan struct{}

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[json.RawMessage]

	runMu     sync.Mutex
	closed    bool
	cancelRun context.CancelFunc
	runDone   chan struct{}
}

// NewManager creates a manager driving transport. The manager starts
// Disconnected; call Serve to begin connecting.
func NewManager(transport Transport, cfg Config) *Manager {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		transport: transport,
		cfg:       cfg,
		log:       logging.WithComponent("hub"),
		lifecycle: make(chan lifecycleEvent, 16),
		reconnect: make(chan struct{}, 1),
	}
	m.status = models.ConnectionStatus{
		State:         models.StateDisconnected,
		StatusMessage: StatusDisconnected,
		Timestamp:     cfg.Now(),
	}

	if cfg.SendRateLimit > 0 {
		burst := cfg.SendBurst
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(cfg.SendRateLimit), burst)
	}
	if cfg.BreakerEnabled {
		m.breaker = newSendBreaker(cfg)
	}

	transport.SetHandlers(Handlers{
		OnEvent:        m.handleEvent,
		OnReconnecting: func(err error) { m.pushLifecycle(lifecycleEvent{kind: evReconnecting, err: err}) },
		OnReconnected:  func() { m.pushLifecycle(lifecycleEvent{kind: evReconnected}) },
		OnClose:        func(err error) { m.pushLifecycle(lifecycleEvent{kind: evClosed, err: err}) },
	})

	return m
}

func newSendBreaker(cfg Config) *gobreaker.CircuitBreaker[json.RawMessage] {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Cancellation by the caller says nothing about hub health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
}

// Serve runs the connection loop until ctx is cancelled or Close is called.
// It implements suture.Service. Only one Serve may run at a time.
func (m *Manager) Serve(ctx context.Context) error {
	m.runMu.Lock()
	if m.closed {
		m.runMu.Unlock()
		return ErrManagerClosed
	}
	if m.runDone != nil {
		m.runMu.Unlock()
		return errors.New("connection manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancelRun, m.runDone = cancel, done
	m.runMu.Unlock()

	defer func() {
		cancel()
		m.runMu.Lock()
		m.cancelRun, m.runDone = nil, nil
		m.runMu.Unlock()
		close(done)
	}()

	m.run(runCtx)

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrManagerClosed
}

// Close stops the connection loop and waits for it to exit. Safe to call
// more than once and before Serve.
func (m *Manager) Close() error {
	m.runMu.Lock()
	m.closed = true
	cancel, done := m.cancelRun, m.runDone
	m.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// String implements fmt.Stringer for suture logging.
func (m *Manager) String() string {
	return "hub-connection-manager"
}

func (m *Manager) run(ctx context.Context) {
	attempt := 0
	for {
		m.drainSignals()
		attempt++

		m.transition(models.StateConnecting, StatusConnecting, nil, true)
		err := m.transport.Start(ctx)
		metrics.RecordConnectAttempt(err)

		if ctx.Err() != nil {
			m.teardown()
			return
		}

		if err != nil {
			startErr := &ConnectionStartError{Attempt: attempt, Err: err}
			m.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", m.cfg.RetryDelay).
				Msg("Hub connection failed")
			m.transition(models.StateFailed, StatusFailed, startErr, false)
		} else {
			attempt = 0
			m.log.Info().Msg("Hub connected")
			m.transition(models.StateConnected, StatusConnected, nil, true)
			if !m.superviseConnection(ctx) {
				return
			}
		}

		if !m.waitRetry(ctx) {
			m.teardown()
			return
		}
	}
}

// superviseConnection follows transport lifecycle signals while a
// connection is live. It returns false when ctx ended (after teardown) and
// true when the transport closed and a new start should be scheduled.
func (m *Manager) superviseConnection(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			m.teardown()
			return false

		case ev := <-m.lifecycle:
			switch ev.kind {
			case evReconnecting:
				metrics.HubReconnectAttempts.Inc()
				m.log.Warn().Err(ev.err).Msg("Hub connection lost, reconnecting")
				m.transition(models.StateReconnecting, StatusReconnecting, nil, false)

			case evReconnected:
				m.log.Info().Msg("Hub reconnected")
				m.transition(models.StateConnected, StatusReconnected, nil, true)

			case evClosed:
				var closeErr error
				if ev.err != nil {
					closeErr = fmt.Errorf("connection closed: %w", ev.err)
				}
				m.log.Warn().Err(ev.err).Dur("retry_in", m.cfg.RetryDelay).Msg("Hub connection closed")
				m.transition(models.StateDisconnected, StatusDisconnected, closeErr, false)
				return true
			}
		}
	}
}

// waitRetry blocks for the retry delay, or until Reconnect is called. The
// timer is released before returning. It returns false if ctx ended.
func (m *Manager) waitRetry(ctx context.Context) bool {
	timer := time.NewTimer(m.cfg.RetryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-m.reconnect:
		m.log.Info().Msg("Manual reconnect requested, skipping retry delay")
		return true
	}
}

// teardown stops the transport and records the final Disconnected state.
func (m *Manager) teardown() {
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.transport.Stop(stopCtx); err != nil {
		m.log.Warn().Err(err).Msg("Error stopping hub transport")
	}
	m.transition(models.StateDisconnected, StatusDisconnected, nil, false)
	m.drainSignals()
}

// drainSignals discards lifecycle signals from a previous connection and
// any stale reconnect request.
func (m *Manager) drainSignals() {
	for {
		select {
		case <-m.lifecycle:
		case <-m.reconnect:
		default:
			return
		}
	}
}

func (m *Manager) pushLifecycle(ev lifecycleEvent) {
	select {
	case m.lifecycle <- ev:
	default:
		// Only reachable if the transport floods signals with no Serve
		// loop reading; the newest signal is not worth blocking for.
		m.log.Warn().Int("kind", int(ev.kind)).Msg("Dropping transport lifecycle signal")
	}
}

// transition moves to state and notifies status observers. err (if any)
// replaces the last error; clearErr empties it.
func (m *Manager) transition(state models.ConnectionState, message string, err error, clearErr bool) {
	m.mu.Lock()
	from := m.status.State
	if from == state && m.status.StatusMessage == message && err == nil {
		m.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		m.lastError = err.Error()
	case clearErr:
		m.lastError = ""
	}
	m.status = models.ConnectionStatus{
		State:         state,
		StatusMessage: message,
		LastError:     m.lastError,
		Timestamp:     m.cfg.Now(),
	}
	snapshot := m.status
	m.mu.Unlock()

	metrics.RecordHubTransition(string(from), string(state))
	m.log.Debug().Str("from", string(from)).Str("to", string(state)).Msg("Hub state transition")

	m.dispatchStatus(snapshot)
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastError = err.Error()
	m.status.LastError = m.lastError
	m.mu.Unlock()
}

// Status returns the current connection status.
func (m *Manager) Status() models.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// State returns the current connection state.
func (m *Manager) State() models.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.State
}

// IsConnected reports whether Send can reach the transport.
func (m *Manager) IsConnected() bool {
	return m.State() == models.StateConnected
}

// Reconnect requests an immediate start attempt, skipping any pending
// retry delay. It is a no-op unless the manager is Failed or Disconnected.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.runMu.Lock()
	closed := m.closed
	m.runMu.Unlock()
	if closed {
		return ErrManagerClosed
	}

	switch m.State() {
	case models.StateFailed, models.StateDisconnected:
	default:
		return nil
	}

	select {
	case m.reconnect <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	default:
		// A request is already pending.
	}
	return nil
}

// Send invokes SendLatLon. It fails fast with *NotConnectedError when not
// Connected, and returns *TransportError when the invocation fails or is
// rejected by the limiter or breaker. It never queues or retries.
func (m *Manager) Send(ctx context.Context, loc models.OutboundLocation) (Ack, error) {
	if state := m.State(); state != models.StateConnected {
		metrics.RecordHubSend("not_connected", 0)
		err := &NotConnectedError{State: state}
		m.setLastError(err)
		return Ack{}, err
	}

	if m.limiter != nil && !m.limiter.Allow() {
		metrics.RecordHubSend("rate_limited", 0)
		return Ack{}, &TransportError{Message: ErrRateLimited.Error(), Err: ErrRateLimited}
	}

	sentAt := m.cfg.Now()
	began := time.Now()
	result, err := m.invoke(ctx, loc)
	elapsed := time.Since(began)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordHubSend("breaker_open", 0)
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		} else {
			metrics.RecordHubSend("transport_error", elapsed)
			if m.breaker != nil {
				metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
			}
		}
		tErr := newTransportError(err)
		m.setLastError(fmt.Errorf("failed to send location: %w", err))
		logging.Ctx(ctx).Warn().Err(err).Str("sender", loc.SenderID).Msg("SendLatLon failed")
		return Ack{}, tErr
	}

	metrics.RecordHubSend("success", elapsed)
	if m.breaker != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	}
	return Ack{Result: result, SentAt: sentAt, Duration: elapsed}, nil
}

func (m *Manager) invoke(ctx context.Context, loc models.OutboundLocation) (json.RawMessage, error) {
	call := func() (json.RawMessage, error) {
		return m.transport.Invoke(ctx, TargetSendLatLon, loc.Args()...)
	}
	if m.breaker == nil {
		return call()
	}
	return m.breaker.Execute(call)
}

// handleEvent is the transport's inbound event callback.
func (m *Manager) handleEvent(target string, args []json.RawMessage) {
	if !strings.EqualFold(target, TargetReceiveLatLon) {
		m.log.Debug().Str("target", target).Msg("Ignoring unknown hub event")
		return
	}
	if len(args) == 0 {
		metrics.LocationsRejected.Inc()
		m.log.Warn().Msg("ReceiveLatLon without arguments")
		return
	}

	in, err := models.ParseInbound(args[0])
	if err != nil {
		metrics.LocationsRejected.Inc()
		m.log.Warn().Err(err).Msg("Dropping malformed location update")
		return
	}

	update := in.ToUpdate(m.cfg.Now(), m.seq.Add(1))
	metrics.LocationsReceived.Inc()
	m.dispatchLocation(update)
}

// SubscribeLocations registers fn for every received update and returns a
// function that removes it.
func (m *Manager) SubscribeLocations(fn func(models.LocationUpdate)) (unsubscribe func()) {
	m.obsMu.Lock()
	m.nextObserverID++
	id := m.nextObserverID
	m.locObservers = append(m.locObservers, locationObserver{id: id, fn: fn})
	m.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.obsMu.Lock()
			defer m.obsMu.Unlock()
			for i, o := range m.locObservers {
				if o.id == id {
					m.locObservers = append(m.locObservers[:i:i], m.locObservers[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscribeStatus registers fn for every state transition and returns a
// function that removes it.
func (m *Manager) SubscribeStatus(fn func(models.ConnectionStatus)) (unsubscribe func()) {
	m.obsMu.Lock()
	m.nextObserverID++
	id := m.nextObserverID
	m.statusObservers = append(m.statusObservers, statusObserver{id: id, fn: fn})
	m.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.obsMu.Lock()
			defer m.obsMu.Unlock()
			for i, o := range m.statusObservers {
				if o.id == id {
					m.statusObservers = append(m.statusObservers[:i:i], m.statusObservers[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Manager) dispatchLocation(update models.LocationUpdate) {
	m.obsMu.RLock()
	observers := m.locObservers
	m.obsMu.RUnlock()

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	for _, o := range observers {
		o.fn(update)
	}
}

func (m *Manager) dispatchStatus(status models.ConnectionStatus) {
	m.obsMu.RLock()
	observers := m.statusObservers
	m.obsMu.RUnlock()

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	for _, o := range observers {
		o.fn(status)
	}
}
