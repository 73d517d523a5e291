// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
)

const maxNegotiateRedirects = 5

var (
	// ErrNoWebSocketTransport is returned when negotiation offers no WebSockets transport.
	ErrNoWebSocketTransport = errors.New("hub does not offer the WebSockets transport")

	// ErrTransportStopped fails invocations pending when Stop is called.
	ErrTransportStopped = errors.New("transport stopped")

	errAlreadyStarted = errors.New("transport already started")
)

// SignalRConfig configures SignalRTransport.
type SignalRConfig struct {
	// URL is the hub endpoint. http(s) URLs are negotiated first; ws(s)
	// URLs are dialed directly.
	URL string

	KeepAliveInterval time.Duration
	ServerTimeout     time.Duration
	HandshakeTimeout  time.Duration

	// MaxReconnectAttempts bounds automatic reconnects (0 = unlimited).
	MaxReconnectAttempts int

	// Backoff defaults to ReconnectDelay.
	Backoff BackoffFunc

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Header     http.Header
}

// SignalRConfigFromHub builds a transport config from the hub config section.
func SignalRConfigFromHub(cfg config.HubConfig) SignalRConfig {
	return SignalRConfig{
		URL:                  cfg.URL,
		KeepAliveInterval:    cfg.KeepAliveInterval,
		ServerTimeout:        cfg.ServerTimeout,
		HandshakeTimeout:     cfg.HandshakeTimeout,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}
}

type invocationResult struct {
	result json.RawMessage
	err    error
}

// closeMessageError is raised when the server sends a Close message.
type closeMessageError struct {
	message        string
	allowReconnect bool
}

func (e *closeMessageError) Error() string {
	if e.message == "" {
		return "server closed the connection"
	}
	return "server closed the connection: " + e.message
}

// SignalRTransport speaks the SignalR JSON hub protocol over a websocket.
//
// After a successful Start it keeps the connection alive with pings,
// treats ServerTimeout of silence as a lost connection and reconnects
// automatically using Backoff, reporting progress through Handlers.
type SignalRTransport struct {
	cfg SignalRConfig
	log zerolog.Logger

	mu        sync.Mutex
	handlers  Handlers
	conn      *websocket.Conn
	running   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	pending   map[string]chan invocationResult

	writeMu sync.Mutex
	nextID  atomic.Uint64
	wg      sync.WaitGroup
}

// NewSignalRTransport creates a transport; it does not connect.
func NewSignalRTransport(cfg SignalRConfig) *SignalRTransport {
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = 15 * time.Second
	}
	if cfg.ServerTimeout <= 0 {
		cfg.ServerTimeout = 30 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}
	if cfg.Backoff == nil {
		cfg.Backoff = ReconnectDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.HandshakeTimeout}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		}
	}

	return &SignalRTransport{
		cfg:     cfg,
		log:     logging.WithComponent("signalr"),
		pending: make(map[string]chan invocationResult),
	}
}

// SetHandlers implements Transport.
func (t *SignalRTransport) SetHandlers(h Handlers) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = h
}

// Start implements Transport.
func (t *SignalRTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return errAlreadyStarted
	}
	t.mu.Unlock()

	conn, leftover, err := t.connect(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.conn = conn
	t.running = true
	t.runCtx, t.runCancel = runCtx, cancel
	t.mu.Unlock()

	t.log.Info().Str("url", t.cfg.URL).Msg("SignalR connection established")

	t.wg.Add(2)
	go t.readLoop(runCtx, conn, leftover)
	go t.pingLoop(runCtx)

	return nil
}

// Stop implements Transport.
func (t *SignalRTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	cancel := t.runCancel
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	cancel()
	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
	t.failPending(ErrTransportStopped)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.log.Info().Msg("SignalR connection stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoke implements Transport.
func (t *SignalRTransport) Invoke(ctx context.Context, target string, args ...any) (json.RawMessage, error) {
	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil, ErrTransportNotConnected
	}
	id := strconv.FormatUint(t.nextID.Add(1), 10)
	ch := make(chan invocationResult, 1)
	t.pending[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	if args == nil {
		args = []any{}
	}
	msg := invocationMessage{Type: msgInvocation, InvocationID: id, Target: target, Arguments: args}
	if err := t.writeFrame(conn, msg); err != nil {
		return nil, fmt.Errorf("write invocation %s: %w", target, err)
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// connect negotiates, dials and performs the protocol handshake within
// HandshakeTimeout. It returns any records that arrived with the
// handshake response.
func (t *SignalRTransport) connect(ctx context.Context) (*websocket.Conn, [][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.HandshakeTimeout)
	defer cancel()

	wsURL, err := t.resolveURL(ctx)
	if err != nil {
		return nil, nil, err
	}

	conn, resp, err := t.cfg.Dialer.DialContext(ctx, wsURL, t.cfg.Header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, nil, fmt.Errorf("websocket dial: %w", err)
	}

	leftover, err := t.handshake(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, leftover, nil
}

func (t *SignalRTransport) handshake(ctx context.Context, conn *websocket.Conn) ([][]byte, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.cfg.HandshakeTimeout)
	}

	req, err := encodeFrame(handshakeRequest{Protocol: "json", Version: 1})
	if err != nil {
		return nil, err
	}
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
		return nil, fmt.Errorf("send handshake: %w", err)
	}

	_ = conn.SetReadDeadline(deadline)
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read handshake response: %w", err)
	}
	records, err := splitFrames(payload)
	if err != nil || len(records) == 0 {
		return nil, fmt.Errorf("invalid handshake response: %q", payload)
	}

	var resp handshakeResponse
	if err := json.Unmarshal(records[0], &resp); err != nil {
		return nil, fmt.Errorf("decode handshake response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("handshake rejected: %s", resp.Error)
	}

	_ = conn.SetWriteDeadline(time.Time{})
	_ = conn.SetReadDeadline(time.Time{})
	return records[1:], nil
}

// resolveURL returns the websocket URL to dial, negotiating first for
// http(s) endpoints and following negotiate redirects.
func (t *SignalRTransport) resolveURL(ctx context.Context) (string, error) {
	u, err := url.Parse(t.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse hub url: %w", err)
	}
	if u.Scheme == "ws" || u.Scheme == "wss" {
		return u.String(), nil
	}

	accessToken := ""
	for i := 0; i <= maxNegotiateRedirects; i++ {
		neg, err := t.negotiate(ctx, u, accessToken)
		if err != nil {
			return "", err
		}
		if neg.Error != "" {
			return "", fmt.Errorf("negotiate rejected: %s", neg.Error)
		}
		if neg.URL != "" {
			if u, err = url.Parse(neg.URL); err != nil {
				return "", fmt.Errorf("parse negotiate redirect: %w", err)
			}
			accessToken = neg.AccessToken
			continue
		}
		if !neg.supportsWebSockets() {
			return "", ErrNoWebSocketTransport
		}

		ws := *u
		switch ws.Scheme {
		case "https":
			ws.Scheme = "wss"
		default:
			ws.Scheme = "ws"
		}
		q := ws.Query()
		q.Set("id", neg.token())
		if accessToken != "" {
			q.Set("access_token", accessToken)
		}
		ws.RawQuery = q.Encode()
		return ws.String(), nil
	}
	return "", fmt.Errorf("negotiate: too many redirects")
}

func (t *SignalRTransport) negotiate(ctx context.Context, u *url.URL, accessToken string) (negotiateResponse, error) {
	nu := *u
	nu.Path = strings.TrimSuffix(u.Path, "/") + "/negotiate"
	q := nu.Query()
	q.Set("negotiateVersion", "1")
	nu.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, nu.String(), http.NoBody)
	if err != nil {
		return negotiateResponse{}, fmt.Errorf("build negotiate request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	for k, vs := range t.cfg.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.cfg.HTTPClient.Do(req)
	if err != nil {
		return negotiateResponse{}, fmt.Errorf("negotiate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return negotiateResponse{}, fmt.Errorf("negotiate failed: HTTP %d", resp.StatusCode)
	}

	var neg negotiateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&neg); err != nil {
		return negotiateResponse{}, fmt.Errorf("decode negotiate response: %w", err)
	}
	return neg, nil
}

// readLoop owns the connection for its whole life, including automatic
// reconnects. It exits when the transport stops or gives up.
func (t *SignalRTransport) readLoop(ctx context.Context, conn *websocket.Conn, leftover [][]byte) {
	defer t.wg.Done()

	err := t.processRecords(leftover)
	for {
		if err == nil {
			err = t.readConn(conn)
		}
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		t.failPending(err)

		var closeErr *closeMessageError
		if errors.As(err, &closeErr) && !closeErr.allowReconnect {
			t.finish(ctx, closeErr)
			return
		}

		conn = t.reconnect(ctx, err)
		if conn == nil {
			return
		}
		err = nil
	}
}

// readConn reads until the connection fails or the server closes it.
func (t *SignalRTransport) readConn(conn *websocket.Conn) error {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ServerTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		records, err := splitFrames(payload)
		if err != nil {
			return err
		}
		if err := t.processRecords(records); err != nil {
			return err
		}
	}
}

// processRecords dispatches hub messages. A Close message is returned as
// *closeMessageError.
func (t *SignalRTransport) processRecords(records [][]byte) error {
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		var msg hubMessage
		if err := json.Unmarshal(rec, &msg); err != nil {
			t.log.Warn().Err(err).Msg("Ignoring undecodable hub message")
			continue
		}

		switch msg.Type {
		case msgInvocation:
			t.mu.Lock()
			onEvent := t.handlers.OnEvent
			t.mu.Unlock()
			if onEvent != nil {
				onEvent(msg.Target, msg.Arguments)
			}
		case msgCompletion:
			t.complete(msg)
		case msgPing:
		case msgClose:
			return &closeMessageError{message: msg.Error, allowReconnect: msg.AllowReconnect}
		default:
			t.log.Debug().Int("type", msg.Type).Msg("Ignoring unsupported hub message type")
		}
	}
	return nil
}

func (t *SignalRTransport) complete(msg hubMessage) {
	t.mu.Lock()
	ch, ok := t.pending[msg.InvocationID]
	delete(t.pending, msg.InvocationID)
	t.mu.Unlock()
	if !ok {
		return
	}

	res := invocationResult{result: msg.Result}
	if msg.Error != "" {
		res = invocationResult{err: fmt.Errorf("hub method error: %s", msg.Error)}
	}
	ch <- res
}

func (t *SignalRTransport) failPending(cause error) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]chan invocationResult)
	t.mu.Unlock()

	for _, ch := range pending {
		ch <- invocationResult{err: fmt.Errorf("connection lost: %w", cause)}
	}
}

// reconnect retries the connection with backoff. It returns the new
// connection, or nil if the transport stopped or gave up.
func (t *SignalRTransport) reconnect(ctx context.Context, cause error) *websocket.Conn {
	t.mu.Lock()
	t.conn = nil
	onReconnecting := t.handlers.OnReconnecting
	onReconnected := t.handlers.OnReconnected
	t.mu.Unlock()

	t.log.Warn().Err(cause).Msg("SignalR connection lost, reconnecting")
	if onReconnecting != nil {
		onReconnecting(cause)
	}

	for attempt := 0; ; attempt++ {
		if t.cfg.MaxReconnectAttempts > 0 && attempt >= t.cfg.MaxReconnectAttempts {
			t.finish(ctx, fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, attempt, cause))
			return nil
		}

		if !sleepCtx(ctx, t.cfg.Backoff(attempt)) {
			return nil
		}

		conn, leftover, err := t.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			t.log.Warn().Err(err).Int("attempt", attempt+1).Msg("SignalR reconnect attempt failed")
			continue
		}

		t.mu.Lock()
		if ctx.Err() != nil {
			t.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		t.conn = conn
		t.mu.Unlock()

		t.log.Info().Int("attempt", attempt+1).Msg("SignalR reconnected")
		if onReconnected != nil {
			onReconnected()
		}
		if err := t.processRecords(leftover); err != nil {
			t.log.Warn().Err(err).Msg("Server closed the connection during handshake")
		}
		return conn
	}
}

// finish ends a run on the transport's own initiative and fires OnClose.
func (t *SignalRTransport) finish(ctx context.Context, err error) {
	t.mu.Lock()
	if !t.running || t.runCtx != ctx {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.conn = nil
	cancel := t.runCancel
	onClose := t.handlers.OnClose
	t.mu.Unlock()

	cancel()
	t.log.Warn().Err(err).Msg("SignalR connection closed")
	if onClose != nil {
		onClose(err)
	}
}

func (t *SignalRTransport) pingLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			conn := t.conn
			t.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := t.writeFrame(conn, pingMessage{Type: msgPing}); err != nil {
				t.log.Debug().Err(err).Msg("SignalR ping failed")
			}
		}
	}
}

func (t *SignalRTransport) writeFrame(conn *websocket.Conn, v any) error {
	data, err := encodeFrame(v)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(t.cfg.HandshakeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// sleepCtx waits for d or until ctx ends; it reports whether d elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
