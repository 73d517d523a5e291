// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

const breakerName = "relay"

// Metadata keys set on every relayed message.
const (
	MetadataSenderID   = "sender_id"
	MetadataSequenceID = "sequence_id"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("relay publisher is closed")

// Config holds relay publisher settings.
type Config struct {
	URL           string
	SubjectPrefix string

	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration

	// MaxReconnects is passed to nats.go; -1 retries forever.
	MaxReconnects int
	ReconnectWait time.Duration
}

// ConfigFromRelay maps the relay configuration section.
func ConfigFromRelay(cfg config.RelayConfig) Config {
	return Config{
		URL:                     cfg.URL,
		SubjectPrefix:           cfg.SubjectPrefix,
		BreakerFailureThreshold: cfg.BreakerFailureThreshold,
		BreakerTimeout:          cfg.BreakerTimeout,
		MaxReconnects:           -1,
		ReconnectWait:           2 * time.Second,
	}
}

// NewNATSPublisher connects a core NATS Watermill publisher to cfg.URL.
func NewNATSPublisher(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = NewWatermillLogger(logging.WithComponent("relay"))
	}

	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("beacon-relay"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}

// Publisher publishes location updates through a circuit breaker.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	prefix    string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. Any message.Publisher works; production uses
// NewNATSPublisher and tests use the Watermill gochannel.
func NewPublisher(pub message.Publisher, cfg Config) *Publisher {
	prefix := strings.Trim(cfg.SubjectPrefix, ". ")
	if prefix == "" {
		prefix = "beacon.locations"
	}
	return &Publisher{
		publisher: pub,
		breaker:   newRelayBreaker(cfg),
		prefix:    prefix,
	}
}

func newRelayBreaker(cfg Config) *gobreaker.CircuitBreaker[struct{}] {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
}

// Publish mirrors one update to its sender subject.
func (p *Publisher) Publish(update models.LocationUpdate) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetadataSenderID, update.SenderID)
	msg.Metadata.Set(MetadataSequenceID, strconv.FormatUint(update.SequenceID, 10))

	subject := Subject(p.prefix, update.SenderID)
	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(subject, msg)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(breakerName, "rejected")
	case err != nil:
		metrics.RecordBreakerRequest(breakerName, "failure")
	default:
		metrics.RecordBreakerRequest(breakerName, "success")
	}
	metrics.RecordRelayPublish(err)

	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close closes the underlying publisher. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// Subject returns the subject for sender under prefix. Characters that are
// not letters, digits, '_' or '-' are replaced by '_', so a sender ID can
// never add subject tokens or wildcards.
func Subject(prefix, sender string) string {
	if sender == "" {
		sender = "_"
	}
	var b strings.Builder
	b.Grow(len(prefix) + 1 + len(sender))
	b.WriteString(prefix)
	b.WriteByte('.')
	for _, r := range sender {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
