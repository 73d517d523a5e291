// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// failingPublisher is a message.Publisher that always fails.
type failingPublisher struct {
	calls atomic.Int32
}

func (p *failingPublisher) Publish(string, ...*message.Message) error {
	p.calls.Add(1)
	return errors.New("nats: connection closed")
}

func (p *failingPublisher) Close() error { return nil }

func newGoChannel(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, NewWatermillLogger(zerolog.Nop()))
	t.Cleanup(func() { _ = pubSub.Close() })
	return pubSub
}

func TestSubject(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		sender string
		want   string
	}{
		{"plain", "beacon.locations", "alice", "beacon.locations.alice"},
		{"email", "beacon.locations", "test@example.com", "beacon.locations.test_example_com"},
		{"wildcards", "loc", "a.*.>", "loc.a____"},
		{"whitespace", "loc", "bob smith", "loc.bob_smith"},
		{"keeps dash and underscore", "loc", "a-b_c", "loc.a-b_c"},
		{"unicode", "loc", "zoë", "loc.zo_"},
		{"empty", "loc", "", "loc._"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subject(tt.prefix, tt.sender); got != tt.want {
				t.Errorf("Subject(%q, %q) = %q, want %q", tt.prefix, tt.sender, got, tt.want)
			}
		})
	}
}

func TestConfigFromRelay(t *testing.T) {
	cfg := ConfigFromRelay(config.RelayConfig{
		URL:                     "nats://nats:4222",
		SubjectPrefix:           "fleet",
		BreakerFailureThreshold: 3,
		BreakerTimeout:          time.Second,
	})
	if cfg.URL != "nats://nats:4222" || cfg.SubjectPrefix != "fleet" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.BreakerFailureThreshold != 3 || cfg.BreakerTimeout != time.Second {
		t.Errorf("breaker settings = %d/%v", cfg.BreakerFailureThreshold, cfg.BreakerTimeout)
	}
	if cfg.MaxReconnects != -1 {
		t.Errorf("MaxReconnects = %d, want -1", cfg.MaxReconnects)
	}
}

func TestPublisher_PublishesToSenderSubject(t *testing.T) {
	pubSub := newGoChannel(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "fleet.test_example_com")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	p := NewPublisher(pubSub, Config{SubjectPrefix: "fleet."})
	update := models.LocationUpdate{
		SenderID:   "test@example.com",
		Lat:        25.737,
		Lon:        90.364,
		ReceivedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SequenceID: 42,
	}
	if err := p.Publish(update); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID == "" {
			t.Error("message has no UUID")
		}
		if got := msg.Metadata.Get(MetadataSenderID); got != "test@example.com" {
			t.Errorf("sender metadata = %q", got)
		}
		if got := msg.Metadata.Get(MetadataSequenceID); got != "42" {
			t.Errorf("sequence metadata = %q", got)
		}
		var decoded models.LocationUpdate
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if decoded.SenderID != update.SenderID || decoded.Lat != update.Lat || decoded.SequenceID != 42 {
			t.Errorf("payload = %+v", decoded)
		}
		if !decoded.ReceivedAt.Equal(update.ReceivedAt) {
			t.Errorf("received_at = %v", decoded.ReceivedAt)
		}
	case <-ctx.Done():
		t.Fatal("no message relayed")
	}
}

func TestPublisher_DefaultPrefix(t *testing.T) {
	pubSub := newGoChannel(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "beacon.locations.alice")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	p := NewPublisher(pubSub, Config{})
	if err := p.Publish(models.LocationUpdate{SenderID: "alice"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case msg := <-messages:
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("no message on default prefix")
	}
}

func TestPublisher_BreakerOpens(t *testing.T) {
	failing := &failingPublisher{}
	p := NewPublisher(failing, Config{BreakerFailureThreshold: 2, BreakerTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		err := p.Publish(models.LocationUpdate{SenderID: "a"})
		if err == nil || errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("publish %d err = %v, want transport failure", i, err)
		}
	}

	err := p.Publish(models.LocationUpdate{SenderID: "a"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
	if got := failing.calls.Load(); got != 2 {
		t.Errorf("underlying publishes = %d, want 2", got)
	}
	if p.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q", p.BreakerState())
	}
}

func TestPublisher_Close(t *testing.T) {
	p := NewPublisher(newGoChannel(t), Config{})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := p.Publish(models.LocationUpdate{SenderID: "a"}); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish after Close = %v, want ErrPublisherClosed", err)
	}
}

func TestWatermillLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWatermillLogger(zerolog.New(&buf))

	logger.With(map[string]any{"topic": "fleet.a"}).Info("published", map[string]any{"uuid": "u1"})
	logger.Error("publish failed", errors.New("boom"), nil)
	logger.Trace("hidden", nil)

	out := buf.String()
	for _, want := range []string{`"topic":"fleet.a"`, `"uuid":"u1"`, `"message":"published"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
