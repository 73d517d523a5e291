// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package publisher

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/hub"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/validation"
)

// Sender is the part of the hub connection the pipeline needs.
// *hub.Manager satisfies it.
type Sender interface {
	IsConnected() bool
	Send(ctx context.Context, loc models.OutboundLocation) (hub.Ack, error)
}

// Config holds Pipeline settings.
type Config struct {
	Mode     models.PublishMode
	SenderID string
	Interval time.Duration

	// AutoStart begins auto-publishing when Serve starts.
	AutoStart bool

	DefaultLat        float64
	DefaultLon        float64
	JitterDegrees     float64
	TestSpreadDegrees float64
	TestSenderID      string

	// Random returns values in [0, 1); defaults to math/rand/v2.Float64.
	Random func() float64
	Now    func() time.Time
}

// ConfigFromPublish builds a pipeline Config from the publish config section.
func ConfigFromPublish(cfg *config.Config) Config {
	return Config{
		Mode:              cfg.PublishMode(),
		SenderID:          cfg.Publish.SenderID,
		Interval:          cfg.Publish.Interval,
		AutoStart:         cfg.Publish.AutoStart,
		DefaultLat:        cfg.Publish.DefaultLat,
		DefaultLon:        cfg.Publish.DefaultLon,
		JitterDegrees:     cfg.Publish.JitterDegrees,
		TestSpreadDegrees: cfg.Publish.TestSpreadDegrees,
		TestSenderID:      cfg.Publish.TestSenderID,
	}
}

// PublishRequest is a one-shot publish.
type PublishRequest struct {
	SenderID string   `json:"sender_id" validate:"required,senderid"`
	Lat      *float64 `json:"lat" validate:"required,latitude"`
	Lon      *float64 `json:"lon" validate:"required,longitude"`
}

// Result describes a successful publish.
type Result struct {
	SenderID  string             `json:"sender_id"`
	Lat       float64            `json:"lat"`
	Lon       float64            `json:"lon"`
	Mode      models.PublishMode `json:"mode"`
	Simulated bool               `json:"simulated"`
	SentAt    time.Time          `json:"sent_at"`
	Ack       *hub.Ack           `json:"ack,omitempty"`
}

// Position is a coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Pipeline owns the publish session.
type Pipeline struct {
	sender Sender
	cfg    Config
	log    zerolog.Logger

	mu          sync.Mutex
	senderID    string
	lat, lon    *float64
	mode        models.PublishMode
	sentCount   uint64
	failedCount uint64
	lastSentAt  *time.Time

	// autoMu serializes start and stop; readers load auto without it.
	autoMu sync.Mutex
	auto   atomic.Pointer[autoTask]
}

// New creates a pipeline publishing through sender.
func New(sender Sender, cfg Config) *Pipeline {
	if cfg.Mode == "" {
		cfg.Mode = models.ModeLive
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.JitterDegrees <= 0 {
		cfg.JitterDegrees = 0.0005
	}
	if cfg.TestSpreadDegrees <= 0 {
		cfg.TestSpreadDegrees = 0.005
	}
	if cfg.TestSenderID == "" {
		cfg.TestSenderID = config.DefaultTestSender
	}
	if cfg.Random == nil {
		cfg.Random = rand.Float64
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Pipeline{
		sender:   sender,
		cfg:      cfg,
		log:      logging.WithComponent("publisher"),
		senderID: strings.TrimSpace(cfg.SenderID),
		mode:     cfg.Mode,
	}
}

// PublishOnce validates req, stores it as the session's sender and
// position, and publishes it.
func (p *Pipeline) PublishOnce(ctx context.Context, req PublishRequest) (Result, error) {
	req.SenderID = strings.TrimSpace(req.SenderID)
	if err := newValidationError(validation.ValidateStruct(&req)); err != nil {
		return Result{}, err
	}

	lat, lon := *req.Lat, *req.Lon
	p.mu.Lock()
	p.senderID = req.SenderID
	p.lat, p.lon = &lat, &lon
	p.mu.Unlock()

	return p.publish(ctx, models.OutboundLocation{SenderID: req.SenderID, Lat: lat, Lon: lon})
}

// SendTestLocation publishes a random point near the default position for
// the session sender, or the configured test sender when none is set. The
// session position is left unchanged.
func (p *Pipeline) SendTestLocation(ctx context.Context) (Result, error) {
	p.mu.Lock()
	sender := p.senderID
	lat := p.cfg.DefaultLat + p.spread(p.cfg.TestSpreadDegrees)
	lon := p.cfg.DefaultLon + p.spread(p.cfg.TestSpreadDegrees)
	p.mu.Unlock()

	if sender == "" {
		sender = p.cfg.TestSenderID
	}
	return p.publish(ctx, models.OutboundLocation{SenderID: sender, Lat: clampLat(lat), Lon: wrapLon(lon)})
}

// SimulateMovement moves the session position by one random step without
// publishing. With no position set it starts from the default position.
func (p *Pipeline) SimulateMovement() Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jitterLocked()
}

// jitterLocked applies one random step to the session position. p.mu must be held.
func (p *Pipeline) jitterLocked() Position {
	lat, lon := p.cfg.DefaultLat, p.cfg.DefaultLon
	if p.lat != nil && p.lon != nil {
		lat, lon = *p.lat, *p.lon
	}
	lat = clampLat(lat + p.spread(p.cfg.JitterDegrees))
	lon = wrapLon(lon + p.spread(p.cfg.JitterDegrees))
	p.lat, p.lon = &lat, &lon
	return Position{Lat: lat, Lon: lon}
}

// spread returns a uniform value in [-d, d).
func (p *Pipeline) spread(d float64) float64 {
	return (p.cfg.Random() - 0.5) * 2 * d
}

func (p *Pipeline) publish(ctx context.Context, loc models.OutboundLocation) (Result, error) {
	mode := p.Mode()
	res := Result{SenderID: loc.SenderID, Lat: loc.Lat, Lon: loc.Lon, Mode: mode}

	if mode == models.ModeMock || !p.sender.IsConnected() {
		res.Simulated = true
		res.SentAt = p.recordSuccess()
		metrics.RecordPublish(string(mode), "simulated")
		logging.Ctx(ctx).Info().
			Str("sender", loc.SenderID).
			Float64("lat", loc.Lat).
			Float64("lon", loc.Lon).
			Str("mode", string(mode)).
			Msg("Simulated location publish")
		return res, nil
	}

	ack, err := p.sender.Send(ctx, loc)
	if err != nil {
		p.mu.Lock()
		p.failedCount++
		p.mu.Unlock()
		metrics.RecordPublish(string(mode), "failure")
		return Result{}, err
	}

	res.SentAt = p.recordSuccess()
	res.Ack = &ack
	metrics.RecordPublish(string(mode), "success")
	logging.Ctx(ctx).Debug().Str("sender", loc.SenderID).Msg("Location published")
	return res, nil
}

func (p *Pipeline) recordSuccess() time.Time {
	now := p.cfg.Now()
	p.mu.Lock()
	p.sentCount++
	p.lastSentAt = &now
	p.mu.Unlock()
	return now
}

// SetPosition sets the session coordinates.
func (p *Pipeline) SetPosition(lat, lon float64) error {
	if err := newValidationError(validation.ValidateVar("lat", lat, "latitude")); err != nil {
		return err
	}
	if err := newValidationError(validation.ValidateVar("lon", lon, "longitude")); err != nil {
		return err
	}
	p.mu.Lock()
	p.lat, p.lon = &lat, &lon
	p.mu.Unlock()
	return nil
}

// SetSender sets the session sender.
func (p *Pipeline) SetSender(senderID string) error {
	senderID = strings.TrimSpace(senderID)
	if err := newValidationError(validation.ValidateVar("sender_id", senderID, "required,senderid")); err != nil {
		return err
	}
	p.mu.Lock()
	p.senderID = senderID
	p.mu.Unlock()
	return nil
}

// SetMode switches between live and mock publishing.
func (p *Pipeline) SetMode(mode models.PublishMode) {
	p.mu.Lock()
	prev := p.mode
	p.mode = mode
	p.mu.Unlock()
	if prev != mode {
		p.log.Info().Str("from", string(prev)).Str("to", string(mode)).Msg("Publish mode changed")
	}
}

// Mode returns the current publish mode.
func (p *Pipeline) Mode() models.PublishMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Session returns a snapshot of the publish session.
func (p *Pipeline) Session() models.PublishSession {
	task := p.auto.Load()

	p.mu.Lock()
	defer p.mu.Unlock()

	s := models.PublishSession{
		SenderID:    p.senderID,
		Mode:        p.mode,
		SentCount:   p.sentCount,
		FailedCount: p.failedCount,
	}
	if p.lat != nil && p.lon != nil {
		lat, lon := *p.lat, *p.lon
		s.CurrentLat, s.CurrentLon = &lat, &lon
	}
	if p.lastSentAt != nil {
		t := *p.lastSentAt
		s.LastSentAt = &t
	}
	if task != nil {
		s.AutoPublishEnabled = true
		s.AutoPublishEvery = task.interval.String()
	}
	return s
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// wrapLon folds lon into [-180, 180].
func wrapLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
