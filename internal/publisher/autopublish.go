// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package publisher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/validation"
)

type autoTask struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// StartAutoPublish publishes the session position for senderID right away
// and then every interval (the configured default when interval <= 0). A
// running task is replaced.
func (p *Pipeline) StartAutoPublish(senderID string, interval time.Duration) error {
	senderID = strings.TrimSpace(senderID)
	if err := newValidationError(validation.ValidateVar("sender_id", senderID, "required,senderid")); err != nil {
		return err
	}
	if interval <= 0 {
		interval = p.cfg.Interval
	}

	p.mu.Lock()
	if p.lat == nil || p.lon == nil {
		p.mu.Unlock()
		return ErrNoPosition
	}
	p.senderID = senderID
	p.mu.Unlock()

	p.autoMu.Lock()
	defer p.autoMu.Unlock()

	p.stopAutoLocked()

	ctx, cancel := context.WithCancel(context.Background())
	task := &autoTask{interval: interval, cancel: cancel, done: make(chan struct{})}
	p.auto.Store(task)
	go p.runAuto(ctx, task)

	metrics.SetAutoPublishActive(true)
	logging.Info().Str("sender", senderID).Dur("interval", interval).Msg("Auto-publish started")
	return nil
}

// StopAutoPublish stops the auto-publish task and waits for an in-flight
// tick to finish. No tick runs after it returns. Safe to call when not running.
func (p *Pipeline) StopAutoPublish() {
	p.autoMu.Lock()
	defer p.autoMu.Unlock()
	if p.stopAutoLocked() {
		logging.Info().Msg("Auto-publish stopped")
	}
}

// AutoPublishing reports whether the auto-publish task is running. It
// never waits on a stop in progress.
func (p *Pipeline) AutoPublishing() bool {
	return p.auto.Load() != nil
}

// stopAutoLocked clears the task before waiting for it, so readers see
// auto-publish as off while an in-flight tick drains. autoMu must be held.
func (p *Pipeline) stopAutoLocked() bool {
	task := p.auto.Swap(nil)
	if task == nil {
		return false
	}
	task.cancel()
	<-task.done
	metrics.SetAutoPublishActive(false)
	return true
}

func (p *Pipeline) runAuto(ctx context.Context, task *autoTask) {
	defer close(task.done)

	if ctx.Err() != nil {
		return
	}
	p.tick(task.interval)

	ticker := time.NewTicker(task.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.tick(task.interval)
		}
	}
}

// tick publishes once. The send gets its own deadline so that stopping the
// task lets an in-flight send finish rather than aborting it.
func (p *Pipeline) tick(timeout time.Duration) {
	p.mu.Lock()
	sender := p.senderID
	var pos Position
	if p.mode == models.ModeMock {
		pos = p.jitterLocked()
	} else if p.lat != nil && p.lon != nil {
		pos = Position{Lat: *p.lat, Lon: *p.lon}
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	_, err := p.publish(ctx, models.OutboundLocation{SenderID: sender, Lat: pos.Lat, Lon: pos.Lon})
	metrics.RecordAutoPublishTick(err)
	if err != nil {
		evt := logging.Ctx(ctx).Warn().Err(err).Str("sender", sender)
		if errors.Is(err, context.DeadlineExceeded) {
			evt = evt.Dur("timeout", timeout)
		}
		evt.Msg("Auto-publish tick failed")
	}
}

// Serve implements suture.Service. It starts auto-publishing when
// configured to, and stops it when ctx ends.
func (p *Pipeline) Serve(ctx context.Context) error {
	if p.cfg.AutoStart {
		if p.cfg.SenderID == "" {
			logging.Warn().Msg("Auto-publish at startup requested without a sender, skipping")
		} else {
			p.mu.Lock()
			if p.lat == nil || p.lon == nil {
				lat, lon := p.cfg.DefaultLat, p.cfg.DefaultLon
				p.lat, p.lon = &lat, &lon
			}
			p.mu.Unlock()
			if err := p.StartAutoPublish(p.cfg.SenderID, p.cfg.Interval); err != nil {
				logging.Warn().Err(err).Msg("Failed to start auto-publish")
			}
		}
	}

	<-ctx.Done()
	p.StopAutoPublish()
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (p *Pipeline) String() string {
	return "publish-pipeline"
}
