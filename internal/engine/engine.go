// Package engine owns the dashboard view model. Each refresh cycle either replaces
// all three feeds with a fresh newest-first snapshot or, when the backend cannot be
// read, leaves the feeds untouched and advances the synthetic degraded-mode counters.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/models"
)

const (
	baseActiveConnections = 150
	stoppedUptime         = "0%"
)

// FeedSource fetches all three feeds as one unit.
type FeedSource interface {
	FetchAll(ctx context.Context) (models.Feeds, error)
}

type StatusReader interface {
	Status() models.RunStatus
}

// CycleObserver is told about every cycle that was applied to the view model,
// in cycle order. It must not call back into the engine.
type CycleObserver interface {
	CycleCompleted(result models.CycleResult)
}

type Engine struct {
	source   FeedSource
	status   StatusReader
	observer CycleObserver
	uptime   string
	now      func() time.Time

	randMu sync.Mutex
	rng    *rand.Rand

	mu          sync.RWMutex
	attached    bool
	feeds       models.Feeds
	stats       models.AggregateStats
	degraded    bool
	hasSynced   bool
	cycle       uint64
	lastAttempt time.Time
	lastSuccess time.Time

	// emitMu is taken while mu is still held and released after subscribers and
	// the observer have been told, so emissions leave in the order they were applied.
	emitMu sync.Mutex

	subsMu sync.Mutex
	subs   map[chan models.Snapshot]struct{}
}

type Option func(*Engine)

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithUptimePlaceholder sets the uptime shown in degraded mode while Running.
func WithUptimePlaceholder(uptime string) Option {
	return func(e *Engine) {
		e.uptime = uptime
	}
}

func WithObserver(o CycleObserver) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an attached engine with empty feeds.
func New(source FeedSource, status StatusReader, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		status:   status,
		uptime:   "99.9%",
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		attached: true,
		feeds: models.Feeds{
			Threats:   []models.Event{},
			Anomalies: []models.Event{},
			DPIAlerts: []models.Event{},
		},
		subs: make(map[chan models.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh runs one cycle. The result is discarded if the engine was detached or
// ctx ended while the fetch was in flight.
func (e *Engine) Refresh(ctx context.Context) {
	started := e.now()
	feeds, err := e.source.FetchAll(ctx)

	e.mu.Lock()
	if !e.attached || ctx.Err() != nil {
		e.mu.Unlock()
		log.Debugf("Discarding refresh cycle result after teardown")
		return
	}

	e.cycle++
	e.lastAttempt = started

	var result models.CycleResult
	if err != nil {
		result = e.applyFailure(err)
	} else {
		result = e.applySuccess(feeds)
	}
	result.Cycle = e.cycle
	result.Duration = e.now().Sub(started)
	result.Timestamp = started.Unix()

	snapshot := e.snapshotLocked()
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	e.publish(snapshot)

	if e.observer != nil {
		e.observer.CycleCompleted(result)
	}
}

// applySuccess replaces every feed with a newest-first copy. Caller holds mu.
func (e *Engine) applySuccess(feeds models.Feeds) models.CycleResult {
	wasDegraded := e.degraded

	e.feeds = feeds.Reversed()
	e.degraded = false
	e.hasSynced = true
	e.lastSuccess = e.lastAttempt

	if wasDegraded {
		log.Printf("Detection backend reachable again, leaving degraded mode")
	}

	log.WithFields(log.Fields{
		"cycle":     e.cycle,
		"threats":   len(e.feeds.Threats),
		"anomalies": len(e.feeds.Anomalies),
		"dpi":       len(e.feeds.DPIAlerts),
	}).Debug("Refresh cycle applied")

	return models.CycleResult{
		Outcome: models.CycleSuccess,
		Counts: map[string]int{
			string(models.FeedThreats):   len(e.feeds.Threats),
			string(models.FeedAnomalies): len(e.feeds.Anomalies),
			string(models.FeedDPI):       len(e.feeds.DPIAlerts),
		},
		Stats: e.stats,
	}
}

// applyFailure keeps the last feeds and advances the synthetic counters. Caller holds mu.
func (e *Engine) applyFailure(cause error) models.CycleResult {
	if !e.degraded {
		log.Warnf("Detection backend unreachable, entering degraded mode: %v", cause)
	}
	e.degraded = true

	e.stats.TotalThreats += e.intn(3)
	e.stats.BlockedAttacks += e.intn(2)
	e.stats.ActiveConnections = baseActiveConnections + e.intn(50)

	if e.status != nil && e.status.Status().IsRunning() {
		e.stats.Uptime = e.uptime
	} else {
		e.stats.Uptime = stoppedUptime
	}

	log.WithFields(log.Fields{
		"cycle":    e.cycle,
		"degraded": true,
	}).Debugf("Refresh cycle failed: %v", cause)

	return models.CycleResult{
		Outcome:  models.CycleFailure,
		Stats:    e.stats,
		Degraded: true,
		Error:    cause.Error(),
	}
}

func (e *Engine) intn(n int) int {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.rng.Intn(n)
}

// Detach stops all further mutation. In-flight cycles finishing later are dropped.
func (e *Engine) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = false
}

// Attach re-enables cycle application after a Detach.
func (e *Engine) Attach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = true
}

func (e *Engine) Attached() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.attached
}

// Snapshot returns a deep copy of the view model with the current run status.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() models.Snapshot {
	s := models.Snapshot{
		Feeds:       e.feeds.Clone(),
		Stats:       e.stats,
		Status:      models.StatusStopped,
		Degraded:    e.degraded,
		HasSynced:   e.hasSynced,
		Cycle:       e.cycle,
		LastAttempt: e.lastAttempt,
		LastSuccess: e.lastSuccess,
	}
	if e.status != nil {
		s.Status = e.status.Status()
	}
	return s
}

// Subscribe returns a channel receiving a snapshot after every applied cycle and
// on Notify. Slow subscribers only see the latest snapshot.
func (e *Engine) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, 1)

	e.subsMu.Lock()
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.subsMu.Lock()
			delete(e.subs, ch)
			e.subsMu.Unlock()
		})
	}
	return ch, cancel
}

// Notify pushes the current snapshot to subscribers, e.g. after a run status change.
func (e *Engine) Notify() {
	e.mu.RLock()
	snapshot := e.snapshotLocked()
	e.emitMu.Lock()
	e.mu.RUnlock()
	defer e.emitMu.Unlock()

	e.publish(snapshot)
}

func (e *Engine) publish(s models.Snapshot) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	for ch := range e.subs {
		select {
		case ch <- s:
		default:
			// Replace the stale snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
