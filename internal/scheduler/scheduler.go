// Package scheduler drives the periodic refresh of the dashboard while it is mounted.
package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RefreshFunc runs one refresh cycle. ctx is cancelled when the scheduler is unmounted.
type RefreshFunc func(ctx context.Context)

// Scheduler fires RefreshFunc once on mount and then every interval. Ticks do not
// wait for earlier cycles, so cycles may overlap.
type Scheduler struct {
	interval time.Duration
	refresh  RefreshFunc

	mu       sync.Mutex
	mounted  bool
	cancel   context.CancelFunc
	rearm    chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

func New(interval time.Duration, refresh RefreshFunc) *Scheduler {
	return &Scheduler{
		interval: interval,
		refresh:  refresh,
	}
}

// Mount starts the timer. Mounting an already mounted scheduler does nothing.
func (s *Scheduler) Mount(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted {
		return
	}

	scope, cancel := context.WithCancel(ctx)
	s.mounted = true
	s.cancel = cancel
	s.rearm = make(chan struct{}, 1)
	s.done = make(chan struct{})

	log.Printf("Refresh scheduler mounted (interval %s)", s.interval)
	go s.loop(scope, s.rearm, s.done)
}

// Rearm restarts the interval with an immediate cycle. Ignored while unmounted.
func (s *Scheduler) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return
	}

	select {
	case s.rearm <- struct{}{}:
	default:
	}
}

// Unmount stops the timer and cancels the context of in-flight cycles, then waits
// for them to return. Safe to call repeatedly and without a prior Mount.
func (s *Scheduler) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.inflight.Wait()

	log.Printf("Refresh scheduler unmounted")
}

func (s *Scheduler) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *Scheduler) loop(ctx context.Context, rearm <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.fire(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-rearm:
			ticker.Reset(s.interval)
			s.fire(ctx)
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.refresh(ctx)
	}()
}
