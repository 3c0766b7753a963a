// Package control tracks the detection run status. Transitions are optimistic:
// the local status changes before the backend command is sent and does not
// depend on its result.
package control

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/models"
)

// Commander sends start/stop commands to the detection backend.
type Commander interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// CommandObserver receives every issued command together with its outcome.
type CommandObserver interface {
	CommandIssued(result models.CommandResult)
}

type Machine struct {
	// cmdMu orders transitions with their queued commands; mu guards state.
	cmdMu    sync.Mutex
	mu       sync.RWMutex
	tail     chan struct{}
	inflight sync.WaitGroup

	status    models.RunStatus
	commander Commander
	observer  CommandObserver
	listeners []func(models.RunStatus)
	now       func() time.Time
}

type Option func(*Machine)

func WithObserver(o CommandObserver) Option {
	return func(m *Machine) {
		m.observer = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine returns a machine in the Stopped state.
func NewMachine(commander Commander, opts ...Option) *Machine {
	m := &Machine{
		status:    models.StatusStopped,
		commander: commander,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Status() models.RunStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// OnChange registers a listener called after every actual status change.
// Repeated requests for the current status do not notify.
func (m *Machine) OnChange(fn func(models.RunStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// RequestStart moves to Running and notifies the backend.
func (m *Machine) RequestStart(ctx context.Context) models.RunStatus {
	return m.request(ctx, models.CommandStart, models.StatusRunning)
}

// RequestStop moves to Stopped and notifies the backend.
func (m *Machine) RequestStop(ctx context.Context) models.RunStatus {
	return m.request(ctx, models.CommandStop, models.StatusStopped)
}

// request transitions immediately and queues the backend command. Commands run
// one at a time in request order; the caller does not wait for them.
func (m *Machine) request(ctx context.Context, cmd models.Command, target models.RunStatus) models.RunStatus {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if m.transition(target) {
		log.Printf("Run status changed: %s", target)
	}

	prev := m.tail
	done := make(chan struct{})
	m.tail = done
	m.inflight.Add(1)

	// The command outlives the request that triggered it.
	cmdCtx := context.WithoutCancel(ctx)

	go func() {
		defer m.inflight.Done()
		defer close(done)

		if prev != nil {
			<-prev
		}
		m.dispatch(cmdCtx, cmd, target)
	}()

	return target
}

// Wait blocks until every queued backend command has completed.
func (m *Machine) Wait() {
	m.inflight.Wait()
}

func (m *Machine) dispatch(ctx context.Context, cmd models.Command, target models.RunStatus) {
	err := m.send(ctx, cmd)
	if err != nil {
		log.WithFields(log.Fields{
			"command": cmd,
			"status":  target,
		}).Warnf("Backend did not confirm %s command, local status kept: %v", cmd, err)
	}

	if m.observer == nil {
		return
	}

	result := models.CommandResult{
		Command:     cmd,
		StatusAfter: target,
		Timestamp:   m.now().Unix(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	m.observer.CommandIssued(result)
}

func (m *Machine) transition(target models.RunStatus) bool {
	m.mu.Lock()
	if m.status == target {
		m.mu.Unlock()
		return false
	}
	m.status = target
	listeners := make([]func(models.RunStatus), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(target)
	}
	return true
}

func (m *Machine) send(ctx context.Context, cmd models.Command) error {
	if m.commander == nil {
		return nil
	}

	switch cmd {
	case models.CommandStart:
		return m.commander.Start(ctx)
	case models.CommandStop:
		return m.commander.Stop(ctx)
	}
	return nil
}
