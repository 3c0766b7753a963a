package models

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	StatusStopped RunStatus = "Stopped"
	StatusRunning RunStatus = "Running"
)

func (s RunStatus) IsRunning() bool {
	return s == StatusRunning
}

// View is the dashboard tab currently selected by a user.
type View string

const (
	ViewOverview  View = "overview"
	ViewThreats   View = "threats"
	ViewAnomalies View = "anomalies"
	ViewDPI       View = "dpi"
)

// ParseView maps a tab name to a View. An empty name selects the overview.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewOverview:
		return ViewOverview, nil
	case ViewThreats, ViewAnomalies, ViewDPI:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view: %q", s)
}

// Feed returns the feed a table view displays. The overview has no feed.
func (v View) Feed() (FeedKind, bool) {
	switch v {
	case ViewThreats:
		return FeedThreats, true
	case ViewAnomalies:
		return FeedAnomalies, true
	case ViewDPI:
		return FeedDPI, true
	}
	return "", false
}

// AggregateStats are synthetic counters kept alive while the backend is unreachable.
// They are never derived from real events.
type AggregateStats struct {
	TotalThreats      int    `json:"total_threats"`
	BlockedAttacks    int    `json:"blocked_attacks"`
	ActiveConnections int    `json:"active_connections"`
	Uptime            string `json:"uptime"`
}

// Snapshot is a read-only copy of the view model plus control state.
type Snapshot struct {
	Feeds       Feeds          `json:"feeds"`
	Stats       AggregateStats `json:"stats"`
	Status      RunStatus      `json:"status"`
	Degraded    bool           `json:"degraded"`
	HasSynced   bool           `json:"has_synced"`
	Cycle       uint64         `json:"cycle"`
	LastAttempt time.Time      `json:"last_attempt"`
	LastSuccess time.Time      `json:"last_success"`
}

type CycleOutcome string

const (
	CycleSuccess CycleOutcome = "success"
	CycleFailure CycleOutcome = "failure"
)

// CycleResult describes one applied refresh cycle.
type CycleResult struct {
	Cycle     uint64         `json:"cycle"`
	Outcome   CycleOutcome   `json:"outcome"`
	Counts    map[string]int `json:"counts,omitempty"`
	Stats     AggregateStats `json:"stats"`
	Degraded  bool           `json:"degraded"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp int64          `json:"timestamp"`
}

type Command string

const (
	CommandStart Command = "start"
	CommandStop  Command = "stop"
)

// CommandResult records a control command issued to the backend. StatusAfter is the
// local status, which is set before the backend answers and regardless of Error.
type CommandResult struct {
	Command     Command   `json:"command"`
	StatusAfter RunStatus `json:"status_after"`
	Error       string    `json:"error,omitempty"`
	Timestamp   int64     `json:"timestamp"`
}

func (r CommandResult) Failed() bool {
	return r.Error != ""
}
