// Package presentation derives everything the dashboard displays from a snapshot
// and the selected view. It has no state of its own.
package presentation

import "github.com/Purav30803/nds-client/internal/models"

const recentLimit = 5

const (
	ConnectivityConnecting = "connecting"
	ConnectivityLive       = "live"
	ConnectivityDegraded   = "degraded"
)

type StatusIndicator struct {
	Text         string `json:"text"`
	Running      bool   `json:"running"`
	Connectivity string `json:"connectivity"`
}

// Overview holds the four summary counters. Synthetic marks BlockedAttacks,
// ActiveConnections and Uptime as fallback values; once any failed cycle has
// produced them they stay marked, including after the backend recovers.
// TotalSynthetic marks TotalThreats the same way.
type Overview struct {
	TotalThreats      int    `json:"total_threats"`
	BlockedAttacks    int    `json:"blocked_attacks"`
	ActiveConnections int    `json:"active_connections"`
	Uptime            string `json:"uptime"`
	Synthetic         bool   `json:"synthetic"`
	TotalSynthetic    bool   `json:"total_synthetic"`

	FeedCounts map[models.FeedKind]int `json:"feed_counts"`
}

type Controls struct {
	StartEnabled bool `json:"start_enabled"`
	StopEnabled  bool `json:"stop_enabled"`
}

type Page struct {
	View     models.View     `json:"view"`
	Status   StatusIndicator `json:"status"`
	Overview Overview        `json:"overview"`
	Controls Controls        `json:"controls"`

	// Table is set for the three feed views.
	Table *Table `json:"table,omitempty"`

	// Recent is set for the overview: the newest rows of each feed.
	Recent []*Table `json:"recent,omitempty"`
}

// Render builds the page for view v. Unknown views render the overview.
func Render(s models.Snapshot, v models.View) Page {
	page := Page{
		View:     v,
		Status:   statusIndicator(s),
		Overview: overview(s),
		Controls: Controls{
			StartEnabled: !s.Status.IsRunning(),
			StopEnabled:  s.Status.IsRunning(),
		},
	}

	if kind, ok := v.Feed(); ok {
		page.Table = BuildTable(kind, s.Feeds.Get(kind), 0)
		return page
	}

	page.View = models.ViewOverview
	for _, kind := range models.AllFeeds {
		page.Recent = append(page.Recent, BuildTable(kind, s.Feeds.Get(kind), recentLimit))
	}
	return page
}

func statusIndicator(s models.Snapshot) StatusIndicator {
	status := s.Status
	if status == "" {
		status = models.StatusStopped
	}

	indicator := StatusIndicator{
		Text:    string(status),
		Running: status.IsRunning(),
	}

	switch {
	case s.Degraded:
		indicator.Connectivity = ConnectivityDegraded
	case s.HasSynced:
		indicator.Connectivity = ConnectivityLive
	default:
		indicator.Connectivity = ConnectivityConnecting
	}
	return indicator
}

// overview counts real events once any cycle has succeeded. Before that only the
// synthetic counters exist.
func overview(s models.Snapshot) Overview {
	o := Overview{
		BlockedAttacks:    s.Stats.BlockedAttacks,
		ActiveConnections: s.Stats.ActiveConnections,
		Uptime:            s.Stats.Uptime,
		FeedCounts: map[models.FeedKind]int{
			models.FeedThreats:   len(s.Feeds.Threats),
			models.FeedAnomalies: len(s.Feeds.Anomalies),
			models.FeedDPI:       len(s.Feeds.DPIAlerts),
		},
	}

	o.Synthetic = s.Degraded || s.Stats != (models.AggregateStats{})

	if s.HasSynced {
		o.TotalThreats = s.Feeds.Total()
	} else {
		o.TotalThreats = s.Stats.TotalThreats
		o.TotalSynthetic = s.Degraded
	}

	if o.Uptime == "" {
		o.Uptime = "0%"
	}
	return o
}
