package models

import "strings"

// Event is a single record from any of the three feeds. The per-feed field names
// used on the wire (attack_type, type) are mapped into Category by the backend client.
type Event struct {
	Time           string `json:"time"`
	SourceIP       string `json:"source_ip"`
	Category       string `json:"category"`
	Details        string `json:"details"`
	PayloadSnippet string `json:"payload_snippet,omitempty"`
}

// HasPayload reports whether the event carries an inspected payload excerpt.
func (e Event) HasPayload() bool {
	return e.PayloadSnippet != ""
}

// Date returns the date portion of Time ("<date> <time>").
func (e Event) Date() string {
	date, _, found := strings.Cut(e.Time, " ")
	if !found {
		return ""
	}
	return date
}

// Clock returns the time-of-day portion of Time. Values without a date part are returned whole.
func (e Event) Clock() string {
	_, clock, found := strings.Cut(e.Time, " ")
	if !found {
		return e.Time
	}
	return clock
}

type FeedKind string

const (
	FeedThreats   FeedKind = "threats"
	FeedAnomalies FeedKind = "anomalies"
	FeedDPI       FeedKind = "dpi"
)

var AllFeeds = []FeedKind{FeedThreats, FeedAnomalies, FeedDPI}

func ParseFeedKind(s string) (FeedKind, bool) {
	for _, kind := range AllFeeds {
		if string(kind) == s {
			return kind, true
		}
	}
	return "", false
}

// Feeds holds one collection per feed.
type Feeds struct {
	Threats   []Event `json:"threats"`
	Anomalies []Event `json:"anomalies"`
	DPIAlerts []Event `json:"dpi_alerts"`
}

func (f Feeds) Get(kind FeedKind) []Event {
	switch kind {
	case FeedThreats:
		return f.Threats
	case FeedAnomalies:
		return f.Anomalies
	case FeedDPI:
		return f.DPIAlerts
	}
	return nil
}

// Total is the number of events across all feeds.
func (f Feeds) Total() int {
	return len(f.Threats) + len(f.Anomalies) + len(f.DPIAlerts)
}

func (f Feeds) Clone() Feeds {
	return Feeds{
		Threats:   cloneEvents(f.Threats),
		Anomalies: cloneEvents(f.Anomalies),
		DPIAlerts: cloneEvents(f.DPIAlerts),
	}
}

// Reversed returns a copy of every feed in reverse order.
func (f Feeds) Reversed() Feeds {
	return Feeds{
		Threats:   reverseEvents(f.Threats),
		Anomalies: reverseEvents(f.Anomalies),
		DPIAlerts: reverseEvents(f.DPIAlerts),
	}
}

func cloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

func reverseEvents(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e
	}
	return out
}
