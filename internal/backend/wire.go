package backend

import "github.com/Purav30803/nds-client/internal/models"

// Wire shapes of the detection backend. The category field is named per feed;
// everything past this file uses models.Event.

type threatItem struct {
	Time       string `json:"time"`
	SourceIP   string `json:"source_ip"`
	AttackType string `json:"attack_type"`
	Details    string `json:"details"`
}

type anomalyItem struct {
	Time     string `json:"time"`
	SourceIP string `json:"source_ip"`
	Type     string `json:"type"`
	Details  string `json:"details"`
}

type dpiItem struct {
	Time           string `json:"time"`
	SourceIP       string `json:"source_ip"`
	Type           string `json:"type"`
	Details        string `json:"details"`
	PayloadSnippet string `json:"payload_snippet"`
}

// Envelope keys of the three GET responses.
const (
	keyLogs      = "logs"
	keyAnomalies = "anomalies"
	keyDPIAlerts = "dpi_alerts"
)

func (t threatItem) toEvent() models.Event {
	return models.Event{
		Time:     t.Time,
		SourceIP: t.SourceIP,
		Category: t.AttackType,
		Details:  t.Details,
	}
}

func (a anomalyItem) toEvent() models.Event {
	return models.Event{
		Time:     a.Time,
		SourceIP: a.SourceIP,
		Category: a.Type,
		Details:  a.Details,
	}
}

func (d dpiItem) toEvent() models.Event {
	return models.Event{
		Time:           d.Time,
		SourceIP:       d.SourceIP,
		Category:       d.Type,
		Details:        d.Details,
		PayloadSnippet: d.PayloadSnippet,
	}
}

type wireItem interface {
	threatItem | anomalyItem | dpiItem
	toEvent() models.Event
}

func convert[T wireItem](items []T) []models.Event {
	events := make([]models.Event, 0, len(items))
	for _, item := range items {
		events = append(events, item.toEvent())
	}
	return events
}
