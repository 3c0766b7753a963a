package presentation

import "github.com/Purav30803/nds-client/internal/models"

type ColumnKey string

const (
	ColumnTime     ColumnKey = "time"
	ColumnSourceIP ColumnKey = "source_ip"
	ColumnCategory ColumnKey = "category"
	ColumnDetails  ColumnKey = "details"
	ColumnPayload  ColumnKey = "payload"
)

type Column struct {
	Key   ColumnKey `json:"key"`
	Label string    `json:"label"`
}

// Row maps column keys to cell text. The payload cell is only present on DPI rows
// that carry a snippet.
type Row struct {
	Date  string               `json:"date"`
	Cells map[ColumnKey]string `json:"cells"`
}

func (r Row) Has(key ColumnKey) bool {
	_, ok := r.Cells[key]
	return ok
}

type Table struct {
	Feed    models.FeedKind `json:"feed"`
	Title   string          `json:"title"`
	Columns []Column        `json:"columns"`
	Rows    []Row           `json:"rows"`
	Total   int             `json:"total"`
}

func (t *Table) HasColumn(key ColumnKey) bool {
	for _, c := range t.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

var (
	titles = map[models.FeedKind]string{
		models.FeedThreats:   "Threat Logs",
		models.FeedAnomalies: "ML Anomalies",
		models.FeedDPI:       "DPI Alerts",
	}

	categoryLabels = map[models.FeedKind]string{
		models.FeedThreats:   "Attack Type",
		models.FeedAnomalies: "Anomaly Type",
		models.FeedDPI:       "Alert Type",
	}
)

// BuildTable renders events (already newest-first) for one feed. limit <= 0 keeps all rows.
func BuildTable(kind models.FeedKind, events []models.Event, limit int) *Table {
	t := &Table{
		Feed:    kind,
		Title:   titles[kind],
		Columns: columnsFor(kind),
		Rows:    []Row{},
		Total:   len(events),
	}

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	for _, e := range events {
		row := Row{
			Date: e.Date(),
			Cells: map[ColumnKey]string{
				ColumnTime:     e.Clock(),
				ColumnSourceIP: e.SourceIP,
				ColumnCategory: e.Category,
				ColumnDetails:  e.Details,
			},
		}
		if kind == models.FeedDPI && e.HasPayload() {
			row.Cells[ColumnPayload] = e.PayloadSnippet
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

func columnsFor(kind models.FeedKind) []Column {
	columns := []Column{
		{Key: ColumnTime, Label: "Time"},
		{Key: ColumnSourceIP, Label: "Source IP"},
		{Key: ColumnCategory, Label: categoryLabels[kind]},
		{Key: ColumnDetails, Label: "Details"},
	}
	if kind == models.FeedDPI {
		columns = append(columns, Column{Key: ColumnPayload, Label: "Payload"})
	}
	return columns
}
