package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Purav30803/nds-client/internal/models"
)

func syncedSnapshot() models.Snapshot {
	return models.Snapshot{
		Status:    models.StatusRunning,
		HasSynced: true,
		Feeds: models.Feeds{
			Threats: []models.Event{
				{Time: "2024-01-01 10:00:00", SourceIP: "1.2.3.4", Category: "PortScan", Details: "x", PayloadSnippet: "should not show"},
			},
			Anomalies: []models.Event{
				{Time: "2024-01-01 10:00:01", SourceIP: "5.6.7.8", Category: "Outlier", Details: "y"},
				{Time: "2024-01-01 09:59:00", SourceIP: "5.6.7.9", Category: "Outlier", Details: "z"},
			},
			DPIAlerts: []models.Event{
				{Time: "2024-01-01 10:00:02", SourceIP: "9.9.9.9", Category: "PathTraversal", Details: "http", PayloadSnippet: "GET /etc/passwd"},
				{Time: "2024-01-01 10:00:01", SourceIP: "9.9.9.8", Category: "Beacon", Details: "dns"},
			},
		},
		Stats: models.AggregateStats{TotalThreats: 42, BlockedAttacks: 7, ActiveConnections: 170, Uptime: "99.9%"},
	}
}

func TestRender_ScenarioA_OverviewTotal(t *testing.T) {
	s := models.Snapshot{
		Status:    models.StatusStopped,
		HasSynced: true,
		Feeds: models.Feeds{
			Threats:   []models.Event{{Time: "2024-01-01 10:00:00", SourceIP: "1.2.3.4", Category: "PortScan", Details: "x"}},
			Anomalies: []models.Event{},
			DPIAlerts: []models.Event{},
		},
	}

	overview := Render(s, models.ViewOverview)
	threats := Render(s, models.ViewThreats)

	assert.Equal(t, 1, overview.Overview.TotalThreats)
	assert.False(t, overview.Overview.Synthetic)
	assert.False(t, overview.Overview.TotalSynthetic)
	require.NotNil(t, threats.Table)
	require.Len(t, threats.Table.Rows, 1)
	assert.Equal(t, "1.2.3.4", threats.Table.Rows[0].Cells[ColumnSourceIP])
	assert.Equal(t, "10:00:00", threats.Table.Rows[0].Cells[ColumnTime])
	assert.Equal(t, "2024-01-01", threats.Table.Rows[0].Date)
}

func TestRender_TotalIsLiveSumOfFeeds(t *testing.T) {
	s := syncedSnapshot()

	page := Render(s, models.ViewOverview)

	assert.Equal(t, 5, page.Overview.TotalThreats, "synthetic counter of 42 is ignored once feeds are real")
	assert.Equal(t, s.Feeds.Total(), page.Overview.TotalThreats)
	assert.Equal(t, 2, page.Overview.FeedCounts[models.FeedDPI])
}

func TestRender_PureDegradedModeShowsSyntheticCounters(t *testing.T) {
	s := models.Snapshot{
		Status:   models.StatusRunning,
		Degraded: true,
		Stats:    models.AggregateStats{TotalThreats: 4, BlockedAttacks: 1, ActiveConnections: 160, Uptime: "99.9%"},
	}

	page := Render(s, models.ViewOverview)

	assert.Equal(t, 4, page.Overview.TotalThreats)
	assert.True(t, page.Overview.TotalSynthetic)
	assert.True(t, page.Overview.Synthetic)
	assert.Equal(t, 160, page.Overview.ActiveConnections)
	assert.Equal(t, "99.9%", page.Overview.Uptime)
	assert.Equal(t, ConnectivityDegraded, page.Status.Connectivity)
}

func TestRender_FallbackCountersStayMarkedAcrossOutageAndRecovery(t *testing.T) {
	fallback := models.AggregateStats{TotalThreats: 2, BlockedAttacks: 3, ActiveConnections: 181, Uptime: "99.9%"}

	tests := []struct {
		name         string
		degraded     bool
		connectivity string
	}{
		{"outage after first sync", true, ConnectivityDegraded},
		{"backend recovered", false, ConnectivityLive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := syncedSnapshot()
			s.Stats = fallback
			s.Degraded = tt.degraded

			page := Render(s, models.ViewOverview)

			assert.Equal(t, tt.connectivity, page.Status.Connectivity)
			assert.True(t, page.Overview.Synthetic)
			assert.Equal(t, 3, page.Overview.BlockedAttacks)
			assert.Equal(t, 181, page.Overview.ActiveConnections)
			assert.Equal(t, 5, page.Overview.TotalThreats)
			assert.False(t, page.Overview.TotalSynthetic)
		})
	}
}

func TestRender_NoFallbackBeforeAnyFailure(t *testing.T) {
	s := syncedSnapshot()
	s.Stats = models.AggregateStats{}

	page := Render(s, models.ViewOverview)

	assert.False(t, page.Overview.Synthetic)
	assert.False(t, page.Overview.TotalSynthetic)
}

func TestRender_StatusIndicator(t *testing.T) {
	tests := []struct {
		name         string
		snapshot     models.Snapshot
		text         string
		connectivity string
	}{
		{
			name:         "before first cycle",
			snapshot:     models.Snapshot{},
			text:         "Stopped",
			connectivity: ConnectivityConnecting,
		},
		{
			name:         "live and running",
			snapshot:     models.Snapshot{Status: models.StatusRunning, HasSynced: true},
			text:         "Running",
			connectivity: ConnectivityLive,
		},
		{
			name:         "degraded after success",
			snapshot:     models.Snapshot{Status: models.StatusStopped, HasSynced: true, Degraded: true},
			text:         "Stopped",
			connectivity: ConnectivityDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Render(tt.snapshot, models.ViewOverview)

			assert.Equal(t, tt.text, page.Status.Text)
			assert.Equal(t, tt.connectivity, page.Status.Connectivity)
		})
	}
}

func TestRender_ControlsDisableCurrentState(t *testing.T) {
	running := Render(models.Snapshot{Status: models.StatusRunning}, models.ViewOverview)
	stopped := Render(models.Snapshot{Status: models.StatusStopped}, models.ViewOverview)

	assert.False(t, running.Controls.StartEnabled)
	assert.True(t, running.Controls.StopEnabled)
	assert.True(t, stopped.Controls.StartEnabled)
	assert.False(t, stopped.Controls.StopEnabled)
}

func TestRender_ScenarioD_PayloadColumnOnlyOnDPI(t *testing.T) {
	s := syncedSnapshot()

	dpi := Render(s, models.ViewDPI).Table
	threats := Render(s, models.ViewThreats).Table
	anomalies := Render(s, models.ViewAnomalies).Table

	require.NotNil(t, dpi)
	assert.True(t, dpi.HasColumn(ColumnPayload))
	assert.Equal(t, "GET /etc/passwd", dpi.Rows[0].Cells[ColumnPayload])
	assert.False(t, dpi.Rows[1].Has(ColumnPayload), "rows without a snippet have no payload cell")

	assert.False(t, threats.HasColumn(ColumnPayload))
	assert.False(t, threats.Rows[0].Has(ColumnPayload), "threat rows never show a payload even when present")
	assert.False(t, anomalies.HasColumn(ColumnPayload))
}

func TestRender_TableViewKeepsOrderAndLabels(t *testing.T) {
	page := Render(syncedSnapshot(), models.ViewAnomalies)

	require.NotNil(t, page.Table)
	assert.Nil(t, page.Recent)
	assert.Equal(t, "ML Anomalies", page.Table.Title)
	assert.Equal(t, "Anomaly Type", page.Table.Columns[2].Label)
	assert.Equal(t, "5.6.7.8", page.Table.Rows[0].Cells[ColumnSourceIP])
	assert.Equal(t, "5.6.7.9", page.Table.Rows[1].Cells[ColumnSourceIP])
}

func TestRender_OverviewRecentIsCapped(t *testing.T) {
	s := syncedSnapshot()
	for i := 0; i < 10; i++ {
		s.Feeds.Threats = append(s.Feeds.Threats, models.Event{Time: "2024-01-01 08:00:00", SourceIP: "10.0.0.1"})
	}

	page := Render(s, models.ViewOverview)

	require.Len(t, page.Recent, 3)
	assert.Nil(t, page.Table)
	assert.Equal(t, models.FeedThreats, page.Recent[0].Feed)
	assert.Len(t, page.Recent[0].Rows, recentLimit)
	assert.Equal(t, 11, page.Recent[0].Total)
}

func TestRender_UnknownViewFallsBackToOverview(t *testing.T) {
	page := Render(syncedSnapshot(), models.View("settings"))

	assert.Equal(t, models.ViewOverview, page.View)
	assert.NotNil(t, page.Recent)
}

func TestBuildTable_EmptyFeed(t *testing.T) {
	table := BuildTable(models.FeedThreats, nil, 0)

	assert.NotNil(t, table.Rows)
	assert.Empty(t, table.Rows)
	assert.Equal(t, "Threat Logs", table.Title)
}

func TestBuildTable_TimeWithoutDate(t *testing.T) {
	table := BuildTable(models.FeedThreats, []models.Event{{Time: "10:00:00"}}, 0)

	assert.Equal(t, "10:00:00", table.Rows[0].Cells[ColumnTime])
	assert.Empty(t, table.Rows[0].Date)
}
