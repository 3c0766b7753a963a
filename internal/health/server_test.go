package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Purav30803/nds-client/internal/models"
)

type fixedProbe models.Snapshot

func (p fixedProbe) Snapshot() models.Snapshot {
	return models.Snapshot(p)
}

func newTestServer(probe Probe) *Server {
	s := NewServer("dashboard", probe)
	s.host = func(context.Context) HostMetrics { return HostMetrics{CPUUsagePercent: 12.5} }
	return s
}

func TestHealthHandler_Live(t *testing.T) {
	success := time.Unix(1700000000, 0)
	s := newTestServer(fixedProbe{Status: models.StatusRunning, HasSynced: true, Cycle: 7, LastSuccess: success})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "dashboard", resp.Service)
	assert.Equal(t, BackendReachable, resp.Backend)
	assert.Equal(t, "Running", resp.RunStatus)
	assert.Equal(t, uint64(7), resp.Cycle)
	assert.Equal(t, int64(1700000000), resp.LastSuccess)
	require.NotNil(t, resp.Host)
	assert.Equal(t, 12.5, resp.Host.CPUUsagePercent)
}

func TestHealthHandler_DegradedStillOK(t *testing.T) {
	s := newTestServer(fixedProbe{Status: models.StatusStopped, Degraded: true})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, BackendUnreachable, resp.Backend)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "simulated")
}

func TestBuild_NoProbe(t *testing.T) {
	s := newTestServer(nil)

	resp := s.Build(context.Background())

	assert.Equal(t, BackendUnknown, resp.Backend)
	assert.Equal(t, "Stopped", resp.RunStatus)
}

func TestBuild_HostPressureWarnings(t *testing.T) {
	s := newTestServer(fixedProbe{Status: models.StatusRunning, HasSynced: true})
	s.host = func(context.Context) HostMetrics {
		return HostMetrics{CPUUsagePercent: 97, MemoryUsagePercent: 40}
	}

	resp := s.Build(context.Background())

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, []string{"host cpu at 97%"}, resp.Warnings)
}

func TestHostMetrics_Pressure(t *testing.T) {
	tests := []struct {
		name string
		host HostMetrics
		want []string
	}{
		{"idle", HostMetrics{CPUUsagePercent: 5, MemoryUsagePercent: 30}, nil},
		{"cpu bound", HostMetrics{CPUUsagePercent: 90, MemoryUsagePercent: 30}, []string{"host cpu at 90%"}},
		{"both", HostMetrics{CPUUsagePercent: 99.6, MemoryUsagePercent: 95.2}, []string{"host cpu at 100%", "host memory at 95%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.host.Pressure())
		})
	}
}

func TestCollectHost_ReadsThisMachine(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host readings are only asserted on linux")
	}

	host := CollectHost(context.Background())

	assert.NotContains(t, host.Unavailable, "memory")
	assert.Greater(t, host.MemoryTotalBytes, uint64(0))
	assert.GreaterOrEqual(t, host.MemoryUsagePercent, 0.0)
	assert.LessOrEqual(t, host.MemoryUsagePercent, 100.0)
}

func TestHealthHandler_DefaultCollector(t *testing.T) {
	s := NewServer("dashboard", nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Host)
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	s := NewServer("dashboard", nil)

	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestGRPCServer_TracksDegradedMode(t *testing.T) {
	g := NewGRPCServer()
	ctx := context.Background()

	status, err := g.Check(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	status, err = g.Check(ctx, BackendService)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_UNKNOWN, status)

	g.CycleCompleted(models.CycleResult{Outcome: models.CycleFailure, Degraded: true})
	status, _ = g.Check(ctx, BackendService)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status)

	g.CycleCompleted(models.CycleResult{Outcome: models.CycleSuccess})
	status, _ = g.Check(ctx, BackendService)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)
}

func TestGRPCServer_UnknownService(t *testing.T) {
	g := NewGRPCServer()

	_, err := g.Check(context.Background(), "nope")

	assert.Error(t, err)
}

func TestGRPCServer_ServeWithoutListen(t *testing.T) {
	g := NewGRPCServer()

	assert.Error(t, g.Serve())
}
