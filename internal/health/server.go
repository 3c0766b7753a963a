package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/models"
)

const (
	BackendReachable   = "reachable"
	BackendUnreachable = "unreachable"
	BackendUnknown     = "unknown"
)

// Probe exposes the current dashboard state.
type Probe interface {
	Snapshot() models.Snapshot
}

type HealthResponse struct {
	Status        string       `json:"status"`
	Service       string       `json:"service"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Timestamp     int64        `json:"timestamp"`
	Backend       string       `json:"backend"`
	RunStatus     string       `json:"run_status"`
	Cycle         uint64       `json:"cycle"`
	LastSuccess   int64        `json:"last_success,omitempty"`
	Host          *HostMetrics `json:"host,omitempty"`
	Warnings      []string     `json:"warnings,omitempty"`
}

type Server struct {
	service   string
	probe     Probe
	startTime time.Time
	host      func(ctx context.Context) HostMetrics

	mu     sync.Mutex
	server *http.Server
}

func NewServer(service string, probe Probe) *Server {
	return &Server{
		service:   service,
		probe:     probe,
		startTime: time.Now(),
		host:      CollectHost,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Start serves /health on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	log.Printf("Health check listening on %s", addr)
	return server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

const hostTimeout = time.Second

// Build assembles the health report. Degraded mode is a normal operating state,
// so it is reported but never turns the response into an error.
func (s *Server) Build(ctx context.Context) *HealthResponse {
	response := &HealthResponse{
		Status:        "healthy",
		Service:       s.service,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Timestamp:     time.Now().Unix(),
		Backend:       BackendUnknown,
		RunStatus:     string(models.StatusStopped),
	}

	if s.probe != nil {
		snap := s.probe.Snapshot()
		response.Backend = backendState(snap)
		response.RunStatus = string(snap.Status)
		response.Cycle = snap.Cycle
		if !snap.LastSuccess.IsZero() {
			response.LastSuccess = snap.LastSuccess.Unix()
		}
		if snap.Degraded {
			response.Status = "degraded"
			response.Warnings = append(response.Warnings, "detection backend unreachable, overview counters are simulated")
		}
	}

	if s.host != nil {
		hostCtx, cancel := context.WithTimeout(ctx, hostTimeout)
		host := s.host(hostCtx)
		cancel()

		response.Host = &host
		response.Warnings = append(response.Warnings, host.Pressure()...)
	}

	return response
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.Build(r.Context()))
}

func backendState(s models.Snapshot) string {
	switch {
	case s.Degraded:
		return BackendUnreachable
	case s.HasSynced:
		return BackendReachable
	}
	return BackendUnknown
}
