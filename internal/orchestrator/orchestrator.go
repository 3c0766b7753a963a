package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/api"
	"github.com/Purav30803/nds-client/internal/backend"
	"github.com/Purav30803/nds-client/internal/config"
	"github.com/Purav30803/nds-client/internal/control"
	"github.com/Purav30803/nds-client/internal/engine"
	"github.com/Purav30803/nds-client/internal/eventbus"
	"github.com/Purav30803/nds-client/internal/health"
	"github.com/Purav30803/nds-client/internal/metrics"
	"github.com/Purav30803/nds-client/internal/models"
	"github.com/Purav30803/nds-client/internal/scheduler"
)

const serviceName = "nds-dashboard"

// Orchestrator manages the dashboard lifecycle.
//
// Lifecycle:
//  1. Start() - builds the backend client, control machine, engine and scheduler,
//     connects NATS and prepares the API, health and gRPC health servers
//  2. Run() - mounts the dashboard and serves until the context is cancelled
//  3. Stop() - tears the refresh loop down and closes every server and connection
//
// Graceful degradation:
//   - Backend unreachable: the engine switches to degraded mode, nothing stops
//   - NATS failure: cycle and command events are not published
//   - gRPC health failure: only the HTTP /health endpoint is available
type Orchestrator struct {
	config *config.Config

	// Core components
	client    *backend.Client
	machine   *control.Machine
	engine    *engine.Engine
	scheduler *scheduler.Scheduler

	// Observers
	registry  *prometheus.Registry
	recorder  *metrics.Recorder
	publisher *eventbus.Publisher

	// Servers
	apiServer    *api.Server
	healthServer *health.Server
	grpcHealth   *health.GRPCServer
}

// NewOrchestrator creates a new Orchestrator. Nothing is started until Start().
func NewOrchestrator(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		config: cfg,
	}
}

// Start initializes all components. It must be called before Run().
func (o *Orchestrator) Start() error {
	log.Printf("Starting Dashboard Orchestrator...")

	client, err := backend.NewClient(o.config.BackendURL,
		backend.WithFetchTimeout(o.config.FetchTimeout),
		backend.WithControlTimeout(o.config.ControlTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	o.client = client
	log.Printf("Backend client targeting %s", client.BaseURL())

	o.connectNATS() // Optional - warnings logged on failure
	o.initializeMetrics()

	if err := o.initializeGRPCHealth(); err != nil {
		log.Warnf("Failed to initialize gRPC health server: %v", err)
		log.Warnf("Only HTTP /health will be available")
	}

	o.initializeCore()
	o.initializeServers()

	log.Printf("Dashboard Orchestrator started successfully")
	return nil
}

// connectNATS connects the cycle/command publisher. The dashboard works without it.
func (o *Orchestrator) connectNATS() {
	if !o.config.EnableEventPublishing || o.config.NatsURL == "" {
		log.Printf("Event publishing disabled")
		return
	}

	log.Printf("Connecting to NATS at: %s", o.config.NatsURL)

	publisher, err := eventbus.NewPublisher(o.config.NatsURL)
	if err != nil {
		log.Warnf("Failed to connect to NATS: %v", err)
		log.Warnf("Cycle and command events will not be published")
		return
	}

	o.publisher = publisher
	log.Printf("Connected to NATS publisher")
}

func (o *Orchestrator) initializeMetrics() {
	o.registry = prometheus.NewRegistry()
	o.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	o.recorder = metrics.NewRecorder(o.registry)
}

func (o *Orchestrator) initializeGRPCHealth() error {
	if o.config.GRPCHealthPort == "" {
		log.Printf("gRPC health service disabled")
		return nil
	}

	g := health.NewGRPCServer()
	if err := g.Listen(o.config.GRPCHealthPort); err != nil {
		return err
	}
	o.grpcHealth = g
	return nil
}

// observers collects every non-nil observer. Nil pointers must not reach the fan-out.
func (o *Orchestrator) observers() metrics.Fanout {
	fanout := metrics.Fanout{o.recorder}
	if o.publisher != nil {
		fanout = append(fanout, o.publisher)
	}
	if o.grpcHealth != nil {
		fanout = append(fanout, o.grpcHealth)
	}
	return fanout
}

func (o *Orchestrator) initializeCore() {
	observers := o.observers()

	o.machine = control.NewMachine(o.client, control.WithObserver(observers))
	o.engine = engine.New(o.client, o.machine,
		engine.WithUptimePlaceholder(o.config.UptimePlaceholder),
		engine.WithObserver(observers),
	)
	o.scheduler = scheduler.New(o.config.RefreshInterval, o.engine.Refresh)

	// A status change restarts the interval so the next cycle reflects it promptly.
	o.machine.OnChange(func(models.RunStatus) {
		o.scheduler.Rearm()
		o.engine.Notify()
	})

	log.Printf("Refresh cycle every %s (fetch timeout %s)", o.config.RefreshInterval, o.config.FetchTimeout)
}

func (o *Orchestrator) initializeServers() {
	apiConfig := api.DefaultConfig()
	apiConfig.Port = o.config.HTTPPort
	apiConfig.EnableCORS = o.config.EnableCORS
	apiConfig.LogLevel = o.config.LogLevel

	o.apiServer = api.NewAPIServer(apiConfig, o.engine, o.machine, o.registry)
	o.healthServer = health.NewServer(serviceName, o.engine)

	log.Printf("API server initialized on port %s", o.config.HTTPPort)
}

// Run mounts the dashboard and blocks until the context is cancelled or a server fails.
// The refresh loop is unmounted on every exit path.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Printf("Starting servers...")

	o.engine.Attach()
	o.scheduler.Mount(ctx)
	defer o.scheduler.Unmount()

	errChan := make(chan error, 3)

	go func() {
		if err := o.apiServer.ListenAndServe(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if o.config.HealthPort != "" {
		go func() {
			addr := ":" + o.config.HealthPort
			if err := o.healthServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("health server error: %w", err)
			}
		}()
	}

	if o.grpcHealth != nil {
		go func() {
			if err := o.grpcHealth.Serve(); err != nil {
				errChan <- fmt.Errorf("gRPC health server error: %w", err)
			}
		}()
	}

	log.Printf("Dashboard ready on port %s", o.config.HTTPPort)

	select {
	case <-ctx.Done():
		log.Printf("Shutdown signal received")
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop tears everything down. A cycle that completes after this point is discarded.
// The API goes down before pending commands are drained so no new command can be
// queued behind the drain, and the publisher closes last so drained commands are
// still reported.
func (o *Orchestrator) Stop() error {
	log.Printf("Stopping Orchestrator...")

	if o.scheduler != nil {
		o.scheduler.Unmount()
	}
	if o.engine != nil {
		o.engine.Detach()
	}

	if o.apiServer != nil {
		if err := o.apiServer.Stop(); err != nil {
			log.Printf("Error stopping API server: %v", err)
		}
	}

	if o.machine != nil {
		log.Printf("Waiting for pending control commands...")
		o.machine.Wait()
	}

	if o.healthServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := o.healthServer.Shutdown(ctx); err != nil {
			log.Printf("Error stopping health server: %v", err)
		}
		cancel()
	}

	if o.grpcHealth != nil {
		log.Printf("Stopping gRPC health server...")
		o.grpcHealth.Stop()
	}

	if o.publisher != nil {
		o.publisher.Close()
	}

	log.Printf("Orchestrator stopped successfully")
	return nil
}
