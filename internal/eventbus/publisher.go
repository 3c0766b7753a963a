package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/models"
)

const (
	SubjectControl = "dashboard.control"
	SubjectCycles  = "dashboard.cycles"
)

// Publisher sends control commands and refresh cycle outcomes to NATS so that the
// optimistic run status and degraded mode are visible outside the dashboard.
// A nil *Publisher drops everything, and so does one that has been closed.
type Publisher struct {
	mu   sync.Mutex
	conn *nats.Conn
}

func NewPublisher(natsURL string) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("nds-dashboard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Dashboard connected to NATS at %s", natsURL)

	return &Publisher{
		conn: conn,
	}, nil
}

// CommandIssued publishes a control command result. Failed commands are the case
// where the displayed status may differ from the backend's.
func (p *Publisher) CommandIssued(result models.CommandResult) {
	if err := p.publish(SubjectControl, result); err != nil {
		log.Printf("Failed to publish control event: %v", err)
		return
	}

	log.Debugf("Published control event: %s -> %s", result.Command, result.StatusAfter)
}

func (p *Publisher) CycleCompleted(result models.CycleResult) {
	if err := p.publish(SubjectCycles, result); err != nil {
		log.Debugf("Failed to publish cycle event: %v", err)
	}
}

func (p *Publisher) publish(subject string, v interface{}) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		log.Printf("Dashboard disconnected from NATS")
	}
}

func (p *Publisher) IsConnected() bool {
	if p == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && p.conn.IsConnected()
}
