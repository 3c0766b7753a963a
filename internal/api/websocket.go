package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Purav30803/nds-client/internal/models"
	"github.com/Purav30803/nds-client/internal/presentation"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

const (
	MsgSelectView = "select_view"
	MsgStart      = "start"
	MsgStop       = "stop"
	MsgPage       = "page"
	MsgError      = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SelectViewPayload struct {
	View string `json:"view"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// WSClient is one browser tab. The selected view lives here and nowhere else.
type WSClient struct {
	conn       *websocket.Conn
	dashboard  Dashboard
	controller Controller
	sendCh     chan WSMessage
	done       chan struct{}

	mu   sync.Mutex
	view models.View
}

func NewWSClient(conn *websocket.Conn, dash Dashboard, ctrl Controller) *WSClient {
	c := &WSClient{
		conn:       conn,
		dashboard:  dash,
		controller: ctrl,
		sendCh:     make(chan WSMessage, sendBuffer),
		done:       make(chan struct{}),
		view:       models.ViewOverview,
	}
	go c.writeLoop()
	return c
}

func (c *WSClient) View() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *WSClient) setView(v models.View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// SendMessage queues msg without blocking. Pages supersede each other, so when
// the buffer is full the oldest queued message is dropped.
func (c *WSClient) SendMessage(msg WSMessage) {
	for {
		select {
		case <-c.done:
			return
		case c.sendCh <- msg:
			return
		default:
		}

		select {
		case <-c.sendCh:
		default:
		}
	}
}

func (c *WSClient) sendPage(snap models.Snapshot) {
	payload, err := json.Marshal(presentation.Render(snap, c.View()))
	if err != nil {
		log.Warnf("Failed to encode page: %v", err)
		return
	}
	c.SendMessage(WSMessage{Type: MsgPage, Payload: payload})
}

func (c *WSClient) sendError(message string) {
	payload, _ := json.Marshal(ErrorPayload{Message: message})
	c.SendMessage(WSMessage{Type: MsgError, Payload: payload})
}

func (c *WSClient) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// pushUpdates renders every published snapshot for this client's view.
func (c *WSClient) pushUpdates(updates <-chan models.Snapshot) {
	for {
		select {
		case snap := <-updates:
			c.sendPage(snap)
		case <-c.done:
			return
		}
	}
}

// ReadLoop serves client commands until the connection drops.
func (c *WSClient) ReadLoop() {
	updates, unsubscribe := c.dashboard.Subscribe()
	defer func() {
		unsubscribe()
		close(c.done)
	}()

	go c.pushUpdates(updates)
	c.sendPage(c.dashboard.Snapshot())

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}
		c.handleCommand(msg)
	}
}

func (c *WSClient) handleCommand(msg WSMessage) {
	switch msg.Type {
	case MsgSelectView:
		var req SelectViewPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.sendError("invalid select_view payload")
			return
		}
		view, err := models.ParseView(req.View)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.setView(view)
		c.sendPage(c.dashboard.Snapshot())

	case MsgStart:
		c.controller.RequestStart(context.Background())
		c.sendPage(c.current())

	case MsgStop:
		c.controller.RequestStop(context.Background())
		c.sendPage(c.current())

	default:
		c.sendError("unknown command: " + msg.Type)
	}
}

// current is the latest snapshot with the controller's status, which may be
// ahead of the engine's copy right after a transition.
func (c *WSClient) current() models.Snapshot {
	snap := c.dashboard.Snapshot()
	snap.Status = c.controller.Status()
	return snap
}

func (s *Server) handleWebSocket(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	client := NewWSClient(conn, s.dashboard, s.controller)
	client.ReadLoop()
}
