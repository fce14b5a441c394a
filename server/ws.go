package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/specboard/specboard/document"
	"github.com/specboard/specboard/realtime"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsMaxFrameSize = 16 << 20 // snapshots carry whole documents
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The gateway fronts same-origin browser clients; origin policy is
	// enforced by the reverse proxy in front of it.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsFrame is the gateway sub-protocol. Browsers subscribe to a project and
// publish whole snapshots; the gateway bridges both directions to the broker.
type wsFrame struct {
	Type      string             `json:"type"` // subscribe | publish | snapshot | error
	ProjectID string             `json:"projectId,omitempty"`
	Document  *document.Document `json:"document,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// wsConn is one browser connection with its broker subscriptions.
type wsConn struct {
	id     string
	conn   *websocket.Conn
	server *Server

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]realtime.Subscription
}

// handleWebSocket upgrades the connection and pumps frames until the client
// goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{
		id:     uuid.New().String(),
		conn:   conn,
		server: s,
		subs:   make(map[string]realtime.Subscription),
	}

	s.logger.Debug("WebSocket client connected", "client_id", c.id, "remote", r.RemoteAddr)
	c.run()
}

func (c *wsConn) run() {
	defer c.teardown()

	c.conn.SetReadLimit(wsMaxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	stop := make(chan struct{})
	go c.pingLoop(stop)
	defer close(stop)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("invalid frame")
			continue
		}

		switch frame.Type {
		case "subscribe":
			c.handleSubscribe(frame)
		case "publish":
			c.handlePublish(frame)
		default:
			c.sendError("unknown frame type: " + frame.Type)
		}
	}
}

// handleSubscribe bridges the project's updates topic onto the socket.
// Subscribing twice to the same project is a no-op.
func (c *wsConn) handleSubscribe(frame wsFrame) {
	if frame.ProjectID == "" {
		c.sendError("subscribe requires projectId")
		return
	}
	if err := realtime.CheckProjectID(frame.ProjectID); err != nil {
		c.sendError("invalid projectId: " + err.Error())
		return
	}

	c.mu.Lock()
	if _, ok := c.subs[frame.ProjectID]; ok {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	projectID := frame.ProjectID
	sub, err := c.server.transport.Subscribe(realtime.UpdatesSubject(projectID), func(_ string, data []byte) {
		var doc document.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			c.server.logger.Warn("Dropping malformed snapshot at gateway",
				"project_id", projectID,
				"error", err)
			return
		}
		c.send(wsFrame{Type: "snapshot", ProjectID: projectID, Document: &doc})
	})
	if err != nil {
		c.server.logger.Error("Gateway subscribe failed", "project_id", projectID, "error", err)
		c.sendError("subscribe failed")
		return
	}

	c.mu.Lock()
	c.subs[projectID] = sub
	c.mu.Unlock()
}

// handlePublish forwards a snapshot to the project's edit destination. The
// frame must carry a shape-valid document; the relay re-checks regardless.
func (c *wsConn) handlePublish(frame wsFrame) {
	if frame.ProjectID == "" || frame.Document == nil {
		c.sendError("publish requires projectId and document")
		return
	}
	if err := realtime.CheckProjectID(frame.ProjectID); err != nil {
		c.sendError("invalid projectId: " + err.Error())
		return
	}
	if err := frame.Document.CheckShape(); err != nil {
		c.sendError("document shape invalid: " + err.Error())
		return
	}

	data, err := json.Marshal(frame.Document)
	if err != nil {
		c.sendError("encode document failed")
		return
	}
	if err := c.server.transport.Publish(realtime.EditSubject(frame.ProjectID), data); err != nil {
		c.server.logger.Warn("Gateway publish failed",
			"project_id", frame.ProjectID,
			"error", err)
		c.sendError("publish failed")
	}
}

func (c *wsConn) send(frame wsFrame) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.server.logger.Debug("WebSocket write failed", "client_id", c.id, "error", err)
	}
}

func (c *wsConn) sendError(message string) {
	c.send(wsFrame{Type: "error", Message: message})
}

func (c *wsConn) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// teardown unsubscribes everything and closes the socket. Failures are
// logged, never propagated.
func (c *wsConn) teardown() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]realtime.Subscription)
	c.mu.Unlock()

	for projectID, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			c.server.logger.Warn("Gateway unsubscribe failed",
				"project_id", projectID,
				"error", err)
		}
	}
	_ = c.conn.Close()
	c.server.logger.Debug("WebSocket client disconnected", "client_id", c.id)
}
