package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"locpulse/pkg/bridge"
	"locpulse/pkg/model"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Pages connect from the server's own origin only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades page connections and registers them as bridge clients.
type WSHandler struct {
	registry *bridge.ClientRegistry
	worker   *bridge.Worker
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(registry *bridge.ClientRegistry, worker *bridge.Worker) *WSHandler {
	return &WSHandler{registry: registry, worker: worker}
}

// HandleWS upgrades the connection and runs the client until it disconnects.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		id:       bridge.NewClientID(),
		conn:     conn,
		outbound: make(chan model.Message, 16),
		done:     make(chan struct{}),
	}
	h.registry.Add(client)
	slog.Info("Page client connected", "client", client.id)

	go client.writePump()
	client.readPump(h.worker)

	h.registry.Remove(client.id)
	client.close()
	slog.Info("Page client disconnected", "client", client.id)
}

// wsClient is one connected page. Posts go through the outbound channel so
// only the write pump touches the connection.
type wsClient struct {
	id       string
	conn     *websocket.Conn
	outbound chan model.Message

	closeOnce sync.Once
	done      chan struct{}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Post(msg model.Message) error {
	select {
	case c.outbound <- msg:
		return nil
	case <-c.done:
		return websocket.ErrCloseSent
	default:
		// Slow page; drop it rather than block the bridge.
		return websocket.ErrCloseSent
	}
}

func (c *wsClient) Focus() error {
	return c.Post(model.Message{Type: model.MsgFocus})
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump forwards inbound page messages to the worker inbox.
func (c *wsClient) readPump(worker *bridge.Worker) {
	defer c.close()
	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Page client read error", "client", c.id, "error", err)
			}
			return
		}
		var msg model.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Malformed page message dropped", "client", c.id, "error", err)
			continue
		}
		worker.Post(msg)
	}
}

// writePump drains the outbound channel onto the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
