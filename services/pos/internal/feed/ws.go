package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// wsFrame is the websocket encoding of a hub message.
type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSHandler pushes hub messages over a websocket. Clients only listen; any
// frame they send is discarded.
type WSHandler struct {
	hub      *Hub
	logger   apt.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, logger apt.Logger) *WSHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Tills and kitchen screens are served from other LAN hosts.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	subscriberID := uuid.New().String()
	messages := h.hub.Subscribe(subscriberID)
	defer h.hub.Unsubscribe(subscriberID)

	gone := make(chan struct{})
	go h.drain(conn, gone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			h.logger.Info("websocket client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case msg, ok := <-messages:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(wsFrame{Event: msg.Event, Data: json.RawMessage(msg.Data)}); err != nil {
				h.logger.Debug("websocket write failed", "subscriber_id", subscriberID, "error", err)
				return
			}
		}
	}
}

// drain reads until the client goes away so control frames are processed.
func (h *WSHandler) drain(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
