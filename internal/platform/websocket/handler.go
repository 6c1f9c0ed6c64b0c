package websocket

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Handler upgrades HTTP requests to WebSocket connections bound to a Hub.
type Handler struct {
	hub      *Hub
	upgrader gorillawebsocket.Upgrader
}

// NewHandler returns a handler that accepts connections from origins. A "*"
// entry, or an empty list, accepts any origin.
func NewHandler(hub *Hub, origins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(origins) == 0 || slices.Contains(origins, "*") {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection and registers the client. Initial
// topics may be passed as repeated ?topic= query parameters.
func (h *Handler) HandleConnect(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(uuid.New().String(), sendBuffer)
	h.hub.Register(client)
	if topics := c.QueryParams()["topic"]; len(topics) > 0 {
		h.hub.Subscribe(client, topics)
	}
	h.hub.logger.Debug().Str("client_id", client.ID).Msg("client connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)
	return nil
}

func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
		h.hub.logger.Debug().Str("client_id", client.ID).Msg("client disconnected")
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
