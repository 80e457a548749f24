package api

import (
	"net/http"

	"earnhub/internal/service"
	"earnhub/pkg/auth"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventRoutes struct {
	hub *service.EventHub
	a   *auth.SessionAuth
}

func NewEventRoutes(handler *gin.RouterGroup, hub *service.EventHub, a *auth.SessionAuth) {
	r := &eventRoutes{hub: hub, a: a}

	h := handler.Group("/")
	h.Use(a.SessionAuthMiddleware())
	h.GET("/ws", r.handleWebSocket)
}

// handleWebSocket streams ledger events for the authenticated user
// until the client disconnects.
func (r *eventRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	events := r.hub.Subscribe(sessionUser.ID)
	done := make(chan struct{})

	go r.readLoop(conn, done)
	go r.writeLoop(conn, sessionUser, events, done)
}

// readLoop discards client frames and signals when the peer goes away.
func (r *eventRoutes) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *eventRoutes) writeLoop(conn *websocket.Conn, sessionUser *auth.SessionUser, events chan service.Event, done chan struct{}) {
	log := logger.Logger()

	defer func() {
		r.hub.Unsubscribe(sessionUser.ID, events)
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}

			out, err := json.Marshal(event)
			if err != nil {
				log.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				log.Debug("websocket write failed, closing",
					zap.String("user_id", sessionUser.ID.String()),
					zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
