// internal/handlers/websocket/websocket.go
package websocket

import (
	"net/http"
	"strings"
	"time"

	"tipster-service/internal/middleware"
	"tipster-service/internal/pkg/response"
	ws "tipster-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" accepts any.
func NewWebSocketHandler(hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigins(origins),
		},
		logger: logger,
	}
}

func allowOrigins(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection authenticates before upgrading. Browsers cannot set
// headers on a websocket handshake, so the token may come as ?token=.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		response.Unauthorized(c, "missing authentication token")
		return
	}

	actor, tokenID, err := h.hub.Authenticate(token)
	if err != nil {
		h.logger.Warn("websocket authentication failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		response.Unauthorized(c, "authentication failed")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already answered the request
		h.logger.Debug("websocket upgrade failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, actor, tokenID)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}
	go client.Serve()
}

// GetStats reports open connections (admin only)
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", gin.H{
		"total_connections": h.hub.Connections(),
		"timestamp":         time.Now().UTC(),
	})
}
