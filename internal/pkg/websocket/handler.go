package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler for live feed WebSocket connections
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection upgrades the request to a WebSocket streaming feed events.
// The optional user query parameter narrows the stream to one author.
func (h *Handler) HandleConnection(c *gin.Context) {
	if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WebSocket upgrade required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		author: c.Query("user"),
		logger: h.logger,
	}
	if !client.hub.enqueue(client.hub.register, client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount reports how many live connections follow ?user=, or the whole feed without it
func (h *Handler) ClientCount(c *gin.Context) {
	author := c.Query("user")
	c.JSON(http.StatusOK, gin.H{"user": author, "clients": h.hub.GetClientsCount(author)})
}
