// README: WebSocket endpoint drivers hold open to receive offer pushes.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"safar/internal/dispatch"
	"safar/internal/types"
)

type WSHandler struct {
	registry *dispatch.WSRegistry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(registry *dispatch.WSRegistry, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect upgrades the driver's connection and parks it in the registry until
// the peer goes away. The read loop exists only to observe disconnects; the
// server never expects inbound frames.
func (h *WSHandler) Connect(c *gin.Context) {
	driverID := types.ID(c.Param("id"))
	if driverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver id")
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "driver_id", driverID, "error", err)
		return
	}
	h.registry.Add(driverID, conn)
	h.logger.Info("driver connected", "driver_id", driverID)

	defer func() {
		h.registry.Remove(driverID, conn)
		_ = conn.Close()
		h.logger.Info("driver disconnected", "driver_id", driverID)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
