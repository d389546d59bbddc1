package handlers

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 1 * time.Second

var heartbeatPayload = gin.H{"heartbeat": true}

// @Summary      Live readings stream
// @Description  Server-Sent Events; every live update is sent as data: {"type":...,"data":...}. After a second without updates a {"heartbeat":true} event keeps the connection open.
// @Tags         sensors
// @Produce      text/event-stream
// @Success      200
// @Router       /api/v1/stream [get]
func (h *Handler) streamReadings(c *gin.Context) {
	updates, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	idle := time.NewTimer(h.heartbeat)
	defer idle.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-updates:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Data: msg})
		case <-idle.C:
			c.Render(-1, sse.Event{Data: heartbeatPayload})
		}
		idle.Reset(h.heartbeat)
		return true
	})

	if h.log != nil {
		h.log.Debugw("stream_closed", "remote", c.ClientIP())
	}
}
