package handlers

import (
	"net/http"
	"strconv"

	"sensor_telemetry/internal/live"

	"github.com/gin-gonic/gin"
)

// latestResponse adds the uptime to the live snapshot.
type latestResponse struct {
	live.Snapshot
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// @Summary      Latest readings
// @Description  Most recent temperature and vibration samples, device list and broker status
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  latestResponse
// @Router       /api/v1/sensors/latest [get]
func (h *Handler) getLatest(c *gin.Context) {
	snap := h.services.Monitoring.Snapshot()
	c.JSON(http.StatusOK, latestResponse{Snapshot: snap, UptimeSeconds: snap.Uptime().Seconds()})
}

// @Summary      IO-Link devices
// @Description  Identification of the devices seen on the master. With ?port= a single port is returned; an unseen port is reported as disconnected.
// @Tags         sensors
// @Produce      json
// @Param        port  query   int  false  "Master port"  example(2)
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/sensors/devices [get]
func (h *Handler) getDevices(c *gin.Context) {
	if qs := c.Query("port"); qs != "" {
		port, err := strconv.Atoi(qs)
		if err != nil || port <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'port'; use a positive integer"})
			return
		}
		c.JSON(http.StatusOK, h.services.Monitoring.Device(port))
		return
	}

	snap := h.services.Monitoring.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"count":          len(snap.Devices),
		"devices":        snap.Devices,
		"mqtt_connected": snap.MQTTConnected,
	})
}
