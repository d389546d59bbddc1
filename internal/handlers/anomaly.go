package handlers

import (
	"net/http"

	"sensor_telemetry/internal/service"

	"github.com/gin-gonic/gin"
)

const errNoLiveReading = "no live reading to compare against; send 'actual'"

// anomalyRequest compares a prediction with measured values. Without 'actual' the
// latest live readings are used (temperature probe and vibration v_rms).
type anomalyRequest struct {
	Prediction *service.SensorValues `json:"prediction" binding:"required"`
	Actual     *service.SensorValues `json:"actual,omitempty"`
}

// @Summary      Check a prediction for anomalies
// @Description  A sensor is anomalous when its relative and absolute error both reach their thresholds
// @Tags         anomaly
// @Accept       json
// @Produce      json
// @Param        body  body   anomalyRequest  true  "Prediction and optional measurement"
// @Success      200   {object}  service.AnomalyResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/anomaly/check [post]
func (h *Handler) checkAnomaly(c *gin.Context) {
	var req anomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	actual, ok := h.actualValues(req.Actual)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": errNoLiveReading})
		return
	}

	res := h.services.Anomaly.Detect(*req.Prediction, actual)
	if res.IsAnomaly && h.log != nil {
		h.log.Infow("anomaly_detected", "type", res.Type, "reason", res.Reason)
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) actualValues(given *service.SensorValues) (service.SensorValues, bool) {
	if given != nil {
		return *given, true
	}
	snap := h.services.Monitoring.Snapshot()
	if snap.Temperature == nil || snap.Vibration == nil || snap.Vibration.VRMS == nil {
		return service.SensorValues{}, false
	}
	return service.SensorValues{
		Temperature: snap.Temperature.Temperature,
		Vibration:   *snap.Vibration.VRMS,
	}, true
}
