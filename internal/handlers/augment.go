package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sensor_telemetry/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stopped"
	statusIdle    = "idle"

	errStartJob        = "failed to start augmentation"
	errStopJob         = "failed to stop augmentation"
	errGetProgress     = "failed to load progress"
	errInvalidBodyPref = "invalid body: "
)

// how long POST /stop waits for the job to wind down
const stopWait = 10 * time.Second

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for starting a job. All fields are optional.
type augmentRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Seed uint64 `json:"seed,omitempty"`
}

// StartAugmentRequest is an exported model for Swagger docs of the start payload.
type StartAugmentRequest struct {
	// Start of the raw window (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'); default now minus lookback
	From string `json:"from,omitempty" example:"2025-05-01"`
	// End of the raw window; default now
	To string `json:"to,omitempty" example:"2025-05-08"`
	// Random seed; 0 uses the configured seed
	Seed uint64 `json:"seed,omitempty" example:"42"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start augmentation
// @Description  Runs in the background; progress is reported by /api/v1/augment/progress
// @Tags         augment
// @Accept       json
// @Produce      json
// @Param        body  body   StartAugmentRequest  false  "Window and seed"
// @Success      202   {object}  map[string]interface{}  "status, job_id"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/augment/start [post]
// @Security     BearerAuth
func (h *Handler) startAugmentation(c *gin.Context) {
	var req augmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
	}

	params := service.JobParams{Seed: req.Seed}
	var err error
	if req.From != "" {
		if params.From, err = parseQueryTime(req.From); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if req.To != "" {
		if params.To, err = parseQueryTime(req.To); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(req.To) {
			params.To = endOfDay(params.To)
		}
	}
	if !params.From.IsZero() && !params.To.IsZero() && !params.From.Before(params.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be before 'to'"})
		return
	}

	id, err := h.services.Augmentation.Start(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrJobRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errStartJob, "augment_start_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusStarted, "job_id": id})
}

// @Summary      Stop augmentation
// @Tags         augment
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/augment/stop [post]
// @Security     BearerAuth
func (h *Handler) stopAugmentation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), stopWait)
	defer cancel()

	if err := h.services.Augmentation.Stop(ctx); err != nil {
		if errors.Is(err, service.ErrNoJobRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errStopJob, "augment_stop_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusStopped})
}

// @Summary      Augmentation progress
// @Description  Latest event of the most recent job; status "idle" when no job ever ran
// @Tags         augment
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, running, event"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/augment/progress [get]
// @Security     BearerAuth
func (h *Handler) getAugmentProgress(c *gin.Context) {
	ev, err := h.services.Augmentation.Progress(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetProgress, "augment_progress_failed", err)
		return
	}
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"status": statusIdle, "running": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   ev.Stage,
		"running":  !ev.Terminal(),
		"progress": ev.Progress,
		"event":    ev,
	})
}
