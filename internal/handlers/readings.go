package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultReadingsRange = time.Hour
	maxReadingsRange     = 31 * 24 * time.Hour

	errRangeInvalid   = "invalid 'range'; use a duration such as 30m, 6h or 7d"
	errLoadReadings   = "failed to load readings"
	queryParamRange   = "range"
	queryParamBucket  = "bucket"
	dayDurationSuffix = "d"
)

// parseRange accepts Go durations plus a whole-day form ("7d").
func parseRange(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var d time.Duration
	if days, ok := strings.CutSuffix(s, dayDurationSuffix); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("parse range %q: %w", s, err)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("parse range %q: %w", s, err)
		}
	}
	if d <= 0 || d > maxReadingsRange {
		return 0, fmt.Errorf("range %q out of bounds", s)
	}
	return d, nil
}

// historyQuery builds the query from bucket, from/to and range. Without from, the
// window is the last range (default one hour) before to (default now).
func (h *Handler) historyQuery(c *gin.Context) (service.HistoryQuery, bool) {
	from, to, ok := parseTimeBounds(c)
	if !ok {
		return service.HistoryQuery{}, false
	}

	window := defaultReadingsRange
	if qs := c.Query(queryParamRange); qs != "" {
		d, err := parseRange(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errRangeInvalid})
			return service.HistoryQuery{}, false
		}
		window = d
	}
	if from.IsZero() {
		end := to
		if end.IsZero() {
			end = time.Now().UTC()
		}
		from = end.Add(-window)
	}

	return service.HistoryQuery{
		Bucket: strings.ToLower(strings.TrimSpace(c.DefaultQuery(queryParamBucket, models.BucketRaw))),
		From:   from,
		To:     to,
	}, true
}

func (h *Handler) historyError(c *gin.Context, err error, measurement string) {
	if errors.Is(err, service.ErrInvalidBucket) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, errLoadReadings, "readings_query_failed", err,
		"measurement", measurement)
}

// @Summary      Temperature history
// @Tags         readings
// @Produce      json
// @Param        bucket  query   string  false  "Series bucket"  Enums(raw,augmented)
// @Param        range   query   string  false  "Window ending at 'to' (or now), e.g. 30m, 6h, 7d"  example(6h)
// @Param        from    query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to      query   string  false  "End of range. Date-only treated as end of day."
// @Success      200     {object}  map[string]interface{}  "bucket, count, points"
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/readings/temperature [get]
func (h *Handler) getTemperatureHistory(c *gin.Context) {
	q, ok := h.historyQuery(c)
	if !ok {
		return
	}
	points, err := h.services.History.Temperature(c.Request.Context(), q)
	if err != nil {
		h.historyError(c, err, models.MeasurementTemperature)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bucket": q.Bucket,
		"count":  len(points),
		"points": points,
	})
}

// @Summary      Vibration history
// @Description  One row per sample with every vibration field recorded at that instant
// @Tags         readings
// @Produce      json
// @Param        bucket  query   string  false  "Series bucket"  Enums(raw,augmented)
// @Param        range   query   string  false  "Window ending at 'to' (or now), e.g. 30m, 6h, 7d"  example(6h)
// @Param        from    query   string  false  "Start of range"
// @Param        to      query   string  false  "End of range"
// @Success      200     {object}  map[string]interface{}  "bucket, count, rows"
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/readings/vibration [get]
func (h *Handler) getVibrationHistory(c *gin.Context) {
	q, ok := h.historyQuery(c)
	if !ok {
		return
	}
	rows, err := h.services.History.Vibration(c.Request.Context(), q)
	if err != nil {
		h.historyError(c, err, models.MeasurementVibration)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bucket": q.Bucket,
		"count":  len(rows),
		"rows":   rows,
	})
}
