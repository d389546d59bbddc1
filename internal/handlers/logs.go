package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"sensor_telemetry/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid  = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid    = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errRangeOrder   = "'from' must be <= 'to'"
	errListJobLogs  = "failed to load logs"
	layoutDateTime  = "2006-01-02 15:04:05"
	layoutDate      = "2006-01-02"
	queryParamFrom  = "from"
	queryParamTo    = "to"
	queryParamStage = "stage"
	queryParamJobID = "job_id"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond).UTC()
}

// parseTimeBounds reads the optional from/to query parameters. A date-only 'to' is the
// end of that day, inclusive. It writes a 400 and returns false on bad input.
func parseTimeBounds(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if qs := c.Query(queryParamFrom); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return from, to, false
		}
	}
	if qs := c.Query(queryParamTo); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return from, to, false
		}
		if isDateOnly(qs) {
			to = endOfDay(to)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errRangeOrder})
		return from, to, false
	}
	return from, to, true
}

// @Summary      List augmentation job logs
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), job and stage. If 'to' is date-only, it is treated as end-of-day inclusive (23:59:59.999999999Z).
// @Tags         augment
// @Produce      json
// @Param        from    query   string  false  "Start of range"  example(2025-08-01)
// @Param        to      query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        job_id  query   string  false  "Job id"
// @Param        stage   query   string  false  "Stage"  Enums(START,COPY_TEMP,COPY_VIB,AUGMENT_TEMP,AUGMENT_TEMP_COMPLETE,AUGMENT_VIB,AUGMENT_VIB_COMPLETE,COMPLETE,STOPPED,ERROR)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/augment/logs [get]
// @Security     BearerAuth
func (h *Handler) getJobLogs(c *gin.Context) {
	from, to, ok := parseTimeBounds(c)
	if !ok {
		return
	}
	filter := service.JobFilter{
		From:  from,
		To:    to,
		JobID: strings.TrimSpace(c.Query(queryParamJobID)),
		Stage: strings.ToUpper(strings.TrimSpace(c.Query(queryParamStage))),
	}

	events, err := h.services.JobLog.List(c.Request.Context(), filter)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListJobLogs, "job_logs_list_failed", err,
			"from", from, "to", to, "job_id", filter.JobID, "stage", filter.Stage)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
