package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/service"
)

func authedGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}

func TestJobLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.JobEvent{
		{EventID: "e1", JobID: "j1", OccurredAt: now, Stage: models.StageStart, Message: "start"},
		{EventID: "e2", JobID: "j1", OccurredAt: now.Add(time.Second), Stage: models.StageCopyTemperature, Progress: 10},
	}
	logs := &mockJobLog{resp: events}
	s := &service.Service{
		Authorization: &mockAuth{parseID: 99},
		JobLog:        logs,
	}
	r := newTestRouter(s)

	// invalid 'from' → 400
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedGet("/api/v1/augment/logs?from=notatime"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// from after to → 400
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedGet("/api/v1/augment/logs?from=2025-08-02&to=2025-08-01T00:00:00Z"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}
	if logs.calls != 0 {
		t.Fatalf("service should not be called on bad input")
	}

	// valid range, job and lowercase stage
	w = httptest.NewRecorder()
	q := "/api/v1/augment/logs?from=" + now.Format(time.RFC3339) +
		"&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&stage=copy_temp&job_id=j1"
	r.ServeHTTP(w, authedGet(q))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if logs.lastFilter.Stage != models.StageCopyTemperature || logs.lastFilter.JobID != "j1" {
		t.Fatalf("unexpected filter: %+v", logs.lastFilter)
	}
	if !logs.lastFilter.From.Equal(now) || !logs.lastFilter.To.Equal(now.Add(2*time.Second)) {
		t.Fatalf("unexpected bounds: %v..%v", logs.lastFilter.From, logs.lastFilter.To)
	}

	var resp struct {
		Count  int               `json:"count"`
		Events []models.JobEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Events) != 2 || resp.Events[1].Progress != 10 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestJobLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockJobLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, JobLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedGet("/api/v1/augment/logs?to=2025-08-31"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	want := time.Date(2025, 8, 31, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastFilter.To.Equal(want) {
		t.Fatalf("to = %v; want %v", logs.lastFilter.To, want)
	}
}

func TestJobLogsHandler_ServiceError(t *testing.T) {
	logs := &mockJobLog{err: errors.New("db down")}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, JobLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedGet("/api/v1/augment/logs"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-08-27T15:04:05+02:00", time.Date(2025, 8, 27, 13, 4, 5, 0, time.UTC), true},
		{"2025-08-27 15:04:05", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27", time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC), true},
		{"27/08/2025", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseQueryTime(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("parseQueryTime(%q) err=%v", tc.in, err)
		}
		if tc.ok && (!got.Equal(tc.want) || got.Location() != time.UTC) {
			t.Fatalf("parseQueryTime(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
