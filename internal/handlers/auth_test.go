package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sensor_telemetry/internal/repository"
	"sensor_telemetry/internal/service"
)

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_SignUpAndSignIn(t *testing.T) {
	auth := &mockAuth{signUpID: 42, genTokenToken: "tok123", parseID: 1}
	s := &service.Service{Authorization: auth}
	r := newTestRouter(s)

	w := postJSON(t, r, "/auth/sign-up", `{"username":"operator","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["id"].(float64)) != 42 {
		t.Fatalf("expected id=42, got %v", m["id"])
	}
	if auth.lastSignUpUsername != "operator" || auth.lastSignUpPassword != "p" {
		t.Fatalf("service got %q/%q", auth.lastSignUpUsername, auth.lastSignUpPassword)
	}

	w = postJSON(t, r, "/auth/sign-in", `{"username":"operator","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["token"] != "tok123" {
		t.Fatalf("expected token tok123, got %v", m["token"])
	}

	// invalid body → 400
	if w = postJSON(t, r, "/auth/sign-in", `{"username":1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestAuthHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		auth     *mockAuth
		wantCode int
	}{
		{
			name:     "duplicate user",
			path:     "/auth/sign-up",
			auth:     &mockAuth{signUpErr: fmt.Errorf("create: %w", repository.ErrUserExists)},
			wantCode: http.StatusConflict,
		},
		{
			name:     "empty username",
			path:     "/auth/sign-up",
			auth:     &mockAuth{signUpErr: service.ErrEmptyUsername},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			path:     "/auth/sign-in",
			auth:     &mockAuth{genTokenErr: service.ErrUserNotFound},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "wrong password",
			path:     "/auth/sign-in",
			auth:     &mockAuth{genTokenErr: service.ErrInvalidPassword},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "storage failure",
			path:     "/auth/sign-in",
			auth:     &mockAuth{genTokenErr: errors.New("db down")},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: tc.auth})
			w := postJSON(t, r, tc.path, `{"username":"u","password":"p"}`)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
		})
	}
}
