package handlers

import (
	"context"
	"net/http"
	"sync"

	"sensor_telemetry/internal/live"
	"sensor_telemetry/internal/models"
	"sensor_telemetry/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockAugmentation struct {
	startID    string
	startErr   error
	stopErr    error
	progress   *models.JobEvent
	progErr    error
	lastParams service.JobParams
	startCalls int
	stopCalls  int
}

func (m *mockAugmentation) Start(_ context.Context, p service.JobParams) (string, error) {
	m.startCalls++
	m.lastParams = p
	return m.startID, m.startErr
}
func (m *mockAugmentation) Stop(context.Context) error {
	m.stopCalls++
	return m.stopErr
}
func (m *mockAugmentation) Progress(context.Context) (*models.JobEvent, error) {
	return m.progress, m.progErr
}
func (m *mockAugmentation) RunJob(_ context.Context, p service.JobParams) (string, error) {
	m.lastParams = p
	return m.startID, m.startErr
}

// mockMonitoring is read by WebSocket handlers on their own goroutine.
type mockMonitoring struct {
	mu      sync.Mutex
	snap    live.Snapshot
	devices map[int]models.DeviceInfo
}

func (m *mockMonitoring) Snapshot() live.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
func (m *mockMonitoring) Device(port int) models.DeviceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.devices[port]; ok {
		return d
	}
	return models.DeviceInfo{Port: port}
}

type mockHistory struct {
	temp      []models.DataPoint
	vib       []models.VibrationRow
	err       error
	lastQuery service.HistoryQuery
}

func (m *mockHistory) Temperature(_ context.Context, q service.HistoryQuery) ([]models.DataPoint, error) {
	m.lastQuery = q
	return m.temp, m.err
}
func (m *mockHistory) Vibration(_ context.Context, q service.HistoryQuery) ([]models.VibrationRow, error) {
	m.lastQuery = q
	return m.vib, m.err
}

type mockJobLog struct {
	resp       []models.JobEvent
	err        error
	lastFilter service.JobFilter
	calls      int
}

func (m *mockJobLog) List(_ context.Context, f service.JobFilter) ([]models.JobEvent, error) {
	m.calls++
	m.lastFilter = f
	return m.resp, m.err
}

type mockAnomaly struct {
	result     service.AnomalyResult
	lastPred   service.SensorValues
	lastActual service.SensorValues
}

func (m *mockAnomaly) Detect(prediction, actual service.SensorValues) service.AnomalyResult {
	m.lastPred, m.lastActual = prediction, actual
	return m.result
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
