package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limaJavier/school-timetabling/internal/config"
	"github.com/limaJavier/school-timetabling/internal/metrics"
)

const feasibleBody = `{
  "days": ["Mon", "Tue"],
  "periodsPerDay": 2,
  "teachers": [
    { "name": "Alice", "subjects": ["Math"] },
    { "name": "Bob", "subjects": ["Art"] }
  ],
  "subjects": [
    { "name": "Math", "periods": 2 },
    { "name": "Art", "periods": 1 }
  ],
  "classes": [{ "name": "1A" }, { "name": "1B" }]
}`

// Alice would have to teach 4 periods in a 3-period week
const infeasibleBody = `{
  "days": ["Mon"],
  "periodsPerDay": 3,
  "teachers": [{ "name": "Alice", "subjects": ["Math"] }],
  "subjects": [{ "name": "Math", "periods": 2 }],
  "classes": [{ "name": "1A" }, { "name": "1B" }]
}`

const unteachableBody = `{
  "days": ["Mon"],
  "periodsPerDay": 2,
  "teachers": [{ "name": "Alice", "subjects": ["Math"] }],
  "subjects": [{ "name": "Math", "periods": 1 }, { "name": "Art", "periods": 1 }],
  "classes": [{ "name": "1A" }]
}`

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
		Subject string `json:"subject"`
	} `json:"error"`
}

type buildData struct {
	Timetable struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
		Rows   []struct {
			Class   string `json:"class"`
			Subject string `json:"subject"`
			Teacher string `json:"teacher"`
		} `json:"rows"`
	} `json:"timetable"`
	Classes  []string `json:"classes"`
	Teachers []string `json:"teachers"`
}

func testConfig() *config.Config {
	return &config.Config{
		Env:    config.EnvDevelopment,
		Solver: config.SolverConfig{Budget: 5 * time.Second, Workers: 1},
		Calendar: config.CalendarConfig{
			Days:          []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
			PeriodsPerDay: 6,
		},
		Limits: config.LimitsConfig{MaxWeeklyPeriods: 10},
		Server: config.ServerConfig{APIPrefix: "/api/v1", MaxBodyBytes: 1 << 20},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *metrics.MetricsService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metricsService := metrics.NewMetricsService()
	return NewRouter(testConfig(), zap.NewNop(), metricsService), metricsService
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestBuildSolved(t *testing.T) {
	//** Arrange
	router, _ := newTestRouter(t)

	//** Act
	w := post(router, "/api/v1/timetables", feasibleBody)

	//** Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	env := decodeEnvelope(t, w)
	require.Nil(t, env.Error)
	var data buildData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "solved", data.Timetable.Status)
	assert.Len(t, data.Timetable.Rows, 6)
	assert.Equal(t, []string{"1A", "1B"}, data.Classes)
	assert.Equal(t, []string{"Alice", "Bob"}, data.Teachers)
}

func TestBuildInfeasibleIsNotAnError(t *testing.T) {
	//** Arrange
	router, _ := newTestRouter(t)

	//** Act
	w := post(router, "/api/v1/timetables", infeasibleBody)

	//** Assert
	require.Equal(t, http.StatusOK, w.Code)
	var data buildData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, "infeasible", data.Timetable.Status)
	assert.NotEmpty(t, data.Timetable.Reason)
	assert.Empty(t, data.Timetable.Rows)
}

func TestBuildHonoursBudget(t *testing.T) {
	//** Arrange
	router, _ := newTestRouter(t)
	body := strings.Replace(feasibleBody, `"days"`, `"budget": "1ns", "days"`, 1)

	//** Act
	w := post(router, "/api/v1/timetables", body)

	//** Assert
	require.Equal(t, http.StatusOK, w.Code)
	var data buildData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, "timed-out", data.Timetable.Status)
}

func TestBuildConfigurationError(t *testing.T) {
	//** Arrange
	router, _ := newTestRouter(t)

	//** Act
	w := post(router, "/api/v1/timetables", unteachableBody)

	//** Assert
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNTEACHABLE_SUBJECT", env.Error.Code)
	assert.Equal(t, "Art", env.Error.Subject)
}

func TestBuildBadRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	testCases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"days": [`},
		{name: "invalid budget", body: `{"budget": "soon"}`},
		{name: "negative budget", body: `{"budget": -3}`},
		{name: "unknown field", body: `{"rooms": []}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			w := post(router, "/api/v1/timetables", testCase.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			env := decodeEnvelope(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, "BAD_REQUEST", env.Error.Code)
		})
	}
}

func TestBuildRejectsOversizedBody(t *testing.T) {
	//** Arrange
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 16
	router := NewRouter(cfg, nil, nil)

	//** Act
	w := post(router, "/api/v1/timetables", feasibleBody)

	//** Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSV(t *testing.T) {
	//** Arrange
	router, _ := newTestRouter(t)

	//** Act
	w := post(router, "/api/v1/timetables/export?format=csv&view=teacher", feasibleBody)

	//** Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-teacher.csv")
	assert.Contains(t, w.Body.String(), "teacher Alice")
	assert.Contains(t, w.Body.String(), "teacher Bob")
}

func TestExportPDF(t *testing.T) {
	router, _ := newTestRouter(t)

	w := post(router, "/api/v1/timetables/export?format=pdf", feasibleBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestExportFailures(t *testing.T) {
	router, _ := newTestRouter(t)

	testCases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "unknown format", path: "/api/v1/timetables/export?format=xlsx", body: feasibleBody, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "unknown view", path: "/api/v1/timetables/export?view=room", body: feasibleBody, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "infeasible", path: "/api/v1/timetables/export", body: infeasibleBody, status: http.StatusConflict, code: "NOT_SOLVED"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			w := post(router, testCase.path, testCase.body)

			require.Equal(t, testCase.status, w.Code)
			env := decodeEnvelope(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, testCase.code, env.Error.Code)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	//** Arrange
	router, _ := newTestRouter(t)
	post(router, "/api/v1/timetables", feasibleBody)

	//** Act
	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	//** Assert
	require.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())

	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), `timetable_solves_total{status="solved"} 1`)
	assert.Contains(t, scrape.Body.String(), `http_request_duration_seconds_count{method="POST",path="/api/v1/timetables",status="200"} 1`)
}

func TestParseBudget(t *testing.T) {
	budget, err := parseBudget("250ms")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, budget)

	budget, err = parseBudget(2.5)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, budget)

	budget, err = parseBudget("1h")
	require.NoError(t, err)
	assert.Equal(t, maxBudget, budget)

	_, err = parseBudget(true)
	assert.Error(t, err)
}
