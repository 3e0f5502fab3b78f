package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/limaJavier/school-timetabling/internal/config"
)

func TestNew(t *testing.T) {
	scenarios := []struct {
		name  string
		cfg   config.Config
		level zapcore.Level
	}{
		{"Production json", config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "json"}}, zapcore.WarnLevel},
		{"Development console", config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "debug", Format: "console"}}, zapcore.DebugLevel},
		{"Unknown level falls back to info", config.Config{Log: config.LogConfig{Level: "loud"}}, zapcore.InfoLevel},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			//** Act
			logger, err := New(&scenario.cfg)

			//** Assert
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(scenario.level))
			assert.False(t, logger.Core().Enabled(scenario.level-1))
		})
	}
}

func TestGinMiddleware(t *testing.T) {
	//** Arrange
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(RequestID(), GinMiddleware(zap.New(core)))
	router.POST("/timetables/:id", func(c *gin.Context) {
		SetSolve(c, Solve{Status: "solved", Nodes: 12, Elapsed: time.Millisecond})
		c.String(http.StatusOK, "pong")
	})
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errors.New("no such timetable"))
		c.Status(http.StatusNotFound)
	})

	request := httptest.NewRequest(http.MethodPost, "/timetables/7", strings.NewReader("{}"))
	request.Header.Set("X-Request-ID", "abc")
	recorder := httptest.NewRecorder()

	//** Act
	router.ServeHTTP(recorder, request)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	//** Assert
	assert.Equal(t, "abc", recorder.Header().Get("X-Request-ID"))
	entries := logs.FilterMessage("request served").All()
	require.Len(t, entries, 2)

	served := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/timetables/:id", served["route"])
	assert.Equal(t, int64(http.StatusOK), served["status"])
	assert.Equal(t, int64(2), served["request_bytes"])
	assert.Equal(t, int64(4), served["response_bytes"])
	assert.Equal(t, "abc", served["request_id"])
	assert.Equal(t, "solved", served["solve_status"])
	assert.Equal(t, int64(12), served["solve_nodes"])

	missing := entries[1].ContextMap()
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), missing["status"])
	assert.Contains(t, missing["errors"], "no such timetable")
	assert.NotContains(t, missing, "solve_status")
}

func TestGinMiddlewareUnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	entries := logs.FilterMessage("request served").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "unmatched", entries[0].ContextMap()["route"])
	assert.NotContains(t, entries[0].ContextMap(), "request_id")
}

func TestRequestIDIsGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDValue(c)) })
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, recorder.Body.String())
	assert.Equal(t, recorder.Body.String(), recorder.Header().Get("X-Request-ID"))
}
