package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/school-timetabling/internal/config"
	"github.com/limaJavier/school-timetabling/internal/logger"
	"github.com/limaJavier/school-timetabling/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires middleware, the timetable endpoints under the API prefix, /health and /metrics
func NewRouter(cfg *config.Config, logr *zap.Logger, metricsService *metrics.MetricsService) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(logger.GinMiddleware(logr))
	r.Use(observeRequests(metricsService))
	if cfg.Server.MaxBodyBytes > 0 {
		r.Use(limitBody(cfg.Server.MaxBodyBytes))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	handler := NewTimetableHandler(TimetableHandlerConfig{
		Settings:             cfg.Settings(),
		Budget:               cfg.Solver.Budget,
		DisableCapacityCheck: cfg.Solver.DisableCapacityCheck,
		Logger:               logr,
		Observer:             metricsService,
	})
	api := r.Group(cfg.Server.APIPrefix)
	api.POST("/timetables", handler.Build)
	api.POST("/timetables/export", handler.Export)

	return r
}

func observeRequests(metricsService *metrics.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metricsService.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// Run serves handler on the configured port until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, logr *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
