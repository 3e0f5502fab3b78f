package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/limaJavier/school-timetabling/internal/config"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	solveKey        = "solve"
)

// Solve summarises the search behind a request for the access log
type Solve struct {
	Status  string
	Nodes   int
	Elapsed time.Duration
}

// New builds the process logger. Every entry carries the environment and the default solver budget
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Binaries print results on stdout
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.InitialFields = map[string]any{
		"service": "school-timetabling",
		"env":     cfg.Env,
		"budget":  cfg.Solver.Budget.String(),
	}

	return zapCfg.Build()
}

// RequestID assigns an id to every request, reusing the caller's X-Request-ID when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Set(requestIDKey, reqID)
		c.Writer.Header().Set(requestIDHeader, reqID)

		c.Next()
	}
}

// RequestIDValue returns the id stored by RequestID
func RequestIDValue(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// SetSolve records the outcome of the solve behind the current request
func SetSolve(c *gin.Context, solve Solve) {
	c.Set(solveKey, solve)
}

// GinMiddleware writes one access entry per request: client errors at warn, server errors at error.
// Requests that ran a search also log its status, node count and elapsed time
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.Int64("request_bytes", c.Request.ContentLength),
			zap.Int("response_bytes", max(c.Writer.Size(), 0)),
		}
		if reqID := RequestIDValue(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if value, ok := c.Get(solveKey); ok {
			solve := value.(Solve)
			fields = append(fields,
				zap.String("solve_status", solve.Status),
				zap.Int("solve_nodes", solve.Nodes),
				zap.Duration("solve_elapsed", solve.Elapsed),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("request served", fields...)
		case status >= 400:
			l.Warn("request served", fields...)
		default:
			l.Info("request served", fields...)
		}
	}
}
