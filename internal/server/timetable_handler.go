package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/school-timetabling/internal/export"
	"github.com/limaJavier/school-timetabling/internal/logger"
	"github.com/limaJavier/school-timetabling/pkg/model"
	"github.com/limaJavier/school-timetabling/pkg/timetable"
)

// maxBudget caps the budget a client may ask for
const maxBudget = 5 * time.Minute

type TimetableHandlerConfig struct {
	Settings             model.Settings
	Budget               time.Duration
	DisableCapacityCheck bool
	Logger               *zap.Logger
	Observer             timetable.Observer
}

// TimetableHandler exposes the solver over HTTP.
type TimetableHandler struct {
	config TimetableHandlerConfig
	logger *zap.Logger
}

func NewTimetableHandler(config TimetableHandlerConfig) *TimetableHandler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &TimetableHandler{config: config, logger: config.Logger}
}

type timetableResponse struct {
	Timetable *timetable.Timetable `json:"timetable"`
	Classes   []string             `json:"classes"`
	Teachers  []string             `json:"teachers"`
}

// Build solves the posted input. Every search outcome is a 200 whose status tells solved, infeasible and timed-out apart
func (h *TimetableHandler) Build(c *gin.Context) {
	table, _, err := h.solve(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, timetableResponse{
		Timetable: table,
		Classes:   table.Classes(),
		Teachers:  table.Teachers(),
	})
}

// Export solves the posted input and renders it as csv or pdf (?format=csv|pdf&view=class|teacher). Unsolved inputs get a 409
func (h *TimetableHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	view, err := export.ParseView(c.DefaultQuery("view", string(export.ViewClass)))
	if err != nil {
		respondError(c, badRequest(err, "invalid view"))
		return
	} else if format != "csv" && format != "pdf" {
		respondError(c, badRequest(fmt.Errorf("unknown format %q", format), "invalid format"))
		return
	}

	table, domain, err := h.solve(c)
	if err != nil {
		respondError(c, err)
		return
	} else if !table.Solved() {
		respondError(c, &apiError{
			Code:    "NOT_SOLVED",
			Message: fmt.Sprintf("no timetable to export: %v (%v)", table.Status(), table.Reason()),
			Status:  http.StatusConflict,
		})
		return
	}

	grids := export.Grids(table, view, domain.Days, domain.PeriodsPerDay)
	var content []byte
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
		content, err = export.NewPDFExporter().Render(grids...)
	} else {
		content, err = export.NewCSVExporter().Render(grids...)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%v.%v", view, format))
	c.Data(http.StatusOK, contentType, content)
}

func (h *TimetableHandler) solve(c *gin.Context) (*timetable.Timetable, *model.Domain, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		return nil, nil, badRequest(err, "invalid json payload")
	}

	budget := h.config.Budget
	if raw, ok := body["budget"]; ok {
		delete(body, "budget")
		parsed, err := parseBudget(raw)
		if err != nil {
			return nil, nil, badRequest(err, "invalid budget")
		}
		budget = parsed
	}

	rawInput, err := model.DecodeInput(body)
	if err != nil {
		return nil, nil, badRequest(err, "invalid timetable input")
	}
	domain, err := model.NewDomain(rawInput, h.config.Settings)
	if err != nil {
		return nil, nil, err
	}

	timetabler := timetable.NewTimetabler(timetable.Config{
		Budget:               budget,
		Logger:               h.logger.With(zap.String("request_id", logger.RequestIDValue(c))),
		Observer:             h.config.Observer,
		DisableCapacityCheck: h.config.DisableCapacityCheck,
	})
	table, err := timetabler.Build(c.Request.Context(), domain)
	if err != nil {
		return nil, nil, err
	}
	logger.SetSolve(c, logger.Solve{
		Status:  table.Status().String(),
		Nodes:   table.Stats().Nodes,
		Elapsed: table.Stats().Duration,
	})
	return table, domain, nil
}

// parseBudget accepts a Go duration string ("10s") or a number of seconds
func parseBudget(raw any) (time.Duration, error) {
	var budget time.Duration
	switch value := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, err
		}
		budget = parsed
	case float64:
		budget = time.Duration(value * float64(time.Second))
	default:
		return 0, fmt.Errorf("budget must be a duration string or a number of seconds")
	}

	if budget <= 0 {
		return 0, fmt.Errorf("budget must be positive")
	}
	return min(budget, maxBudget), nil
}
