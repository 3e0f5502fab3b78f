package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/school-timetabling/pkg/model"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Class   string `json:"class,omitempty"`
	Subject string `json:"subject,omitempty"`
	Err     error  `json:"-"`
}

func (e *apiError) Error() string {
	return e.Message
}

func (e *apiError) Unwrap() error {
	return e.Err
}

const (
	codeBadRequest = "BAD_REQUEST"
	codeInternal   = "INTERNAL_ERROR"
)

func badRequest(err error, message string) *apiError {
	return &apiError{Code: codeBadRequest, Message: message + ": " + err.Error(), Status: http.StatusBadRequest, Err: err}
}

// fromError normalises any error into an *apiError. Configuration errors are the caller's fault and map to 422
func fromError(err error) *apiError {
	var e *apiError
	if errors.As(err, &e) {
		return e
	}
	if configErr, ok := model.AsConfigurationError(err); ok {
		return &apiError{
			Code:    string(configErr.Kind),
			Message: configErr.Message,
			Status:  http.StatusUnprocessableEntity,
			Class:   configErr.Class,
			Subject: configErr.Subject,
			Err:     err,
		}
	}
	return &apiError{Code: codeInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}

func respondJSON(c *gin.Context, status int, data any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data})
}

func respondError(c *gin.Context, err error) {
	apiErr := fromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(apiErr.Status, Envelope{Error: apiErr})
}
