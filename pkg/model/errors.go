package model

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which validation rule a configuration was rejected by
type ErrorKind string

const (
	KindUnteachableSubject  ErrorKind = "UNTEACHABLE_SUBJECT"
	KindInvalidPeriodCount  ErrorKind = "INVALID_PERIOD_COUNT"
	KindDuplicateIdentifier ErrorKind = "DUPLICATE_IDENTIFIER"
	KindInvalidIdentifier   ErrorKind = "INVALID_IDENTIFIER"
	KindInvalidCalendar     ErrorKind = "INVALID_CALENDAR"
	KindUnknownSubject      ErrorKind = "UNKNOWN_SUBJECT"
	KindEmptyCurriculum     ErrorKind = "EMPTY_CURRICULUM"
)

// ConfigurationError reports malformed or unschedulable input. It is always raised before any variable is built
type ConfigurationError struct {
	Kind    ErrorKind
	Message string
	Class   string // Offending class, when the rule concerns one
	Subject string // Offending subject, when the rule concerns one
	Err     error
}

func (err *ConfigurationError) Error() string {
	if err == nil {
		return "<nil>"
	}
	if err.Err != nil {
		return fmt.Sprintf("%v: %v: %v", err.Kind, err.Message, err.Err)
	}
	return fmt.Sprintf("%v: %v", err.Kind, err.Message)
}

func (err *ConfigurationError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

// Is matches any ConfigurationError of the same kind, so callers can write errors.Is(err, model.ErrUnteachableSubject)
func (err *ConfigurationError) Is(target error) bool {
	other, ok := target.(*ConfigurationError)
	if !ok || err == nil || other == nil {
		return false
	}
	return err.Kind == other.Kind
}

// Sentinel values for errors.Is
var (
	ErrUnteachableSubject  = &ConfigurationError{Kind: KindUnteachableSubject, Message: "subject has no competent teacher"}
	ErrInvalidPeriodCount  = &ConfigurationError{Kind: KindInvalidPeriodCount, Message: "invalid weekly period count"}
	ErrDuplicateIdentifier = &ConfigurationError{Kind: KindDuplicateIdentifier, Message: "duplicate identifier"}
	ErrInvalidIdentifier   = &ConfigurationError{Kind: KindInvalidIdentifier, Message: "invalid identifier"}
	ErrInvalidCalendar     = &ConfigurationError{Kind: KindInvalidCalendar, Message: "invalid calendar"}
	ErrUnknownSubject      = &ConfigurationError{Kind: KindUnknownSubject, Message: "unknown subject"}
	ErrEmptyCurriculum     = &ConfigurationError{Kind: KindEmptyCurriculum, Message: "empty curriculum"}
)

func newConfigurationError(kind ErrorKind, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func unteachableSubjectError(class, subject string) *ConfigurationError {
	return &ConfigurationError{
		Kind:    KindUnteachableSubject,
		Message: fmt.Sprintf("no teacher is competent to teach subject \"%v\" required by class \"%v\"", subject, class),
		Class:   class,
		Subject: subject,
	}
}

// AsConfigurationError extracts the ConfigurationError wrapped in err, if any
func AsConfigurationError(err error) (*ConfigurationError, bool) {
	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}
