package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrHost          = errors.New("host integration error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err belongs to the configuration class that aborts
// a run before any marker or row is processed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Details is the user-facing breakdown of a wrapped service error.
type Details struct {
	Kind    string
	Message string
}

// Describe classifies err by its sentinel marker.
func Describe(err error) Details {
	if err == nil {
		return Details{}
	}
	kind := "transient"
	switch {
	case errors.Is(err, ErrConfiguration):
		kind = "configuration"
	case errors.Is(err, ErrValidation):
		kind = "validation"
	case errors.Is(err, ErrNotFound):
		kind = "not_found"
	case errors.Is(err, ErrExternalTool):
		kind = "external_tool"
	case errors.Is(err, ErrHost):
		kind = "host"
	}
	return Details{Kind: kind, Message: strings.TrimSpace(err.Error())}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
