package failures

import (
	"errors"
	"fmt"
)

// Every error returned by a deployment stage wraps exactly one of these.
var (
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrExternalService = errors.New("external service error")
)

func Validation(specific error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrValidation, specific, fmt.Sprintf(format, args...))
}

func Configuration(specific error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrConfiguration, specific, fmt.Sprintf(format, args...))
}

func ExternalService(specific error, op string, cause error) error {
	return fmt.Errorf("%w: %w: op=%s cause=%w", ErrExternalService, specific, op, cause)
}

// Category returns a short label for the taxonomy bucket err belongs to.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "Validation"
	case errors.Is(err, ErrConfiguration):
		return "Configuration"
	case errors.Is(err, ErrExternalService):
		return "ExternalService"
	default:
		return "Unknown"
	}
}
