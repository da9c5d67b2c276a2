package parameters

import (
	"errors"

	"modeldeploy/internal/failures"
)

var (
	ErrParameterEmpty        = errors.New("parameter has no value")
	ErrParameterNotFound     = errors.New("parameter not found")
	ErrParameterNotRetrieved = errors.New("failed to read parameter")
)

func ErrorParameterEmpty(name string) error {
	return failures.Configuration(ErrParameterEmpty, "name=%s", name)
}

func ErrorParameterNotFound(name string) error {
	return failures.Configuration(ErrParameterNotFound, "name=%s", name)
}

func ErrorParameterNotRetrieved(name string, cause error) error {
	return failures.ExternalService(ErrParameterNotRetrieved, "GetParameter "+name, cause)
}
