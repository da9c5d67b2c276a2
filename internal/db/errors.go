package db

import (
	"errors"

	"modeldeploy/internal/failures"
)

var (
	ErrDeploymentRecordNotFound   = errors.New("deployment record not found")
	ErrDeploymentRecordNotRead    = errors.New("failed to read deployment record")
	ErrDeploymentRecordNotWritten = errors.New("failed to write deployment record")
	ErrMarshallingDeployment      = errors.New("failed to marshal deployment record")
	ErrUnmarshallingDeployment    = errors.New("failed to unmarshal deployment record")
)

func ErrorDeploymentRecordNotFound(modelName string) error {
	return failures.Validation(ErrDeploymentRecordNotFound, "model=%s", modelName)
}

func ErrorDeploymentRecordNotRead(table string, cause error) error {
	return failures.ExternalService(ErrDeploymentRecordNotRead, "GetItem "+table, cause)
}

func ErrorDeploymentRecordNotWritten(table string, cause error) error {
	return failures.ExternalService(ErrDeploymentRecordNotWritten, "PutItem "+table, cause)
}

func ErrorMarshallingDeployment(cause error) error {
	return failures.Validation(ErrMarshallingDeployment, "cause=%v", cause)
}

func ErrorUnmarshallingDeployment(cause error) error {
	return failures.Validation(ErrUnmarshallingDeployment, "cause=%v", cause)
}
