package files

import (
	"errors"

	"modeldeploy/internal/failures"
)

var (
	ErrArtifactNotFound     = errors.New("model artifact not found")
	ErrMetadataNotRetrieved = errors.New("metadata not retrieved")
)

func ErrorArtifactNotFound(uri string) error {
	return failures.Validation(ErrArtifactNotFound, "uri=%s", uri)
}

func ErrorMetadataNotRetrieved(uri string, cause error) error {
	return failures.ExternalService(ErrMetadataNotRetrieved, "HeadObject "+uri, cause)
}
