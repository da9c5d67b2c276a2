package locations

import (
	"errors"

	"modeldeploy/internal/failures"
)

var (
	ErrInvalidObjectKey = errors.New("object key does not match <prefix>/output/<job-name>/output/model.tar.gz")
	ErrInvalidJobName   = errors.New("invalid training job name")
	ErrNameTooLong      = errors.New("derived resource name exceeds the SageMaker limit")
)

func ErrorInvalidObjectKey(key string) error {
	return failures.Validation(ErrInvalidObjectKey, "key=%s", key)
}

func ErrorInvalidJobName(job string) error {
	return failures.Validation(ErrInvalidJobName, "job=%s", job)
}

func ErrorNameTooLong(name string) error {
	return failures.Validation(ErrNameTooLong, "name=%s length=%d max=%d", name, len(name), MaxNameLength)
}
