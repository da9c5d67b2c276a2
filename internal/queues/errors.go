package queues

import (
	"errors"

	"modeldeploy/internal/failures"
)

var (
	ErrMarshallingMessage = errors.New("failed to marshal evaluation message")
	ErrMessageNotSent     = errors.New("failed to send evaluation message")
	ErrQueueURLNotFound   = errors.New("failed to resolve queue url")
)

func ErrorMarshallingMessage(cause error) error {
	return failures.ExternalService(ErrMarshallingMessage, "Marshal", cause)
}

func ErrorMessageNotSent(queueURL string, cause error) error {
	return failures.ExternalService(ErrMessageNotSent, "SendMessage "+queueURL, cause)
}

func ErrorQueueURLNotFound(queueName string, cause error) error {
	return failures.ExternalService(ErrQueueURLNotFound, "GetQueueUrl "+queueName, cause)
}
