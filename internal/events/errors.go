package events

import (
	"errors"

	"modeldeploy/internal/failures"
)

var (
	ErrEventNotParsed   = errors.New("failed to parse event")
	ErrMissingObject    = errors.New("event record is missing bucket name or object key")
	ErrMissingRecords   = errors.New("event contains no records")
	ErrUnsupportedEvent = errors.New("unsupported event type")
)

func ErrorEventNotParsed(cause error) error {
	return failures.Validation(ErrEventNotParsed, "cause=%v", cause)
}

func ErrorMissingRecords() error {
	return failures.Validation(ErrMissingRecords, "records=0")
}

func ErrorMissingObject(bucket, key string) error {
	return failures.Validation(ErrMissingObject, "bucket=%q key=%q", bucket, key)
}

func ErrorUnsupportedEvent(eventName string) error {
	return failures.Validation(ErrUnsupportedEvent, "eventName=%s", eventName)
}
