package events

import (
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"modeldeploy/internal/files"
)

// S3EventWrapper wraps an S3Event delivered by an S3 trigger
type S3EventWrapper struct {
	Event *events.S3Event
}

// EventName returns the first record's event name
func (w *S3EventWrapper) EventName() string {
	if len(w.Event.Records) > 0 {
		return w.Event.Records[0].EventName
	}
	return ""
}

// BucketName extracts the bucket name
func (w *S3EventWrapper) BucketName() string {
	if len(w.Event.Records) > 0 {
		return w.Event.Records[0].S3.Bucket.Name
	}
	return ""
}

// ObjectKey extracts the object key, preferring the URL-decoded form
func (w *S3EventWrapper) ObjectKey() string {
	if len(w.Event.Records) > 0 {
		obj := w.Event.Records[0].S3.Object
		if obj.URLDecodedKey != "" {
			return obj.URLDecodedKey
		}
		return obj.Key
	}
	return ""
}

// IsObjectCreatedEvent checks if the event is an object creation event
func (w *S3EventWrapper) IsObjectCreatedEvent() bool {
	return strings.HasPrefix(w.EventName(), "ObjectCreated:")
}

// Object returns the uploaded object of the first record.
func (w *S3EventWrapper) Object() (files.S3Object, error) {
	if len(w.Event.Records) == 0 {
		return files.S3Object{}, ErrorMissingRecords()
	}

	if !w.IsObjectCreatedEvent() {
		return files.S3Object{}, ErrorUnsupportedEvent(w.EventName())
	}

	bucket, key := w.BucketName(), w.ObjectKey()
	if bucket == "" || key == "" {
		return files.S3Object{}, ErrorMissingObject(bucket, key)
	}

	return files.NewS3Object(bucket, key), nil
}

// ParseS3Event decodes a raw Lambda payload and returns the object it announces.
func ParseS3Event(raw json.RawMessage) (files.S3Object, error) {
	var s3Event events.S3Event
	if err := json.Unmarshal(raw, &s3Event); err != nil {
		return files.S3Object{}, ErrorEventNotParsed(err)
	}

	w := S3EventWrapper{Event: &s3Event}
	return w.Object()
}
