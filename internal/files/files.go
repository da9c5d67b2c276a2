package files

import (
	"fmt"
	"strings"
)

const s3Scheme = "s3://"

// S3Object represents an S3 object
type S3Object struct {
	Bucket string
	Key    string
}

// NewS3Object creates a new S3Object
func NewS3Object(bucket, key string) S3Object {
	return S3Object{Bucket: bucket, Key: key}
}

// URI returns a human-readable URI for the S3 object
func (obj S3Object) URI() string {
	return fmt.Sprintf("%s%s/%s", s3Scheme, obj.Bucket, obj.Key)
}

// ParseS3URI splits an s3://bucket/key URI. Both parts must be non-empty.
func ParseS3URI(uri string) (S3Object, bool) {
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		return S3Object{}, false
	}

	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return S3Object{}, false
	}

	return NewS3Object(bucket, key), true
}
