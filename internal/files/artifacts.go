package files

import (
	"context"
	"errors"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3ClientInterface defines the S3 operations required for artifact verification
type S3ClientInterface interface {
	HeadObject(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// ArtifactMetadata is what S3 reports about an uploaded model artifact
type ArtifactMetadata struct {
	Size int64
	ETag string
}

type ArtifactChecker struct {
	s3Client S3ClientInterface
}

func NewArtifactChecker(s3Client S3ClientInterface) *ArtifactChecker {
	return &ArtifactChecker{s3Client: s3Client}
}

// Verify confirms the artifact still exists before anything is registered against it.
func (c *ArtifactChecker) Verify(ctx context.Context, obj S3Object) (ArtifactMetadata, error) {
	headResp, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ArtifactMetadata{}, ErrorArtifactNotFound(obj.URI())
		}
		return ArtifactMetadata{}, ErrorMetadataNotRetrieved(obj.URI(), err)
	}

	meta := ArtifactMetadata{
		Size: aws.ToInt64(headResp.ContentLength),
		ETag: aws.ToString(headResp.ETag),
	}

	log.Printf("Verified model artifact %s - Size: %d bytes (%.2f MB), ETag: %s",
		obj.URI(), meta.Size, float64(meta.Size)/(1024*1024), meta.ETag)

	return meta, nil
}

// isS3NotFound checks if an error is a "not found" error from S3
func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NoSuchBucket"
	}
	return false
}
