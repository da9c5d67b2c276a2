package locations

import (
	"regexp"
	"strings"

	"modeldeploy/internal/files"
)

const (
	ArtifactFileName  = "model.tar.gz"
	OutputSegment     = "output"
	TestingSegment    = "testing"
	TestDataFileName  = "test.csv"
	MaxNameLength     = 63
	EndpointSuffix    = "-serverless-ep"
	EndpointCfgSuffix = "-serverless-epc"
)

var (
	// SageMaker resource names: alphanumerics separated by hyphens
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9](-*[a-zA-Z0-9])*$`)

	// Suffix the SageMaker estimator appends to generated training job names
	jobTimestampPattern = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}-\d{3}$`)
)

// Locations holds every identifier derived from an uploaded artifact key.
type Locations struct {
	Artifact           files.S3Object
	Prefix             string
	TrainingJobName    string
	Algorithm          string
	ModelName          string
	EndpointConfigName string
	EndpointName       string
	TestDataKey        string
}

// ArtifactURI is the ModelDataUrl handed to SageMaker
func (l Locations) ArtifactURI() string {
	return l.Artifact.URI()
}

// TestData places the derived test data key in the evaluation bucket.
func (l Locations) TestData(evaluationBucket string) files.S3Object {
	return files.NewS3Object(evaluationBucket, l.TestDataKey)
}

// Resolve derives model, endpoint and test data identifiers from the object
// key of a training job output, <prefix>/output/<job-name>/output/model.tar.gz.
func Resolve(obj files.S3Object) (Locations, error) {
	trimmed, ok := strings.CutSuffix(obj.Key, "/"+OutputSegment+"/"+ArtifactFileName)
	if !ok {
		return Locations{}, ErrorInvalidObjectKey(obj.Key)
	}

	parts := strings.Split(trimmed, "/")
	n := len(parts)
	if n < 3 || parts[n-2] != OutputSegment {
		return Locations{}, ErrorInvalidObjectKey(obj.Key)
	}

	prefixParts := parts[:n-2]
	for _, p := range prefixParts {
		if p == "" {
			return Locations{}, ErrorInvalidObjectKey(obj.Key)
		}
	}

	job := parts[n-1]
	if job == "" {
		return Locations{}, ErrorInvalidObjectKey(obj.Key)
	}
	if len(job) > MaxNameLength || !namePattern.MatchString(job) {
		return Locations{}, ErrorInvalidJobName(job)
	}

	prefix := strings.Join(prefixParts, "/")
	algorithm := AlgorithmName(job)

	loc := Locations{
		Artifact:           obj,
		Prefix:             prefix,
		TrainingJobName:    job,
		Algorithm:          algorithm,
		ModelName:          job,
		EndpointConfigName: job + EndpointCfgSuffix,
		EndpointName:       algorithm + EndpointSuffix,
		TestDataKey:        strings.Join([]string{prefix, TestingSegment, job, TestDataFileName}, "/"),
	}

	for _, name := range []string{loc.ModelName, loc.EndpointConfigName, loc.EndpointName} {
		if len(name) > MaxNameLength {
			return Locations{}, ErrorNameTooLong(name)
		}
	}

	return loc, nil
}

// AlgorithmName strips the estimator timestamp from a generated job name,
// xgboost-2024-02-23-18-04-06-024 becomes xgboost. Other names are returned as is.
func AlgorithmName(job string) string {
	algorithm := jobTimestampPattern.ReplaceAllString(job, "")
	if algorithm == "" {
		return job
	}
	return algorithm
}
