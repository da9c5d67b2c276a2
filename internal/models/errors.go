package models

import (
	"errors"
	"fmt"

	"modeldeploy/internal/failures"
)

var (
	ErrEndpointConfigNotCreated = errors.New("failed to create endpoint config")
	ErrEndpointNotCreated       = errors.New("failed to create endpoint")
	ErrEndpointNotDescribed     = errors.New("failed to describe endpoint")
	ErrEndpointNotUpdated       = errors.New("failed to update endpoint")
	ErrInvalidServerlessConfig  = errors.New("invalid serverless config")
	ErrModelImageUnavailable    = errors.New("inference image unavailable")
	ErrModelNotCreated          = errors.New("failed to create model")
	ErrTagsNotRetrieved         = errors.New("failed to list training job tags")
)

func ErrorEndpointConfigNotCreated(name string, cause error) error {
	return failures.ExternalService(ErrEndpointConfigNotCreated, "CreateEndpointConfig "+name, cause)
}

func ErrorEndpointNotCreated(name string, cause error) error {
	return failures.ExternalService(ErrEndpointNotCreated, "CreateEndpoint "+name, cause)
}

func ErrorEndpointNotDescribed(name string, cause error) error {
	return failures.ExternalService(ErrEndpointNotDescribed, "DescribeEndpoint "+name, cause)
}

func ErrorEndpointNotUpdated(name string, cause error) error {
	return failures.ExternalService(ErrEndpointNotUpdated, "UpdateEndpoint "+name, cause)
}

func ErrorInvalidServerlessConfig(reason string) error {
	return failures.Configuration(ErrInvalidServerlessConfig, "%s", reason)
}

func ErrorModelImageUnavailable(cause error) error {
	return failures.Configuration(ErrModelImageUnavailable, "cause=%v", cause)
}

func ErrorModelNotCreated(name string, cause error) error {
	return failures.ExternalService(ErrModelNotCreated, "CreateModel "+name, cause)
}

func ErrorTagsNotRetrieved(arn string, cause error) error {
	return failures.ExternalService(ErrTagsNotRetrieved, fmt.Sprintf("ListTags %s", arn), cause)
}
