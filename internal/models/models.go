package models

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"

	"modeldeploy/internal/files"
	"modeldeploy/internal/images"
)

const containerLogLevel = "20"

// SageMakerClientInterface defines the SageMaker operations used to deploy a model
type SageMakerClientInterface interface {
	CreateModel(ctx context.Context, input *sagemaker.CreateModelInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(ctx context.Context, input *sagemaker.CreateEndpointConfigInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	DescribeEndpoint(ctx context.Context, input *sagemaker.DescribeEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	CreateEndpoint(ctx context.Context, input *sagemaker.CreateEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	UpdateEndpoint(ctx context.Context, input *sagemaker.UpdateEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error)
	ListTags(ctx context.Context, input *sagemaker.ListTagsInput, opts ...func(*sagemaker.Options)) (*sagemaker.ListTagsOutput, error)
}

type ModelRequest struct {
	Name             string
	TrainingJobName  string
	ArtifactURI      string
	ExecutionRoleArn string
}

type EndpointConfigRequest struct {
	Name            string
	ModelName       string
	TrainingJobName string
}

type EndpointRequest struct {
	Name               string
	EndpointConfigName string
	TrainingJobName    string
}

// EndpointResult reports the endpoint ARN and whether the call created it.
type EndpointResult struct {
	Arn     string
	Created bool
}

// Registrar registers models and serverless endpoints with SageMaker.
type Registrar struct {
	client     SageMakerClientInterface
	region     string
	serverless ServerlessConfig
}

func NewRegistrar(client SageMakerClientInterface, region string, serverless ServerlessConfig) *Registrar {
	return &Registrar{
		client:     client,
		region:     region,
		serverless: serverless,
	}
}

func (r *Registrar) tags(trainingJob string) []types.Tag {
	return []types.Tag{
		{Key: aws.String("Project"), Value: aws.String("MLOps")},
		{Key: aws.String("Region"), Value: aws.String(r.region)},
		{Key: aws.String("TrainingJob"), Value: aws.String(trainingJob)},
	}
}

// CreateModel registers the trained artifact behind the inference container.
func (r *Registrar) CreateModel(ctx context.Context, req ModelRequest) (string, error) {
	image, err := images.URI(r.region)
	if err != nil {
		return "", ErrorModelImageUnavailable(err)
	}

	resp, err := r.client.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(req.Name),
		ExecutionRoleArn: aws.String(req.ExecutionRoleArn),
		Containers: []types.ContainerDefinition{
			{
				Image:        aws.String(image),
				Mode:         types.ContainerModeSingleModel,
				ModelDataUrl: aws.String(req.ArtifactURI),
				Environment: map[string]string{
					"SAGEMAKER_CONTAINER_LOG_LEVEL": containerLogLevel,
				},
			},
		},
		Tags: r.tags(req.TrainingJobName),
	})
	if err != nil {
		return "", ErrorModelNotCreated(req.Name, err)
	}

	return aws.ToString(resp.ModelArn), nil
}

// CreateEndpointConfig creates a serverless endpoint configuration. Data capture
// is not supported for serverless endpoints and is never configured.
func (r *Registrar) CreateEndpointConfig(ctx context.Context, req EndpointConfigRequest) (string, error) {
	if err := r.serverless.Validate(); err != nil {
		return "", err
	}

	resp, err := r.client.CreateEndpointConfig(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(req.Name),
		ProductionVariants: []types.ProductionVariant{
			{
				VariantName: aws.String(r.serverless.VariantName),
				ModelName:   aws.String(req.ModelName),
				ServerlessConfig: &types.ProductionVariantServerlessConfig{
					MemorySizeInMB: aws.Int32(r.serverless.MemorySizeInMB),
					MaxConcurrency: aws.Int32(r.serverless.MaxConcurrency),
				},
			},
		},
		Tags: r.tags(req.TrainingJobName),
	})
	if err != nil {
		return "", ErrorEndpointConfigNotCreated(req.Name, err)
	}

	return aws.ToString(resp.EndpointConfigArn), nil
}

// DeployEndpoint points the named endpoint at a configuration, creating the
// endpoint when it does not exist yet. It does not wait for InService.
func (r *Registrar) DeployEndpoint(ctx context.Context, req EndpointRequest) (EndpointResult, error) {
	exists, err := r.endpointExists(ctx, req.Name)
	if err != nil {
		return EndpointResult{}, err
	}

	if exists {
		log.Printf("Endpoint %s exists, updating to config %s", req.Name, req.EndpointConfigName)
		resp, err := r.client.UpdateEndpoint(ctx, &sagemaker.UpdateEndpointInput{
			EndpointName:       aws.String(req.Name),
			EndpointConfigName: aws.String(req.EndpointConfigName),
		})
		if err != nil {
			return EndpointResult{}, ErrorEndpointNotUpdated(req.Name, err)
		}
		return EndpointResult{Arn: aws.ToString(resp.EndpointArn)}, nil
	}

	resp, err := r.client.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(req.Name),
		EndpointConfigName: aws.String(req.EndpointConfigName),
		Tags:               r.tags(req.TrainingJobName),
	})
	if err != nil {
		return EndpointResult{}, ErrorEndpointNotCreated(req.Name, err)
	}

	return EndpointResult{Arn: aws.ToString(resp.EndpointArn), Created: true}, nil
}

func (r *Registrar) endpointExists(ctx context.Context, name string) (bool, error) {
	_, err := r.client.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err, endpointNotFoundPrefix) {
			return false, nil
		}
		return false, ErrorEndpointNotDescribed(name, err)
	}
	return true, nil
}

// TrainingJobArn builds the ARN of a training job. SageMaker lowercases resource names in ARNs.
func (r *Registrar) TrainingJobArn(accountID, trainingJob string) string {
	return fmt.Sprintf("arn:aws:sagemaker:%s:%s:training-job/%s", r.region, accountID, strings.ToLower(trainingJob))
}

// TestDataLocation looks for a "Testing" tag on the training job whose value
// is the S3 URI of the held-out test data. The boolean is false when the job
// or the tag cannot be found.
func (r *Registrar) TestDataLocation(ctx context.Context, accountID, trainingJob string) (files.S3Object, bool, error) {
	arn := r.TrainingJobArn(accountID, trainingJob)

	var nextToken *string
	for {
		resp, err := r.client.ListTags(ctx, &sagemaker.ListTagsInput{
			ResourceArn: aws.String(arn),
			NextToken:   nextToken,
		})
		if err != nil {
			if isNotFound(err, resourceNotFoundPrefix) {
				log.Printf("Training job %s not found, unable to read Testing tag", arn)
				return files.S3Object{}, false, nil
			}
			return files.S3Object{}, false, ErrorTagsNotRetrieved(arn, err)
		}

		for _, tag := range resp.Tags {
			if !strings.Contains(aws.ToString(tag.Key), "Testing") {
				continue
			}
			if obj, ok := files.ParseS3URI(aws.ToString(tag.Value)); ok {
				log.Printf("Found Testing tag on %s, test data bucket: %s, key: %s", trainingJob, obj.Bucket, obj.Key)
				return obj, true, nil
			}
			log.Printf("Ignoring Testing tag on %s with value %q", trainingJob, aws.ToString(tag.Value))
		}

		if aws.ToString(resp.NextToken) == "" {
			break
		}
		nextToken = resp.NextToken
	}

	log.Printf("Unable to find Testing tag on training job %s", trainingJob)
	return files.S3Object{}, false, nil
}

// ValidationException messages SageMaker uses for missing resources
const (
	endpointNotFoundPrefix = "Could not find endpoint"
	resourceNotFoundPrefix = "Requested resource not found"
)

// isNotFound reports whether SageMaker rejected a request because the
// resource does not exist. SageMaker signals missing endpoints and training
// jobs with a ValidationException rather than a modeled error.
func isNotFound(err error, messagePrefix string) bool {
	var resourceNotFound *types.ResourceNotFound
	if errors.As(err, &resourceNotFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationException" && strings.HasPrefix(apiErr.ErrorMessage(), messagePrefix)
	}
	return false
}
