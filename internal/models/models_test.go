package models

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modeldeploy/internal/failures"
)

const (
	modelArn          = "arn:aws:sagemaker:eu-west-2:012345678901:model/job-123"
	endpointConfigArn = "arn:aws:sagemaker:eu-west-2:012345678901:endpoint-config/job-123-serverless-epc"
	endpointArn       = "arn:aws:sagemaker:eu-west-2:012345678901:endpoint/job-123-serverless-ep"
	roleArn           = "arn:aws:iam::012345678901:role/SageMakerRole"
)

// Mock SageMaker client for testing
type mockSageMakerClient struct {
	existingEndpoints map[string]bool
	tagPages          [][]types.Tag
	errors            map[string]error // keyed by operation name

	modelInputs          []*sagemaker.CreateModelInput
	endpointConfigInputs []*sagemaker.CreateEndpointConfigInput
	createEndpointInputs []*sagemaker.CreateEndpointInput
	updateEndpointInputs []*sagemaker.UpdateEndpointInput
	listTagsInputs       []*sagemaker.ListTagsInput
}

func (m *mockSageMakerClient) CreateModel(ctx context.Context, input *sagemaker.CreateModelInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error) {
	m.modelInputs = append(m.modelInputs, input)
	if err, exists := m.errors["CreateModel"]; exists {
		return nil, err
	}
	return &sagemaker.CreateModelOutput{ModelArn: aws.String(modelArn)}, nil
}

func (m *mockSageMakerClient) CreateEndpointConfig(ctx context.Context, input *sagemaker.CreateEndpointConfigInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error) {
	m.endpointConfigInputs = append(m.endpointConfigInputs, input)
	if err, exists := m.errors["CreateEndpointConfig"]; exists {
		return nil, err
	}
	return &sagemaker.CreateEndpointConfigOutput{EndpointConfigArn: aws.String(endpointConfigArn)}, nil
}

func (m *mockSageMakerClient) DescribeEndpoint(ctx context.Context, input *sagemaker.DescribeEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error) {
	if err, exists := m.errors["DescribeEndpoint"]; exists {
		return nil, err
	}
	name := aws.ToString(input.EndpointName)
	if !m.existingEndpoints[name] {
		return nil, &smithy.GenericAPIError{Code: "ValidationException", Message: "Could not find endpoint \"" + name + "\"."}
	}
	return &sagemaker.DescribeEndpointOutput{
		EndpointName:   input.EndpointName,
		EndpointArn:    aws.String(endpointArn),
		EndpointStatus: types.EndpointStatusInService,
	}, nil
}

func (m *mockSageMakerClient) CreateEndpoint(ctx context.Context, input *sagemaker.CreateEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error) {
	m.createEndpointInputs = append(m.createEndpointInputs, input)
	if err, exists := m.errors["CreateEndpoint"]; exists {
		return nil, err
	}
	return &sagemaker.CreateEndpointOutput{EndpointArn: aws.String(endpointArn)}, nil
}

func (m *mockSageMakerClient) UpdateEndpoint(ctx context.Context, input *sagemaker.UpdateEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error) {
	m.updateEndpointInputs = append(m.updateEndpointInputs, input)
	if err, exists := m.errors["UpdateEndpoint"]; exists {
		return nil, err
	}
	return &sagemaker.UpdateEndpointOutput{EndpointArn: aws.String(endpointArn)}, nil
}

func (m *mockSageMakerClient) ListTags(ctx context.Context, input *sagemaker.ListTagsInput, opts ...func(*sagemaker.Options)) (*sagemaker.ListTagsOutput, error) {
	m.listTagsInputs = append(m.listTagsInputs, input)
	if err, exists := m.errors["ListTags"]; exists {
		return nil, err
	}

	page := len(m.listTagsInputs) - 1
	if page >= len(m.tagPages) {
		return &sagemaker.ListTagsOutput{}, nil
	}

	out := &sagemaker.ListTagsOutput{Tags: m.tagPages[page]}
	if page < len(m.tagPages)-1 {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func newRegistrar(client *mockSageMakerClient) *Registrar {
	return NewRegistrar(client, "eu-west-2", DefaultServerlessConfig())
}

func TestCreateModel(t *testing.T) {
	client := &mockSageMakerClient{}
	arn, err := newRegistrar(client).CreateModel(context.Background(), ModelRequest{
		Name:             "job-123",
		TrainingJobName:  "job-123",
		ArtifactURI:      "s3://example-bucket/2024-02-23/output/job-123/output/model.tar.gz",
		ExecutionRoleArn: roleArn,
	})
	require.NoError(t, err)
	assert.Equal(t, modelArn, arn)

	require.Len(t, client.modelInputs, 1)
	input := client.modelInputs[0]
	assert.Equal(t, "job-123", aws.ToString(input.ModelName))
	assert.Equal(t, roleArn, aws.ToString(input.ExecutionRoleArn))

	require.Len(t, input.Containers, 1)
	container := input.Containers[0]
	assert.Equal(t, "764974769150.dkr.ecr.eu-west-2.amazonaws.com/sagemaker-xgboost:1.7-1", aws.ToString(container.Image))
	assert.Equal(t, types.ContainerModeSingleModel, container.Mode)
	assert.Equal(t, "s3://example-bucket/2024-02-23/output/job-123/output/model.tar.gz", aws.ToString(container.ModelDataUrl))
	assert.Equal(t, map[string]string{"SAGEMAKER_CONTAINER_LOG_LEVEL": "20"}, container.Environment)

	tags := map[string]string{}
	for _, tag := range input.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	assert.Equal(t, map[string]string{"Project": "MLOps", "Region": "eu-west-2", "TrainingJob": "job-123"}, tags)
}

func TestCreateModelFailures(t *testing.T) {
	t.Run("name collision is surfaced", func(t *testing.T) {
		client := &mockSageMakerClient{errors: map[string]error{
			"CreateModel": &smithy.GenericAPIError{Code: "ValidationException", Message: "Cannot create already existing model"},
		}}

		_, err := newRegistrar(client).CreateModel(context.Background(), ModelRequest{Name: "job-123"})
		assert.ErrorIs(t, err, ErrModelNotCreated)
		assert.ErrorIs(t, err, failures.ErrExternalService)
		assert.Len(t, client.modelInputs, 1, "must not retry")
	})

	t.Run("unsupported region", func(t *testing.T) {
		client := &mockSageMakerClient{}

		_, err := NewRegistrar(client, "mars-north-1", DefaultServerlessConfig()).CreateModel(context.Background(), ModelRequest{Name: "job-123"})
		assert.ErrorIs(t, err, ErrModelImageUnavailable)
		assert.ErrorIs(t, err, failures.ErrConfiguration)
		assert.Empty(t, client.modelInputs)
	})
}

func TestCreateEndpointConfig(t *testing.T) {
	client := &mockSageMakerClient{}
	arn, err := newRegistrar(client).CreateEndpointConfig(context.Background(), EndpointConfigRequest{
		Name:            "job-123-serverless-epc",
		ModelName:       "job-123",
		TrainingJobName: "job-123",
	})
	require.NoError(t, err)
	assert.Equal(t, endpointConfigArn, arn)

	require.Len(t, client.endpointConfigInputs, 1)
	input := client.endpointConfigInputs[0]
	assert.Equal(t, "job-123-serverless-epc", aws.ToString(input.EndpointConfigName))
	assert.Nil(t, input.DataCaptureConfig)

	require.Len(t, input.ProductionVariants, 1)
	variant := input.ProductionVariants[0]
	assert.Equal(t, "mlops", aws.ToString(variant.VariantName))
	assert.Equal(t, "job-123", aws.ToString(variant.ModelName))
	require.NotNil(t, variant.ServerlessConfig)
	assert.Equal(t, int32(4096), aws.ToInt32(variant.ServerlessConfig.MemorySizeInMB))
	assert.Equal(t, int32(1), aws.ToInt32(variant.ServerlessConfig.MaxConcurrency))
	assert.Nil(t, variant.InstanceType)
	assert.Nil(t, variant.InitialInstanceCount)
}

func TestCreateEndpointConfigNeverCapturesData(t *testing.T) {
	configs := []ServerlessConfig{
		DefaultServerlessConfig(),
		{VariantName: "mlops", MemorySizeInMB: 1024, MaxConcurrency: 200},
		{VariantName: "canary", MemorySizeInMB: 6144, MaxConcurrency: 5},
	}

	for _, cfg := range configs {
		client := &mockSageMakerClient{}
		_, err := NewRegistrar(client, "eu-west-2", cfg).CreateEndpointConfig(context.Background(), EndpointConfigRequest{
			Name:      "cfg",
			ModelName: "model",
		})
		require.NoError(t, err)
		require.Len(t, client.endpointConfigInputs, 1)
		assert.Nil(t, client.endpointConfigInputs[0].DataCaptureConfig)
	}
}

func TestCreateEndpointConfigInvalidSizing(t *testing.T) {
	client := &mockSageMakerClient{}
	cfg := ServerlessConfig{VariantName: "mlops", MemorySizeInMB: 3000, MaxConcurrency: 1}

	_, err := NewRegistrar(client, "eu-west-2", cfg).CreateEndpointConfig(context.Background(), EndpointConfigRequest{Name: "cfg", ModelName: "model"})
	assert.ErrorIs(t, err, ErrInvalidServerlessConfig)
	assert.ErrorIs(t, err, failures.ErrConfiguration)
	assert.Empty(t, client.endpointConfigInputs)
}

func TestDeployEndpoint(t *testing.T) {
	req := EndpointRequest{
		Name:               "xgboost-serverless-ep",
		EndpointConfigName: "xgboost-2024-02-23-18-04-06-024-serverless-epc",
		TrainingJobName:    "xgboost-2024-02-23-18-04-06-024",
	}

	t.Run("creates missing endpoint", func(t *testing.T) {
		client := &mockSageMakerClient{}
		result, err := newRegistrar(client).DeployEndpoint(context.Background(), req)
		require.NoError(t, err)

		assert.True(t, result.Created)
		assert.Equal(t, endpointArn, result.Arn)
		require.Len(t, client.createEndpointInputs, 1)
		assert.Empty(t, client.updateEndpointInputs)
		assert.Equal(t, req.Name, aws.ToString(client.createEndpointInputs[0].EndpointName))
		assert.Equal(t, req.EndpointConfigName, aws.ToString(client.createEndpointInputs[0].EndpointConfigName))
	})

	t.Run("updates existing endpoint", func(t *testing.T) {
		client := &mockSageMakerClient{existingEndpoints: map[string]bool{req.Name: true}}
		result, err := newRegistrar(client).DeployEndpoint(context.Background(), req)
		require.NoError(t, err)

		assert.False(t, result.Created)
		assert.Empty(t, client.createEndpointInputs)
		require.Len(t, client.updateEndpointInputs, 1)
		assert.Equal(t, req.EndpointConfigName, aws.ToString(client.updateEndpointInputs[0].EndpointConfigName))
	})

	t.Run("describe failure is surfaced", func(t *testing.T) {
		client := &mockSageMakerClient{errors: map[string]error{
			"DescribeEndpoint": &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"},
		}}
		_, err := newRegistrar(client).DeployEndpoint(context.Background(), req)

		assert.ErrorIs(t, err, ErrEndpointNotDescribed)
		assert.ErrorIs(t, err, failures.ErrExternalService)
		assert.Empty(t, client.createEndpointInputs)
	})

	t.Run("create failure is surfaced", func(t *testing.T) {
		client := &mockSageMakerClient{errors: map[string]error{
			"CreateEndpoint": &smithy.GenericAPIError{Code: "ResourceLimitExceeded", Message: "limit"},
		}}
		_, err := newRegistrar(client).DeployEndpoint(context.Background(), req)

		assert.ErrorIs(t, err, ErrEndpointNotCreated)
	})

	t.Run("update failure is surfaced", func(t *testing.T) {
		client := &mockSageMakerClient{
			existingEndpoints: map[string]bool{req.Name: true},
			errors: map[string]error{
				"UpdateEndpoint": &smithy.GenericAPIError{Code: "ValidationException", Message: "Cannot update in-progress endpoint"},
			},
		}
		_, err := newRegistrar(client).DeployEndpoint(context.Background(), req)

		assert.ErrorIs(t, err, ErrEndpointNotUpdated)
	})
}

func TestTrainingJobArn(t *testing.T) {
	r := newRegistrar(&mockSageMakerClient{})

	got := r.TrainingJobArn("827284457226", "XGBoost-2024-04-22-20-51-18-610")
	assert.Equal(t, "arn:aws:sagemaker:eu-west-2:827284457226:training-job/xgboost-2024-04-22-20-51-18-610", got)
}

func TestTestDataLocation(t *testing.T) {
	testingTag := types.Tag{
		Key:   aws.String("Testing"),
		Value: aws.String("s3://bucket-name/automl/2024-04-22/training/testing/test_21_51_18.csv"),
	}
	otherTag := types.Tag{Key: aws.String("string"), Value: aws.String("string")}

	tests := []struct {
		name      string
		client    *mockSageMakerClient
		wantFound bool
		wantCalls int
		wantErr   error
	}{
		{
			name:      "testing tag present",
			client:    &mockSageMakerClient{tagPages: [][]types.Tag{{otherTag, otherTag, testingTag}}},
			wantFound: true,
			wantCalls: 1,
		},
		{
			name:      "testing tag on second page",
			client:    &mockSageMakerClient{tagPages: [][]types.Tag{{otherTag}, {testingTag}}},
			wantFound: true,
			wantCalls: 2,
		},
		{
			name:      "no testing tag",
			client:    &mockSageMakerClient{tagPages: [][]types.Tag{{otherTag}}},
			wantCalls: 1,
		},
		{
			name: "testing tag without s3 uri",
			client: &mockSageMakerClient{tagPages: [][]types.Tag{{
				{Key: aws.String("Testing"), Value: aws.String("not-a-uri")},
			}}},
			wantCalls: 1,
		},
		{
			name: "training job not found",
			client: &mockSageMakerClient{errors: map[string]error{
				"ListTags": &smithy.GenericAPIError{Code: "ValidationException", Message: "Requested resource not found"},
			}},
			wantCalls: 1,
		},
		{
			name: "malformed arn",
			client: &mockSageMakerClient{errors: map[string]error{
				"ListTags": &smithy.GenericAPIError{Code: "ValidationException", Message: "1 validation error detected: Value at 'resourceArn' failed to satisfy constraint"},
			}},
			wantCalls: 1,
			wantErr:   ErrTagsNotRetrieved,
		},
		{
			name: "service failure",
			client: &mockSageMakerClient{errors: map[string]error{
				"ListTags": &smithy.GenericAPIError{Code: "InternalFailure", Message: "boom"},
			}},
			wantCalls: 1,
			wantErr:   ErrTagsNotRetrieved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, found, err := newRegistrar(tt.client).TestDataLocation(context.Background(), "012345678901", "xgboost-2024-04-22-20-51-18-610")

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.ErrorIs(t, err, failures.ErrExternalService)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantFound, found)
			assert.Len(t, tt.client.listTagsInputs, tt.wantCalls)
			if tt.wantFound {
				assert.Equal(t, "bucket-name", obj.Bucket)
				assert.Equal(t, "automl/2024-04-22/training/testing/test_21_51_18.csv", obj.Key)
			}
			assert.Equal(t,
				"arn:aws:sagemaker:eu-west-2:012345678901:training-job/xgboost-2024-04-22-20-51-18-610",
				aws.ToString(tt.client.listTagsInputs[0].ResourceArn))
		})
	}
}
