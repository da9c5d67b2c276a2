package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdaTypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/google/uuid"
)

type TestClients struct {
	S3        *s3.Client
	Lambda    *lambda.Client
	IAM       *iam.Client
	SSM       *ssm.Client
	SageMaker *sagemaker.Client
	DynamoDB  *dynamodb.Client
	Region    string
}

// TestStack holds the names the deployed stack is expected to use.
type TestStack struct {
	Name            string
	Environment     string
	FunctionName    string
	ArtifactBucket  string
	DeploymentTable string
}

func setupTestClients(t *testing.T) (*TestClients, TestStack) {
	ctx := context.Background()

	stackName := os.Getenv("STACK_NAME")
	if stackName == "" {
		t.Skip("STACK_NAME environment variable must be set")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		t.Fatalf("Unable to load AWS config: %v", err)
	}

	environment := os.Getenv("SERVERLESS_ENVIRONMENT")
	if environment == "" {
		environment = "dev"
	}

	stack := TestStack{
		Name:            stackName,
		Environment:     environment,
		FunctionName:    fmt.Sprintf("%s-model-deployment", stackName),
		ArtifactBucket:  fmt.Sprintf("%s-model-artifacts", stackName),
		DeploymentTable: fmt.Sprintf("%s-model-deployments", stackName),
	}

	return &TestClients{
		S3:        s3.NewFromConfig(awsConfig),
		Lambda:    lambda.NewFromConfig(awsConfig),
		IAM:       iam.NewFromConfig(awsConfig),
		SSM:       ssm.NewFromConfig(awsConfig),
		SageMaker: sagemaker.NewFromConfig(awsConfig),
		DynamoDB:  dynamodb.NewFromConfig(awsConfig),
		Region:    awsConfig.Region,
	}, stack
}

func bucketExists(ctx context.Context, s3Client *s3.Client, bucketName string) bool {
	_, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	return err == nil
}

func iamRoleExists(ctx context.Context, iamClient *iam.Client, roleName string) bool {
	_, err := iamClient.GetRole(ctx, &iam.GetRoleInput{
		RoleName: aws.String(roleName),
	})
	return err == nil
}

func lambdaFunctionExists(ctx context.Context, lambdaClient *lambda.Client, functionName string) bool {
	_, err := lambdaClient.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(functionName),
	})
	return err == nil
}

func lambdaFunctionInvoke(ctx context.Context, lambdaClient *lambda.Client, functionName string, payload []byte) (*lambda.InvokeOutput, error) {
	return lambdaClient.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: lambdaTypes.InvocationTypeRequestResponse,
		Payload:        payload,
	})
}

func parameterValue(ctx context.Context, ssmClient *ssm.Client, name string) (string, error) {
	result, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.Parameter.Value), nil
}

func uploadToS3(ctx context.Context, s3Client *s3.Client, bucketName, key, content string) error {
	_, err := s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
		Body:   strings.NewReader(content),
	})
	return err
}

func deleteFromS3(ctx context.Context, s3Client *s3.Client, bucketName, key string) {
	_, err := s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		fmt.Printf("Warning: failed to delete s3://%s/%s: %v\n", bucketName, key, err)
	}
}

// cleanupSageMakerResources removes the endpoint, config and model created by a test run
func cleanupSageMakerResources(ctx context.Context, client *sagemaker.Client, modelName, endpointConfigName, endpointName string) {
	if _, err := client.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{EndpointName: aws.String(endpointName)}); err != nil {
		fmt.Printf("Warning: failed to delete endpoint %s: %v\n", endpointName, err)
	}
	if _, err := client.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{EndpointConfigName: aws.String(endpointConfigName)}); err != nil {
		fmt.Printf("Warning: failed to delete endpoint config %s: %v\n", endpointConfigName, err)
	}
	if _, err := client.DeleteModel(ctx, &sagemaker.DeleteModelInput{ModelName: aws.String(modelName)}); err != nil {
		fmt.Printf("Warning: failed to delete model %s: %v\n", modelName, err)
	}
}

// generateUniqueJobName mimics the names generated by a SageMaker estimator
func generateUniqueJobName(baseName string) string {
	uid := uuid.New().String()[:8]
	return fmt.Sprintf("%s-%s-%s", baseName, uid, time.Now().UTC().Format("2006-01-02-15-04-05-000"))
}

func s3CreatedEvent(region, bucket, key string) []byte {
	return []byte(fmt.Sprintf(`{
		"Records": [
			{
				"eventVersion": "2.1",
				"eventSource": "aws:s3",
				"awsRegion": "%s",
				"eventTime": "%s",
				"eventName": "ObjectCreated:Put",
				"s3": {
					"s3SchemaVersion": "1.0",
					"bucket": {"name": "%s", "arn": "arn:aws:s3:::%s"},
					"object": {"key": "%s", "size": 1024}
				}
			}
		]
	}`, region, time.Now().UTC().Format(time.RFC3339), bucket, bucket, key))
}

type WaitConfig struct {
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxTimeout   time.Duration
}

func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		InitialDelay: time.Second,
		PollInterval: 2 * time.Second,
		MaxTimeout:   60 * time.Second,
	}
}

// WaitForCondition polls condition until it holds or the timeout expires
func WaitForCondition(t *testing.T, description string, condition func() bool, cfg WaitConfig) bool {
	time.Sleep(cfg.InitialDelay)

	deadline := time.Now().Add(cfg.MaxTimeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(cfg.PollInterval)
	}

	t.Logf("Timed out after %v waiting for %s", cfg.MaxTimeout, description)
	return false
}
