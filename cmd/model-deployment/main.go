package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"modeldeploy/internal/deploy"
	"modeldeploy/internal/models"
)

var deployer *deploy.Deployer

func init() {
	awsConfig, err := config.LoadDefaultConfig(context.Background(),
		config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.NewStandard(), 5)
		}),
	)
	if err != nil {
		log.Fatalf("Unable to load AWS config: %v", err)
	}

	serverless, err := models.ServerlessConfigFromEnv(
		os.Getenv("SERVERLESS_MEMORY_SIZE_MB"),
		os.Getenv("SERVERLESS_MAX_CONCURRENCY"),
	)
	if err != nil {
		log.Fatalf("Invalid serverless configuration: %v", err)
	}

	settings := deploy.Settings{
		Region:           awsConfig.Region,
		Environment:      os.Getenv("SERVERLESS_ENVIRONMENT"),
		Serverless:       serverless,
		DeploymentTable:  os.Getenv("DYNAMODB_DEPLOYMENT_TABLE"),
		FailureTopicArn:  os.Getenv("SNS_TOPIC_ARN"),
		MetricsNamespace: os.Getenv("CLOUDWATCH_NAMESPACE"),
	}

	deployer, err = deploy.NewDeployer(deploy.Clients{
		S3:         s3.NewFromConfig(awsConfig),
		SSM:        ssm.NewFromConfig(awsConfig),
		SageMaker:  sagemaker.NewFromConfig(awsConfig),
		SQS:        sqs.NewFromConfig(awsConfig),
		STS:        sts.NewFromConfig(awsConfig),
		DynamoDB:   dynamodb.NewFromConfig(awsConfig),
		SNS:        sns.NewFromConfig(awsConfig),
		CloudWatch: cloudwatch.NewFromConfig(awsConfig),
	}, settings)
	if err != nil {
		log.Fatalf("Unable to configure deployment: %v", err)
	}
}

func handler(ctx context.Context, event json.RawMessage) (deploy.Result, error) {
	result, err := deployer.Deploy(ctx, event)
	if err != nil {
		return deploy.Result{}, err
	}

	log.Printf("Deployed model %s to endpoint %s", result.ModelName, result.EndpointName)
	return result, nil
}

func main() {
	lambda.Start(handler)
}
