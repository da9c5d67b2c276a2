package db

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DeploymentTableId represents a string type identifier for deployment table field names
type DeploymentTableId string

const (
	DeploymentTableModelNameId DeploymentTableId = "ModelName"
)

// DynamoDBClientInterface defines the DynamoDB operations used by the deployment ledger
type DynamoDBClientInterface interface {
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DeploymentRecord is written once per successful deployment.
type DeploymentRecord struct {
	ModelName           string    `dynamodbav:"ModelName"`
	TrainingJobName     string    `dynamodbav:"TrainingJobName"`
	ArtifactURI         string    `dynamodbav:"ArtifactURI"`
	EndpointConfigName  string    `dynamodbav:"EndpointConfigName"`
	EndpointName        string    `dynamodbav:"EndpointName"`
	EndpointArn         string    `dynamodbav:"EndpointArn"`
	EndpointCreated     bool      `dynamodbav:"EndpointCreated"`
	TestDataURI         string    `dynamodbav:"TestDataURI"`
	EvaluationMessageId string    `dynamodbav:"EvaluationMessageId"`
	DeployedAt          time.Time `dynamodbav:"DeployedAt"`
}

func PutDeploymentRecord(
	ctx context.Context,
	client DynamoDBClientInterface,
	table string,
	record DeploymentRecord,
) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return ErrorMarshallingDeployment(err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return ErrorDeploymentRecordNotWritten(table, err)
	}
	return nil
}

func GetDeploymentRecord(
	ctx context.Context,
	client DynamoDBClientInterface,
	table string,
	modelName string,
) (DeploymentRecord, error) {
	result, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			string(DeploymentTableModelNameId): &types.AttributeValueMemberS{Value: modelName},
		},
	})
	if err != nil {
		return DeploymentRecord{}, ErrorDeploymentRecordNotRead(table, err)
	}

	if result.Item == nil {
		return DeploymentRecord{}, ErrorDeploymentRecordNotFound(modelName)
	}

	record := DeploymentRecord{}
	err = attributevalue.UnmarshalMap(result.Item, &record)
	if err != nil {
		return DeploymentRecord{}, ErrorUnmarshallingDeployment(err)
	}

	return record, nil
}
