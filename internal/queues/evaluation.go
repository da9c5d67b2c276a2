package queues

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSClientInterface defines the SQS operations required to request an evaluation
type SQSClientInterface interface {
	GetQueueUrl(ctx context.Context, input *sqs.GetQueueUrlInput, opts ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, input *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// EvaluationMessage asks the evaluation function to run the test data against a deployed endpoint
type EvaluationMessage struct {
	ModelName            string `json:"modelName"`
	EndpointName         string `json:"endpointName"`
	TestDataS3BucketName string `json:"testDataS3BucketName"`
	TestDataS3Key        string `json:"testDataS3Key"`
}

type EvaluationQueue struct {
	client SQSClientInterface
}

func NewEvaluationQueue(client SQSClientInterface) *EvaluationQueue {
	return &EvaluationQueue{client: client}
}

// Send publishes one message to the named queue and returns its message ID.
func (q *EvaluationQueue) Send(ctx context.Context, queueName string, msg EvaluationMessage) (string, error) {
	urlResp, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})
	if err != nil {
		return "", ErrorQueueURLNotFound(queueName, err)
	}
	queueURL := aws.ToString(urlResp.QueueUrl)

	body, err := json.Marshal(msg)
	if err != nil {
		return "", ErrorMarshallingMessage(err)
	}

	result, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"ModelName": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.ModelName),
			},
		},
	})
	if err != nil {
		return "", ErrorMessageNotSent(queueURL, err)
	}

	messageID := aws.ToString(result.MessageId)
	log.Printf("Evaluation message sent successfully: %s", messageID)
	return messageID, nil
}
