package notifications

import (
	"bytes"
	"context"
	"log"
	"text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const DeploymentFailureTemplate = `Model deployment failed for:

Environment: {{.Environment}}
Time: {{.Date}}

Artifact: {{.Artifact}}
Model: {{.ModelName}}
Category: {{.Category}}
Error: {{.ErrorMessage}}
`

// SNSClientInterface defines the SNS operation used to publish notifications
type SNSClientInterface interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotification represents an abstraction for a notification to be published via AWS SNS.
type SNSNotification interface {
	Message() (string, error)
	Subject() string
	TopicArn() string
}

type DeploymentFailureNotification struct {
	Environment  string
	Artifact     string
	ModelName    string
	Category     string
	Date         string
	ErrorMessage string
	Title        string
	Template     *template.Template
	Topic        string
}

func (n DeploymentFailureNotification) Message() (string, error) {
	var buf bytes.Buffer
	if err := n.Template.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n DeploymentFailureNotification) Subject() string {
	return n.Title
}

func (n DeploymentFailureNotification) TopicArn() string {
	return n.Topic
}

func SendNotification(ctx context.Context, client SNSClientInterface, notification SNSNotification) error {
	message, err := notification.Message()
	if err != nil {
		return err
	}

	result, err := client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(notification.TopicArn()),
		Subject:  aws.String(notification.Subject()),
		Message:  aws.String(message),
	})
	if err != nil {
		return err
	}

	log.Printf("Notification sent successfully: %s", aws.ToString(result.MessageId))
	return nil
}
