package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	MetricDeploymentSucceeded = "DeploymentSucceeded"
	MetricDeploymentFailed    = "DeploymentFailed"
	MetricDeploymentDuration  = "DeploymentDuration"
)

// CloudWatchClientInterface defines the CloudWatch operation used to publish metrics
type CloudWatchClientInterface interface {
	PutMetricData(ctx context.Context, input *cloudwatch.PutMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher records deployment outcomes under one namespace and environment.
type Publisher struct {
	client      CloudWatchClientInterface
	namespace   string
	environment string
	now         func() time.Time
}

func NewPublisher(client CloudWatchClientInterface, namespace, environment string) *Publisher {
	return &Publisher{
		client:      client,
		namespace:   namespace,
		environment: environment,
		now:         time.Now,
	}
}

func (p *Publisher) dimensions(extra ...cwTypes.Dimension) []cwTypes.Dimension {
	return append([]cwTypes.Dimension{
		{Name: aws.String("Environment"), Value: aws.String(p.environment)},
	}, extra...)
}

// Succeeded publishes a success count and the pipeline duration for an endpoint.
func (p *Publisher) Succeeded(ctx context.Context, endpointName string, elapsed time.Duration) error {
	ts := p.now()
	endpoint := cwTypes.Dimension{Name: aws.String("EndpointName"), Value: aws.String(endpointName)}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwTypes.MetricDatum{
			{
				MetricName: aws.String(MetricDeploymentSucceeded),
				Dimensions: p.dimensions(endpoint),
				Unit:       cwTypes.StandardUnitCount,
				Value:      aws.Float64(1),
				Timestamp:  aws.Time(ts),
			},
			{
				MetricName: aws.String(MetricDeploymentDuration),
				Dimensions: p.dimensions(endpoint),
				Unit:       cwTypes.StandardUnitMilliseconds,
				Value:      aws.Float64(float64(elapsed.Milliseconds())),
				Timestamp:  aws.Time(ts),
			},
		},
	})
	return err
}

// Failed publishes a failure count labelled with the error category.
func (p *Publisher) Failed(ctx context.Context, category string) error {
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwTypes.MetricDatum{
			{
				MetricName: aws.String(MetricDeploymentFailed),
				Dimensions: p.dimensions(cwTypes.Dimension{Name: aws.String("Category"), Value: aws.String(category)}),
				Unit:       cwTypes.StandardUnitCount,
				Value:      aws.Float64(1),
				Timestamp:  aws.Time(p.now()),
			},
		},
	})
	return err
}
