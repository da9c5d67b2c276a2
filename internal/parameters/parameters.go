package parameters

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMClientInterface defines the Parameter Store operations used by the deployment
type SSMClientInterface interface {
	GetParameter(ctx context.Context, input *ssm.GetParameterInput, opts ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Names are the fixed parameter names for one region and environment.
type Names struct {
	RoleArn          string
	QueueName        string
	EvaluationBucket string
}

func NewNames(region, environment string) Names {
	prefix := fmt.Sprintf("mlops-%s-%s", region, environment)
	return Names{
		RoleArn:          prefix + "-sagemaker-role-arn",
		QueueName:        prefix + "-model-evaluation-queue",
		EvaluationBucket: prefix + "-model-evaluation-bucket",
	}
}

// Config is the configuration read from Parameter Store on every invocation.
type Config struct {
	RoleArn          string
	QueueName        string
	EvaluationBucket string
}

type Store struct {
	client SSMClientInterface
	names  Names
}

func NewStore(client SSMClientInterface, names Names) *Store {
	return &Store{client: client, names: names}
}

// Get reads a single, possibly encrypted, parameter by name.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	log.Printf("Retrieving %s from parameter store", name)

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrorParameterNotFound(name)
		}
		return "", ErrorParameterNotRetrieved(name, err)
	}

	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return "", ErrorParameterEmpty(name)
	}

	return aws.ToString(result.Parameter.Value), nil
}

// Resolve reads every required parameter, the role ARN first.
func (s *Store) Resolve(ctx context.Context) (Config, error) {
	var cfg Config
	var err error

	if cfg.RoleArn, err = s.Get(ctx, s.names.RoleArn); err != nil {
		return Config{}, err
	}
	if cfg.QueueName, err = s.Get(ctx, s.names.QueueName); err != nil {
		return Config{}, err
	}
	if cfg.EvaluationBucket, err = s.Get(ctx, s.names.EvaluationBucket); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
