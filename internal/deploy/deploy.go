package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"text/template"
	"time"
	"unicode"

	"modeldeploy/internal/accounts"
	"modeldeploy/internal/db"
	"modeldeploy/internal/events"
	"modeldeploy/internal/failures"
	"modeldeploy/internal/files"
	"modeldeploy/internal/locations"
	"modeldeploy/internal/metrics"
	"modeldeploy/internal/models"
	"modeldeploy/internal/notifications"
	"modeldeploy/internal/parameters"
	"modeldeploy/internal/queues"
)

const maxSubjectLength = 99

var failureTemplate = template.Must(template.New("deployment-failure").Parse(notifications.DeploymentFailureTemplate))

// Clients are the AWS APIs a deployment talks to. DynamoDB, SNS and
// CloudWatch are optional and only used when the matching setting is set.
type Clients struct {
	S3         files.S3ClientInterface
	SSM        parameters.SSMClientInterface
	SageMaker  models.SageMakerClientInterface
	SQS        queues.SQSClientInterface
	STS        accounts.STSClientInterface
	DynamoDB   db.DynamoDBClientInterface
	SNS        notifications.SNSClientInterface
	CloudWatch metrics.CloudWatchClientInterface
}

type Settings struct {
	Region           string
	Environment      string
	Serverless       models.ServerlessConfig
	DeploymentTable  string
	FailureTopicArn  string
	MetricsNamespace string
}

// Result summarises what a successful invocation created.
type Result struct {
	ModelName           string `json:"modelName"`
	ModelArn            string `json:"modelArn"`
	EndpointConfigName  string `json:"endpointConfigName"`
	EndpointConfigArn   string `json:"endpointConfigArn"`
	EndpointName        string `json:"endpointName"`
	EndpointArn         string `json:"endpointArn"`
	EndpointCreated     bool   `json:"endpointCreated"`
	TestDataURI         string `json:"testDataUri"`
	EvaluationMessageId string `json:"evaluationMessageId"`
}

type Deployer struct {
	clients   Clients
	settings  Settings
	params    *parameters.Store
	artifacts *files.ArtifactChecker
	registrar *models.Registrar
	queue     *queues.EvaluationQueue
	metrics   *metrics.Publisher
	now       func() time.Time
}

func NewDeployer(clients Clients, settings Settings) (*Deployer, error) {
	if settings.Region == "" || settings.Environment == "" {
		return nil, failures.Configuration(ErrMissingSetting, "region=%q environment=%q", settings.Region, settings.Environment)
	}
	if err := settings.Serverless.Validate(); err != nil {
		return nil, err
	}
	if settings.DeploymentTable != "" && clients.DynamoDB == nil {
		return nil, failures.Configuration(ErrMissingClient, "dynamodb client required for table %s", settings.DeploymentTable)
	}
	if settings.FailureTopicArn != "" && clients.SNS == nil {
		return nil, failures.Configuration(ErrMissingClient, "sns client required for topic %s", settings.FailureTopicArn)
	}
	if settings.MetricsNamespace != "" && clients.CloudWatch == nil {
		return nil, failures.Configuration(ErrMissingClient, "cloudwatch client required for namespace %s", settings.MetricsNamespace)
	}

	d := &Deployer{
		clients:   clients,
		settings:  settings,
		params:    parameters.NewStore(clients.SSM, parameters.NewNames(settings.Region, settings.Environment)),
		artifacts: files.NewArtifactChecker(clients.S3),
		registrar: models.NewRegistrar(clients.SageMaker, settings.Region, settings.Serverless),
		queue:     queues.NewEvaluationQueue(clients.SQS),
		now:       time.Now,
	}

	if settings.MetricsNamespace != "" {
		d.metrics = metrics.NewPublisher(clients.CloudWatch, settings.MetricsNamespace, settings.Environment)
	}

	return d, nil
}

// Deploy runs the whole pipeline for one S3 notification. Any failure aborts
// the invocation; resources created by earlier stages are left in place.
func (d *Deployer) Deploy(ctx context.Context, event json.RawMessage) (Result, error) {
	started := d.now()

	obj, err := events.ParseS3Event(event)
	if err != nil {
		d.reportFailure(ctx, files.S3Object{}, "", err)
		return Result{}, err
	}
	log.Printf("Received event for bucket name: %s, object key: %s", obj.Bucket, obj.Key)

	result, err := d.deploy(ctx, obj)
	if err != nil {
		d.reportFailure(ctx, obj, result.ModelName, err)
		return Result{}, err
	}

	if d.metrics != nil {
		if err := d.metrics.Succeeded(ctx, result.EndpointName, d.now().Sub(started)); err != nil {
			log.Printf("Failed to publish deployment metrics: %v", err)
		}
	}

	return result, nil
}

func (d *Deployer) deploy(ctx context.Context, obj files.S3Object) (Result, error) {
	loc, err := locations.Resolve(obj)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		ModelName:          loc.ModelName,
		EndpointConfigName: loc.EndpointConfigName,
		EndpointName:       loc.EndpointName,
	}
	log.Printf("Resolved training job: %s, model: %s, endpoint: %s", loc.TrainingJobName, loc.ModelName, loc.EndpointName)

	cfg, err := d.params.Resolve(ctx)
	if err != nil {
		return result, err
	}

	if _, err := d.artifacts.Verify(ctx, loc.Artifact); err != nil {
		return result, err
	}

	testData, err := d.testDataLocation(ctx, loc, cfg.EvaluationBucket)
	if err != nil {
		return result, err
	}
	result.TestDataURI = testData.URI()

	result.ModelArn, err = d.registrar.CreateModel(ctx, models.ModelRequest{
		Name:             loc.ModelName,
		TrainingJobName:  loc.TrainingJobName,
		ArtifactURI:      loc.ArtifactURI(),
		ExecutionRoleArn: cfg.RoleArn,
	})
	if err != nil {
		return result, err
	}
	log.Printf("Created Model Arn: %s", result.ModelArn)

	result.EndpointConfigArn, err = d.registrar.CreateEndpointConfig(ctx, models.EndpointConfigRequest{
		Name:            loc.EndpointConfigName,
		ModelName:       loc.ModelName,
		TrainingJobName: loc.TrainingJobName,
	})
	if err != nil {
		return result, err
	}
	log.Printf("Created endpoint config Arn: %s", result.EndpointConfigArn)

	endpoint, err := d.registrar.DeployEndpoint(ctx, models.EndpointRequest{
		Name:               loc.EndpointName,
		EndpointConfigName: loc.EndpointConfigName,
		TrainingJobName:    loc.TrainingJobName,
	})
	if err != nil {
		return result, err
	}
	result.EndpointArn = endpoint.Arn
	result.EndpointCreated = endpoint.Created
	log.Printf("Deployed serverless endpoint Arn: %s (created=%t)", endpoint.Arn, endpoint.Created)

	result.EvaluationMessageId, err = d.queue.Send(ctx, cfg.QueueName, queues.EvaluationMessage{
		ModelName:            loc.ModelName,
		EndpointName:         loc.EndpointName,
		TestDataS3BucketName: testData.Bucket,
		TestDataS3Key:        testData.Key,
	})
	if err != nil {
		return result, err
	}
	log.Printf("Message sent to model-evaluation for prediction(s)")

	if d.settings.DeploymentTable != "" {
		err = db.PutDeploymentRecord(ctx, d.clients.DynamoDB, d.settings.DeploymentTable, db.DeploymentRecord{
			ModelName:           loc.ModelName,
			TrainingJobName:     loc.TrainingJobName,
			ArtifactURI:         loc.ArtifactURI(),
			EndpointConfigName:  loc.EndpointConfigName,
			EndpointName:        loc.EndpointName,
			EndpointArn:         endpoint.Arn,
			EndpointCreated:     endpoint.Created,
			TestDataURI:         result.TestDataURI,
			EvaluationMessageId: result.EvaluationMessageId,
			DeployedAt:          d.now().UTC(),
		})
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// testDataLocation prefers the Testing tag of the training job and falls back
// to the location derived from the artifact key.
func (d *Deployer) testDataLocation(ctx context.Context, loc locations.Locations, evaluationBucket string) (files.S3Object, error) {
	accountID, err := accounts.GetAccountID(ctx, d.clients.STS)
	if err != nil {
		return files.S3Object{}, err
	}

	tagged, found, err := d.registrar.TestDataLocation(ctx, accountID, loc.TrainingJobName)
	if err != nil {
		return files.S3Object{}, err
	}
	if found {
		return tagged, nil
	}

	return loc.TestData(evaluationBucket), nil
}

func (d *Deployer) reportFailure(ctx context.Context, obj files.S3Object, modelName string, cause error) {
	category := failures.Category(cause)
	log.Printf("Deployment failed (%s): %v", category, cause)

	if d.metrics != nil {
		if err := d.metrics.Failed(ctx, category); err != nil {
			log.Printf("Failed to publish failure metric: %v", err)
		}
	}

	if d.settings.FailureTopicArn == "" {
		return
	}

	subject := modelName
	if subject == "" {
		subject = obj.Key
	}
	artifact := ""
	if obj.Bucket != "" {
		artifact = obj.URI()
	}

	notification := notifications.DeploymentFailureNotification{
		Environment:  d.settings.Environment,
		Artifact:     artifact,
		ModelName:    modelName,
		Category:     category,
		Date:         d.now().UTC().String(),
		ErrorMessage: cause.Error(),
		Title:        notificationSubject(fmt.Sprintf("Model Deployment Failure: %s", subject)),
		Template:     failureTemplate,
		Topic:        d.settings.FailureTopicArn,
	}

	if err := notifications.SendNotification(ctx, d.clients.SNS, notification); err != nil {
		log.Printf("Failed to send failure notification: %v", err)
	}
}

// SNS subjects must be valid UTF-8 without control characters and shorter
// than 100 characters.
func notificationSubject(s string) string {
	s = strings.ToValidUTF8(s, "?")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	runes := []rune(s)
	if len(runes) > maxSubjectLength {
		runes = runes[:maxSubjectLength]
	}
	return string(runes)
}
