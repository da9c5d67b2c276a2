package accounts

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"modeldeploy/internal/failures"
)

var ErrAccountNotRetrieved = errors.New("failed to retrieve caller account")

// STSClientInterface defines the STS operation used to identify the account
type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, input *sts.GetCallerIdentityInput, opts ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func GetAccountID(ctx context.Context, client STSClientInterface) (string, error) {
	result, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", failures.ExternalService(ErrAccountNotRetrieved, "GetCallerIdentity", err)
	}

	account := aws.ToString(result.Account)
	if account == "" {
		return "", failures.ExternalService(ErrAccountNotRetrieved, "GetCallerIdentity", errors.New("empty account"))
	}

	return account, nil
}
