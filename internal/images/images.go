package images

import (
	"errors"
	"fmt"
)

const (
	Framework = "sagemaker-xgboost"
	Version   = "1.7-1"
)

var ErrUnsupportedRegion = errors.New("no inference image registered for region")

// ECR registry accounts hosting the SageMaker XGBoost algorithm container.
var registryAccounts = map[string]string{
	"ap-northeast-1": "354813040037",
	"ap-south-1":     "720646828776",
	"ap-southeast-1": "121021644041",
	"ap-southeast-2": "783357654285",
	"ca-central-1":   "341280168497",
	"eu-central-1":   "492215442770",
	"eu-north-1":     "662702820516",
	"eu-west-1":      "141502667606",
	"eu-west-2":      "764974769150",
	"eu-west-3":      "659782779980",
	"us-east-1":      "683313688378",
	"us-east-2":      "257758044811",
	"us-west-1":      "746614075791",
	"us-west-2":      "246618743249",
}

// URI returns the inference container image for region.
func URI(region string) (string, error) {
	account, ok := registryAccounts[region]
	if !ok {
		return "", fmt.Errorf("%w: region=%s", ErrUnsupportedRegion, region)
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s:%s", account, region, Framework, Version), nil
}
