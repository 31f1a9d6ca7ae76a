package deploy

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/google/uuid"
	"github.com/mwantia/webproducer/data/errors"
	"github.com/mwantia/webproducer/log"
)

// Invalidator drops cached copies of the given root-relative paths.
type Invalidator interface {
	Invalidate(ctx context.Context, paths []string) error
}

type cloudFrontClient interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// CloudFrontInvalidator creates one invalidation batch per deploy.
type CloudFrontInvalidator struct {
	logger *log.Logger
	client cloudFrontClient

	distributionID string
}

// NewCloudFrontInvalidator uses the default AWS credential chain.
func NewCloudFrontInvalidator(ctx context.Context, distributionID, region string, logger *log.Logger) (*CloudFrontInvalidator, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Config(err, "loading aws configuration failed")
	}

	return newCloudFrontInvalidator(cloudfront.NewFromConfig(cfg), distributionID, logger), nil
}

func newCloudFrontInvalidator(client cloudFrontClient, distributionID string, logger *log.Logger) *CloudFrontInvalidator {
	if logger == nil {
		logger = log.NewDiscard()
	}

	return &CloudFrontInvalidator{
		logger:         logger.Named("cloudfront"),
		client:         client,
		distributionID: distributionID,
	}
}

func (ci *CloudFrontInvalidator) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		ci.logger.Debug("Nothing to invalidate")
		return nil
	}

	output, err := ci.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(ci.distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String("wp-" + uuid.NewString()),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return errors.StorageIO(err, "cloudfront")
	}

	id := ""
	if output != nil && output.Invalidation != nil {
		id = aws.ToString(output.Invalidation.Id)
	}
	ci.logger.Info("Invalidated %d paths on distribution '%s' (%s)", len(paths), ci.distributionID, id)

	return nil
}
