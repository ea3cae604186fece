package client

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"golang.org/x/time/rate"
)

// RateLimitedEKSClient wraps the EKS client with a local rate limiter.
// Readiness polling issues DescribeCluster in a loop for up to half an hour;
// the limiter keeps that loop from ever contributing to API throttling.
type RateLimitedEKSClient struct {
	*eks.Client
	limiter *rate.Limiter
}

func NewEKSClient(region string, requestsPerSecond float64, burstSize int) (*RateLimitedEKSClient, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		// https://docs.aws.amazon.com/sdk-for-go/v2/developer-guide/configure-retries-timeouts.html
		config.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(opts *retry.StandardOptions) {
				opts.MaxAttempts = 3
				opts.MaxBackoff = 20 * time.Second
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to load AWS config: %v", err)
	}

	if region != "" {
		cfg.Region = region
	}

	eksClient := eks.NewFromConfig(cfg)
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)

	return &RateLimitedEKSClient{
		Client:  eksClient,
		limiter: limiter,
	}, nil
}

func (c *RateLimitedEKSClient) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *RateLimitedEKSClient) DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	if err := c.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.DescribeCluster(ctx, params, optFns...)
}
