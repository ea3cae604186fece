package ec2

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEC2 struct {
	zones     []string
	offerings []string
}

func (m *mockEC2) DescribeAvailabilityZones(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error) {
	out := &awsec2.DescribeAvailabilityZonesOutput{}
	for _, zone := range m.zones {
		out.AvailabilityZones = append(out.AvailabilityZones, ec2types.AvailabilityZone{ZoneName: aws.String(zone)})
	}
	return out, nil
}

func (m *mockEC2) DescribeInstanceTypeOfferings(ctx context.Context, params *awsec2.DescribeInstanceTypeOfferingsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstanceTypeOfferingsOutput, error) {
	out := &awsec2.DescribeInstanceTypeOfferingsOutput{}
	for _, offering := range m.offerings {
		out.InstanceTypeOfferings = append(out.InstanceTypeOfferings, ec2types.InstanceTypeOffering{
			InstanceType: ec2types.InstanceType(offering),
		})
	}
	return out, nil
}

func TestAvailabilityZones(t *testing.T) {
	svc := NewEC2Service(&mockEC2{zones: []string{"us-west-2a", "us-west-2b", "us-west-2c"}})
	zones, err := svc.AvailabilityZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-west-2a", "us-west-2b", "us-west-2c"}, zones)
}

func TestCheckInstanceTypeOffered(t *testing.T) {
	t.Run("all offered", func(t *testing.T) {
		svc := NewEC2Service(&mockEC2{offerings: []string{"r7a.2xlarge"}})
		err := svc.CheckInstanceTypeOffered(context.Background(), []string{"r7a.2xlarge"})
		assert.NoError(t, err)
	})

	t.Run("missing offering", func(t *testing.T) {
		svc := NewEC2Service(&mockEC2{offerings: []string{"m5.large"}})
		err := svc.CheckInstanceTypeOffered(context.Background(), []string{"r7a.2xlarge"})
		assert.ErrorContains(t, err, "not offered in this region")
	})

	t.Run("no instance types is a no-op", func(t *testing.T) {
		svc := NewEC2Service(&mockEC2{})
		assert.NoError(t, svc.CheckInstanceTypeOffered(context.Background(), nil))
	})
}

func TestPreflight(t *testing.T) {
	t.Run("passes with zones and offerings", func(t *testing.T) {
		svc := NewEC2Service(&mockEC2{
			zones:     []string{"us-west-2a", "us-west-2b", "us-west-2c"},
			offerings: []string{"r7a.2xlarge"},
		})
		assert.NoError(t, svc.Preflight(context.Background(), []string{"r7a.2xlarge"}, 2))
	})

	t.Run("fails with too few zones", func(t *testing.T) {
		svc := NewEC2Service(&mockEC2{zones: []string{"us-west-2a"}})
		err := svc.Preflight(context.Background(), []string{"r7a.2xlarge"}, 2)
		assert.ErrorContains(t, err, "need at least 2")
	})
}
