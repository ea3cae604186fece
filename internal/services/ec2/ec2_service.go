package ec2

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2API is the slice of the EC2 API the preflight checks need.
type EC2API interface {
	DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)
	DescribeInstanceTypeOfferings(ctx context.Context, params *ec2.DescribeInstanceTypeOfferingsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypeOfferingsOutput, error)
}

// EC2Service answers region capacity questions before terraform runs, so a
// region without enough zones or the requested instance type fails in
// seconds instead of mid-apply.
type EC2Service struct {
	client EC2API
}

func NewEC2Service(client EC2API) *EC2Service {
	return &EC2Service{client: client}
}

// AvailabilityZones returns the names of the available zones in the region.
func (s *EC2Service) AvailabilityZones(ctx context.Context) ([]string, error) {
	out, err := s.client.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{
			{Name: strPtr("state"), Values: []string{"available"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe availability zones: %w", err)
	}

	zones := make([]string, 0, len(out.AvailabilityZones))
	for _, zone := range out.AvailabilityZones {
		if zone.ZoneName != nil {
			zones = append(zones, *zone.ZoneName)
		}
	}
	return zones, nil
}

// CheckInstanceTypeOffered verifies every requested instance type is offered
// somewhere in the region.
func (s *EC2Service) CheckInstanceTypeOffered(ctx context.Context, instanceTypes []string) error {
	if len(instanceTypes) == 0 {
		return nil
	}

	out, err := s.client.DescribeInstanceTypeOfferings(ctx, &ec2.DescribeInstanceTypeOfferingsInput{
		LocationType: ec2types.LocationTypeRegion,
		Filters: []ec2types.Filter{
			{Name: strPtr("instance-type"), Values: instanceTypes},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to describe instance type offerings: %w", err)
	}

	offered := map[string]bool{}
	for _, offering := range out.InstanceTypeOfferings {
		offered[string(offering.InstanceType)] = true
	}

	for _, instanceType := range instanceTypes {
		if !offered[instanceType] {
			return fmt.Errorf("instance type %s is not offered in this region", instanceType)
		}
	}
	slog.Info("✅ instance types are offered in the region", "instance_types", instanceTypes)
	return nil
}

// Preflight checks the region can host the cluster: at least minZones
// availability zones and all instance types offered.
func (s *EC2Service) Preflight(ctx context.Context, instanceTypes []string, minZones int) error {
	zones, err := s.AvailabilityZones(ctx)
	if err != nil {
		return err
	}
	if len(zones) < minZones {
		return fmt.Errorf("region has %d availability zones, need at least %d", len(zones), minZones)
	}
	slog.Info("✅ region has enough availability zones", "zones", zones)

	return s.CheckInstanceTypeOffered(ctx, instanceTypes)
}

func strPtr(s string) *string {
	return &s
}
