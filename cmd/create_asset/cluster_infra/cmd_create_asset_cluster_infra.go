package cluster_infra

import (
	"fmt"
	"strings"

	"github.com/movementinfra/movectl/internal/types"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	clusterName       string
	region            string
	kubernetesVersion string
	outputDir         string

	vpcCidr            string
	publicSubnetCidrs  string
	privateSubnetCidrs string

	nodeInstanceTypes string
	nodeCount         int

	namespace   string
	releaseName string

	enableDNS   bool
	dnsZoneName string

	bootstrapS3Bucket string
	bootstrapS3Prefix string
	bootstrapS3Region string

	tags string
)

func NewClusterInfraCmd() *cobra.Command {
	clusterInfraCmd := &cobra.Command{
		Use:           "cluster-infra",
		Short:         "Generate the Terraform project for the cluster infrastructure",
		Long:          "Generate a runnable Terraform project that provisions the VPC, subnets, EKS cluster, node group and IRSA roles for a validator deployment.",
		SilenceErrors: true,
		PreRunE:       preRunClusterInfra,
		RunE:          runClusterInfra,
	}

	requiredFlags := pflag.NewFlagSet("required", pflag.ExitOnError)
	requiredFlags.SortFlags = false
	requiredFlags.StringVar(&clusterName, "cluster-name", "", "The name of the EKS cluster to provision.")
	requiredFlags.StringVar(&region, "region", "", "The AWS region to provision into.")
	clusterInfraCmd.Flags().AddFlagSet(requiredFlags)

	optionalFlags := pflag.NewFlagSet("optional", pflag.ExitOnError)
	optionalFlags.SortFlags = false
	optionalFlags.StringVar(&kubernetesVersion, "kubernetes-version", "1.32", "The EKS control plane version.")
	optionalFlags.StringVar(&outputDir, "output-dir", "", "The directory to write the Terraform project to (defaults to cluster-infra).")
	optionalFlags.StringVar(&vpcCidr, "vpc-cidr", "10.0.0.0/16", "The CIDR block of the cluster VPC.")
	optionalFlags.StringVar(&publicSubnetCidrs, "public-subnet-cidrs", "10.0.1.0/24,10.0.2.0/24,10.0.3.0/24", "Comma separated public subnet CIDRs, one per availability zone.")
	optionalFlags.StringVar(&privateSubnetCidrs, "private-subnet-cidrs", "10.0.101.0/24,10.0.102.0/24,10.0.103.0/24", "Comma separated private subnet CIDRs, one per availability zone.")
	optionalFlags.StringVar(&nodeInstanceTypes, "node-instance-types", "r7a.2xlarge", "Comma separated instance types for the worker node group.")
	optionalFlags.IntVar(&nodeCount, "node-count", 3, "The number of worker nodes (min and desired; max is node-count+2).")
	optionalFlags.StringVar(&namespace, "namespace", "movement-l1", "The namespace the workloads will run in.")
	optionalFlags.StringVar(&releaseName, "release-name", "fullnode", "The helm release name of the public fullnode.")
	optionalFlags.BoolVar(&enableDNS, "enable-dns", false, "Create a Route53 hosted zone for public endpoints.")
	optionalFlags.StringVar(&dnsZoneName, "dns-zone-name", "", "The hosted zone name, required with --enable-dns.")
	optionalFlags.StringVar(&bootstrapS3Bucket, "bootstrap-s3-bucket", "", "The snapshot bucket for fullnode bootstrap. Empty disables bootstrap.")
	optionalFlags.StringVar(&bootstrapS3Prefix, "bootstrap-s3-prefix", "", "The key prefix of the bootstrap snapshots.")
	optionalFlags.StringVar(&bootstrapS3Region, "bootstrap-s3-region", "", "The region of the bootstrap bucket (defaults to --region).")
	optionalFlags.StringVar(&tags, "tags", "", "Comma separated key=value tags applied to every resource.")
	clusterInfraCmd.Flags().AddFlagSet(optionalFlags)

	clusterInfraCmd.SetUsageFunc(func(c *cobra.Command) error {
		flagOrder := []*pflag.FlagSet{requiredFlags, optionalFlags}
		groupNames := []string{"Required Flags", "Optional Flags"}

		for i, fs := range flagOrder {
			usage := fs.FlagUsages()
			if usage != "" {
				fmt.Printf("%s:\n%s\n", groupNames[i], usage)
			}
		}

		fmt.Println("All flags can be provided via environment variables (uppercase, with underscores).")

		return nil
	})

	clusterInfraCmd.MarkFlagRequired("cluster-name")
	clusterInfraCmd.MarkFlagRequired("region")

	return clusterInfraCmd
}

func preRunClusterInfra(cmd *cobra.Command, args []string) error {
	if err := utils.BindEnvToFlags(cmd); err != nil {
		return err
	}

	if enableDNS && dnsZoneName == "" {
		return fmt.Errorf("--dns-zone-name is required with --enable-dns")
	}

	return nil
}

func runClusterInfra(cmd *cobra.Command, args []string) error {
	opts, err := parseClusterInfraOpts()
	if err != nil {
		return fmt.Errorf("failed to parse cluster infra options: %w", err)
	}

	generator := NewClusterInfraAssetGenerator(*opts)
	if err := generator.Run(); err != nil {
		return fmt.Errorf("failed to run cluster infra generator: %w", err)
	}

	return nil
}

func parseClusterInfraOpts() (*ClusterInfraOpts, error) {
	bootstrapRegion := bootstrapS3Region
	if bootstrapRegion == "" {
		bootstrapRegion = region
	}

	parsedTags, err := parseTags(tags)
	if err != nil {
		return nil, err
	}

	request := types.ClusterInfraRequest{
		ClusterName:        clusterName,
		Region:             region,
		KubernetesVersion:  kubernetesVersion,
		VpcCidr:            vpcCidr,
		PublicSubnetCidrs:  utils.SplitAndTrim(publicSubnetCidrs),
		PrivateSubnetCidrs: utils.SplitAndTrim(privateSubnetCidrs),
		NodeInstanceTypes:  utils.SplitAndTrim(nodeInstanceTypes),
		NodeDesiredSize:    nodeCount,
		NodeMinSize:        nodeCount,
		NodeMaxSize:        nodeCount + 2,
		Namespace:          namespace,
		ReleaseName:        releaseName,
		EnableDNS:          enableDNS,
		DNSZoneName:        dnsZoneName,
		BootstrapS3Bucket:  bootstrapS3Bucket,
		BootstrapS3Prefix:  bootstrapS3Prefix,
		BootstrapS3Region:  bootstrapRegion,
		Tags:               parsedTags,
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	return &ClusterInfraOpts{
		Request:   request,
		OutputDir: outputDir,
	}, nil
}

func parseTags(raw string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, pair := range utils.SplitAndTrim(raw) {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid tag %q, expected key=value", pair)
		}
		parsed[key] = value
	}
	return parsed, nil
}
