package deploy

import (
	"fmt"
	"time"

	"github.com/movementinfra/movectl/internal/types"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	clusterName string
	region      string
	clusterDir  string
	chartPath   string

	stateFile      string
	envFile        string
	kubeConfigPath string
	namespace      string

	validatorName   string
	vfnName         string
	fullnodeName    string
	deployVFN       string
	deployFullnode  string
	validatorPublic string

	network string
	chainId int

	identitySecretId  string
	valuesFile        string
	imageTag          string
	nodeInstanceTypes string

	forceCreate   bool
	skipPreflight bool
	validateAfter bool

	clusterTimeout time.Duration
	helmTimeout    time.Duration
)

func NewDeployCmd() *cobra.Command {
	deployCmd := &cobra.Command{
		Use:           "deploy",
		Short:         "Provision the cluster infrastructure and deploy the validator workloads",
		Long:          "Apply the generated Terraform project, wait for the EKS cluster, sync the validator identity, and install the validator, VFN and fullnode helm releases.",
		SilenceErrors: true,
		PreRunE:       preRunDeploy,
		RunE:          runDeploy,
	}

	requiredFlags := pflag.NewFlagSet("required", pflag.ExitOnError)
	requiredFlags.SortFlags = false
	requiredFlags.StringVar(&clusterName, "cluster-name", "", "The name of the EKS cluster to deploy to.")
	requiredFlags.StringVar(&region, "region", "", "The AWS region of the cluster.")
	requiredFlags.StringVar(&chartPath, "chart-path", "", "The path to the node helm chart.")
	deployCmd.Flags().AddFlagSet(requiredFlags)

	topologyFlags := pflag.NewFlagSet("topology", pflag.ExitOnError)
	topologyFlags.SortFlags = false
	topologyFlags.StringVar(&validatorName, "validator-name", "validator", "The release name of the validator.")
	topologyFlags.StringVar(&vfnName, "vfn-name", "vfn", "The release name of the validator fullnode.")
	topologyFlags.StringVar(&fullnodeName, "fullnode-name", "fullnode", "The release name of the public fullnode.")
	topologyFlags.StringVar(&deployVFN, "deploy-vfn", "true", "Deploy a validator fullnode alongside the validator.")
	topologyFlags.StringVar(&deployFullnode, "deploy-fullnode", "true", "Deploy a public fullnode. Requires a VFN.")
	topologyFlags.StringVar(&validatorPublic, "validator-public", "false", "Expose the validator through a public load balancer.")
	deployCmd.Flags().AddFlagSet(topologyFlags)

	optionalFlags := pflag.NewFlagSet("optional", pflag.ExitOnError)
	optionalFlags.SortFlags = false
	optionalFlags.StringVar(&clusterDir, "cluster-dir", "cluster-infra", "The directory holding the generated Terraform project.")
	optionalFlags.StringVar(&stateFile, "state-file", types.DefaultStateFile, "The path to the deployment state file.")
	optionalFlags.StringVar(&envFile, "env-file", "", "A .env file to load flag values from.")
	optionalFlags.StringVar(&kubeConfigPath, "kubeconfig-path", "kubeconfig", "Where to write the cluster kubeconfig.")
	optionalFlags.StringVar(&namespace, "namespace", "movement-l1", "The namespace to deploy the workloads into.")
	optionalFlags.StringVar(&network, "network", "testnet", "The network the nodes join.")
	optionalFlags.IntVar(&chainId, "chain-id", 250, "The chain id of the network.")
	optionalFlags.StringVar(&identitySecretId, "identity-secret-id", "", "The Secrets Manager id of the validator identity. Empty skips the sync.")
	optionalFlags.StringVar(&valuesFile, "values-file", "", "An additional helm values file applied to every release.")
	optionalFlags.StringVar(&imageTag, "image-tag", "", "Override the node image tag.")
	optionalFlags.StringVar(&nodeInstanceTypes, "node-instance-types", "r7a.2xlarge", "Comma-separated node instance types checked by the region preflight. Must match the generated tfvars.")
	optionalFlags.BoolVar(&forceCreate, "force-create", false, "Apply Terraform even when outputs indicate the cluster already exists.")
	optionalFlags.BoolVar(&skipPreflight, "skip-preflight", false, "Skip the region capacity preflight checks.")
	optionalFlags.BoolVar(&validateAfter, "validate", false, "Run the deployment validation after the releases are installed.")
	optionalFlags.DurationVar(&clusterTimeout, "cluster-timeout", 60*time.Minute, "How long to wait for the EKS cluster to become active.")
	optionalFlags.DurationVar(&helmTimeout, "helm-timeout", 60*time.Minute, "Timeout for each helm operation.")
	deployCmd.Flags().AddFlagSet(optionalFlags)

	deployCmd.SetUsageFunc(func(c *cobra.Command) error {
		flagOrder := []*pflag.FlagSet{requiredFlags, topologyFlags, optionalFlags}
		groupNames := []string{"Required Flags", "Topology Flags", "Optional Flags"}

		for i, fs := range flagOrder {
			usage := fs.FlagUsages()
			if usage != "" {
				fmt.Printf("%s:\n%s\n", groupNames[i], usage)
			}
		}

		fmt.Println("All flags can be provided via environment variables (uppercase, with underscores).")

		return nil
	})

	deployCmd.MarkFlagRequired("cluster-name")
	deployCmd.MarkFlagRequired("region")
	deployCmd.MarkFlagRequired("chart-path")

	return deployCmd
}

func preRunDeploy(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := utils.LoadEnvFile(envFile); err != nil {
			return err
		}
	}

	return utils.BindEnvToFlags(cmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	opts, err := parseDeployOpts()
	if err != nil {
		return fmt.Errorf("failed to parse deploy options: %w", err)
	}

	deployer := NewDeployer(*opts)
	if err := deployer.Run(cmd.Context()); err != nil {
		return fmt.Errorf("failed to deploy: %w", err)
	}

	return nil
}

func parseDeployOpts() (*DeployerOpts, error) {
	deployVFNParsed, err := utils.ParseBoolFlag("deploy-vfn", deployVFN)
	if err != nil {
		return nil, err
	}
	deployFullnodeParsed, err := utils.ParseBoolFlag("deploy-fullnode", deployFullnode)
	if err != nil {
		return nil, err
	}
	validatorPublicParsed, err := utils.ParseBoolFlag("validator-public", validatorPublic)
	if err != nil {
		return nil, err
	}

	topology := types.Topology{
		ValidatorName:   validatorName,
		VFNName:         vfnName,
		FullnodeName:    fullnodeName,
		DeployVFN:       deployVFNParsed,
		DeployFullnode:  deployFullnodeParsed,
		ValidatorPublic: validatorPublicParsed,
	}
	if err := topology.Validate(); err != nil {
		return nil, err
	}

	return &DeployerOpts{
		ClusterName:       clusterName,
		Region:            region,
		ClusterDir:        clusterDir,
		ChartPath:         chartPath,
		StateFile:         stateFile,
		KubeConfigPath:    kubeConfigPath,
		Namespace:         namespace,
		Topology:          topology,
		Network:           network,
		ChainId:           chainId,
		IdentitySecretId:  identitySecretId,
		ValuesFile:        valuesFile,
		ImageTag:          imageTag,
		NodeInstanceTypes: utils.SplitAndTrim(nodeInstanceTypes),
		ForceCreate:       forceCreate,
		SkipPreflight:     skipPreflight,
		Validate:          validateAfter,
		ClusterTimeout:    clusterTimeout,
		HelmTimeout:       helmTimeout,
	}, nil
}
