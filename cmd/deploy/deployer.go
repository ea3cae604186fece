package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/movementinfra/movectl/cmd/validate"
	"github.com/movementinfra/movectl/internal/client"
	"github.com/movementinfra/movectl/internal/services/bootstrap"
	"github.com/movementinfra/movectl/internal/services/ec2"
	"github.com/movementinfra/movectl/internal/services/eks"
	"github.com/movementinfra/movectl/internal/services/helm"
	"github.com/movementinfra/movectl/internal/services/identity"
	"github.com/movementinfra/movectl/internal/services/kube"
	"github.com/movementinfra/movectl/internal/services/terraform"
	"github.com/movementinfra/movectl/internal/types"
)

// Storage parameters for the node data volumes.
const (
	storageClass      = "gp3"
	storageIOPS       = 6000
	storageThroughput = 500
)

type DeployerOpts struct {
	ClusterName       string
	Region            string
	ClusterDir        string
	ChartPath         string
	StateFile         string
	KubeConfigPath    string
	Namespace         string
	Topology          types.Topology
	Network           string
	ChainId           int
	IdentitySecretId  string
	ValuesFile        string
	ImageTag          string
	NodeInstanceTypes []string
	ForceCreate       bool
	SkipPreflight     bool
	Validate          bool
	ClusterTimeout    time.Duration
	HelmTimeout       time.Duration
}

type Deployer struct {
	opts DeployerOpts
}

func NewDeployer(opts DeployerOpts) *Deployer {
	return &Deployer{opts: opts}
}

func (d *Deployer) Run(ctx context.Context) error {
	slog.Info("🏁 deploying validator infrastructure", "cluster", d.opts.ClusterName, "region", d.opts.Region)
	d.logTopologyPlan()

	state, err := types.NewStateFromFile(d.opts.StateFile)
	if err != nil {
		return err
	}
	deployment, err := state.GetDeployment(d.opts.ClusterName)
	if err != nil {
		deployment = types.NewDeployment(d.opts.ClusterName, d.opts.Region, d.opts.Namespace, d.opts.Topology)
	} else {
		deployment.Topology = d.opts.Topology
		deployment.Namespace = d.opts.Namespace
	}

	terraformService, err := terraform.NewTerraformService(d.opts.ClusterDir)
	if err != nil {
		return err
	}

	outputs, err := d.provisionInfra(ctx, terraformService, state, deployment)
	if err != nil {
		return err
	}

	if err := d.waitForCluster(ctx); err != nil {
		return err
	}

	kubeService, err := d.newKubeService()
	if err != nil {
		return err
	}
	if err := kubeService.EnsureNamespace(ctx); err != nil {
		return err
	}

	if err := d.syncIdentity(ctx, kubeService); err != nil {
		return err
	}

	if err := d.verifyBootstrap(ctx, outputs); err != nil {
		return err
	}

	if err := d.installReleases(ctx, outputs); err != nil {
		return err
	}

	if err := deployment.Transition(ctx, types.EventDeployWorkloads); err != nil {
		return err
	}
	state.UpsertDeployment(deployment)
	if err := state.WriteToFile(d.opts.StateFile); err != nil {
		return err
	}

	if d.opts.Validate {
		if err := d.runValidation(ctx, state, deployment, outputs); err != nil {
			return err
		}
	}

	d.logDeploymentInfo(outputs)
	return nil
}

func (d *Deployer) logTopologyPlan() {
	desired, minSize, maxSize := d.opts.Topology.NodeGroupSizing()
	slog.Info("📖 topology plan", "nodes", d.opts.Topology.NodeCount(), "desired", desired, "min", minSize, "max", maxSize)
	for _, node := range d.opts.Topology.Nodes() {
		slog.Info("  → node", "type", node.Type, "name", node.Name, "service_type", node.ServiceType)
	}
}

// provisionInfra applies the Terraform project unless outputs show the
// cluster already exists. --force-create reapplies regardless.
func (d *Deployer) provisionInfra(ctx context.Context, terraformService *terraform.TerraformService, state *types.State, deployment *types.Deployment) (types.TerraformOutputs, error) {
	outputs, err := terraformService.Outputs(ctx)
	if err != nil {
		return nil, err
	}

	if len(outputs) > 0 && !d.opts.ForceCreate {
		slog.Info("📖 terraform outputs found, skipping provisioning", "cluster", outputs.String("cluster_name", d.opts.ClusterName))
		switch deployment.GetCurrentState() {
		case types.StateUninitialized, types.StateDestroyed:
			// State file lags behind reality, catch it up.
			if err := deployment.Transition(ctx, types.EventProvisionInfra); err != nil {
				return nil, err
			}
			deployment.Outputs = outputs
			state.UpsertDeployment(deployment)
			if err := state.WriteToFile(d.opts.StateFile); err != nil {
				return nil, err
			}
		}
		return outputs, nil
	}

	if !d.opts.SkipPreflight {
		if err := d.runPreflight(ctx); err != nil {
			return nil, err
		}
	}

	if err := terraformService.Init(ctx, true); err != nil {
		return nil, err
	}
	if err := terraformService.Validate(ctx); err != nil {
		return nil, err
	}

	desired, minSize, maxSize := d.opts.Topology.NodeGroupSizing()
	varArgs, err := terraform.BuildVarArgs(map[string]any{
		"node_desired_size": desired,
		"node_min_size":     minSize,
		"node_max_size":     maxSize,
	})
	if err != nil {
		return nil, err
	}
	if err := terraformService.Apply(ctx, varArgs); err != nil {
		return nil, err
	}

	outputs, err = terraformService.Outputs(ctx)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("terraform apply completed but no outputs found")
	}

	if err := deployment.Transition(ctx, types.EventProvisionInfra); err != nil {
		return nil, err
	}
	deployment.Outputs = outputs
	state.UpsertDeployment(deployment)
	if err := state.WriteToFile(d.opts.StateFile); err != nil {
		return nil, err
	}

	return outputs, nil
}

func (d *Deployer) runPreflight(ctx context.Context) error {
	slog.Info("🔍 running region preflight checks", "region", d.opts.Region, "instance_types", d.opts.NodeInstanceTypes)
	ec2Client, err := client.NewEC2Client(d.opts.Region)
	if err != nil {
		return err
	}
	return ec2.NewEC2Service(ec2Client).Preflight(ctx, d.opts.NodeInstanceTypes, 2)
}

func (d *Deployer) waitForCluster(ctx context.Context) error {
	eksClient, err := client.NewEKSClient(d.opts.Region, 5, 10)
	if err != nil {
		return err
	}
	eksService := eks.NewEKSService(eksClient)

	if err := eksService.WaitUntilActive(ctx, d.opts.ClusterName, d.opts.ClusterTimeout); err != nil {
		return err
	}
	return eksService.WriteKubeconfig(ctx, d.opts.ClusterName, d.opts.Region, d.opts.KubeConfigPath)
}

func (d *Deployer) newKubeService() (*kube.KubeService, error) {
	clientset, err := client.NewKubeClient(d.opts.KubeConfigPath)
	if err != nil {
		return nil, err
	}
	return kube.NewKubeService(clientset, d.opts.Namespace), nil
}

func (d *Deployer) syncIdentity(ctx context.Context, kubeService *kube.KubeService) error {
	if d.opts.IdentitySecretId == "" {
		slog.Info("⚠️ no identity secret id provided, skipping identity sync")
		return nil
	}

	secretsClient, err := client.NewSecretsManagerClient(d.opts.Region)
	if err != nil {
		return err
	}
	_, err = identity.NewIdentityService(secretsClient, kubeService).
		Sync(ctx, d.opts.IdentitySecretId, identitySecretName(d.opts.Topology.ValidatorName))
	return err
}

func (d *Deployer) verifyBootstrap(ctx context.Context, outputs types.TerraformOutputs) error {
	if !outputs.Bool("fullnode_bootstrap_enabled") {
		return nil
	}

	bootstrapRegion := outputs.String("fullnode_bootstrap_s3_region", d.opts.Region)
	s3Client, err := client.NewS3Client(bootstrapRegion)
	if err != nil {
		return err
	}
	_, err = bootstrap.NewBootstrapService(s3Client).Verify(ctx, outputs.String("fullnode_bootstrap_s3_uri", ""))
	return err
}

func (d *Deployer) installReleases(ctx context.Context, outputs types.TerraformOutputs) error {
	helmService, err := helm.NewHelmService(d.opts.KubeConfigPath, d.opts.Namespace, helm.WithTimeout(d.opts.HelmTimeout))
	if err != nil {
		return err
	}

	for _, node := range d.opts.Topology.Nodes() {
		values := d.buildNodeValues(node, outputs)
		if _, err := helmService.UpgradeInstall(ctx, node.Name, d.opts.ChartPath, values); err != nil {
			return err
		}
	}
	return nil
}

// buildNodeValues assembles the helm values for one node release: role,
// chain parameters, storage tuning, service exposure and, for a
// bootstrapped fullnode, the snapshot source and IRSA annotation.
func (d *Deployer) buildNodeValues(node types.Node, outputs types.TerraformOutputs) helm.ReleaseValues {
	setValues := []string{
		fmt.Sprintf("node.role=%s", node.Type),
		fmt.Sprintf("node.name=%s", node.Name),
		fmt.Sprintf("chain.name=%s", d.opts.Network),
		fmt.Sprintf("chain.chainId=%d", d.opts.ChainId),
		fmt.Sprintf("storage.class=%s", storageClass),
		fmt.Sprintf("storage.iops=%d", storageIOPS),
		fmt.Sprintf("storage.throughput=%d", storageThroughput),
		fmt.Sprintf("service.type=%s", node.ServiceType),
	}

	if node.ServiceType == "LoadBalancer" {
		setValues = append(setValues,
			`service.annotations.service\.beta\.kubernetes\.io/aws-load-balancer-type=external`,
			`service.annotations.service\.beta\.kubernetes\.io/aws-load-balancer-nlb-target-type=ip`,
			`service.annotations.service\.beta\.kubernetes\.io/aws-load-balancer-scheme=internet-facing`,
		)
	}

	switch node.Type {
	case types.NodeTypeValidator:
		if d.opts.IdentitySecretId != "" {
			setValues = append(setValues, fmt.Sprintf("identity.secretName=%s", identitySecretName(node.Name)))
		}
	case types.NodeTypeVFN:
		// A VFN peers privately with its validator's service.
		setValues = append(setValues, fmt.Sprintf("node.upstream=%s", d.opts.Topology.ValidatorName))
	case types.NodeTypeFullnode:
		setValues = append(setValues, fmt.Sprintf("node.upstream=%s", d.opts.Topology.VFNName))
	}

	if node.Type == types.NodeTypeFullnode && outputs.Bool("fullnode_bootstrap_enabled") {
		setValues = append(setValues,
			"bootstrap.enabled=true",
			fmt.Sprintf("bootstrap.s3Uri=%s", outputs.String("fullnode_bootstrap_s3_uri", "")),
			fmt.Sprintf("bootstrap.region=%s", outputs.String("fullnode_bootstrap_s3_region", d.opts.Region)),
			"serviceAccount.create=true",
			fmt.Sprintf("serviceAccount.name=%s", outputs.String("fullnode_service_account_name", "fullnode")),
			fmt.Sprintf(`serviceAccount.annotations.eks\.amazonaws\.com/role-arn=%s`, outputs.String("fullnode_s3_role_arn", "")),
		)
	}

	if d.opts.ImageTag != "" {
		setValues = append(setValues, fmt.Sprintf("image.tag=%s", d.opts.ImageTag))
	}

	values := helm.ReleaseValues{SetValues: setValues}
	if d.opts.ValuesFile != "" {
		values.ValueFiles = []string{d.opts.ValuesFile}
	}
	return values
}

func (d *Deployer) runValidation(ctx context.Context, state *types.State, deployment *types.Deployment, outputs types.TerraformOutputs) error {
	validator := validate.NewValidator(d.validationOpts(outputs))
	if err := validator.Run(ctx); err != nil {
		return err
	}

	if err := deployment.Transition(ctx, types.EventValidationPassed); err != nil {
		return err
	}
	state.UpsertDeployment(deployment)
	return state.WriteToFile(d.opts.StateFile)
}

// validationOpts derives the validation scope from the terraform outputs:
// a bootstrapped fullnode also gets its IRSA trust policy checked.
func (d *Deployer) validationOpts(outputs types.TerraformOutputs) validate.ValidatorOpts {
	return validate.ValidatorOpts{
		ClusterName:    d.opts.ClusterName,
		Region:         d.opts.Region,
		KubeConfigPath: d.opts.KubeConfigPath,
		Namespace:      d.opts.Namespace,
		Topology:       d.opts.Topology,
		Outputs:        outputs,
		CheckIRSA:      outputs.Bool("fullnode_bootstrap_enabled"),
	}
}

func (d *Deployer) logDeploymentInfo(outputs types.TerraformOutputs) {
	slog.Info("✅ deployment complete", "cluster", d.opts.ClusterName, "region", d.opts.Region)
	slog.Info("📖 deployment info",
		"namespace", d.opts.Namespace,
		"kubeconfig", d.opts.KubeConfigPath,
		"vpc_id", outputs.String("vpc_id", "unknown"),
	)
	if node, ok := d.opts.Topology.PublicEndpointNode(); ok {
		slog.Info("📖 public endpoint", "node", node.Name, "service_type", node.ServiceType)
	}
}

func identitySecretName(validatorName string) string {
	return validatorName + "-identity"
}
