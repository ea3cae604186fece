package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/movementinfra/movectl/internal/client"
	"github.com/movementinfra/movectl/internal/services/iam"
	"github.com/movementinfra/movectl/internal/services/kube"
	"github.com/movementinfra/movectl/internal/types"
)

// Port and path of the node REST API behind the public load balancer.
const apiPort = 8080

type ValidatorOpts struct {
	ClusterName    string
	Region         string
	KubeConfigPath string
	Namespace      string
	Topology       types.Topology

	// Terraform outputs of the deployment, used for the optional IRSA check.
	Outputs types.TerraformOutputs

	PodTimeout time.Duration
	LBTimeout  time.Duration
	APITimeout time.Duration

	CheckIRSA bool
}

// Validator checks a finished deployment end to end: every node's pods
// ready, the public endpoint reachable, and the node API serving ledger
// state.
type Validator struct {
	opts ValidatorOpts
}

func NewValidator(opts ValidatorOpts) *Validator {
	if opts.PodTimeout == 0 {
		opts.PodTimeout = 60 * time.Minute
	}
	if opts.LBTimeout == 0 {
		opts.LBTimeout = 10 * time.Minute
	}
	if opts.APITimeout == 0 {
		opts.APITimeout = 5 * time.Minute
	}
	return &Validator{opts: opts}
}

func (v *Validator) Run(ctx context.Context) error {
	slog.Info("🏁 validating deployment", "cluster", v.opts.ClusterName, "namespace", v.opts.Namespace)

	clientset, err := client.NewKubeClient(v.opts.KubeConfigPath)
	if err != nil {
		return err
	}
	kubeService := kube.NewKubeService(clientset, v.opts.Namespace)

	if err := v.waitForNodes(ctx, kubeService); err != nil {
		return err
	}

	if err := v.checkPublicEndpoint(ctx, kubeService); err != nil {
		return err
	}

	if v.opts.CheckIRSA {
		if err := v.checkIRSATrust(ctx); err != nil {
			return err
		}
	}

	slog.Info("✅ deployment validated", "cluster", v.opts.ClusterName)
	return nil
}

// waitForNodes waits for every node's pods in parallel. A single Failed pod
// fails the whole validation.
func (v *Validator) waitForNodes(ctx context.Context, kubeService *kube.KubeService) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, node := range v.opts.Topology.Nodes() {
		group.Go(func() error {
			if err := kubeService.WaitForPodReady(groupCtx, node.Name, v.opts.PodTimeout); err != nil {
				return fmt.Errorf("node %s is not ready: %w", node.Name, err)
			}
			return nil
		})
	}
	return group.Wait()
}

// checkPublicEndpoint resolves the public load balancer of the outermost
// node and probes its REST API until it reports a ledger version.
func (v *Validator) checkPublicEndpoint(ctx context.Context, kubeService *kube.KubeService) error {
	node, ok := v.opts.Topology.PublicEndpointNode()
	if !ok {
		slog.Info("📖 topology has no public endpoint, skipping API check")
		return nil
	}

	host, err := kubeService.WaitForLoadBalancerHost(ctx, node.Name, v.opts.LBTimeout)
	if err != nil {
		return err
	}

	apiURL := fmt.Sprintf("http://%s:%d/v1", host, apiPort)
	ledgerVersion, err := kubeService.WaitForAPIHealth(ctx, apiURL, v.opts.APITimeout)
	if err != nil {
		return err
	}

	slog.Info("✅ public API is serving", "node", node.Name, "url", apiURL, "ledger_version", ledgerVersion)
	return nil
}

// checkIRSATrust verifies the fullnode snapshot role still trusts the
// cluster OIDC provider.
func (v *Validator) checkIRSATrust(ctx context.Context) error {
	roleArn := v.opts.Outputs.String("fullnode_s3_role_arn", "")
	issuer := v.opts.Outputs.String("cluster_oidc_issuer", "")
	if roleArn == "" || issuer == "" {
		slog.Warn("⚠️ missing terraform outputs for the IRSA check, skipping")
		return nil
	}

	roleName, err := iam.RoleNameFromARN(roleArn)
	if err != nil {
		return err
	}

	iamClient, err := client.NewIAMClient(v.opts.Region)
	if err != nil {
		return err
	}
	issuerHost := strings.TrimPrefix(issuer, "https://")
	return iam.NewIAMService(iamClient).VerifyIRSATrust(ctx, roleName, issuerHost)
}
