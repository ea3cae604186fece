package destroy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/movementinfra/movectl/internal/services/helm"
	"github.com/movementinfra/movectl/internal/services/terraform"
	"github.com/movementinfra/movectl/internal/types"
)

type DestroyerOpts struct {
	ClusterName    string
	Region         string
	ClusterDir     string
	StateFile      string
	KubeConfigPath string
	HelmTimeout    time.Duration
	SkipWorkloads  bool
}

type Destroyer struct {
	opts DestroyerOpts
}

func NewDestroyer(opts DestroyerOpts) *Destroyer {
	return &Destroyer{opts: opts}
}

func (d *Destroyer) Run(ctx context.Context) error {
	slog.Info("🏁 destroying deployment", "cluster", d.opts.ClusterName, "region", d.opts.Region)

	state, err := types.NewStateFromFile(d.opts.StateFile)
	if err != nil {
		return err
	}
	deployment, err := state.GetDeployment(d.opts.ClusterName)
	if err != nil {
		return err
	}

	if !d.opts.SkipWorkloads {
		// A broken or already-deleted cluster must not block the terraform
		// destroy, so uninstall failures only warn.
		if err := d.uninstallReleases(deployment); err != nil {
			slog.Warn("⚠️ failed to uninstall workloads, continuing with infrastructure teardown", "error", err)
		}
	}

	terraformService, err := terraform.NewTerraformService(d.opts.ClusterDir)
	if err != nil {
		return err
	}
	if err := terraformService.Init(ctx, false); err != nil {
		return err
	}
	if err := terraformService.Destroy(ctx, nil); err != nil {
		return err
	}

	if err := deployment.Transition(ctx, types.EventDestroy); err != nil {
		return err
	}
	deployment.Outputs = nil
	state.UpsertDeployment(deployment)
	if err := state.WriteToFile(d.opts.StateFile); err != nil {
		return err
	}

	slog.Info("✅ deployment destroyed", "cluster", d.opts.ClusterName)
	return nil
}

// uninstallReleases removes the helm releases in reverse deployment order:
// the public fullnode first, the validator last.
func (d *Destroyer) uninstallReleases(deployment *types.Deployment) error {
	helmService, err := helm.NewHelmService(d.opts.KubeConfigPath, deployment.Namespace, helm.WithTimeout(d.opts.HelmTimeout))
	if err != nil {
		return fmt.Errorf("failed to reach the cluster: %w", err)
	}

	for _, node := range deployment.Topology.NodesReversed() {
		if err := helmService.Uninstall(node.Name); err != nil {
			return err
		}
	}
	return nil
}
