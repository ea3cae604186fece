package helm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/cli/values"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
	"k8s.io/cli-runtime/pkg/genericclioptions"
)

// Release information is stored in Secrets in the release namespace.
const secretStorageDriver = "secret"

// ReleaseValues describes the value sources for a release, merged in the
// usual helm precedence: value files first, then --set, then --set-file.
type ReleaseValues struct {
	ValueFiles []string
	SetValues  []string
	SetFiles   []string
}

// Merge resolves the value sources into a single values map.
func (v ReleaseValues) Merge() (map[string]any, error) {
	opts := values.Options{
		ValueFiles: v.ValueFiles,
		Values:     v.SetValues,
		FileValues: v.SetFiles,
	}
	merged, err := opts.MergeValues(getter.All(cli.New()))
	if err != nil {
		return nil, fmt.Errorf("failed to merge helm values: %w", err)
	}
	return merged, nil
}

// HelmService installs and uninstalls chart releases against one namespace
// of one cluster, using the kubeconfig the EKS service wrote.
type HelmService struct {
	actionConfig *action.Configuration
	namespace    string
	timeout      time.Duration
}

type HelmServiceOption func(*HelmService)

func WithTimeout(timeout time.Duration) HelmServiceOption {
	return func(s *HelmService) {
		s.timeout = timeout
	}
}

func NewHelmService(kubeConfigPath, namespace string, opts ...HelmServiceOption) (*HelmService, error) {
	flags := genericclioptions.NewConfigFlags(false)
	flags.KubeConfig = &kubeConfigPath
	flags.Namespace = &namespace

	actionConfig := new(action.Configuration)
	logFn := func(format string, args ...any) {
		slog.Debug(fmt.Sprintf("helm: "+format, args...))
	}
	if err := actionConfig.Init(flags, namespace, secretStorageDriver, logFn); err != nil {
		return nil, fmt.Errorf("failed to initialize helm configuration: %w", err)
	}

	service := &HelmService{
		actionConfig: actionConfig,
		namespace:    namespace,
		timeout:      60 * time.Minute,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// UpgradeInstall behaves like `helm upgrade --install`: a release that does
// not exist yet is installed, an existing one is upgraded in place.
func (s *HelmService) UpgradeInstall(ctx context.Context, releaseName, chartPath string, vals ReleaseValues) (*release.Release, error) {
	chartToDeploy, err := loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart from %s: %w", chartPath, err)
	}

	merged, err := vals.Merge()
	if err != nil {
		return nil, err
	}

	exists, err := s.releaseExists(releaseName)
	if err != nil {
		return nil, err
	}

	if !exists {
		slog.Info("📦 installing helm release", "release", releaseName, "chart", chartToDeploy.Name(), "namespace", s.namespace)
		return s.install(ctx, releaseName, chartToDeploy, merged)
	}
	slog.Info("📦 upgrading helm release", "release", releaseName, "chart", chartToDeploy.Name(), "namespace", s.namespace)
	return s.upgrade(ctx, releaseName, chartToDeploy, merged)
}

// Uninstall removes a release. A release that was never installed is not an
// error; destroy paths call this for every node in the topology.
func (s *HelmService) Uninstall(releaseName string) error {
	uninstall := action.NewUninstall(s.actionConfig)
	uninstall.Timeout = s.timeout

	if _, err := uninstall.Run(releaseName); err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			slog.Warn("⚠️ helm release not found, skipping uninstall", "release", releaseName)
			return nil
		}
		return fmt.Errorf("failed to uninstall release %s: %w", releaseName, err)
	}
	slog.Info("✅ helm release uninstalled", "release", releaseName)
	return nil
}

// List returns the deployed releases in the service namespace.
func (s *HelmService) List() ([]*release.Release, error) {
	list := action.NewList(s.actionConfig)
	list.All = true
	releases, err := list.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to list helm releases: %w", err)
	}
	return releases, nil
}

func (s *HelmService) releaseExists(releaseName string) (bool, error) {
	history := action.NewHistory(s.actionConfig)
	history.Max = 1
	if _, err := history.Run(releaseName); err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check history of release %s: %w", releaseName, err)
	}
	return true, nil
}

func (s *HelmService) install(ctx context.Context, releaseName string, chartToDeploy *chart.Chart, vals map[string]any) (*release.Release, error) {
	install := action.NewInstall(s.actionConfig)
	install.ReleaseName = releaseName
	install.Namespace = s.namespace
	install.CreateNamespace = true
	install.Wait = true
	install.Timeout = s.timeout

	rel, err := install.RunWithContext(ctx, chartToDeploy, vals)
	if err != nil {
		return nil, fmt.Errorf("failed to install release %s: %w", releaseName, err)
	}
	return rel, nil
}

func (s *HelmService) upgrade(ctx context.Context, releaseName string, chartToDeploy *chart.Chart, vals map[string]any) (*release.Release, error) {
	upgrade := action.NewUpgrade(s.actionConfig)
	upgrade.Namespace = s.namespace
	upgrade.Wait = true
	upgrade.Timeout = s.timeout

	rel, err := upgrade.RunWithContext(ctx, releaseName, chartToDeploy, vals)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade release %s: %w", releaseName, err)
	}
	return rel, nil
}
