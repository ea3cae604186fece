package status

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/movementinfra/movectl/internal/client"
	"github.com/movementinfra/movectl/internal/services/helm"
	"github.com/movementinfra/movectl/internal/services/kube"
	"github.com/movementinfra/movectl/internal/types"
)

type ReleaseStatus struct {
	Name     string
	Status   string
	Revision int
	Chart    string
}

type PodStatus struct {
	Name  string
	Phase string
	Ready bool
}

type ServiceStatus struct {
	Name         string
	Type         string
	ExternalHost string
}

// StatusSnapshot is one observation of a deployment: lifecycle state from
// the state file plus the live releases, pods and services of its namespace.
type StatusSnapshot struct {
	Deployment types.Deployment
	Releases   []ReleaseStatus
	Pods       []PodStatus
	Services   []ServiceStatus
	ObservedAt time.Time
}

// StatusChecker gathers status snapshots for one deployment.
type StatusChecker struct {
	clusterName    string
	stateFile      string
	kubeConfigPath string
}

func NewStatusChecker(clusterName, stateFile, kubeConfigPath string) *StatusChecker {
	return &StatusChecker{
		clusterName:    clusterName,
		stateFile:      stateFile,
		kubeConfigPath: kubeConfigPath,
	}
}

func (sc *StatusChecker) Fetch(ctx context.Context) (*StatusSnapshot, error) {
	state, err := types.NewStateFromFile(sc.stateFile)
	if err != nil {
		return nil, err
	}
	deployment, err := state.GetDeployment(sc.clusterName)
	if err != nil {
		return nil, err
	}

	snapshot := &StatusSnapshot{
		Deployment: *deployment,
		ObservedAt: time.Now(),
	}

	// A destroyed or not-yet-provisioned deployment has nothing live to show.
	switch deployment.GetCurrentState() {
	case types.StateUninitialized, types.StateDestroyed:
		return snapshot, nil
	}

	helmService, err := helm.NewHelmService(sc.kubeConfigPath, deployment.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the cluster: %w", err)
	}
	releases, err := helmService.List()
	if err != nil {
		return nil, err
	}
	for _, release := range releases {
		snapshot.Releases = append(snapshot.Releases, ReleaseStatus{
			Name:     release.Name,
			Status:   release.Info.Status.String(),
			Revision: release.Version,
			Chart:    release.Chart.Metadata.Name + "-" + release.Chart.Metadata.Version,
		})
	}

	clientset, err := client.NewKubeClient(sc.kubeConfigPath)
	if err != nil {
		return nil, err
	}
	kubeService := kube.NewKubeService(clientset, deployment.Namespace)

	pods, err := kubeService.ListPods(ctx)
	if err != nil {
		return nil, err
	}
	for _, pod := range pods {
		snapshot.Pods = append(snapshot.Pods, PodStatus{
			Name:  pod.Name,
			Phase: string(pod.Status.Phase),
			Ready: isPodReady(&pod),
		})
	}

	services, err := kubeService.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	for _, service := range services {
		snapshot.Services = append(snapshot.Services, ServiceStatus{
			Name:         service.Name,
			Type:         string(service.Spec.Type),
			ExternalHost: externalHost(&service),
		})
	}

	return snapshot, nil
}

func isPodReady(pod *corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

func externalHost(service *corev1.Service) string {
	for _, ingress := range service.Status.LoadBalancer.Ingress {
		if ingress.Hostname != "" {
			return ingress.Hostname
		}
		if ingress.IP != "" {
			return ingress.IP
		}
	}
	return ""
}
