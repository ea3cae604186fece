package eks

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// EKSDescriber is the slice of the EKS API this service needs. The
// rate-limited client in internal/client satisfies it.
type EKSDescriber interface {
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

type EKSService struct {
	client       EKSDescriber
	pollInterval time.Duration
}

type EKSServiceOption func(*EKSService)

func WithPollInterval(interval time.Duration) EKSServiceOption {
	return func(s *EKSService) {
		s.pollInterval = interval
	}
}

func NewEKSService(client EKSDescriber, opts ...EKSServiceOption) *EKSService {
	service := &EKSService{
		client:       client,
		pollInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ClusterExists reports whether the named cluster is known to EKS.
func (s *EKSService) ClusterExists(ctx context.Context, clusterName string) (bool, error) {
	_, err := s.client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: &clusterName})
	if err != nil {
		var notFound *ekstypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe cluster %s: %w", clusterName, err)
	}
	return true, nil
}

func (s *EKSService) ClusterStatus(ctx context.Context, clusterName string) (ekstypes.ClusterStatus, error) {
	out, err := s.client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: &clusterName})
	if err != nil {
		return "", fmt.Errorf("failed to describe cluster %s: %w", clusterName, err)
	}
	return out.Cluster.Status, nil
}

// WaitUntilActive polls the cluster until it reaches ACTIVE. FAILED and
// DELETING are terminal; anything else keeps polling until the context or
// timeout expires.
func (s *EKSService) WaitUntilActive(ctx context.Context, clusterName string, timeout time.Duration) error {
	slog.Info("⏳ waiting for EKS cluster to become active", "cluster", clusterName, "timeout", timeout)

	deadline := time.Now().Add(timeout)
	for {
		status, err := s.ClusterStatus(ctx, clusterName)
		if err != nil {
			return err
		}

		switch status {
		case ekstypes.ClusterStatusActive:
			slog.Info("✅ EKS cluster is active", "cluster", clusterName)
			return nil
		case ekstypes.ClusterStatusFailed, ekstypes.ClusterStatusDeleting:
			return fmt.Errorf("cluster %s entered terminal status %s", clusterName, status)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for cluster %s to become active, last status %s", clusterName, status)
		}

		slog.Info("⏳ cluster not ready yet", "cluster", clusterName, "status", status)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// WriteKubeconfig renders a kubeconfig for the cluster using the aws CLI
// exec credential plugin, the same shape `aws eks update-kubeconfig`
// produces.
func (s *EKSService) WriteKubeconfig(ctx context.Context, clusterName, region, path string) error {
	out, err := s.client.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: &clusterName})
	if err != nil {
		return fmt.Errorf("failed to describe cluster %s: %w", clusterName, err)
	}
	cluster := out.Cluster
	if cluster.Endpoint == nil || cluster.CertificateAuthority == nil || cluster.CertificateAuthority.Data == nil {
		return fmt.Errorf("cluster %s has no endpoint or certificate authority yet", clusterName)
	}

	caData, err := base64.StdEncoding.DecodeString(*cluster.CertificateAuthority.Data)
	if err != nil {
		return fmt.Errorf("failed to decode cluster certificate authority: %w", err)
	}

	contextName := fmt.Sprintf("%s/%s", region, clusterName)
	kubeconfig := clientcmdapi.NewConfig()
	kubeconfig.Clusters[contextName] = &clientcmdapi.Cluster{
		Server:                   *cluster.Endpoint,
		CertificateAuthorityData: caData,
	}
	kubeconfig.AuthInfos[contextName] = &clientcmdapi.AuthInfo{
		Exec: &clientcmdapi.ExecConfig{
			APIVersion: "client.authentication.k8s.io/v1beta1",
			Command:    "aws",
			Args: []string{
				"eks", "get-token",
				"--cluster-name", clusterName,
				"--region", region,
				"--output", "json",
			},
			InteractiveMode: clientcmdapi.IfAvailableExecInteractiveMode,
		},
	}
	kubeconfig.Contexts[contextName] = &clientcmdapi.Context{
		Cluster:  contextName,
		AuthInfo: contextName,
	}
	kubeconfig.CurrentContext = contextName

	if err := clientcmd.WriteToFile(*kubeconfig, path); err != nil {
		return fmt.Errorf("failed to write kubeconfig to %s: %w", path, err)
	}
	slog.Info("✅ kubeconfig written", "path", path, "context", contextName)
	return nil
}
