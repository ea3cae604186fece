package kube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// KubeService wraps the typed Kubernetes client with the handful of
// operations deploy and validate need.
type KubeService struct {
	clientset    kubernetes.Interface
	namespace    string
	pollInterval time.Duration
	httpClient   *http.Client
}

type KubeServiceOption func(*KubeService)

func WithPollInterval(interval time.Duration) KubeServiceOption {
	return func(s *KubeService) {
		s.pollInterval = interval
	}
}

func WithHTTPClient(client *http.Client) KubeServiceOption {
	return func(s *KubeService) {
		s.httpClient = client
	}
}

func NewKubeService(clientset kubernetes.Interface, namespace string, opts ...KubeServiceOption) *KubeService {
	service := &KubeService{
		clientset:    clientset,
		namespace:    namespace,
		pollInterval: 10 * time.Second,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *KubeService) Namespace() string {
	return s.namespace
}

// EnsureNamespace creates the target namespace if it does not exist.
func (s *KubeService) EnsureNamespace(ctx context.Context) error {
	_, err := s.clientset.CoreV1().Namespaces().Get(ctx, s.namespace, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to get namespace %s: %w", s.namespace, err)
	}

	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: s.namespace},
	}
	if _, err := s.clientset.CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed to create namespace %s: %w", s.namespace, err)
	}
	slog.Info("✅ namespace created", "namespace", s.namespace)
	return nil
}

// EnsureOpaqueSecret creates an Opaque secret if absent. An existing secret
// is left untouched so rotations stay a manual, deliberate act.
func (s *KubeService) EnsureOpaqueSecret(ctx context.Context, name string, data map[string][]byte) (bool, error) {
	_, err := s.clientset.CoreV1().Secrets(s.namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		slog.Info("📖 secret already exists, leaving it untouched", "secret", name, "namespace", s.namespace)
		return false, nil
	}
	if !apierrors.IsNotFound(err) {
		return false, fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: s.namespace,
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}
	if _, err := s.clientset.CoreV1().Secrets(s.namespace).Create(ctx, secret, metav1.CreateOptions{}); err != nil {
		return false, fmt.Errorf("failed to create secret %s: %w", name, err)
	}
	slog.Info("✅ secret created", "secret", name, "namespace", s.namespace)
	return true, nil
}

// WaitForPodReady waits until every pod labelled app=<appLabel> reports
// Ready. A pod in the Failed phase aborts the wait immediately.
func (s *KubeService) WaitForPodReady(ctx context.Context, appLabel string, timeout time.Duration) error {
	slog.Info("⏳ waiting for pods to become ready", "app", appLabel, "namespace", s.namespace, "timeout", timeout)

	deadline := time.Now().Add(timeout)
	selector := fmt.Sprintf("app=%s", appLabel)
	for {
		pods, err := s.clientset.CoreV1().Pods(s.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return fmt.Errorf("failed to list pods for %s: %w", selector, err)
		}

		if len(pods.Items) > 0 {
			allReady := true
			for _, pod := range pods.Items {
				if pod.Status.Phase == corev1.PodFailed {
					return fmt.Errorf("pod %s entered Failed phase", pod.Name)
				}
				if !isPodReady(&pod) {
					allReady = false
				}
			}
			if allReady {
				slog.Info("✅ pods are ready", "app", appLabel, "count", len(pods.Items))
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for pods %s in namespace %s", selector, s.namespace)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// WaitForLoadBalancerHost waits for a Service of type LoadBalancer to be
// assigned an external hostname or IP and returns it.
func (s *KubeService) WaitForLoadBalancerHost(ctx context.Context, serviceName string, timeout time.Duration) (string, error) {
	slog.Info("⏳ waiting for load balancer address", "service", serviceName, "namespace", s.namespace, "timeout", timeout)

	deadline := time.Now().Add(timeout)
	for {
		service, err := s.clientset.CoreV1().Services(s.namespace).Get(ctx, serviceName, metav1.GetOptions{})
		if err != nil {
			return "", fmt.Errorf("failed to get service %s: %w", serviceName, err)
		}

		for _, ingress := range service.Status.LoadBalancer.Ingress {
			if ingress.Hostname != "" {
				slog.Info("✅ load balancer hostname assigned", "service", serviceName, "host", ingress.Hostname)
				return ingress.Hostname, nil
			}
			if ingress.IP != "" {
				slog.Info("✅ load balancer IP assigned", "service", serviceName, "host", ingress.IP)
				return ingress.IP, nil
			}
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("timed out waiting for load balancer address on service %s", serviceName)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// WaitForAPIHealth polls the node REST API until it returns a numeric
// ledger version, proving the node is synced enough to serve reads.
func (s *KubeService) WaitForAPIHealth(ctx context.Context, baseURL string, timeout time.Duration) (string, error) {
	slog.Info("⏳ waiting for node API to serve ledger state", "url", baseURL, "timeout", timeout)

	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		version, err := s.fetchLedgerVersion(ctx, baseURL)
		if err == nil {
			slog.Info("✅ node API is healthy", "url", baseURL, "ledger_version", version)
			return version, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return "", fmt.Errorf("timed out waiting for node API at %s: %w", baseURL, lastErr)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *KubeService) fetchLedgerVersion(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("node API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// The node API reports ledger_version as a string on some releases and a
	// JSON number on others; accept both.
	var ledgerInfo struct {
		LedgerVersion any `json:"ledger_version"`
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&ledgerInfo); err != nil {
		return "", fmt.Errorf("failed to decode ledger info: %w", err)
	}

	var version string
	switch v := ledgerInfo.LedgerVersion.(type) {
	case string:
		version = v
	case json.Number:
		version = v.String()
	}
	if !isDigits(version) {
		return "", fmt.Errorf("unexpected ledger_version %v", ledgerInfo.LedgerVersion)
	}
	return version, nil
}

func (s *KubeService) ListPods(ctx context.Context) ([]corev1.Pod, error) {
	pods, err := s.clientset.CoreV1().Pods(s.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in namespace %s: %w", s.namespace, err)
	}
	return pods.Items, nil
}

func (s *KubeService) ListServices(ctx context.Context) ([]corev1.Service, error) {
	services, err := s.clientset.CoreV1().Services(s.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services in namespace %s: %w", s.namespace, err)
	}
	return services.Items, nil
}

func isPodReady(pod *corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
