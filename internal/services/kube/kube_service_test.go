package kube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func newPod(name, app string, phase corev1.PodPhase, ready bool) *corev1.Pod {
	readyStatus := corev1.ConditionFalse
	if ready {
		readyStatus = corev1.ConditionTrue
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "movement-l1",
			Labels:    map[string]string{"app": app},
		},
		Status: corev1.PodStatus{
			Phase: phase,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: readyStatus},
			},
		},
	}
}

func TestEnsureNamespace(t *testing.T) {
	clientset := fake.NewClientset()
	svc := NewKubeService(clientset, "movement-l1")

	require.NoError(t, svc.EnsureNamespace(context.Background()))

	_, err := clientset.CoreV1().Namespaces().Get(context.Background(), "movement-l1", metav1.GetOptions{})
	require.NoError(t, err)

	// Second call is a no-op.
	require.NoError(t, svc.EnsureNamespace(context.Background()))
}

func TestEnsureOpaqueSecret(t *testing.T) {
	clientset := fake.NewClientset()
	svc := NewKubeService(clientset, "movement-l1")

	created, err := svc.EnsureOpaqueSecret(context.Background(), "validator-identity", map[string][]byte{
		"validator-identity.yaml": []byte("account_address: 0xabc"),
	})
	require.NoError(t, err)
	assert.True(t, created)

	secret, err := clientset.CoreV1().Secrets("movement-l1").Get(context.Background(), "validator-identity", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, corev1.SecretTypeOpaque, secret.Type)

	// Existing secret is left untouched.
	created, err = svc.EnsureOpaqueSecret(context.Background(), "validator-identity", map[string][]byte{
		"validator-identity.yaml": []byte("different"),
	})
	require.NoError(t, err)
	assert.False(t, created)

	secret, err = clientset.CoreV1().Secrets("movement-l1").Get(context.Background(), "validator-identity", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("account_address: 0xabc"), secret.Data["validator-identity.yaml"])
}

func TestWaitForPodReady(t *testing.T) {
	t.Run("all pods ready", func(t *testing.T) {
		clientset := fake.NewClientset(
			newPod("validator-0", "validator", corev1.PodRunning, true),
		)
		svc := NewKubeService(clientset, "movement-l1", WithPollInterval(time.Millisecond))
		require.NoError(t, svc.WaitForPodReady(context.Background(), "validator", 100*time.Millisecond))
	})

	t.Run("failed pod aborts the wait", func(t *testing.T) {
		clientset := fake.NewClientset(
			newPod("validator-0", "validator", corev1.PodFailed, false),
		)
		svc := NewKubeService(clientset, "movement-l1", WithPollInterval(time.Millisecond))
		err := svc.WaitForPodReady(context.Background(), "validator", 100*time.Millisecond)
		assert.ErrorContains(t, err, "Failed phase")
	})

	t.Run("times out when pods never appear", func(t *testing.T) {
		svc := NewKubeService(fake.NewClientset(), "movement-l1", WithPollInterval(time.Millisecond))
		err := svc.WaitForPodReady(context.Background(), "validator", 20*time.Millisecond)
		assert.ErrorContains(t, err, "timed out")
	})
}

func TestWaitForLoadBalancerHost(t *testing.T) {
	t.Run("hostname preferred", func(t *testing.T) {
		clientset := fake.NewClientset(&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "fullnode", Namespace: "movement-l1"},
			Status: corev1.ServiceStatus{
				LoadBalancer: corev1.LoadBalancerStatus{
					Ingress: []corev1.LoadBalancerIngress{{Hostname: "abc.elb.amazonaws.com"}},
				},
			},
		})
		svc := NewKubeService(clientset, "movement-l1", WithPollInterval(time.Millisecond))
		host, err := svc.WaitForLoadBalancerHost(context.Background(), "fullnode", 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "abc.elb.amazonaws.com", host)
	})

	t.Run("falls back to ip", func(t *testing.T) {
		clientset := fake.NewClientset(&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "fullnode", Namespace: "movement-l1"},
			Status: corev1.ServiceStatus{
				LoadBalancer: corev1.LoadBalancerStatus{
					Ingress: []corev1.LoadBalancerIngress{{IP: "203.0.113.10"}},
				},
			},
		})
		svc := NewKubeService(clientset, "movement-l1", WithPollInterval(time.Millisecond))
		host, err := svc.WaitForLoadBalancerHost(context.Background(), "fullnode", 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.10", host)
	})

	t.Run("times out without ingress", func(t *testing.T) {
		clientset := fake.NewClientset(&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "fullnode", Namespace: "movement-l1"},
		})
		svc := NewKubeService(clientset, "movement-l1", WithPollInterval(time.Millisecond))
		_, err := svc.WaitForLoadBalancerHost(context.Background(), "fullnode", 20*time.Millisecond)
		assert.ErrorContains(t, err, "timed out")
	})
}

func TestWaitForAPIHealth(t *testing.T) {
	t.Run("numeric ledger version", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chain_id":250,"ledger_version":"123456"}`))
		}))
		defer server.Close()

		svc := NewKubeService(fake.NewClientset(), "movement-l1", WithPollInterval(time.Millisecond))
		version, err := svc.WaitForAPIHealth(context.Background(), server.URL, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "123456", version)
	})

	t.Run("ledger version as a json number", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chain_id":250,"ledger_version":123456}`))
		}))
		defer server.Close()

		svc := NewKubeService(fake.NewClientset(), "movement-l1", WithPollInterval(time.Millisecond))
		version, err := svc.WaitForAPIHealth(context.Background(), server.URL, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "123456", version)
	})

	t.Run("non numeric ledger version keeps failing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ledger_version":"not-a-number"}`))
		}))
		defer server.Close()

		svc := NewKubeService(fake.NewClientset(), "movement-l1", WithPollInterval(time.Millisecond))
		_, err := svc.WaitForAPIHealth(context.Background(), server.URL, 20*time.Millisecond)
		assert.ErrorContains(t, err, "unexpected ledger_version")
	})

	t.Run("server error keeps failing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc := NewKubeService(fake.NewClientset(), "movement-l1", WithPollInterval(time.Millisecond))
		_, err := svc.WaitForAPIHealth(context.Background(), server.URL, 20*time.Millisecond)
		assert.ErrorContains(t, err, "status 503")
	})
}
