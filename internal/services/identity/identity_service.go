package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/goccy/go-yaml"
)

// ValidatorIdentityKey is the key the validator chart expects inside the
// identity secret.
const ValidatorIdentityKey = "validator-identity.yaml"

// SecretFetcher is the slice of the Secrets Manager API this service needs.
type SecretFetcher interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretWriter creates the in-cluster secret. KubeService satisfies it.
type SecretWriter interface {
	EnsureOpaqueSecret(ctx context.Context, name string, data map[string][]byte) (bool, error)
}

// IdentityService copies the validator identity from AWS Secrets Manager
// into a Kubernetes secret pods can mount. The private key never touches
// disk on the operator machine.
type IdentityService struct {
	secretsClient SecretFetcher
	secretWriter  SecretWriter
}

func NewIdentityService(secretsClient SecretFetcher, secretWriter SecretWriter) *IdentityService {
	return &IdentityService{
		secretsClient: secretsClient,
		secretWriter:  secretWriter,
	}
}

// Sync reads secretId from Secrets Manager and materializes it as an Opaque
// secret named k8sSecretName. An already-existing Kubernetes secret is left
// alone and Sync reports created=false.
func (s *IdentityService) Sync(ctx context.Context, secretId, k8sSecretName string) (bool, error) {
	slog.Info("🔐 syncing validator identity from Secrets Manager", "secret_id", secretId, "k8s_secret", k8sSecretName)

	out, err := s.secretsClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretId,
	})
	if err != nil {
		return false, fmt.Errorf("failed to read secret %s from Secrets Manager: %w", secretId, err)
	}

	var payload []byte
	switch {
	case out.SecretString != nil:
		payload = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		payload = out.SecretBinary
	default:
		return false, fmt.Errorf("secret %s has no value", secretId)
	}

	if err := validateIdentityPayload(payload); err != nil {
		return false, fmt.Errorf("secret %s does not look like a validator identity: %w", secretId, err)
	}

	created, err := s.secretWriter.EnsureOpaqueSecret(ctx, k8sSecretName, map[string][]byte{
		ValidatorIdentityKey: payload,
	})
	if err != nil {
		return false, err
	}
	if created {
		slog.Info("✅ validator identity synced into cluster", "k8s_secret", k8sSecretName)
	}
	return created, nil
}

type identityFile struct {
	AccountAddress string `yaml:"account_address"`
}

// validateIdentityPayload catches the common mistake of pointing --identity-secret-id
// at the wrong Secrets Manager entry before the key material lands in the cluster.
func validateIdentityPayload(payload []byte) error {
	var file identityFile
	if err := yaml.Unmarshal(payload, &file); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if file.AccountAddress == "" {
		return fmt.Errorf("missing account_address field")
	}
	return nil
}
