package iam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/iam"
)

// IAMAPI is the slice of the IAM API the IRSA checks need.
type IAMAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
}

// IAMService verifies the IRSA role terraform created actually trusts the
// cluster OIDC provider, the usual failure mode when a cluster is rebuilt
// and the role still points at the old issuer.
type IAMService struct {
	client IAMAPI
}

func NewIAMService(client IAMAPI) *IAMService {
	return &IAMService{client: client}
}

type trustPolicy struct {
	Statement []struct {
		Effect    string `json:"Effect"`
		Principal struct {
			Federated string `json:"Federated"`
		} `json:"Principal"`
		Action string `json:"Action"`
	} `json:"Statement"`
}

// VerifyIRSATrust checks roleName's trust policy federates to an OIDC
// provider whose ARN contains issuerHost, the host part of the cluster OIDC
// issuer URL.
func (s *IAMService) VerifyIRSATrust(ctx context.Context, roleName, issuerHost string) error {
	out, err := s.client.GetRole(ctx, &iam.GetRoleInput{RoleName: &roleName})
	if err != nil {
		return fmt.Errorf("failed to get role %s: %w", roleName, err)
	}
	if out.Role.AssumeRolePolicyDocument == nil {
		return fmt.Errorf("role %s has no trust policy", roleName)
	}

	// GetRole returns the document URL-encoded.
	decoded, err := url.QueryUnescape(*out.Role.AssumeRolePolicyDocument)
	if err != nil {
		return fmt.Errorf("failed to decode trust policy of role %s: %w", roleName, err)
	}

	var policy trustPolicy
	if err := json.Unmarshal([]byte(decoded), &policy); err != nil {
		return fmt.Errorf("failed to parse trust policy of role %s: %w", roleName, err)
	}

	for _, statement := range policy.Statement {
		if statement.Effect != "Allow" {
			continue
		}
		if strings.Contains(statement.Principal.Federated, issuerHost) {
			slog.Info("✅ IRSA role trusts the cluster OIDC provider", "role", roleName, "issuer", issuerHost)
			return nil
		}
	}
	return fmt.Errorf("role %s does not trust OIDC issuer %s", roleName, issuerHost)
}

// RoleNameFromARN extracts the role name from an IAM role ARN.
func RoleNameFromARN(arn string) (string, error) {
	idx := strings.LastIndex(arn, "/")
	if !strings.Contains(arn, ":role/") || idx == len(arn)-1 {
		return "", fmt.Errorf("invalid IAM role ARN %q", arn)
	}
	return arn[idx+1:], nil
}
