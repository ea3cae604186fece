package iam

import (
	"context"
	"net/url"
	"testing"

	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIAM struct {
	policy string
}

func (m *mockIAM) GetRole(ctx context.Context, params *awsiam.GetRoleInput, optFns ...func(*awsiam.Options)) (*awsiam.GetRoleOutput, error) {
	encoded := url.QueryEscape(m.policy)
	return &awsiam.GetRoleOutput{
		Role: &iamtypes.Role{
			RoleName:                 params.RoleName,
			AssumeRolePolicyDocument: &encoded,
		},
	}, nil
}

const trustingPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {
        "Federated": "arn:aws:iam::123456789012:oidc-provider/oidc.eks.us-west-2.amazonaws.com/id/ABCDEF"
      },
      "Action": "sts:AssumeRoleWithWebIdentity"
    }
  ]
}`

func TestVerifyIRSATrust(t *testing.T) {
	t.Run("role trusts the issuer", func(t *testing.T) {
		svc := NewIAMService(&mockIAM{policy: trustingPolicy})
		err := svc.VerifyIRSATrust(context.Background(), "fullnode-s3-role", "oidc.eks.us-west-2.amazonaws.com/id/ABCDEF")
		assert.NoError(t, err)
	})

	t.Run("role trusts a different issuer", func(t *testing.T) {
		svc := NewIAMService(&mockIAM{policy: trustingPolicy})
		err := svc.VerifyIRSATrust(context.Background(), "fullnode-s3-role", "oidc.eks.us-west-2.amazonaws.com/id/STALE")
		assert.ErrorContains(t, err, "does not trust OIDC issuer")
	})
}

func TestRoleNameFromARN(t *testing.T) {
	t.Run("valid arn", func(t *testing.T) {
		name, err := RoleNameFromARN("arn:aws:iam::123456789012:role/fullnode-s3-role")
		require.NoError(t, err)
		assert.Equal(t, "fullnode-s3-role", name)
	})

	t.Run("path in arn", func(t *testing.T) {
		name, err := RoleNameFromARN("arn:aws:iam::123456789012:role/movement/fullnode-s3-role")
		require.NoError(t, err)
		assert.Equal(t, "fullnode-s3-role", name)
	})

	t.Run("not a role arn", func(t *testing.T) {
		_, err := RoleNameFromARN("arn:aws:iam::123456789012:user/alice")
		assert.ErrorContains(t, err, "invalid IAM role ARN")
	})
}
