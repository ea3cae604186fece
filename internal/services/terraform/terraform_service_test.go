package terraform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTerraformService(t *testing.T) {
	t.Run("existing directory", func(t *testing.T) {
		svc, err := NewTerraformService(t.TempDir())
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("missing directory", func(t *testing.T) {
		svc, err := NewTerraformService("/definitely/not/a/dir")
		assert.Error(t, err)
		assert.Nil(t, svc)
		assert.ErrorContains(t, err, "terraform directory not found")
	})
}

func TestBuildVarArgs(t *testing.T) {
	t.Run("scalars and booleans", func(t *testing.T) {
		args, err := BuildVarArgs(map[string]any{
			"cluster_name": "movement-validator",
			"enable_dns":   true,
			"node_count":   3,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"-var", "cluster_name=movement-validator",
			"-var", "enable_dns=true",
			"-var", "node_count=3",
		}, args)
	})

	t.Run("nil values are skipped", func(t *testing.T) {
		args, err := BuildVarArgs(map[string]any{
			"dns_zone_name": nil,
			"region":        "us-west-2",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"-var", "region=us-west-2"}, args)
	})

	t.Run("lists and maps are json encoded", func(t *testing.T) {
		args, err := BuildVarArgs(map[string]any{
			"subnet_cidrs": []string{"10.0.1.0/24", "10.0.2.0/24"},
			"tags":         map[string]string{"team": "l1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"-var", `subnet_cidrs=["10.0.1.0/24","10.0.2.0/24"]`,
			"-var", `tags={"team":"l1"}`,
		}, args)
	})

	t.Run("empty map", func(t *testing.T) {
		args, err := BuildVarArgs(map[string]any{})
		require.NoError(t, err)
		assert.Empty(t, args)
	})
}
