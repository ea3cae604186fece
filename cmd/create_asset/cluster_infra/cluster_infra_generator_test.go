package cluster_infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movementinfra/movectl/internal/types"
)

func TestClusterInfraAssetGeneratorRun(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "cluster-infra")

	generator := NewClusterInfraAssetGenerator(ClusterInfraOpts{
		OutputDir: outputDir,
		Request: types.ClusterInfraRequest{
			ClusterName:        "movement-validator",
			Region:             "us-west-2",
			KubernetesVersion:  "1.32",
			VpcCidr:            "10.0.0.0/16",
			PublicSubnetCidrs:  []string{"10.0.1.0/24", "10.0.2.0/24"},
			PrivateSubnetCidrs: []string{"10.0.101.0/24", "10.0.102.0/24"},
			NodeInstanceTypes:  []string{"r7a.2xlarge"},
			NodeDesiredSize:    3,
			NodeMinSize:        3,
			NodeMaxSize:        5,
			Namespace:          "movement-l1",
			ReleaseName:        "fullnode",
		},
	})
	require.NoError(t, generator.Run())

	for _, filename := range []string{"providers.tf", "variables.tf", "main.tf", "outputs.tf", "terraform.tfvars"} {
		content, err := os.ReadFile(filepath.Join(outputDir, filename))
		require.NoError(t, err, "expected %s to be written", filename)
		assert.NotEmpty(t, content)
	}
}

func TestParseTags(t *testing.T) {
	t.Run("key value pairs", func(t *testing.T) {
		parsed, err := parseTags("team=l1,env=testnet")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"team": "l1", "env": "testnet"}, parsed)
	})

	t.Run("empty input", func(t *testing.T) {
		parsed, err := parseTags("")
		require.NoError(t, err)
		assert.Empty(t, parsed)
	})

	t.Run("missing value separator", func(t *testing.T) {
		_, err := parseTags("team")
		assert.ErrorContains(t, err, "expected key=value")
	})
}
