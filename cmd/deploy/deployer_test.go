package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	"github.com/movementinfra/movectl/internal/services/terraform"
	"github.com/movementinfra/movectl/internal/types"
)

func testDeployer() *Deployer {
	return NewDeployer(DeployerOpts{
		ClusterName:      "movement-validator",
		Region:           "us-west-2",
		Namespace:        "movement-l1",
		Network:          "testnet",
		ChainId:          250,
		IdentitySecretId: "movement/validator-identity",
		Topology: types.Topology{
			ValidatorName:  "validator",
			VFNName:        "vfn",
			FullnodeName:   "fullnode",
			DeployVFN:      true,
			DeployFullnode: true,
		},
	})
}

func nodeByType(t *testing.T, topology types.Topology, nodeType types.NodeType) types.Node {
	t.Helper()
	for _, node := range topology.Nodes() {
		if node.Type == nodeType {
			return node
		}
	}
	t.Fatalf("no node of type %s", nodeType)
	return types.Node{}
}

func TestBuildNodeValues(t *testing.T) {
	deployer := testDeployer()
	outputs := types.TerraformOutputs{
		"fullnode_bootstrap_enabled":    true,
		"fullnode_bootstrap_s3_uri":     "s3://movement-snapshots/testnet",
		"fullnode_bootstrap_s3_region":  "us-west-2",
		"fullnode_service_account_name": "fullnode",
		"fullnode_s3_role_arn":          "arn:aws:iam::123456789012:role/fullnode-s3-role",
	}

	t.Run("validator gets identity and stays private", func(t *testing.T) {
		node := nodeByType(t, deployer.opts.Topology, types.NodeTypeValidator)
		require.Equal(t, corev1.ServiceTypeClusterIP, node.ServiceType)

		values := deployer.buildNodeValues(node, outputs)
		assert.Contains(t, values.SetValues, "node.role=validator")
		assert.Contains(t, values.SetValues, "chain.name=testnet")
		assert.Contains(t, values.SetValues, "chain.chainId=250")
		assert.Contains(t, values.SetValues, "storage.class=gp3")
		assert.Contains(t, values.SetValues, "storage.iops=6000")
		assert.Contains(t, values.SetValues, "storage.throughput=500")
		assert.Contains(t, values.SetValues, "service.type=ClusterIP")
		assert.Contains(t, values.SetValues, "identity.secretName=validator-identity")

		for _, value := range values.SetValues {
			assert.NotContains(t, value, "aws-load-balancer", "private node should not carry NLB annotations")
			assert.NotContains(t, value, "bootstrap.")
		}
	})

	t.Run("vfn is private when a fullnode is deployed", func(t *testing.T) {
		node := nodeByType(t, deployer.opts.Topology, types.NodeTypeVFN)
		values := deployer.buildNodeValues(node, outputs)
		assert.Contains(t, values.SetValues, "service.type=ClusterIP")
		assert.Contains(t, values.SetValues, "node.upstream=validator")
	})

	t.Run("fullnode gets NLB annotations and bootstrap wiring", func(t *testing.T) {
		node := nodeByType(t, deployer.opts.Topology, types.NodeTypeFullnode)
		require.Equal(t, corev1.ServiceTypeLoadBalancer, node.ServiceType)

		values := deployer.buildNodeValues(node, outputs)
		assert.Contains(t, values.SetValues, "service.type=LoadBalancer")
		assert.Contains(t, values.SetValues, `service.annotations.service\.beta\.kubernetes\.io/aws-load-balancer-type=external`)
		assert.Contains(t, values.SetValues, "bootstrap.enabled=true")
		assert.Contains(t, values.SetValues, "bootstrap.s3Uri=s3://movement-snapshots/testnet")
		assert.Contains(t, values.SetValues, "node.upstream=vfn")
		assert.Contains(t, values.SetValues, "serviceAccount.name=fullnode")
		assert.Contains(t, values.SetValues, `serviceAccount.annotations.eks\.amazonaws\.com/role-arn=arn:aws:iam::123456789012:role/fullnode-s3-role`)
	})

	t.Run("bootstrap omitted when disabled", func(t *testing.T) {
		node := nodeByType(t, deployer.opts.Topology, types.NodeTypeFullnode)
		values := deployer.buildNodeValues(node, types.TerraformOutputs{})
		for _, value := range values.SetValues {
			assert.NotContains(t, value, "bootstrap.")
		}
	})

	t.Run("values file and image tag", func(t *testing.T) {
		deployer := testDeployer()
		deployer.opts.ValuesFile = "overrides.yaml"
		deployer.opts.ImageTag = "v2.0.1"

		node := nodeByType(t, deployer.opts.Topology, types.NodeTypeValidator)
		values := deployer.buildNodeValues(node, outputs)
		assert.Equal(t, []string{"overrides.yaml"}, values.ValueFiles)
		assert.Contains(t, values.SetValues, "image.tag=v2.0.1")
	})

	t.Run("vfn is the public endpoint without a fullnode", func(t *testing.T) {
		deployer := testDeployer()
		deployer.opts.Topology.DeployFullnode = false

		node := nodeByType(t, deployer.opts.Topology, types.NodeTypeVFN)
		values := deployer.buildNodeValues(node, types.TerraformOutputs{})
		assert.Contains(t, values.SetValues, "service.type=LoadBalancer")
	})
}

// writeStubTerraform puts a fake terraform binary on PATH that records its
// invocations and answers `output -json` with outputsJSON (or "{}" until an
// apply has run, when appliedMarker is set).
func writeStubTerraform(t *testing.T, outputsJSON string, appliedMarker bool) string {
	t.Helper()
	binDir := t.TempDir()
	callLog := filepath.Join(binDir, "calls.log")
	marker := filepath.Join(binDir, "applied")

	script := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %q
if [ "$1" = "apply" ]; then
  touch %q
fi
if [ "$1" = "output" ]; then
  if [ %t = true ] && [ ! -f %q ]; then
    printf '{}'
  else
    printf '%%s' %q
  fi
fi
exit 0
`, callLog, marker, appliedMarker, marker, outputsJSON)

	require.NoError(t, os.WriteFile(filepath.Join(binDir, "terraform"), []byte(script), 0755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return callLog
}

func TestProvisionInfra(t *testing.T) {
	newTestState := func(t *testing.T, deployer *Deployer) (*types.State, *types.Deployment) {
		t.Helper()
		deployer.opts.SkipPreflight = true
		deployer.opts.StateFile = filepath.Join(t.TempDir(), "movectl-state.json")
		state := types.NewState()
		deployment := types.NewDeployment(deployer.opts.ClusterName, deployer.opts.Region, deployer.opts.Namespace, deployer.opts.Topology)
		state.UpsertDeployment(deployment)
		return state, deployment
	}

	t.Run("apply without outputs is an error", func(t *testing.T) {
		callLog := writeStubTerraform(t, "{}", false)
		deployer := testDeployer()
		state, deployment := newTestState(t, deployer)

		terraformService, err := terraform.NewTerraformService(t.TempDir())
		require.NoError(t, err)

		_, err = deployer.provisionInfra(context.Background(), terraformService, state, deployment)
		assert.ErrorContains(t, err, "no outputs found")
		assert.Equal(t, types.StateUninitialized, deployment.GetCurrentState())

		calls, err := os.ReadFile(callLog)
		require.NoError(t, err)
		assert.Contains(t, string(calls), "init -upgrade")
	})

	t.Run("successful apply snapshots outputs and transitions", func(t *testing.T) {
		outputsJSON := `{"cluster_name":{"sensitive":false,"value":"movement-validator"},"vpc_id":{"sensitive":false,"value":"vpc-123"}}`
		writeStubTerraform(t, outputsJSON, true)
		deployer := testDeployer()
		state, deployment := newTestState(t, deployer)

		terraformService, err := terraform.NewTerraformService(t.TempDir())
		require.NoError(t, err)

		outputs, err := deployer.provisionInfra(context.Background(), terraformService, state, deployment)
		require.NoError(t, err)
		assert.Equal(t, "movement-validator", outputs.String("cluster_name", ""))
		assert.Equal(t, types.StateInfraProvisioned, deployment.GetCurrentState())
		assert.Equal(t, "vpc-123", deployment.Outputs["vpc_id"])
	})

	t.Run("existing outputs skip provisioning and catch the state up", func(t *testing.T) {
		outputsJSON := `{"cluster_name":{"sensitive":false,"value":"movement-validator"}}`
		callLog := writeStubTerraform(t, outputsJSON, false)
		deployer := testDeployer()
		state, deployment := newTestState(t, deployer)

		terraformService, err := terraform.NewTerraformService(t.TempDir())
		require.NoError(t, err)

		outputs, err := deployer.provisionInfra(context.Background(), terraformService, state, deployment)
		require.NoError(t, err)
		assert.Equal(t, "movement-validator", outputs.String("cluster_name", ""))
		assert.Equal(t, types.StateInfraProvisioned, deployment.GetCurrentState())

		calls, err := os.ReadFile(callLog)
		require.NoError(t, err)
		assert.NotContains(t, string(calls), "apply")
	})
}

func TestValidationOpts(t *testing.T) {
	deployer := testDeployer()

	t.Run("bootstrap enables the IRSA check", func(t *testing.T) {
		opts := deployer.validationOpts(types.TerraformOutputs{"fullnode_bootstrap_enabled": true})
		assert.True(t, opts.CheckIRSA)
	})

	t.Run("no bootstrap no IRSA check", func(t *testing.T) {
		opts := deployer.validationOpts(types.TerraformOutputs{})
		assert.False(t, opts.CheckIRSA)
	})
}

func TestParseDeployOpts(t *testing.T) {
	cmd := NewDeployCmd()
	require.NoError(t, cmd.Flags().Set("cluster-name", "movement-validator"))
	require.NoError(t, cmd.Flags().Set("region", "us-west-2"))
	require.NoError(t, cmd.Flags().Set("chart-path", "charts/node"))
	require.NoError(t, cmd.Flags().Set("node-instance-types", "r7a.2xlarge, m7a.4xlarge"))

	opts, err := parseDeployOpts()
	require.NoError(t, err)
	assert.Equal(t, []string{"r7a.2xlarge", "m7a.4xlarge"}, opts.NodeInstanceTypes)
}
