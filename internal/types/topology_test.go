package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestTopologyValidate(t *testing.T) {
	t.Run("validator only is valid", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator"}
		assert.NoError(t, topology.Validate())
	})

	t.Run("missing validator name", func(t *testing.T) {
		topology := Topology{}
		assert.ErrorContains(t, topology.Validate(), "validator name")
	})

	t.Run("vfn enabled without a name", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator", DeployVFN: true}
		assert.ErrorContains(t, topology.Validate(), "vfn name")
	})

	t.Run("fullnode enabled without a name", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator", DeployVFN: true, VFNName: "vfn", DeployFullnode: true}
		assert.ErrorContains(t, topology.Validate(), "fullnode name")
	})

	t.Run("fullnode without a vfn", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator", DeployFullnode: true, FullnodeName: "fullnode"}
		assert.ErrorContains(t, topology.Validate(), "requires a VFN")
	})
}

func TestTopologyNodes(t *testing.T) {
	t.Run("validator only defaults to ClusterIP", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator"}
		nodes := topology.Nodes()
		require.Len(t, nodes, 1)
		assert.Equal(t, NodeTypeValidator, nodes[0].Type)
		assert.Equal(t, corev1.ServiceTypeClusterIP, nodes[0].ServiceType)
	})

	t.Run("public validator gets a LoadBalancer", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator", ValidatorPublic: true}
		nodes := topology.Nodes()
		require.Len(t, nodes, 1)
		assert.Equal(t, corev1.ServiceTypeLoadBalancer, nodes[0].ServiceType)
	})

	t.Run("validator plus vfn exposes the vfn", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator", DeployVFN: true, VFNName: "vfn"}
		nodes := topology.Nodes()
		require.Len(t, nodes, 2)
		assert.Equal(t, corev1.ServiceTypeClusterIP, nodes[0].ServiceType)
		assert.Equal(t, NodeTypeVFN, nodes[1].Type)
		assert.Equal(t, corev1.ServiceTypeLoadBalancer, nodes[1].ServiceType)
	})

	t.Run("full three tier layout exposes only the fullnode", func(t *testing.T) {
		topology := Topology{
			ValidatorName:  "validator",
			DeployVFN:      true,
			VFNName:        "vfn",
			DeployFullnode: true,
			FullnodeName:   "fullnode",
		}
		nodes := topology.Nodes()
		require.Len(t, nodes, 3)
		assert.Equal(t, corev1.ServiceTypeClusterIP, nodes[0].ServiceType)
		assert.Equal(t, corev1.ServiceTypeClusterIP, nodes[1].ServiceType)
		assert.Equal(t, NodeTypeFullnode, nodes[2].Type)
		assert.Equal(t, corev1.ServiceTypeLoadBalancer, nodes[2].ServiceType)
	})
}

func TestTopologyNodesReversed(t *testing.T) {
	topology := Topology{
		ValidatorName:  "validator",
		DeployVFN:      true,
		VFNName:        "vfn",
		DeployFullnode: true,
		FullnodeName:   "fullnode",
	}

	reversed := topology.NodesReversed()
	require.Len(t, reversed, 3)
	assert.Equal(t, NodeTypeFullnode, reversed[0].Type)
	assert.Equal(t, NodeTypeVFN, reversed[1].Type)
	assert.Equal(t, NodeTypeValidator, reversed[2].Type)
}

func TestTopologyPublicEndpointNode(t *testing.T) {
	t.Run("fullnode carries the endpoint in the three tier layout", func(t *testing.T) {
		topology := Topology{
			ValidatorName:  "validator",
			DeployVFN:      true,
			VFNName:        "vfn",
			DeployFullnode: true,
			FullnodeName:   "fullnode",
		}
		node, ok := topology.PublicEndpointNode()
		require.True(t, ok)
		assert.Equal(t, NodeTypeFullnode, node.Type)
	})

	t.Run("vfn carries the endpoint in the two tier layout", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator", DeployVFN: true, VFNName: "vfn"}
		node, ok := topology.PublicEndpointNode()
		require.True(t, ok)
		assert.Equal(t, NodeTypeVFN, node.Type)
	})

	t.Run("private validator only has no endpoint", func(t *testing.T) {
		topology := Topology{ValidatorName: "validator"}
		_, ok := topology.PublicEndpointNode()
		assert.False(t, ok)
	})
}

func TestTopologyNodeGroupSizing(t *testing.T) {
	topology := Topology{
		ValidatorName:  "validator",
		DeployVFN:      true,
		VFNName:        "vfn",
		DeployFullnode: true,
		FullnodeName:   "fullnode",
	}

	desired, min, max := topology.NodeGroupSizing()
	assert.Equal(t, 3, desired)
	assert.Equal(t, 3, min)
	assert.Equal(t, 5, max)
}
