package types

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

type NodeType string

const (
	NodeTypeValidator NodeType = "validator"
	NodeTypeVFN       NodeType = "vfn"
	NodeTypeFullnode  NodeType = "fullnode"
)

// Node is a single workload in the cluster: one Helm release backed by a
// StatefulSet and a Service of the resolved type.
type Node struct {
	Type        NodeType           `json:"type"`
	Name        string             `json:"name"`
	ServiceType corev1.ServiceType `json:"service_type"`
}

// Topology describes which node tiers are deployed and how they are exposed.
//
// Supported layouts:
//   - Validator only: validator ClusterIP (LoadBalancer with ValidatorPublic)
//   - Validator + VFN: validator ClusterIP, VFN LoadBalancer
//   - Validator + VFN + Fullnode: validator and VFN ClusterIP, fullnode LoadBalancer
type Topology struct {
	ValidatorName   string `json:"validator_name"`
	VFNName         string `json:"vfn_name"`
	FullnodeName    string `json:"fullnode_name"`
	DeployVFN       bool   `json:"deploy_vfn"`
	DeployFullnode  bool   `json:"deploy_fullnode"`
	ValidatorPublic bool   `json:"validator_public"`
}

func (t Topology) Validate() error {
	if t.ValidatorName == "" {
		return fmt.Errorf("validator name must not be empty")
	}
	if t.DeployVFN && t.VFNName == "" {
		return fmt.Errorf("vfn name must not be empty when a VFN is deployed")
	}
	if t.DeployFullnode && t.FullnodeName == "" {
		return fmt.Errorf("fullnode name must not be empty when a fullnode is deployed")
	}
	if t.DeployFullnode && !t.DeployVFN {
		return fmt.Errorf("a fullnode requires a VFN to sync from")
	}
	return nil
}

// Nodes returns the workloads in deployment order with their resolved
// service types. Only the outermost tier is exposed with a LoadBalancer.
func (t Topology) Nodes() []Node {
	validatorServiceType := corev1.ServiceTypeClusterIP
	if t.ValidatorPublic {
		validatorServiceType = corev1.ServiceTypeLoadBalancer
	}

	nodes := []Node{
		{Type: NodeTypeValidator, Name: t.ValidatorName, ServiceType: validatorServiceType},
	}

	if t.DeployVFN {
		vfnServiceType := corev1.ServiceTypeLoadBalancer
		if t.DeployFullnode {
			vfnServiceType = corev1.ServiceTypeClusterIP
		}
		nodes = append(nodes, Node{Type: NodeTypeVFN, Name: t.VFNName, ServiceType: vfnServiceType})
	}

	if t.DeployFullnode {
		nodes = append(nodes, Node{Type: NodeTypeFullnode, Name: t.FullnodeName, ServiceType: corev1.ServiceTypeLoadBalancer})
	}

	return nodes
}

// NodesReversed returns the workloads in teardown order.
func (t Topology) NodesReversed() []Node {
	nodes := t.Nodes()
	reversed := make([]Node, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		reversed = append(reversed, nodes[i])
	}
	return reversed
}

// PublicEndpointNode returns the node that carries the public LoadBalancer,
// if the topology has one.
func (t Topology) PublicEndpointNode() (Node, bool) {
	nodes := t.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].ServiceType == corev1.ServiceTypeLoadBalancer {
			return nodes[i], true
		}
	}
	return Node{}, false
}

func (t Topology) NodeCount() int {
	return len(t.Nodes())
}

// NodeGroupSizing derives the EKS node group size from the topology:
// one worker per node, with headroom of two for rolling operations.
func (t Topology) NodeGroupSizing() (desired, min, max int) {
	count := t.NodeCount()
	return count, count, count + 2
}
