package hcl

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/services/hcl/aws"
	"github.com/movementinfra/movectl/internal/types"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/zclconf/go-cty/cty"
)

// Ports the validator network and node REST API listen on. The node
// security group opens them to the world; private topologies still hide
// behind ClusterIP services.
var nodeIngressPorts = []int{6180, 6182, 8080}

type TerraformResourceNames struct {
	Vpc             string
	PublicSubnets   string
	PrivateSubnets  string
	InternetGateway string
	NatEIP          string
	NatGateway      string
	PublicRoutes    string
	PrivateRoutes   string
	NodeSG          string

	ClusterRole  string
	NodeRole     string
	Cluster      string
	NodeGroup    string
	OIDCProvider string
	FullnodeRole string
	S3ReadPolicy string

	DNSZone string
}

func NewTerraformResourceNames() TerraformResourceNames {
	return TerraformResourceNames{
		Vpc:             "main",
		PublicSubnets:   "public",
		PrivateSubnets:  "private",
		InternetGateway: "main",
		NatEIP:          "nat",
		NatGateway:      "main",
		PublicRoutes:    "public",
		PrivateRoutes:   "private",
		NodeSG:          "nodes",

		ClusterRole:  "cluster",
		NodeRole:     "nodes",
		Cluster:      "main",
		NodeGroup:    "main",
		OIDCProvider: "cluster",
		FullnodeRole: "fullnode_s3",
		S3ReadPolicy: "fullnode_s3_read",

		DNSZone: "public",
	}
}

type ClusterInfraHCLService struct {
	ResourceNames TerraformResourceNames
}

func NewClusterInfraHCLService() *ClusterInfraHCLService {
	return &ClusterInfraHCLService{
		ResourceNames: NewTerraformResourceNames(),
	}
}

// TerraformOutput describes one output block in the generated outputs.tf.
type TerraformOutput struct {
	Name        string
	Value       string
	Description string
}

func (ci *ClusterInfraHCLService) GenerateTerraformProject(request types.ClusterInfraRequest) (types.TerraformProject, error) {
	if err := request.Validate(); err != nil {
		return types.TerraformProject{}, fmt.Errorf("invalid cluster infrastructure request: %w", err)
	}

	return types.TerraformProject{
		ProvidersTf: ci.generateProvidersTf(),
		VariablesTf: ci.generateVariablesTf(clusterInfraVariables()),
		MainTf:      ci.generateMainTf(request),
		OutputsTf:   ci.generateOutputsTf(ci.clusterInfraOutputs()),
		TfvarsTf:    ci.generateTfvars(request),
	}, nil
}

// ============================================================================
// providers.tf
// ============================================================================

func (ci *ClusterInfraHCLService) generateProvidersTf() string {
	f := hclwrite.NewEmptyFile()
	rootBody := f.Body()

	terraformBlock := rootBody.AppendNewBlock("terraform", nil)
	terraformBody := terraformBlock.Body()
	terraformBody.SetAttributeValue("required_version", cty.StringVal(">= 1.5.0"))
	terraformBody.AppendNewline()

	requiredProvidersBlock := terraformBody.AppendNewBlock("required_providers", nil)
	awsName, awsTokens := aws.GenerateRequiredProviderTokens()
	requiredProvidersBlock.Body().SetAttributeRaw(awsName, awsTokens)
	tlsName, tlsTokens := aws.GenerateTLSRequiredProviderTokens()
	requiredProvidersBlock.Body().SetAttributeRaw(tlsName, tlsTokens)

	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateProviderBlock("region"))

	return string(f.Bytes())
}

// ============================================================================
// variables.tf
// ============================================================================

func clusterInfraVariables() []types.TerraformVariable {
	return []types.TerraformVariable{
		{Name: "cluster_name", Type: "string", Description: "Name of the EKS cluster"},
		{Name: "region", Type: "string", Description: "AWS region to deploy into"},
		{Name: "kubernetes_version", Type: "string", Description: "EKS control plane version"},
		{Name: "vpc_cidr", Type: "string", Description: "CIDR block of the cluster VPC"},
		{Name: "public_subnet_cidrs", Type: "map(string)", Description: "Public subnet CIDRs keyed by availability zone index"},
		{Name: "private_subnet_cidrs", Type: "map(string)", Description: "Private subnet CIDRs keyed by availability zone index"},
		{Name: "node_instance_types", Type: "list(string)", Description: "Instance types for the worker node group"},
		{Name: "node_desired_size", Type: "number", Description: "Desired worker node count"},
		{Name: "node_min_size", Type: "number", Description: "Minimum worker node count"},
		{Name: "node_max_size", Type: "number", Description: "Maximum worker node count"},
		{Name: "enable_dns", Type: "bool", Description: "Create a Route53 hosted zone for public endpoints"},
		{Name: "dns_zone_name", Type: "string", Description: "Hosted zone name, required when enable_dns is true"},
		{Name: "fullnode_namespace", Type: "string", Description: "Namespace the fullnode workloads run in"},
		{Name: "fullnode_service_account_name", Type: "string", Description: "Service account the fullnode uses to read snapshots"},
		{Name: "fullnode_release_name", Type: "string", Description: "Helm release name of the public fullnode"},
		{Name: "bootstrap_s3_bucket", Type: "string", Description: "Snapshot bucket for fullnode bootstrap, empty disables bootstrap"},
		{Name: "bootstrap_s3_prefix", Type: "string", Description: "Key prefix of the bootstrap snapshots"},
		{Name: "bootstrap_s3_region", Type: "string", Description: "Region of the bootstrap bucket"},
		{Name: "tags", Type: "map(string)", Description: "Tags applied to every resource"},
	}
}

func (ci *ClusterInfraHCLService) generateVariablesTf(tfVariables []types.TerraformVariable) string {
	f := hclwrite.NewEmptyFile()
	rootBody := f.Body()

	for _, v := range tfVariables {
		variableBlock := rootBody.AppendNewBlock("variable", []string{v.Name})
		variableBody := variableBlock.Body()
		variableBody.SetAttributeRaw("type", utils.TokensForResourceReference(v.Type))
		if v.Description != "" {
			variableBody.SetAttributeValue("description", cty.StringVal(v.Description))
		}
		if v.Sensitive {
			variableBody.SetAttributeValue("sensitive", cty.BoolVal(true))
		}
		rootBody.AppendNewline()
	}

	return string(f.Bytes())
}

// ============================================================================
// main.tf
// ============================================================================

func (ci *ClusterInfraHCLService) generateMainTf(request types.ClusterInfraRequest) string {
	names := ci.ResourceNames

	f := hclwrite.NewEmptyFile()
	rootBody := f.Body()

	vpcIdRef := aws.GenerateVpcReference(names.Vpc)
	azRef := "data.aws_availability_zones.available"

	rootBody.AppendBlock(aws.GenerateAvailabilityZonesDataSource())
	rootBody.AppendNewline()

	// Networking
	rootBody.AppendBlock(aws.GenerateVpcResource(names.Vpc, "vpc_cidr", "cluster_name"))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateSubnetResourceWithForEach(names.PublicSubnets, "public_subnet_cidrs", azRef, vpcIdRef, true))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateSubnetResourceWithForEach(names.PrivateSubnets, "private_subnet_cidrs", azRef, vpcIdRef, false))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateInternetGatewayResource(names.InternetGateway, vpcIdRef))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateEIPResource(names.NatEIP))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateNATGatewayResource(names.NatGateway,
		fmt.Sprintf("aws_eip.%s.id", names.NatEIP),
		fmt.Sprintf("aws_subnet.%s[\"0\"].id", names.PublicSubnets)))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateRouteTableResource(names.PublicRoutes, vpcIdRef, "gateway_id", aws.GetInternetGatewayReference(names.InternetGateway)))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateRouteTableAssociationWithForEach(names.PublicRoutes, names.PublicSubnets,
		fmt.Sprintf("aws_route_table.%s.id", names.PublicRoutes)))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateRouteTableResource(names.PrivateRoutes, vpcIdRef, "nat_gateway_id",
		fmt.Sprintf("aws_nat_gateway.%s.id", names.NatGateway)))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateRouteTableAssociationWithForEach(names.PrivateRoutes, names.PrivateSubnets,
		fmt.Sprintf("aws_route_table.%s.id", names.PrivateRoutes)))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateNodeSecurityGroup(names.NodeSG, vpcIdRef, nodeIngressPorts))
	rootBody.AppendNewline()

	// Cluster IAM
	rootBody.AppendBlock(aws.GenerateServiceAssumeRole(names.ClusterRole, "cluster-role", "eks.amazonaws.com"))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateRolePolicyAttachment("cluster_policy",
		fmt.Sprintf("aws_iam_role.%s", names.ClusterRole),
		"arn:aws:iam::aws:policy/AmazonEKSClusterPolicy"))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateServiceAssumeRole(names.NodeRole, "node-role", "ec2.amazonaws.com"))
	rootBody.AppendNewline()

	nodePolicies := map[string]string{
		"node_worker_policy":   "arn:aws:iam::aws:policy/AmazonEKSWorkerNodePolicy",
		"node_cni_policy":      "arn:aws:iam::aws:policy/AmazonEKS_CNI_Policy",
		"node_registry_policy": "arn:aws:iam::aws:policy/AmazonEC2ContainerRegistryReadOnly",
	}
	for _, attachmentName := range []string{"node_worker_policy", "node_cni_policy", "node_registry_policy"} {
		rootBody.AppendBlock(aws.GenerateRolePolicyAttachment(attachmentName,
			fmt.Sprintf("aws_iam_role.%s", names.NodeRole), nodePolicies[attachmentName]))
		rootBody.AppendNewline()
	}

	// Cluster and nodes
	clusterRef := fmt.Sprintf("aws_eks_cluster.%s", names.Cluster)
	privateSubnetIds := aws.GenerateSubnetIdsExpression(names.PrivateSubnets)

	rootBody.AppendBlock(aws.GenerateEKSClusterResource(names.Cluster, "cluster_name", "kubernetes_version",
		fmt.Sprintf("aws_iam_role.%s.arn", names.ClusterRole),
		privateSubnetIds,
		fmt.Sprintf("aws_security_group.%s.id", names.NodeSG)))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateEKSNodeGroupResource(names.NodeGroup, clusterRef,
		fmt.Sprintf("aws_iam_role.%s.arn", names.NodeRole), privateSubnetIds))
	rootBody.AppendNewline()

	// IRSA for the fullnode snapshot reader
	for _, block := range aws.GenerateOIDCProviderResources(names.OIDCProvider, clusterRef) {
		rootBody.AppendBlock(block)
		rootBody.AppendNewline()
	}
	rootBody.AppendBlock(aws.GenerateIRSARole(names.FullnodeRole, "fullnode-s3-role", names.OIDCProvider, clusterRef,
		"fullnode_namespace", "fullnode_service_account_name"))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateS3ReadPolicy(names.S3ReadPolicy, "fullnode-s3-read", "bootstrap_s3_bucket"))
	rootBody.AppendNewline()
	rootBody.AppendBlock(aws.GenerateRolePolicyAttachment("fullnode_s3_read",
		fmt.Sprintf("aws_iam_role.%s", names.FullnodeRole),
		fmt.Sprintf("${aws_iam_policy.%s.arn}", names.S3ReadPolicy)))
	rootBody.AppendNewline()

	if request.EnableDNS {
		rootBody.AppendBlock(aws.GenerateRoute53Zone(names.DNSZone, "dns_zone_name", "enable_dns"))
		rootBody.AppendNewline()
	}

	return string(f.Bytes())
}

// ============================================================================
// outputs.tf
// ============================================================================

func (ci *ClusterInfraHCLService) clusterInfraOutputs() []TerraformOutput {
	names := ci.ResourceNames

	return []TerraformOutput{
		{Name: "cluster_name", Value: fmt.Sprintf("aws_eks_cluster.%s.name", names.Cluster)},
		{Name: "region", Value: "var.region"},
		{Name: "vpc_id", Value: aws.GenerateVpcReference(names.Vpc)},
		{Name: "public_subnet_ids", Value: aws.GenerateSubnetIdsExpression(names.PublicSubnets)},
		{Name: "private_subnet_ids", Value: aws.GenerateSubnetIdsExpression(names.PrivateSubnets)},
		{Name: "cluster_endpoint", Value: fmt.Sprintf("aws_eks_cluster.%s.endpoint", names.Cluster)},
		{Name: "cluster_oidc_issuer", Value: fmt.Sprintf("aws_eks_cluster.%s.identity[0].oidc[0].issuer", names.Cluster)},
		{Name: "node_security_group_id", Value: fmt.Sprintf("aws_security_group.%s.id", names.NodeSG)},
		{Name: "fullnode_s3_role_arn", Value: fmt.Sprintf("aws_iam_role.%s.arn", names.FullnodeRole)},
		{Name: "fullnode_service_account_name", Value: "var.fullnode_service_account_name"},
		{Name: "fullnode_bootstrap_enabled", Value: `var.bootstrap_s3_bucket != ""`},
		{Name: "fullnode_bootstrap_s3_uri", Value: `var.bootstrap_s3_bucket != "" ? "s3://${var.bootstrap_s3_bucket}/${var.bootstrap_s3_prefix}" : ""`},
		{Name: "fullnode_bootstrap_s3_region", Value: "var.bootstrap_s3_region"},
		{Name: "public_fullnode_namespace", Value: "var.fullnode_namespace"},
		{Name: "public_fullnode_release_name", Value: "var.fullnode_release_name"},
	}
}

func (ci *ClusterInfraHCLService) generateOutputsTf(tfOutputs []TerraformOutput) string {
	f := hclwrite.NewEmptyFile()
	rootBody := f.Body()

	for _, output := range tfOutputs {
		outputBlock := rootBody.AppendNewBlock("output", []string{output.Name})
		outputBody := outputBlock.Body()
		outputBody.SetAttributeRaw("value", utils.TokensForRawExpression(output.Value))
		if output.Description != "" {
			outputBody.SetAttributeValue("description", cty.StringVal(output.Description))
		}
		rootBody.AppendNewline()
	}

	return string(f.Bytes())
}

// ============================================================================
// terraform.tfvars
// ============================================================================

func (ci *ClusterInfraHCLService) generateTfvars(request types.ClusterInfraRequest) string {
	f := hclwrite.NewEmptyFile()
	rootBody := f.Body()

	rootBody.SetAttributeValue("cluster_name", cty.StringVal(request.ClusterName))
	rootBody.SetAttributeValue("region", cty.StringVal(request.Region))
	rootBody.SetAttributeValue("kubernetes_version", cty.StringVal(request.KubernetesVersion))
	rootBody.AppendNewline()

	rootBody.SetAttributeValue("vpc_cidr", cty.StringVal(request.VpcCidr))
	rootBody.SetAttributeValue("public_subnet_cidrs", indexedCidrMap(request.PublicSubnetCidrs))
	rootBody.SetAttributeValue("private_subnet_cidrs", indexedCidrMap(request.PrivateSubnetCidrs))
	rootBody.AppendNewline()

	instanceTypes := make([]cty.Value, len(request.NodeInstanceTypes))
	for i, instanceType := range request.NodeInstanceTypes {
		instanceTypes[i] = cty.StringVal(instanceType)
	}
	rootBody.SetAttributeValue("node_instance_types", cty.ListVal(instanceTypes))
	rootBody.SetAttributeValue("node_desired_size", cty.NumberIntVal(int64(request.NodeDesiredSize)))
	rootBody.SetAttributeValue("node_min_size", cty.NumberIntVal(int64(request.NodeMinSize)))
	rootBody.SetAttributeValue("node_max_size", cty.NumberIntVal(int64(request.NodeMaxSize)))
	rootBody.AppendNewline()

	rootBody.SetAttributeValue("enable_dns", cty.BoolVal(request.EnableDNS))
	rootBody.SetAttributeValue("dns_zone_name", cty.StringVal(request.DNSZoneName))
	rootBody.AppendNewline()

	rootBody.SetAttributeValue("fullnode_namespace", cty.StringVal(request.Namespace))
	rootBody.SetAttributeValue("fullnode_service_account_name", cty.StringVal("fullnode"))
	rootBody.SetAttributeValue("fullnode_release_name", cty.StringVal(request.ReleaseName))
	rootBody.SetAttributeValue("bootstrap_s3_bucket", cty.StringVal(request.BootstrapS3Bucket))
	rootBody.SetAttributeValue("bootstrap_s3_prefix", cty.StringVal(request.BootstrapS3Prefix))
	rootBody.SetAttributeValue("bootstrap_s3_region", cty.StringVal(request.BootstrapS3Region))
	rootBody.AppendNewline()

	rootBody.SetAttributeValue("tags", tagsValue(request.Tags))

	return string(f.Bytes())
}

func indexedCidrMap(cidrs []string) cty.Value {
	entries := map[string]cty.Value{}
	for i, cidr := range cidrs {
		entries[strconv.Itoa(i)] = cty.StringVal(cidr)
	}
	if len(entries) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	return cty.MapVal(entries)
}

func tagsValue(tags map[string]string) cty.Value {
	if len(tags) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	entries := map[string]cty.Value{}
	for key, value := range tags {
		entries[key] = cty.StringVal(value)
	}
	return cty.MapVal(entries)
}
