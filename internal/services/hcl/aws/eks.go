package aws

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/zclconf/go-cty/cty"
)

func GenerateEKSClusterResource(tfResourceName, clusterNameVarName, versionVarName, roleArnRef, subnetIdsExpr, securityGroupIdRef string) *hclwrite.Block {
	clusterBlock := hclwrite.NewBlock("resource", []string{"aws_eks_cluster", tfResourceName})
	clusterBlock.Body().SetAttributeRaw("name", utils.TokensForVarReference(clusterNameVarName))
	clusterBlock.Body().SetAttributeRaw("version", utils.TokensForVarReference(versionVarName))
	clusterBlock.Body().SetAttributeRaw("role_arn", utils.TokensForResourceReference(roleArnRef))
	clusterBlock.Body().AppendNewline()

	vpcConfigBlock := hclwrite.NewBlock("vpc_config", nil)
	vpcConfigBlock.Body().SetAttributeRaw("subnet_ids", utils.TokensForRawExpression(subnetIdsExpr))
	vpcConfigBlock.Body().SetAttributeRaw("security_group_ids", utils.TokensForList([]string{securityGroupIdRef}))
	vpcConfigBlock.Body().SetAttributeValue("endpoint_public_access", cty.BoolVal(true))
	vpcConfigBlock.Body().SetAttributeValue("endpoint_private_access", cty.BoolVal(true))
	clusterBlock.Body().AppendBlock(vpcConfigBlock)

	return clusterBlock
}

func GenerateEKSNodeGroupResource(tfResourceName, clusterRef, nodeRoleArnRef, subnetIdsExpr string) *hclwrite.Block {
	nodeGroupBlock := hclwrite.NewBlock("resource", []string{"aws_eks_node_group", tfResourceName})
	nodeGroupBlock.Body().SetAttributeRaw("cluster_name", utils.TokensForResourceReference(clusterRef+".name"))
	nodeGroupBlock.Body().SetAttributeRaw("node_group_name", utils.TokensForStringTemplate("${var.cluster_name}-nodes"))
	nodeGroupBlock.Body().SetAttributeRaw("node_role_arn", utils.TokensForResourceReference(nodeRoleArnRef))
	nodeGroupBlock.Body().SetAttributeRaw("subnet_ids", utils.TokensForRawExpression(subnetIdsExpr))
	nodeGroupBlock.Body().SetAttributeRaw("instance_types", utils.TokensForVarReference("node_instance_types"))
	nodeGroupBlock.Body().AppendNewline()

	scalingConfigBlock := hclwrite.NewBlock("scaling_config", nil)
	scalingConfigBlock.Body().SetAttributeRaw("desired_size", utils.TokensForVarReference("node_desired_size"))
	scalingConfigBlock.Body().SetAttributeRaw("min_size", utils.TokensForVarReference("node_min_size"))
	scalingConfigBlock.Body().SetAttributeRaw("max_size", utils.TokensForVarReference("node_max_size"))
	nodeGroupBlock.Body().AppendBlock(scalingConfigBlock)

	return nodeGroupBlock
}

// GenerateOIDCProviderResources generates the TLS certificate data source
// and the IAM OIDC provider that together enable IRSA on the cluster.
func GenerateOIDCProviderResources(tfResourceName, clusterRef string) []*hclwrite.Block {
	issuerRef := fmt.Sprintf("%s.identity[0].oidc[0].issuer", clusterRef)

	certBlock := hclwrite.NewBlock("data", []string{"tls_certificate", tfResourceName})
	certBlock.Body().SetAttributeRaw("url", utils.TokensForResourceReference(issuerRef))

	oidcBlock := hclwrite.NewBlock("resource", []string{"aws_iam_openid_connect_provider", tfResourceName})
	oidcBlock.Body().SetAttributeRaw("url", utils.TokensForResourceReference(issuerRef))
	oidcBlock.Body().SetAttributeRaw("client_id_list", utils.TokensForStringList([]string{"sts.amazonaws.com"}))
	oidcBlock.Body().SetAttributeRaw("thumbprint_list", utils.TokensForRawExpression(
		fmt.Sprintf("[data.tls_certificate.%s.certificates[0].sha1_fingerprint]", tfResourceName)))

	return []*hclwrite.Block{certBlock, oidcBlock}
}
