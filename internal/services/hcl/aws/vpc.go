package aws

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/zclconf/go-cty/cty"
)

func GenerateVpcResource(tfResourceName, cidrVarName, clusterNameVarName string) *hclwrite.Block {
	vpcBlock := hclwrite.NewBlock("resource", []string{"aws_vpc", tfResourceName})
	vpcBlock.Body().SetAttributeRaw("cidr_block", utils.TokensForVarReference(cidrVarName))
	vpcBlock.Body().SetAttributeValue("enable_dns_support", cty.BoolVal(true))
	vpcBlock.Body().SetAttributeValue("enable_dns_hostnames", cty.BoolVal(true))
	vpcBlock.Body().AppendNewline()

	vpcBlock.Body().SetAttributeRaw("tags", utils.TokensForMap(map[string]hclwrite.Tokens{
		"Name": utils.TokensForStringTemplate("${var." + clusterNameVarName + "}-vpc"),
	}))

	return vpcBlock
}

func GenerateVpcReference(tfResourceName string) string {
	return "aws_vpc." + tfResourceName + ".id"
}
