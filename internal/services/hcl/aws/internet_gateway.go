package aws

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
)

func GenerateInternetGatewayResource(tfResourceName, vpcIdRef string) *hclwrite.Block {
	internetGatewayBlock := hclwrite.NewBlock("resource", []string{"aws_internet_gateway", tfResourceName})
	internetGatewayBlock.Body().SetAttributeRaw("vpc_id", utils.TokensForResourceReference(vpcIdRef))

	return internetGatewayBlock
}

func GetInternetGatewayReference(tfResourceName string) string {
	return "aws_internet_gateway." + tfResourceName + ".id"
}
