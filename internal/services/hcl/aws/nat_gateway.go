package aws

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
)

func GenerateNATGatewayResource(tfResourceName, allocationIdRef, subnetIdRef string) *hclwrite.Block {
	natGatewayBlock := hclwrite.NewBlock("resource", []string{"aws_nat_gateway", tfResourceName})
	natGatewayBlock.Body().SetAttributeRaw("allocation_id", utils.TokensForResourceReference(allocationIdRef))
	natGatewayBlock.Body().SetAttributeRaw("subnet_id", utils.TokensForResourceReference(subnetIdRef))

	return natGatewayBlock
}
