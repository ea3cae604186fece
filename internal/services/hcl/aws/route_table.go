package aws

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/zclconf/go-cty/cty"
)

// GenerateRouteTableResource generates a route table with a single default
// route. gatewayAttr selects the route target attribute, "gateway_id" for an
// internet gateway or "nat_gateway_id" for a NAT gateway.
func GenerateRouteTableResource(tfResourceName, vpcIdRef, gatewayAttr, gatewayIdRef string) *hclwrite.Block {
	routeTableBlock := hclwrite.NewBlock("resource", []string{"aws_route_table", tfResourceName})
	routeTableBlock.Body().SetAttributeRaw("vpc_id", utils.TokensForResourceReference(vpcIdRef))
	routeTableBlock.Body().AppendNewline()

	routeBlock := hclwrite.NewBlock("route", nil)
	routeBlock.Body().SetAttributeValue("cidr_block", cty.StringVal("0.0.0.0/0"))
	routeBlock.Body().SetAttributeRaw(gatewayAttr, utils.TokensForResourceReference(gatewayIdRef))
	routeTableBlock.Body().AppendBlock(routeBlock)

	return routeTableBlock
}

// GenerateRouteTableAssociationWithForEach associates every subnet of a
// for_each subnet resource with a route table.
func GenerateRouteTableAssociationWithForEach(tfResourceName, subnetResourceName, routeTableRef string) *hclwrite.Block {
	associationBlock := hclwrite.NewBlock("resource", []string{"aws_route_table_association", tfResourceName})
	associationBlock.Body().SetAttributeRaw("for_each", utils.TokensForResourceReference(fmt.Sprintf("aws_subnet.%s", subnetResourceName)))
	associationBlock.Body().AppendNewline()

	associationBlock.Body().SetAttributeRaw("subnet_id", utils.TokensForResourceReference("each.value.id"))
	associationBlock.Body().SetAttributeRaw("route_table_id", utils.TokensForResourceReference(routeTableRef))

	return associationBlock
}
