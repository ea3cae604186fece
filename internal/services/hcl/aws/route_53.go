package aws

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
)

// GenerateRoute53Zone generates the hosted zone for the public node
// endpoints. The zone is created only when DNS is enabled.
func GenerateRoute53Zone(tfResourceName, zoneNameVarName, enableVarName string) *hclwrite.Block {
	route53ZoneBlock := hclwrite.NewBlock("resource", []string{"aws_route53_zone", tfResourceName})
	route53ZoneBlock.Body().SetAttributeRaw("count", utils.TokensForRawExpression("var."+enableVarName+" ? 1 : 0"))
	route53ZoneBlock.Body().AppendNewline()
	route53ZoneBlock.Body().SetAttributeRaw("name", utils.TokensForVarReference(zoneNameVarName))

	return route53ZoneBlock
}
