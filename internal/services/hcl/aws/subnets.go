package aws

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/zclconf/go-cty/cty"
)

// GenerateSubnetResourceWithForEach generates a subnet resource with a
// `for_each` over a map of index to CIDR, spreading subnets across the
// region availability zones. Public subnets get the ELB role tag so
// Kubernetes can place internet-facing load balancers, private ones get the
// internal-ELB tag.
func GenerateSubnetResourceWithForEach(tfResourceName, subnetCidrsVarName, availabilityZoneRef, vpcIdRef string, public bool) *hclwrite.Block {
	subnetBlock := hclwrite.NewBlock("resource", []string{"aws_subnet", tfResourceName})
	subnetBlock.Body().SetAttributeRaw("for_each", utils.TokensForVarReference(subnetCidrsVarName))
	subnetBlock.Body().AppendNewline()

	subnetBlock.Body().SetAttributeRaw("vpc_id", utils.TokensForResourceReference(vpcIdRef))
	subnetBlock.Body().SetAttributeRaw("availability_zone", utils.TokensForResourceReference(fmt.Sprintf("%s.names[each.key]", availabilityZoneRef)))
	subnetBlock.Body().SetAttributeRaw("cidr_block", utils.TokensForResourceReference("each.value"))
	if public {
		subnetBlock.Body().SetAttributeValue("map_public_ip_on_launch", cty.BoolVal(true))
	}
	subnetBlock.Body().AppendNewline()

	elbTag := "kubernetes.io/role/internal-elb"
	if public {
		elbTag = "kubernetes.io/role/elb"
	}
	subnetBlock.Body().SetAttributeRaw("tags", utils.TokensForMap(map[string]hclwrite.Tokens{
		fmt.Sprintf("%q", elbTag): utils.TokensForStringTemplate("1"),
	}))

	return subnetBlock
}

func GenerateSubnetIdsExpression(tfResourceName string) string {
	return fmt.Sprintf("[for subnet in aws_subnet.%s : subnet.id]", tfResourceName)
}
