package aws

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/zclconf/go-cty/cty"
)

// GenerateNodeSecurityGroup generates the security group attached to the
// worker nodes. Ingress opens the listed TCP ports to the world (validator
// network, fullnode API), egress is unrestricted.
func GenerateNodeSecurityGroup(tfResourceName, vpcIdRef string, ingressPorts []int) *hclwrite.Block {
	securityGroupBlock := hclwrite.NewBlock("resource", []string{"aws_security_group", tfResourceName})
	securityGroupBlock.Body().SetAttributeRaw("vpc_id", utils.TokensForResourceReference(vpcIdRef))
	securityGroupBlock.Body().AppendNewline()

	for _, ingressPort := range ingressPorts {
		ingressBlock := hclwrite.NewBlock("ingress", nil)
		ingressBlock.Body().SetAttributeValue("from_port", cty.NumberIntVal(int64(ingressPort)))
		ingressBlock.Body().SetAttributeValue("to_port", cty.NumberIntVal(int64(ingressPort)))
		ingressBlock.Body().SetAttributeValue("protocol", cty.StringVal("tcp"))
		ingressBlock.Body().SetAttributeValue("cidr_blocks", cty.ListVal([]cty.Value{cty.StringVal("0.0.0.0/0")}))
		securityGroupBlock.Body().AppendBlock(ingressBlock)
		securityGroupBlock.Body().AppendNewline()
	}

	egressBlock := hclwrite.NewBlock("egress", nil)
	egressBlock.Body().SetAttributeValue("from_port", cty.NumberIntVal(0))
	egressBlock.Body().SetAttributeValue("to_port", cty.NumberIntVal(0))
	egressBlock.Body().SetAttributeValue("protocol", cty.StringVal("-1"))
	egressBlock.Body().SetAttributeValue("cidr_blocks", cty.ListVal([]cty.Value{cty.StringVal("0.0.0.0/0")}))
	securityGroupBlock.Body().AppendBlock(egressBlock)

	return securityGroupBlock
}
