package aws

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
)

func GenerateRequiredProviderTokens() (string, hclwrite.Tokens) {
	awsProvider := map[string]hclwrite.Tokens{
		"source":  utils.TokensForStringTemplate("hashicorp/aws"),
		"version": utils.TokensForStringTemplate("~> 6.0"),
	}

	return "aws", utils.TokensForMap(awsProvider)
}

func GenerateTLSRequiredProviderTokens() (string, hclwrite.Tokens) {
	tlsProvider := map[string]hclwrite.Tokens{
		"source":  utils.TokensForStringTemplate("hashicorp/tls"),
		"version": utils.TokensForStringTemplate("~> 4.0"),
	}

	return "tls", utils.TokensForMap(tlsProvider)
}

func GenerateProviderBlock(regionVarName string) *hclwrite.Block {
	providerBlock := hclwrite.NewBlock("provider", []string{"aws"})
	providerBody := providerBlock.Body()
	providerBody.SetAttributeRaw("region", utils.TokensForVarReference(regionVarName))
	providerBody.AppendNewline()

	defaultTagsBlock := hclwrite.NewBlock("default_tags", nil)
	defaultTagsBlock.Body().SetAttributeRaw("tags", utils.TokensForVarReference("tags"))
	providerBody.AppendBlock(defaultTagsBlock)

	return providerBlock
}
