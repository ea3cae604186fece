package aws

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/movementinfra/movectl/internal/utils"
)

func GenerateServiceAssumeRole(tfResourceName, roleNameSuffix, servicePrincipal string) *hclwrite.Block {
	roleBlock := hclwrite.NewBlock("resource", []string{"aws_iam_role", tfResourceName})
	roleBlock.Body().SetAttributeRaw("name", utils.TokensForStringTemplate("${var.cluster_name}-"+roleNameSuffix))
	roleBlock.Body().SetAttributeRaw("assume_role_policy", utils.TokensForRawExpression(fmt.Sprintf(`jsonencode({
    Version = "2012-10-17"
    Statement = [{
      Effect    = "Allow"
      Principal = { Service = %q }
      Action    = "sts:AssumeRole"
    }]
  })`, servicePrincipal)))

	return roleBlock
}

func GenerateRolePolicyAttachment(tfResourceName, roleRef, policyArn string) *hclwrite.Block {
	attachmentBlock := hclwrite.NewBlock("resource", []string{"aws_iam_role_policy_attachment", tfResourceName})
	attachmentBlock.Body().SetAttributeRaw("role", utils.TokensForResourceReference(roleRef+".name"))
	attachmentBlock.Body().SetAttributeRaw("policy_arn", utils.TokensForStringTemplate(policyArn))

	return attachmentBlock
}

// GenerateIRSARole generates the role a Kubernetes service account assumes
// through the cluster OIDC provider. The trust condition pins the role to
// one service account in one namespace.
func GenerateIRSARole(tfResourceName, roleNameSuffix, oidcProviderResourceName, clusterRef, namespaceVarName, serviceAccountVarName string) *hclwrite.Block {
	issuerHostExpr := fmt.Sprintf(`replace(%s.identity[0].oidc[0].issuer, "https://", "")`, clusterRef)

	roleBlock := hclwrite.NewBlock("resource", []string{"aws_iam_role", tfResourceName})
	roleBlock.Body().SetAttributeRaw("name", utils.TokensForStringTemplate("${var.cluster_name}-"+roleNameSuffix))
	roleBlock.Body().SetAttributeRaw("assume_role_policy", utils.TokensForRawExpression(fmt.Sprintf(`jsonencode({
    Version = "2012-10-17"
    Statement = [{
      Effect    = "Allow"
      Principal = { Federated = aws_iam_openid_connect_provider.%s.arn }
      Action    = "sts:AssumeRoleWithWebIdentity"
      Condition = {
        StringEquals = {
          "${%s}:sub" = "system:serviceaccount:${var.%s}:${var.%s}"
          "${%s}:aud" = "sts.amazonaws.com"
        }
      }
    }]
  })`, oidcProviderResourceName, issuerHostExpr, namespaceVarName, serviceAccountVarName, issuerHostExpr)))

	return roleBlock
}

// GenerateS3ReadPolicy generates a read-only policy over the bootstrap
// snapshot bucket.
func GenerateS3ReadPolicy(tfResourceName, roleNameSuffix, bucketVarName string) *hclwrite.Block {
	policyBlock := hclwrite.NewBlock("resource", []string{"aws_iam_policy", tfResourceName})
	policyBlock.Body().SetAttributeRaw("name", utils.TokensForStringTemplate("${var.cluster_name}-"+roleNameSuffix))
	policyBlock.Body().SetAttributeRaw("policy", utils.TokensForRawExpression(fmt.Sprintf(`jsonencode({
    Version = "2012-10-17"
    Statement = [{
      Effect = "Allow"
      Action = ["s3:GetObject", "s3:ListBucket"]
      Resource = [
        "arn:aws:s3:::${var.%s}",
        "arn:aws:s3:::${var.%s}/*",
      ]
    }]
  })`, bucketVarName, bucketVarName)))

	return policyBlock
}
