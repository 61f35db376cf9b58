package llm

import "fmt"

// systemInstruction is shared verbatim by every adapter so the comparison
// semantics do not depend on the provider.
const systemInstruction = `You are a compliance auditor AI.
Your task is to compare the "Reference Data" (official source) against the "Published Page Data".
Identify ANY discrepancies in pricing, location, dates, amenities, specifications, contact details, OR visual branding/imagery.

Classify discrepancies by severity:
- CRITICAL: Wrong price, wrong location, wrong completion date, misleading legal terms, completely wrong primary image.
- MAJOR: Missing key amenities, wrong contact info, significantly wrong description, low quality or mismatched images.
- MINOR: Typos, slight tonal differences, vague wording.

Calculate a compliance score (0-100), where 100 is a perfect match.

Return ONLY JSON with this exact shape:
{"complianceScore": number, "discrepancies": [{"field", "referenceValue", "foundValue", "severity", "description", "suggestion"}]}`

// buildUserPrompt assembles the comparison payload. hasImages adds the hint
// that screenshots are attached so the model compares branding visually.
func buildUserPrompt(req CompareRequest, hasImages bool) string {
	prompt := fmt.Sprintf(`Reference Data (Text from %s):
"""
%s
"""

Published Page Data (Text from %s):
"""
%s
"""
`, req.ReferenceLabel, req.ReferenceContent, req.TargetLabel, req.TargetContent)

	if hasImages {
		prompt += "\nIMAGES PROVIDED: Screenshots are attached. Compare visually for branding consistency and text overlays.\n"
	}
	return prompt
}
