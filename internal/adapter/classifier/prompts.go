package classifier

import (
	"fmt"

	"deepcheck/internal/domain"
	"deepcheck/internal/usecase/verify"
)

// mediaPrompt instructs vision models to hunt for generation artifacts rather
// than describe the image. The adversarial framing matters: vision models
// default to flattering descriptions and will call obvious composites
// "photorealistic" unless pushed into a forensic stance.
const mediaPrompt = `You are a forensic image analyst. Your only job is to find flaws in this image. Do not praise its quality.

Perform these checks in order:

1. HANDS AND FINGERS (critical):
   - Locate every hand in the image and count the fingers on each.
   - Check for malformed joints, merging fingers, or impossible grips.
   - More or fewer than five fingers without explanation, or merged fingers, means manipulated.

2. EYES AND FACE:
   - Are the pupils circular? Do the reflections in both eyes match?
   - Are the teeth individual or a solid white bar?
   - Check for asymmetric ears, earrings, or glasses frames.

3. PHYSICS:
   - Do shadows fall in a consistent direction?
   - Do reflections match the objects casting them?
   - Does background geometry stay straight where it should?

4. TEXTURE:
   - Glossy or plastic-looking skin with otherwise perfect lighting suggests synthesis.
   - Look for smearing or repeated patterns in hair and fabric.

Verdict rules:
- Any anatomical error means manipulated with high confidence.
- Any strong physics error means manipulated.
- Plausible but unverifiable means uncertain.
- Only answer authentic if you find no flaws after deep scrutiny.

Respond with a single JSON object and nothing else:
{
  "verdict": "authentic" | "manipulated" | "uncertain",
  "confidence": <float 0.0-1.0>,
  "reasoning": "what you checked and what you found",
  "findings": [
    {"kind": "facial_inconsistency" | "anatomical_error" | "ai_artifact" | "lighting_anomaly", "description": "...", "severity": "low" | "medium" | "high"}
  ]
}`

// claimPromptTemplate instructs text models to fact-check a single claim.
const claimPromptTemplate = `You are an expert fact-checker. Analyze this claim and determine its veracity.

CLAIM: %s

Your task:
1. Assess whether the claim is true, false, or uncertain.
2. Provide a confidence score between 0.0 and 1.0.
3. Explain your reasoning with specific evidence.

Consider:
- Is the claim factually accurate?
- Is the claim taken out of context?
- Are there logical fallacies or misleading elements?

Answer uncertain when the claim cannot be assessed from general knowledge, and say why.

Respond with a single JSON object and nothing else:
{
  "verdict": "true" | "false" | "uncertain",
  "confidence": <float 0.0-1.0>,
  "reasoning": "detailed explanation of your assessment",
  "findings": []
}`

// BuildPrompt returns the instruction text for a classification request.
func BuildPrompt(req verify.ProviderRequest) string {
	if req.Domain == domain.DomainClaim {
		return fmt.Sprintf(claimPromptTemplate, req.Text)
	}
	return mediaPrompt
}
