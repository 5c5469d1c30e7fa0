package metadata

import (
	"fmt"
	"strings"

	"deepcheck/internal/domain"
)

// aiSoftwareSignatures are tool names whose presence in metadata software
// fields marks the file as machine-generated or machine-edited.
var aiSoftwareSignatures = []string{
	"stable diffusion",
	"midjourney",
	"dall-e",
	"dall·e",
	"firefly",
	"flux",
	"imagen",
	"comfyui",
	"automatic1111",
}

// generatorDimensions are output sizes common to image generation models.
// Real cameras produce none of these natively.
var generatorDimensions = map[[2]int]bool{
	{512, 512}:   true,
	{768, 768}:   true,
	{1024, 1024}: true,
	{512, 768}:   true,
	{768, 512}:   true,
	{1024, 768}:  true,
}

// Scorer applies deterministic heuristics over file-level metadata. It is
// pure and synchronous: no I/O, no clock, and each rule is independent and
// additive. The scorer only ever contributes findings; it never produces a
// verdict or confidence of its own.
type Scorer struct{}

// NewScorer creates a metadata scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns zero or more findings for the given metadata. Rules fire in
// a fixed order so repeated runs yield identical output.
func (s *Scorer) Score(meta domain.FileMetadata) []domain.Finding {
	findings := []domain.Finding{}

	if !meta.HasExif {
		findings = append(findings, domain.Finding{
			Kind:        domain.FindingMissingExif,
			Description: "No embedded capture metadata. Generated images and stripped re-encodes typically carry none.",
			Severity:    domain.SeverityMedium,
		})
	}

	if signature := matchAISoftware(meta.Software); signature != "" {
		findings = append(findings, domain.Finding{
			Kind:        domain.FindingAISoftwareSignature,
			Description: fmt.Sprintf("Metadata software field names a generation tool: %q.", signature),
			Severity:    domain.SeverityHigh,
		})
	}

	if generatorDimensions[[2]int{meta.Width, meta.Height}] {
		findings = append(findings, domain.Finding{
			Kind:        domain.FindingSuspiciousDimensions,
			Description: fmt.Sprintf("Dimensions %dx%d match a common generator output size.", meta.Width, meta.Height),
			Severity:    domain.SeverityLow,
		})
	}

	if meta.CaptureTime != nil && meta.ModifyTime != nil && meta.ModifyTime.Before(*meta.CaptureTime) {
		findings = append(findings, domain.Finding{
			Kind:        domain.FindingTimestampAnomaly,
			Description: "File modification timestamp precedes the recorded capture time.",
			Severity:    domain.SeverityMedium,
		})
	}

	return findings
}

func matchAISoftware(software string) string {
	lowered := strings.ToLower(software)
	if lowered == "" {
		return ""
	}
	for _, signature := range aiSoftwareSignatures {
		if strings.Contains(lowered, signature) {
			return signature
		}
	}
	return ""
}
