package httpx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"deepcheck/internal/domain"
)

var (
	// Compile regex once and reuse (thread-safe). Greedy match from the first
	// opening fence to the LAST closing fence so nested code blocks inside the
	// JSON payload do not truncate the extraction.
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")
)

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks.
//
// Classifier models are instructed to answer with a single JSON object, but
// several of them wrap it in ```json fences anyway. Returns the extracted
// JSON, or the original text if no code block is found.
func ExtractJSONFromMarkdown(text string) string {
	matches := jsonBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(text)
}

// ParsedJudgment is the provider-agnostic payload extracted from a
// classifier's JSON answer.
type ParsedJudgment struct {
	Verdict    domain.Verdict
	Confidence float64
	Rationale  string
	Findings   []domain.Finding
}

// ParseJudgmentResponse parses a classifier's JSON answer into a normalized
// judgment payload. Handles both markdown-wrapped and raw JSON responses,
// maps label aliases (real/fake, unverifiable) onto the canonical verdict
// set, and clamps confidence into [0, 1].
func ParseJudgmentResponse(text string) (ParsedJudgment, error) {
	jsonText := ExtractJSONFromMarkdown(text)

	var result struct {
		Verdict    string           `json:"verdict"`
		Confidence float64          `json:"confidence"`
		Reasoning  string           `json:"reasoning"`
		Findings   []domain.Finding `json:"findings"`
	}

	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return ParsedJudgment{}, fmt.Errorf("failed to parse JSON judgment: %w", err)
	}

	confidence := result.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return ParsedJudgment{
		Verdict:    NormalizeVerdict(result.Verdict),
		Confidence: confidence,
		Rationale:  result.Reasoning,
		Findings:   result.Findings,
	}, nil
}

// NormalizeVerdict maps the label variants the underlying services emit onto
// the canonical verdict set. Unknown labels collapse to uncertain rather
// than erroring: an unparseable label is an abstention, not a failure.
func NormalizeVerdict(label string) domain.Verdict {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "authentic", "real", "genuine":
		return domain.VerdictAuthentic
	case "manipulated", "fake", "deepfake", "synthetic":
		return domain.VerdictManipulated
	case "true":
		return domain.VerdictTrue
	case "false":
		return domain.VerdictFalse
	default:
		return domain.VerdictUncertain
	}
}
