package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcheck/internal/domain"
)

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced json block",
			input:    "```json\n{\"verdict\": \"authentic\"}\n```",
			expected: `{"verdict": "authentic"}`,
		},
		{
			name:     "fenced block without language",
			input:    "```\n{\"verdict\": \"fake\"}\n```",
			expected: `{"verdict": "fake"}`,
		},
		{
			name:     "raw json untouched",
			input:    `{"verdict": "true"}`,
			expected: `{"verdict": "true"}`,
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  {\"verdict\": \"false\"}  \n",
			expected: `{"verdict": "false"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONFromMarkdown(tt.input))
		})
	}
}

func TestParseJudgmentResponse(t *testing.T) {
	// Given
	payload := "```json\n" + `{
		"verdict": "manipulated",
		"confidence": 0.87,
		"reasoning": "Inconsistent specular highlights across both eyes.",
		"findings": [
			{"kind": "lighting_anomaly", "description": "mismatched catchlights", "severity": "high"}
		]
	}` + "\n```"

	// When
	parsed, err := ParseJudgmentResponse(payload)

	// Then
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictManipulated, parsed.Verdict)
	assert.Equal(t, 0.87, parsed.Confidence)
	assert.Equal(t, "Inconsistent specular highlights across both eyes.", parsed.Rationale)
	require.Len(t, parsed.Findings, 1)
	assert.Equal(t, domain.FindingLightingAnomaly, parsed.Findings[0].Kind)
}

func TestParseJudgmentResponse_ClampsConfidence(t *testing.T) {
	// Given
	over := `{"verdict": "authentic", "confidence": 1.4}`
	under := `{"verdict": "authentic", "confidence": -0.2}`

	// When
	parsedOver, errOver := ParseJudgmentResponse(over)
	parsedUnder, errUnder := ParseJudgmentResponse(under)

	// Then
	require.NoError(t, errOver)
	require.NoError(t, errUnder)
	assert.Equal(t, 1.0, parsedOver.Confidence)
	assert.Equal(t, 0.0, parsedUnder.Confidence)
}

func TestParseJudgmentResponse_InvalidJSON(t *testing.T) {
	// When
	_, err := ParseJudgmentResponse("the image looks fine to me")

	// Then
	assert.Error(t, err)
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		label    string
		expected domain.Verdict
	}{
		{"authentic", domain.VerdictAuthentic},
		{"REAL", domain.VerdictAuthentic},
		{"genuine", domain.VerdictAuthentic},
		{"manipulated", domain.VerdictManipulated},
		{"fake", domain.VerdictManipulated},
		{"deepfake", domain.VerdictManipulated},
		{"synthetic", domain.VerdictManipulated},
		{"true", domain.VerdictTrue},
		{"false", domain.VerdictFalse},
		{" True ", domain.VerdictTrue},
		{"unverifiable", domain.VerdictUncertain},
		{"probably fine", domain.VerdictUncertain},
		{"", domain.VerdictUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeVerdict(tt.label))
		})
	}
}
