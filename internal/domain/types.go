package domain

// ArtifactDomain tags which kind of artifact a classifier is asked to judge.
type ArtifactDomain string

const (
	DomainClaim ArtifactDomain = "claim"
	DomainMedia ArtifactDomain = "media"
)

// Verdict is the normalized label a classifier assigns to an artifact.
// Media artifacts use authentic/manipulated, claims use true/false; both
// domains share uncertain.
type Verdict string

const (
	VerdictAuthentic   Verdict = "authentic"
	VerdictManipulated Verdict = "manipulated"
	VerdictTrue        Verdict = "true"
	VerdictFalse       Verdict = "false"
	VerdictUncertain   Verdict = "uncertain"
)

// Decisive reports whether the verdict commits to an outcome.
func (v Verdict) Decisive() bool {
	return v != VerdictUncertain && v != ""
}

// Priority orders verdicts for deterministic tie-breaking: the
// alarm-raising labels outrank the benign ones, and uncertain ranks last.
func (v Verdict) Priority() int {
	switch v {
	case VerdictManipulated, VerdictFalse:
		return 2
	case VerdictAuthentic, VerdictTrue:
		return 1
	default:
		return 0
	}
}

// Valid reports whether v is one of the known verdict labels.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictAuthentic, VerdictManipulated, VerdictTrue, VerdictFalse, VerdictUncertain:
		return true
	}
	return false
}

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Well-known finding kinds.
const (
	FindingFacialInconsistency   = "facial_inconsistency"
	FindingAnatomicalError       = "anatomical_error"
	FindingAIArtifact            = "ai_artifact"
	FindingLightingAnomaly       = "lighting_anomaly"
	FindingTemporalInconsistency = "temporal_inconsistency"
	FindingMissingExif           = "missing_exif"
	FindingAISoftwareSignature   = "ai_software_signature"
	FindingSuspiciousDimensions  = "suspicious_dimensions"
	FindingTimestampAnomaly      = "timestamp_anomaly"
)

// Finding is a discrete piece of evidence surfaced by a classifier or a
// metadata rule. Findings from different sources are concatenated in source
// order and never destructively deduplicated.
type Finding struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Judgment is the normalized output of one classifier call. Immutable once
// produced.
type Judgment struct {
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Verdict    Verdict   `json:"verdict"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
	Findings   []Finding `json:"findings"`
}

// ConsensusResult is the fused outcome of reconciling one or two judgments.
// Created exclusively by the consensus resolver.
type ConsensusResult struct {
	FinalVerdict    Verdict    `json:"verdict"`
	FinalConfidence float64    `json:"confidence"`
	Agreement       bool       `json:"agreement"`
	Explanation     string     `json:"explanation"`
	Judgments       []Judgment `json:"contributingJudgments"`
	MergedFindings  []Finding  `json:"findings"`
}
