package domain

import "time"

// AnalysisStatus is the lifecycle state of a persisted analysis record.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the state machine permits moving to next.
// Valid transitions: pending → analyzing → {completed, failed}.
func (s AnalysisStatus) CanTransitionTo(next AnalysisStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAnalyzing
	case StatusAnalyzing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// MediaKind distinguishes the media decode/analysis path.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAnalysis is the persisted record for one submitted media artifact.
// Mutated only by the verification orchestrator through the state machine;
// never mutated after reaching a terminal status.
type MediaAnalysis struct {
	ID            string           `json:"id"`
	FileName      string           `json:"fileName"`
	FilePath      string           `json:"-"`
	Kind          MediaKind        `json:"kind"`
	SizeBytes     int64            `json:"sizeBytes"`
	Status        AnalysisStatus   `json:"status"`
	Result        *ConsensusResult `json:"result,omitempty"`
	FailureReason string           `json:"failureReason,omitempty"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

// ClaimAnalysis is the persisted record for one submitted textual claim.
type ClaimAnalysis struct {
	ID               string           `json:"id"`
	Text             string           `json:"text"`
	SourceURL        string           `json:"sourceUrl,omitempty"`
	SourceTitle      string           `json:"sourceTitle,omitempty"`
	Status           AnalysisStatus   `json:"status"`
	Result           *ConsensusResult `json:"result,omitempty"`
	CredibilityScore float64          `json:"credibilityScore"`
	FailureReason    string           `json:"failureReason,omitempty"`
	SubmittedAt      time.Time        `json:"submittedAt"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
}

// FileMetadata is the file-level metadata the heuristic scorer operates on.
// Nil time fields mean the value was absent from the file.
type FileMetadata struct {
	Width       int
	Height      int
	HasExif     bool
	Software    string
	CaptureTime *time.Time
	ModifyTime  *time.Time
}
