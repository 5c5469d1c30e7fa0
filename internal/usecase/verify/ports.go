package verify

import (
	"context"

	"deepcheck/internal/domain"
)

// ProviderRequest describes one classification task handed to an adapter.
// Exactly one payload field is populated: Text for claims, Image for media.
type ProviderRequest struct {
	Domain   domain.ArtifactDomain
	Text     string
	Image    []byte
	MIMEType string
}

// Provider is the port every classifier adapter implements. Evaluate returns
// the adapter's independent judgment, or an error the orchestrator maps onto
// the degraded/failed paths.
type Provider interface {
	Name() string
	Evaluate(ctx context.Context, req ProviderRequest) (domain.Judgment, error)
}

// MediaStore persists media analysis records.
type MediaStore interface {
	SaveMediaAnalysis(ctx context.Context, analysis domain.MediaAnalysis) error
	GetMediaAnalysis(ctx context.Context, id string) (domain.MediaAnalysis, error)
	ListMediaAnalyses(ctx context.Context, limit int) ([]domain.MediaAnalysis, error)
}

// ClaimStore persists claim analysis records.
type ClaimStore interface {
	SaveClaimAnalysis(ctx context.Context, analysis domain.ClaimAnalysis) error
	GetClaimAnalysis(ctx context.Context, id string) (domain.ClaimAnalysis, error)
	ListClaimAnalyses(ctx context.Context, limit int) ([]domain.ClaimAnalysis, error)
}

// FrameSource extracts still frames from a video artifact.
type FrameSource interface {
	// Duration reports the length of the video in seconds.
	Duration(ctx context.Context, path string) (float64, error)

	// FrameAt extracts the frame nearest the given offset as an encoded image.
	FrameAt(ctx context.Context, path string, offsetSeconds float64) ([]byte, string, error)
}

// MetadataProber reads file metadata from an image artifact.
type MetadataProber interface {
	Probe(ctx context.Context, path string) (domain.FileMetadata, error)
}
