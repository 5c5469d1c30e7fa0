package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"deepcheck/internal/domain"
)

// Store persists analysis records using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Uploaded media artifacts and their analysis lifecycle
	CREATE TABLE IF NOT EXISTS media_analyses (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		kind TEXT NOT NULL CHECK(kind IN ('image', 'video')),
		size_bytes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK(status IN ('pending', 'analyzing', 'completed', 'failed')),
		failure_reason TEXT NOT NULL DEFAULT '',
		result_json TEXT,
		submitted_at INTEGER NOT NULL,
		completed_at INTEGER
	);

	-- Submitted claims and their analysis lifecycle
	CREATE TABLE IF NOT EXISTS claim_analyses (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		source_url TEXT NOT NULL DEFAULT '',
		source_title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK(status IN ('pending', 'analyzing', 'completed', 'failed')),
		failure_reason TEXT NOT NULL DEFAULT '',
		credibility_score REAL NOT NULL DEFAULT 0.0,
		result_json TEXT,
		submitted_at INTEGER NOT NULL,
		completed_at INTEGER
	);

	-- Indexes for listing
	CREATE INDEX IF NOT EXISTS idx_media_submitted ON media_analyses(submitted_at DESC);
	CREATE INDEX IF NOT EXISTS idx_claims_submitted ON claim_analyses(submitted_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveMediaAnalysis inserts or replaces a media analysis record.
func (s *Store) SaveMediaAnalysis(ctx context.Context, analysis domain.MediaAnalysis) error {
	resultJSON, err := marshalResult(analysis.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO media_analyses
		(id, file_name, file_path, kind, size_bytes, status, failure_reason, result_json, submitted_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		analysis.ID,
		analysis.FileName,
		analysis.FilePath,
		string(analysis.Kind),
		analysis.SizeBytes,
		string(analysis.Status),
		analysis.FailureReason,
		resultJSON,
		analysis.SubmittedAt.Unix(),
		nullableUnix(analysis.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save media analysis: %w", err)
	}
	return nil
}

// GetMediaAnalysis retrieves a media analysis record by ID.
func (s *Store) GetMediaAnalysis(ctx context.Context, id string) (domain.MediaAnalysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_path, kind, size_bytes, status, failure_reason, result_json, submitted_at, completed_at
		FROM media_analyses WHERE id = ?`, id)

	var analysis domain.MediaAnalysis
	var kind, status string
	var resultJSON sql.NullString
	var submittedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&analysis.ID,
		&analysis.FileName,
		&analysis.FilePath,
		&kind,
		&analysis.SizeBytes,
		&status,
		&analysis.FailureReason,
		&resultJSON,
		&submittedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return domain.MediaAnalysis{}, fmt.Errorf("media analysis %s not found", id)
	}
	if err != nil {
		return domain.MediaAnalysis{}, fmt.Errorf("failed to get media analysis: %w", err)
	}

	analysis.Kind = domain.MediaKind(kind)
	analysis.Status = domain.AnalysisStatus(status)
	analysis.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	analysis.CompletedAt = nullableTime(completedAt)
	analysis.Result, err = unmarshalResult(resultJSON)
	if err != nil {
		return domain.MediaAnalysis{}, err
	}
	return analysis, nil
}

// ListMediaAnalyses returns media records, most recently submitted first.
func (s *Store) ListMediaAnalyses(ctx context.Context, limit int) ([]domain.MediaAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM media_analyses ORDER BY submitted_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list media analyses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan media id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	analyses := make([]domain.MediaAnalysis, 0, len(ids))
	for _, id := range ids {
		analysis, err := s.GetMediaAnalysis(ctx, id)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// SaveClaimAnalysis inserts or replaces a claim analysis record.
func (s *Store) SaveClaimAnalysis(ctx context.Context, analysis domain.ClaimAnalysis) error {
	resultJSON, err := marshalResult(analysis.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO claim_analyses
		(id, text, source_url, source_title, status, failure_reason, credibility_score, result_json, submitted_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		analysis.ID,
		analysis.Text,
		analysis.SourceURL,
		analysis.SourceTitle,
		string(analysis.Status),
		analysis.FailureReason,
		analysis.CredibilityScore,
		resultJSON,
		analysis.SubmittedAt.Unix(),
		nullableUnix(analysis.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save claim analysis: %w", err)
	}
	return nil
}

// GetClaimAnalysis retrieves a claim analysis record by ID.
func (s *Store) GetClaimAnalysis(ctx context.Context, id string) (domain.ClaimAnalysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, source_url, source_title, status, failure_reason, credibility_score, result_json, submitted_at, completed_at
		FROM claim_analyses WHERE id = ?`, id)

	var analysis domain.ClaimAnalysis
	var status string
	var resultJSON sql.NullString
	var submittedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&analysis.ID,
		&analysis.Text,
		&analysis.SourceURL,
		&analysis.SourceTitle,
		&status,
		&analysis.FailureReason,
		&analysis.CredibilityScore,
		&resultJSON,
		&submittedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return domain.ClaimAnalysis{}, fmt.Errorf("claim analysis %s not found", id)
	}
	if err != nil {
		return domain.ClaimAnalysis{}, fmt.Errorf("failed to get claim analysis: %w", err)
	}

	analysis.Status = domain.AnalysisStatus(status)
	analysis.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	analysis.CompletedAt = nullableTime(completedAt)
	analysis.Result, err = unmarshalResult(resultJSON)
	if err != nil {
		return domain.ClaimAnalysis{}, err
	}
	return analysis, nil
}

// ListClaimAnalyses returns claim records, most recently submitted first.
func (s *Store) ListClaimAnalyses(ctx context.Context, limit int) ([]domain.ClaimAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM claim_analyses ORDER BY submitted_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claim analyses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan claim id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	analyses := make([]domain.ClaimAnalysis, 0, len(ids))
	for _, id := range ids {
		analysis, err := s.GetClaimAnalysis(ctx, id)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalResult serializes the consensus result, NULL when analysis has not
// completed.
func marshalResult(result *domain.ConsensusResult) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalResult(resultJSON sql.NullString) (*domain.ConsensusResult, error) {
	if !resultJSON.Valid {
		return nil, nil
	}
	var result domain.ConsensusResult
	if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullableTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
