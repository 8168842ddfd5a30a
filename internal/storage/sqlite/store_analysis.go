package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutEthicsReview persists an ethics review record.
func (s *Store) PutEthicsReview(ctx context.Context, record storage.EthicsReviewRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("review id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.SourceKind) == "" {
		return fmt.Errorf("source kind is required")
	}

	issues, err := encodeJSON(record.Issues)
	if err != nil {
		return fmt.Errorf("put ethics review: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO ethics_reviews (id, user_id, source_kind, source_id, issues, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	issues = excluded.issues
`,
		record.ID,
		record.UserID,
		record.SourceKind,
		record.SourceID,
		issues,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put ethics review: %w", err)
	}
	return nil
}

// GetEthicsReview fetches an ethics review record by ID.
func (s *Store) GetEthicsReview(ctx context.Context, reviewID string) (storage.EthicsReviewRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EthicsReviewRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EthicsReviewRecord{}, fmt.Errorf("storage is not configured")
	}
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return storage.EthicsReviewRecord{}, fmt.Errorf("review id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, source_kind, source_id, issues, created_at
FROM ethics_reviews
WHERE id = ?
`, reviewID)

	rec, err := scanEthicsReview(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EthicsReviewRecord{}, storage.ErrNotFound
		}
		return storage.EthicsReviewRecord{}, fmt.Errorf("get ethics review: %w", err)
	}
	return rec, nil
}

// ListEthicsReviewsBySource returns reviews recorded against one source.
func (s *Store) ListEthicsReviewsBySource(ctx context.Context, sourceKind string, sourceID string, limit int) ([]storage.EthicsReviewRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sourceKind = strings.TrimSpace(sourceKind)
	if sourceKind == "" {
		return nil, fmt.Errorf("source kind is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, source_kind, source_id, issues, created_at
FROM ethics_reviews
WHERE source_kind = ? AND source_id = ?
ORDER BY id
LIMIT ?
`, sourceKind, strings.TrimSpace(sourceID), limit)
	if err != nil {
		return nil, fmt.Errorf("list ethics reviews: %w", err)
	}
	defer rows.Close()

	var reviews []storage.EthicsReviewRecord
	for rows.Next() {
		rec, err := scanEthicsReview(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list ethics reviews: %w", err)
		}
		reviews = append(reviews, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ethics reviews: %w", err)
	}
	return reviews, nil
}

func scanEthicsReview(scan func(dest ...any) error) (storage.EthicsReviewRecord, error) {
	var (
		rec       storage.EthicsReviewRecord
		issuesRaw string
		createdAt int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.SourceKind,
		&rec.SourceID,
		&issuesRaw,
		&createdAt,
	); err != nil {
		return storage.EthicsReviewRecord{}, err
	}
	issues, err := decodeJSON[storage.EthicsIssue](issuesRaw)
	if err != nil {
		return storage.EthicsReviewRecord{}, err
	}
	rec.Issues = issues
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutDatasetProfile persists a dataset profile record.
func (s *Store) PutDatasetProfile(ctx context.Context, record storage.DatasetProfileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("name is required")
	}

	columns, err := encodeJSON(record.Columns)
	if err != nil {
		return fmt.Errorf("put dataset profile: %w", err)
	}
	analyses, err := encodeJSON(record.Analyses)
	if err != nil {
		return fmt.Errorf("put dataset profile: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO dataset_profiles (id, user_id, name, columns, analyses, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	columns = excluded.columns,
	analyses = excluded.analyses
`,
		record.ID,
		record.UserID,
		record.Name,
		columns,
		analyses,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put dataset profile: %w", err)
	}
	return nil
}

// GetDatasetProfile fetches a dataset profile record by ID.
func (s *Store) GetDatasetProfile(ctx context.Context, profileID string) (storage.DatasetProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.DatasetProfileRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DatasetProfileRecord{}, fmt.Errorf("storage is not configured")
	}
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return storage.DatasetProfileRecord{}, fmt.Errorf("profile id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, name, columns, analyses, created_at
FROM dataset_profiles
WHERE id = ?
`, profileID)

	rec, err := scanDatasetProfile(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.DatasetProfileRecord{}, storage.ErrNotFound
		}
		return storage.DatasetProfileRecord{}, fmt.Errorf("get dataset profile: %w", err)
	}
	return rec, nil
}

// ListDatasetProfilesByUser returns dataset profiles for one user ordered by id.
func (s *Store) ListDatasetProfilesByUser(ctx context.Context, userID string, limit int) ([]storage.DatasetProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, name, columns, analyses, created_at
FROM dataset_profiles
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list dataset profiles: %w", err)
	}
	defer rows.Close()

	var profiles []storage.DatasetProfileRecord
	for rows.Next() {
		rec, err := scanDatasetProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list dataset profiles: %w", err)
		}
		profiles = append(profiles, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dataset profiles: %w", err)
	}
	return profiles, nil
}

func scanDatasetProfile(scan func(dest ...any) error) (storage.DatasetProfileRecord, error) {
	var (
		rec         storage.DatasetProfileRecord
		columnsRaw  string
		analysesRaw string
		createdAt   int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Name,
		&columnsRaw,
		&analysesRaw,
		&createdAt,
	); err != nil {
		return storage.DatasetProfileRecord{}, err
	}
	columns, err := decodeJSON[storage.DatasetColumn](columnsRaw)
	if err != nil {
		return storage.DatasetProfileRecord{}, err
	}
	analyses, err := decodeJSON[string](analysesRaw)
	if err != nil {
		return storage.DatasetProfileRecord{}, err
	}
	rec.Columns = columns
	rec.Analyses = analyses
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutDebugSession persists a debug session record.
func (s *Store) PutDebugSession(ctx context.Context, record storage.DebugSessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Code) == "" {
		return fmt.Errorf("code is required")
	}

	diagnosis, err := json.Marshal(record.Diagnosis)
	if err != nil {
		return fmt.Errorf("put debug session: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO debug_sessions (id, user_id, language, code, error_text, diagnosis, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	diagnosis = excluded.diagnosis
`,
		record.ID,
		record.UserID,
		record.Language,
		record.Code,
		record.ErrorText,
		string(diagnosis),
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put debug session: %w", err)
	}
	return nil
}

// GetDebugSession fetches a debug session record by ID.
func (s *Store) GetDebugSession(ctx context.Context, sessionID string) (storage.DebugSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.DebugSessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DebugSessionRecord{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.DebugSessionRecord{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, language, code, error_text, diagnosis, created_at
FROM debug_sessions
WHERE id = ?
`, sessionID)

	rec, err := scanDebugSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.DebugSessionRecord{}, storage.ErrNotFound
		}
		return storage.DebugSessionRecord{}, fmt.Errorf("get debug session: %w", err)
	}
	return rec, nil
}

// ListDebugSessionsByUser returns debug sessions for one user ordered by id.
func (s *Store) ListDebugSessionsByUser(ctx context.Context, userID string, limit int) ([]storage.DebugSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, language, code, error_text, diagnosis, created_at
FROM debug_sessions
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list debug sessions: %w", err)
	}
	defer rows.Close()

	var sessions []storage.DebugSessionRecord
	for rows.Next() {
		rec, err := scanDebugSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list debug sessions: %w", err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list debug sessions: %w", err)
	}
	return sessions, nil
}

func scanDebugSession(scan func(dest ...any) error) (storage.DebugSessionRecord, error) {
	var (
		rec          storage.DebugSessionRecord
		diagnosisRaw string
		createdAt    int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Language,
		&rec.Code,
		&rec.ErrorText,
		&diagnosisRaw,
		&createdAt,
	); err != nil {
		return storage.DebugSessionRecord{}, err
	}
	diagnosisRaw = strings.TrimSpace(diagnosisRaw)
	if diagnosisRaw != "" && diagnosisRaw != "{}" {
		if err := json.Unmarshal([]byte(diagnosisRaw), &rec.Diagnosis); err != nil {
			return storage.DebugSessionRecord{}, fmt.Errorf("unmarshal diagnosis: %w", err)
		}
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
