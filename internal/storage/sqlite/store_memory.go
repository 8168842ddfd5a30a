package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutMemoryConcept persists a memory concept record.
func (s *Store) PutMemoryConcept(ctx context.Context, record storage.MemoryConceptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("concept id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if record.StabilityHours <= 0 {
		return fmt.Errorf("stability hours must be greater than zero")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO memory_concepts (id, user_id, note_id, name, stability_hours, last_reviewed_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	stability_hours = excluded.stability_hours,
	last_reviewed_at = excluded.last_reviewed_at
`,
		record.ID,
		record.UserID,
		record.NoteID,
		record.Name,
		record.StabilityHours,
		toMillis(record.LastReviewedAt),
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put memory concept: %w", err)
	}
	return nil
}

// GetMemoryConcept fetches a memory concept record by ID.
func (s *Store) GetMemoryConcept(ctx context.Context, conceptID string) (storage.MemoryConceptRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemoryConceptRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemoryConceptRecord{}, fmt.Errorf("storage is not configured")
	}
	conceptID = strings.TrimSpace(conceptID)
	if conceptID == "" {
		return storage.MemoryConceptRecord{}, fmt.Errorf("concept id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, note_id, name, stability_hours, last_reviewed_at, created_at
FROM memory_concepts
WHERE id = ?
`, conceptID)

	rec, err := scanMemoryConcept(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MemoryConceptRecord{}, storage.ErrNotFound
		}
		return storage.MemoryConceptRecord{}, fmt.Errorf("get memory concept: %w", err)
	}
	return rec, nil
}

// ListMemoryConceptsByUser returns memory concepts for one user ordered by id.
func (s *Store) ListMemoryConceptsByUser(ctx context.Context, userID string, limit int) ([]storage.MemoryConceptRecord, error) {
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
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, note_id, name, stability_hours, last_reviewed_at, created_at
FROM memory_concepts
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list memory concepts: %w", err)
	}
	defer rows.Close()

	var concepts []storage.MemoryConceptRecord
	for rows.Next() {
		rec, err := scanMemoryConcept(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list memory concepts: %w", err)
		}
		concepts = append(concepts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memory concepts: %w", err)
	}
	return concepts, nil
}

func scanMemoryConcept(scan func(dest ...any) error) (storage.MemoryConceptRecord, error) {
	var (
		rec            storage.MemoryConceptRecord
		lastReviewedAt int64
		createdAt      int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.NoteID,
		&rec.Name,
		&rec.StabilityHours,
		&lastReviewedAt,
		&createdAt,
	); err != nil {
		return storage.MemoryConceptRecord{}, err
	}
	rec.LastReviewedAt = fromMillis(lastReviewedAt)
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutMemoryReview persists one review outcome.
func (s *Store) PutMemoryReview(ctx context.Context, record storage.MemoryReviewRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("review id is required")
	}
	if strings.TrimSpace(record.ConceptID) == "" {
		return fmt.Errorf("concept id is required")
	}
	if strings.TrimSpace(record.Outcome) == "" {
		return fmt.Errorf("outcome is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO memory_reviews (id, concept_id, reviewed_at, retention, outcome)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	retention = excluded.retention,
	outcome = excluded.outcome
`,
		record.ID,
		record.ConceptID,
		toMillis(record.ReviewedAt),
		record.Retention,
		record.Outcome,
	)
	if err != nil {
		return fmt.Errorf("put memory review: %w", err)
	}
	return nil
}

// ListMemoryReviews returns reviews for one concept ordered by id.
func (s *Store) ListMemoryReviews(ctx context.Context, conceptID string, limit int) ([]storage.MemoryReviewRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	conceptID = strings.TrimSpace(conceptID)
	if conceptID == "" {
		return nil, fmt.Errorf("concept id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, concept_id, reviewed_at, retention, outcome
FROM memory_reviews
WHERE concept_id = ?
ORDER BY id
LIMIT ?
`, conceptID, limit)
	if err != nil {
		return nil, fmt.Errorf("list memory reviews: %w", err)
	}
	defer rows.Close()

	var reviews []storage.MemoryReviewRecord
	for rows.Next() {
		var (
			rec        storage.MemoryReviewRecord
			reviewedAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ConceptID,
			&reviewedAt,
			&rec.Retention,
			&rec.Outcome,
		); err != nil {
			return nil, fmt.Errorf("list memory reviews: %w", err)
		}
		rec.ReviewedAt = fromMillis(reviewedAt)
		reviews = append(reviews, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memory reviews: %w", err)
	}
	return reviews, nil
}
