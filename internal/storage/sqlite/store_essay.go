package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutEssayDraft persists an essay draft record.
func (s *Store) PutEssayDraft(ctx context.Context, record storage.EssayDraftRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("draft id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Topic) == "" {
		return fmt.Errorf("topic is required")
	}

	outline, err := encodeJSON(record.Outline)
	if err != nil {
		return fmt.Errorf("put essay draft: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO essay_drafts (id, user_id, topic, outline, content, parent_draft_id, instructions, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	outline = excluded.outline,
	content = excluded.content,
	instructions = excluded.instructions
`,
		record.ID,
		record.UserID,
		record.Topic,
		outline,
		record.Content,
		record.ParentDraftID,
		record.Instructions,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put essay draft: %w", err)
	}
	return nil
}

// GetEssayDraft fetches an essay draft record by ID.
func (s *Store) GetEssayDraft(ctx context.Context, draftID string) (storage.EssayDraftRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EssayDraftRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EssayDraftRecord{}, fmt.Errorf("storage is not configured")
	}
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return storage.EssayDraftRecord{}, fmt.Errorf("draft id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, topic, outline, content, parent_draft_id, instructions, created_at
FROM essay_drafts
WHERE id = ?
`, draftID)

	rec, err := scanEssayDraft(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EssayDraftRecord{}, storage.ErrNotFound
		}
		return storage.EssayDraftRecord{}, fmt.Errorf("get essay draft: %w", err)
	}
	return rec, nil
}

// ListEssayDraftsByUser returns essay drafts for one user ordered by id.
func (s *Store) ListEssayDraftsByUser(ctx context.Context, userID string, limit int) ([]storage.EssayDraftRecord, error) {
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
SELECT id, user_id, topic, outline, content, parent_draft_id, instructions, created_at
FROM essay_drafts
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list essay drafts: %w", err)
	}
	defer rows.Close()

	var drafts []storage.EssayDraftRecord
	for rows.Next() {
		rec, err := scanEssayDraft(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list essay drafts: %w", err)
		}
		drafts = append(drafts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list essay drafts: %w", err)
	}
	return drafts, nil
}

func scanEssayDraft(scan func(dest ...any) error) (storage.EssayDraftRecord, error) {
	var (
		rec        storage.EssayDraftRecord
		outlineRaw string
		createdAt  int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Topic,
		&outlineRaw,
		&rec.Content,
		&rec.ParentDraftID,
		&rec.Instructions,
		&createdAt,
	); err != nil {
		return storage.EssayDraftRecord{}, err
	}
	outline, err := decodeJSON[string](outlineRaw)
	if err != nil {
		return storage.EssayDraftRecord{}, err
	}
	rec.Outline = outline
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
