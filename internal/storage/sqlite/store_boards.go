package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutDiscussion persists a discussion record.
func (s *Store) PutDiscussion(ctx context.Context, record storage.DiscussionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("discussion id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Topic) == "" {
		return fmt.Errorf("topic is required")
	}

	personas, err := encodeJSON(record.Personas)
	if err != nil {
		return fmt.Errorf("put discussion: %w", err)
	}
	transcript, err := encodeJSON(record.Transcript)
	if err != nil {
		return fmt.Errorf("put discussion: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO discussions (id, user_id, topic, personas, transcript, rounds, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	transcript = excluded.transcript,
	rounds = excluded.rounds
`,
		record.ID,
		record.UserID,
		record.Topic,
		personas,
		transcript,
		record.Rounds,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put discussion: %w", err)
	}
	return nil
}

// GetDiscussion fetches a discussion record by ID.
func (s *Store) GetDiscussion(ctx context.Context, discussionID string) (storage.DiscussionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.DiscussionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DiscussionRecord{}, fmt.Errorf("storage is not configured")
	}
	discussionID = strings.TrimSpace(discussionID)
	if discussionID == "" {
		return storage.DiscussionRecord{}, fmt.Errorf("discussion id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, topic, personas, transcript, rounds, created_at
FROM discussions
WHERE id = ?
`, discussionID)

	rec, err := scanDiscussion(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.DiscussionRecord{}, storage.ErrNotFound
		}
		return storage.DiscussionRecord{}, fmt.Errorf("get discussion: %w", err)
	}
	return rec, nil
}

// ListDiscussionsByUser returns discussions for one user ordered by id.
func (s *Store) ListDiscussionsByUser(ctx context.Context, userID string, limit int) ([]storage.DiscussionRecord, error) {
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
SELECT id, user_id, topic, personas, transcript, rounds, created_at
FROM discussions
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	defer rows.Close()

	var discussions []storage.DiscussionRecord
	for rows.Next() {
		rec, err := scanDiscussion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list discussions: %w", err)
		}
		discussions = append(discussions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	return discussions, nil
}

func scanDiscussion(scan func(dest ...any) error) (storage.DiscussionRecord, error) {
	var (
		rec           storage.DiscussionRecord
		personasRaw   string
		transcriptRaw string
		createdAt     int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Topic,
		&personasRaw,
		&transcriptRaw,
		&rec.Rounds,
		&createdAt,
	); err != nil {
		return storage.DiscussionRecord{}, err
	}
	personas, err := decodeJSON[string](personasRaw)
	if err != nil {
		return storage.DiscussionRecord{}, err
	}
	transcript, err := decodeJSON[storage.DiscussionTurn](transcriptRaw)
	if err != nil {
		return storage.DiscussionRecord{}, err
	}
	rec.Personas = personas
	rec.Transcript = transcript
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutWhiteboard persists a whiteboard record.
func (s *Store) PutWhiteboard(ctx context.Context, record storage.WhiteboardRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("board id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Title) == "" {
		return fmt.Errorf("title is required")
	}

	elements, err := encodeJSON(record.Elements)
	if err != nil {
		return fmt.Errorf("put whiteboard: %w", err)
	}
	links, err := encodeJSON(record.Links)
	if err != nil {
		return fmt.Errorf("put whiteboard: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO whiteboards (id, user_id, title, elements, links, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	elements = excluded.elements,
	links = excluded.links,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.UserID,
		record.Title,
		elements,
		links,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put whiteboard: %w", err)
	}
	return nil
}

// GetWhiteboard fetches a whiteboard record by ID.
func (s *Store) GetWhiteboard(ctx context.Context, boardID string) (storage.WhiteboardRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.WhiteboardRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.WhiteboardRecord{}, fmt.Errorf("storage is not configured")
	}
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return storage.WhiteboardRecord{}, fmt.Errorf("board id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, title, elements, links, created_at, updated_at
FROM whiteboards
WHERE id = ?
`, boardID)

	rec, err := scanWhiteboard(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.WhiteboardRecord{}, storage.ErrNotFound
		}
		return storage.WhiteboardRecord{}, fmt.Errorf("get whiteboard: %w", err)
	}
	return rec, nil
}

// ListWhiteboardsByUser returns whiteboards for one user ordered by id.
func (s *Store) ListWhiteboardsByUser(ctx context.Context, userID string, limit int) ([]storage.WhiteboardRecord, error) {
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
SELECT id, user_id, title, elements, links, created_at, updated_at
FROM whiteboards
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}
	defer rows.Close()

	var boards []storage.WhiteboardRecord
	for rows.Next() {
		rec, err := scanWhiteboard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list whiteboards: %w", err)
		}
		boards = append(boards, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}
	return boards, nil
}

// DeleteWhiteboard removes a whiteboard owned by the given user.
func (s *Store) DeleteWhiteboard(ctx context.Context, userID string, boardID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	boardID = strings.TrimSpace(boardID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if boardID == "" {
		return fmt.Errorf("board id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM whiteboards WHERE id = ? AND user_id = ?
`, boardID, userID)
	if err != nil {
		return fmt.Errorf("delete whiteboard: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete whiteboard: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanWhiteboard(scan func(dest ...any) error) (storage.WhiteboardRecord, error) {
	var (
		rec         storage.WhiteboardRecord
		elementsRaw string
		linksRaw    string
		createdAt   int64
		updatedAt   int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Title,
		&elementsRaw,
		&linksRaw,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.WhiteboardRecord{}, err
	}
	elements, err := decodeJSON[storage.BoardElement](elementsRaw)
	if err != nil {
		return storage.WhiteboardRecord{}, err
	}
	links, err := decodeJSON[storage.BoardLink](linksRaw)
	if err != nil {
		return storage.WhiteboardRecord{}, err
	}
	rec.Elements = elements
	rec.Links = links
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
