package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutUser persists a user record, updating it when the id already exists.
func (s *Store) PutUser(ctx context.Context, record storage.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Email) == "" {
		return fmt.Errorf("email is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (id, email, display_name, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	email = excluded.email,
	display_name = excluded.display_name
`,
		record.ID,
		record.Email,
		record.DisplayName,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser fetches a user record by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (storage.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserRecord{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.UserRecord{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, display_name, created_at
FROM users
WHERE id = ?
`, userID)
	return scanUserRow(row)
}

// GetUserByEmail fetches a user record by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserRecord{}, fmt.Errorf("storage is not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return storage.UserRecord{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, display_name, created_at
FROM users
WHERE email = ?
`, email)
	return scanUserRow(row)
}

func scanUserRow(row *sql.Row) (storage.UserRecord, error) {
	var rec storage.UserRecord
	var createdAt int64
	if err := row.Scan(&rec.ID, &rec.Email, &rec.DisplayName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserRecord{}, storage.ErrNotFound
		}
		return storage.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutNote persists a note record, updating it when the id already exists.
func (s *Store) PutNote(ctx context.Context, record storage.NoteRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("note id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Title) == "" {
		return fmt.Errorf("title is required")
	}

	keyPoints, err := encodeJSON(record.KeyPoints)
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO notes (id, user_id, title, content, summary, key_points, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	content = excluded.content,
	summary = excluded.summary,
	key_points = excluded.key_points,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.UserID,
		record.Title,
		record.Content,
		record.Summary,
		keyPoints,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}
	return nil
}

// GetNote fetches a note record by ID.
func (s *Store) GetNote(ctx context.Context, noteID string) (storage.NoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NoteRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NoteRecord{}, fmt.Errorf("storage is not configured")
	}
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return storage.NoteRecord{}, fmt.Errorf("note id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, title, content, summary, key_points, created_at, updated_at
FROM notes
WHERE id = ?
`, noteID)

	rec, err := scanNote(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NoteRecord{}, storage.ErrNotFound
		}
		return storage.NoteRecord{}, fmt.Errorf("get note: %w", err)
	}
	return rec, nil
}

// ListNotesByUser returns a page of notes for one user ordered by id.
func (s *Store) ListNotesByUser(ctx context.Context, userID string, pageSize int, pageToken string) (storage.NotePage, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotePage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotePage{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.NotePage{}, fmt.Errorf("user id is required")
	}
	if pageSize <= 0 {
		return storage.NotePage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(pageToken) == "" {
		rows, err = s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, title, content, summary, key_points, created_at, updated_at
FROM notes
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, title, content, summary, key_points, created_at, updated_at
FROM notes
WHERE user_id = ? AND id > ?
ORDER BY id
LIMIT ?
`, userID, strings.TrimSpace(pageToken), limit)
	}
	if err != nil {
		return storage.NotePage{}, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []storage.NoteRecord
	for rows.Next() {
		rec, err := scanNote(rows.Scan)
		if err != nil {
			return storage.NotePage{}, fmt.Errorf("list notes: %w", err)
		}
		notes = append(notes, rec)
	}
	if err := rows.Err(); err != nil {
		return storage.NotePage{}, fmt.Errorf("list notes: %w", err)
	}

	page := storage.NotePage{Notes: notes}
	if len(notes) > pageSize {
		page.Notes = notes[:pageSize]
		page.NextPageToken = notes[pageSize-1].ID
	}
	return page, nil
}

// SearchNotes returns notes whose title or content match the query substring.
func (s *Store) SearchNotes(ctx context.Context, userID string, query string, limit int) ([]storage.NoteRecord, error) {
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
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, title, content, summary, key_points, created_at, updated_at
FROM notes
WHERE user_id = ? AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
ORDER BY id
LIMIT ?
`, userID, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	var notes []storage.NoteRecord
	for rows.Next() {
		rec, err := scanNote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("search notes: %w", err)
		}
		notes = append(notes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}

// DeleteNote removes a note owned by the given user.
func (s *Store) DeleteNote(ctx context.Context, userID string, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	noteID = strings.TrimSpace(noteID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if noteID == "" {
		return fmt.Errorf("note id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM notes WHERE id = ? AND user_id = ?
`, noteID, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanNote(scan func(dest ...any) error) (storage.NoteRecord, error) {
	var (
		rec          storage.NoteRecord
		keyPointsRaw string
		createdAt    int64
		updatedAt    int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Title,
		&rec.Content,
		&rec.Summary,
		&keyPointsRaw,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.NoteRecord{}, err
	}
	keyPoints, err := decodeJSON[string](keyPointsRaw)
	if err != nil {
		return storage.NoteRecord{}, err
	}
	rec.KeyPoints = keyPoints
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}
