package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutQuizSet persists a quiz set record.
func (s *Store) PutQuizSet(ctx context.Context, record storage.QuizSetRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("quiz set id is required")
	}
	if strings.TrimSpace(record.NoteID) == "" {
		return fmt.Errorf("note id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	questions, err := encodeJSON(record.Questions)
	if err != nil {
		return fmt.Errorf("put quiz set: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO quiz_sets (id, note_id, user_id, topic, questions, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	topic = excluded.topic,
	questions = excluded.questions
`,
		record.ID,
		record.NoteID,
		record.UserID,
		record.Topic,
		questions,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put quiz set: %w", err)
	}
	return nil
}

// GetQuizSet fetches a quiz set record by ID.
func (s *Store) GetQuizSet(ctx context.Context, quizSetID string) (storage.QuizSetRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.QuizSetRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.QuizSetRecord{}, fmt.Errorf("storage is not configured")
	}
	quizSetID = strings.TrimSpace(quizSetID)
	if quizSetID == "" {
		return storage.QuizSetRecord{}, fmt.Errorf("quiz set id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, note_id, user_id, topic, questions, created_at
FROM quiz_sets
WHERE id = ?
`, quizSetID)

	rec, err := scanQuizSet(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.QuizSetRecord{}, storage.ErrNotFound
		}
		return storage.QuizSetRecord{}, fmt.Errorf("get quiz set: %w", err)
	}
	return rec, nil
}

// ListQuizSetsByNote returns quiz sets generated for one note ordered by id.
func (s *Store) ListQuizSetsByNote(ctx context.Context, noteID string, limit int) ([]storage.QuizSetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, fmt.Errorf("note id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, note_id, user_id, topic, questions, created_at
FROM quiz_sets
WHERE note_id = ?
ORDER BY id
LIMIT ?
`, noteID, limit)
	if err != nil {
		return nil, fmt.Errorf("list quiz sets: %w", err)
	}
	defer rows.Close()

	var sets []storage.QuizSetRecord
	for rows.Next() {
		rec, err := scanQuizSet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list quiz sets: %w", err)
		}
		sets = append(sets, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quiz sets: %w", err)
	}
	return sets, nil
}

func scanQuizSet(scan func(dest ...any) error) (storage.QuizSetRecord, error) {
	var (
		rec          storage.QuizSetRecord
		questionsRaw string
		createdAt    int64
	)
	if err := scan(
		&rec.ID,
		&rec.NoteID,
		&rec.UserID,
		&rec.Topic,
		&questionsRaw,
		&createdAt,
	); err != nil {
		return storage.QuizSetRecord{}, err
	}
	questions, err := decodeJSON[storage.QuizQuestion](questionsRaw)
	if err != nil {
		return storage.QuizSetRecord{}, err
	}
	rec.Questions = questions
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutQuizAttempt persists a graded attempt record.
func (s *Store) PutQuizAttempt(ctx context.Context, record storage.QuizAttemptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("attempt id is required")
	}
	if strings.TrimSpace(record.QuizSetID) == "" {
		return fmt.Errorf("quiz set id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	answers, err := encodeJSON(record.Answers)
	if err != nil {
		return fmt.Errorf("put quiz attempt: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO quiz_attempts (id, quiz_set_id, user_id, answers, score, total, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	answers = excluded.answers,
	score = excluded.score,
	total = excluded.total
`,
		record.ID,
		record.QuizSetID,
		record.UserID,
		answers,
		record.Score,
		record.Total,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put quiz attempt: %w", err)
	}
	return nil
}

// ListQuizAttempts returns attempts at one quiz set ordered by id.
func (s *Store) ListQuizAttempts(ctx context.Context, quizSetID string, limit int) ([]storage.QuizAttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	quizSetID = strings.TrimSpace(quizSetID)
	if quizSetID == "" {
		return nil, fmt.Errorf("quiz set id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, quiz_set_id, user_id, answers, score, total, created_at
FROM quiz_attempts
WHERE quiz_set_id = ?
ORDER BY id
LIMIT ?
`, quizSetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []storage.QuizAttemptRecord
	for rows.Next() {
		var (
			rec        storage.QuizAttemptRecord
			answersRaw string
			createdAt  int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.QuizSetID,
			&rec.UserID,
			&answersRaw,
			&rec.Score,
			&rec.Total,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list quiz attempts: %w", err)
		}
		answers, err := decodeJSON[int](answersRaw)
		if err != nil {
			return nil, fmt.Errorf("list quiz attempts: %w", err)
		}
		rec.Answers = answers
		rec.CreatedAt = fromMillis(createdAt)
		attempts = append(attempts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}
