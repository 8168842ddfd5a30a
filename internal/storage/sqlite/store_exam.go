package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutExamSession persists an exam session record.
func (s *Store) PutExamSession(ctx context.Context, record storage.ExamSessionRecord) error {
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
	if strings.TrimSpace(record.QuizSetID) == "" {
		return fmt.Errorf("quiz set id is required")
	}
	if strings.TrimSpace(record.Status) == "" {
		return fmt.Errorf("status is required")
	}

	var submittedAt sql.NullInt64
	if record.SubmittedAt != nil {
		submittedAt = sql.NullInt64{Int64: toMillis(*record.SubmittedAt), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO exam_sessions (id, user_id, quiz_set_id, status, started_at, deadline_at, submitted_at, score, total)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	submitted_at = excluded.submitted_at,
	score = excluded.score,
	total = excluded.total
`,
		record.ID,
		record.UserID,
		record.QuizSetID,
		record.Status,
		toMillis(record.StartedAt),
		toMillis(record.DeadlineAt),
		submittedAt,
		record.Score,
		record.Total,
	)
	if err != nil {
		return fmt.Errorf("put exam session: %w", err)
	}
	return nil
}

// GetExamSession fetches an exam session record by ID.
func (s *Store) GetExamSession(ctx context.Context, sessionID string) (storage.ExamSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ExamSessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ExamSessionRecord{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.ExamSessionRecord{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, quiz_set_id, status, started_at, deadline_at, submitted_at, score, total
FROM exam_sessions
WHERE id = ?
`, sessionID)

	rec, err := scanExamSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ExamSessionRecord{}, storage.ErrNotFound
		}
		return storage.ExamSessionRecord{}, fmt.Errorf("get exam session: %w", err)
	}
	return rec, nil
}

// ListExpiredExamSessions returns active sessions whose deadline passed.
func (s *Store) ListExpiredExamSessions(ctx context.Context, now time.Time, limit int) ([]storage.ExamSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, quiz_set_id, status, started_at, deadline_at, submitted_at, score, total
FROM exam_sessions
WHERE status = ? AND deadline_at <= ?
ORDER BY id
LIMIT ?
`, storage.ExamStatusActive, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired exam sessions: %w", err)
	}
	defer rows.Close()

	var sessions []storage.ExamSessionRecord
	for rows.Next() {
		rec, err := scanExamSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list expired exam sessions: %w", err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired exam sessions: %w", err)
	}
	return sessions, nil
}

// CloseExamSession transitions an active session to submitted or expired.
// The guarded UPDATE keeps concurrent closers from double-grading.
func (s *Store) CloseExamSession(ctx context.Context, sessionID string, status string, closedAt time.Time, score int, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if status != storage.ExamStatusSubmitted && status != storage.ExamStatusExpired {
		return fmt.Errorf("status must be submitted or expired")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE exam_sessions
SET status = ?, submitted_at = ?, score = ?, total = ?
WHERE id = ? AND status = ?
`, status, toMillis(closedAt), score, total, sessionID, storage.ExamStatusActive)
	if err != nil {
		return fmt.Errorf("close exam session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close exam session: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.GetExamSession(ctx, sessionID); getErr != nil {
			return getErr
		}
		return storage.ErrConflict
	}
	return nil
}

func scanExamSession(scan func(dest ...any) error) (storage.ExamSessionRecord, error) {
	var (
		rec         storage.ExamSessionRecord
		startedAt   int64
		deadlineAt  int64
		submittedAt sql.NullInt64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.QuizSetID,
		&rec.Status,
		&startedAt,
		&deadlineAt,
		&submittedAt,
		&rec.Score,
		&rec.Total,
	); err != nil {
		return storage.ExamSessionRecord{}, err
	}
	rec.StartedAt = fromMillis(startedAt)
	rec.DeadlineAt = fromMillis(deadlineAt)
	if submittedAt.Valid {
		submitted := fromMillis(submittedAt.Int64)
		rec.SubmittedAt = &submitted
	}
	return rec, nil
}
