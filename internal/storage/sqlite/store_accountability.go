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

// PutAccountabilityGoal persists a goal record.
func (s *Store) PutAccountabilityGoal(ctx context.Context, record storage.AccountabilityGoalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("goal id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if record.Cadence <= 0 {
		return fmt.Errorf("cadence must be greater than zero")
	}

	var lastCheckin sql.NullInt64
	if record.LastCheckinAt != nil {
		lastCheckin = sql.NullInt64{Int64: toMillis(*record.LastCheckinAt), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO accountability_goals (id, user_id, title, cadence_ms, last_checkin_at, active, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	cadence_ms = excluded.cadence_ms,
	last_checkin_at = excluded.last_checkin_at,
	active = excluded.active
`,
		record.ID,
		record.UserID,
		record.Title,
		record.Cadence.Milliseconds(),
		lastCheckin,
		boolToInt(record.Active),
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put accountability goal: %w", err)
	}
	return nil
}

// GetAccountabilityGoal fetches a goal record by ID.
func (s *Store) GetAccountabilityGoal(ctx context.Context, goalID string) (storage.AccountabilityGoalRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountabilityGoalRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AccountabilityGoalRecord{}, fmt.Errorf("storage is not configured")
	}
	goalID = strings.TrimSpace(goalID)
	if goalID == "" {
		return storage.AccountabilityGoalRecord{}, fmt.Errorf("goal id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, title, cadence_ms, last_checkin_at, active, created_at
FROM accountability_goals
WHERE id = ?
`, goalID)

	rec, err := scanAccountabilityGoal(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AccountabilityGoalRecord{}, storage.ErrNotFound
		}
		return storage.AccountabilityGoalRecord{}, fmt.Errorf("get accountability goal: %w", err)
	}
	return rec, nil
}

// ListOverdueAccountabilityGoals returns active goals whose last check-in is
// older than their cadence at the given time. Goals never checked in are
// overdue once their cadence has elapsed since creation.
func (s *Store) ListOverdueAccountabilityGoals(ctx context.Context, now time.Time, limit int) ([]storage.AccountabilityGoalRecord, error) {
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
SELECT id, user_id, title, cadence_ms, last_checkin_at, active, created_at
FROM accountability_goals
WHERE active = 1 AND COALESCE(last_checkin_at, created_at) + cadence_ms <= ?
ORDER BY id
LIMIT ?
`, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue goals: %w", err)
	}
	defer rows.Close()

	var goals []storage.AccountabilityGoalRecord
	for rows.Next() {
		rec, err := scanAccountabilityGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list overdue goals: %w", err)
		}
		goals = append(goals, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overdue goals: %w", err)
	}
	return goals, nil
}

// MarkAccountabilityGoalCheckedIn records when a goal was last checked in.
func (s *Store) MarkAccountabilityGoalCheckedIn(ctx context.Context, goalID string, checkedInAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	goalID = strings.TrimSpace(goalID)
	if goalID == "" {
		return fmt.Errorf("goal id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accountability_goals SET last_checkin_at = ? WHERE id = ?
`, toMillis(checkedInAt), goalID)
	if err != nil {
		return fmt.Errorf("mark goal checked in: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark goal checked in: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAccountabilityGoal(scan func(dest ...any) error) (storage.AccountabilityGoalRecord, error) {
	var (
		rec         storage.AccountabilityGoalRecord
		cadenceMS   int64
		lastCheckin sql.NullInt64
		active      int
		createdAt   int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Title,
		&cadenceMS,
		&lastCheckin,
		&active,
		&createdAt,
	); err != nil {
		return storage.AccountabilityGoalRecord{}, err
	}
	rec.Cadence = time.Duration(cadenceMS) * time.Millisecond
	if lastCheckin.Valid {
		checkedIn := fromMillis(lastCheckin.Int64)
		rec.LastCheckinAt = &checkedIn
	}
	rec.Active = active != 0
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// PutAccountabilityCheckin persists one check-in record.
func (s *Store) PutAccountabilityCheckin(ctx context.Context, record storage.AccountabilityCheckinRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("checkin id is required")
	}
	if strings.TrimSpace(record.GoalID) == "" {
		return fmt.Errorf("goal id is required")
	}
	if strings.TrimSpace(record.Kind) == "" {
		return fmt.Errorf("kind is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO accountability_checkins (id, goal_id, kind, message, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	message = excluded.message
`,
		record.ID,
		record.GoalID,
		record.Kind,
		record.Message,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put accountability checkin: %w", err)
	}
	return nil
}

// ListAccountabilityCheckins returns check-ins for one goal ordered by id.
func (s *Store) ListAccountabilityCheckins(ctx context.Context, goalID string, limit int) ([]storage.AccountabilityCheckinRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	goalID = strings.TrimSpace(goalID)
	if goalID == "" {
		return nil, fmt.Errorf("goal id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, goal_id, kind, message, created_at
FROM accountability_checkins
WHERE goal_id = ?
ORDER BY id
LIMIT ?
`, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list accountability checkins: %w", err)
	}
	defer rows.Close()

	var checkins []storage.AccountabilityCheckinRecord
	for rows.Next() {
		var (
			rec       storage.AccountabilityCheckinRecord
			createdAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.GoalID,
			&rec.Kind,
			&rec.Message,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list accountability checkins: %w", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		checkins = append(checkins, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accountability checkins: %w", err)
	}
	return checkins, nil
}
