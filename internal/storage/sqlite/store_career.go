package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

// PutCareerPlan persists a career plan record.
func (s *Store) PutCareerPlan(ctx context.Context, record storage.CareerPlanRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("plan id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.Goal) == "" {
		return fmt.Errorf("goal is required")
	}

	milestones, err := encodeJSON(record.Milestones)
	if err != nil {
		return fmt.Errorf("put career plan: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO career_plans (id, user_id, goal, milestones, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	goal = excluded.goal,
	milestones = excluded.milestones,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.UserID,
		record.Goal,
		milestones,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put career plan: %w", err)
	}
	return nil
}

// GetCareerPlan fetches a career plan record by ID.
func (s *Store) GetCareerPlan(ctx context.Context, planID string) (storage.CareerPlanRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CareerPlanRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CareerPlanRecord{}, fmt.Errorf("storage is not configured")
	}
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return storage.CareerPlanRecord{}, fmt.Errorf("plan id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, goal, milestones, created_at, updated_at
FROM career_plans
WHERE id = ?
`, planID)

	rec, err := scanCareerPlan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CareerPlanRecord{}, storage.ErrNotFound
		}
		return storage.CareerPlanRecord{}, fmt.Errorf("get career plan: %w", err)
	}
	return rec, nil
}

// ListCareerPlansByUser returns career plans for one user ordered by id.
func (s *Store) ListCareerPlansByUser(ctx context.Context, userID string, limit int) ([]storage.CareerPlanRecord, error) {
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
SELECT id, user_id, goal, milestones, created_at, updated_at
FROM career_plans
WHERE user_id = ?
ORDER BY id
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list career plans: %w", err)
	}
	defer rows.Close()

	var plans []storage.CareerPlanRecord
	for rows.Next() {
		rec, err := scanCareerPlan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list career plans: %w", err)
		}
		plans = append(plans, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list career plans: %w", err)
	}
	return plans, nil
}

func scanCareerPlan(scan func(dest ...any) error) (storage.CareerPlanRecord, error) {
	var (
		rec           storage.CareerPlanRecord
		milestonesRaw string
		createdAt     int64
		updatedAt     int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Goal,
		&milestonesRaw,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.CareerPlanRecord{}, err
	}
	milestones, err := decodeJSON[storage.CareerMilestone](milestonesRaw)
	if err != nil {
		return storage.CareerPlanRecord{}, err
	}
	rec.Milestones = milestones
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
