package storage

import (
	"context"
	"time"
)

// CareerMilestone is one step in a generated career plan.
type CareerMilestone struct {
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	TargetDate string `json:"target_date"`
	Status     string `json:"status"`
}

// CareerPlanRecord stores one career plan with its milestone list.
type CareerPlanRecord struct {
	ID         string
	UserID     string
	Goal       string
	Milestones []CareerMilestone
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CareerStore persists career plans.
type CareerStore interface {
	PutCareerPlan(ctx context.Context, record CareerPlanRecord) error
	GetCareerPlan(ctx context.Context, planID string) (CareerPlanRecord, error)
	ListCareerPlansByUser(ctx context.Context, userID string, limit int) ([]CareerPlanRecord, error)
}
