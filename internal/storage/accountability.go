package storage

import (
	"context"
	"time"
)

// AccountabilityGoalRecord stores one recurring study commitment.
type AccountabilityGoalRecord struct {
	ID            string
	UserID        string
	Title         string
	Cadence       time.Duration
	LastCheckinAt *time.Time
	Active        bool
	CreatedAt     time.Time
}

// AccountabilityCheckinRecord stores one check-in or agent nudge for a goal.
type AccountabilityCheckinRecord struct {
	ID        string
	GoalID    string
	Kind      string
	Message   string
	CreatedAt time.Time
}

// Check-in kinds.
const (
	// CheckinKindUser marks a check-in the user recorded themselves.
	CheckinKindUser = "user"
	// CheckinKindNudge marks a generated reminder from the accountability agent.
	CheckinKindNudge = "nudge"
)

// AccountabilityStore persists goals and check-ins.
type AccountabilityStore interface {
	PutAccountabilityGoal(ctx context.Context, record AccountabilityGoalRecord) error
	GetAccountabilityGoal(ctx context.Context, goalID string) (AccountabilityGoalRecord, error)
	// ListOverdueAccountabilityGoals returns active goals whose last check-in
	// is older than their cadence at the given time.
	ListOverdueAccountabilityGoals(ctx context.Context, now time.Time, limit int) ([]AccountabilityGoalRecord, error)
	MarkAccountabilityGoalCheckedIn(ctx context.Context, goalID string, checkedInAt time.Time) error
	PutAccountabilityCheckin(ctx context.Context, record AccountabilityCheckinRecord) error
	ListAccountabilityCheckins(ctx context.Context, goalID string, limit int) ([]AccountabilityCheckinRecord, error)
}
