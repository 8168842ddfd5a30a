package storage

import (
	"context"
	"time"
)

// Exam session statuses.
const (
	// ExamStatusActive marks a session still inside its time window.
	ExamStatusActive = "active"
	// ExamStatusSubmitted marks a session the user finished in time.
	ExamStatusSubmitted = "submitted"
	// ExamStatusExpired marks a session the launcher closed at its deadline.
	ExamStatusExpired = "expired"
)

// ExamSessionRecord stores one timed exam session.
type ExamSessionRecord struct {
	ID          string
	UserID      string
	QuizSetID   string
	Status      string
	StartedAt   time.Time
	DeadlineAt  time.Time
	SubmittedAt *time.Time
	Score       int
	Total       int
}

// ExamStore persists exam sessions.
type ExamStore interface {
	PutExamSession(ctx context.Context, record ExamSessionRecord) error
	GetExamSession(ctx context.Context, sessionID string) (ExamSessionRecord, error)
	// ListExpiredExamSessions returns active sessions whose deadline passed.
	ListExpiredExamSessions(ctx context.Context, now time.Time, limit int) ([]ExamSessionRecord, error)
	// CloseExamSession transitions an active session to submitted or expired.
	// It returns ErrConflict when the session is no longer active.
	CloseExamSession(ctx context.Context, sessionID string, status string, closedAt time.Time, score int, total int) error
}
