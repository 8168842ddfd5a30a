package storage

import (
	"context"
	"time"
)

// EssayDraftRecord stores one essay outline or draft revision.
//
// Revisions link to their parent through ParentDraftID, forming a linear
// history per topic.
type EssayDraftRecord struct {
	ID            string
	UserID        string
	Topic         string
	Outline       []string
	Content       string
	ParentDraftID string
	Instructions  string
	CreatedAt     time.Time
}

// EssayStore persists essay drafts.
type EssayStore interface {
	PutEssayDraft(ctx context.Context, record EssayDraftRecord) error
	GetEssayDraft(ctx context.Context, draftID string) (EssayDraftRecord, error)
	ListEssayDraftsByUser(ctx context.Context, userID string, limit int) ([]EssayDraftRecord, error)
}
