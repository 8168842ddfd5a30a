package storage

import (
	"context"
	"time"
)

// MemoryConceptRecord stores the retention state of one studied concept.
//
// StabilityHours is the S parameter of the forgetting curve; it grows on each
// successful review.
type MemoryConceptRecord struct {
	ID             string
	UserID         string
	NoteID         string
	Name           string
	StabilityHours float64
	LastReviewedAt time.Time
	CreatedAt      time.Time
}

// MemoryReviewRecord stores one review outcome for a concept.
type MemoryReviewRecord struct {
	ID         string
	ConceptID  string
	ReviewedAt time.Time
	Retention  float64
	Outcome    string
}

// MemoryStore persists concepts and reviews.
type MemoryStore interface {
	PutMemoryConcept(ctx context.Context, record MemoryConceptRecord) error
	GetMemoryConcept(ctx context.Context, conceptID string) (MemoryConceptRecord, error)
	ListMemoryConceptsByUser(ctx context.Context, userID string, limit int) ([]MemoryConceptRecord, error)
	PutMemoryReview(ctx context.Context, record MemoryReviewRecord) error
	ListMemoryReviews(ctx context.Context, conceptID string, limit int) ([]MemoryReviewRecord, error)
}
