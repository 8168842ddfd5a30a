package storage

import (
	"context"
	"time"
)

// EthicsIssue is one flagged issue from an ethics review.
type EthicsIssue struct {
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Excerpt   string `json:"excerpt"`
	Rationale string `json:"rationale"`
}

// EthicsReviewRecord stores the issues found in one reviewed text.
type EthicsReviewRecord struct {
	ID         string
	UserID     string
	SourceKind string
	SourceID   string
	Issues     []EthicsIssue
	CreatedAt  time.Time
}

// DatasetColumn is one described dataset column.
type DatasetColumn struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// DatasetProfileRecord stores one profiled dataset.
type DatasetProfileRecord struct {
	ID        string
	UserID    string
	Name      string
	Columns   []DatasetColumn
	Analyses  []string
	CreatedAt time.Time
}

// DebugDiagnosis is the structured result of one debugging request.
type DebugDiagnosis struct {
	Cause      string  `json:"cause"`
	Fix        string  `json:"fix"`
	Confidence float64 `json:"confidence"`
}

// DebugSessionRecord stores one code debugging request and its diagnosis.
type DebugSessionRecord struct {
	ID        string
	UserID    string
	Language  string
	Code      string
	ErrorText string
	Diagnosis DebugDiagnosis
	CreatedAt time.Time
}

// EthicsStore persists ethics reviews.
type EthicsStore interface {
	PutEthicsReview(ctx context.Context, record EthicsReviewRecord) error
	GetEthicsReview(ctx context.Context, reviewID string) (EthicsReviewRecord, error)
	ListEthicsReviewsBySource(ctx context.Context, sourceKind string, sourceID string, limit int) ([]EthicsReviewRecord, error)
}

// DatasetStore persists dataset profiles.
type DatasetStore interface {
	PutDatasetProfile(ctx context.Context, record DatasetProfileRecord) error
	GetDatasetProfile(ctx context.Context, profileID string) (DatasetProfileRecord, error)
	ListDatasetProfilesByUser(ctx context.Context, userID string, limit int) ([]DatasetProfileRecord, error)
}

// DebugStore persists debug sessions.
type DebugStore interface {
	PutDebugSession(ctx context.Context, record DebugSessionRecord) error
	GetDebugSession(ctx context.Context, sessionID string) (DebugSessionRecord, error)
	ListDebugSessionsByUser(ctx context.Context, userID string, limit int) ([]DebugSessionRecord, error)
}
