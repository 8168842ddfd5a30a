package storage

import (
	"context"
	"time"
)

// ResearchSourceRecord stores one monitored URL.
type ResearchSourceRecord struct {
	ID            string
	UserID        string
	URL           string
	Title         string
	CheckInterval time.Duration
	LastCheckedAt *time.Time
	CreatedAt     time.Time
}

// ResearchFindingRecord stores one extracted-and-summarized article snapshot.
type ResearchFindingRecord struct {
	ID        string
	SourceID  string
	Title     string
	Summary   string
	Markdown  string
	CreatedAt time.Time
}

// ResearchStore persists monitored sources and their findings.
type ResearchStore interface {
	PutResearchSource(ctx context.Context, record ResearchSourceRecord) error
	GetResearchSource(ctx context.Context, sourceID string) (ResearchSourceRecord, error)
	// ListDueResearchSources returns sources whose next check time is at or
	// before now, ordered by id.
	ListDueResearchSources(ctx context.Context, now time.Time, limit int) ([]ResearchSourceRecord, error)
	MarkResearchSourceChecked(ctx context.Context, sourceID string, checkedAt time.Time) error
	PutResearchFinding(ctx context.Context, record ResearchFindingRecord) error
	ListResearchFindings(ctx context.Context, sourceID string, limit int) ([]ResearchFindingRecord, error)
}
