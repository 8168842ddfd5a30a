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

// PutResearchSource persists a monitored source record.
func (s *Store) PutResearchSource(ctx context.Context, record storage.ResearchSourceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("source id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if record.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be greater than zero")
	}

	var lastChecked sql.NullInt64
	if record.LastCheckedAt != nil {
		lastChecked = sql.NullInt64{Int64: toMillis(*record.LastCheckedAt), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO research_sources (id, user_id, url, title, check_interval_ms, last_checked_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	url = excluded.url,
	title = excluded.title,
	check_interval_ms = excluded.check_interval_ms,
	last_checked_at = excluded.last_checked_at
`,
		record.ID,
		record.UserID,
		record.URL,
		record.Title,
		record.CheckInterval.Milliseconds(),
		lastChecked,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put research source: %w", err)
	}
	return nil
}

// GetResearchSource fetches a monitored source record by ID.
func (s *Store) GetResearchSource(ctx context.Context, sourceID string) (storage.ResearchSourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ResearchSourceRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ResearchSourceRecord{}, fmt.Errorf("storage is not configured")
	}
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return storage.ResearchSourceRecord{}, fmt.Errorf("source id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, url, title, check_interval_ms, last_checked_at, created_at
FROM research_sources
WHERE id = ?
`, sourceID)

	rec, err := scanResearchSource(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ResearchSourceRecord{}, storage.ErrNotFound
		}
		return storage.ResearchSourceRecord{}, fmt.Errorf("get research source: %w", err)
	}
	return rec, nil
}

// ListDueResearchSources returns sources whose next check time is at or before
// now, ordered by id. Sources never checked are always due.
func (s *Store) ListDueResearchSources(ctx context.Context, now time.Time, limit int) ([]storage.ResearchSourceRecord, error) {
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
SELECT id, user_id, url, title, check_interval_ms, last_checked_at, created_at
FROM research_sources
WHERE last_checked_at IS NULL OR last_checked_at + check_interval_ms <= ?
ORDER BY id
LIMIT ?
`, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list due research sources: %w", err)
	}
	defer rows.Close()

	var sources []storage.ResearchSourceRecord
	for rows.Next() {
		rec, err := scanResearchSource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list due research sources: %w", err)
		}
		sources = append(sources, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due research sources: %w", err)
	}
	return sources, nil
}

// MarkResearchSourceChecked records when a source was last polled.
func (s *Store) MarkResearchSourceChecked(ctx context.Context, sourceID string, checkedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return fmt.Errorf("source id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE research_sources SET last_checked_at = ? WHERE id = ?
`, toMillis(checkedAt), sourceID)
	if err != nil {
		return fmt.Errorf("mark research source checked: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark research source checked: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanResearchSource(scan func(dest ...any) error) (storage.ResearchSourceRecord, error) {
	var (
		rec         storage.ResearchSourceRecord
		intervalMS  int64
		lastChecked sql.NullInt64
		createdAt   int64
	)
	if err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.URL,
		&rec.Title,
		&intervalMS,
		&lastChecked,
		&createdAt,
	); err != nil {
		return storage.ResearchSourceRecord{}, err
	}
	rec.CheckInterval = time.Duration(intervalMS) * time.Millisecond
	if lastChecked.Valid {
		checked := fromMillis(lastChecked.Int64)
		rec.LastCheckedAt = &checked
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// PutResearchFinding persists one extracted article snapshot.
func (s *Store) PutResearchFinding(ctx context.Context, record storage.ResearchFindingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("finding id is required")
	}
	if strings.TrimSpace(record.SourceID) == "" {
		return fmt.Errorf("source id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO research_findings (id, source_id, title, summary, markdown, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	summary = excluded.summary,
	markdown = excluded.markdown
`,
		record.ID,
		record.SourceID,
		record.Title,
		record.Summary,
		record.Markdown,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put research finding: %w", err)
	}
	return nil
}

// ListResearchFindings returns findings for one source ordered by id.
func (s *Store) ListResearchFindings(ctx context.Context, sourceID string, limit int) ([]storage.ResearchFindingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, fmt.Errorf("source id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, source_id, title, summary, markdown, created_at
FROM research_findings
WHERE source_id = ?
ORDER BY id
LIMIT ?
`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list research findings: %w", err)
	}
	defer rows.Close()

	var findings []storage.ResearchFindingRecord
	for rows.Next() {
		var (
			rec       storage.ResearchFindingRecord
			createdAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.SourceID,
			&rec.Title,
			&rec.Summary,
			&rec.Markdown,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list research findings: %w", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		findings = append(findings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list research findings: %w", err)
	}
	return findings, nil
}
