// Package research monitors URLs for study material. A check fetches the
// page, extracts the readable article, converts it to Markdown, summarizes it
// through the LLM facade, and stores the result as a finding.
package research

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/platform/errors"
	"github.com/studyhall-ai/studyhall/internal/platform/id"
	"github.com/studyhall-ai/studyhall/internal/storage"
)

const (
	defaultCheckInterval = 6 * time.Hour
	minCheckInterval     = time.Minute
	fetchTimeout         = 30 * time.Second
	maxArticleBytes      = 2 << 20
	// Long articles are truncated before summarization to keep the prompt
	// inside small local-model context windows.
	maxSummaryInputRunes = 24000
)

// Service manages monitored sources and their findings.
type Service struct {
	store      storage.ResearchStore
	client     llm.Client
	httpClient *http.Client
	converter  *md.Converter
	now        func() time.Time
}

// New builds a research service.
func New(store storage.ResearchStore, client llm.Client) *Service {
	return &Service{
		store:      store,
		client:     client,
		httpClient: &http.Client{Timeout: fetchTimeout},
		converter:  md.NewConverter("", true, nil),
		now:        time.Now,
	}
}

// AddSource registers a URL for monitoring.
func (s *Service) AddSource(ctx context.Context, userID, rawURL string, interval time.Duration) (storage.ResearchSourceRecord, error) {
	userID = strings.TrimSpace(userID)
	rawURL = strings.TrimSpace(rawURL)
	if userID == "" {
		return storage.ResearchSourceRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return storage.ResearchSourceRecord{}, errors.New(errors.CodeInvalidArgument, "url must be absolute")
	}
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if interval < minCheckInterval {
		interval = minCheckInterval
	}

	record := storage.ResearchSourceRecord{
		ID:            id.NewID(),
		UserID:        userID,
		URL:           rawURL,
		CheckInterval: interval,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.PutResearchSource(ctx, record); err != nil {
		return storage.ResearchSourceRecord{}, errors.Wrap(errors.CodeStorageFailure, "add source", err)
	}
	return record, nil
}

// GetSource fetches a monitored source by ID.
func (s *Service) GetSource(ctx context.Context, sourceID string) (storage.ResearchSourceRecord, error) {
	source, err := s.store.GetResearchSource(ctx, sourceID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.ResearchSourceRecord{}, errors.Wrap(errors.CodeNotFound, "source not found", err)
	}
	if err != nil {
		return storage.ResearchSourceRecord{}, errors.Wrap(errors.CodeStorageFailure, "get source", err)
	}
	return source, nil
}

// CheckSource fetches, extracts, summarizes, and records one finding for a
// source. The source is marked checked even when extraction fails, so a
// persistently broken page does not wedge the poll queue.
func (s *Service) CheckSource(ctx context.Context, sourceID string) (storage.ResearchFindingRecord, error) {
	source, err := s.GetSource(ctx, sourceID)
	if err != nil {
		return storage.ResearchFindingRecord{}, err
	}

	checkedAt := s.now().UTC()
	if markErr := s.store.MarkResearchSourceChecked(ctx, source.ID, checkedAt); markErr != nil {
		return storage.ResearchFindingRecord{}, errors.Wrap(errors.CodeStorageFailure, "mark source checked", markErr)
	}

	article, err := s.fetchArticle(ctx, source.URL)
	if err != nil {
		return storage.ResearchFindingRecord{}, err
	}

	markdown, err := s.converter.ConvertString(article.Content)
	if err != nil {
		return storage.ResearchFindingRecord{}, errors.Wrap(errors.CodeInternal, "convert article to markdown", err)
	}

	text := article.TextContent
	if runes := []rune(text); len(runes) > maxSummaryInputRunes {
		text = string(runes[:maxSummaryInputRunes])
	}
	summary, err := s.client.GenerateText(ctx, llm.TextRequest{
		Prompt: fmt.Sprintf("Summarize this article for a student tracking the topic. Three sentences at most.\n\nTitle: %s\n\n%s", article.Title, text),
		System: "You are a research assistant. Answer with the summary text only.",
	})
	if err != nil {
		return storage.ResearchFindingRecord{}, errors.Wrap(errors.CodeProviderFailure, "summarize article", err)
	}

	finding := storage.ResearchFindingRecord{
		ID:        id.NewID(),
		SourceID:  source.ID,
		Title:     article.Title,
		Summary:   strings.TrimSpace(summary),
		Markdown:  markdown,
		CreatedAt: checkedAt,
	}
	if err := s.store.PutResearchFinding(ctx, finding); err != nil {
		return storage.ResearchFindingRecord{}, errors.Wrap(errors.CodeStorageFailure, "store finding", err)
	}

	if source.Title == "" && article.Title != "" {
		source.Title = article.Title
		if err := s.store.PutResearchSource(ctx, source); err != nil {
			return storage.ResearchFindingRecord{}, errors.Wrap(errors.CodeStorageFailure, "update source title", err)
		}
	}
	return finding, nil
}

// CheckDue checks every source whose interval has elapsed. Per-source failures
// are collected, not fatal; the returned count is successful checks.
func (s *Service) CheckDue(ctx context.Context, limit int) (int, error) {
	due, err := s.store.ListDueResearchSources(ctx, s.now().UTC(), limit)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailure, "list due sources", err)
	}

	checked := 0
	var failures []error
	for _, source := range due {
		if ctx.Err() != nil {
			return checked, ctx.Err()
		}
		if _, err := s.CheckSource(ctx, source.ID); err != nil {
			failures = append(failures, fmt.Errorf("check %s: %w", source.ID, err))
			continue
		}
		checked++
	}
	return checked, stderrors.Join(failures...)
}

// ListFindings returns findings recorded for one source.
func (s *Service) ListFindings(ctx context.Context, sourceID string, limit int) ([]storage.ResearchFindingRecord, error) {
	findings, err := s.store.ListResearchFindings(ctx, sourceID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list findings", err)
	}
	return findings, nil
}

func (s *Service) fetchArticle(ctx context.Context, rawURL string) (readability.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return readability.Article{}, errors.Wrap(errors.CodeInvalidArgument, "build fetch request", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return readability.Article{}, errors.Wrap(errors.CodeInternal, "fetch source", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readability.Article{}, errors.WithMetadata(errors.CodeInternal, "source returned non-OK status", map[string]string{
			"status": resp.Status,
		})
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return readability.Article{}, errors.Wrap(errors.CodeInvalidArgument, "parse source url", err)
	}
	article, err := readability.FromReader(io.LimitReader(resp.Body, maxArticleBytes), pageURL)
	if err != nil {
		return readability.Article{}, errors.Wrap(errors.CodeInternal, "extract article", err)
	}
	return article, nil
}
