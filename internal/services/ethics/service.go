// Package ethics reviews text for ethical issues and records the findings
// against the source document.
package ethics

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/platform/errors"
	"github.com/studyhall-ai/studyhall/internal/platform/id"
	"github.com/studyhall-ai/studyhall/internal/storage"
)

// Source kinds a review can be recorded against.
const (
	SourceKindNote  = "note"
	SourceKindEssay = "essay"
	SourceKindText  = "text"
)

var reviewSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"issues": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category":  map[string]any{"type": "string"},
					"severity":  map[string]any{"type": "string", "enum": []any{"low", "medium", "high"}},
					"excerpt":   map[string]any{"type": "string"},
					"rationale": map[string]any{"type": "string"},
				},
				"required": []any{"category", "severity", "rationale"},
			},
		},
	},
	"required": []any{"issues"},
}

// Service reviews text for ethical issues.
type Service struct {
	store  storage.EthicsStore
	client llm.Client
	now    func() time.Time
}

// New builds an ethics service.
func New(store storage.EthicsStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// Review analyzes text and persists the flagged issues. An empty issue list is
// a valid outcome and is stored as such.
func (s *Service) Review(ctx context.Context, userID, sourceKind, sourceID, text string) (storage.EthicsReviewRecord, error) {
	userID = strings.TrimSpace(userID)
	sourceKind = strings.TrimSpace(sourceKind)
	if userID == "" {
		return storage.EthicsReviewRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if sourceKind != SourceKindNote && sourceKind != SourceKindEssay && sourceKind != SourceKindText {
		return storage.EthicsReviewRecord{}, errors.New(errors.CodeInvalidArgument, "source kind must be note, essay, or text")
	}
	if strings.TrimSpace(text) == "" {
		return storage.EthicsReviewRecord{}, errors.New(errors.CodeInvalidArgument, "text is required")
	}

	prompt := fmt.Sprintf(
		"Review the following text for ethical issues such as plagiarism risk, bias, unsupported claims, and privacy problems. For each issue give a category, a severity of low, medium, or high, the relevant excerpt, and a short rationale. Return an empty list when the text is clean.\n\n%s",
		text,
	)
	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: prompt,
		System: "You are an academic integrity reviewer. Respond with JSON only.",
		Schema: reviewSchema,
	})
	if err != nil {
		return storage.EthicsReviewRecord{}, errors.Wrap(errors.CodeProviderFailure, "review text", err)
	}

	var parsed struct {
		Issues []storage.EthicsIssue `json:"issues"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return storage.EthicsReviewRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse review", err)
	}

	record := storage.EthicsReviewRecord{
		ID:         id.NewID(),
		UserID:     userID,
		SourceKind: sourceKind,
		SourceID:   strings.TrimSpace(sourceID),
		Issues:     parsed.Issues,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.PutEthicsReview(ctx, record); err != nil {
		return storage.EthicsReviewRecord{}, errors.Wrap(errors.CodeStorageFailure, "store review", err)
	}
	return record, nil
}

// GetReview fetches a review by ID.
func (s *Service) GetReview(ctx context.Context, reviewID string) (storage.EthicsReviewRecord, error) {
	review, err := s.store.GetEthicsReview(ctx, reviewID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.EthicsReviewRecord{}, errors.Wrap(errors.CodeNotFound, "review not found", err)
	}
	if err != nil {
		return storage.EthicsReviewRecord{}, errors.Wrap(errors.CodeStorageFailure, "get review", err)
	}
	return review, nil
}

// ListReviews returns reviews recorded against one source.
func (s *Service) ListReviews(ctx context.Context, sourceKind, sourceID string, limit int) ([]storage.EthicsReviewRecord, error) {
	reviews, err := s.store.ListEthicsReviewsBySource(ctx, sourceKind, sourceID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list reviews", err)
	}
	return reviews, nil
}
