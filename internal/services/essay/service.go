// Package essay assists outlining, drafting, and revising essays. Revisions
// form a linear history through ParentDraftID.
package essay

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

var outlineSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"outline": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": 2,
		},
	},
	"required": []any{"outline"},
}

// Service generates essay outlines, drafts, and revisions.
type Service struct {
	store  storage.EssayStore
	client llm.Client
	now    func() time.Time
}

// New builds an essay service.
func New(store storage.EssayStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// Outline generates a section outline for a topic and stores it as a draft
// with no content yet.
func (s *Service) Outline(ctx context.Context, userID, topic string) (storage.EssayDraftRecord, error) {
	userID = strings.TrimSpace(userID)
	topic = strings.TrimSpace(topic)
	if userID == "" {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if topic == "" {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeInvalidArgument, "topic is required")
	}

	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: fmt.Sprintf("Produce a section outline for an essay on: %s", topic),
		System: "You are an essay coach. Respond with JSON only.",
		Schema: outlineSchema,
	})
	if err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeProviderFailure, "generate outline", err)
	}

	var parsed struct {
		Outline []string `json:"outline"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse outline", err)
	}

	record := storage.EssayDraftRecord{
		ID:        id.NewID(),
		UserID:    userID,
		Topic:     topic,
		Outline:   parsed.Outline,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutEssayDraft(ctx, record); err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeStorageFailure, "store outline", err)
	}
	return record, nil
}

// Draft writes a full essay from a stored outline and saves it as a new draft
// linked to the outline.
func (s *Service) Draft(ctx context.Context, userID, outlineID string) (storage.EssayDraftRecord, error) {
	parent, err := s.getOwnedDraft(ctx, userID, outlineID)
	if err != nil {
		return storage.EssayDraftRecord{}, err
	}
	if len(parent.Outline) == 0 {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeInvalidArgument, "draft has no outline to expand")
	}

	prompt := fmt.Sprintf("Write an essay on %q following this outline:\n- %s", parent.Topic, strings.Join(parent.Outline, "\n- "))
	content, err := s.client.GenerateText(ctx, llm.TextRequest{
		Prompt: prompt,
		System: "You are an essay writer. Answer with the essay text only.",
	})
	if err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeProviderFailure, "generate draft", err)
	}

	record := storage.EssayDraftRecord{
		ID:            id.NewID(),
		UserID:        parent.UserID,
		Topic:         parent.Topic,
		Outline:       parent.Outline,
		Content:       strings.TrimSpace(content),
		ParentDraftID: parent.ID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.PutEssayDraft(ctx, record); err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeStorageFailure, "store draft", err)
	}
	return record, nil
}

// Revise rewrites a draft following caller instructions and stores the result
// as a new revision linked to its parent.
func (s *Service) Revise(ctx context.Context, userID, draftID, instructions string) (storage.EssayDraftRecord, error) {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeInvalidArgument, "instructions are required")
	}

	parent, err := s.getOwnedDraft(ctx, userID, draftID)
	if err != nil {
		return storage.EssayDraftRecord{}, err
	}
	if strings.TrimSpace(parent.Content) == "" {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeInvalidArgument, "draft has no content to revise")
	}

	prompt := fmt.Sprintf("Revise the essay below.\n\nInstructions: %s\n\nEssay:\n%s", instructions, parent.Content)
	content, err := s.client.GenerateText(ctx, llm.TextRequest{
		Prompt: prompt,
		System: "You are an essay editor. Answer with the revised essay text only.",
	})
	if err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeProviderFailure, "generate revision", err)
	}

	record := storage.EssayDraftRecord{
		ID:            id.NewID(),
		UserID:        parent.UserID,
		Topic:         parent.Topic,
		Outline:       parent.Outline,
		Content:       strings.TrimSpace(content),
		ParentDraftID: parent.ID,
		Instructions:  instructions,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.PutEssayDraft(ctx, record); err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeStorageFailure, "store revision", err)
	}
	return record, nil
}

// GetDraft fetches a draft the user owns.
func (s *Service) GetDraft(ctx context.Context, userID, draftID string) (storage.EssayDraftRecord, error) {
	return s.getOwnedDraft(ctx, userID, draftID)
}

// ListDrafts returns the user's drafts.
func (s *Service) ListDrafts(ctx context.Context, userID string, limit int) ([]storage.EssayDraftRecord, error) {
	drafts, err := s.store.ListEssayDraftsByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list drafts", err)
	}
	return drafts, nil
}

func (s *Service) getOwnedDraft(ctx context.Context, userID, draftID string) (storage.EssayDraftRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	draft, err := s.store.GetEssayDraft(ctx, draftID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeNotFound, "draft not found", err)
	}
	if err != nil {
		return storage.EssayDraftRecord{}, errors.Wrap(errors.CodeStorageFailure, "get draft", err)
	}
	if draft.UserID != userID {
		return storage.EssayDraftRecord{}, errors.New(errors.CodeNotFound, "draft not found")
	}
	return draft, nil
}
