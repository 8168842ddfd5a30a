// Package notes manages users, notes, and the LLM annotations derived from
// note content.
package notes

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

const summarySystemPrompt = "You are a study assistant. Answer with the summary text only, no preamble."

var keyPointsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"key_points": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": 1,
		},
	},
	"required": []any{"key_points"},
}

// Store is the persistence surface the notes service needs.
type Store interface {
	storage.UserStore
	storage.NoteStore
}

// Service implements note CRUD and LLM-backed annotations.
type Service struct {
	store  Store
	client llm.Client
	now    func() time.Time
}

// New builds a notes service.
func New(store Store, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// CreateUser registers a platform user.
func (s *Service) CreateUser(ctx context.Context, email, displayName string) (storage.UserRecord, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return storage.UserRecord{}, errors.New(errors.CodeInvalidArgument, "email is required")
	}

	record := storage.UserRecord{
		ID:          id.NewID(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.PutUser(ctx, record); err != nil {
		return storage.UserRecord{}, errors.Wrap(errors.CodeStorageFailure, "create user", err)
	}
	return record, nil
}

// CreateNote stores a new note.
func (s *Service) CreateNote(ctx context.Context, userID, title, content string) (storage.NoteRecord, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	if userID == "" {
		return storage.NoteRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if title == "" {
		return storage.NoteRecord{}, errors.New(errors.CodeInvalidArgument, "title is required")
	}

	now := s.now().UTC()
	record := storage.NoteRecord{
		ID:        id.NewID(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutNote(ctx, record); err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeStorageFailure, "create note", err)
	}
	return record, nil
}

// UpdateNote replaces a note's title and content, clearing stale annotations.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID, title, content string) (storage.NoteRecord, error) {
	record, err := s.getOwnedNote(ctx, userID, noteID)
	if err != nil {
		return storage.NoteRecord{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return storage.NoteRecord{}, errors.New(errors.CodeInvalidArgument, "title is required")
	}
	record.Title = title
	record.Content = content
	// Derived annotations no longer describe the new content.
	record.Summary = ""
	record.KeyPoints = nil
	record.UpdatedAt = s.now().UTC()
	if err := s.store.PutNote(ctx, record); err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeStorageFailure, "update note", err)
	}
	return record, nil
}

// GetNote fetches a note the user owns.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (storage.NoteRecord, error) {
	return s.getOwnedNote(ctx, userID, noteID)
}

// ListNotes returns a page of the user's notes.
func (s *Service) ListNotes(ctx context.Context, userID string, pageSize int, pageToken string) (storage.NotePage, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	page, err := s.store.ListNotesByUser(ctx, userID, pageSize, pageToken)
	if err != nil {
		return storage.NotePage{}, errors.Wrap(errors.CodeStorageFailure, "list notes", err)
	}
	return page, nil
}

// SearchNotes returns the user's notes matching a substring query.
func (s *Service) SearchNotes(ctx context.Context, userID, query string, limit int) ([]storage.NoteRecord, error) {
	found, err := s.store.SearchNotes(ctx, userID, query, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "search notes", err)
	}
	return found, nil
}

// DeleteNote removes a note the user owns.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	err := s.store.DeleteNote(ctx, userID, noteID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.Wrap(errors.CodeNotFound, "note not found", err)
	}
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "delete note", err)
	}
	return nil
}

// Summarize generates a summary for a note and writes it back to the row.
func (s *Service) Summarize(ctx context.Context, userID, noteID string) (storage.NoteRecord, error) {
	record, err := s.getOwnedNote(ctx, userID, noteID)
	if err != nil {
		return storage.NoteRecord{}, err
	}
	if strings.TrimSpace(record.Content) == "" {
		return storage.NoteRecord{}, errors.New(errors.CodeInvalidArgument, "note has no content to summarize")
	}

	prompt := fmt.Sprintf("Summarize the following study note in at most three sentences.\n\nTitle: %s\n\n%s", record.Title, record.Content)
	summary, err := s.client.GenerateText(ctx, llm.TextRequest{
		Prompt: prompt,
		System: summarySystemPrompt,
	})
	if err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeProviderFailure, "summarize note", err)
	}

	record.Summary = strings.TrimSpace(summary)
	record.UpdatedAt = s.now().UTC()
	if err := s.store.PutNote(ctx, record); err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeStorageFailure, "store summary", err)
	}
	return record, nil
}

// KeyPoints extracts key points from a note and writes them back to the row.
func (s *Service) KeyPoints(ctx context.Context, userID, noteID string) (storage.NoteRecord, error) {
	record, err := s.getOwnedNote(ctx, userID, noteID)
	if err != nil {
		return storage.NoteRecord{}, err
	}
	if strings.TrimSpace(record.Content) == "" {
		return storage.NoteRecord{}, errors.New(errors.CodeInvalidArgument, "note has no content to extract from")
	}

	prompt := fmt.Sprintf("Extract the key points from the following study note.\n\nTitle: %s\n\n%s", record.Title, record.Content)
	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: prompt,
		System: summarySystemPrompt,
		Schema: keyPointsSchema,
	})
	if err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeProviderFailure, "extract key points", err)
	}

	var parsed struct {
		KeyPoints []string `json:"key_points"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse key points", err)
	}

	record.KeyPoints = parsed.KeyPoints
	record.UpdatedAt = s.now().UTC()
	if err := s.store.PutNote(ctx, record); err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeStorageFailure, "store key points", err)
	}
	return record, nil
}

func (s *Service) getOwnedNote(ctx context.Context, userID, noteID string) (storage.NoteRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.NoteRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	record, err := s.store.GetNote(ctx, noteID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeNotFound, "note not found", err)
	}
	if err != nil {
		return storage.NoteRecord{}, errors.Wrap(errors.CodeStorageFailure, "get note", err)
	}
	if record.UserID != userID {
		return storage.NoteRecord{}, errors.New(errors.CodeNotFound, "note not found")
	}
	return record, nil
}
