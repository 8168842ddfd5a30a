// Package whiteboard manages concept-map boards and LLM link suggestions
// between their elements.
package whiteboard

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

var linksSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"links": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from_id": map[string]any{"type": "string"},
					"to_id":   map[string]any{"type": "string"},
					"label":   map[string]any{"type": "string"},
				},
				"required": []any{"from_id", "to_id", "label"},
			},
		},
	},
	"required": []any{"links"},
}

// Service manages whiteboards.
type Service struct {
	store  storage.WhiteboardStore
	client llm.Client
	now    func() time.Time
}

// New builds a whiteboard service.
func New(store storage.WhiteboardStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// CreateBoard stores an empty whiteboard.
func (s *Service) CreateBoard(ctx context.Context, userID, title string) (storage.WhiteboardRecord, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	if userID == "" {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if title == "" {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeInvalidArgument, "title is required")
	}

	now := s.now().UTC()
	record := storage.WhiteboardRecord{
		ID:        id.NewID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutWhiteboard(ctx, record); err != nil {
		return storage.WhiteboardRecord{}, errors.Wrap(errors.CodeStorageFailure, "create board", err)
	}
	return record, nil
}

// AddElement places a new element on the board.
func (s *Service) AddElement(ctx context.Context, userID, boardID, kind, label string, x, y int) (storage.WhiteboardRecord, error) {
	kind = strings.TrimSpace(kind)
	label = strings.TrimSpace(label)
	if kind == "" {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeInvalidArgument, "kind is required")
	}
	if label == "" {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeInvalidArgument, "label is required")
	}

	board, err := s.getOwnedBoard(ctx, userID, boardID)
	if err != nil {
		return storage.WhiteboardRecord{}, err
	}

	board.Elements = append(board.Elements, storage.BoardElement{
		ID:    id.NewID(),
		Kind:  kind,
		Label: label,
		X:     x,
		Y:     y,
	})
	board.UpdatedAt = s.now().UTC()
	if err := s.store.PutWhiteboard(ctx, board); err != nil {
		return storage.WhiteboardRecord{}, errors.Wrap(errors.CodeStorageFailure, "add element", err)
	}
	return board, nil
}

// RemoveElement deletes an element and any links touching it.
func (s *Service) RemoveElement(ctx context.Context, userID, boardID, elementID string) (storage.WhiteboardRecord, error) {
	board, err := s.getOwnedBoard(ctx, userID, boardID)
	if err != nil {
		return storage.WhiteboardRecord{}, err
	}

	kept := board.Elements[:0]
	found := false
	for _, el := range board.Elements {
		if el.ID == elementID {
			found = true
			continue
		}
		kept = append(kept, el)
	}
	if !found {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeNotFound, "element not found")
	}
	board.Elements = kept

	keptLinks := board.Links[:0]
	for _, link := range board.Links {
		if link.FromID == elementID || link.ToID == elementID {
			continue
		}
		keptLinks = append(keptLinks, link)
	}
	board.Links = keptLinks

	board.UpdatedAt = s.now().UTC()
	if err := s.store.PutWhiteboard(ctx, board); err != nil {
		return storage.WhiteboardRecord{}, errors.Wrap(errors.CodeStorageFailure, "remove element", err)
	}
	return board, nil
}

// DrawLink adds an edge between two existing elements.
func (s *Service) DrawLink(ctx context.Context, userID, boardID, fromID, toID, label string) (storage.WhiteboardRecord, error) {
	board, err := s.getOwnedBoard(ctx, userID, boardID)
	if err != nil {
		return storage.WhiteboardRecord{}, err
	}
	if !hasElement(board, fromID) || !hasElement(board, toID) {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeInvalidArgument, "link endpoints must reference board elements")
	}

	board.Links = append(board.Links, storage.BoardLink{
		FromID: fromID,
		ToID:   toID,
		Label:  strings.TrimSpace(label),
	})
	board.UpdatedAt = s.now().UTC()
	if err := s.store.PutWhiteboard(ctx, board); err != nil {
		return storage.WhiteboardRecord{}, errors.Wrap(errors.CodeStorageFailure, "draw link", err)
	}
	return board, nil
}

// SuggestLinks asks the LLM for concept-map edges between board elements.
// Suggestions referencing unknown element ids are dropped, not errors.
func (s *Service) SuggestLinks(ctx context.Context, userID, boardID string) ([]storage.BoardLink, error) {
	board, err := s.getOwnedBoard(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	if len(board.Elements) < 2 {
		return nil, errors.New(errors.CodeInvalidArgument, "board needs at least two elements")
	}

	var sb strings.Builder
	sb.WriteString("These concepts are on a study whiteboard:\n")
	for _, el := range board.Elements {
		fmt.Fprintf(&sb, "- id=%s label=%q kind=%s\n", el.ID, el.Label, el.Kind)
	}
	sb.WriteString("Suggest labeled directed links between related concepts, using the element ids given.")

	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: sb.String(),
		System: "You are a concept-mapping assistant. Respond with JSON only.",
		Schema: linksSchema,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeProviderFailure, "suggest links", err)
	}

	var parsed struct {
		Links []storage.BoardLink `json:"links"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(errors.CodeProviderFailure, "parse link suggestions", err)
	}

	var valid []storage.BoardLink
	for _, link := range parsed.Links {
		if hasElement(board, link.FromID) && hasElement(board, link.ToID) {
			valid = append(valid, link)
		}
	}
	return valid, nil
}

// GetBoard fetches a board the user owns.
func (s *Service) GetBoard(ctx context.Context, userID, boardID string) (storage.WhiteboardRecord, error) {
	return s.getOwnedBoard(ctx, userID, boardID)
}

// ListBoards returns the user's boards.
func (s *Service) ListBoards(ctx context.Context, userID string, limit int) ([]storage.WhiteboardRecord, error) {
	boards, err := s.store.ListWhiteboardsByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list boards", err)
	}
	return boards, nil
}

// DeleteBoard removes a board the user owns.
func (s *Service) DeleteBoard(ctx context.Context, userID, boardID string) error {
	err := s.store.DeleteWhiteboard(ctx, userID, boardID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.Wrap(errors.CodeNotFound, "board not found", err)
	}
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "delete board", err)
	}
	return nil
}

func (s *Service) getOwnedBoard(ctx context.Context, userID, boardID string) (storage.WhiteboardRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	board, err := s.store.GetWhiteboard(ctx, boardID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.WhiteboardRecord{}, errors.Wrap(errors.CodeNotFound, "board not found", err)
	}
	if err != nil {
		return storage.WhiteboardRecord{}, errors.Wrap(errors.CodeStorageFailure, "get board", err)
	}
	if board.UserID != userID {
		return storage.WhiteboardRecord{}, errors.New(errors.CodeNotFound, "board not found")
	}
	return board, nil
}

func hasElement(board storage.WhiteboardRecord, elementID string) bool {
	for _, el := range board.Elements {
		if el.ID == elementID {
			return true
		}
	}
	return false
}
