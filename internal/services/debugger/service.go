// Package debugger diagnoses failing code snippets: cause, suggested fix, and
// model confidence, persisted per session.
package debugger

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

var diagnosisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"cause":      map[string]any{"type": "string"},
		"fix":        map[string]any{"type": "string"},
		"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
	},
	"required": []any{"cause", "fix", "confidence"},
}

// Service diagnoses code.
type Service struct {
	store  storage.DebugStore
	client llm.Client
	now    func() time.Time
}

// New builds a debugger service.
func New(store storage.DebugStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// Diagnose analyzes code plus an optional error message and persists the
// session with its structured diagnosis.
func (s *Service) Diagnose(ctx context.Context, userID, language, code, errorText string) (storage.DebugSessionRecord, error) {
	userID = strings.TrimSpace(userID)
	language = strings.TrimSpace(language)
	if userID == "" {
		return storage.DebugSessionRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if language == "" {
		return storage.DebugSessionRecord{}, errors.New(errors.CodeInvalidArgument, "language is required")
	}
	if strings.TrimSpace(code) == "" {
		return storage.DebugSessionRecord{}, errors.New(errors.CodeInvalidArgument, "code is required")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Diagnose this %s code.\n\n```%s\n%s\n```\n", language, language, code)
	if strings.TrimSpace(errorText) != "" {
		fmt.Fprintf(&sb, "\nObserved error:\n%s\n", errorText)
	}
	sb.WriteString("\nGive the root cause, a concrete fix, and your confidence between 0 and 1.")

	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: sb.String(),
		System: "You are a debugging assistant. Respond with JSON only.",
		Schema: diagnosisSchema,
	})
	if err != nil {
		return storage.DebugSessionRecord{}, errors.Wrap(errors.CodeProviderFailure, "diagnose code", err)
	}

	var diagnosis storage.DebugDiagnosis
	if err := json.Unmarshal(raw, &diagnosis); err != nil {
		return storage.DebugSessionRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse diagnosis", err)
	}

	record := storage.DebugSessionRecord{
		ID:        id.NewID(),
		UserID:    userID,
		Language:  language,
		Code:      code,
		ErrorText: errorText,
		Diagnosis: diagnosis,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutDebugSession(ctx, record); err != nil {
		return storage.DebugSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "store debug session", err)
	}
	return record, nil
}

// GetSession fetches a debug session by ID.
func (s *Service) GetSession(ctx context.Context, sessionID string) (storage.DebugSessionRecord, error) {
	session, err := s.store.GetDebugSession(ctx, sessionID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.DebugSessionRecord{}, errors.Wrap(errors.CodeNotFound, "session not found", err)
	}
	if err != nil {
		return storage.DebugSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "get debug session", err)
	}
	return session, nil
}

// ListSessions returns the user's debug sessions.
func (s *Service) ListSessions(ctx context.Context, userID string, limit int) ([]storage.DebugSessionRecord, error) {
	sessions, err := s.store.ListDebugSessionsByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list debug sessions", err)
	}
	return sessions, nil
}
