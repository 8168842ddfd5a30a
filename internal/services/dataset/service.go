// Package dataset profiles tabular datasets: column descriptions plus
// suggested analyses, derived from a header row and sample rows.
package dataset

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

const maxSampleRows = 20

var profileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"columns": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"type":        map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
				"required": []any{"name", "type"},
			},
		},
		"analyses": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []any{"columns", "analyses"},
}

// Service profiles datasets.
type Service struct {
	store  storage.DatasetStore
	client llm.Client
	now    func() time.Time
}

// New builds a dataset service.
func New(store storage.DatasetStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// Profile describes each column and suggests analyses from a header row and
// sample rows. At most 20 sample rows go into the prompt.
func (s *Service) Profile(ctx context.Context, userID, name string, header []string, sampleRows [][]string) (storage.DatasetProfileRecord, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return storage.DatasetProfileRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if name == "" {
		return storage.DatasetProfileRecord{}, errors.New(errors.CodeInvalidArgument, "name is required")
	}
	if len(header) == 0 {
		return storage.DatasetProfileRecord{}, errors.New(errors.CodeInvalidArgument, "header row is required")
	}
	if len(sampleRows) > maxSampleRows {
		sampleRows = sampleRows[:maxSampleRows]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset %q has columns: %s.\n", name, strings.Join(header, ", "))
	if len(sampleRows) > 0 {
		sb.WriteString("Sample rows:\n")
		for _, row := range sampleRows {
			fmt.Fprintf(&sb, "%s\n", strings.Join(row, " | "))
		}
	}
	sb.WriteString("Describe each column with an inferred type and a one-line description, then suggest analyses worth running.")

	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: sb.String(),
		System: "You are a data analyst. Respond with JSON only.",
		Schema: profileSchema,
	})
	if err != nil {
		return storage.DatasetProfileRecord{}, errors.Wrap(errors.CodeProviderFailure, "profile dataset", err)
	}

	var parsed struct {
		Columns  []storage.DatasetColumn `json:"columns"`
		Analyses []string                `json:"analyses"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return storage.DatasetProfileRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse profile", err)
	}

	record := storage.DatasetProfileRecord{
		ID:        id.NewID(),
		UserID:    userID,
		Name:      name,
		Columns:   parsed.Columns,
		Analyses:  parsed.Analyses,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutDatasetProfile(ctx, record); err != nil {
		return storage.DatasetProfileRecord{}, errors.Wrap(errors.CodeStorageFailure, "store profile", err)
	}
	return record, nil
}

// GetProfile fetches a profile by ID.
func (s *Service) GetProfile(ctx context.Context, profileID string) (storage.DatasetProfileRecord, error) {
	profile, err := s.store.GetDatasetProfile(ctx, profileID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.DatasetProfileRecord{}, errors.Wrap(errors.CodeNotFound, "profile not found", err)
	}
	if err != nil {
		return storage.DatasetProfileRecord{}, errors.Wrap(errors.CodeStorageFailure, "get profile", err)
	}
	return profile, nil
}

// ListProfiles returns the user's dataset profiles.
func (s *Service) ListProfiles(ctx context.Context, userID string, limit int) ([]storage.DatasetProfileRecord, error) {
	profiles, err := s.store.ListDatasetProfilesByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list profiles", err)
	}
	return profiles, nil
}
