// Package career builds milestone-based career plans and tracks progress
// against them.
package career

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

// Milestone statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusSkipped = "skipped"
)

var planSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"milestones": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"detail":      map[string]any{"type": "string"},
					"target_date": map[string]any{"type": "string"},
				},
				"required": []any{"title", "target_date"},
			},
		},
	},
	"required": []any{"milestones"},
}

// Service builds and updates career plans.
type Service struct {
	store  storage.CareerStore
	client llm.Client
	now    func() time.Time
}

// New builds a career service.
func New(store storage.CareerStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// BuildPlan generates a milestone plan toward a stated goal. All generated
// milestones start pending.
func (s *Service) BuildPlan(ctx context.Context, userID, goal string) (storage.CareerPlanRecord, error) {
	userID = strings.TrimSpace(userID)
	goal = strings.TrimSpace(goal)
	if userID == "" {
		return storage.CareerPlanRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if goal == "" {
		return storage.CareerPlanRecord{}, errors.New(errors.CodeInvalidArgument, "goal is required")
	}

	prompt := fmt.Sprintf(
		"Build a milestone plan toward this career goal: %s. Give each milestone a title, a short detail, and a target date in YYYY-MM format. Today is %s.",
		goal, s.now().UTC().Format("2006-01"),
	)
	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: prompt,
		System: "You are a career mentor. Respond with JSON only.",
		Schema: planSchema,
	})
	if err != nil {
		return storage.CareerPlanRecord{}, errors.Wrap(errors.CodeProviderFailure, "generate plan", err)
	}

	var parsed struct {
		Milestones []storage.CareerMilestone `json:"milestones"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return storage.CareerPlanRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse plan", err)
	}
	for i := range parsed.Milestones {
		parsed.Milestones[i].Status = StatusPending
	}

	now := s.now().UTC()
	record := storage.CareerPlanRecord{
		ID:         id.NewID(),
		UserID:     userID,
		Goal:       goal,
		Milestones: parsed.Milestones,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.PutCareerPlan(ctx, record); err != nil {
		return storage.CareerPlanRecord{}, errors.Wrap(errors.CodeStorageFailure, "store plan", err)
	}
	return record, nil
}

// RecordProgress updates the status of one milestone by index.
func (s *Service) RecordProgress(ctx context.Context, userID, planID string, milestoneIndex int, status string) (storage.CareerPlanRecord, error) {
	if status != StatusPending && status != StatusDone && status != StatusSkipped {
		return storage.CareerPlanRecord{}, errors.New(errors.CodeInvalidArgument, "status must be pending, done, or skipped")
	}

	plan, err := s.getOwnedPlan(ctx, userID, planID)
	if err != nil {
		return storage.CareerPlanRecord{}, err
	}
	if milestoneIndex < 0 || milestoneIndex >= len(plan.Milestones) {
		return storage.CareerPlanRecord{}, errors.WithMetadata(errors.CodeInvalidArgument, "milestone index out of range", map[string]string{
			"index": fmt.Sprintf("%d", milestoneIndex),
			"count": fmt.Sprintf("%d", len(plan.Milestones)),
		})
	}

	plan.Milestones[milestoneIndex].Status = status
	plan.UpdatedAt = s.now().UTC()
	if err := s.store.PutCareerPlan(ctx, plan); err != nil {
		return storage.CareerPlanRecord{}, errors.Wrap(errors.CodeStorageFailure, "store progress", err)
	}
	return plan, nil
}

// GetPlan fetches a plan the user owns.
func (s *Service) GetPlan(ctx context.Context, userID, planID string) (storage.CareerPlanRecord, error) {
	return s.getOwnedPlan(ctx, userID, planID)
}

// ListPlans returns the user's plans.
func (s *Service) ListPlans(ctx context.Context, userID string, limit int) ([]storage.CareerPlanRecord, error) {
	plans, err := s.store.ListCareerPlansByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list plans", err)
	}
	return plans, nil
}

func (s *Service) getOwnedPlan(ctx context.Context, userID, planID string) (storage.CareerPlanRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.CareerPlanRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	plan, err := s.store.GetCareerPlan(ctx, planID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.CareerPlanRecord{}, errors.Wrap(errors.CodeNotFound, "plan not found", err)
	}
	if err != nil {
		return storage.CareerPlanRecord{}, errors.Wrap(errors.CodeStorageFailure, "get plan", err)
	}
	if plan.UserID != userID {
		return storage.CareerPlanRecord{}, errors.New(errors.CodeNotFound, "plan not found")
	}
	return plan, nil
}
