// Package accountability manages recurring study commitments and the agent
// that nudges users when check-ins lapse.
package accountability

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/platform/errors"
	"github.com/studyhall-ai/studyhall/internal/platform/id"
	"github.com/studyhall-ai/studyhall/internal/storage"
)

const minCadence = time.Minute

// Service manages goals and check-ins.
type Service struct {
	store  storage.AccountabilityStore
	client llm.Client
	now    func() time.Time
}

// New builds an accountability service.
func New(store storage.AccountabilityStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// CreateGoal registers a recurring commitment.
func (s *Service) CreateGoal(ctx context.Context, userID, title string, cadence time.Duration) (storage.AccountabilityGoalRecord, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	if userID == "" {
		return storage.AccountabilityGoalRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if title == "" {
		return storage.AccountabilityGoalRecord{}, errors.New(errors.CodeInvalidArgument, "title is required")
	}
	if cadence < minCadence {
		return storage.AccountabilityGoalRecord{}, errors.New(errors.CodeInvalidArgument, "cadence must be at least one minute")
	}

	record := storage.AccountabilityGoalRecord{
		ID:        id.NewID(),
		UserID:    userID,
		Title:     title,
		Cadence:   cadence,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutAccountabilityGoal(ctx, record); err != nil {
		return storage.AccountabilityGoalRecord{}, errors.Wrap(errors.CodeStorageFailure, "create goal", err)
	}
	return record, nil
}

// CheckIn records a user check-in against a goal and resets its clock.
func (s *Service) CheckIn(ctx context.Context, userID, goalID, message string) (storage.AccountabilityCheckinRecord, error) {
	goal, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return storage.AccountabilityCheckinRecord{}, err
	}

	now := s.now().UTC()
	record := storage.AccountabilityCheckinRecord{
		ID:        id.NewID(),
		GoalID:    goal.ID,
		Kind:      storage.CheckinKindUser,
		Message:   strings.TrimSpace(message),
		CreatedAt: now,
	}
	if err := s.store.PutAccountabilityCheckin(ctx, record); err != nil {
		return storage.AccountabilityCheckinRecord{}, errors.Wrap(errors.CodeStorageFailure, "store checkin", err)
	}
	if err := s.store.MarkAccountabilityGoalCheckedIn(ctx, goal.ID, now); err != nil {
		return storage.AccountabilityCheckinRecord{}, errors.Wrap(errors.CodeStorageFailure, "mark goal checked in", err)
	}
	return record, nil
}

// Deactivate stops a goal without deleting its history.
func (s *Service) Deactivate(ctx context.Context, userID, goalID string) error {
	goal, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return err
	}
	goal.Active = false
	if err := s.store.PutAccountabilityGoal(ctx, goal); err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "deactivate goal", err)
	}
	return nil
}

// GetGoal fetches a goal the user owns.
func (s *Service) GetGoal(ctx context.Context, userID, goalID string) (storage.AccountabilityGoalRecord, error) {
	return s.getOwnedGoal(ctx, userID, goalID)
}

// ListCheckins returns check-ins for one goal, user entries and nudges alike.
func (s *Service) ListCheckins(ctx context.Context, goalID string, limit int) ([]storage.AccountabilityCheckinRecord, error) {
	checkins, err := s.store.ListAccountabilityCheckins(ctx, goalID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list checkins", err)
	}
	return checkins, nil
}

// NudgeOverdue generates one LLM nudge per overdue goal and resets each goal's
// clock so the next tick does not re-nudge. Per-goal failures are collected,
// not fatal. Returns the number of nudges stored.
func (s *Service) NudgeOverdue(ctx context.Context, limit int) (int, error) {
	now := s.now().UTC()
	overdue, err := s.store.ListOverdueAccountabilityGoals(ctx, now, limit)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailure, "list overdue goals", err)
	}

	nudged := 0
	var failures []error
	for _, goal := range overdue {
		if ctx.Err() != nil {
			return nudged, ctx.Err()
		}
		message, err := s.client.GenerateText(ctx, llm.TextRequest{
			Prompt: fmt.Sprintf("Write a short, encouraging reminder for someone who committed to %q and has not checked in on schedule. Two sentences at most.", goal.Title),
			System: "You are a supportive study accountability partner.",
		})
		if err != nil {
			failures = append(failures, fmt.Errorf("nudge %s: %w", goal.ID, err))
			continue
		}

		record := storage.AccountabilityCheckinRecord{
			ID:        id.NewID(),
			GoalID:    goal.ID,
			Kind:      storage.CheckinKindNudge,
			Message:   strings.TrimSpace(message),
			CreatedAt: now,
		}
		if err := s.store.PutAccountabilityCheckin(ctx, record); err != nil {
			failures = append(failures, fmt.Errorf("store nudge %s: %w", goal.ID, err))
			continue
		}
		if err := s.store.MarkAccountabilityGoalCheckedIn(ctx, goal.ID, now); err != nil {
			failures = append(failures, fmt.Errorf("reset goal %s: %w", goal.ID, err))
			continue
		}
		nudged++
	}
	return nudged, stderrors.Join(failures...)
}

func (s *Service) getOwnedGoal(ctx context.Context, userID, goalID string) (storage.AccountabilityGoalRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.AccountabilityGoalRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	goal, err := s.store.GetAccountabilityGoal(ctx, goalID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.AccountabilityGoalRecord{}, errors.Wrap(errors.CodeNotFound, "goal not found", err)
	}
	if err != nil {
		return storage.AccountabilityGoalRecord{}, errors.Wrap(errors.CodeStorageFailure, "get goal", err)
	}
	if goal.UserID != userID {
		return storage.AccountabilityGoalRecord{}, errors.New(errors.CodeNotFound, "goal not found")
	}
	return goal, nil
}
