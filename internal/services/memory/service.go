// Package memory models retention with the Ebbinghaus forgetting curve.
//
// Retention for a concept is R = exp(-t/S) where t is hours since the last
// review and S is the concept's stability in hours. Successful reviews grow S;
// failed reviews shrink it.
package memory

import (
	"context"
	stderrors "errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/internal/platform/errors"
	"github.com/studyhall-ai/studyhall/internal/platform/id"
	"github.com/studyhall-ai/studyhall/internal/storage"
)

// Review outcomes.
const (
	OutcomeRecalled = "recalled"
	OutcomeForgot   = "forgot"
)

const (
	initialStabilityHours = 24
	// Stability multipliers per outcome.
	recallGrowth = 1.8
	forgetDecay  = 0.5
	minStability = 1
	maxStability = 24 * 365
)

// DefaultRetentionThreshold marks a concept due for review.
const DefaultRetentionThreshold = 0.5

// ConceptStatus pairs a concept with its current predicted retention.
type ConceptStatus struct {
	Concept   storage.MemoryConceptRecord
	Retention float64
}

// ImpactProjection compares retention at a future time with and without a
// review performed now.
type ImpactProjection struct {
	Horizon          time.Duration
	WithoutReview    float64
	WithReview       float64
	RetentionGain    float64
	CurrentRetention float64
}

// Service tracks concept retention.
type Service struct {
	store storage.MemoryStore
	now   func() time.Time
}

// New builds a memory service.
func New(store storage.MemoryStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Retention computes R = exp(-t/S) for elapsed time t and stability S hours.
func Retention(elapsed time.Duration, stabilityHours float64) float64 {
	if stabilityHours <= 0 {
		return 0
	}
	if elapsed <= 0 {
		return 1
	}
	return math.Exp(-elapsed.Hours() / stabilityHours)
}

// TrackConcept registers a concept as freshly learned.
func (s *Service) TrackConcept(ctx context.Context, userID, noteID, name string) (storage.MemoryConceptRecord, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return storage.MemoryConceptRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if name == "" {
		return storage.MemoryConceptRecord{}, errors.New(errors.CodeInvalidArgument, "name is required")
	}

	now := s.now().UTC()
	record := storage.MemoryConceptRecord{
		ID:             id.NewID(),
		UserID:         userID,
		NoteID:         strings.TrimSpace(noteID),
		Name:           name,
		StabilityHours: initialStabilityHours,
		LastReviewedAt: now,
		CreatedAt:      now,
	}
	if err := s.store.PutMemoryConcept(ctx, record); err != nil {
		return storage.MemoryConceptRecord{}, errors.Wrap(errors.CodeStorageFailure, "track concept", err)
	}
	return record, nil
}

// RecordReview logs a review outcome and adjusts the concept's stability.
func (s *Service) RecordReview(ctx context.Context, userID, conceptID, outcome string) (storage.MemoryConceptRecord, error) {
	if outcome != OutcomeRecalled && outcome != OutcomeForgot {
		return storage.MemoryConceptRecord{}, errors.New(errors.CodeInvalidArgument, "outcome must be recalled or forgot")
	}

	concept, err := s.getOwnedConcept(ctx, userID, conceptID)
	if err != nil {
		return storage.MemoryConceptRecord{}, err
	}

	now := s.now().UTC()
	retention := Retention(now.Sub(concept.LastReviewedAt), concept.StabilityHours)

	review := storage.MemoryReviewRecord{
		ID:         id.NewID(),
		ConceptID:  concept.ID,
		ReviewedAt: now,
		Retention:  retention,
		Outcome:    outcome,
	}
	if err := s.store.PutMemoryReview(ctx, review); err != nil {
		return storage.MemoryConceptRecord{}, errors.Wrap(errors.CodeStorageFailure, "store review", err)
	}

	if outcome == OutcomeRecalled {
		concept.StabilityHours *= recallGrowth
	} else {
		concept.StabilityHours *= forgetDecay
	}
	concept.StabilityHours = math.Min(math.Max(concept.StabilityHours, minStability), maxStability)
	concept.LastReviewedAt = now
	if err := s.store.PutMemoryConcept(ctx, concept); err != nil {
		return storage.MemoryConceptRecord{}, errors.Wrap(errors.CodeStorageFailure, "update concept", err)
	}
	return concept, nil
}

// DueConcepts lists the user's concepts whose predicted retention is at or
// below the threshold, most-forgotten first.
func (s *Service) DueConcepts(ctx context.Context, userID string, threshold float64, limit int) ([]ConceptStatus, error) {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultRetentionThreshold
	}

	concepts, err := s.store.ListMemoryConceptsByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list concepts", err)
	}

	now := s.now().UTC()
	var due []ConceptStatus
	for _, concept := range concepts {
		retention := Retention(now.Sub(concept.LastReviewedAt), concept.StabilityHours)
		if retention <= threshold {
			due = append(due, ConceptStatus{Concept: concept, Retention: retention})
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Retention < due[j].Retention })
	return due, nil
}

// PredictImpact projects retention at now+horizon with and without reviewing
// now. A review resets elapsed time and grows stability by the recall factor.
func (s *Service) PredictImpact(ctx context.Context, userID, conceptID string, horizon time.Duration) (ImpactProjection, error) {
	if horizon <= 0 {
		return ImpactProjection{}, errors.New(errors.CodeInvalidArgument, "horizon must be greater than zero")
	}

	concept, err := s.getOwnedConcept(ctx, userID, conceptID)
	if err != nil {
		return ImpactProjection{}, err
	}

	now := s.now().UTC()
	elapsed := now.Sub(concept.LastReviewedAt)

	without := Retention(elapsed+horizon, concept.StabilityHours)
	boosted := math.Min(concept.StabilityHours*recallGrowth, maxStability)
	with := Retention(horizon, boosted)

	return ImpactProjection{
		Horizon:          horizon,
		WithoutReview:    without,
		WithReview:       with,
		RetentionGain:    with - without,
		CurrentRetention: Retention(elapsed, concept.StabilityHours),
	}, nil
}

// ListReviews returns the review history for one concept.
func (s *Service) ListReviews(ctx context.Context, conceptID string, limit int) ([]storage.MemoryReviewRecord, error) {
	reviews, err := s.store.ListMemoryReviews(ctx, conceptID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list reviews", err)
	}
	return reviews, nil
}

func (s *Service) getOwnedConcept(ctx context.Context, userID, conceptID string) (storage.MemoryConceptRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.MemoryConceptRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	concept, err := s.store.GetMemoryConcept(ctx, conceptID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.MemoryConceptRecord{}, errors.Wrap(errors.CodeNotFound, "concept not found", err)
	}
	if err != nil {
		return storage.MemoryConceptRecord{}, errors.Wrap(errors.CodeStorageFailure, "get concept", err)
	}
	if concept.UserID != userID {
		return storage.MemoryConceptRecord{}, errors.New(errors.CodeNotFound, "concept not found")
	}
	return concept, nil
}
