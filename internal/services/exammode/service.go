// Package exammode runs timed exam sessions over stored quiz sets. Sessions
// past their deadline are expired by a background poll.
package exammode

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/internal/platform/errors"
	"github.com/studyhall-ai/studyhall/internal/platform/id"
	"github.com/studyhall-ai/studyhall/internal/storage"
)

const (
	minDuration = time.Minute
	maxDuration = 6 * time.Hour
)

// Store is the persistence surface the exam service needs.
type Store interface {
	storage.QuizStore
	storage.ExamStore
}

// Service manages timed exam sessions.
type Service struct {
	store Store
	now   func() time.Time
}

// New builds an exam mode service.
func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Start opens a timed session over a quiz set the user owns.
func (s *Service) Start(ctx context.Context, userID, quizSetID string, duration time.Duration) (storage.ExamSessionRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if duration < minDuration || duration > maxDuration {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeInvalidArgument, "duration must be between one minute and six hours")
	}

	set, err := s.store.GetQuizSet(ctx, quizSetID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeNotFound, "quiz set not found", err)
	}
	if err != nil {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "get quiz set", err)
	}
	if set.UserID != userID {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeNotFound, "quiz set not found")
	}
	if len(set.Questions) == 0 {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeInvalidArgument, "quiz set has no questions")
	}

	now := s.now().UTC()
	record := storage.ExamSessionRecord{
		ID:         id.NewID(),
		UserID:     userID,
		QuizSetID:  set.ID,
		Status:     storage.ExamStatusActive,
		StartedAt:  now,
		DeadlineAt: now.Add(duration),
	}
	if err := s.store.PutExamSession(ctx, record); err != nil {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "store exam session", err)
	}
	return record, nil
}

// Submit grades an active session. Submissions after the deadline expire the
// session with a zero score instead of grading.
func (s *Service) Submit(ctx context.Context, userID, sessionID string, answers []int) (storage.ExamSessionRecord, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return storage.ExamSessionRecord{}, err
	}
	if session.Status != storage.ExamStatusActive {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeConflict, "session is already closed")
	}

	set, err := s.store.GetQuizSet(ctx, session.QuizSetID)
	if err != nil {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "get quiz set", err)
	}

	now := s.now().UTC()
	if now.After(session.DeadlineAt) {
		if err := s.closeSession(ctx, session.ID, storage.ExamStatusExpired, now, 0, len(set.Questions)); err != nil {
			return storage.ExamSessionRecord{}, err
		}
		return s.getOwnedSession(ctx, userID, sessionID)
	}

	if len(answers) != len(set.Questions) {
		return storage.ExamSessionRecord{}, errors.WithMetadata(errors.CodeInvalidArgument, "answer count mismatch", map[string]string{
			"want": fmt.Sprintf("%d", len(set.Questions)),
			"got":  fmt.Sprintf("%d", len(answers)),
		})
	}

	score := 0
	for i, q := range set.Questions {
		if answers[i] == q.Answer {
			score++
		}
	}

	if err := s.closeSession(ctx, session.ID, storage.ExamStatusSubmitted, now, score, len(set.Questions)); err != nil {
		return storage.ExamSessionRecord{}, err
	}

	attempt := storage.QuizAttemptRecord{
		ID:        id.NewID(),
		QuizSetID: set.ID,
		UserID:    userID,
		Answers:   answers,
		Score:     score,
		Total:     len(set.Questions),
		CreatedAt: now,
	}
	if err := s.store.PutQuizAttempt(ctx, attempt); err != nil {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "store exam attempt", err)
	}

	return s.getOwnedSession(ctx, userID, sessionID)
}

// GetSession fetches a session the user owns.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (storage.ExamSessionRecord, error) {
	return s.getOwnedSession(ctx, userID, sessionID)
}

// ExpireOverdue closes every active session past its deadline. Races with a
// concurrent submit are fine: the conditional close makes the transition win
// exactly once. Returns the number of sessions expired.
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	now := s.now().UTC()
	sessions, err := s.store.ListExpiredExamSessions(ctx, now, limit)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailure, "list expired sessions", err)
	}

	expired := 0
	var failures []error
	for _, session := range sessions {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		err := s.store.CloseExamSession(ctx, session.ID, storage.ExamStatusExpired, now, 0, session.Total)
		if stderrors.Is(err, storage.ErrConflict) {
			continue
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("expire %s: %w", session.ID, err))
			continue
		}
		expired++
	}
	return expired, stderrors.Join(failures...)
}

func (s *Service) closeSession(ctx context.Context, sessionID, status string, closedAt time.Time, score, total int) error {
	err := s.store.CloseExamSession(ctx, sessionID, status, closedAt, score, total)
	if stderrors.Is(err, storage.ErrConflict) {
		return errors.Wrap(errors.CodeConflict, "session is already closed", err)
	}
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "close session", err)
	}
	return nil
}

func (s *Service) getOwnedSession(ctx context.Context, userID, sessionID string) (storage.ExamSessionRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	session, err := s.store.GetExamSession(ctx, sessionID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeNotFound, "session not found", err)
	}
	if err != nil {
		return storage.ExamSessionRecord{}, errors.Wrap(errors.CodeStorageFailure, "get session", err)
	}
	if session.UserID != userID {
		return storage.ExamSessionRecord{}, errors.New(errors.CodeNotFound, "session not found")
	}
	return session, nil
}
