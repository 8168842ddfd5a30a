// Package quiz generates multiple-choice quizzes from notes and grades
// attempts locally.
package quiz

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

const (
	defaultQuestionCount = 5
	maxQuestionCount     = 20
)

var quizSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question":    map[string]any{"type": "string"},
					"options":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 2},
					"answer":      map[string]any{"type": "integer"},
					"explanation": map[string]any{"type": "string"},
				},
				"required": []any{"question", "options", "answer"},
			},
		},
	},
	"required": []any{"questions"},
}

// Store is the persistence surface the quiz service needs.
type Store interface {
	storage.NoteStore
	storage.QuizStore
}

// Service generates and grades quizzes.
type Service struct {
	store  Store
	client llm.Client
	now    func() time.Time
}

// New builds a quiz service.
func New(store Store, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// Generate builds a quiz set from a note's content via structured output.
func (s *Service) Generate(ctx context.Context, userID, noteID string, questionCount int) (storage.QuizSetRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.QuizSetRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if questionCount <= 0 {
		questionCount = defaultQuestionCount
	}
	if questionCount > maxQuestionCount {
		questionCount = maxQuestionCount
	}

	note, err := s.store.GetNote(ctx, noteID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeNotFound, "note not found", err)
	}
	if err != nil {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeStorageFailure, "get note", err)
	}
	if note.UserID != userID {
		return storage.QuizSetRecord{}, errors.New(errors.CodeNotFound, "note not found")
	}
	if strings.TrimSpace(note.Content) == "" {
		return storage.QuizSetRecord{}, errors.New(errors.CodeInvalidArgument, "note has no content to quiz on")
	}

	prompt := fmt.Sprintf(
		"Write %d multiple-choice questions testing the material below. Each question has 4 options and exactly one correct answer, given as a zero-based index.\n\nTitle: %s\n\n%s",
		questionCount, note.Title, note.Content,
	)
	raw, err := s.client.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt: prompt,
		System: "You are a quiz author. Respond with JSON only.",
		Schema: quizSchema,
	})
	if err != nil {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeProviderFailure, "generate quiz", err)
	}

	var parsed struct {
		Questions []storage.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeProviderFailure, "parse quiz", err)
	}
	for i, q := range parsed.Questions {
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return storage.QuizSetRecord{}, errors.WithMetadata(errors.CodeProviderFailure, "answer index out of range", map[string]string{
				"question": fmt.Sprintf("%d", i),
			})
		}
	}

	record := storage.QuizSetRecord{
		ID:        id.NewID(),
		NoteID:    note.ID,
		UserID:    userID,
		Topic:     note.Title,
		Questions: parsed.Questions,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutQuizSet(ctx, record); err != nil {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeStorageFailure, "store quiz set", err)
	}
	return record, nil
}

// GetQuizSet fetches a quiz set the user owns.
func (s *Service) GetQuizSet(ctx context.Context, userID, quizSetID string) (storage.QuizSetRecord, error) {
	return s.getOwnedQuizSet(ctx, userID, quizSetID)
}

// ListQuizSets returns quiz sets generated for one note.
func (s *Service) ListQuizSets(ctx context.Context, noteID string, limit int) ([]storage.QuizSetRecord, error) {
	sets, err := s.store.ListQuizSetsByNote(ctx, noteID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list quiz sets", err)
	}
	return sets, nil
}

// Grade scores an answer sheet against the stored quiz set. Scoring is local;
// no LLM call is involved.
func (s *Service) Grade(ctx context.Context, userID, quizSetID string, answers []int) (storage.QuizAttemptRecord, error) {
	set, err := s.getOwnedQuizSet(ctx, userID, quizSetID)
	if err != nil {
		return storage.QuizAttemptRecord{}, err
	}
	if len(answers) != len(set.Questions) {
		return storage.QuizAttemptRecord{}, errors.WithMetadata(errors.CodeInvalidArgument, "answer count mismatch", map[string]string{
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

	record := storage.QuizAttemptRecord{
		ID:        id.NewID(),
		QuizSetID: set.ID,
		UserID:    userID,
		Answers:   answers,
		Score:     score,
		Total:     len(set.Questions),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutQuizAttempt(ctx, record); err != nil {
		return storage.QuizAttemptRecord{}, errors.Wrap(errors.CodeStorageFailure, "store quiz attempt", err)
	}
	return record, nil
}

// ListAttempts returns graded attempts at one quiz set.
func (s *Service) ListAttempts(ctx context.Context, quizSetID string, limit int) ([]storage.QuizAttemptRecord, error) {
	attempts, err := s.store.ListQuizAttempts(ctx, quizSetID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list quiz attempts", err)
	}
	return attempts, nil
}

func (s *Service) getOwnedQuizSet(ctx context.Context, userID, quizSetID string) (storage.QuizSetRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.QuizSetRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	set, err := s.store.GetQuizSet(ctx, quizSetID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeNotFound, "quiz set not found", err)
	}
	if err != nil {
		return storage.QuizSetRecord{}, errors.Wrap(errors.CodeStorageFailure, "get quiz set", err)
	}
	if set.UserID != userID {
		return storage.QuizSetRecord{}, errors.New(errors.CodeNotFound, "quiz set not found")
	}
	return set, nil
}
