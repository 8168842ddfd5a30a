// Package discussion simulates multi-persona study discussions, one chat call
// per persona per round.
package discussion

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

const (
	defaultRounds = 2
	maxRounds     = 5
	maxPersonas   = 6
)

// Service runs simulated discussions.
type Service struct {
	store  storage.DiscussionStore
	client llm.Client
	now    func() time.Time
}

// New builds a discussion service.
func New(store storage.DiscussionStore, client llm.Client) *Service {
	return &Service{store: store, client: client, now: time.Now}
}

// Simulate runs a round-robin discussion between personas on a topic. Each
// turn is one chat call seeing the transcript so far. The full transcript is
// persisted once the simulation completes.
func (s *Service) Simulate(ctx context.Context, userID, topic string, personas []string, rounds int) (storage.DiscussionRecord, error) {
	userID = strings.TrimSpace(userID)
	topic = strings.TrimSpace(topic)
	if userID == "" {
		return storage.DiscussionRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}
	if topic == "" {
		return storage.DiscussionRecord{}, errors.New(errors.CodeInvalidArgument, "topic is required")
	}
	if len(personas) < 2 {
		return storage.DiscussionRecord{}, errors.New(errors.CodeInvalidArgument, "at least two personas are required")
	}
	if len(personas) > maxPersonas {
		return storage.DiscussionRecord{}, errors.New(errors.CodeInvalidArgument, "too many personas")
	}
	if rounds <= 0 {
		rounds = defaultRounds
	}
	if rounds > maxRounds {
		rounds = maxRounds
	}

	var transcript []storage.DiscussionTurn
	for round := 1; round <= rounds; round++ {
		for _, persona := range personas {
			messages := []llm.Message{{
				Role: llm.RoleSystem,
				Content: fmt.Sprintf(
					"You are %s in a study discussion about %q. Stay in character and respond in two or three sentences.",
					persona, topic,
				),
			}}
			if len(transcript) == 0 {
				messages = append(messages, llm.Message{
					Role:    llm.RoleUser,
					Content: fmt.Sprintf("Open the discussion on %q.", topic),
				})
			}
			for _, turn := range transcript {
				messages = append(messages, llm.Message{
					Role:    llm.RoleUser,
					Content: fmt.Sprintf("%s: %s", turn.Persona, turn.Content),
				})
			}

			reply, err := s.client.GenerateChat(ctx, llm.ChatRequest{Messages: messages})
			if err != nil {
				return storage.DiscussionRecord{}, errors.WrapWithMetadata(errors.CodeProviderFailure, "discussion turn failed", map[string]string{
					"persona": persona,
					"round":   fmt.Sprintf("%d", round),
				}, err)
			}
			transcript = append(transcript, storage.DiscussionTurn{
				Persona: persona,
				Content: strings.TrimSpace(reply),
				Round:   round,
			})
		}
	}

	record := storage.DiscussionRecord{
		ID:         id.NewID(),
		UserID:     userID,
		Topic:      topic,
		Personas:   personas,
		Transcript: transcript,
		Rounds:     rounds,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.PutDiscussion(ctx, record); err != nil {
		return storage.DiscussionRecord{}, errors.Wrap(errors.CodeStorageFailure, "store discussion", err)
	}
	return record, nil
}

// GetDiscussion fetches a discussion the user owns.
func (s *Service) GetDiscussion(ctx context.Context, userID, discussionID string) (storage.DiscussionRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.DiscussionRecord{}, errors.New(errors.CodeInvalidArgument, "user id is required")
	}

	record, err := s.store.GetDiscussion(ctx, discussionID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return storage.DiscussionRecord{}, errors.Wrap(errors.CodeNotFound, "discussion not found", err)
	}
	if err != nil {
		return storage.DiscussionRecord{}, errors.Wrap(errors.CodeStorageFailure, "get discussion", err)
	}
	if record.UserID != userID {
		return storage.DiscussionRecord{}, errors.New(errors.CodeNotFound, "discussion not found")
	}
	return record, nil
}

// ListDiscussions returns the user's discussions.
func (s *Service) ListDiscussions(ctx context.Context, userID string, limit int) ([]storage.DiscussionRecord, error) {
	records, err := s.store.ListDiscussionsByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list discussions", err)
	}
	return records, nil
}
