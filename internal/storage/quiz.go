package storage

import (
	"context"
	"time"
)

// QuizQuestion is one generated multiple-choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation"`
}

// QuizSetRecord stores one generated quiz.
type QuizSetRecord struct {
	ID        string
	NoteID    string
	UserID    string
	Topic     string
	Questions []QuizQuestion
	CreatedAt time.Time
}

// QuizAttemptRecord stores one graded attempt at a quiz set.
type QuizAttemptRecord struct {
	ID        string
	QuizSetID string
	UserID    string
	Answers   []int
	Score     int
	Total     int
	CreatedAt time.Time
}

// QuizStore persists quiz sets and attempts.
type QuizStore interface {
	PutQuizSet(ctx context.Context, record QuizSetRecord) error
	GetQuizSet(ctx context.Context, quizSetID string) (QuizSetRecord, error)
	ListQuizSetsByNote(ctx context.Context, noteID string, limit int) ([]QuizSetRecord, error)
	PutQuizAttempt(ctx context.Context, record QuizAttemptRecord) error
	ListQuizAttempts(ctx context.Context, quizSetID string, limit int) ([]QuizAttemptRecord, error)
}
