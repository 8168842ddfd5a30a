package storage

import (
	"context"
	"time"
)

// DiscussionTurn is one persona's turn in a simulated discussion.
type DiscussionTurn struct {
	Persona string `json:"persona"`
	Content string `json:"content"`
	Round   int    `json:"round"`
}

// DiscussionRecord stores one simulated multi-persona discussion.
type DiscussionRecord struct {
	ID         string
	UserID     string
	Topic      string
	Personas   []string
	Transcript []DiscussionTurn
	Rounds     int
	CreatedAt  time.Time
}

// BoardElement is one node on a whiteboard.
type BoardElement struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// BoardLink is one suggested or drawn edge between two board elements.
type BoardLink struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Label  string `json:"label"`
}

// WhiteboardRecord stores one whiteboard with its elements and links.
type WhiteboardRecord struct {
	ID        string
	UserID    string
	Title     string
	Elements  []BoardElement
	Links     []BoardLink
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiscussionStore persists simulated discussions.
type DiscussionStore interface {
	PutDiscussion(ctx context.Context, record DiscussionRecord) error
	GetDiscussion(ctx context.Context, discussionID string) (DiscussionRecord, error)
	ListDiscussionsByUser(ctx context.Context, userID string, limit int) ([]DiscussionRecord, error)
}

// WhiteboardStore persists whiteboards.
type WhiteboardStore interface {
	PutWhiteboard(ctx context.Context, record WhiteboardRecord) error
	GetWhiteboard(ctx context.Context, boardID string) (WhiteboardRecord, error)
	ListWhiteboardsByUser(ctx context.Context, userID string, limit int) ([]WhiteboardRecord, error)
	DeleteWhiteboard(ctx context.Context, userID string, boardID string) error
}
