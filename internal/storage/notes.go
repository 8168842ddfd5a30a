package storage

import (
	"context"
	"time"
)

// UserRecord stores one platform user.
type UserRecord struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// NoteRecord stores one note with its derived AI annotations.
type NoteRecord struct {
	ID      string
	UserID  string
	Title   string
	Content string

	// Summary and KeyPoints are written back by the notes service after LLM
	// calls; both are empty until generated.
	Summary   string
	KeyPoints []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NotePage is a paged set of notes.
type NotePage struct {
	Notes         []NoteRecord
	NextPageToken string
}

// UserStore persists user records.
type UserStore interface {
	PutUser(ctx context.Context, record UserRecord) error
	GetUser(ctx context.Context, userID string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
}

// NoteStore persists note records.
type NoteStore interface {
	PutNote(ctx context.Context, record NoteRecord) error
	GetNote(ctx context.Context, noteID string) (NoteRecord, error)
	ListNotesByUser(ctx context.Context, userID string, pageSize int, pageToken string) (NotePage, error)
	SearchNotes(ctx context.Context, userID string, query string, limit int) ([]NoteRecord, error)
	DeleteNote(ctx context.Context, userID string, noteID string) error
}
