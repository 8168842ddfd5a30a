package domain

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyhall-ai/studyhall/internal/services/notes"
)

const defaultSearchLimit = 10

// NoteSearchInput represents the MCP tool input for searching notes.
type NoteSearchInput struct {
	UserID string `json:"user_id" jsonschema:"owner of the notes to search"`
	Query  string `json:"query" jsonschema:"substring matched against titles and content"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum results, defaults to 10"`
}

// NoteSummary is one search hit.
type NoteSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// NoteSearchResult represents the MCP tool output for searching notes.
type NoteSearchResult struct {
	Notes []NoteSummary `json:"notes"`
}

// NoteSearchTool defines the MCP tool schema for searching notes.
func NoteSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "note_search",
		Description: "Searches a user's notes by title and content",
	}
}

// NoteSearchHandler adapts note search to MCP.
func NoteSearchHandler(svc *notes.Service) mcp.ToolHandlerFor[NoteSearchInput, NoteSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input NoteSearchInput) (*mcp.CallToolResult, NoteSearchResult, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultSearchLimit
		}
		found, err := svc.SearchNotes(ctx, input.UserID, input.Query, limit)
		if err != nil {
			return nil, NoteSearchResult{}, err
		}
		result := NoteSearchResult{Notes: make([]NoteSummary, 0, len(found))}
		for _, note := range found {
			result.Notes = append(result.Notes, NoteSummary{
				ID:      note.ID,
				Title:   note.Title,
				Snippet: snippet(note.Content),
			})
		}
		return nil, result, nil
	}
}

// NoteCreateInput represents the MCP tool input for creating a note.
type NoteCreateInput struct {
	UserID  string `json:"user_id" jsonschema:"owner of the new note"`
	Title   string `json:"title" jsonschema:"note title"`
	Content string `json:"content" jsonschema:"note body text"`
}

// NoteCreateResult represents the MCP tool output for creating a note.
type NoteCreateResult struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// NoteCreateTool defines the MCP tool schema for creating a note.
func NoteCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "note_create",
		Description: "Creates a note for a user",
	}
}

// NoteCreateHandler adapts note creation to MCP.
func NoteCreateHandler(svc *notes.Service) mcp.ToolHandlerFor[NoteCreateInput, NoteCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input NoteCreateInput) (*mcp.CallToolResult, NoteCreateResult, error) {
		note, err := svc.CreateNote(ctx, input.UserID, input.Title, input.Content)
		if err != nil {
			return nil, NoteCreateResult{}, err
		}
		return nil, NoteCreateResult{
			ID:        note.ID,
			CreatedAt: note.CreatedAt.UTC().Format(time.RFC3339),
		}, nil
	}
}

const snippetRunes = 160

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetRunes {
		return content
	}
	return string(runes[:snippetRunes])
}
