package whiteboard

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/storage"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

type fakeClient struct {
	structured func(req llm.StructuredRequest) string
	err        error
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) GenerateText(context.Context, llm.TextRequest) (string, error) {
	return "", f.err
}

func (f *fakeClient) GenerateChat(context.Context, llm.ChatRequest) (string, error) {
	return "", f.err
}

func (f *fakeClient) GenerateStructured(_ context.Context, req llm.StructuredRequest) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.structured(req)), nil
}

func (f *fakeClient) CountTokens(text string) int { return len(text) / 4 }

func newTestService(t *testing.T, client llm.Client) *Service {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "whiteboard.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	err = store.PutUser(context.Background(), storage.UserRecord{
		ID: "user-1", Email: "ada@example.com", DisplayName: "Ada",
		CreatedAt: time.Date(2026, time.August, 8, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return New(store, client)
}

func TestBoardElementLifecycle(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeClient{})
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "user-1", "Physics map")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	board, err = svc.AddElement(ctx, "user-1", board.ID, "concept", "Energy", 10, 10)
	if err != nil {
		t.Fatalf("add first element: %v", err)
	}
	board, err = svc.AddElement(ctx, "user-1", board.ID, "concept", "Entropy", 50, 10)
	if err != nil {
		t.Fatalf("add second element: %v", err)
	}
	if len(board.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(board.Elements))
	}

	board, err = svc.DrawLink(ctx, "user-1", board.ID, board.Elements[0].ID, board.Elements[1].ID, "drives")
	if err != nil {
		t.Fatalf("draw link: %v", err)
	}
	if len(board.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(board.Links))
	}

	removed := board.Elements[1].ID
	board, err = svc.RemoveElement(ctx, "user-1", board.ID, removed)
	if err != nil {
		t.Fatalf("remove element: %v", err)
	}
	if len(board.Elements) != 1 {
		t.Fatalf("elements after remove = %d, want 1", len(board.Elements))
	}
	if len(board.Links) != 0 {
		t.Fatalf("links after remove = %d, want dangling link dropped", len(board.Links))
	}
}

func TestDrawLinkRejectsUnknownEndpoint(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeClient{})
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "user-1", "Map")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	board, err = svc.AddElement(ctx, "user-1", board.ID, "concept", "Only", 0, 0)
	if err != nil {
		t.Fatalf("add element: %v", err)
	}

	if _, err := svc.DrawLink(ctx, "user-1", board.ID, board.Elements[0].ID, "ghost", ""); err == nil {
		t.Fatal("expected unknown endpoint error")
	}
}

func TestSuggestLinksDropsUnknownIDs(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	svc := newTestService(t, client)
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "user-1", "Map")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	board, err = svc.AddElement(ctx, "user-1", board.ID, "concept", "Energy", 0, 0)
	if err != nil {
		t.Fatalf("add element: %v", err)
	}
	board, err = svc.AddElement(ctx, "user-1", board.ID, "concept", "Entropy", 10, 0)
	if err != nil {
		t.Fatalf("add element: %v", err)
	}

	first := board.Elements[0].ID
	second := board.Elements[1].ID
	client.structured = func(llm.StructuredRequest) string {
		return fmt.Sprintf(`{"links":[
			{"from_id":%q,"to_id":%q,"label":"drives"},
			{"from_id":%q,"to_id":"ghost","label":"invalid"}
		]}`, first, second, first)
	}

	links, err := svc.SuggestLinks(ctx, "user-1", board.ID)
	if err != nil {
		t.Fatalf("suggest links: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("links = %d, want invalid suggestion dropped", len(links))
	}
	if links[0].FromID != first || links[0].ToID != second {
		t.Fatalf("link = %+v, want %s -> %s", links[0], first, second)
	}
}

func TestSuggestLinksRequiresTwoElements(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeClient{structured: func(llm.StructuredRequest) string { return `{"links":[]}` }})
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "user-1", "Sparse")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if _, err := svc.SuggestLinks(ctx, "user-1", board.ID); err == nil {
		t.Fatal("expected too-few-elements error")
	}
}
