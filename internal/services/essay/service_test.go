package essay

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/storage"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

type fakeClient struct {
	text       string
	structured string
	err        error
	lastPrompt string
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) GenerateText(_ context.Context, req llm.TextRequest) (string, error) {
	f.lastPrompt = req.Prompt
	return f.text, f.err
}

func (f *fakeClient) GenerateChat(context.Context, llm.ChatRequest) (string, error) {
	return f.text, f.err
}

func (f *fakeClient) GenerateStructured(_ context.Context, req llm.StructuredRequest) (json.RawMessage, error) {
	f.lastPrompt = req.Prompt
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.structured), nil
}

func (f *fakeClient) CountTokens(text string) int { return len(text) / 4 }

func newTestService(t *testing.T, client llm.Client) *Service {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "essay.db"))
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
		CreatedAt: time.Date(2026, time.August, 9, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return New(store, client)
}

func TestOutlineDraftReviseChain(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		structured: `{"outline":["Intro","Body","Conclusion"]}`,
		text:       "The essay text.",
	}
	svc := newTestService(t, client)
	ctx := context.Background()

	outline, err := svc.Outline(ctx, "user-1", "The ethics of spaced repetition")
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if len(outline.Outline) != 3 || outline.Content != "" {
		t.Fatalf("outline = %+v, want three sections and no content", outline)
	}

	draft, err := svc.Draft(ctx, "user-1", outline.ID)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if draft.ParentDraftID != outline.ID {
		t.Fatalf("parent = %q, want outline id %q", draft.ParentDraftID, outline.ID)
	}
	if draft.Content != "The essay text." {
		t.Fatalf("content = %q, want generated essay", draft.Content)
	}
	if !strings.Contains(client.lastPrompt, "Intro") {
		t.Fatalf("draft prompt = %q, want outline embedded", client.lastPrompt)
	}

	client.text = "The revised essay text."
	revision, err := svc.Revise(ctx, "user-1", draft.ID, "Make it punchier")
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if revision.ParentDraftID != draft.ID {
		t.Fatalf("revision parent = %q, want draft id %q", revision.ParentDraftID, draft.ID)
	}
	if revision.Instructions != "Make it punchier" {
		t.Fatalf("instructions = %q, want recorded", revision.Instructions)
	}

	drafts, err := svc.ListDrafts(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("drafts = %d, want outline, draft, and revision", len(drafts))
	}
}

func TestDraftRequiresOutline(t *testing.T) {
	t.Parallel()

	client := &fakeClient{structured: `{"outline":["A","B"]}`, text: "essay"}
	svc := newTestService(t, client)
	ctx := context.Background()

	outline, err := svc.Outline(ctx, "user-1", "Topic")
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	draft, err := svc.Draft(ctx, "user-1", outline.ID)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}

	// Revising requires content; the outline record has none.
	if _, err := svc.Revise(ctx, "user-1", outline.ID, "tighten"); err == nil {
		t.Fatal("expected no-content revise error")
	}
	if _, err := svc.Revise(ctx, "user-1", draft.ID, ""); err == nil {
		t.Fatal("expected missing instructions error")
	}
}
