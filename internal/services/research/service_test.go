package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/storage"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Entropy and You</title></head>
<body>
<article>
<h1>Entropy and You</h1>
<p>Entropy measures the number of microstates consistent with a macrostate.
It only ever grows in closed systems, which is why your desk gets messier.</p>
<p>Reversing entropy locally costs energy, which is why cleaning the desk
takes effort and coffee.</p>
</article>
</body>
</html>`

type fakeClient struct {
	text string
	err  error
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) GenerateText(context.Context, llm.TextRequest) (string, error) {
	return f.text, f.err
}

func (f *fakeClient) GenerateChat(context.Context, llm.ChatRequest) (string, error) {
	return f.text, f.err
}

func (f *fakeClient) GenerateStructured(context.Context, llm.StructuredRequest) (json.RawMessage, error) {
	return nil, f.err
}

func (f *fakeClient) CountTokens(text string) int { return len(text) / 4 }

func newTestService(t *testing.T, client llm.Client) *Service {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "research.db"))
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
		CreatedAt: time.Date(2026, time.August, 9, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return New(store, client)
}

func TestAddSourceValidatesURL(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeClient{})
	if _, err := svc.AddSource(context.Background(), "user-1", "not a url", time.Hour); err == nil {
		t.Fatal("expected invalid url error")
	}
	if _, err := svc.AddSource(context.Background(), "user-1", "/relative/path", time.Hour); err == nil {
		t.Fatal("expected relative url error")
	}
}

func TestCheckSourceExtractsAndSummarizes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	t.Cleanup(server.Close)

	svc := newTestService(t, &fakeClient{text: "Entropy grows; tidying costs energy."})
	ctx := context.Background()

	source, err := svc.AddSource(ctx, "user-1", server.URL, time.Hour)
	if err != nil {
		t.Fatalf("add source: %v", err)
	}

	finding, err := svc.CheckSource(ctx, source.ID)
	if err != nil {
		t.Fatalf("check source: %v", err)
	}
	if finding.Summary != "Entropy grows; tidying costs energy." {
		t.Fatalf("summary = %q, want llm output", finding.Summary)
	}
	if !strings.Contains(finding.Markdown, "Entropy") {
		t.Fatalf("markdown = %q, want article content", finding.Markdown)
	}

	updated, err := svc.GetSource(ctx, source.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if updated.LastCheckedAt == nil {
		t.Fatal("expected source marked checked")
	}
	if updated.Title == "" {
		t.Fatal("expected source title backfilled from article")
	}
}

func TestCheckDueOnlyChecksDueSources(t *testing.T) {
	t.Parallel()

	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	t.Cleanup(server.Close)

	svc := newTestService(t, &fakeClient{text: "summary"})
	ctx := context.Background()

	if _, err := svc.AddSource(ctx, "user-1", server.URL, time.Hour); err != nil {
		t.Fatalf("add source: %v", err)
	}

	checked, err := svc.CheckDue(ctx, 10)
	if err != nil {
		t.Fatalf("first check due: %v", err)
	}
	if checked != 1 || hits != 1 {
		t.Fatalf("checked = %d hits = %d, want 1 and 1", checked, hits)
	}

	// The source was just checked; the next pass must skip it.
	checked, err = svc.CheckDue(ctx, 10)
	if err != nil {
		t.Fatalf("second check due: %v", err)
	}
	if checked != 0 || hits != 1 {
		t.Fatalf("checked = %d hits = %d, want 0 and 1", checked, hits)
	}
}

func TestCheckSourceMarksCheckedEvenOnFetchFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	svc := newTestService(t, &fakeClient{text: "summary"})
	ctx := context.Background()

	source, err := svc.AddSource(ctx, "user-1", server.URL, time.Hour)
	if err != nil {
		t.Fatalf("add source: %v", err)
	}

	if _, err := svc.CheckSource(ctx, source.ID); err == nil {
		t.Fatal("expected fetch failure")
	}

	updated, err := svc.GetSource(ctx, source.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if updated.LastCheckedAt == nil {
		t.Fatal("expected failed source still marked checked")
	}
}
