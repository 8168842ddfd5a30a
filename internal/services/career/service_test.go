package career

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/storage"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

type fakeClient struct {
	structured string
	err        error
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) GenerateText(context.Context, llm.TextRequest) (string, error) {
	return "", f.err
}

func (f *fakeClient) GenerateChat(context.Context, llm.ChatRequest) (string, error) {
	return "", f.err
}

func (f *fakeClient) GenerateStructured(context.Context, llm.StructuredRequest) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.structured), nil
}

func (f *fakeClient) CountTokens(text string) int { return len(text) / 4 }

func newTestService(t *testing.T, client llm.Client) *Service {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "career.db"))
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
		CreatedAt: time.Date(2026, time.August, 11, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return New(store, client)
}

func TestBuildPlanStartsMilestonesPending(t *testing.T) {
	t.Parallel()

	client := &fakeClient{structured: `{"milestones":[
		{"title":"Learn SQL","detail":"Joins and indexes","target_date":"2026-10"},
		{"title":"Ship a project","target_date":"2027-01"}
	]}`}
	svc := newTestService(t, client)

	plan, err := svc.BuildPlan(context.Background(), "user-1", "Become a data engineer")
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}
	if len(plan.Milestones) != 2 {
		t.Fatalf("milestones = %d, want 2", len(plan.Milestones))
	}
	for i, milestone := range plan.Milestones {
		if milestone.Status != StatusPending {
			t.Fatalf("milestone %d status = %q, want pending", i, milestone.Status)
		}
	}
}

func TestRecordProgressUpdatesOneMilestone(t *testing.T) {
	t.Parallel()

	client := &fakeClient{structured: `{"milestones":[
		{"title":"A","target_date":"2026-10"},
		{"title":"B","target_date":"2026-12"}
	]}`}
	svc := newTestService(t, client)
	ctx := context.Background()

	plan, err := svc.BuildPlan(ctx, "user-1", "goal")
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}

	updated, err := svc.RecordProgress(ctx, "user-1", plan.ID, 1, StatusDone)
	if err != nil {
		t.Fatalf("record progress: %v", err)
	}
	if updated.Milestones[0].Status != StatusPending || updated.Milestones[1].Status != StatusDone {
		t.Fatalf("statuses = %q, %q; want pending, done", updated.Milestones[0].Status, updated.Milestones[1].Status)
	}

	if _, err := svc.RecordProgress(ctx, "user-1", plan.ID, 5, StatusDone); err == nil {
		t.Fatal("expected out-of-range index error")
	}
	if _, err := svc.RecordProgress(ctx, "user-1", plan.ID, 0, "finished"); err == nil {
		t.Fatal("expected unknown status error")
	}
}
