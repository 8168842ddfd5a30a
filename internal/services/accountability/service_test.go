package accountability

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/storage"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

type fakeClient struct {
	text  string
	err   error
	calls int
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) GenerateText(context.Context, llm.TextRequest) (string, error) {
	f.calls++
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

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "accountability.db"))
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
		CreatedAt: time.Date(2026, time.August, 7, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return New(store, client)
}

func TestCheckInResetsGoalClock(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeClient{})
	base := time.Date(2026, time.August, 7, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "user-1", "Review flashcards", 24*time.Hour)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	checkin, err := svc.CheckIn(ctx, "user-1", goal.ID, "Done for today")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if checkin.Kind != storage.CheckinKindUser {
		t.Fatalf("kind = %q, want %q", checkin.Kind, storage.CheckinKindUser)
	}

	got, err := svc.GetGoal(ctx, "user-1", goal.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got.LastCheckinAt == nil || !got.LastCheckinAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("last checkin = %v, want reset to checkin time", got.LastCheckinAt)
	}
}

func TestNudgeOverdueStoresNudgeAndResets(t *testing.T) {
	t.Parallel()

	client := &fakeClient{text: "Time to get back to your flashcards."}
	svc := newTestService(t, client)
	base := time.Date(2026, time.August, 7, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(-3 * 24 * time.Hour) }
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "user-1", "Review flashcards", 24*time.Hour)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	svc.now = func() time.Time { return base }
	nudged, err := svc.NudgeOverdue(ctx, 10)
	if err != nil {
		t.Fatalf("nudge overdue: %v", err)
	}
	if nudged != 1 {
		t.Fatalf("nudged = %d, want 1", nudged)
	}
	if client.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", client.calls)
	}

	checkins, err := svc.ListCheckins(ctx, goal.ID, 10)
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if len(checkins) != 1 || checkins[0].Kind != storage.CheckinKindNudge {
		t.Fatalf("checkins = %+v, want one nudge", checkins)
	}

	// Clock reset: the next tick must not nudge again.
	nudged, err = svc.NudgeOverdue(ctx, 10)
	if err != nil {
		t.Fatalf("second nudge pass: %v", err)
	}
	if nudged != 0 {
		t.Fatalf("second pass nudged = %d, want 0", nudged)
	}
}

func TestNudgeOverdueSkipsFailedGoals(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: stderrors.New("backend down")}
	svc := newTestService(t, client)
	base := time.Date(2026, time.August, 7, 11, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(-3 * 24 * time.Hour) }
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "user-1", "Write essay draft", 24*time.Hour)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	svc.now = func() time.Time { return base }
	nudged, err := svc.NudgeOverdue(ctx, 10)
	if nudged != 0 {
		t.Fatalf("nudged = %d, want 0 on provider failure", nudged)
	}
	if err == nil {
		t.Fatal("expected joined failure error")
	}

	checkins, listErr := svc.ListCheckins(ctx, goal.ID, 10)
	if listErr != nil {
		t.Fatalf("list checkins: %v", listErr)
	}
	if len(checkins) != 0 {
		t.Fatalf("checkins = %+v, want none stored on failure", checkins)
	}
}

func TestDeactivateStopsNudges(t *testing.T) {
	t.Parallel()

	client := &fakeClient{text: "nudge"}
	svc := newTestService(t, client)
	base := time.Date(2026, time.August, 7, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(-3 * 24 * time.Hour) }
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "user-1", "Practice problems", 24*time.Hour)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := svc.Deactivate(ctx, "user-1", goal.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	svc.now = func() time.Time { return base }
	nudged, err := svc.NudgeOverdue(ctx, 10)
	if err != nil {
		t.Fatalf("nudge overdue: %v", err)
	}
	if nudged != 0 {
		t.Fatalf("nudged = %d, want 0 for inactive goal", nudged)
	}
}
