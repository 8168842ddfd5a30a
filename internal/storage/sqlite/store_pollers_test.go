package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/studyhall-ai/studyhall/internal/storage"
)

func TestListDueResearchSources(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1")
	now := time.Date(2026, time.August, 4, 9, 0, 0, 0, time.UTC)
	recentCheck := now.Add(-10 * time.Minute)
	staleCheck := now.Add(-2 * time.Hour)

	sources := []storage.ResearchSourceRecord{
		{ID: "src-fresh", UserID: "user-1", URL: "https://a.example.com", CheckInterval: time.Hour, LastCheckedAt: &recentCheck},
		{ID: "src-stale", UserID: "user-1", URL: "https://b.example.com", CheckInterval: time.Hour, LastCheckedAt: &staleCheck},
		{ID: "src-never", UserID: "user-1", URL: "https://c.example.com", CheckInterval: time.Hour},
	}
	for _, src := range sources {
		src.CreatedAt = now.Add(-24 * time.Hour)
		if err := store.PutResearchSource(context.Background(), src); err != nil {
			t.Fatalf("put research source %s: %v", src.ID, err)
		}
	}

	due, err := store.ListDueResearchSources(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("list due sources: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due sources = %d, want 2", len(due))
	}
	if due[0].ID != "src-never" || due[1].ID != "src-stale" {
		t.Fatalf("due ids = %q %q, want src-never src-stale", due[0].ID, due[1].ID)
	}

	if err := store.MarkResearchSourceChecked(context.Background(), "src-stale", now); err != nil {
		t.Fatalf("mark checked: %v", err)
	}
	due, err = store.ListDueResearchSources(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("list due after mark: %v", err)
	}
	if len(due) != 1 || due[0].ID != "src-never" {
		t.Fatalf("due after mark = %+v, want only src-never", due)
	}
}

func TestResearchFindingRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1")
	now := time.Date(2026, time.August, 4, 10, 0, 0, 0, time.UTC)
	err := store.PutResearchSource(context.Background(), storage.ResearchSourceRecord{
		ID: "src-1", UserID: "user-1", URL: "https://a.example.com",
		CheckInterval: time.Hour, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("put research source: %v", err)
	}

	finding := storage.ResearchFindingRecord{
		ID:        "finding-1",
		SourceID:  "src-1",
		Title:     "New result",
		Summary:   "Short summary.",
		Markdown:  "# New result\n\nBody.",
		CreatedAt: now,
	}
	if err := store.PutResearchFinding(context.Background(), finding); err != nil {
		t.Fatalf("put research finding: %v", err)
	}

	findings, err := store.ListResearchFindings(context.Background(), "src-1", 10)
	if err != nil {
		t.Fatalf("list research findings: %v", err)
	}
	if len(findings) != 1 || findings[0].Markdown != finding.Markdown {
		t.Fatalf("findings = %+v, want one with markdown body", findings)
	}
}

func TestListOverdueAccountabilityGoals(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1")
	now := time.Date(2026, time.August, 4, 11, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)
	stale := now.Add(-3 * 24 * time.Hour)

	goals := []storage.AccountabilityGoalRecord{
		{ID: "goal-fresh", UserID: "user-1", Title: "Daily review", Cadence: 24 * time.Hour, LastCheckinAt: &recent, Active: true},
		{ID: "goal-stale", UserID: "user-1", Title: "Weekly essay", Cadence: 24 * time.Hour, LastCheckinAt: &stale, Active: true},
		{ID: "goal-inactive", UserID: "user-1", Title: "Paused", Cadence: 24 * time.Hour, LastCheckinAt: &stale, Active: false},
		{ID: "goal-new", UserID: "user-1", Title: "Brand new", Cadence: 24 * time.Hour, Active: true},
	}
	for _, goal := range goals {
		goal.CreatedAt = now.Add(-30 * time.Minute)
		if goal.ID == "goal-stale" || goal.ID == "goal-inactive" {
			goal.CreatedAt = now.Add(-10 * 24 * time.Hour)
		}
		if err := store.PutAccountabilityGoal(context.Background(), goal); err != nil {
			t.Fatalf("put goal %s: %v", goal.ID, err)
		}
	}

	overdue, err := store.ListOverdueAccountabilityGoals(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("list overdue goals: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != "goal-stale" {
		t.Fatalf("overdue = %+v, want only goal-stale", overdue)
	}

	if err := store.MarkAccountabilityGoalCheckedIn(context.Background(), "goal-stale", now); err != nil {
		t.Fatalf("mark checked in: %v", err)
	}
	overdue, err = store.ListOverdueAccountabilityGoals(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("list overdue after checkin: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("overdue after checkin = %+v, want none", overdue)
	}
}

func TestAccountabilityCheckinRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1")
	now := time.Date(2026, time.August, 4, 12, 0, 0, 0, time.UTC)
	err := store.PutAccountabilityGoal(context.Background(), storage.AccountabilityGoalRecord{
		ID: "goal-1", UserID: "user-1", Title: "Daily review",
		Cadence: 24 * time.Hour, Active: true, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("put goal: %v", err)
	}

	checkin := storage.AccountabilityCheckinRecord{
		ID:        "checkin-1",
		GoalID:    "goal-1",
		Kind:      storage.CheckinKindNudge,
		Message:   "Time to review your notes.",
		CreatedAt: now,
	}
	if err := store.PutAccountabilityCheckin(context.Background(), checkin); err != nil {
		t.Fatalf("put checkin: %v", err)
	}

	checkins, err := store.ListAccountabilityCheckins(context.Background(), "goal-1", 10)
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if len(checkins) != 1 || checkins[0].Kind != storage.CheckinKindNudge {
		t.Fatalf("checkins = %+v, want one nudge", checkins)
	}
}

func seedQuizSet(t *testing.T, store *Store, now time.Time) {
	t.Helper()

	err := store.PutNote(context.Background(), storage.NoteRecord{
		ID: "note-1", UserID: "user-1", Title: "Exam prep", Content: "x",
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}
	err = store.PutQuizSet(context.Background(), storage.QuizSetRecord{
		ID: "quiz-1", NoteID: "note-1", UserID: "user-1", Topic: "Exam prep",
		Questions: []storage.QuizQuestion{{Question: "q", Options: []string{"a", "b"}, Answer: 0}},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed quiz set: %v", err)
	}
}

func TestExamSessionLifecycle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1")
	now := time.Date(2026, time.August, 4, 13, 0, 0, 0, time.UTC)
	seedQuizSet(t, store, now)

	session := storage.ExamSessionRecord{
		ID:         "exam-1",
		UserID:     "user-1",
		QuizSetID:  "quiz-1",
		Status:     storage.ExamStatusActive,
		StartedAt:  now,
		DeadlineAt: now.Add(30 * time.Minute),
	}
	if err := store.PutExamSession(context.Background(), session); err != nil {
		t.Fatalf("put exam session: %v", err)
	}

	expired, err := store.ListExpiredExamSessions(context.Background(), now.Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("list expired before deadline: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expired before deadline = %+v, want none", expired)
	}

	expired, err = store.ListExpiredExamSessions(context.Background(), now.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("list expired after deadline: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "exam-1" {
		t.Fatalf("expired after deadline = %+v, want exam-1", expired)
	}

	closedAt := now.Add(20 * time.Minute)
	if err := store.CloseExamSession(context.Background(), "exam-1", storage.ExamStatusSubmitted, closedAt, 1, 1); err != nil {
		t.Fatalf("close exam session: %v", err)
	}

	got, err := store.GetExamSession(context.Background(), "exam-1")
	if err != nil {
		t.Fatalf("get exam session: %v", err)
	}
	if got.Status != storage.ExamStatusSubmitted {
		t.Fatalf("status = %q, want %q", got.Status, storage.ExamStatusSubmitted)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(closedAt) {
		t.Fatalf("submitted_at = %v, want %v", got.SubmittedAt, closedAt)
	}

	err = store.CloseExamSession(context.Background(), "exam-1", storage.ExamStatusExpired, now.Add(time.Hour), 0, 1)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("double close error = %v, want %v", err, storage.ErrConflict)
	}
}

func TestCloseExamSessionMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.CloseExamSession(context.Background(), "missing", storage.ExamStatusSubmitted, time.Now(), 0, 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("close missing session error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestMemoryConceptAndReviewRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedUser(t, store, "user-1")
	now := time.Date(2026, time.August, 4, 14, 0, 0, 0, time.UTC)

	concept := storage.MemoryConceptRecord{
		ID:             "concept-1",
		UserID:         "user-1",
		Name:           "Bayes theorem",
		StabilityHours: 24,
		LastReviewedAt: now,
		CreatedAt:      now,
	}
	if err := store.PutMemoryConcept(context.Background(), concept); err != nil {
		t.Fatalf("put concept: %v", err)
	}

	concept.StabilityHours = 48
	concept.LastReviewedAt = now.Add(24 * time.Hour)
	if err := store.PutMemoryConcept(context.Background(), concept); err != nil {
		t.Fatalf("update concept: %v", err)
	}

	got, err := store.GetMemoryConcept(context.Background(), "concept-1")
	if err != nil {
		t.Fatalf("get concept: %v", err)
	}
	if got.StabilityHours != 48 {
		t.Fatalf("stability = %v, want 48", got.StabilityHours)
	}

	review := storage.MemoryReviewRecord{
		ID:         "review-1",
		ConceptID:  "concept-1",
		ReviewedAt: now.Add(24 * time.Hour),
		Retention:  0.37,
		Outcome:    "recalled",
	}
	if err := store.PutMemoryReview(context.Background(), review); err != nil {
		t.Fatalf("put review: %v", err)
	}
	reviews, err := store.ListMemoryReviews(context.Background(), "concept-1", 10)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Retention != 0.37 {
		t.Fatalf("reviews = %+v, want one with retention 0.37", reviews)
	}
}
