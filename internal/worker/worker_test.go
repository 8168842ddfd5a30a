package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerStopsOnCancel(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	runner, err := NewRunner(nil, Task{
		Name:     "counter",
		Interval: 5 * time.Millisecond,
		Tick: func(context.Context) (int, error) {
			ticks.Add(1)
			return 1, nil
		},
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for ticks.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("task never ticked twice")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunnerSurvivesTickFailures(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	var logged atomic.Int64
	runner, err := NewRunner(
		func(string, ...any) { logged.Add(1) },
		Task{
			Name:     "flaky",
			Interval: 5 * time.Millisecond,
			Tick: func(context.Context) (int, error) {
				ticks.Add(1)
				return 0, errors.New("backend down")
			},
		},
	)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("failing task stopped ticking")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if logged.Load() == 0 {
		t.Fatal("tick failures were not logged")
	}
}

func TestNewRunnerRejectsInvalidTasks(t *testing.T) {
	t.Parallel()

	if _, err := NewRunner(nil, Task{Interval: time.Second, Tick: func(context.Context) (int, error) { return 0, nil }}); err == nil {
		t.Fatal("expected missing name error")
	}
	if _, err := NewRunner(nil, Task{Name: "no-tick", Interval: time.Second}); err == nil {
		t.Fatal("expected missing tick error")
	}
}
