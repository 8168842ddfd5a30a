// Package worker runs the background pollers: accountability nudges, exam
// session expiry, and research source checks. Each task ticks on its own
// interval over the shared store until the context is cancelled.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultInterval = time.Minute

// Task is one recurring poll. Tick reports how many items it processed; a
// tick error is logged and the task keeps running.
type Task struct {
	Name     string
	Interval time.Duration
	Tick     func(ctx context.Context) (int, error)
}

// Runner drives a set of tasks concurrently.
type Runner struct {
	tasks []Task
	logf  func(format string, args ...any)
}

// NewRunner builds a runner. A nil logf discards log output.
func NewRunner(logf func(format string, args ...any), tasks ...Task) (*Runner, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	for _, task := range tasks {
		if task.Name == "" {
			return nil, fmt.Errorf("task name is required")
		}
		if task.Tick == nil {
			return nil, fmt.Errorf("task %s has no tick function", task.Name)
		}
	}
	return &Runner{tasks: tasks, logf: logf}, nil
}

// Run ticks every task once immediately, then on its interval, until ctx is
// cancelled. It always returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, task := range r.tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			r.runTask(ctx, task)
		}(task)
	}
	wg.Wait()
	return ctx.Err()
}

func (r *Runner) runTask(ctx context.Context, task Task) {
	interval := task.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	r.tick(ctx, task)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx, task)
		}
	}
}

func (r *Runner) tick(ctx context.Context, task Task) {
	if ctx.Err() != nil {
		return
	}
	processed, err := task.Tick(ctx)
	if err != nil {
		r.logf("%s tick: %v", task.Name, err)
	}
	if processed > 0 {
		r.logf("%s processed %d", task.Name, processed)
	}
}
