package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/services/accountability"
	"github.com/studyhall-ai/studyhall/internal/services/exammode"
	"github.com/studyhall-ai/studyhall/internal/services/research"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

// RuntimeConfig controls worker startup and poll behavior.
type RuntimeConfig struct {
	DBPath           string
	LLM              llm.Config
	NudgeInterval    time.Duration
	ExamInterval     time.Duration
	ResearchInterval time.Duration
	BatchLimit       int
}

const (
	defaultWorkerDB    = "data/studyhall.db"
	defaultBatchLimit  = 50
	defaultNudgeEvery  = 5 * time.Minute
	defaultExamEvery   = 30 * time.Second
	defaultSourceEvery = 10 * time.Minute
)

// Run opens the store and the LLM client and drives the pollers until ctx is
// cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultWorkerDB
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultBatchLimit
	}
	if cfg.NudgeInterval <= 0 {
		cfg.NudgeInterval = defaultNudgeEvery
	}
	if cfg.ExamInterval <= 0 {
		cfg.ExamInterval = defaultExamEvery
	}
	if cfg.ResearchInterval <= 0 {
		cfg.ResearchInterval = defaultSourceEvery
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close sqlite store: %v", closeErr)
		}
	}()

	client, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	accountabilitySvc := accountability.New(store, client)
	examSvc := exammode.New(store)
	researchSvc := research.New(store, client)

	runner, err := NewRunner(log.Printf,
		Task{
			Name:     "accountability-nudges",
			Interval: cfg.NudgeInterval,
			Tick: func(ctx context.Context) (int, error) {
				return accountabilitySvc.NudgeOverdue(ctx, cfg.BatchLimit)
			},
		},
		Task{
			Name:     "exam-expiry",
			Interval: cfg.ExamInterval,
			Tick: func(ctx context.Context) (int, error) {
				return examSvc.ExpireOverdue(ctx, cfg.BatchLimit)
			},
		},
		Task{
			Name:     "research-checks",
			Interval: cfg.ResearchInterval,
			Tick: func(ctx context.Context) (int, error) {
				return researchSvc.CheckDue(ctx, cfg.BatchLimit)
			},
		},
	)
	if err != nil {
		return err
	}

	log.Printf("worker started db=%s provider=%s", cfg.DBPath, client.Name())
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
