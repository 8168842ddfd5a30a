// Package worker parses worker command flags and launches the worker runtime.
package worker

import (
	"context"
	"flag"
	"time"

	"github.com/studyhall-ai/studyhall/internal/llm"
	entrypoint "github.com/studyhall-ai/studyhall/internal/platform/cmd"
	"github.com/studyhall-ai/studyhall/internal/worker"
)

// Config holds worker command configuration.
type Config struct {
	DBPath           string        `env:"STUDYHALL_WORKER_DB_PATH" envDefault:"data/studyhall.db"`
	NudgeInterval    time.Duration `env:"STUDYHALL_WORKER_NUDGE_INTERVAL" envDefault:"5m"`
	ExamInterval     time.Duration `env:"STUDYHALL_WORKER_EXAM_INTERVAL" envDefault:"30s"`
	ResearchInterval time.Duration `env:"STUDYHALL_WORKER_RESEARCH_INTERVAL" envDefault:"10m"`
	BatchLimit       int           `env:"STUDYHALL_WORKER_BATCH_LIMIT" envDefault:"50"`
	LLM              llm.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The shared SQLite database path")
	fs.DurationVar(&cfg.NudgeInterval, "nudge-interval", cfg.NudgeInterval, "Accountability nudge poll interval")
	fs.DurationVar(&cfg.ExamInterval, "exam-interval", cfg.ExamInterval, "Exam session expiry poll interval")
	fs.DurationVar(&cfg.ResearchInterval, "research-interval", cfg.ResearchInterval, "Research source poll interval")
	fs.IntVar(&cfg.BatchLimit, "batch-limit", cfg.BatchLimit, "Maximum items processed per tick")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the worker runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorker, func(context.Context) error {
		return worker.Run(ctx, worker.RuntimeConfig{
			DBPath:           cfg.DBPath,
			LLM:              cfg.LLM,
			NudgeInterval:    cfg.NudgeInterval,
			ExamInterval:     cfg.ExamInterval,
			ResearchInterval: cfg.ResearchInterval,
			BatchLimit:       cfg.BatchLimit,
		})
	})
}
