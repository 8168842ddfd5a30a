// Package seed populates a local database with a demo user and starter notes.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	entrypoint "github.com/studyhall-ai/studyhall/internal/platform/cmd"
	"github.com/studyhall-ai/studyhall/internal/storage"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string `env:"STUDYHALL_SEED_DB_PATH" envDefault:"data/studyhall.db"`
	Verbose bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The shared SQLite database path")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Seed record IDs are fixed so reruns upsert instead of duplicating.
const demoUserID = "demo-user"

var demoNotes = []storage.NoteRecord{
	{
		ID:      "demo-note-spaced-repetition",
		Title:   "Spaced repetition",
		Content: "Reviews spaced over growing intervals beat massed practice. Retention decays roughly exponentially between reviews, and each successful recall slows the decay.",
	},
	{
		ID:      "demo-note-sql-joins",
		Title:   "SQL joins",
		Content: "An inner join keeps only matching rows. A left join keeps every row from the left table and fills missing right-side columns with NULL.",
	},
	{
		ID:      "demo-note-goroutines",
		Title:   "Goroutines and channels",
		Content: "Goroutines are cheap concurrent functions. Channels move values between them; closing a channel signals no more sends.",
	},
}

// Run seeds the database and writes a short report to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	user := storage.UserRecord{
		ID:          demoUserID,
		Email:       "demo@studyhall.local",
		DisplayName: "Demo Student",
		CreatedAt:   now,
	}
	if err := store.PutUser(ctx, user); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if cfg.Verbose {
		fmt.Fprintf(out, "user %s (%s)\n", user.ID, user.Email)
	}

	for _, note := range demoNotes {
		note.UserID = user.ID
		note.CreatedAt = now
		note.UpdatedAt = now
		if err := store.PutNote(ctx, note); err != nil {
			return fmt.Errorf("seed note %s: %w", note.ID, err)
		}
		if cfg.Verbose {
			fmt.Fprintf(out, "note %s (%s)\n", note.ID, note.Title)
		}
	}

	fmt.Fprintf(out, "seeded 1 user and %d notes into %s\n", len(demoNotes), cfg.DBPath)
	return nil
}
