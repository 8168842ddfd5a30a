package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type entrypointConfig struct {
	DBPath string `env:"STUDYHALL_ENTRYPOINT_TEST_DB" envDefault:"data/test.db"`
}

func TestParseConfigFromArgs(t *testing.T) {
	t.Setenv("STUDYHALL_ENTRYPOINT_TEST_DB", "data/env.db")

	var cfg entrypointConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-db-path", "data/flag.db"}); err != nil {
		t.Fatalf("parse config from args: %v", err)
	}
	if cfg.DBPath != "data/flag.db" {
		t.Fatalf("db path = %q, want flag override", cfg.DBPath)
	}
}

func TestParseConfigRequiresTarget(t *testing.T) {
	if err := ParseConfig[entrypointConfig](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestRunWithTelemetryRequiresService(t *testing.T) {
	err := RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	t.Setenv("STUDYHALL_OTEL_ENDPOINT", "")

	wantErr := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), ServiceWorker, func(context.Context) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want run error", err)
	}
}
