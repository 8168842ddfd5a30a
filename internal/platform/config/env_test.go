package config

import "testing"

type testConfig struct {
	Addr string `env:"STUDYHALL_TEST_ADDR" envDefault:"localhost:9999"`
	Name string `env:"STUDYHALL_TEST_NAME"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "localhost:9999" {
		t.Fatalf("addr = %q, want default", cfg.Addr)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("STUDYHALL_TEST_ADDR", "localhost:1234")
	t.Setenv("STUDYHALL_TEST_NAME", "studyhall")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "localhost:1234" {
		t.Fatalf("addr = %q, want override", cfg.Addr)
	}
	if cfg.Name != "studyhall" {
		t.Fatalf("name = %q, want studyhall", cfg.Name)
	}
}
