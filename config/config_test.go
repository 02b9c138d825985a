package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(keys ...string) func() {
	for _, k := range keys {
		os.Unsetenv(k)
	}
	return func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	defer clearEnv("STAGE", "POSTGRES_HOST", "POLYMARKET_GAMMA_API_URL", "MONITOR_ENABLED")()

	cfg := Load()

	if cfg.IsProd {
		t.Error("expected IsProd false by default")
	}
	if cfg.Postgres.Host != "localhost" {
		t.Errorf("unexpected postgres host: %s", cfg.Postgres.Host)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("unexpected postgres port: %d", cfg.Postgres.Port)
	}
	if cfg.CentralAPI.GammaAPIURL != "https://gamma-api.polymarket.com" {
		t.Errorf("unexpected gamma API URL: %s", cfg.CentralAPI.GammaAPIURL)
	}
	if cfg.Baseline.MinSamples != 10 {
		t.Errorf("unexpected baseline min samples: %d", cfg.Baseline.MinSamples)
	}
	if !cfg.Scoring.UseWeightedMode {
		t.Error("expected weighted scoring mode by default")
	}
	if cfg.Scoring.TrinityThreshold != 2.0 {
		t.Errorf("unexpected trinity threshold: %v", cfg.Scoring.TrinityThreshold)
	}
	if !cfg.Monitor.Enabled {
		t.Error("expected monitor enabled by default")
	}
	if cfg.Monitor.ProbabilityThreshold != 0.85 {
		t.Errorf("unexpected monitor probability threshold: %v", cfg.Monitor.ProbabilityThreshold)
	}
	if len(cfg.OperatorHTTP.CORSOrigins) != 1 || cfg.OperatorHTTP.CORSOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins: %v", cfg.OperatorHTTP.CORSOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	defer clearEnv("STAGE", "POSTGRES_HOST", "POSTGRES_PORT", "BASELINE_MIN_SAMPLES",
		"SCORING_TRINITY_THRESHOLD", "MONITOR_POLL_INTERVAL")()

	os.Setenv("STAGE", "PROD")
	os.Setenv("POSTGRES_HOST", "db.internal")
	os.Setenv("POSTGRES_PORT", "6543")
	os.Setenv("BASELINE_MIN_SAMPLES", "25")
	os.Setenv("SCORING_TRINITY_THRESHOLD", "2.5")
	os.Setenv("MONITOR_POLL_INTERVAL", "30s")

	cfg := Load()

	if !cfg.IsProd {
		t.Error("expected IsProd true")
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("unexpected postgres host: %s", cfg.Postgres.Host)
	}
	if cfg.Postgres.Port != 6543 {
		t.Errorf("unexpected postgres port: %d", cfg.Postgres.Port)
	}
	if cfg.Baseline.MinSamples != 25 {
		t.Errorf("unexpected baseline min samples: %d", cfg.Baseline.MinSamples)
	}
	if cfg.Scoring.TrinityThreshold != 2.5 {
		t.Errorf("unexpected trinity threshold: %v", cfg.Scoring.TrinityThreshold)
	}
	if cfg.Monitor.PollInterval != 30*time.Second {
		t.Errorf("unexpected monitor poll interval: %v", cfg.Monitor.PollInterval)
	}
}

func TestEnvString(t *testing.T) {
	os.Setenv("TEST_STRING", "hello")
	defer os.Unsetenv("TEST_STRING")

	if v := envString("TEST_STRING", "default"); v != "hello" {
		t.Errorf("expected 'hello', got '%s'", v)
	}
	if v := envString("NONEXISTENT", "default"); v != "default" {
		t.Errorf("expected 'default', got '%s'", v)
	}

	os.Setenv("TEST_WHITESPACE", "  trimmed  ")
	defer os.Unsetenv("TEST_WHITESPACE")
	if v := envString("TEST_WHITESPACE", "default"); v != "trimmed" {
		t.Errorf("expected 'trimmed', got '%s'", v)
	}
}

func TestEnvInt(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")

	if v := envInt("TEST_INT", 0); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if v := envInt("NONEXISTENT", 100); v != 100 {
		t.Errorf("expected 100, got %d", v)
	}

	os.Setenv("TEST_INVALID_INT", "not-a-number")
	defer os.Unsetenv("TEST_INVALID_INT")
	if v := envInt("TEST_INVALID_INT", 50); v != 50 {
		t.Errorf("expected 50 for invalid int, got %d", v)
	}
}

func TestEnvFloat(t *testing.T) {
	os.Setenv("TEST_FLOAT", "3.14159")
	defer os.Unsetenv("TEST_FLOAT")

	if v := envFloat("TEST_FLOAT", 0); v != 3.14159 {
		t.Errorf("expected 3.14159, got %f", v)
	}
	if v := envFloat("NONEXISTENT", 2.5); v != 2.5 {
		t.Errorf("expected 2.5, got %f", v)
	}

	os.Setenv("TEST_INVALID_FLOAT", "not-a-number")
	defer os.Unsetenv("TEST_INVALID_FLOAT")
	if v := envFloat("TEST_INVALID_FLOAT", 1.5); v != 1.5 {
		t.Errorf("expected 1.5 for invalid float, got %f", v)
	}
}

func TestEnvDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "5m30s")
	defer os.Unsetenv("TEST_DURATION")

	expected := 5*time.Minute + 30*time.Second
	if v := envDuration("TEST_DURATION", 0); v != expected {
		t.Errorf("expected %v, got %v", expected, v)
	}
	if v := envDuration("NONEXISTENT", 10*time.Second); v != 10*time.Second {
		t.Errorf("expected 10s, got %v", v)
	}

	os.Setenv("TEST_INVALID_DURATION", "not-a-duration")
	defer os.Unsetenv("TEST_INVALID_DURATION")
	if v := envDuration("TEST_INVALID_DURATION", 1*time.Minute); v != 1*time.Minute {
		t.Errorf("expected 1m for invalid duration, got %v", v)
	}
}

func TestEnvBool(t *testing.T) {
	os.Setenv("TEST_BOOL_TRUE", "PROD")
	os.Setenv("TEST_BOOL_FALSE", "DEV")
	os.Setenv("TEST_BOOL_CASE", "prod")
	defer func() {
		os.Unsetenv("TEST_BOOL_TRUE")
		os.Unsetenv("TEST_BOOL_FALSE")
		os.Unsetenv("TEST_BOOL_CASE")
	}()

	if !envBool("TEST_BOOL_TRUE", "PROD") {
		t.Error("expected true for PROD")
	}
	if envBool("TEST_BOOL_FALSE", "PROD") {
		t.Error("expected false for DEV")
	}
	if !envBool("TEST_BOOL_CASE", "PROD") {
		t.Error("expected true for case-insensitive match")
	}
	if envBool("NONEXISTENT", "PROD") {
		t.Error("expected false for nonexistent")
	}
}

func TestEnvBoolDefault(t *testing.T) {
	os.Setenv("TEST_BOOL_YES", "yes")
	defer os.Unsetenv("TEST_BOOL_YES")

	if !envBoolDefault("TEST_BOOL_YES", false) {
		t.Error("expected true for 'yes'")
	}
	if !envBoolDefault("NONEXISTENT", true) {
		t.Error("expected default true when unset")
	}
}

func TestEnvStringSliceDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     []string
	}{
		{"unset uses default", "", []string{"*"}},
		{"single value", "abc", []string{"abc"}},
		{"multiple values", "abc,def,ghi", []string{"abc", "def", "ghi"}},
		{"whitespace trimmed", "abc , def , ghi ", []string{"abc", "def", "ghi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue == "" {
				os.Unsetenv("TEST_SLICE")
			} else {
				os.Setenv("TEST_SLICE", tt.envValue)
			}
			defer os.Unsetenv("TEST_SLICE")

			got := envStringSliceDefault("TEST_SLICE", []string{"*"})
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Defaults()
	result := cfg.Validate()
	if !result.Valid {
		t.Fatalf("defaults should validate clean, got errors: %v", result.Errors)
	}

	cfg.Postgres.Port = 0
	cfg.Scoring.TrinityBoost = 0.5
	result = cfg.Validate()
	if result.Valid {
		t.Fatal("expected invalid config to fail validation")
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 validation errors, got %d: %v", len(result.Errors), result.Errors)
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := Defaults()
	clone := cfg.Clone()
	clone.OperatorHTTP.CORSOrigins[0] = "mutated"
	if cfg.OperatorHTTP.CORSOrigins[0] == "mutated" {
		t.Error("Clone should deep-copy CORSOrigins, not alias it")
	}
}
