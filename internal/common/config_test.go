package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Environment != "development" {
		t.Errorf("got environment %q, want development", cfg.Environment)
	}
	if cfg.Pacing.SubmitDelayMinSeconds != DefaultSubmitDelayMinSeconds {
		t.Errorf("got min delay %d, want %d", cfg.Pacing.SubmitDelayMinSeconds, DefaultSubmitDelayMinSeconds)
	}
	if cfg.Retry.MaxRetries != DefaultMaxRetries {
		t.Errorf("got max retries %d, want %d", cfg.Retry.MaxRetries, DefaultMaxRetries)
	}
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dropscout.toml")
	contents := `
[pacing]
submit_delay_min_seconds = 7
submit_delay_max_seconds = 20

[retry]
max_retries = 5
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pacing.SubmitDelayMinSeconds != 7 || cfg.Pacing.SubmitDelayMaxSeconds != 20 {
		t.Errorf("file override not applied: %+v", cfg.Pacing)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("got max retries %d, want 5", cfg.Retry.MaxRetries)
	}
	// Fields not present in the file keep their defaults.
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("got port %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
}

func TestApplyEnvOverrides_PacingAndRetry(t *testing.T) {
	t.Setenv("SUBMIT_DELAY_MIN_SECONDS", "3")
	t.Setenv("SUBMIT_DELAY_MAX_SECONDS", "9")
	t.Setenv("WARMUP_QUEUE_DEPTH", "25")
	t.Setenv("RETRY_BASE_SECONDS", "60")
	t.Setenv("RETRY_JITTER_SECONDS", "10")
	t.Setenv("MAX_RETRIES", "2")
	t.Setenv("FETCHER_API_KEY", "secret-key")
	t.Setenv("FETCHER_BASE_URL", "https://fetcher.example")
	t.Setenv("WEBHOOK_BASE_URL", "https://dropscout.example.com")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Pacing.SubmitDelayMinSeconds != 3 || cfg.Pacing.SubmitDelayMaxSeconds != 9 {
		t.Errorf("pacing env overrides not applied: %+v", cfg.Pacing)
	}
	if cfg.Pacing.WarmupQueueDepth != 25 {
		t.Errorf("got warmup depth %d, want 25", cfg.Pacing.WarmupQueueDepth)
	}
	if cfg.Retry.BaseSeconds != 60 || cfg.Retry.JitterSeconds != 10 || cfg.Retry.MaxRetries != 2 {
		t.Errorf("retry env overrides not applied: %+v", cfg.Retry)
	}
	if cfg.Fetcher.APIKey != "secret-key" || cfg.Fetcher.BaseURL != "https://fetcher.example" {
		t.Errorf("fetcher env overrides not applied: %+v", cfg.Fetcher)
	}
	if cfg.Webhook.BaseURL != "https://dropscout.example.com" {
		t.Errorf("got webhook base url %q", cfg.Webhook.BaseURL)
	}
}

func TestApplyEnvOverrides_InvalidIntIgnored(t *testing.T) {
	t.Setenv("MAX_RETRIES", "not-a-number")
	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)
	if cfg.Retry.MaxRetries != DefaultMaxRetries {
		t.Errorf("invalid env value should be ignored, got %d", cfg.Retry.MaxRetries)
	}
}

func TestValidateCronSchedule(t *testing.T) {
	if err := ValidateCronSchedule("*/5 * * * *"); err != nil {
		t.Errorf("expected valid schedule, got error: %v", err)
	}
	if err := ValidateCronSchedule("not a cron expression"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{" production ", true},
		{"development", false},
		{"", false},
	}
	for _, tt := range tests {
		cfg := &Config{Environment: tt.env}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() with env %q = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestDeepCloneConfig_IndependentSlices(t *testing.T) {
	original := NewDefaultConfig()
	original.Logging.Output = []string{"stdout", "file"}

	clone := DeepCloneConfig(original)
	clone.Logging.Output[0] = "mutated"

	if original.Logging.Output[0] != "stdout" {
		t.Error("mutating clone's slice affected the original")
	}
}

func TestDeepCloneConfig_Nil(t *testing.T) {
	if DeepCloneConfig(nil) != nil {
		t.Error("expected nil clone for nil input")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 9090, "127.0.0.1")
	if cfg.Server.Port != 9090 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("flag overrides not applied: %+v", cfg.Server)
	}

	// Zero/empty values leave existing config untouched.
	cfg2 := NewDefaultConfig()
	ApplyFlagOverrides(cfg2, 0, "")
	if cfg2.Server.Port != DefaultServerPort || cfg2.Server.Host != DefaultServerHost {
		t.Errorf("zero-value flags should not override defaults: %+v", cfg2.Server)
	}
}
