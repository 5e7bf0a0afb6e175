package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
logging:
  level: debug
workers:
  count: 4
channels:
  - id: "310"
    gap_threshold: 2
    max_attempts: 0
    incremental:
      a: "224.0.31.1:14310"
      b: "224.0.32.1:15310"
      interface: eth1
    snapshot:
      a: "224.0.31.22:14320"
    replay:
      addr: "10.0.0.5:9100"
      rate_per_second: 10
  - id: "311"
    request_timeout_sec: 3
    incremental:
      a: "224.0.31.2:14311"
    snapshot:
      b: "224.0.32.23:15321"
    chaos:
      loss: 0.01
      max_delay_ms: 20
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdfeed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Workers.Count != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers.Count)
	}
	if cfg.Workers.QueueSize != 64 {
		t.Errorf("expected default queue size 64, got %d", cfg.Workers.QueueSize)
	}
	if cfg.Admin.Addr != ":8080" {
		t.Errorf("expected default admin addr, got '%s'", cfg.Admin.Addr)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(cfg.Channels))
	}

	first := cfg.Channels[0].FeedConfig()
	if first.Gap.MaxAttempts != 0 {
		t.Errorf("expected explicit max_attempts 0 to survive defaults, got %d", first.Gap.MaxAttempts)
	}
	if first.Gap.GapThreshold != 2 {
		t.Errorf("expected gap threshold 2, got %d", first.Gap.GapThreshold)
	}
	if first.Incremental.Interface != "eth1" || first.Incremental.B != "224.0.32.1:15310" {
		t.Errorf("unexpected incremental lines: %+v", first.Incremental)
	}
	if first.Replay == nil {
		t.Fatal("expected replay to be configured")
	}
	if first.Replay.Channel != "310" || first.Replay.DialTimeout != 5*time.Second {
		t.Errorf("unexpected replay config: %+v", *first.Replay)
	}

	second := cfg.Channels[1].FeedConfig()
	if second.Gap.MaxAttempts != 3 {
		t.Errorf("expected default max attempts 3, got %d", second.Gap.MaxAttempts)
	}
	if second.Gap.RequestTimeout != 3*time.Second {
		t.Errorf("expected request timeout 3s, got %s", second.Gap.RequestTimeout)
	}
	if second.Replay != nil {
		t.Error("expected replay to be disabled without an address")
	}
	if !second.Chaos.Enabled() || second.Chaos.MaxDelay != 20*time.Millisecond {
		t.Errorf("unexpected chaos config: %+v", second.Chaos)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MDFEED_WORKERS_COUNT", "7")
	t.Setenv("MDFEED_ADMIN_ADDR", "127.0.0.1:9999")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if cfg.Workers.Count != 7 {
		t.Errorf("expected env to override workers.count, got %d", cfg.Workers.Count)
	}
	if cfg.Admin.Addr != "127.0.0.1:9999" {
		t.Errorf("expected env to override admin.addr, got '%s'", cfg.Admin.Addr)
	}
}

func TestLoadWithoutChannels(t *testing.T) {
	_, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	if err == nil {
		t.Fatal("expected error when no channels are configured")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
}
