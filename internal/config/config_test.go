package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
server:
  listen: ":9090"

providers:
  default:
    api: openai
    base_url: https://api.openai.com/v1
    api_key: ${AGENTSMITH_OPENAI_KEY}
    model: gpt-4o-mini
  fallback:
    api: openrouter
    api_key: ${AGENTSMITH_OPENROUTER_KEY}

store:
  driver: sqlite
  dsn: /var/lib/agentsmith/agents.db

cache:
  enabled: true
  addr: ${AGENTSMITH_REDIS_ADDR}
  ttl: 1h

schedules:
  - name: nightly-stock-report
    cron: "0 2 * * *"
    api_input: shopify
    goal: send the lowest stock items to my mail
    message: email me today's lowest stock items
    provider: default

log:
  level: debug
`

func TestParse(t *testing.T) {
	t.Setenv("AGENTSMITH_OPENAI_KEY", "sk-test")
	t.Setenv("AGENTSMITH_REDIS_ADDR", "redis.internal:6379")

	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Providers["default"].APIKey != "sk-test" {
		t.Errorf("api key = %q, env var should expand", cfg.Providers["default"].APIKey)
	}
	if cfg.Cache.Addr != "redis.internal:6379" {
		t.Errorf("cache addr = %q", cfg.Cache.Addr)
	}
	if cfg.Cache.TTL.Std() != time.Hour {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Cron != "0 2 * * *" {
		t.Errorf("schedules = %+v", cfg.Schedules)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestParseUnsetEnvVarLeftVerbatim(t *testing.T) {
	t.Setenv("AGENTSMITH_OPENAI_KEY", "sk-test")
	os.Unsetenv("AGENTSMITH_OPENROUTER_KEY")

	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Providers["fallback"].APIKey; got != "${AGENTSMITH_OPENROUTER_KEY}" {
		t.Errorf("unset var = %q, want the reference left in place", got)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "agentsmith.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestParseRejectsBadDriver(t *testing.T) {
	_, err := Parse([]byte("store:\n  driver: frobnidb\n"))
	if err == nil || !strings.Contains(err.Error(), "store.driver") {
		t.Errorf("err = %v", err)
	}
}

func TestParseRejectsPostgresWithoutDSN(t *testing.T) {
	_, err := Parse([]byte("store:\n  driver: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "store.dsn") {
		t.Errorf("err = %v", err)
	}
}

func TestParseRejectsUnknownProviderAPI(t *testing.T) {
	_, err := Parse([]byte("providers:\n  p:\n    api: anthropic\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown api") {
		t.Errorf("err = %v", err)
	}
}

func TestParseRejectsScheduleWithoutCron(t *testing.T) {
	_, err := Parse([]byte("schedules:\n  - name: broken\n    api_input: shopify\n"))
	if err == nil || !strings.Contains(err.Error(), "cron") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen: \":7070\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != ":7070" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
