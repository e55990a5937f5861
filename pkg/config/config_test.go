package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `environment: test
backend:
  type: log
databento:
  api_key: db-test-key
  symbols:
    - MES.FUT
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesEngineDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Backend.Type != "log" {
		t.Fatalf("backend = %q", c.Backend.Type)
	}
	// an omitted engine section inherits the full default profile
	if c.Engine.Timezone != "America/New_York" {
		t.Fatalf("timezone default = %q", c.Engine.Timezone)
	}
	if c.Engine.Crossover.FastPeriod == 0 || c.Engine.Crossover.SlowPeriod == 0 {
		t.Fatalf("crossover defaults missing: %+v", c.Engine.Crossover)
	}
	if c.Engine.Confluence.RSIOverbought != 70 {
		t.Fatalf("confluence defaults missing: %+v", c.Engine.Confluence)
	}
}

func TestLoadPartialEngineSectionKeepsDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML+`engine:
  timezone: UTC
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Engine.Timezone != "UTC" {
		t.Fatalf("override lost: %q", c.Engine.Timezone)
	}
	if c.Engine.Crossover.Timeframe == 0 {
		t.Fatalf("sibling defaults lost: %+v", c.Engine.Crossover)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `environment: test
backend:
  type: carrier-pigeon
databento:
  api_key: db-test-key
  symbols: [MES.FUT]
`))
	if err == nil {
		t.Fatalf("unknown backend must be rejected")
	}
}

func TestLoadRequiresSymbols(t *testing.T) {
	_, err := Load(writeConfig(t, `environment: test
backend:
  type: log
databento:
  api_key: db-test-key
`))
	if err == nil {
		t.Fatalf("empty symbol list must be rejected")
	}
}

func TestLoadWebhookBackendNeedsURL(t *testing.T) {
	_, err := Load(writeConfig(t, `environment: test
backend:
  type: webhook
databento:
  api_key: db-test-key
  symbols: [MES.FUT]
`))
	if err == nil {
		t.Fatalf("webhook backend without url must be rejected")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("DATABENTO_API_KEY", "env-key")
	t.Setenv("SYMBOLS", "ES.FUT,NQ.FUT")
	t.Setenv("BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SERVER_PORT", "not-a-port") // malformed value keeps the file's port

	c, err := LoadWithEnv(writeConfig(t, minimalYAML+`server:
  port: 9090
`))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.Databento.APIKey != "env-key" {
		t.Fatalf("api key override lost")
	}
	if len(c.Databento.Symbols) != 2 || c.Databento.Symbols[0] != "ES.FUT" {
		t.Fatalf("symbols = %v", c.Databento.Symbols)
	}
	if c.Backend.Type != "redis" || c.Redis.Addr != "redis.internal:6379" {
		t.Fatalf("backend override lost: %s %s", c.Backend.Type, c.Redis.Addr)
	}
	if c.Redis.DB != 3 {
		t.Fatalf("redis db override lost: %d", c.Redis.DB)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("malformed port override must keep file value, got %d", c.Server.Port)
	}
}
