package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Provider != ProviderNone {
		t.Errorf("provider: got %s", cfg.Provider)
	}
	if cfg.Port != 8080 {
		t.Errorf("port: got %d", cfg.Port)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Provider != ProviderNone {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".creditdesk.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderOllama
	cfg.Model = "llama3"
	cfg.Port = 9191
	cfg.SessionTTLMinutes = 5
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Provider != ProviderOllama || loaded.Model != "llama3" {
		t.Errorf("provider/model: %+v", loaded)
	}
	if loaded.Port != 9191 || loaded.SessionTTLMinutes != 5 {
		t.Errorf("numbers: %+v", loaded)
	}
}

func TestLoadFillsDefaultModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".creditdesk.yml")
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q", loaded.Model)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CREDITDESK_PORT", "9999")
	t.Setenv("CREDITDESK_PROVIDER", "ollama")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("port override: got %d", cfg.Port)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("provider override: got %s", cfg.Provider)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.Provider = "anthropic" }},
		{"missing model", func(c *Config) { c.Provider = ProviderOpenAI; c.Model = "" }},
		{"port too low", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"negative rpm", func(c *Config) { c.LLMRequestsPerMinute = -1 }},
		{"zero ttl", func(c *Config) { c.SessionTTLMinutes = 0 }},
		{"zero sweep", func(c *Config) { c.SweepIntervalSeconds = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
