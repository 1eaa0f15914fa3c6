package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	// ProviderNone disables model-backed extraction; the deterministic
	// fallback parser handles every utterance.
	ProviderNone ProviderType = "none"
)

// Config is the top-level creditdesk configuration, corresponding to
// .creditdesk.yml.
type Config struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	// LLMRequestsPerMinute throttles extraction calls; 0 disables the limit.
	LLMRequestsPerMinute int `yaml:"llm_rpm" koanf:"llm_rpm"`

	Port    int    `yaml:"port" koanf:"port"`
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	SessionTTLMinutes    int `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" koanf:"sweep_interval_seconds"`

	// AllowAllOrigins relaxes CORS for local dashboard development.
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// SessionTTL returns the idle lifetime of persisted sessions.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often idle sessions are evicted.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
