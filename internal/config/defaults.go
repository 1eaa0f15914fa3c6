package config

// defaultModels maps each provider to the model used when none is set.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:             ProviderNone,
		LLMRequestsPerMinute: 60,
		Port:                 8080,
		DataDir:              ".creditdesk",
		SessionTTLMinutes:    30,
		SweepIntervalSeconds: 60,
		AllowAllOrigins:      false,
	}
}

// DefaultModel returns the default model for the given provider.
func DefaultModel(provider ProviderType) string {
	return defaultModels[provider]
}
