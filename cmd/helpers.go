package cmd

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/creditdesk/creditdesk/internal/agent"
	"github.com/creditdesk/creditdesk/internal/config"
	"github.com/creditdesk/creditdesk/internal/db"
	"github.com/creditdesk/creditdesk/internal/intent"
	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/llm"
	"github.com/creditdesk/creditdesk/internal/resolve"
	"github.com/creditdesk/creditdesk/internal/session"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// runtime bundles everything a command needs to drive the agent.
type runtime struct {
	cfg       *config.Config
	db        *db.DB
	store     *ledger.Store
	sessions  session.Store
	retrieval *tools.Retrieval
	actions   *tools.Actions
	manager   *agent.Manager
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildRuntime opens the database and assembles the full agent stack.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	database, err := db.Open(filepath.Join(cfg.DataDir, "creditdesk.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := ledger.NewStore(database)
	sessions := session.NewSQLStore(database)
	retrieval := tools.NewRetrieval(store)
	actions := tools.NewActions(store)
	resolver := resolve.New(store)

	provider, err := buildProvider(cfg)
	if err != nil {
		database.Close()
		return nil, err
	}
	extractor := intent.NewExtractor(provider, cfg.Model)

	manager := agent.NewManager(agent.Deps{
		Extractor: extractor,
		Retrieval: retrieval,
		Actions:   actions,
		Resolver:  resolver,
		Sessions:  sessions,
	})

	return &runtime{
		cfg:       cfg,
		db:        database,
		store:     store,
		sessions:  sessions,
		retrieval: retrieval,
		actions:   actions,
		manager:   manager,
	}, nil
}

// buildProvider creates the configured LLM provider, rate limited. Provider
// "none" returns nil, which routes every utterance through the deterministic
// parser.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	if cfg.Provider == config.ProviderNone {
		log.Printf("cmd: no LLM provider configured, using deterministic intent parsing")
		return nil, nil
	}
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.LLMRequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.LLMRequestsPerMinute)
	}
	return provider, nil
}

func (rt *runtime) Close() {
	if err := rt.db.Close(); err != nil {
		log.Printf("cmd: closing database: %v", err)
	}
}
