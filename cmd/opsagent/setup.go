package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/agent/providers"
	"github.com/opsctl/agentcore/internal/agent/routing"
	"github.com/opsctl/agentcore/internal/audit"
	"github.com/opsctl/agentcore/internal/config"
	"github.com/opsctl/agentcore/internal/notify"
	"github.com/opsctl/agentcore/internal/observability"
	"github.com/opsctl/agentcore/internal/policy"
	"github.com/opsctl/agentcore/internal/tools/ssh"
)

// deployment bundles everything a command needs to drive the agent loop or
// inspect its state, all built from one loaded *config.Config.
type deployment struct {
	cfg      *config.Config
	provider agent.LLMProvider
	registry *agent.ToolRegistry
	engine   *policy.Engine
	store    audit.Store
	notifier *notify.Dispatcher
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	shutdown func(context.Context) error
	logger   *slog.Logger
}

// buildDeployment loads cfg from path and wires every component a run
// needs. providerOverride, when non-empty, bypasses routing and selects a
// single named provider directly.
func buildDeployment(path, providerOverride string) (*deployment, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	metrics := observability.NewMetrics()
	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "opsagent",
		Environment:    "production",
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		EnableInsecure: cfg.Tracing.EnableInsecure,
	})

	providerSet, err := buildProviders(cfg.LLM)
	if err != nil {
		return nil, err
	}

	provider, err := selectProvider(cfg.LLM, providerSet, providerOverride)
	if err != nil {
		return nil, err
	}

	store, err := buildAuditStore(cfg.Audit)
	if err != nil {
		return nil, err
	}

	notifier := notify.FromConfig(cfg.Notify, logger)
	engine, err := policy.NewEngine(cfg.Policies, metrics)
	if err != nil {
		return nil, fmt.Errorf("build policy engine: %w", err)
	}

	configSource := ssh.ConfigSource(func() *config.Config { return cfg })
	execTool := ssh.NewExecTool(configSource, engine, notifier)
	batchTool := ssh.NewBatchTool(execTool)
	logTailTool := ssh.NewLogTailTool(execTool)
	gitQueryTool := ssh.NewGitQueryTool(execTool)

	registry := agent.NewToolRegistry()
	for _, tool := range []agent.Tool{execTool, batchTool, logTailTool, gitQueryTool} {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}

	return &deployment{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		engine:   engine,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		tracer:   tracer,
		shutdown: shutdown,
		logger:   logger,
	}, nil
}

// buildProviders constructs one agent.LLMProvider per entry in llm.Providers
// whose credential environment variable is set. Bedrock is deliberately
// excluded: its configuration is AWS region/credential-chain shaped, not
// the uniform api_key_env the other providers share, so it has no home in
// this single-config-file CLI.
func buildProviders(llm config.LLMConfig) (map[string]agent.LLMProvider, error) {
	out := make(map[string]agent.LLMProvider)
	for name, pc := range llm.Providers {
		apiKey := os.Getenv(pc.APIKeyEnv)
		if apiKey == "" {
			continue
		}
		switch name {
		case "anthropic":
			p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{APIKey: apiKey})
			if err != nil {
				return nil, fmt.Errorf("build anthropic provider: %w", err)
			}
			out[name] = p
		case "openai":
			out[name] = providers.NewOpenAIProvider(apiKey)
		case "google":
			p, err := providers.NewGoogleProvider(providers.GoogleConfig{APIKey: apiKey})
			if err != nil {
				return nil, fmt.Errorf("build google provider: %w", err)
			}
			out[name] = p
		default:
			// Unknown provider name (or "bedrock"): skip rather than fail a
			// deployment that doesn't use it.
		}
	}
	return out, nil
}

// selectProvider returns a single named provider when override is set,
// otherwise a routing.Router built from llm.DefaultProvider/llm.Routing —
// the router's first real construction site in the tree.
func selectProvider(llm config.LLMConfig, providerSet map[string]agent.LLMProvider, override string) (agent.LLMProvider, error) {
	if override != "" {
		p, ok := providerSet[override]
		if !ok {
			return nil, fmt.Errorf("provider %q is not configured (missing entry or unset api key)", override)
		}
		return p, nil
	}
	if len(providerSet) == 0 {
		return nil, fmt.Errorf("no LLM provider is configured with a set API key")
	}

	rules := make([]routing.Rule, 0, len(llm.Routing))
	for _, r := range llm.Routing {
		rules = append(rules, routing.Rule{
			Name:  r.Scenario,
			Match: routing.Match{Patterns: conditionPatterns(r.Condition)},
			Target: routing.Target{
				Provider: r.Provider,
				Model:    r.Model,
			},
		})
	}

	router := routing.NewRouter(routing.Config{
		DefaultProvider: llm.DefaultProvider,
		Rules:           rules,
		FailureCooldown: 30 * time.Second,
	}, providerSet)

	return router, nil
}

// conditionPatterns maps a RoutingRule's free-form Condition expression
// into the single-pattern form routing.Match understands. The config
// schema carries a richer condition language than the router currently
// evaluates; until the router grows expression support, the whole
// condition string is treated as one literal pattern to match against the
// request.
func conditionPatterns(condition string) []string {
	if condition == "" {
		return nil
	}
	return []string{condition}
}

// buildAuditStore constructs the Store named by cfg.Backend, defaulting to
// a local SQLite file when unset.
func buildAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "memory":
		return audit.NewMemoryStore(), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "opsagent-audit.db"
		}
		return audit.NewSQLiteStore(path)
	case "postgres":
		return audit.NewPostgresStore(cfg.DSN, audit.DefaultPostgresConfig())
	default:
		return nil, fmt.Errorf("audit backend %q is not recognized", backend)
	}
}
