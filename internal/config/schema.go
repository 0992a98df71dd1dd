package config

import "fmt"

// Config is the root configuration for an opsagent deployment: LLM provider
// routing, the static host/jump inventory, service groupings, and the policy
// rule set evaluated before every tool execution.
type Config struct {
	LLM      LLMConfig                `yaml:"llm"`
	Hosts    map[string]HostConfig    `yaml:"hosts"`
	Jumps    map[string]JumpConfig    `yaml:"jumps"`
	Services map[string]ServiceConfig `yaml:"services"`
	Policies []PolicyRule             `yaml:"policies"`
	Notify   NotifyConfig             `yaml:"notify,omitempty"`
	Audit    AuditConfig              `yaml:"audit,omitempty"`
	Tracing  TracingConfig            `yaml:"tracing,omitempty"`
}

// AuditConfig selects the backend the audit store persists sessions and
// tool calls to. Backend defaults to "sqlite" with Path defaulting to
// "opsagent-audit.db" when both are left unset.
type AuditConfig struct {
	Backend string `yaml:"backend,omitempty"` // "memory", "sqlite", "postgres"
	Path    string `yaml:"path,omitempty"`    // sqlite file path
	DSN     string `yaml:"dsn,omitempty"`     // postgres connection string
}

// TracingConfig configures OTLP span export for the agent loop and its
// tool calls. An unset Endpoint leaves tracing a local no-op — spans are
// still created and threaded through contexts, they simply aren't
// exported anywhere.
type TracingConfig struct {
	Endpoint       string  `yaml:"endpoint,omitempty"`
	SamplingRate   float64 `yaml:"sampling_rate,omitempty"`
	EnableInsecure bool    `yaml:"insecure,omitempty"`
}

// NotifyConfig selects which operator channel(s) receive best-effort
// require_confirm/critical notifications. Any combination may be set; all
// configured channels receive the notification.
type NotifyConfig struct {
	Slack    *SlackNotifyConfig    `yaml:"slack,omitempty"`
	Discord  *DiscordNotifyConfig  `yaml:"discord,omitempty"`
	Telegram *TelegramNotifyConfig `yaml:"telegram,omitempty"`
}

// SlackNotifyConfig configures outbound posting to a Slack channel via a
// bot token. BotTokenEnv names the environment variable holding the xoxb-
// token; the token itself never appears in configuration files.
type SlackNotifyConfig struct {
	BotTokenEnv string `yaml:"bot_token_env"`
	Channel     string `yaml:"channel"`
}

// DiscordNotifyConfig configures outbound posting to a Discord channel via
// a bot token.
type DiscordNotifyConfig struct {
	BotTokenEnv string `yaml:"bot_token_env"`
	ChannelID   string `yaml:"channel_id"`
}

// TelegramNotifyConfig configures outbound posting to a Telegram chat via
// a bot token.
type TelegramNotifyConfig struct {
	BotTokenEnv string `yaml:"bot_token_env"`
	ChatID      string `yaml:"chat_id"`
}

// LLMConfig selects a default provider, configures each available provider,
// and lists scenario-based routing overrides.
type LLMConfig struct {
	DefaultProvider string                         `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig   `yaml:"providers"`
	Routing         []RoutingRule                  `yaml:"routing"`
}

// LLMProviderConfig configures one named provider entry. APIKeyEnv names the
// environment variable holding the credential; the key itself never appears
// in configuration files.
type LLMProviderConfig struct {
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// RoutingRule picks a provider (and optionally a model override) for a named
// scenario, subject to an optional condition expression.
type RoutingRule struct {
	Scenario  string `yaml:"scenario"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model,omitempty"`
	Condition string `yaml:"condition,omitempty"`
}

// HostConfig is one entry in the static inventory ssh_exec and its relatives
// resolve a host alias against.
type HostConfig struct {
	Env         string   `yaml:"env"`
	User        string   `yaml:"user"`
	Addr        string   `yaml:"addr"`
	Port        int      `yaml:"port"`
	Jump        string   `yaml:"jump,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	SSHKey      string   `yaml:"ssh_key,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Group       string   `yaml:"group,omitempty"`
}

// JumpConfig describes a bastion host used to reach a HostConfig whose Jump
// field names it.
type JumpConfig struct {
	Addr string `yaml:"addr"`
	User string `yaml:"user"`
	Port int    `yaml:"port"`
}

// ServiceConfig groups hosts under a named service for log-tailing and
// health-check tooling.
type ServiceConfig struct {
	Description string              `yaml:"description,omitempty"`
	Hosts       []string            `yaml:"hosts"`
	Logs        *ServiceLogsConfig  `yaml:"logs,omitempty"`
	K8s         *ServiceK8sConfig   `yaml:"k8s,omitempty"`
}

// ServiceLogsConfig points log_tail at a default path for a service's hosts.
type ServiceLogsConfig struct {
	Path string `yaml:"path"`
}

// ServiceK8sConfig records the Kubernetes coordinates of a service, when it
// runs in a cluster rather than directly on its listed hosts.
type ServiceK8sConfig struct {
	Namespace string `yaml:"namespace"`
	Selector  string `yaml:"selector,omitempty"`
}

// PolicyCondition narrows a PolicyRule to a subset of invocations. A nil
// field is unconstrained; all set fields must match for the rule to apply.
type PolicyCondition struct {
	Env         string `yaml:"env,omitempty"`
	ActionType  string `yaml:"action_type,omitempty"`
	TargetCount string `yaml:"target_count,omitempty"`
}

// PolicyRule is one ordered entry in the policy engine's rule table.
type PolicyRule struct {
	Name      string          `yaml:"name"`
	Condition PolicyCondition `yaml:"condition"`
	Effect    string          `yaml:"effect"`
	Message   string          `yaml:"message,omitempty"`
}

// Load reads and resolves the configuration at path, including any
// $include directives, and decodes it into a Config.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks structural invariants Load cannot rely on the YAML
// decoder to enforce: every jump reference resolves, every policy rule has
// a recognized effect, and every service host reference resolves.
func (c *Config) Validate() error {
	for alias, host := range c.Hosts {
		if host.Jump == "" {
			continue
		}
		if _, ok := c.Jumps[host.Jump]; !ok {
			return fmt.Errorf("host %q references unknown jump %q", alias, host.Jump)
		}
	}
	for name, svc := range c.Services {
		for _, alias := range svc.Hosts {
			if _, ok := c.Hosts[alias]; !ok {
				return fmt.Errorf("service %q references unknown host %q", name, alias)
			}
		}
	}
	for _, rule := range c.Policies {
		switch rule.Effect {
		case "allow", "require_confirm", "deny":
		default:
			return fmt.Errorf("policy %q has unrecognized effect %q", rule.Name, rule.Effect)
		}
	}
	switch c.Audit.Backend {
	case "", "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("audit backend %q is not recognized", c.Audit.Backend)
	}
	return nil
}
