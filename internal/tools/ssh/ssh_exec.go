package ssh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/config"
	"github.com/opsctl/agentcore/internal/notify"
	"github.com/opsctl/agentcore/internal/policy"
)

const defaultExecTimeout = 30 * time.Second

// ConfigSource supplies the current host/jump inventory. A function rather
// than a bare *config.Config so a caller that reloads configuration on
// SIGHUP or a file-watch event can hand the tool a fresh snapshot on every
// call, mirroring the source project's ssh.py re-calling load_config() per
// invocation.
type ConfigSource func() *config.Config

// ExecTool runs a single shell command on one inventory host over SSH,
// gated by the policy engine. Grounded in the source project's
// tools/ssh.py SSHExecTool.
type ExecTool struct {
	config   *ConfigSource
	engine   *policy.Engine
	notifier *notify.Dispatcher
}

// NewExecTool builds the ssh_exec tool. notifier may be nil, in which case
// require_confirm/critical decisions simply go unnotified.
func NewExecTool(source ConfigSource, engine *policy.Engine, notifier *notify.Dispatcher) *ExecTool {
	return &ExecTool{config: &source, engine: engine, notifier: notifier}
}

func (t *ExecTool) Name() string { return "ssh_exec" }

func (t *ExecTool) Description() string {
	return "Run a shell command on a remote host, identified by its inventory alias, optionally via a jump host."
}

func (t *ExecTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"host": map[string]any{
				"type":        "string",
				"description": "Host alias from the inventory (e.g. prod-api-3) or a raw address.",
			},
			"command": map[string]any{
				"type":        "string",
				"description": "Shell command to run on the remote host.",
			},
			"env": map[string]any{
				"type":        "string",
				"enum":        []string{"dev", "staging", "prod"},
				"description": "Environment override for policy evaluation; defaults to the host's configured environment.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"default":     30,
				"description": "Command timeout in seconds.",
			},
			agent.ConfirmArgKey: map[string]any{
				"type":        "string",
				"description": "Confirmation token from a prior pending_confirm response.",
			},
		},
		"required": []string{"host", "command"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

type execParams struct {
	Host    string `json:"host"`
	Command string `json:"command"`
	Env     string `json:"env"`
	Timeout int    `json:"timeout"`
	Confirm string `json:"confirm_token"`
}

func (t *ExecTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in execParams
	if err := json.Unmarshal(params, &in); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if in.Host == "" || in.Command == "" {
		return errorResult("host and command are required"), nil
	}
	if in.Timeout <= 0 {
		in.Timeout = int(defaultExecTimeout.Seconds())
	}

	cfg := (*t.config)()
	host, ok := cfg.Hosts[in.Host]
	if !ok {
		return errorResult(fmt.Sprintf("host %q not found in inventory", in.Host)), nil
	}

	env := in.Env
	if env == "" {
		env = host.Env
	}

	decision, err := t.engine.Check(policy.Request{
		ToolName:    t.Name(),
		Command:     in.Command,
		Env:         env,
		TargetCount: 1,
		ConfirmKey:  in.Confirm,
	})
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if t.notifier != nil && notify.ShouldNotify(string(decision.Effect), decision.RiskLevel) {
		t.notifier.Notify(ctx, notify.Event{
			ToolName:     t.Name(),
			Hosts:        []string{in.Host},
			Command:      in.Command,
			RiskLevel:    decision.RiskLevel,
			Effect:       string(decision.Effect),
			ConfirmToken: decision.ConfirmToken,
			Message:      decision.Message,
		})
	}

	switch decision.Effect {
	case policy.EffectDeny:
		return &agent.ToolResult{
			Status: agent.ToolResultError,
			Error:  fmt.Sprintf("action denied by policy: %s", decision.Message),
			Metadata: map[string]any{
				"policy_rule":   decision.Rule,
				"policy_effect": string(decision.Effect),
				"risk_level":    decision.RiskLevel,
			},
		}, nil
	case policy.EffectRequireConfirm:
		return &agent.ToolResult{
			Status:       agent.ToolResultPendingConfirm,
			ConfirmToken: decision.ConfirmToken,
			Preview: map[string]any{
				"host":        fmt.Sprintf("%s (%s)", in.Host, host.Addr),
				"command":     in.Command,
				"env":         env,
				"risk_level":  decision.RiskLevel,
				"message":     decision.Message,
			},
			Metadata: map[string]any{
				"policy_effect": string(decision.Effect),
				"risk_level":    decision.RiskLevel,
			},
		}, nil
	}

	result, err := execOnHost(ctx, cfg, in.Host, host, in.Command, time.Duration(in.Timeout)*time.Second)
	if result != nil {
		if result.Metadata == nil {
			result.Metadata = map[string]any{}
		}
		result.Metadata["policy_effect"] = string(decision.Effect)
		result.Metadata["risk_level"] = decision.RiskLevel
	}
	return result, err
}

// execOnHost dials host and runs command, translating connection failures
// into the operator-facing categories the source project distinguished by
// exception type (no route / auth failure / protocol failure / timeout).
func execOnHost(ctx context.Context, cfg *config.Config, alias string, host config.HostConfig, command string, timeout time.Duration) (*agent.ToolResult, error) {
	start := time.Now()

	client, err := dial(cfg, host, timeout)
	if err != nil {
		return &agent.ToolResult{
			Status: agent.ToolResultError,
			Error:  fmt.Sprintf("SSH connection to %q failed: %s", alias, classifyDialError(err)),
		}, nil
	}
	defer client.Close()

	result, err := run(client, command, timeout)
	duration := time.Since(start).Seconds()
	if err != nil {
		return &agent.ToolResult{
			Status: agent.ToolResultError,
			Error:  fmt.Sprintf("command on %q failed: %s", alias, err.Error()),
		}, nil
	}

	exitCode := result.ExitCode
	if exitCode == 0 {
		return &agent.ToolResult{
			Status:      agent.ToolResultSuccess,
			Output:      result.Stdout,
			Error:       result.Stderr,
			ExitCode:    &exitCode,
			DurationSec: duration,
			Metadata: map[string]any{
				"host":          alias,
				"resolved_addr": host.Addr,
				"jump_used":     host.Jump,
				"user":          host.User,
			},
		}, nil
	}

	errText := result.Stderr
	if errText == "" {
		errText = fmt.Sprintf("command exited with code %d", exitCode)
	}
	return &agent.ToolResult{
		Status:      agent.ToolResultError,
		Output:      result.Stdout,
		Error:       errText,
		ExitCode:    &exitCode,
		DurationSec: duration,
	}, nil
}

func classifyDialError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unable to authenticate"):
		return "authentication rejected — check the host's ssh_key or agent identity: " + msg
	case strings.Contains(lower, "connection refused"):
		return "connection refused — the SSH service may not be running: " + msg
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "i/o timeout"):
		return "connection timed out — the host may be down or unreachable: " + msg
	case strings.Contains(lower, "no route to host"):
		return "no route to host — check network connectivity: " + msg
	default:
		return msg
	}
}

func errorResult(message string) *agent.ToolResult {
	return &agent.ToolResult{Status: agent.ToolResultError, Error: message}
}
