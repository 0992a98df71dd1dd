package ssh

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/notify"
	"github.com/opsctl/agentcore/internal/policy"
)

// BatchTool runs the same command across several inventory hosts
// concurrently, gated once by policy for the whole batch rather than once
// per host. Grounded in the source project's tools/ssh.py
// SSHExecBatchTool. Concurrent fan-out across hosts is expected; the
// aggregated result always lists hosts in the order they were given,
// regardless of per-host completion order.
type BatchTool struct {
	exec *ExecTool
}

// NewBatchTool builds the ssh_exec_batch tool over an existing ExecTool,
// reusing its config source and policy engine.
func NewBatchTool(exec *ExecTool) *BatchTool {
	return &BatchTool{exec: exec}
}

func (t *BatchTool) Name() string { return "ssh_exec_batch" }

func (t *BatchTool) Description() string {
	return "Run a shell command across multiple inventory hosts concurrently and aggregate the results."
}

func (t *BatchTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hosts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Host aliases from the inventory.",
			},
			"command": map[string]any{
				"type":        "string",
				"description": "Shell command to run on every host.",
			},
			agent.ConfirmArgKey: map[string]any{
				"type":        "string",
				"description": "Confirmation token from a prior pending_confirm response.",
			},
		},
		"required": []string{"hosts", "command"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

type batchParams struct {
	Hosts   []string `json:"hosts"`
	Command string   `json:"command"`
	Confirm string   `json:"confirm_token"`
}

func (t *BatchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in batchParams
	if err := json.Unmarshal(params, &in); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(in.Hosts) == 0 || in.Command == "" {
		return errorResult("hosts and command are required"), nil
	}

	decision, err := t.exec.engine.Check(policy.Request{
		ToolName:    t.Name(),
		Command:     in.Command,
		TargetCount: len(in.Hosts),
		ConfirmKey:  in.Confirm,
	})
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if t.exec.notifier != nil && notify.ShouldNotify(string(decision.Effect), decision.RiskLevel) {
		t.exec.notifier.Notify(ctx, notify.Event{
			ToolName:     t.Name(),
			Hosts:        in.Hosts,
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
		}, nil
	case policy.EffectRequireConfirm:
		return &agent.ToolResult{
			Status:       agent.ToolResultPendingConfirm,
			ConfirmToken: decision.ConfirmToken,
			Preview: map[string]any{
				"host_count": len(in.Hosts),
				"hosts":      in.Hosts,
				"command":    in.Command,
				"message":    decision.Message,
			},
		}, nil
	}

	results := t.runAll(ctx, in.Hosts, in.Command)

	successCount := 0
	lines := make([]string, len(in.Hosts))
	summaries := make([]map[string]any, len(in.Hosts))
	for i, host := range in.Hosts {
		r := results[i]
		icon := "OK"
		if r.Status != agent.ToolResultSuccess {
			icon = "FAIL"
		} else {
			successCount++
		}
		text := r.Output
		if r.Status != agent.ToolResultSuccess {
			text = r.Error
		}
		lines[i] = fmt.Sprintf("[%s] %s: %s", icon, host, text)

		var exitCode int
		if r.ExitCode != nil {
			exitCode = *r.ExitCode
		}
		summaries[i] = map[string]any{
			"host":      host,
			"status":    string(r.Status),
			"exit_code": exitCode,
		}
	}

	status := agent.ToolResultSuccess
	if successCount < len(in.Hosts) {
		status = agent.ToolResultError
	}

	return &agent.ToolResult{
		Status: status,
		Output: joinLines(lines),
		Metadata: map[string]any{
			"total":   len(in.Hosts),
			"success": successCount,
			"error":   len(in.Hosts) - successCount,
			"results": summaries,
		},
	}, nil
}

// runAll executes command on every host concurrently and returns results
// in the same order as hosts, independent of the order each goroutine
// finishes in.
func (t *BatchTool) runAll(ctx context.Context, hosts []string, command string) []*agent.ToolResult {
	results := make([]*agent.ToolResult, len(hosts))
	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			cfg := (*t.exec.config)()
			hostCfg, ok := cfg.Hosts[host]
			if !ok {
				results[i] = errorResult(fmt.Sprintf("host %q not found in inventory", host))
				return
			}
			result, err := execOnHost(ctx, cfg, host, hostCfg, command, defaultExecTimeout)
			if err != nil {
				results[i] = errorResult(err.Error())
				return
			}
			results[i] = result
		}(i, host)
	}
	wg.Wait()
	return results
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
