package ssh

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/config"
	"github.com/opsctl/agentcore/internal/notify"
	"github.com/opsctl/agentcore/internal/policy"
)

func testConfig() *config.Config {
	return &config.Config{
		Hosts: map[string]config.HostConfig{
			"web-01": {Env: "prod", User: "ops", Addr: "10.0.0.1", Port: 22},
		},
	}
}

func newTestExecTool(rules []config.PolicyRule) *ExecTool {
	engine, err := policy.NewEngine(rules, nil)
	if err != nil {
		panic(err)
	}
	source := ConfigSource(func() *config.Config { return testConfig() })
	return NewExecTool(source, engine, notify.NewDispatcher(nil))
}

func execParamsJSON(t *testing.T, host, command string) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"host": host, "command": command})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return payload
}

func TestExecTool_MissingHostOrCommand(t *testing.T) {
	tool := newTestExecTool(nil)
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"host":"web-01"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected an error result, got %+v", result)
	}
}

func TestExecTool_UnknownHost(t *testing.T) {
	tool := newTestExecTool(nil)
	result, err := tool.Execute(context.Background(), execParamsJSON(t, "not-a-host", "uptime"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected an error result for an unknown host, got %+v", result)
	}
}

func TestExecTool_DeniedByPolicy(t *testing.T) {
	rules := []config.PolicyRule{
		{Name: "block-destructive", Condition: config.PolicyCondition{ActionType: "destructive"}, Effect: "deny", Message: "destructive actions are blocked"},
	}
	tool := newTestExecTool(rules)

	result, err := tool.Execute(context.Background(), execParamsJSON(t, "web-01", "rm -rf /data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected a deny to surface as an error result, got %+v", result)
	}
	if result.Metadata["policy_effect"] != "deny" {
		t.Errorf("Metadata[policy_effect] = %v, want %q", result.Metadata["policy_effect"], "deny")
	}
	if result.Metadata["risk_level"] == nil {
		t.Error("expected risk_level to be recorded in Metadata")
	}
}

func TestExecTool_RequiresConfirmation(t *testing.T) {
	rules := []config.PolicyRule{
		{Name: "confirm-writes", Condition: config.PolicyCondition{ActionType: "write"}, Effect: "require_confirm"},
	}
	tool := newTestExecTool(rules)

	result, err := tool.Execute(context.Background(), execParamsJSON(t, "web-01", "systemctl restart nginx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultPendingConfirm {
		t.Fatalf("expected pending_confirm, got %+v", result)
	}
	if result.ConfirmToken == "" {
		t.Error("expected a confirm token to be minted")
	}
	if result.Preview["host"] == "" {
		t.Error("expected a preview describing the host")
	}
}

func TestExecTool_AllowedActionAttemptsConnectionAndTagsMetadata(t *testing.T) {
	tool := newTestExecTool(nil)

	payload, err := json.Marshal(map[string]any{"host": "web-01", "command": "uptime", "timeout": 1})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	result, err := tool.Execute(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No real SSH server is reachable in this test environment, so the
	// result is necessarily a connection-failure error — the point of
	// this test is that the policy decision's metadata still lands on it.
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected a connection-failure error result, got %+v", result)
	}
	if result.Metadata["policy_effect"] != "allow" {
		t.Errorf("Metadata[policy_effect] = %v, want %q", result.Metadata["policy_effect"], "allow")
	}
}

func TestExecTool_Schema(t *testing.T) {
	tool := newTestExecTool(nil)
	var parsed map[string]any
	if err := json.Unmarshal(tool.Schema(), &parsed); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if parsed["type"] != "object" {
		t.Errorf(`schema["type"] = %v, want "object"`, parsed["type"])
	}
}

func TestExecTool_Name(t *testing.T) {
	tool := newTestExecTool(nil)
	if tool.Name() != "ssh_exec" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "ssh_exec")
	}
}
