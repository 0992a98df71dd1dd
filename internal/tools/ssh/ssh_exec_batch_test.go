package ssh

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/config"
)

func batchParamsJSON(t *testing.T, hosts []string, command string) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"hosts": hosts, "command": command})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return payload
}

func TestBatchTool_MissingHostsOrCommand(t *testing.T) {
	tool := NewBatchTool(newTestExecTool(nil))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"uptime"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected an error result, got %+v", result)
	}
}

func TestBatchTool_DeniedByPolicyAppliesOnceToWholeBatch(t *testing.T) {
	rules := []config.PolicyRule{
		{Name: "block-destructive", Condition: config.PolicyCondition{ActionType: "destructive"}, Effect: "deny", Message: "destructive actions are blocked"},
	}
	tool := NewBatchTool(newTestExecTool(rules))

	result, err := tool.Execute(context.Background(), batchParamsJSON(t, []string{"web-01", "web-02"}, "rm -rf /data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected the whole batch to be denied as a single decision, got %+v", result)
	}
}

func TestBatchTool_RequiresConfirmationOnceForWholeBatch(t *testing.T) {
	rules := []config.PolicyRule{
		{Name: "confirm-writes", Condition: config.PolicyCondition{ActionType: "write"}, Effect: "require_confirm"},
	}
	tool := NewBatchTool(newTestExecTool(rules))

	result, err := tool.Execute(context.Background(), batchParamsJSON(t, []string{"web-01"}, "systemctl restart nginx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultPendingConfirm {
		t.Fatalf("expected pending_confirm, got %+v", result)
	}
	if result.ConfirmToken == "" {
		t.Error("expected a confirm token to be minted")
	}
	if result.Preview["host_count"] != 1 {
		t.Errorf("Preview[host_count] = %v, want 1", result.Preview["host_count"])
	}
}

func TestBatchTool_AggregatesResultsInHostOrder(t *testing.T) {
	tool := NewBatchTool(newTestExecTool(nil))

	hosts := []string{"web-01", "not-a-host", "also-not-a-host"}
	result, err := tool.Execute(context.Background(), batchParamsJSON(t, hosts, "uptime"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected overall error status since not every host succeeded, got %+v", result)
	}

	summaries, ok := result.Metadata["results"].([]map[string]any)
	if !ok {
		t.Fatalf("expected Metadata[results] to be a []map[string]any, got %T", result.Metadata["results"])
	}
	if len(summaries) != len(hosts) {
		t.Fatalf("expected %d per-host summaries, got %d", len(hosts), len(summaries))
	}
	for i, host := range hosts {
		if summaries[i]["host"] != host {
			t.Errorf("summaries[%d][host] = %v, want %q (aggregated results must preserve input order)", i, summaries[i]["host"], host)
		}
	}
	if result.Metadata["total"] != len(hosts) {
		t.Errorf("Metadata[total] = %v, want %d", result.Metadata["total"], len(hosts))
	}
	if result.Metadata["error"] != len(hosts)-1 {
		t.Errorf("Metadata[error] = %v, want %d (two unknown hosts out of three)", result.Metadata["error"], len(hosts)-1)
	}
}

func TestBatchTool_Schema(t *testing.T) {
	tool := NewBatchTool(newTestExecTool(nil))
	var parsed map[string]any
	if err := json.Unmarshal(tool.Schema(), &parsed); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if parsed["type"] != "object" {
		t.Errorf(`schema["type"] = %v, want "object"`, parsed["type"])
	}
}

func TestBatchTool_Name(t *testing.T) {
	tool := NewBatchTool(newTestExecTool(nil))
	if tool.Name() != "ssh_exec_batch" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "ssh_exec_batch")
	}
}
