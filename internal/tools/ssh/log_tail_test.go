package ssh

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opsctl/agentcore/internal/agent"
)

func logTailParamsJSON(t *testing.T, host, path, grep string) json.RawMessage {
	t.Helper()
	m := map[string]any{"host": host, "path": path}
	if grep != "" {
		m["grep"] = grep
	}
	payload, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return payload
}

func TestLogTailTool_MissingHostOrPath(t *testing.T) {
	tool := NewLogTailTool(newTestExecTool(nil))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"host":"web-01"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected an error result, got %+v", result)
	}
}

func TestLogTailTool_RejectsUnsafePath(t *testing.T) {
	tool := NewLogTailTool(newTestExecTool(nil))
	result, err := tool.Execute(context.Background(), logTailParamsJSON(t, "web-01", "/var/log/x.log; rm -rf /", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected a path containing shell metacharacters to be rejected, got %+v", result)
	}
}

func TestLogTailTool_RejectsUnsafeGrepFilter(t *testing.T) {
	tool := NewLogTailTool(newTestExecTool(nil))
	result, err := tool.Execute(context.Background(), logTailParamsJSON(t, "web-01", "/var/log/nginx/error.log", "error`whoami`"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected a grep filter containing shell metacharacters to be rejected, got %+v", result)
	}
}

func TestLogTailTool_UnknownHostDelegatesToExecAndFails(t *testing.T) {
	tool := NewLogTailTool(newTestExecTool(nil))
	result, err := tool.Execute(context.Background(), logTailParamsJSON(t, "not-a-host", "/var/log/nginx/error.log", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != agent.ToolResultError {
		t.Fatalf("expected the delegated ssh_exec failure to surface as an error result, got %+v", result)
	}
}

func TestLogTailTool_Schema(t *testing.T) {
	tool := NewLogTailTool(newTestExecTool(nil))
	var parsed map[string]any
	if err := json.Unmarshal(tool.Schema(), &parsed); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if parsed["type"] != "object" {
		t.Errorf(`schema["type"] = %v, want "object"`, parsed["type"])
	}
}

func TestLogTailTool_Name(t *testing.T) {
	tool := NewLogTailTool(newTestExecTool(nil))
	if tool.Name() != "log_tail" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "log_tail")
	}
}
