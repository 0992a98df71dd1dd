package agent

import (
	"encoding/json"
	"testing"
)

func TestValidateToolArgs_Valid(t *testing.T) {
	tool := &fakeTool{name: "t", schema: requiredHostSchema()}
	if err := validateToolArgs(tool, json.RawMessage(`{"host":"web-01"}`)); err != nil {
		t.Errorf("expected valid args to pass, got %v", err)
	}
}

func TestValidateToolArgs_MissingRequiredField(t *testing.T) {
	tool := &fakeTool{name: "t2", schema: requiredHostSchema()}
	if err := validateToolArgs(tool, json.RawMessage(`{}`)); err == nil {
		t.Error("expected an error for a missing required field")
	}
}

func TestValidateToolArgs_MalformedJSON(t *testing.T) {
	tool := &fakeTool{name: "t3", schema: requiredHostSchema()}
	if err := validateToolArgs(tool, json.RawMessage(`not json`)); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestValidateToolArgs_CachesCompiledSchema(t *testing.T) {
	tool := &fakeTool{name: "t4-cache", schema: requiredHostSchema()}
	if err := validateToolArgs(tool, json.RawMessage(`{"host":"a"}`)); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, ok := schemaCache.Load(tool.Name()); !ok {
		t.Error("expected the compiled schema to be cached by tool name")
	}
	if err := validateToolArgs(tool, json.RawMessage(`{"host":"b"}`)); err != nil {
		t.Errorf("second call (cached): %v", err)
	}
}

func TestValidateToolArgs_UnparseableSchemaDoesNotBlockExecution(t *testing.T) {
	tool := &fakeTool{name: "t5-badschema", schema: json.RawMessage(`{not valid schema`)}
	if err := validateToolArgs(tool, json.RawMessage(`{"anything":1}`)); err != nil {
		t.Errorf("a tool with an unparseable schema should not block its own calls, got %v", err)
	}
}
