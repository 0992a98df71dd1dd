package models

import (
	"encoding/json"
	"testing"
)

func TestAttachment_Struct(t *testing.T) {
	att := Attachment{
		ID:       "att-123",
		Type:     "image",
		URL:      "http://example.com/image.png",
		Filename: "image.png",
		MimeType: "image/png",
		Size:     1024,
	}

	if att.ID != "att-123" {
		t.Errorf("ID = %q, want %q", att.ID, "att-123")
	}
	if att.Type != "image" {
		t.Errorf("Type = %q, want %q", att.Type, "image")
	}
	if att.Size != 1024 {
		t.Errorf("Size = %d, want 1024", att.Size)
	}
}

func TestAttachment_JSONRoundTrip(t *testing.T) {
	original := Attachment{
		ID:       "att-1",
		Type:     "document",
		URL:      "http://example.com/log.txt",
		Filename: "log.txt",
		MimeType: "text/plain",
		Size:     512,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded Attachment
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded != original {
		t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestToolCall_Struct(t *testing.T) {
	tc := ToolCall{
		ID:    "tc-123",
		Name:  "ssh_exec",
		Input: json.RawMessage(`{"host":"web-01","command":"uptime"}`),
	}

	if tc.ID != "tc-123" {
		t.Errorf("ID = %q, want %q", tc.ID, "tc-123")
	}
	if tc.Name != "ssh_exec" {
		t.Errorf("Name = %q, want %q", tc.Name, "ssh_exec")
	}
}

func TestToolCall_JSONRoundTrip(t *testing.T) {
	original := ToolCall{
		ID:    "tc-1",
		Name:  "git_query",
		Input: json.RawMessage(`{"path":"/srv/app","query":"status"}`),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded ToolCall
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded.ID != original.ID || decoded.Name != original.Name || string(decoded.Input) != string(original.Input) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestToolResult_Struct(t *testing.T) {
	tr := ToolResult{
		ToolCallID: "tc-123",
		Content:    "load average: 0.12, 0.08, 0.05",
		IsError:    false,
	}

	if tr.ToolCallID != "tc-123" {
		t.Errorf("ToolCallID = %q, want %q", tr.ToolCallID, "tc-123")
	}
	if tr.IsError {
		t.Error("IsError should be false")
	}

	trError := ToolResult{
		ToolCallID: "tc-456",
		Content:    "connection refused",
		IsError:    true,
	}
	if !trError.IsError {
		t.Error("IsError should be true")
	}
}

func TestToolResult_WithAttachments(t *testing.T) {
	original := ToolResult{
		ToolCallID: "tc-2",
		Content:    "see attached log excerpt",
		Attachments: []Attachment{
			{ID: "att-2", Type: "document", URL: "file:///var/log/app.log"},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded ToolResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(decoded.Attachments) != 1 || decoded.Attachments[0].ID != "att-2" {
		t.Errorf("attachments did not round-trip: got %+v", decoded.Attachments)
	}
}
