// Package observability provides comprehensive monitoring and debugging
// capabilities for the operations agent through metrics, structured
// logging, distributed tracing, and a replayable event timeline.
//
// # Overview
//
// The observability package implements the three pillars of observability,
// plus an event timeline for post-hoc debugging of a run:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive data redaction
//  3. Tracing - Distributed request tracing with OpenTelemetry
//  4. Events  - A replayable, queryable timeline of one run's lifecycle
//
// # Architecture
//
// The package is designed to be:
//   - Low-overhead: Minimal performance impact on production systems
//   - Type-safe: Strongly-typed APIs reduce configuration errors
//   - Production-ready: Built-in security (redaction) and reliability features
//   - Standards-based: Uses Prometheus, OpenTelemetry, and slog
//
// # Metrics
//
// Metrics are implemented using Prometheus client libraries and track:
//   - Agent-loop iteration counts by outcome (tool_use, end_turn, capped)
//   - LLM provider request latency, status, and token usage
//   - Tool execution counts and durations by tool name and status
//   - Policy decisions by effect and risk level
//   - Confirm-token lifecycle events (mint, consume, expire)
//   - Error rates by component and type
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	// Track an agent-loop iteration
//	metrics.RecordLoopIteration("tool_use")
//
//	// Track LLM requests
//	start := time.Now()
//	// ... make LLM request ...
//	metrics.RecordLLMRequest("anthropic", "claude-3-opus", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens)
//
//	// Track tool execution
//	start = time.Now()
//	// ... execute tool ...
//	metrics.RecordToolExecution("ssh_exec", "success", time.Since(start).Seconds())
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic request/session/host ID correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for production, text for development
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	// Add context IDs for correlation
//	ctx := observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddSessionID(ctx, sessionID)
//
//	// Structured logging with automatic context correlation
//	logger.Info(ctx, "tool executed",
//	    "tool_name", "ssh_exec",
//	    "host", host,
//	    "duration_ms", duration.Milliseconds(),
//	)
//
//	// Error logging with automatic redaction
//	logger.Error(ctx, "LLM request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // Automatically redacted
//	)
//
// # Tracing
//
// Distributed tracing uses OpenTelemetry to track requests across components:
//   - End-to-end request visualization
//   - Performance bottleneck identification
//   - Service dependency mapping
//   - Error correlation across services
//
// Example usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName:    "opsagent",
//	    ServiceVersion: "1.0.0",
//	    Environment:    "production",
//	    Endpoint:       "localhost:4317", // OTLP collector
//	    SamplingRate:   0.1,              // Sample 10% of traces
//	})
//	defer shutdown(context.Background())
//
//	// Trace one agent-loop iteration
//	ctx, span := tracer.TraceLoopIteration(ctx, sessionID, iteration)
//	defer span.End()
//
//	// Trace LLM requests
//	ctx, llmSpan := tracer.TraceLLMRequest(ctx, "anthropic", "claude-3-opus")
//	defer llmSpan.End()
//	tracer.SetAttributes(llmSpan, "prompt_tokens", 100, "completion_tokens", 500)
//
//	// Trace tool execution
//	ctx, toolSpan := tracer.TraceToolExecution(ctx, "ssh_exec")
//	defer toolSpan.End()
//	if err != nil {
//	    tracer.RecordError(toolSpan, err)
//	}
//
// # Events
//
// The event timeline records one run's lifecycle (run start/end, tool
// start/end/error, approval required/decided, LLM request/response/error,
// SSH host connect/disconnect) to an EventStore, and can replay it as a
// human-readable timeline via FormatTimeline — useful for reconstructing
// exactly what an agent did during an incident review.
//
//	recorder := observability.NewEventRecorder(observability.NewMemoryEventStore(0), logger)
//	ctx = observability.AddRunID(ctx, runID)
//	_ = recorder.RecordRunStart(ctx, runID, nil)
//	_ = recorder.RecordToolStart(ctx, "ssh_exec", input)
//	_ = recorder.RecordToolEnd(ctx, "ssh_exec", duration, output, nil)
//	events, _ := store.GetByRunID(runID)
//	fmt.Println(observability.FormatTimeline(observability.BuildTimeline(events)))
//
// # Context Propagation
//
// All components integrate with Go's context for automatic correlation:
//
//	// Add IDs to context
//	ctx = observability.AddRequestID(ctx, "req-123")
//	ctx = observability.AddSessionID(ctx, "sess-456")
//	ctx = observability.AddUserID(ctx, "user-789")
//	ctx = observability.AddHost(ctx, "web-01")
//
//	// IDs automatically appear in logs
//	logger.Info(ctx, "tool executed") // Includes request_id, session_id, host
//
//	// Spans inherit context
//	ctx, span := tracer.Start(ctx, "operation")
//	// Trace context propagates to child spans
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT tokens
//   - Bearer tokens
//   - Custom patterns via configuration
//
// Sensitive fields in maps are also redacted:
//   - password, passwd, pwd
//   - secret, api_key, apikey
//   - token, auth, authorization
//   - private_key, privatekey
//
// # Testing
//
// All components provide testable interfaces:
//   - Metrics can be verified using prometheus/testutil
//   - Logging can write to bytes.Buffer for assertions
//   - Tracing works with no-op exporters in tests
//   - Events can be recorded into a MemoryEventStore and asserted on directly
package observability
