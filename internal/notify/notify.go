// Package notify sends best-effort alerts to an operator channel when the
// policy engine flags an action as require_confirm or critical. Grounded in
// SPEC_FULL.md's Notifier section; the source project has no equivalent —
// Slack/Discord/Telegram adapters are new domain-stack wiring, shaped after
// the teacher's channel adapters in internal/channels/*.
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Event describes one notification-worthy tool invocation: a policy
// decision of require_confirm, or any decision carrying a critical risk
// level, for a tool whose command touched one or more hosts.
type Event struct {
	SessionID    string
	ToolName     string
	Hosts        []string
	Command      string
	RiskLevel    string
	Effect       string
	ConfirmToken string
	Message      string
}

// Notifier delivers an Event to an operator channel. Implementations must
// not block longer than a short, bounded timeout; callers treat every
// error as best-effort and swallow it after logging.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Dispatcher fans an Event out to every configured Notifier concurrently
// and never returns an error itself: failures are logged and swallowed,
// identically to the audit store's best-effort write semantics.
type Dispatcher struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewDispatcher builds a Dispatcher over zero or more configured
// notifiers. A Dispatcher with no notifiers is valid and simply does
// nothing on every call.
func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{notifiers: notifiers, logger: logger}
}

// Notify sends event to every configured channel. It never returns an
// error; each channel's failure is logged with the tool name and session
// so an operator can diagnose a broken webhook without the underlying
// tool call appearing to have failed.
func (d *Dispatcher) Notify(ctx context.Context, event Event) {
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			d.logger.Warn("notification delivery failed",
				"tool", event.ToolName,
				"session_id", event.SessionID,
				"error", err)
		}
	}
}

// formatText renders an Event as the plain-text message body shared by
// every channel implementation.
func formatText(event Event) string {
	risk := event.RiskLevel
	if risk == "" {
		risk = "unknown"
	}
	text := fmt.Sprintf("*%s* requires confirmation (risk: %s)\nHosts: %s\nCommand: `%s`",
		event.ToolName, risk, joinHosts(event.Hosts), event.Command)
	if event.ConfirmToken != "" {
		text += fmt.Sprintf("\nConfirm token: `%s`", event.ConfirmToken)
	}
	if event.Message != "" {
		text += fmt.Sprintf("\n%s", event.Message)
	}
	return text
}

func joinHosts(hosts []string) string {
	if len(hosts) == 0 {
		return "(none)"
	}
	out := hosts[0]
	for _, h := range hosts[1:] {
		out += ", " + h
	}
	return out
}

// ShouldNotify reports whether a policy decision warrants an operator
// notification: any require_confirm effect, or a critical risk level
// regardless of effect.
func ShouldNotify(effect, riskLevel string) bool {
	return effect == "require_confirm" || riskLevel == "critical"
}
