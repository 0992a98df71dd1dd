package notify

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/opsctl/agentcore/internal/config"
)

// FromConfig builds a Dispatcher covering whichever channels cfg
// configures. A channel whose token environment variable is unset is
// skipped with a warning rather than failing the whole dispatcher — a
// missing credential should not prevent the agent from starting.
func FromConfig(cfg config.NotifyConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	var notifiers []Notifier

	if sc := cfg.Slack; sc != nil {
		token, ok := lookupToken(sc.BotTokenEnv, "slack", logger)
		if ok {
			notifiers = append(notifiers, NewSlackNotifier(token, sc.Channel))
		}
	}
	if dc := cfg.Discord; dc != nil {
		token, ok := lookupToken(dc.BotTokenEnv, "discord", logger)
		if ok {
			n, err := NewDiscordNotifier(token, dc.ChannelID)
			if err != nil {
				logger.Warn("discord notifier disabled", "error", err)
			} else {
				notifiers = append(notifiers, n)
			}
		}
	}
	if tc := cfg.Telegram; tc != nil {
		token, ok := lookupToken(tc.BotTokenEnv, "telegram", logger)
		if ok {
			n, err := NewTelegramNotifier(token, tc.ChatID)
			if err != nil {
				logger.Warn("telegram notifier disabled", "error", err)
			} else {
				notifiers = append(notifiers, n)
			}
		}
	}

	return NewDispatcher(logger, notifiers...)
}

func lookupToken(envVar, channel string, logger *slog.Logger) (string, bool) {
	if envVar == "" {
		logger.Warn(fmt.Sprintf("%s notifier configured with no bot_token_env", channel))
		return "", false
	}
	token := os.Getenv(envVar)
	if token == "" {
		logger.Warn(fmt.Sprintf("%s notifier disabled: %s is unset", channel, envVar))
		return "", false
	}
	return token, true
}
