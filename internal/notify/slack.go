package notify

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackNotifier posts a notification to one Slack channel via a bot token,
// grounded in the teacher's internal/channels/slack.Adapter — same
// slack.New(botToken) client construction and PostMessageContext send
// call, narrowed to outbound-only use.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier builds a SlackNotifier posting to channel using botToken.
func NewSlackNotifier(botToken, channel string) *SlackNotifier {
	return &SlackNotifier{client: slack.New(botToken), channel: channel}
}

func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(formatText(event), false))
	return err
}
