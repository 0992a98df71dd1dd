package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier posts a notification to one Discord channel via a bot
// token, grounded in the teacher's internal/channels/discord.Adapter —
// same discordgo.New("Bot "+token) construction and ChannelMessageSend
// call, narrowed to outbound-only use.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordNotifier builds a DiscordNotifier posting to channelID using
// botToken. It returns an error if the discordgo session cannot be
// constructed from the token.
func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("construct discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, event Event) error {
	_, err := n.session.ChannelMessageSend(n.channelID, formatText(event))
	return err
}
