package notify

import "testing"

func TestNewDiscordNotifier(t *testing.T) {
	n, err := NewDiscordNotifier("test-bot-token", "123456789")
	if err != nil {
		t.Fatalf("NewDiscordNotifier() error = %v", err)
	}
	if n == nil {
		t.Fatal("NewDiscordNotifier() returned nil notifier")
	}
	if n.channelID != "123456789" {
		t.Errorf("channelID = %q, want %q", n.channelID, "123456789")
	}
	if n.session == nil {
		t.Error("expected a non-nil discordgo session")
	}
}

func TestDiscordNotifier_ImplementsNotifier(t *testing.T) {
	var _ Notifier = (*DiscordNotifier)(nil)
}
