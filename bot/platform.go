package bot

import (
	"context"

	"cup-bot/services"
)

// Role is a guild role held by a member.
type Role = services.Role

// Platform is everything the bot needs from the chat service.
type Platform interface {
	services.RoleDirectory
	services.MessageDeleter

	// Send posts content to a channel and returns the new message id.
	Send(ctx context.Context, channelID, content string) (string, error)
	// Reply posts content as a reply to messageID.
	Reply(ctx context.Context, channelID, messageID, content string) (string, error)

	// ChannelHistory returns up to limit recent message ids, newest first.
	ChannelHistory(ctx context.Context, channelID string, limit int) ([]string, error)
	SendPanel(ctx context.Context, channelID string, panel Panel) (string, error)
	EditPanel(ctx context.Context, channelID, messageID string, panel Panel) error
	React(ctx context.Context, channelID, messageID, emoji string) error
}

// MessageEvent is a created or edited chat message.
type MessageEvent struct {
	ID        string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// ReactionEvent is a reaction added to a message.
type ReactionEvent struct {
	ChannelID string
	MessageID string
	UserID    string
	UserBot   bool
	Emoji     string
}

func mention(userID string) string {
	return "<@" + userID + ">"
}
