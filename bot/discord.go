package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordPlatform implements Platform for one guild over a discordgo session.
type DiscordPlatform struct {
	Session *discordgo.Session
	GuildID string

	mu        sync.Mutex
	roleNames map[string]string
}

func NewDiscordPlatform(s *discordgo.Session, guildID string) *DiscordPlatform {
	return &DiscordPlatform{Session: s, GuildID: guildID}
}

func (d *DiscordPlatform) MemberRoles(ctx context.Context, userID string) ([]Role, error) {
	member, err := d.Session.GuildMember(d.GuildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	names, err := d.roleNameMap(ctx, member.Roles)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, len(member.Roles))
	for _, id := range member.Roles {
		roles = append(roles, Role{ID: id, Name: names[id]})
	}
	return roles, nil
}

// roleNameMap refetches guild roles whenever an unknown id shows up.
func (d *DiscordPlatform) roleNameMap(ctx context.Context, ids []string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stale := d.roleNames == nil
	for _, id := range ids {
		if _, ok := d.roleNames[id]; !ok {
			stale = true
			break
		}
	}
	if stale {
		roles, err := d.Session.GuildRoles(d.GuildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch guild roles: %w", err)
		}
		d.roleNames = make(map[string]string, len(roles))
		for _, r := range roles {
			d.roleNames[r.ID] = r.Name
		}
	}
	return d.roleNames, nil
}

func (d *DiscordPlatform) AddRole(ctx context.Context, userID, roleID string) error {
	return d.Session.GuildMemberRoleAdd(d.GuildID, userID, roleID, discordgo.WithContext(ctx))
}

func (d *DiscordPlatform) RemoveRole(ctx context.Context, userID, roleID string) error {
	return d.Session.GuildMemberRoleRemove(d.GuildID, userID, roleID, discordgo.WithContext(ctx))
}

func (d *DiscordPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return d.Session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (d *DiscordPlatform) Send(ctx context.Context, channelID, content string) (string, error) {
	m, err := d.Session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (d *DiscordPlatform) Reply(ctx context.Context, channelID, messageID, content string) (string, error) {
	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID, GuildID: d.GuildID}
	m, err := d.Session.ChannelMessageSendReply(channelID, content, ref, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (d *DiscordPlatform) ChannelHistory(ctx context.Context, channelID string, limit int) ([]string, error) {
	msgs, err := d.Session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (d *DiscordPlatform) SendPanel(ctx context.Context, channelID string, panel Panel) (string, error) {
	m, err := d.Session.ChannelMessageSendEmbed(channelID, panelEmbed(panel), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (d *DiscordPlatform) EditPanel(ctx context.Context, channelID, messageID string, panel Panel) error {
	_, err := d.Session.ChannelMessageEditEmbed(channelID, messageID, panelEmbed(panel), discordgo.WithContext(ctx))
	return err
}

func (d *DiscordPlatform) React(ctx context.Context, channelID, messageID, emoji string) error {
	return d.Session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

// GuildName looks up the guild's display name.
func (d *DiscordPlatform) GuildName(ctx context.Context) (string, error) {
	g, err := d.Session.Guild(d.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

func panelEmbed(p Panel) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	embed := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Fields:      fields,
		Color:       p.Color,
	}
	if p.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: p.Footer}
	}
	return embed
}

// Attach registers the app's handlers on the session. Events are dispatched
// one at a time so each handler finishes before the next starts.
func (a *App) Attach(ctx context.Context, s *discordgo.Session) {
	s.SyncEvents = true
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Logger.Info("✅ Online", zap.String("user", r.User.Username))
		if err := s.UpdateGameStatus(0, a.Config.Roles.Activity); err != nil {
			a.Logger.Warn("⚠️ Could not set activity", zap.Error(err))
		}
		if err := a.SetupPrestigePanel(ctx); err != nil {
			a.Logger.Error("❌ Prestige panel setup failed", zap.Error(err))
		}
	})

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if ev, ok := messageEvent(m.Message); ok {
			a.HandleMessage(ctx, ev)
		}
	})

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		if ev, ok := messageEvent(m.Message); ok {
			a.HandleMessageUpdate(ctx, ev)
		}
	})

	s.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		isBot := r.Member != nil && r.Member.User != nil && r.Member.User.Bot
		if s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
			isBot = true
		}
		a.HandleReaction(ctx, ReactionEvent{
			ChannelID: r.ChannelID,
			MessageID: r.MessageID,
			UserID:    r.UserID,
			UserBot:   isBot,
			Emoji:     r.Emoji.Name,
		})
	})
}

// messageEvent converts a discordgo message; updates without an author are skipped.
func messageEvent(m *discordgo.Message) (MessageEvent, bool) {
	if m == nil || m.Author == nil {
		return MessageEvent{}, false
	}
	return MessageEvent{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
	}, true
}
