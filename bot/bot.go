package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cup-bot/config"
	"cup-bot/services"
	"cup-bot/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	prestigeAnnounceTTL = 5 * time.Minute
	prestigeRefusedTTL  = 5 * time.Second
	panelHistoryLimit   = 50
)

// App carries the platform session, resolved config and services into every
// event handler.
type App struct {
	Platform  Platform
	Config    *config.Config
	Store     *services.CounterStore
	Ranks     *services.RankResolver
	Rewards   *services.RewardService
	Prestige  *services.PrestigeService
	Policy    *services.ChannelPolicy
	Deletions *services.DeletionQueue
	Logger    *zap.Logger

	mu             sync.Mutex
	panelMessageID string
}

// NewApp wires the game services on top of a platform and database.
func NewApp(cfg *config.Config, platform Platform, db *gorm.DB, clock clockwork.Clock, logger *zap.Logger) *App {
	store := services.NewCounterStore(db)
	ranks := services.NewRankResolver(platform)
	milestones := services.NewMilestoneService(platform, cfg.Roles.MilestoneRoles, logger)

	return &App{
		Platform:  platform,
		Config:    cfg,
		Store:     store,
		Ranks:     ranks,
		Rewards:   services.NewRewardService(store, ranks, milestones, logger),
		Prestige:  services.NewPrestigeService(store, ranks, platform, milestones, cfg.Roles.PrestigeRoles, cfg.Roles.CosmeticRoles, logger),
		Policy:    services.NewChannelPolicy(cfg.CupChannelID, cfg.CupsChannelID),
		Deletions: services.NewDeletionQueue(clock, platform, logger),
		Logger:    logger,
	}
}

// PanelMessageID is the prestige panel being watched for reactions.
func (a *App) PanelMessageID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.panelMessageID
}

func (a *App) setPanelMessageID(id string) {
	a.mu.Lock()
	a.panelMessageID = id
	a.mu.Unlock()
}

// HandleMessage enforces the channel keyword and routes accepted messages.
func (a *App) HandleMessage(ctx context.Context, ev MessageEvent) {
	if ev.AuthorBot {
		return
	}
	rule, ok := a.Policy.Rule(ev.ChannelID)
	if !ok {
		return
	}
	if !rule.Allows(ev.Content) {
		a.reject(ctx, ev, rule)
		return
	}

	switch rule.Kind {
	case services.KindCup:
		a.awardCup(ctx, ev)
	case services.KindCups:
		a.reportCups(ctx, ev)
	}
}

// HandleMessageUpdate deletes cup channel messages edited into something else.
func (a *App) HandleMessageUpdate(ctx context.Context, ev MessageEvent) {
	if ev.AuthorBot {
		return
	}
	rule, ok := a.Policy.Rule(ev.ChannelID)
	if !ok || rule.Kind != services.KindCup || rule.Allows(ev.Content) {
		return
	}
	a.deleteMessage(ctx, ev.ChannelID, ev.ID)
}

// HandleReaction prestiges users who react to the prestige panel.
func (a *App) HandleReaction(ctx context.Context, ev ReactionEvent) {
	if ev.UserBot || ev.Emoji != PrestigeEmoji {
		return
	}
	if panel := a.PanelMessageID(); panel == "" || ev.MessageID != panel {
		return
	}

	level, err := a.Prestige.TryPrestige(ctx, ev.UserID)
	switch {
	case errors.Is(err, services.ErrNotEnoughCups):
		a.sendTimed(ctx, ev.ChannelID,
			fmt.Sprintf("%s, you don't have enough cups to prestige.", mention(ev.UserID)),
			prestigeRefusedTTL)
		return
	case err != nil && level == 0:
		a.Logger.Error("❌ Prestige failed", zap.String("user_id", ev.UserID), zap.Error(err))
		return
	case err != nil:
		// counters were reset; only a role call failed
		a.Logger.Warn("⚠️ Prestige role update failed", zap.String("user_id", ev.UserID), zap.Error(err))
	}

	a.sendTimed(ctx, ev.ChannelID,
		fmt.Sprintf("**Congratulations to %s for unlocking Prestige %d!**", mention(ev.UserID), level),
		prestigeAnnounceTTL)
}

// SetupPrestigePanel posts the panel if the channel is empty, otherwise
// refreshes the oldest message, and starts watching it for reactions.
func (a *App) SetupPrestigePanel(ctx context.Context) error {
	channelID := a.Config.PrestigeChannelID
	panel := PrestigePanel()

	ids, err := a.Platform.ChannelHistory(ctx, channelID, panelHistoryLimit)
	if err != nil {
		return fmt.Errorf("fetch prestige channel history: %w", err)
	}

	if len(ids) == 0 {
		id, err := a.Platform.SendPanel(ctx, channelID, panel)
		if err != nil {
			return fmt.Errorf("post prestige panel: %w", err)
		}
		if err := a.Platform.React(ctx, channelID, id, PrestigeEmoji); err != nil {
			a.Logger.Warn("⚠️ Could not react to prestige panel", zap.Error(err))
		}
		a.setPanelMessageID(id)
		a.Logger.Info("✅ Prestige panel posted", zap.String("message_id", id))
		return nil
	}

	oldest := ids[len(ids)-1]
	if err := a.Platform.EditPanel(ctx, channelID, oldest, panel); err != nil {
		return fmt.Errorf("refresh prestige panel: %w", err)
	}
	a.setPanelMessageID(oldest)
	a.Logger.Info("✅ Prestige panel refreshed", zap.String("message_id", oldest))
	return nil
}

func (a *App) awardCup(ctx context.Context, ev MessageEvent) {
	out, err := a.Rewards.AwardCup(ctx, ev.AuthorID)
	if err != nil {
		a.Logger.Error("❌ Failed to award cup", zap.String("user_id", ev.AuthorID), zap.Error(err))
		return
	}
	if !out.Legendary {
		return
	}
	if _, err := a.Platform.Reply(ctx, ev.ChannelID, ev.ID,
		fmt.Sprintf("%s, you got a legendary cup!", mention(ev.AuthorID))); err != nil {
		a.Logger.Warn("⚠️ Failed to announce legendary cup", zap.Error(err))
	}
}

func (a *App) reportCups(ctx context.Context, ev MessageEvent) {
	counts, err := a.Store.GetCounts(ctx, ev.AuthorID)
	if err != nil {
		a.Logger.Error("❌ Failed to read cups", zap.String("user_id", ev.AuthorID), zap.Error(err))
		return
	}
	msg := fmt.Sprintf("%s, you have **%s** cups and **%s** legendary cups.",
		mention(ev.AuthorID), utils.FormatCount(counts.Cups), utils.FormatCount(counts.Legendaries))
	if _, err := a.Platform.Reply(ctx, ev.ChannelID, ev.ID, msg); err != nil {
		a.Logger.Warn("⚠️ Failed to report cups", zap.Error(err))
	}
}

func (a *App) reject(ctx context.Context, ev MessageEvent, rule services.ChannelRule) {
	a.sendTimed(ctx, ev.ChannelID, fmt.Sprintf("%s, %s", mention(ev.AuthorID), rule.Warning), rule.WarningTTL)
	a.deleteMessage(ctx, ev.ChannelID, ev.ID)
}

// sendTimed posts content and schedules its deletion after ttl (never when ttl is zero).
func (a *App) sendTimed(ctx context.Context, channelID, content string, ttl time.Duration) {
	id, err := a.Platform.Send(ctx, channelID, content)
	if err != nil {
		a.Logger.Warn("⚠️ Failed to send message", zap.String("channel_id", channelID), zap.Error(err))
		return
	}
	if ttl > 0 {
		a.Deletions.Schedule(channelID, id, ttl)
	}
}

func (a *App) deleteMessage(ctx context.Context, channelID, messageID string) {
	if err := a.Platform.DeleteMessage(ctx, channelID, messageID); err != nil {
		a.Logger.Warn("⚠️ Failed to delete message",
			zap.String("channel_id", channelID),
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}
