package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// PrestigeThreshold is the flat cup cost of a prestige.
const PrestigeThreshold int64 = 1_000_000

var ErrNotEnoughCups = errors.New("not enough cups to prestige")

// NextPrestigeLevel steps the rank up by one, saturating at MaxPrestige.
func NextPrestigeLevel(current int) int {
	return clamp(current+1, 1, MaxPrestige)
}

// PrestigeService resets a user's counters in exchange for a higher rank.
type PrestigeService struct {
	Store      *CounterStore
	Ranks      *RankResolver
	Roles      RoleDirectory
	Milestones *MilestoneService
	Logger     *zap.Logger

	RoleByLevel   map[int]string
	CosmeticRoles []string
}

func NewPrestigeService(store *CounterStore, ranks *RankResolver, roles RoleDirectory, milestones *MilestoneService, roleByLevel map[int]string, cosmetic []string, logger *zap.Logger) *PrestigeService {
	return &PrestigeService{
		Store:         store,
		Ranks:         ranks,
		Roles:         roles,
		Milestones:    milestones,
		Logger:        logger,
		RoleByLevel:   roleByLevel,
		CosmeticRoles: cosmetic,
	}
}

// TryPrestige prestiges the user only if they hold at least PrestigeThreshold cups.
func (s *PrestigeService) TryPrestige(ctx context.Context, userID string) (int, error) {
	counts, err := s.Store.GetCounts(ctx, userID)
	if err != nil {
		return 0, err
	}
	if counts.Cups < PrestigeThreshold {
		return 0, ErrNotEnoughCups
	}
	return s.Prestige(ctx, userID)
}

// Prestige resets counters, grants the next prestige role and strips milestone
// and colour roles. The caller gates on the cup threshold. Counters are reset
// even when the rank is already saturated.
func (s *PrestigeService) Prestige(ctx context.Context, userID string) (int, error) {
	current, err := s.Ranks.PrestigeLevel(ctx, userID)
	if err != nil {
		return 0, err
	}
	newLevel := NextPrestigeLevel(current)

	if stored, err := s.Store.StoredPrestige(ctx, userID); err == nil && stored != current {
		s.Logger.Warn("⚠️ Stored prestige differs from role rank",
			zap.String("user_id", userID),
			zap.Int("stored", stored),
			zap.Int("role_rank", current))
	}

	if err := s.Store.ResetForPrestige(ctx, userID, newLevel); err != nil {
		return 0, err
	}

	roleID := s.RoleByLevel[newLevel]
	if roleID == "" {
		return newLevel, fmt.Errorf("no role configured for prestige %d", newLevel)
	}
	if err := s.Roles.AddRole(ctx, userID, roleID); err != nil {
		return newLevel, fmt.Errorf("grant prestige %d role to %s: %w", newLevel, userID, err)
	}

	for _, id := range s.strippedRoles() {
		// roles the member never held fail here; that is fine
		_ = s.Roles.RemoveRole(ctx, userID, id)
	}

	s.Logger.Info("⬆️ Prestige",
		zap.String("user_id", userID),
		zap.Int("from", current),
		zap.Int("to", newLevel))
	return newLevel, nil
}

func (s *PrestigeService) strippedRoles() []string {
	var ids []string
	if s.Milestones != nil {
		ids = append(ids, s.Milestones.MilestoneRoleIDs()...)
	}
	return append(ids, s.CosmeticRoles...)
}
