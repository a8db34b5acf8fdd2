package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MilestoneThresholds are the cup totals that unlock a milestone role, ascending.
var MilestoneThresholds = []int64{100, 1_000, 10_000, 100_000, 1_000_000}

// MilestoneService grants the milestone role when cups land exactly on a threshold.
type MilestoneService struct {
	Roles     RoleDirectory
	RoleByCup map[int64]string
	Logger    *zap.Logger
}

func NewMilestoneService(roles RoleDirectory, roleByCup map[int64]string, logger *zap.Logger) *MilestoneService {
	return &MilestoneService{Roles: roles, RoleByCup: roleByCup, Logger: logger}
}

// MilestoneFor reports whether cups is exactly a milestone threshold.
func MilestoneFor(cups int64) (int64, bool) {
	for _, t := range MilestoneThresholds {
		if cups == t {
			return t, true
		}
	}
	return 0, false
}

// CheckMilestone grants the role for cups if it is a threshold and the member
// lacks it. Returns the granted role id, or "" when nothing was granted.
func (s *MilestoneService) CheckMilestone(ctx context.Context, userID string, cups int64) (string, error) {
	threshold, ok := MilestoneFor(cups)
	if !ok {
		return "", nil
	}
	roleID := s.RoleByCup[threshold]
	if roleID == "" {
		return "", fmt.Errorf("no role configured for milestone %d", threshold)
	}

	held, err := s.Roles.MemberRoles(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch roles for %s: %w", userID, err)
	}
	for _, r := range held {
		if r.ID == roleID {
			return "", nil
		}
	}

	if err := s.Roles.AddRole(ctx, userID, roleID); err != nil {
		return "", fmt.Errorf("grant milestone %d role to %s: %w", threshold, userID, err)
	}
	s.Logger.Info("🎖️ Milestone role granted",
		zap.String("user_id", userID),
		zap.Int64("cups", threshold),
		zap.String("role_id", roleID))
	return roleID, nil
}

// MilestoneRoleIDs lists configured milestone roles in threshold order.
func (s *MilestoneService) MilestoneRoleIDs() []string {
	ids := make([]string, 0, len(MilestoneThresholds))
	for _, t := range MilestoneThresholds {
		if id := s.RoleByCup[t]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
