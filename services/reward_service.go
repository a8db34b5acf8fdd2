package services

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
)

// LegendaryRate is the chance of a legendary cup at prestige p: 0.1% plus 0.1% per rank.
func LegendaryRate(p int) float64 {
	return (0.1 + 0.1*float64(p)) / 100
}

// LegendaryDieSides is the number of faces on the legendary die at prestige p.
func LegendaryDieSides(p int) float64 {
	return 100 / (0.1 + 0.1*float64(p))
}

// IsLegendaryRoll maps a uniform sample in [0,1) onto the die and reports
// whether it landed in the last unit interval [sides-1, sides).
func IsLegendaryRoll(sample float64, p int) bool {
	sides := LegendaryDieSides(p)
	return sample*sides >= sides-1
}

// CupOutcome describes what one qualifying message earned.
type CupOutcome struct {
	Legendary     bool
	Prestige      int
	Counts        Counts
	MilestoneRole string
}

// RewardService rolls and records a cup for each qualifying message.
type RewardService struct {
	Store      *CounterStore
	Ranks      *RankResolver
	Milestones *MilestoneService
	Logger     *zap.Logger

	// Sample returns a uniform float in [0,1). Defaults to math/rand/v2.
	Sample func() float64
}

func NewRewardService(store *CounterStore, ranks *RankResolver, milestones *MilestoneService, logger *zap.Logger) *RewardService {
	return &RewardService{
		Store:      store,
		Ranks:      ranks,
		Milestones: milestones,
		Logger:     logger,
		Sample:     rand.Float64,
	}
}

// AwardCup rolls the legendary die for the user's prestige and stores the cup.
// A failed milestone grant is logged; the cup is already counted by then.
func (s *RewardService) AwardCup(ctx context.Context, userID string) (CupOutcome, error) {
	prestige, err := s.Ranks.PrestigeLevel(ctx, userID)
	if err != nil {
		return CupOutcome{}, err
	}

	legendary := IsLegendaryRoll(s.Sample(), prestige)
	counts, err := s.Store.AddCup(ctx, userID, legendary)
	if err != nil {
		return CupOutcome{}, err
	}

	out := CupOutcome{Legendary: legendary, Prestige: prestige, Counts: counts}
	if legendary {
		s.Logger.Info("🏆 Legendary cup",
			zap.String("user_id", userID),
			zap.Int("prestige", prestige),
			zap.Int64("legendaries", counts.Legendaries))
		return out, nil
	}

	roleID, err := s.Milestones.CheckMilestone(ctx, userID, counts.Cups)
	if err != nil {
		s.Logger.Warn("⚠️ Milestone check failed", zap.String("user_id", userID), zap.Error(err))
		return out, nil
	}
	out.MilestoneRole = roleID
	return out, nil
}
