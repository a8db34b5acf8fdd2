package services

import (
	"context"
	"fmt"

	"cup-bot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counts is the public view of a user's cup counters.
type Counts struct {
	Cups        int64 `json:"cups"`
	Legendaries int64 `json:"legendaries"`
}

// CounterStore persists cup, legendary and prestige counters per user.
type CounterStore struct {
	DB *gorm.DB
}

func NewCounterStore(db *gorm.DB) *CounterStore {
	return &CounterStore{DB: db}
}

// EnsureExists creates a zeroed row for the user if none exists (idempotent)
func (s *CounterStore) EnsureExists(ctx context.Context, userID string) error {
	row := models.UserProgress{ID: userID}
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("ensure progress row for %s: %w", userID, err)
	}
	return nil
}

// GetCounts returns the user's counters, creating the row on first access
func (s *CounterStore) GetCounts(ctx context.Context, userID string) (Counts, error) {
	prog, err := s.load(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Cups: prog.Cups, Legendaries: prog.Legendaries}, nil
}

// StoredPrestige returns the prestige column as last written by a prestige.
func (s *CounterStore) StoredPrestige(ctx context.Context, userID string) (int, error) {
	prog, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return prog.Prestige, nil
}

// AddCup increments legendaries or cups by one and returns the updated counters.
func (s *CounterStore) AddCup(ctx context.Context, userID string, isLegendary bool) (Counts, error) {
	if err := s.EnsureExists(ctx, userID); err != nil {
		return Counts{}, err
	}

	column := "cups"
	if isLegendary {
		column = "legendaries"
	}
	err := s.DB.WithContext(ctx).
		Model(&models.UserProgress{}).
		Where("id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", 1)).Error
	if err != nil {
		return Counts{}, fmt.Errorf("increment %s for %s: %w", column, userID, err)
	}
	return s.GetCounts(ctx, userID)
}

// ResetForPrestige zeroes both counters and records the new prestige level in one update.
func (s *CounterStore) ResetForPrestige(ctx context.Context, userID string, newPrestigeLevel int) error {
	if err := s.EnsureExists(ctx, userID); err != nil {
		return err
	}

	level := clamp(newPrestigeLevel, 1, MaxPrestige)
	err := s.DB.WithContext(ctx).
		Model(&models.UserProgress{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"cups":        0,
			"legendaries": 0,
			"prestige":    level,
		}).Error
	if err != nil {
		return fmt.Errorf("reset progress for %s: %w", userID, err)
	}
	return nil
}

// Leaderboard returns the top users by prestige, then cups, then legendaries.
func (s *CounterStore) Leaderboard(ctx context.Context, limit int) ([]models.UserProgress, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	var rows []models.UserProgress
	err := s.DB.WithContext(ctx).
		Order("prestige DESC").
		Order("cups DESC").
		Order("legendaries DESC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return rows, nil
}

// All returns every row; used by snapshot export.
func (s *CounterStore) All(ctx context.Context) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load progress rows: %w", err)
	}
	return rows, nil
}

func (s *CounterStore) load(ctx context.Context, userID string) (*models.UserProgress, error) {
	if err := s.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}
	var prog models.UserProgress
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&prog).Error; err != nil {
		return nil, fmt.Errorf("load progress for %s: %w", userID, err)
	}
	return &prog, nil
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
