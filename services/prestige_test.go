package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestPrestige(t *testing.T) (*PrestigeService, *fakeRoles, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	roles := newFakeRoles(testRoleNames)
	milestones := NewMilestoneService(roles, testMilestoneRoles, zap.NewNop())
	svc := NewPrestigeService(NewCounterStore(db), NewRankResolver(roles), roles, milestones,
		testPrestigeRoles, []string{"orange", "green"}, zap.NewNop())
	return svc, roles, db
}

func TestNextPrestigeLevel(t *testing.T) {
	assert.Equal(t, 1, NextPrestigeLevel(0))
	assert.Equal(t, 2, NextPrestigeLevel(1))
	assert.Equal(t, 5, NextPrestigeLevel(4))
	assert.Equal(t, 5, NextPrestigeLevel(5))
}

func TestPrestigeResetsAndAdvances(t *testing.T) {
	svc, roles, db := newTestPrestige(t)
	ctx := context.Background()
	setCups(t, db, "u1", 1_000_000, 17)
	roles.grant("u1", "m100", "m1k", "m10k", "m100k", "m1m", "orange")

	level, err := svc.Prestige(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, level)

	counts, err := svc.Store.GetCounts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)

	stored, err := svc.Store.StoredPrestige(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	assert.True(t, roles.has("u1", "p1"))
	for _, id := range []string{"m100", "m1k", "m10k", "m100k", "m1m", "orange"} {
		assert.False(t, roles.has("u1", id), "role %s should be removed", id)
	}

	rank, err := svc.Ranks.PrestigeLevel(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
}

func TestPrestigeStepsFromRoleRank(t *testing.T) {
	svc, roles, db := newTestPrestige(t)
	ctx := context.Background()
	setCups(t, db, "u1", 1_000_000, 0)
	roles.grant("u1", "p1", "p2")

	level, err := svc.Prestige(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, level)
	assert.True(t, roles.has("u1", "p3"))
}

func TestPrestigeClimbsWhenRolesListedOutOfOrder(t *testing.T) {
	svc, roles, db := newTestPrestige(t)
	ctx := context.Background()
	setCups(t, db, "u1", 1_000_000, 0)
	roles.grant("u1", "p2", "orange", "p1")

	level, err := svc.Prestige(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, level)
	assert.True(t, roles.has("u1", "p3"))
}

func TestPrestigeSaturatesButStillResets(t *testing.T) {
	svc, roles, db := newTestPrestige(t)
	ctx := context.Background()
	setCups(t, db, "u1", 1_250_000, 8)
	roles.grant("u1", "p5")

	level, err := svc.Prestige(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, MaxPrestige, level)

	counts, err := svc.Store.GetCounts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestPrestigeIgnoresMissingRoles(t *testing.T) {
	svc, roles, db := newTestPrestige(t)
	setCups(t, db, "u1", 1_000_000, 0)

	level, err := svc.Prestige(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	assert.Empty(t, roles.removed)
}

func TestTryPrestigeRequiresThreshold(t *testing.T) {
	svc, roles, db := newTestPrestige(t)
	ctx := context.Background()
	setCups(t, db, "u1", 999_999, 3)

	_, err := svc.TryPrestige(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotEnoughCups)

	counts, err := svc.Store.GetCounts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Counts{Cups: 999_999, Legendaries: 3}, counts)
	assert.Empty(t, roles.added)

	setCups(t, db, "u1", 1_000_000, 3)
	level, err := svc.TryPrestige(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, level)
}
