package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cup-bot/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

// setCups writes counters directly, bypassing the store.
func setCups(t *testing.T, db *gorm.DB, userID string, cups, legendaries int64) {
	t.Helper()
	require.NoError(t, db.Save(&models.UserProgress{ID: userID, Cups: cups, Legendaries: legendaries}).Error)
}

var errRoleNotHeld = errors.New("unknown role")

// fakeRoles is an in-memory guild: role names plus per-user grants in order.
type fakeRoles struct {
	mu       sync.Mutex
	names    map[string]string
	held     map[string][]string
	added    []string
	removed  []string
	fetchErr error
}

func newFakeRoles(names map[string]string) *fakeRoles {
	return &fakeRoles{names: names, held: map[string][]string{}}
}

func (f *fakeRoles) grant(userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[userID] = append(f.held[userID], roleIDs...)
}

func (f *fakeRoles) has(userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.held[userID] {
		if id == roleID {
			return true
		}
	}
	return false
}

func (f *fakeRoles) MemberRoles(_ context.Context, userID string) ([]Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	roles := make([]Role, 0, len(f.held[userID]))
	for _, id := range f.held[userID] {
		roles = append(roles, Role{ID: id, Name: f.names[id]})
	}
	return roles, nil
}

func (f *fakeRoles) AddRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, roleID)
	for _, id := range f.held[userID] {
		if id == roleID {
			return nil
		}
	}
	f.held[userID] = append(f.held[userID], roleID)
	return nil
}

func (f *fakeRoles) RemoveRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.held[userID]
	for i, id := range ids {
		if id == roleID {
			f.held[userID] = append(ids[:i:i], ids[i+1:]...)
			f.removed = append(f.removed, roleID)
			return nil
		}
	}
	return errRoleNotHeld
}

var (
	testMilestoneRoles = map[int64]string{
		100:       "m100",
		1_000:     "m1k",
		10_000:    "m10k",
		100_000:   "m100k",
		1_000_000: "m1m",
	}
	testPrestigeRoles = map[int]string{1: "p1", 2: "p2", 3: "p3", 4: "p4", 5: "p5"}
	testRoleNames     = map[string]string{
		"m100": "100 Cups", "m1k": "1,000 Cups", "m10k": "10,000 Cups",
		"m100k": "100,000 Cups", "m1m": "1,000,000 Cups",
		"p1": "Prestige I", "p2": "Prestige II", "p3": "Prestige III",
		"p4": "Prestige IV", "p5": "Prestige V",
		"orange": "Orange Cup", "green": "Green Cup",
	}
)
