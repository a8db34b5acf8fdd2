package services

import (
	"context"
	"testing"
	"time"

	"cup-bot/models"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryUploader struct {
	key         string
	body        []byte
	contentType string
}

func (u *memoryUploader) Upload(_ context.Context, key string, body []byte, contentType string) (string, error) {
	u.key, u.body, u.contentType = key, body, contentType
	return "https://cdn.example/" + key, nil
}

func TestSnapshotKey(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "snapshots/cup-club/2026-10-17T12:00:00Z.json", SnapshotKey("Cup Club!", at))
	assert.Equal(t, "snapshots/guild/2026-10-17T12:00:00Z.json", SnapshotKey("", at))
}

func TestSnapshotExport(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&[]models.UserProgress{
		{ID: "a", Cups: 12, Legendaries: 1},
		{ID: "b", Cups: 3, Prestige: 2},
	}).Error)

	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	uploader := &memoryUploader{}
	exporter := &SnapshotExporter{
		Store:     NewCounterStore(db),
		Uploader:  uploader,
		GuildID:   "g1",
		GuildName: "Cup Club",
		Clock:     clockwork.NewFakeClockAt(at),
		Logger:    zap.NewNop(),
	}

	url, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/snapshots/cup-club/2026-10-17T12:00:00Z.json", url)
	assert.Equal(t, "application/json", uploader.contentType)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(uploader.body, &snap))
	assert.Equal(t, "g1", snap.GuildID)
	assert.True(t, at.Equal(snap.GeneratedAt))
	assert.Equal(t, []SnapshotUser{
		{ID: "a", Cups: 12, Legendaries: 1},
		{ID: "b", Cups: 3, Prestige: 2},
	}, snap.Users)
}
