package services

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ObjectUploader stores an object and returns its public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type SnapshotUser struct {
	ID          string `json:"id"`
	Cups        int64  `json:"cups"`
	Legendaries int64  `json:"legendaries"`
	Prestige    int    `json:"prestige"`
}

// Snapshot is the exported state of every counter row.
type Snapshot struct {
	GuildID     string         `json:"guild_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Users       []SnapshotUser `json:"users"`
}

// SnapshotExporter uploads JSON snapshots of the counter table.
type SnapshotExporter struct {
	Store     *CounterStore
	Uploader  ObjectUploader
	GuildID   string
	GuildName string
	Clock     clockwork.Clock
	Logger    *zap.Logger
}

// SnapshotKey is snapshots/<guild slug>/<RFC3339 UTC>.json
func SnapshotKey(guildName string, at time.Time) string {
	name := slug.Make(guildName)
	if name == "" {
		name = "guild"
	}
	return fmt.Sprintf("snapshots/%s/%s.json", name, at.UTC().Format(time.RFC3339))
}

// Build reads all rows into a snapshot without uploading it.
func (e *SnapshotExporter) Build(ctx context.Context) (*Snapshot, error) {
	rows, err := e.Store.All(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		GuildID:     e.GuildID,
		GeneratedAt: e.Clock.Now().UTC(),
		Users:       make([]SnapshotUser, 0, len(rows)),
	}
	for _, r := range rows {
		snap.Users = append(snap.Users, SnapshotUser{
			ID:          r.ID,
			Cups:        r.Cups,
			Legendaries: r.Legendaries,
			Prestige:    r.Prestige,
		})
	}
	return snap, nil
}

// Export builds and uploads a snapshot, returning its URL.
func (e *SnapshotExporter) Export(ctx context.Context) (string, error) {
	snap, err := e.Build(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := SnapshotKey(e.GuildName, snap.GeneratedAt)
	url, err := e.Uploader.Upload(ctx, key, body, "application/json")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	e.Logger.Info("📦 Snapshot exported",
		zap.String("key", key),
		zap.Int("users", len(snap.Users)))
	return url, nil
}
