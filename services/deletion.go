package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// MessageDeleter removes a chat message.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// ScheduledDeletion is a pending auto-delete of one message.
type ScheduledDeletion struct {
	ID        uuid.UUID
	ChannelID string
	MessageID string
	DueAt     time.Time
}

type pendingDeletion struct {
	record ScheduledDeletion
	timer  clockwork.Timer
}

// DeletionQueue deletes bot messages after a delay. Records live in memory
// only, so pending deletions are dropped on restart.
type DeletionQueue struct {
	clock   clockwork.Clock
	deleter MessageDeleter
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingDeletion
}

func NewDeletionQueue(clock clockwork.Clock, deleter MessageDeleter, logger *zap.Logger) *DeletionQueue {
	return &DeletionQueue{
		clock:   clock,
		deleter: deleter,
		logger:  logger,
		pending: make(map[uuid.UUID]*pendingDeletion),
	}
}

// Schedule arranges for the message to be deleted after delay.
func (q *DeletionQueue) Schedule(channelID, messageID string, delay time.Duration) ScheduledDeletion {
	rec := ScheduledDeletion{
		ID:        uuid.New(),
		ChannelID: channelID,
		MessageID: messageID,
		DueAt:     q.clock.Now().Add(delay),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	p := &pendingDeletion{record: rec}
	p.timer = q.clock.AfterFunc(delay, func() { q.fire(rec.ID) })
	q.pending[rec.ID] = p
	return rec
}

// Cancel stops a pending deletion. It returns false if the deletion already
// ran or was never scheduled.
func (q *DeletionQueue) Cancel(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.pending[id]
	if !ok {
		return false
	}
	delete(q.pending, id)
	p.timer.Stop()
	return true
}

// Pending lists outstanding deletions, soonest first.
func (q *DeletionQueue) Pending() []ScheduledDeletion {
	q.mu.Lock()
	out := make([]ScheduledDeletion, 0, len(q.pending))
	for _, p := range q.pending {
		out = append(out, p.record)
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out
}

// Stop cancels everything still pending.
func (q *DeletionQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, p := range q.pending {
		p.timer.Stop()
		delete(q.pending, id)
	}
}

func (q *DeletionQueue) fire(id uuid.UUID) {
	q.mu.Lock()
	p, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()
	if !ok {
		return
	}

	rec := p.record
	if err := q.deleter.DeleteMessage(context.Background(), rec.ChannelID, rec.MessageID); err != nil {
		q.logger.Warn("⚠️ Auto-delete failed",
			zap.String("channel_id", rec.ChannelID),
			zap.String("message_id", rec.MessageID),
			zap.Error(err))
	}
}
