// Package storage provides the persistence layer for the system
// server. This package implements the repository pattern to keep the
// domain pure: the engine talks to interfaces, the SQL lives here.
package storage

import (
	"context"
	"time"

	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/narrator"
	"github.com/phantomguild/system-server/internal/platform/metrics"
)

// PlayerRepository persists player snapshots keyed by email.
type PlayerRepository interface {
	SavePlayer(ctx context.Context, p *player.Player) error
	// LoadPlayer returns (nil, nil) when the email was never written.
	LoadPlayer(ctx context.Context, email string) (*player.Player, error)
}

// InventoryRepository persists the owned-item collection per hunter.
type InventoryRepository interface {
	SaveInventory(ctx context.Context, email string, inv []item.Item) error
	LoadInventory(ctx context.Context, email string) ([]item.Item, error)
}

// ChatRepository persists the hunter/System transcript.
type ChatRepository interface {
	AppendMessage(ctx context.Context, email, role, content string) error
	History(ctx context.Context, email string, limit int) ([]narrator.ChatMessage, error)
}

// EventRepository is the durable half of the event log.
type EventRepository interface {
	Append(ctx context.Context, event events.SystemEvent) error
	GetByPlayer(ctx context.Context, email string) ([]events.SystemEvent, error)
	GetByDate(ctx context.Context, date string) ([]events.SystemEvent, error)
}

// EventPersister adapts an EventRepository to the event log's
// write-through interface, recording write latency as it goes.
type EventPersister struct {
	repo EventRepository
}

// NewEventPersister wraps a repository for write-through use.
func NewEventPersister(repo EventRepository) *EventPersister {
	return &EventPersister{repo: repo}
}

// Append stores one event. Called off the hot path by the event log.
func (p *EventPersister) Append(event events.SystemEvent) error {
	start := time.Now()
	err := p.repo.Append(context.Background(), event)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}
