// Package repository defines the persistence contracts the giveaway engine
// runs against. Implementations live in subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrAlreadyLocked    = errors.New("giveaway is already being processed")
	ErrArchiveNotFound  = errors.New("reroll archive not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrUpdateConflict   = errors.New("concurrent update conflict")
)

// GiveawayRepository is the store of live giveaway records.
type GiveawayRepository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, g *models.Giveaway) error
	GetByID(ctx context.Context, id int64) (*models.Giveaway, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error)
	// GetExpired returns ids of active giveaways whose end time is at or
	// before now.
	GetExpired(ctx context.Context, now time.Time) ([]int64, error)
	GetActive(ctx context.Context) ([]*models.Giveaway, error)
	GetActiveByGuild(ctx context.Context, guildID string) ([]*models.Giveaway, error)
	Update(ctx context.Context, g *models.Giveaway) error
	// UpdateParticipants applies mutate under a compare-and-set cycle so two
	// concurrent toggles cannot lose each other's write. mutate sees the
	// freshest record and may reject the change by returning an error.
	UpdateParticipants(ctx context.Context, id int64, mutate func(g *models.Giveaway) error) (*models.Giveaway, error)
	Delete(ctx context.Context, id int64) error
}

// LockRepository is the advisory per-giveaway processing lease. Acquire returns
// a release token; a lease expires on its own after ttl so a crashed worker
// cannot wedge a giveaway.
type LockRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) error
	// Clear drops a lease regardless of holder. Used by force-end to reset a
	// stale lock before processing.
	Clear(ctx context.Context, key string) error
}

// ArchiveRepository stores reroll snapshots keyed by announcement message.
type ArchiveRepository interface {
	Save(ctx context.Context, arch *models.RerollArchive) error
	GetByMessageID(ctx context.Context, messageID string) (*models.RerollArchive, error)
}

// TemplateRepository stores per-guild creation presets.
type TemplateRepository interface {
	Save(ctx context.Context, t *models.Template) error
	Get(ctx context.Context, guildID, name string) (*models.Template, error)
	List(ctx context.Context, guildID string) ([]*models.Template, error)
	Delete(ctx context.Context, guildID, name string) error
}
