// Package redis implements the giveaway repositories on a single Redis
// instance. Records are JSON values with set-based status indices; participant
// updates go through WATCH/MULTI compare-and-set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyPrefixMessage  = "giveaway:message:"
	keyPrefixArchive  = "archive:"
	keyPrefixTemplate = "template:"
	keySequence       = "giveaways:seq"
	keyActiveSet      = "giveaways:active"
	keyPendingSet     = "giveaways:pending"

	// Retries for the participant compare-and-set cycle before giving up.
	maxCASRetries = 5
)

type Repository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func makeGiveawayKey(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefixGiveaway, id)
}

func makeMessageKey(messageID string) string {
	return keyPrefixMessage + messageID
}

func statusSet(status models.GiveawayStatus) string {
	if status == models.GiveawayStatusPending {
		return keyPendingSet
	}
	return keyActiveSet
}

func (r *Repository) NextID(ctx context.Context) (int64, error) {
	return r.client.Incr(ctx, keySequence).Result()
}

func (r *Repository) Create(ctx context.Context, g *models.Giveaway) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(g.ID), data, 0)
	pipe.SAdd(ctx, statusSet(g.Status), g.ID)
	if g.Announced() {
		pipe.Set(ctx, makeMessageKey(g.MessageID), g.ID, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var g models.Giveaway
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode giveaway %d: %w", id, err)
	}
	return &g, nil
}

func (r *Repository) GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error) {
	id, err := r.client.Get(ctx, makeMessageKey(messageID)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) GetExpired(ctx context.Context, now time.Time) ([]int64, error) {
	giveaways, err := r.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	var expired []int64
	for _, g := range giveaways {
		if g.HasEnded(now) {
			expired = append(expired, g.ID)
		}
	}
	return expired, nil
}

func (r *Repository) GetActive(ctx context.Context) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyActiveSet).Result()
	if err != nil {
		return nil, err
	}

	giveaways := make([]*models.Giveaway, 0, len(ids))
	for _, raw := range ids {
		var id int64
		if _, err := fmt.Sscan(raw, &id); err != nil {
			continue
		}
		g, err := r.GetByID(ctx, id)
		if err != nil {
			// Orphaned index entries are skipped, not fatal.
			if errors.Is(err, repository.ErrGiveawayNotFound) {
				r.client.SRem(ctx, keyActiveSet, raw)
				continue
			}
			return nil, err
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, nil
}

func (r *Repository) GetActiveByGuild(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	giveaways, err := r.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Giveaway, 0, len(giveaways))
	for _, g := range giveaways {
		if g.GuildID == guildID {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

func (r *Repository) Update(ctx context.Context, g *models.Giveaway) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(g.ID), data, 0)
	pipe.SRem(ctx, keyActiveSet, g.ID)
	pipe.SRem(ctx, keyPendingSet, g.ID)
	pipe.SAdd(ctx, statusSet(g.Status), g.ID)
	if g.Announced() {
		pipe.Set(ctx, makeMessageKey(g.MessageID), g.ID, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repository) UpdateParticipants(ctx context.Context, id int64, mutate func(g *models.Giveaway) error) (*models.Giveaway, error) {
	key := makeGiveawayKey(id)

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		var updated *models.Giveaway

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return repository.ErrGiveawayNotFound
			}
			if err != nil {
				return err
			}

			var g models.Giveaway
			if err := json.Unmarshal(data, &g); err != nil {
				return fmt.Errorf("decode giveaway %d: %w", id, err)
			}

			if err := mutate(&g); err != nil {
				return err
			}
			g.UpdatedAt = time.Now()

			out, err := json.Marshal(&g)
			if err != nil {
				return fmt.Errorf("marshal giveaway: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				return nil
			})
			if err == nil {
				updated = &g
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue // another writer got there first, re-read and retry
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, repository.ErrUpdateConflict
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	g, err := r.GetByID(ctx, id)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, makeGiveawayKey(id))
	pipe.SRem(ctx, keyActiveSet, id)
	pipe.SRem(ctx, keyPendingSet, id)
	if g.Announced() {
		pipe.Del(ctx, makeMessageKey(g.MessageID))
	}
	_, err = pipe.Exec(ctx)
	return err
}
