package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// ArchiveStore keeps reroll snapshots keyed by announcement message.
type ArchiveStore struct {
	client *redis.Client
}

func NewArchiveStore(client *redis.Client) *ArchiveStore {
	return &ArchiveStore{client: client}
}

func makeArchiveKey(messageID string) string {
	return keyPrefixArchive + messageID
}

func (s *ArchiveStore) Save(ctx context.Context, arch *models.RerollArchive) error {
	data, err := json.Marshal(arch)
	if err != nil {
		return fmt.Errorf("marshal reroll archive: %w", err)
	}
	return s.client.Set(ctx, makeArchiveKey(arch.MessageID), data, 0).Err()
}

func (s *ArchiveStore) GetByMessageID(ctx context.Context, messageID string) (*models.RerollArchive, error) {
	data, err := s.client.Get(ctx, makeArchiveKey(messageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrArchiveNotFound
	}
	if err != nil {
		return nil, err
	}

	var arch models.RerollArchive
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("decode reroll archive %s: %w", messageID, err)
	}
	return &arch, nil
}
