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

// TemplateStore keeps per-guild creation presets.
type TemplateStore struct {
	client *redis.Client
}

func NewTemplateStore(client *redis.Client) *TemplateStore {
	return &TemplateStore{client: client}
}

func makeTemplateKey(guildID, name string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefixTemplate, guildID, name)
}

func makeTemplateSetKey(guildID string) string {
	return "templates:" + guildID
}

func (s *TemplateStore) Save(ctx context.Context, t *models.Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, makeTemplateKey(t.GuildID, t.Name), data, 0)
	pipe.SAdd(ctx, makeTemplateSetKey(t.GuildID), t.Name)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *TemplateStore) Get(ctx context.Context, guildID, name string) (*models.Template, error) {
	data, err := s.client.Get(ctx, makeTemplateKey(guildID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	var t models.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template %s/%s: %w", guildID, name, err)
	}
	return &t, nil
}

func (s *TemplateStore) List(ctx context.Context, guildID string) ([]*models.Template, error) {
	names, err := s.client.SMembers(ctx, makeTemplateSetKey(guildID)).Result()
	if err != nil {
		return nil, err
	}

	templates := make([]*models.Template, 0, len(names))
	for _, name := range names {
		t, err := s.Get(ctx, guildID, name)
		if errors.Is(err, repository.ErrTemplateNotFound) {
			s.client.SRem(ctx, makeTemplateSetKey(guildID), name)
			continue
		}
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (s *TemplateStore) Delete(ctx context.Context, guildID, name string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, makeTemplateKey(guildID, name))
	pipe.SRem(ctx, makeTemplateSetKey(guildID), name)
	_, err := pipe.Exec(ctx)
	return err
}
