package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/config"
	apperrors "discord-giveaway-bot/internal/common/errors"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
	"discord-giveaway-bot/internal/utils/duration"
)

// GiveawayService handles creation, approval, force-end and templates. The
// lifecycle itself (expiry, winner selection) belongs to the end processor
// and sweeper.
type GiveawayService struct {
	repo      repository.GiveawayRepository
	locks     repository.LockRepository
	templates repository.TemplateRepository
	announcer Announcer
	tracker   Tracker
	processor *EndProcessor
	cfg       *config.Config
	log       zerolog.Logger
}

func NewGiveawayService(
	repo repository.GiveawayRepository,
	locks repository.LockRepository,
	templates repository.TemplateRepository,
	announcer Announcer,
	tracker Tracker,
	processor *EndProcessor,
	cfg *config.Config,
	log zerolog.Logger,
) *GiveawayService {
	return &GiveawayService{
		repo:      repo,
		locks:     locks,
		templates: templates,
		announcer: announcer,
		tracker:   tracker,
		processor: processor,
		cfg:       cfg,
		log:       log.With().Str("component", "giveaway_service").Logger(),
	}
}

// CreateInput carries everything needed to start a giveaway. Duration is the
// raw human string; it is validated here, never stored invalid.
type CreateInput struct {
	GuildID     string
	ChannelID   string
	Kind        models.GiveawayKind
	Title       string
	Description string
	ExtraFields []models.ExtraField
	CreatedBy   string
	Duration    string
	WinnerCount int
	ForceStart  bool
	Pending     bool
}

func (s *GiveawayService) Create(ctx context.Context, in CreateInput) (*models.Giveaway, error) {
	if in.Kind == "" {
		in.Kind = models.KindStandard
	}
	if !in.Kind.Valid() {
		return nil, apperrors.NewValidationError("kind", fmt.Sprintf("unknown giveaway kind %q", in.Kind))
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.NewValidationError("title", "must not be empty")
	}
	if in.WinnerCount < 1 {
		return nil, models.ErrInvalidWinners
	}

	ms, err := duration.ParseMillis(in.Duration)
	if err != nil {
		return nil, err
	}
	d := time.Duration(ms) * time.Millisecond
	if d < MinDuration {
		return nil, duration.ErrInvalidDuration
	}
	if max := s.cfg.Giveaway.MaxDuration; max > 0 && d > max {
		return nil, fmt.Errorf("duration exceeds maximum of %s: %w", max, duration.ErrInvalidDuration)
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate giveaway id: %w", err)
	}

	now := time.Now()
	status := models.GiveawayStatusActive
	if in.Pending {
		status = models.GiveawayStatusPending
	}

	g := &models.Giveaway{
		ID:           id,
		GuildID:      in.GuildID,
		ChannelID:    in.ChannelID,
		MessageID:    models.MessageIDPending,
		Kind:         in.Kind,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		ExtraFields:  in.ExtraFields,
		CreatedBy:    in.CreatedBy,
		EndsAt:       now.Add(d).Truncate(time.Second),
		DurationMs:   ms,
		Participants: []string{},
		WinnerCount:  in.WinnerCount,
		ForceStart:   in.ForceStart,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create giveaway: %w", err)
	}

	if g.Status == models.GiveawayStatusActive {
		if err := s.publish(ctx, g); err != nil {
			// No announcement means nobody can ever join; undo the record.
			if delErr := s.repo.Delete(ctx, g.ID); delErr != nil {
				s.log.Error().Err(delErr).Int64("giveaway_id", g.ID).Msg("failed to roll back unpublished giveaway")
			}
			return nil, err
		}
	}

	s.log.Info().Int64("giveaway_id", g.ID).
		Str("kind", string(g.Kind)).
		Str("guild_id", g.GuildID).
		Msg("giveaway created")
	return g, nil
}

func (s *GiveawayService) publish(ctx context.Context, g *models.Giveaway) error {
	messageID, err := s.announcer.Publish(ctx, g.ChannelID, models.BuildAnnouncement(g))
	if err != nil {
		return fmt.Errorf("publish announcement: %w", err)
	}

	g.MessageID = messageID
	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("store announcement handle: %w", err)
	}

	s.tracker.Track(g)
	return nil
}

func (s *GiveawayService) Get(ctx context.Context, id int64) (*models.Giveaway, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *GiveawayService) ListActive(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	return s.repo.GetActiveByGuild(ctx, guildID)
}

// Approve moves a moderated giveaway from pending to active and publishes its
// announcement. The countdown starts from the original creation time.
func (s *GiveawayService) Approve(ctx context.Context, id int64) (*models.Giveaway, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status != models.GiveawayStatusPending {
		return nil, ErrNotPending
	}

	g.Status = models.GiveawayStatusActive
	g.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("activate giveaway: %w", err)
	}

	if err := s.publish(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ForceEnd expires a giveaway immediately: the end time is moved into the
// past, any stale processing lease is cleared, and the end processor runs
// with the miniboss gate bypassed.
func (s *GiveawayService) ForceEnd(ctx context.Context, id int64) error {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	g.EndsAt = time.Now().Add(-time.Second)
	g.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("expire giveaway: %w", err)
	}

	if err := s.locks.Clear(ctx, LockKey(id)); err != nil {
		s.log.Warn().Err(err).Int64("giveaway_id", id).Msg("failed to clear stale lease")
	}

	return s.processor.Process(ctx, id, true)
}

// SaveTemplate validates and stores a creation preset.
func (s *GiveawayService) SaveTemplate(ctx context.Context, t *models.Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperrors.NewValidationError("name", "must not be empty")
	}
	if t.Kind == "" {
		t.Kind = models.KindStandard
	}
	if !t.Kind.Valid() {
		return apperrors.NewValidationError("kind", fmt.Sprintf("unknown giveaway kind %q", t.Kind))
	}
	if t.WinnerCount < 1 {
		return models.ErrInvalidWinners
	}
	if _, err := duration.ParseMillis(t.Duration); err != nil {
		return err
	}

	t.CreatedAt = time.Now()
	return s.templates.Save(ctx, t)
}

func (s *GiveawayService) GetTemplate(ctx context.Context, guildID, name string) (*models.Template, error) {
	return s.templates.Get(ctx, guildID, name)
}

func (s *GiveawayService) ListTemplates(ctx context.Context, guildID string) ([]*models.Template, error) {
	return s.templates.List(ctx, guildID)
}

func (s *GiveawayService) DeleteTemplate(ctx context.Context, guildID, name string) error {
	return s.templates.Delete(ctx, guildID, name)
}

// CreateFromTemplate starts a giveaway from a stored preset.
func (s *GiveawayService) CreateFromTemplate(ctx context.Context, guildID, name, channelID, createdBy string) (*models.Giveaway, error) {
	t, err := s.templates.Get(ctx, guildID, name)
	if err != nil {
		return nil, err
	}

	return s.Create(ctx, CreateInput{
		GuildID:     guildID,
		ChannelID:   channelID,
		Kind:        t.Kind,
		Title:       t.Title,
		Description: t.Description,
		ExtraFields: t.ExtraFields,
		CreatedBy:   createdBy,
		Duration:    t.Duration,
		WinnerCount: t.WinnerCount,
		ForceStart:  t.ForceStart,
	})
}
