package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/config"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// EndProcessor takes an expired giveaway from active to ended: lease, winner
// selection, reroll archival, best-effort side effects, deletion. Only one
// worker can process a given giveaway at a time; a second invocation is a
// no-op on lock contention or once the record is gone.
type EndProcessor struct {
	repo      repository.GiveawayRepository
	locks     repository.LockRepository
	archive   repository.ArchiveRepository
	announcer Announcer
	notifier  Notifier
	access    AccessGranter
	selector  *Selector
	cfg       *config.Config
	log       zerolog.Logger
}

func NewEndProcessor(
	repo repository.GiveawayRepository,
	locks repository.LockRepository,
	archive repository.ArchiveRepository,
	announcer Announcer,
	notifier Notifier,
	access AccessGranter,
	selector *Selector,
	cfg *config.Config,
	log zerolog.Logger,
) *EndProcessor {
	return &EndProcessor{
		repo:      repo,
		locks:     locks,
		archive:   archive,
		announcer: announcer,
		notifier:  notifier,
		access:    access,
		selector:  selector,
		cfg:       cfg,
		log:       log.With().Str("component", "end_processor").Logger(),
	}
}

// LockKey returns the processing lease key for a giveaway id.
func LockKey(id int64) string {
	return fmt.Sprintf("lock:giveaway:%d", id)
}

// Process ends one giveaway. forced marks an administrative force-end, which
// skips the expiry check and the miniboss participant gate. Persistence errors
// are returned so the next sweep retries; external-surface failures are logged
// and never block finalization.
func (p *EndProcessor) Process(ctx context.Context, id int64, forced bool) error {
	token, err := p.locks.Acquire(ctx, LockKey(id), LockTTL)
	if errors.Is(err, repository.ErrAlreadyLocked) {
		p.log.Debug().Int64("giveaway_id", id).Msg("already being processed, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire processing lease: %w", err)
	}
	defer func() {
		if err := p.locks.Release(ctx, LockKey(id), token); err != nil {
			p.log.Warn().Err(err).Int64("giveaway_id", id).Msg("failed to release processing lease")
		}
	}()

	g, err := p.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		// Already finalized by a concurrent run.
		return nil
	}
	if err != nil {
		return fmt.Errorf("refetch giveaway: %w", err)
	}

	now := time.Now()
	if !forced && !g.HasEnded(now) {
		return nil
	}
	if !forced && !g.Kind.AutoEnds(g.ForceStart, len(g.Participants)) {
		p.log.Debug().Int64("giveaway_id", id).
			Int("participants", len(g.Participants)).
			Msg("miniboss below threshold, waiting for force end")
		return nil
	}

	winners := p.selector.Select(g.Participants, g.Kind, g.WinnerCount, g.ForceStart)

	// Archive before any side effect so rerolls survive deletion of the live
	// record. A store failure here leaves the record intact for the next sweep.
	if g.Announced() {
		if err := p.archive.Save(ctx, &models.RerollArchive{
			MessageID:    g.MessageID,
			GiveawayID:   g.ID,
			GuildID:      g.GuildID,
			ChannelID:    g.ChannelID,
			Kind:         g.Kind,
			Title:        g.Title,
			Participants: g.Participants,
			WinnerCount:  g.WinnerCount,
			PrevWinners:  winners,
			EndedAt:      now,
		}); err != nil {
			return fmt.Errorf("save reroll archive: %w", err)
		}
	}

	p.finalize(ctx, g, winners)

	if err := p.repo.Delete(ctx, g.ID); err != nil {
		return fmt.Errorf("delete giveaway: %w", err)
	}

	p.log.Info().Int64("giveaway_id", g.ID).
		Str("kind", string(g.Kind)).
		Int("participants", len(g.Participants)).
		Int("winners", len(winners)).
		Msg("giveaway ended")
	return nil
}

// finalize runs the external side effects. Each is independent and best-effort.
func (p *EndProcessor) finalize(ctx context.Context, g *models.Giveaway, winners []string) {
	if g.Kind == models.KindMiniboss && p.cfg.Discord.MinibossChannelID != "" {
		for _, userID := range winners {
			if err := p.access.GrantChannelAccess(ctx, p.cfg.Discord.MinibossChannelID, userID); err != nil {
				p.log.Warn().Err(err).Int64("giveaway_id", g.ID).
					Str("user_id", userID).
					Msg("failed to grant miniboss channel access")
			}
		}
	}

	if g.Announced() {
		if err := p.announcer.Update(ctx, g.ChannelID, g.MessageID, models.EndedAnnouncement(g, winners)); err != nil {
			p.log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("failed to update announcement")
		}
	}

	if err := p.notifier.Notify(ctx, p.resultChannel(g), p.completionMessage(g, winners)); err != nil {
		p.log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("failed to send completion notification")
	}
}

// resultChannel picks the completion channel: miniboss and secret giveaways
// announce in their configured alternate channel when one is set.
func (p *EndProcessor) resultChannel(g *models.Giveaway) string {
	if !g.Kind.UsesAltResultChannel() {
		return g.ChannelID
	}
	switch g.Kind {
	case models.KindMiniboss:
		if p.cfg.Discord.MinibossChannelID != "" {
			return p.cfg.Discord.MinibossChannelID
		}
	case models.KindSecret:
		if p.cfg.Discord.SecretResultsChannelID != "" {
			return p.cfg.Discord.SecretResultsChannelID
		}
	}
	return g.ChannelID
}

func (p *EndProcessor) completionMessage(g *models.Giveaway, winners []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** has ended!\n", g.Title)

	if len(winners) == 0 {
		b.WriteString("No one entered, so there are no winners this time.")
	} else {
		b.WriteString("Winners: ")
		for i, userID := range winners {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "<@%s>", userID)
		}
	}

	if g.Announced() {
		fmt.Fprintf(&b, "\nhttps://discord.com/channels/%s/%s/%s", g.GuildID, g.ChannelID, g.MessageID)
	}
	return b.String()
}
