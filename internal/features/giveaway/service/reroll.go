package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// RerollService re-draws winners for an already-ended giveaway from its
// archived participant snapshot. It works entirely off the archive and the
// rendered announcement, so it keeps functioning after the live record is
// deleted.
type RerollService struct {
	archive   repository.ArchiveRepository
	announcer Announcer
	selector  *Selector
	log       zerolog.Logger
}

func NewRerollService(
	archive repository.ArchiveRepository,
	announcer Announcer,
	selector *Selector,
	log zerolog.Logger,
) *RerollService {
	return &RerollService{
		archive:   archive,
		announcer: announcer,
		selector:  selector,
		log:       log.With().Str("component", "reroll").Logger(),
	}
}

// Reroll selects a fresh winner set disjoint from the winners the announcement
// currently displays. The displayed winners, not the archive's bookkeeping,
// define eligibility: a prior reroll may already have diverged the two.
func (s *RerollService) Reroll(ctx context.Context, messageID string) ([]string, error) {
	arch, err := s.archive.GetByMessageID(ctx, messageID)
	if errors.Is(err, repository.ErrArchiveNotFound) {
		return nil, ErrNoRerollData
	}
	if err != nil {
		return nil, err
	}

	displayed, err := s.announcer.RenderedWinners(ctx, arch.ChannelID, arch.MessageID)
	if err != nil {
		return nil, fmt.Errorf("read displayed winners: %w", err)
	}

	exclude := make(map[string]struct{}, len(displayed))
	for _, id := range displayed {
		exclude[id] = struct{}{}
	}

	eligible := make([]string, 0, len(arch.Participants))
	for _, id := range arch.Participants {
		if _, won := exclude[id]; !won {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleParticipants
	}

	winners := s.selector.Select(eligible, models.KindStandard, arch.WinnerCount, false)

	if err := s.announcer.Update(ctx, arch.ChannelID, arch.MessageID, models.ArchivedAnnouncement(arch, winners)); err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}

	now := time.Now()
	arch.PrevWinners = winners
	arch.RerollCount++
	arch.LastRerollAt = &now
	if err := s.archive.Save(ctx, arch); err != nil {
		// The announcement already shows the new winners; the next reroll
		// reads eligibility from the announcement anyway.
		s.log.Warn().Err(err).Str("message_id", messageID).Msg("failed to persist reroll metadata")
	}

	s.log.Info().Str("message_id", messageID).
		Int("winners", len(winners)).
		Int("reroll_count", arch.RerollCount).
		Msg("giveaway rerolled")
	return winners, nil
}
