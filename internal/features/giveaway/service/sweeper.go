package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// Sweeper discovers expired giveaways on a fixed interval and hands each to
// the end processor. It also runs one live-update goroutine per tracked
// active giveaway, refreshing the displayed countdown with a delay of
// min(refresh interval, time left) so updates converge on the expiry moment.
type Sweeper struct {
	repo            repository.GiveawayRepository
	processor       *EndProcessor
	announcer       Announcer
	sweepInterval   time.Duration
	refreshInterval time.Duration
	log             zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	tracked sync.Map
}

func NewSweeper(
	repo repository.GiveawayRepository,
	processor *EndProcessor,
	announcer Announcer,
	sweepInterval, refreshInterval time.Duration,
	log zerolog.Logger,
) *Sweeper {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		repo:            repo,
		processor:       processor,
		announcer:       announcer,
		sweepInterval:   sweepInterval,
		refreshInterval: refreshInterval,
		log:             log.With().Str("component", "sweeper").Logger(),
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (s *Sweeper) Start() {
	s.log.Info().Dur("interval", s.sweepInterval).Msg("starting expiry sweeper")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(s.ctx)
			case <-s.ctx.Done():
				return
			}
		}
	}()

	// Resume countdown updates for giveaways that were active before restart.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		active, err := s.repo.GetActive(s.ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to resume live updates")
			return
		}
		for _, g := range active {
			s.Track(g)
		}
	}()
}

func (s *Sweeper) Stop() {
	s.log.Info().Msg("stopping expiry sweeper")
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("expiry sweeper stopped")
}

// Sweep processes every expired giveaway once. One record's failure is logged
// and never blocks the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.repo.GetExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to scan for expired giveaways")
		return
	}

	for _, id := range ids {
		if err := s.processor.Process(ctx, id, false); err != nil {
			s.log.Error().Err(err).Int64("giveaway_id", id).Msg("failed to end giveaway")
		}
	}
}

// Track starts the live-update loop for an active giveaway. Tracking the same
// giveaway twice is a no-op.
func (s *Sweeper) Track(g *models.Giveaway) {
	if g.Status != models.GiveawayStatusActive || !g.Announced() {
		return
	}
	if _, loaded := s.tracked.LoadOrStore(g.ID, struct{}{}); loaded {
		return
	}

	s.wg.Add(1)
	go func(id int64) {
		defer s.wg.Done()
		defer s.tracked.Delete(id)
		s.refreshLoop(id)
	}(g.ID)
}

func (s *Sweeper) refreshLoop(id int64) {
	for {
		g, err := s.repo.GetByID(s.ctx, id)
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return
		}
		if err != nil {
			s.log.Warn().Err(err).Int64("giveaway_id", id).Msg("live update fetch failed")
			return
		}

		timeLeft := g.TimeLeft(time.Now())
		if timeLeft <= 0 {
			// Expired: hand over to the end processor instead of editing the
			// display. The processor decides whether the giveaway may end.
			if err := s.processor.Process(s.ctx, id, false); err != nil {
				s.log.Error().Err(err).Int64("giveaway_id", id).Msg("failed to end giveaway")
			}
			return
		}

		if err := s.announcer.Update(s.ctx, g.ChannelID, g.MessageID, models.BuildAnnouncement(g)); err != nil {
			s.log.Warn().Err(err).Int64("giveaway_id", id).Msg("failed to refresh countdown")
		}

		delay := s.refreshInterval
		if timeLeft < delay {
			delay = timeLeft
		}

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}
}
