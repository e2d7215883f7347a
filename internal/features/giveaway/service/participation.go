package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// Intent is the direction of a participation toggle.
type Intent string

const (
	IntentJoin  Intent = "join"
	IntentLeave Intent = "leave"
)

// ParticipationService handles join/leave toggles against an active giveaway.
// The per-user cooldown lives in an expirable cache keyed by (giveaway, user)
// rather than process-wide mutable state.
type ParticipationService struct {
	repo      repository.GiveawayRepository
	announcer Announcer
	cooldowns *expirable.LRU[string, time.Time]
	window    time.Duration
	log       zerolog.Logger
}

func NewParticipationService(
	repo repository.GiveawayRepository,
	announcer Announcer,
	window time.Duration,
	log zerolog.Logger,
) *ParticipationService {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	return &ParticipationService{
		repo:      repo,
		announcer: announcer,
		cooldowns: expirable.NewLRU[string, time.Time](cooldownCacheSize, nil, window),
		window:    window,
		log:       log.With().Str("component", "participation").Logger(),
	}
}

func cooldownKey(giveawayID int64, userID string) string {
	return fmt.Sprintf("%d:%s", giveawayID, userID)
}

// Toggle joins or leaves the giveaway behind the given announcement message.
// Preconditions are checked in order and a failed one mutates nothing:
// resolvable record, not expired, cooldown clear, membership consistent with
// the intent, and for secret giveaways the capacity gate. The list mutation
// itself runs under the store's compare-and-set update.
func (s *ParticipationService) Toggle(ctx context.Context, messageID, userID string, intent Intent) (*models.Giveaway, error) {
	g, err := s.repo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if g.Status == models.GiveawayStatusPending || !g.Announced() {
		return nil, models.ErrGiveawayNotStarted
	}

	now := time.Now()
	if g.HasEnded(now) {
		return nil, models.ErrGiveawayEnded
	}

	key := cooldownKey(g.ID, userID)
	if stamp, onCooldown := s.cooldowns.Get(key); onCooldown {
		remaining := s.window - now.Sub(stamp)
		if remaining < 0 {
			remaining = 0
		}
		return nil, CooldownError{Remaining: remaining}
	}

	updated, err := s.repo.UpdateParticipants(ctx, g.ID, func(cur *models.Giveaway) error {
		// Re-check against the freshest record inside the CAS cycle.
		if cur.HasEnded(time.Now()) {
			return models.ErrGiveawayEnded
		}
		switch intent {
		case IntentJoin:
			if cur.IsParticipant(userID) {
				return models.ErrAlreadyJoined
			}
			if cur.Kind.CapacityLimited() && len(cur.Participants) >= cur.WinnerCount {
				return models.ErrGiveawayFull
			}
			cur.Participants = append(cur.Participants, userID)
		case IntentLeave:
			if !cur.Kind.AllowsLeave() {
				return models.ErrLeaveNotAllowed
			}
			if !cur.IsParticipant(userID) {
				return models.ErrNotJoined
			}
			kept := cur.Participants[:0]
			for _, id := range cur.Participants {
				if id != userID {
					kept = append(kept, id)
				}
			}
			cur.Participants = kept
		default:
			return fmt.Errorf("unknown intent %q", intent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cooldowns.Add(key, now)

	// The toggle is committed; the display refresh is best-effort.
	if err := s.announcer.Update(ctx, updated.ChannelID, updated.MessageID, models.BuildAnnouncement(updated)); err != nil {
		s.log.Warn().Err(err).Int64("giveaway_id", updated.ID).Msg("failed to refresh announcement")
	}

	return updated, nil
}
