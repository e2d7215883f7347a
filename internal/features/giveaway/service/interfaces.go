package service

import (
	"context"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

// Announcer is the external announcement surface for a giveaway's public
// display. Implemented by the Discord adapter.
type Announcer interface {
	Publish(ctx context.Context, channelID string, a models.Announcement) (messageID string, err error)
	Update(ctx context.Context, channelID, messageID string, a models.Announcement) error
	// RenderedWinners reads the winner identities the announcement currently
	// displays. Reroll eligibility is computed against this, not against
	// stored state, since the two can diverge.
	RenderedWinners(ctx context.Context, channelID, messageID string) ([]string, error)
}

// Notifier delivers best-effort completion messages. Failures are logged by
// callers and never retried.
type Notifier interface {
	Notify(ctx context.Context, channelID, content string) error
}

// AccessGranter opens a restricted channel to a winner. Miniboss only.
type AccessGranter interface {
	GrantChannelAccess(ctx context.Context, channelID, userID string) error
}

// Tracker starts live display updates for an active giveaway.
type Tracker interface {
	Track(g *models.Giveaway)
}
