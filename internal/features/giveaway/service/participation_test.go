package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
	"discord-giveaway-bot/internal/features/giveaway/service"
)

const testCooldown = 80 * time.Millisecond

func newParticipation(repo *fakeRepo, announcer *fakeAnnouncer) *service.ParticipationService {
	return service.NewParticipationService(repo, announcer, testCooldown, zerolog.Nop())
}

func TestToggle_Join(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), nil)
	repo := newFakeRepo(g)
	announcer := newFakeAnnouncer()
	svc := newParticipation(repo, announcer)

	updated, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, updated.Participants)

	stored, ok := repo.get(1)
	require.True(t, ok)
	assert.Equal(t, []string{"user-1"}, stored.Participants)

	// The display refresh follows the committed toggle.
	last, ok := announcer.lastUpdate()
	require.True(t, ok)
	assert.Equal(t, 1, last.Content.ParticipantCount)
}

func TestToggle_JoinTwice(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), []string{"user-1"})
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())

	_, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentJoin)
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)
}

func TestToggle_Leave(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), []string{"user-1", "user-2"})
	repo := newFakeRepo(g)
	svc := newParticipation(repo, newFakeAnnouncer())

	updated, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentLeave)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-2"}, updated.Participants)
}

func TestToggle_LeaveWithoutJoining(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), []string{"user-2"})
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())

	_, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentLeave)
	assert.ErrorIs(t, err, models.ErrNotJoined)
}

func TestToggle_UnknownMessage(t *testing.T) {
	svc := newParticipation(newFakeRepo(), newFakeAnnouncer())

	_, err := svc.Toggle(context.Background(), "no-such-message", "user-1", service.IntentJoin)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
}

func TestToggle_EndedGiveaway(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(-time.Minute), nil)
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())

	_, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentJoin)
	assert.ErrorIs(t, err, models.ErrGiveawayEnded)
}

func TestToggle_PendingGiveaway(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), nil)
	g.Status = models.GiveawayStatusPending
	g.MessageID = models.MessageIDPending
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())

	_, err := svc.Toggle(context.Background(), models.MessageIDPending, "user-1", service.IntentJoin)
	assert.ErrorIs(t, err, models.ErrGiveawayNotStarted)
}

func TestToggle_SecretCapacity(t *testing.T) {
	g := activeGiveaway(1, models.KindSecret, time.Now().Add(time.Hour), []string{"user-1", "user-2"})
	g.WinnerCount = 2
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())

	// Pool already equals the winner count; the next join bounces.
	_, err := svc.Toggle(context.Background(), g.MessageID, "user-3", service.IntentJoin)
	assert.ErrorIs(t, err, models.ErrGiveawayFull)
}

func TestToggle_SecretNoLeave(t *testing.T) {
	g := activeGiveaway(1, models.KindSecret, time.Now().Add(time.Hour), []string{"user-1"})
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())

	_, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentLeave)
	assert.ErrorIs(t, err, models.ErrLeaveNotAllowed)
}

func TestToggle_Cooldown(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), nil)
	repo := newFakeRepo(g)
	svc := newParticipation(repo, newFakeAnnouncer())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, g.MessageID, "user-1", service.IntentJoin)
	require.NoError(t, err)

	// Flipping back inside the window is rejected and mutates nothing.
	_, err = svc.Toggle(ctx, g.MessageID, "user-1", service.IntentLeave)
	var cooldown service.CooldownError
	require.True(t, errors.As(err, &cooldown))
	assert.Greater(t, cooldown.Remaining, time.Duration(0))

	stored, ok := repo.get(1)
	require.True(t, ok)
	assert.Equal(t, []string{"user-1"}, stored.Participants)

	// After the window expires the toggle goes through.
	time.Sleep(testCooldown + 20*time.Millisecond)
	_, err = svc.Toggle(ctx, g.MessageID, "user-1", service.IntentLeave)
	require.NoError(t, err)
}

func TestToggle_CooldownIsPerUser(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), nil)
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, g.MessageID, "user-1", service.IntentJoin)
	require.NoError(t, err)

	// A different user is unaffected by user-1's window.
	_, err = svc.Toggle(ctx, g.MessageID, "user-2", service.IntentJoin)
	require.NoError(t, err)
}

func TestToggle_RejectedToggleDoesNotStartCooldown(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), []string{"user-1"})
	svc := newParticipation(newFakeRepo(g), newFakeAnnouncer())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, g.MessageID, "user-1", service.IntentJoin)
	require.ErrorIs(t, err, models.ErrAlreadyJoined)

	// The failed join stamped nothing, so leaving right away works.
	_, err = svc.Toggle(ctx, g.MessageID, "user-1", service.IntentLeave)
	require.NoError(t, err)
}

func TestToggle_AnnouncementFailureDoesNotUndoToggle(t *testing.T) {
	g := activeGiveaway(1, models.KindStandard, time.Now().Add(time.Hour), nil)
	repo := newFakeRepo(g)
	announcer := newFakeAnnouncer()
	announcer.updateErr = errors.New("discord is down")
	svc := newParticipation(repo, announcer)

	updated, err := svc.Toggle(context.Background(), g.MessageID, "user-1", service.IntentJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, updated.Participants)
}
