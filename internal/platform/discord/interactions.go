package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
	"discord-giveaway-bot/internal/features/giveaway/service"
)

const interactionTimeout = 5 * time.Second

// RegisterInteractionHandlers wires the join/leave buttons to the
// participation service. Replies are ephemeral, visible only to the clicker.
func (c *Client) RegisterInteractionHandlers(participation *service.ParticipationService) {
	c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionMessageComponent {
			return
		}

		var intent service.Intent
		switch i.MessageComponentData().CustomID {
		case joinButtonID:
			intent = service.IntentJoin
		case leaveButtonID:
			intent = service.IntentLeave
		default:
			return
		}

		userID := interactionUserID(i)
		if userID == "" || i.Message == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		_, err := participation.Toggle(ctx, i.Message.ID, userID, intent)
		reply := replyFor(intent, err)
		if err != nil && replyIsUnexpected(err) {
			c.log.Error().Err(err).
				Str("message_id", i.Message.ID).
				Str("user_id", userID).
				Str("intent", string(intent)).
				Msg("participation toggle failed")
		}

		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: reply,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}); err != nil {
			c.log.Warn().Err(err).Str("message_id", i.Message.ID).Msg("failed to send interaction reply")
		}
	})
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// replyFor maps a toggle outcome to user-facing text. Expected rejections get
// a specific message; anything else gets an apologetic retry prompt with no
// internals leaked.
func replyFor(intent service.Intent, err error) string {
	if err == nil {
		if intent == service.IntentLeave {
			return "You have left the giveaway."
		}
		return "You're in! Good luck. 🎉"
	}

	var cooldown service.CooldownError
	switch {
	case errors.Is(err, repository.ErrGiveawayNotFound):
		return "This giveaway does not exist anymore."
	case errors.Is(err, models.ErrGiveawayNotStarted):
		return "This giveaway hasn't started yet."
	case errors.Is(err, models.ErrGiveawayEnded):
		return "This giveaway has already ended."
	case errors.Is(err, models.ErrAlreadyJoined):
		return "You're already entered in this giveaway."
	case errors.Is(err, models.ErrNotJoined):
		return "You're not entered in this giveaway."
	case errors.Is(err, models.ErrGiveawayFull):
		return "This giveaway is full."
	case errors.Is(err, models.ErrLeaveNotAllowed):
		return "You can't leave this giveaway."
	case errors.As(err, &cooldown):
		return fmt.Sprintf("Slow down! Try again in %d seconds.", int(cooldown.Remaining.Seconds())+1)
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

func replyIsUnexpected(err error) bool {
	var cooldown service.CooldownError
	return !errors.Is(err, repository.ErrGiveawayNotFound) &&
		!errors.Is(err, models.ErrGiveawayNotStarted) &&
		!errors.Is(err, models.ErrGiveawayEnded) &&
		!errors.Is(err, models.ErrAlreadyJoined) &&
		!errors.Is(err, models.ErrNotJoined) &&
		!errors.Is(err, models.ErrGiveawayFull) &&
		!errors.Is(err, models.ErrLeaveNotAllowed) &&
		!errors.As(err, &cooldown)
}
