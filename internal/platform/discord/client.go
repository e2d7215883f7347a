// Package discord adapts the giveaway engine's announcement, notification and
// access-grant interfaces onto a discordgo session.
package discord

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

const (
	winnersFieldName = "Winners"
	joinButtonID     = "giveaway_join"
	leaveButtonID    = "giveaway_leave"
)

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

type Client struct {
	session *discordgo.Session
	log     zerolog.Logger
}

func NewClient(token string, log zerolog.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return &Client{
		session: session,
		log:     log.With().Str("component", "discord").Logger(),
	}, nil
}

func (c *Client) Open() error {
	return c.session.Open()
}

func (c *Client) Close() error {
	return c.session.Close()
}

// Publish posts the giveaway announcement and returns its message id.
func (c *Client) Publish(ctx context.Context, channelID string, a models.Announcement) (string, error) {
	msg, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{buildEmbed(a)},
		Components: buildComponents(a),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send announcement: %w", err)
	}
	return msg.ID, nil
}

// Update rewrites the announcement in place. Ended giveaways lose their
// buttons.
func (c *Client) Update(ctx context.Context, channelID, messageID string, a models.Announcement) error {
	embeds := []*discordgo.MessageEmbed{buildEmbed(a)}
	components := buildComponents(a)

	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit announcement: %w", err)
	}
	return nil
}

// RenderedWinners parses the winner mentions out of the announcement's winners
// field, i.e. what the message currently shows rather than what was stored.
func (c *Client) RenderedWinners(ctx context.Context, channelID, messageID string) ([]string, error) {
	msg, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch announcement: %w", err)
	}

	var winners []string
	for _, embed := range msg.Embeds {
		for _, field := range embed.Fields {
			if field.Name != winnersFieldName {
				continue
			}
			for _, m := range mentionPattern.FindAllStringSubmatch(field.Value, -1) {
				winners = append(winners, m[1])
			}
		}
	}
	return winners, nil
}

func (c *Client) Notify(ctx context.Context, channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// GrantChannelAccess lets a miniboss winner see and talk in the restricted
// channel.
func (c *Client) GrantChannelAccess(ctx context.Context, channelID, userID string) error {
	return c.session.ChannelPermissionSet(
		channelID,
		userID,
		discordgo.PermissionOverwriteTypeMember,
		discordgo.PermissionViewChannel|discordgo.PermissionSendMessages,
		0,
		discordgo.WithContext(ctx),
	)
}

func buildEmbed(a models.Announcement) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Description,
		Color:       0x5865F2,
	}
	if a.Ended {
		embed.Color = 0x99AAB5
	}

	for _, f := range a.ExtraFields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  f.Label,
			Value: f.Value,
		})
	}

	if a.HostID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Hosted by",
			Value:  fmt.Sprintf("<@%s>", a.HostID),
			Inline: true,
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Entries",
		Value:  fmt.Sprintf("%d", a.ParticipantCount),
		Inline: true,
	})

	if a.Ended {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  winnersFieldName,
			Value: formatWinners(a.Winners),
		})
	} else {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{
				Name:   "Winners",
				Value:  fmt.Sprintf("%d", a.WinnerCount),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:  "Ends",
				Value: fmt.Sprintf("<t:%d:R>", a.EndsAt.Unix()),
			},
		)
	}

	return embed
}

func formatWinners(winners []string) string {
	if len(winners) == 0 {
		return "No winners"
	}
	mentions := make([]string, len(winners))
	for i, id := range winners {
		mentions[i] = fmt.Sprintf("<@%s>", id)
	}
	return strings.Join(mentions, ", ")
}

func buildComponents(a models.Announcement) []discordgo.MessageComponent {
	if a.Ended {
		return []discordgo.MessageComponent{}
	}

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Enter",
			Style:    discordgo.PrimaryButton,
			CustomID: joinButtonID,
			Emoji:    &discordgo.ComponentEmoji{Name: "🎉"},
		},
	}
	if a.Kind.AllowsLeave() {
		buttons = append(buttons, discordgo.Button{
			Label:    "Leave",
			Style:    discordgo.SecondaryButton,
			CustomID: leaveButtonID,
		})
	}

	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}
