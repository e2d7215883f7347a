package models

import "time"

// RerollArchive is the durable snapshot written when a giveaway ends. It is
// keyed by the announcement message and outlives deletion of the live record,
// so winners can be rerolled later. PrevWinners tracks what the announcement
// currently shows, not a running history.
type RerollArchive struct {
	MessageID    string       `json:"message_id"`
	GiveawayID   int64        `json:"giveaway_id"`
	GuildID      string       `json:"guild_id"`
	ChannelID    string       `json:"channel_id"`
	Kind         GiveawayKind `json:"kind"`
	Title        string       `json:"title"`
	Participants []string     `json:"participants"`
	WinnerCount  int          `json:"winner_count"`
	PrevWinners  []string     `json:"prev_winners"`
	RerollCount  int          `json:"reroll_count"`
	EndedAt      time.Time    `json:"ended_at"`
	LastRerollAt *time.Time   `json:"last_reroll_at,omitempty"`
}
