package models

import "time"

// Template is a named, per-guild creation preset. Duration is kept as the raw
// human string ("1h", "30m") and parsed again at creation time.
type Template struct {
	GuildID     string       `json:"guild_id"`
	Name        string       `json:"name"`
	Kind        GiveawayKind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ExtraFields []ExtraField `json:"extra_fields,omitempty"`
	Duration    string       `json:"duration"`
	WinnerCount int          `json:"winner_count"`
	ForceStart  bool         `json:"force_start"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}
