package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

var (
	ErrGiveawayEnded      = errors.New("giveaway has ended")
	ErrGiveawayNotStarted = errors.New("giveaway has not been announced yet")
	ErrAlreadyJoined      = errors.New("user already joined this giveaway")
	ErrNotJoined          = errors.New("user is not in this giveaway")
	ErrGiveawayFull       = errors.New("giveaway is full")
	ErrLeaveNotAllowed    = errors.New("leaving is not allowed for this giveaway")
	ErrInvalidWinners     = errors.New("winners count must be greater than 0")
)

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusPending GiveawayStatus = "pending" // awaiting moderation
	GiveawayStatusActive  GiveawayStatus = "active"
	GiveawayStatusEnded   GiveawayStatus = "ended"
)

// MessageIDPending is the sentinel stored before the announcement is published.
const MessageIDPending = "PENDING"

// ExtraField is one label/value pair shown on the announcement. Order matters.
type ExtraField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Giveaway is the live record of a running giveaway.
type Giveaway struct {
	ID           int64          `json:"id"`
	GuildID      string         `json:"guild_id"`
	ChannelID    string         `json:"channel_id"`
	MessageID    string         `json:"message_id"`
	Kind         GiveawayKind   `json:"kind"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ExtraFields  []ExtraField   `json:"extra_fields,omitempty"`
	CreatedBy    string         `json:"created_by"`
	EndsAt       time.Time      `json:"ends_at"`
	DurationMs   int64          `json:"duration_ms"`
	Participants []string       `json:"participants"`
	WinnerCount  int            `json:"winner_count"`
	ForceStart   bool           `json:"force_start"`
	Status       GiveawayStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// UnmarshalJSON decodes a stored record, collapsing a malformed participant list
// to an empty one instead of failing the whole record.
func (g *Giveaway) UnmarshalJSON(data []byte) error {
	type alias Giveaway
	aux := &struct {
		*alias
		Participants json.RawMessage `json:"participants"`
	}{alias: (*alias)(g)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	g.Participants = DecodeParticipants(aux.Participants)
	return nil
}

// DecodeParticipants parses a stored participant list. Anything that is not a
// list of identities yields an empty list; duplicates are dropped, order kept.
func DecodeParticipants(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		return dedupe(ids)
	}

	// Older records stored numeric identities.
	var nums []int64
	if err := json.Unmarshal(raw, &nums); err == nil {
		ids = make([]string, 0, len(nums))
		for _, n := range nums {
			ids = append(ids, strconv.FormatInt(n, 10))
		}
		return dedupe(ids)
	}

	return []string{}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// HasEnded reports whether the giveaway expired at or before now.
func (g *Giveaway) HasEnded(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

func (g *Giveaway) TimeLeft(now time.Time) time.Duration {
	if g.HasEnded(now) {
		return 0
	}
	return g.EndsAt.Sub(now)
}

func (g *Giveaway) IsParticipant(userID string) bool {
	for _, id := range g.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Announced reports whether the giveaway's message handle can be targeted.
func (g *Giveaway) Announced() bool {
	return g.MessageID != "" && g.MessageID != MessageIDPending
}
