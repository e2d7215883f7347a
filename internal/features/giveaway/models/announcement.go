package models

import "time"

// Announcement is the surface-agnostic content of a giveaway's public display.
// The messaging adapter decides how to render it.
type Announcement struct {
	GiveawayID       int64
	Kind             GiveawayKind
	Title            string
	Description      string
	ExtraFields      []ExtraField
	HostID           string
	ParticipantCount int
	WinnerCount      int
	EndsAt           time.Time
	Winners          []string
	Ended            bool
}

// BuildAnnouncement renders the running state of a live giveaway.
func BuildAnnouncement(g *Giveaway) Announcement {
	return Announcement{
		GiveawayID:       g.ID,
		Kind:             g.Kind,
		Title:            g.Title,
		Description:      g.Description,
		ExtraFields:      g.ExtraFields,
		HostID:           g.CreatedBy,
		ParticipantCount: len(g.Participants),
		WinnerCount:      g.WinnerCount,
		EndsAt:           g.EndsAt,
	}
}

// EndedAnnouncement renders the final state with the selected winners.
func EndedAnnouncement(g *Giveaway, winners []string) Announcement {
	a := BuildAnnouncement(g)
	a.Winners = winners
	a.Ended = true
	return a
}

// ArchivedAnnouncement rebuilds an ended announcement from the reroll archive,
// after the live record is gone.
func ArchivedAnnouncement(arch *RerollArchive, winners []string) Announcement {
	return Announcement{
		GiveawayID:       arch.GiveawayID,
		Kind:             arch.Kind,
		Title:            arch.Title,
		ParticipantCount: len(arch.Participants),
		WinnerCount:      arch.WinnerCount,
		EndsAt:           arch.EndedAt,
		Winners:          winners,
		Ended:            true,
	}
}
