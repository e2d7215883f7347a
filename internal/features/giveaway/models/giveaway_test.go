package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

func TestGiveaway_HasEnded(t *testing.T) {
	now := time.Now()
	g := &models.Giveaway{EndsAt: now}

	assert.False(t, g.HasEnded(now.Add(-time.Second)))
	assert.True(t, g.HasEnded(now), "boundary counts as ended")
	assert.True(t, g.HasEnded(now.Add(time.Second)))
}

func TestGiveaway_TimeLeft(t *testing.T) {
	now := time.Now()
	g := &models.Giveaway{EndsAt: now.Add(time.Minute)}

	assert.Equal(t, time.Minute, g.TimeLeft(now))
	assert.Equal(t, time.Duration(0), g.TimeLeft(now.Add(2*time.Minute)))
}

func TestGiveaway_Announced(t *testing.T) {
	assert.False(t, (&models.Giveaway{MessageID: ""}).Announced())
	assert.False(t, (&models.Giveaway{MessageID: models.MessageIDPending}).Announced())
	assert.True(t, (&models.Giveaway{MessageID: "123456"}).Announced())
}

func TestGiveaway_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name             string
		participants     string
		wantParticipants []string
	}{
		{name: "string ids", participants: `["100","200","300"]`, wantParticipants: []string{"100", "200", "300"}},
		{name: "duplicates dropped, order kept", participants: `["100","200","100"]`, wantParticipants: []string{"100", "200"}},
		{name: "legacy numeric ids", participants: `[100,200]`, wantParticipants: []string{"100", "200"}},
		{name: "missing field", participants: `null`, wantParticipants: []string{}},
		{name: "malformed list collapses", participants: `{"bogus":true}`, wantParticipants: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"id":7,"title":"Nitro drop","kind":"standard","participants":` + tt.participants + `}`

			var g models.Giveaway
			require.NoError(t, json.Unmarshal([]byte(raw), &g))

			assert.Equal(t, int64(7), g.ID)
			assert.Equal(t, "Nitro drop", g.Title)
			assert.Equal(t, tt.wantParticipants, g.Participants)
		})
	}
}

func TestGiveaway_IsParticipant(t *testing.T) {
	g := &models.Giveaway{Participants: []string{"100", "200"}}

	assert.True(t, g.IsParticipant("100"))
	assert.False(t, g.IsParticipant("999"))
}
