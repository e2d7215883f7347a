package duration_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"discord-giveaway-bot/internal/utils/duration"
)

func TestParseMillis(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{name: "seconds", input: "30s", want: 30_000},
		{name: "minutes", input: "5m", want: 300_000},
		{name: "hours", input: "2h", want: 7_200_000},
		{name: "days", input: "1d", want: 86_400_000},
		{name: "multi digit", input: "120s", want: 120_000},
		{name: "large but valid", input: "365d", want: 365 * 86_400_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := duration.ParseMillis(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMillis_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "no unit", input: "10"},
		{name: "unknown unit", input: "10w"},
		{name: "no value", input: "d"},
		{name: "negative", input: "-5m"},
		{name: "compound", input: "1h30m"},
		{name: "whitespace", input: "10 m"},
		{name: "uppercase unit", input: "10M"},
		{name: "overflow", input: "99999999999999999999d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := duration.ParseMillis(tt.input)
			assert.True(t, errors.Is(err, duration.ErrInvalidDuration), "got %v", err)
		})
	}
}
