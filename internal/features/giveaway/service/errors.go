package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoRerollData           = errors.New("no reroll data available for this message")
	ErrNoEligibleParticipants = errors.New("no eligible participants left to reroll")
	ErrNotPending             = errors.New("giveaway is not awaiting approval")
)

// CooldownError rejects a join/leave toggle inside the per-user window.
type CooldownError struct {
	Remaining time.Duration
}

func (e CooldownError) Error() string {
	return fmt.Sprintf("please wait %.0fs before toggling again", e.Remaining.Seconds())
}

// Is allows errors.Is() matching regardless of the remaining time.
func (e CooldownError) Is(target error) bool {
	_, ok := target.(CooldownError)
	return ok
}
