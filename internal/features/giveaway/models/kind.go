package models

// GiveawayKind selects the behavior variant of a giveaway.
type GiveawayKind string

const (
	// KindStandard picks the configured number of winners at expiry.
	KindStandard GiveawayKind = "standard"
	// KindCustom behaves like standard but carries extra display fields.
	KindCustom GiveawayKind = "custom"
	// KindMiniboss needs a full fighting party before it may end on its own.
	KindMiniboss GiveawayKind = "miniboss"
	// KindSecret has as many seats as winners, so every entrant wins.
	KindSecret GiveawayKind = "secret"
)

// MinibossThreshold is the party size a miniboss giveaway needs to end without
// an explicit force start or force end.
const MinibossThreshold = 9

// kindPolicy captures everything that differs between giveaway kinds, so the
// rest of the engine dispatches on data instead of switching on the kind name.
type kindPolicy struct {
	winnerTarget     func(winnerCount int, forceStart bool, poolSize int) int
	autoEnds         func(forceStart bool, poolSize int) bool
	capacityLimited  bool
	allowsLeave      bool
	altResultChannel bool
}

// configuredWinners clamps a malformed stored count to one winner instead of
// failing the draw.
func configuredWinners(winnerCount int, _ bool, _ int) int {
	if winnerCount < 1 {
		return 1
	}
	return winnerCount
}

func alwaysEnds(bool, int) bool { return true }

var kindPolicies = map[GiveawayKind]kindPolicy{
	KindStandard: {
		winnerTarget: configuredWinners,
		autoEnds:     alwaysEnds,
		allowsLeave:  true,
	},
	KindCustom: {
		winnerTarget: configuredWinners,
		autoEnds:     alwaysEnds,
		allowsLeave:  true,
	},
	KindMiniboss: {
		winnerTarget: func(_ int, forceStart bool, poolSize int) int {
			if forceStart && poolSize < MinibossThreshold {
				return poolSize
			}
			return MinibossThreshold
		},
		autoEnds: func(forceStart bool, poolSize int) bool {
			return forceStart || poolSize >= MinibossThreshold
		},
		allowsLeave:      true,
		altResultChannel: true,
	},
	KindSecret: {
		winnerTarget:     configuredWinners,
		autoEnds:         alwaysEnds,
		capacityLimited:  true,
		allowsLeave:      false,
		altResultChannel: true,
	},
}

func (k GiveawayKind) Valid() bool {
	_, ok := kindPolicies[k]
	return ok
}

// WinnerTarget returns how many winners this kind wants to draw from the given
// pool. The caller still caps the result at the pool size.
func (k GiveawayKind) WinnerTarget(winnerCount int, forceStart bool, poolSize int) int {
	return kindPolicies[k].winnerTarget(winnerCount, forceStart, poolSize)
}

// AutoEnds reports whether an expired giveaway of this kind may finalize
// without administrative intervention.
func (k GiveawayKind) AutoEnds(forceStart bool, poolSize int) bool {
	return kindPolicies[k].autoEnds(forceStart, poolSize)
}

// CapacityLimited reports whether joins stop once the pool reaches the winner
// count.
func (k GiveawayKind) CapacityLimited() bool {
	return kindPolicies[k].capacityLimited
}

func (k GiveawayKind) AllowsLeave() bool {
	return kindPolicies[k].allowsLeave
}

// UsesAltResultChannel reports whether results announce in a configured
// alternate channel instead of the origin channel.
func (k GiveawayKind) UsesAltResultChannel() bool {
	return kindPolicies[k].altResultChannel
}
