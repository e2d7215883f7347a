package service

import "time"

const (
	// LockTTL bounds how long a crashed worker can hold a giveaway's
	// processing lease.
	LockTTL = 30 * time.Second

	// DefaultSweepInterval is how often the sweeper scans for expired
	// giveaways.
	DefaultSweepInterval = 60 * time.Second

	// DefaultRefreshInterval caps how often an active giveaway's display is
	// refreshed. The live updater sleeps min(refresh, timeLeft).
	DefaultRefreshInterval = 30 * time.Second

	// DefaultCooldownWindow is the per-user join/leave toggle window.
	DefaultCooldownWindow = 10 * time.Second

	// MinDuration rejects giveaways shorter than one second.
	MinDuration = time.Second

	cooldownCacheSize = 4096
)
