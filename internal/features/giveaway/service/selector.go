package service

import (
	"math/rand"
	"sync"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

// Selector draws winners by uniform shuffle. The randomness source is injected
// so tests can pin the ordering; fairness only needs equal selection
// probability, not unpredictability.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

// Select shuffles the participant list and takes the kind's winner target,
// capped at the pool size. The input list is already deduplicated, so the
// result has no duplicates and is never larger than the pool.
func (s *Selector) Select(participants []string, kind models.GiveawayKind, winnerCount int, forceStart bool) []string {
	pool := len(participants)
	if pool == 0 {
		return []string{}
	}

	target := kind.WinnerTarget(winnerCount, forceStart, pool)
	if target > pool {
		target = pool
	}
	if target <= 0 {
		return []string{}
	}

	shuffled := make([]string, pool)
	copy(shuffled, participants)

	s.mu.Lock()
	s.rng.Shuffle(pool, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	return shuffled[:target]
}
