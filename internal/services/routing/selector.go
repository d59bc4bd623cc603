package routing

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Selector draws the live channel from the scored candidates. The draw is
// weighted by score^exponent; a lower exponent flattens the distribution and
// improves load spread at the cost of weaker score preference. Custodians in
// the bounded recency list get their weight reduced proportionally to how
// recently they were picked. This sits on top of the scorer's own diversity
// term on purpose, so distribution stays robust to weight mistuning.
type Selector struct {
	exponent float64
	penalty  float64
	size     int

	mu     sync.Mutex
	recent []uint // most recent first
	rnd    *rand.Rand
}

func NewSelector(exponent, recencyPenalty float64, recencySize int) *Selector {
	return NewSelectorWithSource(exponent, recencyPenalty, recencySize,
		rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource injects the random source; tests pass a fixed seed.
func NewSelectorWithSource(exponent, recencyPenalty float64, recencySize int, src rand.Source) *Selector {
	if exponent <= 0 {
		exponent = 1.3
	}
	return &Selector{
		exponent: exponent,
		penalty:  recencyPenalty,
		size:     recencySize,
		rnd:      rand.New(src),
	}
}

// Pick draws from the exact-tier-match subset when it is non-empty,
// otherwise the full candidate set.
func (s *Selector) Pick(candidates []*ScoredChannel) *ScoredChannel {
	if len(candidates) == 0 {
		return nil
	}

	pool := make([]*ScoredChannel, 0, len(candidates))
	for _, c := range candidates {
		if c.ExactTier {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	weights := make([]float64, len(pool))
	total := 0.0
	for i, c := range pool {
		w := math.Pow(c.Score, s.exponent) * s.recencyMultiplierLocked(c.Channel.CustodianID)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return pool[0]
	}

	draw := s.rnd.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw <= 0 {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}

// MarkSelected records a custodian at the head of the recency list.
func (s *Selector) MarkSelected(custodianID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]uint, 0, s.size)
	filtered = append(filtered, custodianID)
	for _, id := range s.recent {
		if id != custodianID && len(filtered) < s.size {
			filtered = append(filtered, id)
		}
	}
	s.recent = filtered
}

// RecencyRanks exposes the list for the scorer's diversity term:
// 0 is the most recently selected custodian.
func (s *Selector) RecencyRanks() (map[uint]int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ranks := make(map[uint]int, len(s.recent))
	for i, id := range s.recent {
		ranks[id] = i
	}
	return ranks, s.size
}

func (s *Selector) recencyMultiplierLocked(custodianID uint) float64 {
	for i, id := range s.recent {
		if id == custodianID {
			n := float64(len(s.recent))
			return 1 - s.penalty*(n-float64(i))/n
		}
	}
	return 1
}
