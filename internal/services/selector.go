package services

import (
	"math/rand"
	"sync"

	"terroir/internal/model"
	"terroir/internal/winery"
)

// CandidateSelector picks which wineries a cross-winery search will
// actually query. Selection is randomized so repeated queries spread
// load across the dataset instead of always hitting the same few
// wineries in dataset order. The random source is injected so tests
// can pin the outcome.
type CandidateSelector struct {
	dataset *winery.Dataset

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCandidateSelector constructs a selector. rng may be nil, in which
// case a time-seeded source is used.
func NewCandidateSelector(ds *winery.Dataset, rng *rand.Rand) *CandidateSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &CandidateSelector{dataset: ds, rng: rng}
}

// Select filters the dataset by variety (case-insensitive substring
// against each winery's variety labels) and optional exact district,
// then returns a random subset of at most maxCount entries. An empty
// result is a normal outcome, not an error.
func (s *CandidateSelector) Select(variety, district string, maxCount int) []model.Winery {
	candidates := s.dataset.ByVariety(variety, district)
	if len(candidates) == 0 || maxCount <= 0 {
		return []model.Winery{}
	}

	// rand.Rand is not safe for concurrent use; searches can overlap.
	s.mu.Lock()
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	s.mu.Unlock()

	if len(candidates) > maxCount {
		candidates = candidates[:maxCount]
	}
	return candidates
}
