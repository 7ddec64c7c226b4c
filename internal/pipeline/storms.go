package pipeline

import (
	"sort"
	"sync"

	"github.com/couchcryptid/storm-gahm/internal/domain"
)

// StormIndex keeps the latest summary per storm.
type StormIndex struct {
	mu     sync.RWMutex
	storms map[string]domain.StormSummary
}

func NewStormIndex() *StormIndex {
	return &StormIndex{storms: make(map[string]domain.StormSummary)}
}

// Record stores s unless a summary with a later valid time is already held.
func (x *StormIndex) Record(s domain.StormSummary) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if cur, ok := x.storms[s.StormID]; ok && cur.ValidTime.After(s.ValidTime) {
		return
	}
	x.storms[s.StormID] = s
}

// Storms returns all summaries ordered by storm ID.
func (x *StormIndex) Storms() []domain.StormSummary {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.StormSummary, 0, len(x.storms))
	for _, s := range x.storms {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StormID < out[j].StormID })
	return out
}

func (x *StormIndex) Storm(id string) (domain.StormSummary, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	s, ok := x.storms[id]
	return s, ok
}
