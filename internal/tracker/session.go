package tracker

import (
	"sync"

	"github.com/tidyframe/tidyframe/internal/model"
)

// Session accumulates batch statistics across pipeline runs. It is safe for
// concurrent use.
type Session struct {
	mu    sync.Mutex
	stats model.BatchStatistics
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{stats: model.NewBatchStatistics("")}
}

// Merge adds one batch's statistics to the session.
func (s *Session) Merge(b model.BatchStatistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Merge(b)
}

// Statistics returns a snapshot of the accumulated counters.
func (s *Session) Statistics() model.BatchStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.FallbackReasons = make(map[model.FallbackReason]int, len(s.stats.FallbackReasons))
	for k, v := range s.stats.FallbackReasons {
		out.FallbackReasons[k] = v
	}
	return out
}

// Reset clears the accumulated counters.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = model.NewBatchStatistics("")
}
