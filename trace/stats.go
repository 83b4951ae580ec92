package trace

import (
	"sort"
	"sync"
	"time"
)

// KindStats aggregates finished tasks of one kind.
type KindStats struct {
	Count     uint64
	Failures  uint64
	Bytes     uint64
	TotalTime time.Duration
}

// MeanTime returns the average task duration.
func (s KindStats) MeanTime() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Count)
}

// StatsTracer keeps per-kind counts, failures, bytes and latency in memory.
// Overlapping tasks are simply summed.
type StatsTracer struct {
	mu       sync.Mutex
	filter   TaskFilter
	now      func() time.Time
	inflight map[string]time.Time
	stats    map[string]KindStats
}

// NewStatsTracer returns a StatsTracer. A nil filter keeps every task.
func NewStatsTracer(filter TaskFilter) *StatsTracer {
	return &StatsTracer{
		filter:   filter,
		now:      time.Now,
		inflight: make(map[string]time.Time),
		stats:    make(map[string]KindStats),
	}
}

// StartTask records the task start time.
func (s *StatsTracer) StartTask(task Task) {
	if s.filter != nil && !s.filter(task) {
		return
	}
	start := task.Start
	if start.IsZero() {
		start = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[task.ID] = start
}

// EndTask accumulates the finished task.
func (s *StatsTracer) EndTask(task Task) {
	end := task.End
	if end.IsZero() {
		end = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start, ok := s.inflight[task.ID]
	if !ok {
		return
	}
	delete(s.inflight, task.ID)

	st := s.stats[task.Kind]
	st.Count++
	if task.Failed() {
		st.Failures++
	}
	st.Bytes += uint64(task.Bytes)
	st.TotalTime += end.Sub(start)
	s.stats[task.Kind] = st
}

// Stats returns the aggregate for kind.
func (s *StatsTracer) Stats(kind string) KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[kind]
}

// Kinds returns every kind seen, sorted.
func (s *StatsTracer) Kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]string, 0, len(s.stats))
	for k := range s.stats {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
