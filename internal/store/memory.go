package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no probe has been recorded for a provider.
	ErrNotFound = errors.New("no probe results for provider")
)

// ProbeResult is the outcome of one health probe against a provider.
type ProbeResult struct {
	Provider   string        `json:"provider"`
	Timestamp  time.Time     `json:"timestamp"` // always UTC
	Up         bool          `json:"up"`
	Fahrenheit float64       `json:"fahrenheit,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
	Error      string        `json:"error,omitempty"`
}

// ProbeHistory holds a time-ordered list of probe results for a provider.
type ProbeHistory struct {
	Results []ProbeResult
}

// MemoryStore is a concurrency-safe in-memory store of provider probe results.
// It is only read by health reporting, never by weather requests.
type MemoryStore struct {
	mu sync.RWMutex

	// key: provider name, value: history
	data map[string]*ProbeHistory

	maxHistory int // max number of results per provider
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
	}
}

// Save appends a probe result and enforces retention.
func (s *MemoryStore) Save(result ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[result.Provider]
	if !ok {
		history = &ProbeHistory{}
		s.data[result.Provider] = history
	}

	history.Results = append(history.Results, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = append([]ProbeResult(nil), history.Results[over:]...)
	}
}

// Latest returns the most recent probe result for a provider.
func (s *MemoryStore) Latest(provider string) (ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[provider]
	if !ok || len(history.Results) == 0 {
		return ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// History returns a copy of every retained result for a provider, oldest first.
func (s *MemoryStore) History(provider string) ([]ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[provider]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}
	out := make([]ProbeResult, len(history.Results))
	copy(out, history.Results)
	return out, nil
}

// LatestAll returns the latest result of every provider, sorted by name.
func (s *MemoryStore) LatestAll() []ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProbeResult, 0, len(s.data))
	for _, history := range s.data {
		if len(history.Results) > 0 {
			out = append(out, history.Results[len(history.Results)-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
