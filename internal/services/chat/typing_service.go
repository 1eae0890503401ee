package chat

import (
	"sort"
	"sync"
	"time"

	"projchat_backend/internal/config"
)

type typingKey struct {
	projectID uint64
	userID    uint64
}

// TypingService keeps the ephemeral "who is typing" state in a
// mutex-guarded map. Rows are considered stale for readers after the
// freshness window and physically removed by the periodic sweep.
type TypingService struct {
	freshness time.Duration
	sweepAge  time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	state map[typingKey]time.Time
}

func NewTypingService(cfg config.ChatConfig) *TypingService {
	return &TypingService{
		freshness: cfg.TypingFreshness,
		sweepAge:  cfg.TypingSweepAge,
		now:       time.Now,
		state:     make(map[typingKey]time.Time),
	}
}

// Touch refreshes the user's last-typed-at instant. Last write wins.
func (s *TypingService) Touch(projectID, userID uint64) {
	s.mu.Lock()
	s.state[typingKey{projectID, userID}] = s.now()
	s.mu.Unlock()
}

// Clear drops the user's typing row, e.g. right after a send.
func (s *TypingService) Clear(projectID, userID uint64) {
	s.mu.Lock()
	delete(s.state, typingKey{projectID, userID})
	s.mu.Unlock()
}

// WhoIsTyping returns users who typed within the freshness window,
// excluding the caller. Sorted for stable output.
func (s *TypingService) WhoIsTyping(projectID, excludeUserID uint64) []uint64 {
	cutoff := s.now().Add(-s.freshness)

	s.mu.RLock()
	var ids []uint64
	for key, at := range s.state {
		if key.projectID != projectID || key.userID == excludeUserID {
			continue
		}
		if at.After(cutoff) {
			ids = append(ids, key.userID)
		}
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sweep deletes rows older than the sweep age. Runs on the background
// scheduler, never on the request hot path.
func (s *TypingService) Sweep() int {
	cutoff := s.now().Add(-s.sweepAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, at := range s.state {
		if at.Before(cutoff) {
			delete(s.state, key)
			removed++
		}
	}
	return removed
}
