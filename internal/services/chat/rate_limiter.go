package chat

import (
	"time"

	"projchat_backend/internal/config"
)

// RateLimiter gates message sends on a sliding count of the user's
// recent text messages. The window is derived from the message table on
// every call — nothing extra is persisted, so behavior is correct
// across process restarts.
type RateLimiter struct {
	Messages MessageRepo

	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(messages MessageRepo, cfg config.ChatConfig) *RateLimiter {
	return &RateLimiter{
		Messages: messages,
		limit:    cfg.RateLimit,
		window:   cfg.RateWindow,
		now:      time.Now,
	}
}

// Allow reports whether the user may send another text message now.
// A denial has no side effects anywhere.
func (l *RateLimiter) Allow(userID uint64) (bool, error) {
	since := l.now().Add(-l.window)
	count, err := l.Messages.CountTextSince(userID, since)
	if err != nil {
		return false, err
	}
	return count < int64(l.limit), nil
}
