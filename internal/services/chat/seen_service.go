package chat

import (
	"fmt"
	"sync"
	"time"

	"projchat_backend/internal/config"
	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/pkg/apperrors"
)

// SeenService owns read receipts: idempotent mark-as-read, "seen by"
// listings and the derived unread counts with a short-lived cache.
type SeenService struct {
	Receipts ReceiptRepo
	Messages MessageRepo
	Projects ProjectRepo

	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedCount
}

type cachedCount struct {
	value     int64
	expiresAt time.Time
}

func NewSeenService(receipts ReceiptRepo, messages MessageRepo, projects ProjectRepo, cfg config.ChatConfig) *SeenService {
	return &SeenService{
		Receipts: receipts,
		Messages: messages,
		Projects: projects,
		cacheTTL: cfg.UnreadCacheTTL,
		now:      time.Now,
		cache:    make(map[string]cachedCount),
	}
}

// MarkRead records receipts for the given message ids. Idempotent and
// safe under concurrent calls with overlapping sets: ids already marked
// are skipped by the conditional insert, the caller never sees a
// duplicate-key error. The user's own messages and messages in projects
// the user does not belong to are silently dropped.
func (s *SeenService) MarkRead(messageIDs []uint64, userID uint64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	msgs, err := s.Messages.GetByIDs(messageIDs)
	if err != nil {
		return apperrors.StoreError(err)
	}

	now := s.now()
	membership := make(map[uint64]bool)
	receipts := make([]modelChat.ReadReceipt, 0, len(msgs))
	touched := make(map[uint64]struct{})

	for _, msg := range msgs {
		// Self-reads are not tracked as "seen by others".
		if msg.SenderID != nil && *msg.SenderID == userID {
			continue
		}

		// Defensive membership re-check; the permission gate already
		// ran at the transport boundary.
		member, checked := membership[msg.ProjectID]
		if !checked {
			perm, err := s.Projects.MemberPermission(msg.ProjectID, userID)
			if err != nil {
				return apperrors.StoreError(err)
			}
			member = perm != ""
			membership[msg.ProjectID] = member
		}
		if !member {
			continue
		}

		receipts = append(receipts, modelChat.ReadReceipt{
			MessageID: msg.ID,
			UserID:    userID,
			ReadAt:    now,
		})
		touched[msg.ProjectID] = struct{}{}
	}

	if err := s.Receipts.CreateBatch(receipts); err != nil {
		return apperrors.StoreError(err)
	}

	for projectID := range touched {
		s.invalidate(projectID, userID)
	}
	return nil
}

// BulkMarkRead marks everything unread in the project for the user.
// Runs when a user opens the chat view.
func (s *SeenService) BulkMarkRead(projectID, userID uint64) error {
	// Defensive membership re-check, same as MarkRead.
	perm, err := s.Projects.MemberPermission(projectID, userID)
	if err != nil {
		return apperrors.StoreError(err)
	}
	if perm == "" {
		return apperrors.ForbiddenError("You are not a member of this project")
	}

	ids, err := s.Receipts.UnreadIDs(projectID, userID)
	if err != nil {
		return apperrors.StoreError(err)
	}
	if len(ids) == 0 {
		return nil
	}

	now := s.now()
	receipts := make([]modelChat.ReadReceipt, 0, len(ids))
	for _, id := range ids {
		receipts = append(receipts, modelChat.ReadReceipt{
			MessageID: id,
			UserID:    userID,
			ReadAt:    now,
		})
	}
	if err := s.Receipts.CreateBatch(receipts); err != nil {
		return apperrors.StoreError(err)
	}

	s.invalidate(projectID, userID)
	return nil
}

// SeenBy lists readers of a message ascending by read time.
func (s *SeenService) SeenBy(messageID uint64) ([]modelChat.SeenEntry, error) {
	entries, err := s.Receipts.SeenBy(messageID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	return entries, nil
}

// SeenByAll reports whether every project member except the sender has
// read the message. Computed against the real membership count.
func (s *SeenService) SeenByAll(messageID uint64) (bool, error) {
	msg, err := s.Messages.GetByID(messageID)
	if err != nil {
		return false, apperrors.StoreError(err)
	}
	if msg == nil {
		return false, apperrors.NotFoundError("message")
	}

	members, err := s.Projects.MemberCount(msg.ProjectID)
	if err != nil {
		return false, apperrors.StoreError(err)
	}
	expected := members
	if msg.SenderID != nil {
		expected--
	}
	if expected <= 0 {
		return true, nil
	}

	seen, err := s.Receipts.CountByMessage(messageID)
	if err != nil {
		return false, apperrors.StoreError(err)
	}
	return seen >= expected, nil
}

// UnreadCount returns the user's unread count for the project. Cached
// for a few seconds; MarkRead/BulkMarkRead invalidate immediately.
func (s *SeenService) UnreadCount(projectID, userID uint64) (int64, error) {
	key := cacheKey(projectID, userID)
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	count, err := s.Receipts.UnreadCount(projectID, userID)
	if err != nil {
		return 0, apperrors.StoreError(err)
	}
	s.store(key, count)
	return count, nil
}

// BadgeCount returns the user's unread total across all projects.
func (s *SeenService) BadgeCount(userID uint64) (int64, error) {
	key := cacheKey(0, userID)
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	count, err := s.Receipts.TotalUnread(userID)
	if err != nil {
		return 0, apperrors.StoreError(err)
	}
	s.store(key, count)
	return count, nil
}

func cacheKey(projectID, userID uint64) string {
	return fmt.Sprintf("%d:%d", projectID, userID)
}

func (s *SeenService) cached(key string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.value, true
}

func (s *SeenService) store(key string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cachedCount{value: value, expiresAt: s.now().Add(s.cacheTTL)}
}

func (s *SeenService) invalidate(projectID, userID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, cacheKey(projectID, userID))
	delete(s.cache, cacheKey(0, userID)) // badge total includes this project
}
