package chat

import (
	"time"

	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/internal/services"
	"projchat_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// MessageView is a message enriched for delivery: sender identity
// resolved and the current seen count attached.
type MessageView struct {
	ID           uint64            `json:"id"`
	ProjectID    uint64            `json:"project_id"`
	SenderID     *uint64           `json:"sender_id"`
	SenderName   string            `json:"sender_name"`
	SenderAvatar string            `json:"sender_avatar,omitempty"`
	Kind         string            `json:"kind"`
	Body         string            `json:"body"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	EditedAt     *time.Time        `json:"edited_at,omitempty"`
	SeenCount    int64             `json:"seen_count"`
}

type TypingUser struct {
	UserID      uint64 `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Delta is everything a client needs to catch up from a watermark.
type Delta struct {
	Messages    []MessageView `json:"messages"`
	Typing      []TypingUser  `json:"typing"`
	UnreadCount int64         `json:"unread_count"`
	Timestamp   time.Time     `json:"timestamp"`
}

// DeltaService answers the catch-up query shared by the poll, push and
// heartbeat transports: everything after a client's last-seen message
// ID, plus live typing state and the unread counter.
type DeltaService struct {
	Messages MessageRepo
	Receipts ReceiptRepo
	Users    UserDirectory
	Gate     services.PermissionGate
	Typing   *TypingService
	Seen     *SeenService

	now func() time.Time
}

func NewDeltaService(messages MessageRepo, receipts ReceiptRepo, users UserDirectory, gate services.PermissionGate, typing *TypingService, seen *SeenService) *DeltaService {
	return &DeltaService{
		Messages: messages,
		Receipts: receipts,
		Users:    users,
		Gate:     gate,
		Typing:   typing,
		Seen:     seen,
		now:      time.Now,
	}
}

// Since returns the delta for one project and caller. lastSeenID of
// zero means "from the beginning", capped by limit.
func (s *DeltaService) Since(projectID, userID, lastSeenID uint64, limit int) (*Delta, error) {
	allowed, err := s.Gate.CanRead(projectID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ForbiddenError("You are not a member of this project")
	}

	messages, err := s.Messages.RangeAfter(projectID, lastSeenID, limit)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	views, err := s.enrich(messages)
	if err != nil {
		return nil, err
	}

	typing, err := s.typingUsers(projectID, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.Seen.UnreadCount(projectID, userID)
	if err != nil {
		return nil, err
	}

	return &Delta{
		Messages:    views,
		Typing:      typing,
		UnreadCount: unread,
		Timestamp:   s.now(),
	}, nil
}

// Enrich resolves sender identities and seen counts for a message
// batch. Exposed for the history endpoints, which page backwards but
// render the same shape.
func (s *DeltaService) Enrich(messages []modelChat.Message) ([]MessageView, error) {
	return s.enrich(messages)
}

func (s *DeltaService) enrich(messages []modelChat.Message) ([]MessageView, error) {
	if len(messages) == 0 {
		return []MessageView{}, nil
	}

	senderIDs := make([]uint64, 0, len(messages))
	seenID := make(map[uint64]bool, len(messages))
	for _, m := range messages {
		if m.SenderID != nil && !seenID[*m.SenderID] {
			seenID[*m.SenderID] = true
			senderIDs = append(senderIDs, *m.SenderID)
		}
	}

	users, err := s.Users.GetByIDs(senderIDs)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		view := MessageView{
			ID:        m.ID,
			ProjectID: m.ProjectID,
			SenderID:  m.SenderID,
			Kind:      m.Kind,
			Body:      m.Body,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
			EditedAt:  m.EditedAt,
		}
		if m.SenderID != nil {
			if u, ok := users[*m.SenderID]; ok {
				view.SenderName = u.DisplayName
				view.SenderAvatar = u.AvatarURL
			}
		} else {
			view.SenderName = "System"
		}

		count, err := s.Receipts.CountByMessage(m.ID)
		if err != nil {
			return nil, apperrors.StoreError(err)
		}
		view.SeenCount = count
		views = append(views, view)
	}
	return views, nil
}

func (s *DeltaService) typingUsers(projectID, excludeUserID uint64) ([]TypingUser, error) {
	ids := s.Typing.WhoIsTyping(projectID, excludeUserID)
	if len(ids) == 0 {
		return []TypingUser{}, nil
	}

	users, err := s.Users.GetByIDs(ids)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	out := make([]TypingUser, 0, len(ids))
	for _, id := range ids {
		name := ""
		if u, ok := users[id]; ok {
			name = u.DisplayName
		}
		out = append(out, TypingUser{UserID: id, DisplayName: name})
	}
	return out, nil
}
