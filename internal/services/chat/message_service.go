package chat

import (
	"time"
	"unicode/utf8"

	"projchat_backend/internal/config"
	"projchat_backend/internal/logger"
	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/internal/services"
	"projchat_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// MessageService is the message store: append, edit, soft delete and
// the id-ordered range reads every delivery transport is built on.
type MessageService struct {
	Messages MessageRepo
	Projects ProjectRepo
	Gate     services.PermissionGate
	Limiter  *RateLimiter

	maxLength  int
	editWindow time.Duration
	now        func() time.Time
}

func NewMessageService(messages MessageRepo, projects ProjectRepo, gate services.PermissionGate, limiter *RateLimiter, cfg config.ChatConfig) *MessageService {
	return &MessageService{
		Messages:   messages,
		Projects:   projects,
		Gate:       gate,
		Limiter:    limiter,
		maxLength:  cfg.MaxMessageLength,
		editWindow: cfg.EditWindow,
		now:        time.Now,
	}
}

// Send runs the full write path for a user text message: permission
// gate, rate limit, validation, insert. A failed precondition leaves no
// side effects.
func (s *MessageService) Send(projectID, senderID uint64, body string) (*modelChat.Message, error) {
	ok, err := s.Gate.CanSend(projectID, senderID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	if !ok {
		return nil, apperrors.ForbiddenError("You cannot send messages in this project")
	}

	allowed, err := s.Limiter.Allow(senderID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	if !allowed {
		return nil, apperrors.RateLimitedError("Too many messages, please wait a moment")
	}

	return s.Append(projectID, &senderID, modelChat.KindText, body, nil)
}

// Append validates and inserts a message of any kind. System callers
// (auto-message generator) use it directly, bypassing the rate limiter.
func (s *MessageService) Append(projectID uint64, senderID *uint64, kind, body string, metadata datatypes.JSONMap) (*modelChat.Message, error) {
	if err := s.validateBody(kind, body); err != nil {
		return nil, err
	}

	msg := &modelChat.Message{
		ProjectID: projectID,
		SenderID:  senderID,
		Kind:      kind,
		Body:      body,
		Metadata:  metadata,
		CreatedAt: s.now(),
	}
	if err := s.Messages.Create(msg); err != nil {
		return nil, apperrors.StoreError(err)
	}

	if err := s.Projects.TouchActivity(projectID, msg.CreatedAt); err != nil {
		// Listing staleness only; the message itself is committed.
		logger.Warn("failed to touch project activity", "project_id", projectID, "error", err)
	}
	return msg, nil
}

// Edit replaces the body of a user's own text message inside the edit
// window. The pre-edit body goes to metadata.original on the first edit
// only; later edits keep the original original.
func (s *MessageService) Edit(messageID, editorID uint64, newBody string) (*modelChat.Message, error) {
	msg, err := s.Messages.GetByID(messageID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	if msg == nil {
		return nil, apperrors.NotFoundError("message")
	}

	ok, err := s.Gate.CanEdit(messageID, editorID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	if !ok {
		return nil, apperrors.ForbiddenError("You cannot edit this message")
	}

	if err := s.checkWindow(msg); err != nil {
		return nil, err
	}
	if err := s.validateBody(msg.Kind, newBody); err != nil {
		return nil, err
	}

	if msg.Metadata == nil {
		msg.Metadata = datatypes.JSONMap{}
	}
	if _, edited := msg.Metadata[modelChat.MetaOriginal]; !edited {
		msg.Metadata[modelChat.MetaOriginal] = msg.Body
	}

	now := s.now()
	msg.Body = newBody
	msg.EditedAt = &now

	if err := s.Messages.Save(msg); err != nil {
		return nil, apperrors.StoreError(err)
	}
	return msg, nil
}

// Delete soft-deletes a user's own text message inside the window.
func (s *MessageService) Delete(messageID, requesterID uint64) error {
	msg, err := s.Messages.GetByID(messageID)
	if err != nil {
		return apperrors.StoreError(err)
	}
	if msg == nil {
		return apperrors.NotFoundError("message")
	}

	ok, err := s.Gate.CanDelete(messageID, requesterID)
	if err != nil {
		return apperrors.StoreError(err)
	}
	if !ok {
		return apperrors.ForbiddenError("You cannot delete this message")
	}

	if err := s.checkWindow(msg); err != nil {
		return err
	}

	if err := s.Messages.SoftDelete(messageID, s.now()); err != nil {
		return apperrors.StoreError(err)
	}
	return nil
}

// Get returns a visible message.
func (s *MessageService) Get(messageID uint64) (*modelChat.Message, error) {
	msg, err := s.Messages.GetByID(messageID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	if msg == nil {
		return nil, apperrors.NotFoundError("message")
	}
	return msg, nil
}

// FetchBefore pages backwards ("load older"). beforeID == 0 yields the
// latest page. hasMore is true when a full page came back.
func (s *MessageService) FetchBefore(projectID, userID, beforeID uint64, limit int) ([]modelChat.Message, bool, error) {
	if err := s.requireRead(projectID, userID); err != nil {
		return nil, false, err
	}

	msgs, err := s.Messages.RangeBefore(projectID, beforeID, limit)
	if err != nil {
		return nil, false, apperrors.StoreError(err)
	}
	return msgs, len(msgs) == limit, nil
}

// Search does a substring match over the project's visible messages.
func (s *MessageService) Search(projectID, userID uint64, query string, limit int) ([]modelChat.Message, error) {
	if err := s.requireRead(projectID, userID); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, apperrors.ValidationError("Search query cannot be empty")
	}

	msgs, err := s.Messages.Search(projectID, query, limit)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	return msgs, nil
}

func (s *MessageService) requireRead(projectID, userID uint64) error {
	ok, err := s.Gate.CanRead(projectID, userID)
	if err != nil {
		return apperrors.StoreError(err)
	}
	if !ok {
		return apperrors.ForbiddenError("You do not have access to this project chat")
	}
	return nil
}

// checkWindow enforces the edit/delete deadline against the wall clock
// at call time, so messages turn immutable exactly at expiry.
func (s *MessageService) checkWindow(msg *modelChat.Message) error {
	if s.now().Sub(msg.CreatedAt) > s.editWindow {
		return apperrors.WindowExpiredError("The edit window for this message has expired")
	}
	return nil
}

func (s *MessageService) validateBody(kind, body string) error {
	if body == "" {
		return apperrors.ValidationError("Message cannot be empty")
	}
	// Length cap applies to user-authored text; system payloads
	// (digests in particular) are sized by the generator.
	if kind == modelChat.KindText && utf8.RuneCountInString(body) > s.maxLength {
		return apperrors.ValidationError("Message exceeds the maximum length")
	}
	return nil
}
