package chat

import (
	"errors"
	"strings"
	"time"

	"projchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// visible scopes a query to rows soft delete has not removed.
func visible(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

// Create inserts the message and fills in its assigned id.
func (r *MessageRepository) Create(msg *chat.Message) error {
	return r.DB.Create(msg).Error
}

// GetByID returns a visible message, or (nil, nil) when absent or
// soft-deleted.
func (r *MessageRepository) GetByID(id uint64) (*chat.Message, error) {
	var msg chat.Message
	err := visible(r.DB).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetByIDs batch-loads visible messages.
func (r *MessageRepository) GetByIDs(ids []uint64) ([]chat.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var msgs []chat.Message
	err := visible(r.DB).Where("id IN ?", ids).Find(&msgs).Error
	return msgs, err
}

// Save persists edits to body, metadata and edited_at.
func (r *MessageRepository) Save(msg *chat.Message) error {
	return r.DB.Model(msg).
		Select("body", "metadata", "edited_at").
		Updates(msg).Error
}

// SoftDelete marks the message deleted; subsequent reads skip it.
func (r *MessageRepository) SoftDelete(id uint64, at time.Time) error {
	return r.DB.Model(&chat.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error
}

// RangeAfter returns visible messages with id > afterID, ascending.
// The strict inequality is what makes last_seen_id watermarks safe.
func (r *MessageRepository) RangeAfter(projectID, afterID uint64, limit int) ([]chat.Message, error) {
	var msgs []chat.Message
	err := visible(r.DB).
		Where("project_id = ? AND id > ?", projectID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// RangeBefore returns visible messages with id < beforeID in ascending
// order (fetched descending, then reversed) for backwards pagination.
// beforeID == 0 means "latest page".
func (r *MessageRepository) RangeBefore(projectID, beforeID uint64, limit int) ([]chat.Message, error) {
	q := visible(r.DB).Where("project_id = ?", projectID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []chat.Message
	if err := q.Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Search does a case-insensitive substring match over visible bodies.
func (r *MessageRepository) Search(projectID uint64, query string, limit int) ([]chat.Message, error) {
	pattern := "%" + escapeLike(query) + "%"

	var msgs []chat.Message
	err := visible(r.DB).
		Where("project_id = ? AND LOWER(body) LIKE LOWER(?) ESCAPE '!'", projectID, pattern).
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// AllByProject returns the full visible transcript in id order (export).
func (r *MessageRepository) AllByProject(projectID uint64) ([]chat.Message, error) {
	var msgs []chat.Message
	err := visible(r.DB).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

// CountTextSince counts a user's text messages created after the given
// instant. Backing query of the sliding-window rate limiter; nothing is
// persisted for rate limiting itself.
func (r *MessageRepository) CountTextSince(userID uint64, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.Message{}).
		Where("sender_id = ? AND kind = ? AND created_at > ?", userID, chat.KindText, since).
		Count(&count).Error
	return count, err
}

// escapeLike neutralizes LIKE wildcards in user input. The '!' escape
// character avoids backslash, whose LIKE semantics differ per backend.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	return s
}
