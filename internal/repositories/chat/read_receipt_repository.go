package chat

import (
	"projchat_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadReceiptRepository struct {
	DB *gorm.DB
}

func NewReadReceiptRepository(db *gorm.DB) *ReadReceiptRepository {
	return &ReadReceiptRepository{DB: db}
}

// CreateBatch inserts receipts with insert-if-absent semantics. The
// ON CONFLICT DO NOTHING clause makes concurrent mark-read calls for
// overlapping id sets race-free without surfacing duplicate-key errors.
func (r *ReadReceiptRepository) CreateBatch(receipts []chat.ReadReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&receipts).Error
}

// SeenBy lists who has read the message, ascending by read time.
func (r *ReadReceiptRepository) SeenBy(messageID uint64) ([]chat.SeenEntry, error) {
	var entries []chat.SeenEntry
	err := r.DB.
		Table("chat_read_receipts r").
		Select("r.user_id, u.display_name, r.read_at").
		Joins("JOIN users u ON u.id = r.user_id").
		Where("r.message_id = ?", messageID).
		Order("r.read_at ASC").
		Scan(&entries).Error
	return entries, err
}

// CountByMessage returns how many users have read the message.
func (r *ReadReceiptRepository) CountByMessage(messageID uint64) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.ReadReceipt{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count, err
}

// UnreadIDs returns ids of visible messages in the project the user has
// not read and did not author.
func (r *ReadReceiptRepository) UnreadIDs(projectID, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.Raw(`
		SELECT m.id FROM chat_messages m
		WHERE m.project_id = ?
		AND (m.sender_id IS NULL OR m.sender_id != ?)
		AND m.deleted_at IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM chat_read_receipts r
			WHERE r.message_id = m.id AND r.user_id = ?
		)
	`, projectID, userID, userID).Scan(&ids).Error
	return ids, err
}

// UnreadCount counts the same set UnreadIDs enumerates.
func (r *ReadReceiptRepository) UnreadCount(projectID, userID uint64) (int64, error) {
	var count int64
	err := r.DB.Raw(`
		SELECT COUNT(*) FROM chat_messages m
		WHERE m.project_id = ?
		AND (m.sender_id IS NULL OR m.sender_id != ?)
		AND m.deleted_at IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM chat_read_receipts r
			WHERE r.message_id = m.id AND r.user_id = ?
		)
	`, projectID, userID, userID).Scan(&count).Error
	return count, err
}

// TotalUnread counts unread messages across every project the user
// belongs to (the global badge).
func (r *ReadReceiptRepository) TotalUnread(userID uint64) (int64, error) {
	var count int64
	err := r.DB.Raw(`
		SELECT COUNT(*) FROM chat_messages m
		JOIN project_members pm ON pm.project_id = m.project_id AND pm.user_id = ?
		WHERE (m.sender_id IS NULL OR m.sender_id != ?)
		AND m.deleted_at IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM chat_read_receipts r
			WHERE r.message_id = m.id AND r.user_id = ?
		)
	`, userID, userID, userID).Scan(&count).Error
	return count, err
}
