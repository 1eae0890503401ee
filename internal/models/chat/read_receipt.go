package chat

import "time"

// ReadReceipt records the first time a user observed a message.
// One row per (message, user); created once, never updated.
type ReadReceipt struct {
	MessageID uint64    `gorm:"primaryKey;autoIncrement:false" json:"message_id"`
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

func (ReadReceipt) TableName() string {
	return "chat_read_receipts"
}

// SeenEntry is a receipt joined with the reader's directory row,
// used by the "who has seen this" listing.
type SeenEntry struct {
	UserID      uint64    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ReadAt      time.Time `json:"read_at"`
}
