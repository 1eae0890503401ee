package chat

import "time"

// File activity actions announced in chat.
const (
	ActionUpload   = "upload"
	ActionReplace  = "replace"
	ActionDelete   = "delete"
	ActionDownload = "download"
	ActionSee      = "see"
)

// ValidAction reports whether s is a known file action.
func ValidAction(s string) bool {
	switch s {
	case ActionUpload, ActionReplace, ActionDelete, ActionDownload, ActionSee:
		return true
	}
	return false
}

// FileActivity is one inbound file event from the file-management side
// of the product. The auto-message generator consumes these.
type FileActivity struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID    uint64    `gorm:"index;not null" json:"file_id"`
	ProjectID uint64    `gorm:"index;not null" json:"project_id"`
	UserID    uint64    `gorm:"index;not null" json:"user_id"`
	Action    string    `gorm:"not null" json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

func (FileActivity) TableName() string {
	return "chat_file_activities"
}

// AutoMessageCursor tracks, per project, the last file activity the
// digest flusher has turned into a message. An explicit row instead of
// ambient option state so the position survives restarts and is
// queryable alongside the rest of the generator's data.
type AutoMessageCursor struct {
	ProjectID      uint64    `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	LastActivityID uint64    `gorm:"not null;default:0" json:"last_activity_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AutoMessageCursor) TableName() string {
	return "chat_auto_message_cursors"
}
