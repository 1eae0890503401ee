package chat

import (
	"time"

	"projchat_backend/internal/models"
	modelChat "projchat_backend/internal/models/chat"
)

// The chat services depend on narrow repository interfaces so the
// gorm-backed implementations in internal/repositories can be swapped
// for mocks in tests.

type MessageRepo interface {
	Create(msg *modelChat.Message) error
	GetByID(id uint64) (*modelChat.Message, error)
	GetByIDs(ids []uint64) ([]modelChat.Message, error)
	Save(msg *modelChat.Message) error
	SoftDelete(id uint64, at time.Time) error
	RangeAfter(projectID, afterID uint64, limit int) ([]modelChat.Message, error)
	RangeBefore(projectID, beforeID uint64, limit int) ([]modelChat.Message, error)
	Search(projectID uint64, query string, limit int) ([]modelChat.Message, error)
	AllByProject(projectID uint64) ([]modelChat.Message, error)
	CountTextSince(userID uint64, since time.Time) (int64, error)
}

type ReceiptRepo interface {
	CreateBatch(receipts []modelChat.ReadReceipt) error
	SeenBy(messageID uint64) ([]modelChat.SeenEntry, error)
	CountByMessage(messageID uint64) (int64, error)
	UnreadIDs(projectID, userID uint64) ([]uint64, error)
	UnreadCount(projectID, userID uint64) (int64, error)
	TotalUnread(userID uint64) (int64, error)
}

type ActivityRepo interface {
	Create(ev *modelChat.FileActivity) error
	CountRecentSame(fileID, userID uint64, action string, since time.Time, beforeID uint64) (int64, error)
	ListAfter(projectID, afterID uint64, limit int) ([]modelChat.FileActivity, error)
	ProjectsWithPending() ([]uint64, error)
	GetCursor(projectID uint64) (uint64, error)
	SaveCursor(projectID, lastActivityID uint64) error
}

type ProjectRepo interface {
	GetByID(id uint64) (*models.Project, error)
	TouchActivity(projectID uint64, at time.Time) error
	MemberPermission(projectID, userID uint64) (string, error)
	MemberCount(projectID uint64) (int64, error)
}

type UserDirectory interface {
	GetByID(id uint64) (*models.User, error)
	GetByIDs(ids []uint64) (map[uint64]models.User, error)
}

type FileLookup interface {
	GetByID(id uint64) (*models.ProjectFile, error)
}
