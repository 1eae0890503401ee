package chat

import (
	"time"

	"projchat_backend/internal/models"
	modelChat "projchat_backend/internal/models/chat"

	"github.com/stretchr/testify/mock"
)

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(msg *modelChat.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(id uint64) (*modelChat.Message, error) {
	args := m.Called(id)
	if args.Get(0) != nil {
		return args.Get(0).(*modelChat.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepo) GetByIDs(ids []uint64) ([]modelChat.Message, error) {
	args := m.Called(ids)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepo) Save(msg *modelChat.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockMessageRepo) SoftDelete(id uint64, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockMessageRepo) RangeAfter(projectID, afterID uint64, limit int) ([]modelChat.Message, error) {
	args := m.Called(projectID, afterID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepo) RangeBefore(projectID, beforeID uint64, limit int) ([]modelChat.Message, error) {
	args := m.Called(projectID, beforeID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepo) Search(projectID uint64, query string, limit int) ([]modelChat.Message, error) {
	args := m.Called(projectID, query, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepo) AllByProject(projectID uint64) ([]modelChat.Message, error) {
	args := m.Called(projectID)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepo) CountTextSince(userID uint64, since time.Time) (int64, error) {
	args := m.Called(userID, since)
	return args.Get(0).(int64), args.Error(1)
}

type MockReceiptRepo struct {
	mock.Mock
}

func (m *MockReceiptRepo) CreateBatch(receipts []modelChat.ReadReceipt) error {
	args := m.Called(receipts)
	return args.Error(0)
}

func (m *MockReceiptRepo) SeenBy(messageID uint64) ([]modelChat.SeenEntry, error) {
	args := m.Called(messageID)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.SeenEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReceiptRepo) CountByMessage(messageID uint64) (int64, error) {
	args := m.Called(messageID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiptRepo) UnreadIDs(projectID, userID uint64) ([]uint64, error) {
	args := m.Called(projectID, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]uint64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReceiptRepo) UnreadCount(projectID, userID uint64) (int64, error) {
	args := m.Called(projectID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiptRepo) TotalUnread(userID uint64) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Create(ev *modelChat.FileActivity) error {
	args := m.Called(ev)
	return args.Error(0)
}

func (m *MockActivityRepo) CountRecentSame(fileID, userID uint64, action string, since time.Time, beforeID uint64) (int64, error) {
	args := m.Called(fileID, userID, action, since, beforeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivityRepo) ListAfter(projectID, afterID uint64, limit int) ([]modelChat.FileActivity, error) {
	args := m.Called(projectID, afterID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]modelChat.FileActivity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivityRepo) ProjectsWithPending() ([]uint64, error) {
	args := m.Called()
	if args.Get(0) != nil {
		return args.Get(0).([]uint64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivityRepo) GetCursor(projectID uint64) (uint64, error) {
	args := m.Called(projectID)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockActivityRepo) SaveCursor(projectID, lastActivityID uint64) error {
	args := m.Called(projectID, lastActivityID)
	return args.Error(0)
}

type MockProjectRepo struct {
	mock.Mock
}

func (m *MockProjectRepo) GetByID(id uint64) (*models.Project, error) {
	args := m.Called(id)
	if args.Get(0) != nil {
		return args.Get(0).(*models.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProjectRepo) TouchActivity(projectID uint64, at time.Time) error {
	args := m.Called(projectID, at)
	return args.Error(0)
}

func (m *MockProjectRepo) MemberPermission(projectID, userID uint64) (string, error) {
	args := m.Called(projectID, userID)
	return args.String(0), args.Error(1)
}

func (m *MockProjectRepo) MemberCount(projectID uint64) (int64, error) {
	args := m.Called(projectID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByID(id uint64) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) != nil {
		return args.Get(0).(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDirectory) GetByIDs(ids []uint64) (map[uint64]models.User, error) {
	args := m.Called(ids)
	if args.Get(0) != nil {
		return args.Get(0).(map[uint64]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockFileLookup struct {
	mock.Mock
}

func (m *MockFileLookup) GetByID(id uint64) (*models.ProjectFile, error) {
	args := m.Called(id)
	if args.Get(0) != nil {
		return args.Get(0).(*models.ProjectFile), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) CanRead(projectID, userID uint64) (bool, error) {
	args := m.Called(projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGate) CanSend(projectID, userID uint64) (bool, error) {
	args := m.Called(projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGate) CanEdit(messageID, userID uint64) (bool, error) {
	args := m.Called(messageID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGate) CanDelete(messageID, userID uint64) (bool, error) {
	args := m.Called(messageID, userID)
	return args.Bool(0), args.Error(1)
}
