package chat

import (
	"testing"
	"time"

	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestSeenService(receipts *MockReceiptRepo, messages *MockMessageRepo, projects *MockProjectRepo) *SeenService {
	return NewSeenService(receipts, messages, projects, testChatConfig())
}

func TestMarkRead_SkipsOwnMessages(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	reader := uint64(3)
	other := uint64(5)
	messages.On("GetByIDs", []uint64{1, 2}).Return([]modelChat.Message{
		{ID: 1, ProjectID: 7, SenderID: &reader},
		{ID: 2, ProjectID: 7, SenderID: &other},
	}, nil)
	projects.On("MemberPermission", uint64(7), reader).Return("view", nil)
	receipts.On("CreateBatch", mock.MatchedBy(func(batch []modelChat.ReadReceipt) bool {
		return len(batch) == 1 && batch[0].MessageID == 2 && batch[0].UserID == reader
	})).Return(nil)

	assert.NoError(t, svc.MarkRead([]uint64{1, 2}, reader))
	receipts.AssertExpectations(t)
}

func TestMarkRead_DropsForeignProjects(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	sender := uint64(5)
	messages.On("GetByIDs", []uint64{9}).Return([]modelChat.Message{
		{ID: 9, ProjectID: 8, SenderID: &sender},
	}, nil)
	projects.On("MemberPermission", uint64(8), uint64(3)).Return("", nil)
	receipts.On("CreateBatch", mock.MatchedBy(func(batch []modelChat.ReadReceipt) bool {
		return len(batch) == 0
	})).Return(nil)

	assert.NoError(t, svc.MarkRead([]uint64{9}, 3))
}

func TestMarkRead_EmptyInputIsNoop(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	assert.NoError(t, svc.MarkRead(nil, 3))
	messages.AssertNotCalled(t, "GetByIDs", mock.Anything)
}

func TestBulkMarkRead_MarksEverythingUnread(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	projects.On("MemberPermission", uint64(7), uint64(3)).Return("view", nil)
	receipts.On("UnreadIDs", uint64(7), uint64(3)).Return([]uint64{4, 5, 6}, nil)
	receipts.On("CreateBatch", mock.MatchedBy(func(batch []modelChat.ReadReceipt) bool {
		return len(batch) == 3
	})).Return(nil)

	assert.NoError(t, svc.BulkMarkRead(7, 3))
	receipts.AssertExpectations(t)
}

func TestBulkMarkRead_NonMemberForbidden(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	projects.On("MemberPermission", uint64(7), uint64(99)).Return("", nil)

	err := svc.BulkMarkRead(7, 99)

	assertAppCode(t, err, apperrors.CodeForbidden)
	receipts.AssertNotCalled(t, "UnreadIDs", mock.Anything, mock.Anything)
	receipts.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestSeenByAll_ExcludesSenderFromExpected(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	sender := uint64(5)
	messages.On("GetByID", uint64(9)).Return(&modelChat.Message{ID: 9, ProjectID: 7, SenderID: &sender}, nil)
	projects.On("MemberCount", uint64(7)).Return(int64(4), nil)
	receipts.On("CountByMessage", uint64(9)).Return(int64(3), nil)

	all, err := svc.SeenByAll(9)

	assert.NoError(t, err)
	assert.True(t, all)
}

func TestSeenByAll_SystemMessageNeedsEveryMember(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	messages.On("GetByID", uint64(9)).Return(&modelChat.Message{ID: 9, ProjectID: 7, SenderID: nil}, nil)
	projects.On("MemberCount", uint64(7)).Return(int64(4), nil)
	receipts.On("CountByMessage", uint64(9)).Return(int64(3), nil)

	all, err := svc.SeenByAll(9)

	assert.NoError(t, err)
	assert.False(t, all)
}

func TestUnreadCount_CachedWithinTTL(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	receipts.On("UnreadCount", uint64(7), uint64(3)).Return(int64(4), nil).Once()

	count, err := svc.UnreadCount(7, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Second call inside the TTL never reaches the store.
	count, err = svc.UnreadCount(7, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
	receipts.AssertNumberOfCalls(t, "UnreadCount", 1)

	// After expiry the store is consulted again.
	svc.now = func() time.Time { return base.Add(6 * time.Second) }
	receipts.On("UnreadCount", uint64(7), uint64(3)).Return(int64(2), nil).Once()
	count, err = svc.UnreadCount(7, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMarkRead_InvalidatesUnreadCache(t *testing.T) {
	receipts := new(MockReceiptRepo)
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	svc := newTestSeenService(receipts, messages, projects)

	receipts.On("UnreadCount", uint64(7), uint64(3)).Return(int64(1), nil).Once()
	_, err := svc.UnreadCount(7, 3)
	assert.NoError(t, err)

	sender := uint64(5)
	messages.On("GetByIDs", []uint64{9}).Return([]modelChat.Message{
		{ID: 9, ProjectID: 7, SenderID: &sender},
	}, nil)
	projects.On("MemberPermission", uint64(7), uint64(3)).Return("view", nil)
	receipts.On("CreateBatch", mock.Anything).Return(nil)
	assert.NoError(t, svc.MarkRead([]uint64{9}, 3))

	receipts.On("UnreadCount", uint64(7), uint64(3)).Return(int64(0), nil).Once()
	count, err := svc.UnreadCount(7, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
