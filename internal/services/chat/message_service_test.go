package chat

import (
	"strings"
	"testing"
	"time"

	"projchat_backend/internal/config"
	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		MaxMessageLength: 2000,
		EditWindow:       15 * time.Minute,
		RateLimit:        10,
		RateWindow:       60 * time.Second,
		UnreadCacheTTL:   5 * time.Second,
		TypingFreshness:  5 * time.Second,
		TypingSweepAge:   60 * time.Second,
		DedupWindow:      5 * time.Minute,
	}
}

func newTestMessageService(messages *MockMessageRepo, projects *MockProjectRepo, gate *MockGate) *MessageService {
	limiter := NewRateLimiter(messages, testChatConfig())
	return NewMessageService(messages, projects, gate, limiter, testChatConfig())
}

func assertAppCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	assert.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestSend_HappyPath(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanSend", uint64(7), uint64(3)).Return(true, nil)
	messages.On("CountTextSince", uint64(3), mock.Anything).Return(int64(0), nil)
	messages.On("Create", mock.AnythingOfType("*chat.Message")).Return(nil)
	projects.On("TouchActivity", uint64(7), mock.Anything).Return(nil)

	msg, err := svc.Send(7, 3, "hello @[5:Alice]")

	assert.NoError(t, err)
	assert.Equal(t, modelChat.KindText, msg.Kind)
	assert.Equal(t, "hello @[5:Alice]", msg.Body)
	assert.Equal(t, uint64(3), *msg.SenderID)
	messages.AssertExpectations(t)
}

func TestSend_ForbiddenLeavesNoSideEffects(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanSend", uint64(7), uint64(3)).Return(false, nil)

	_, err := svc.Send(7, 3, "hello")

	assertAppCode(t, err, apperrors.CodeForbidden)
	messages.AssertNotCalled(t, "Create", mock.Anything)
	messages.AssertNotCalled(t, "CountTextSince", mock.Anything, mock.Anything)
}

func TestSend_RateLimited(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanSend", uint64(7), uint64(3)).Return(true, nil)
	messages.On("CountTextSince", uint64(3), mock.Anything).Return(int64(10), nil)

	_, err := svc.Send(7, 3, "hello")

	assertAppCode(t, err, apperrors.CodeRateLimited)
	messages.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSend_EmptyBodyRejected(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanSend", uint64(7), uint64(3)).Return(true, nil)
	messages.On("CountTextSince", uint64(3), mock.Anything).Return(int64(0), nil)

	_, err := svc.Send(7, 3, "")

	assertAppCode(t, err, apperrors.CodeValidationFailed)
	messages.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSend_BodyAtLimitAccepted(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanSend", uint64(7), uint64(3)).Return(true, nil)
	messages.On("CountTextSince", uint64(3), mock.Anything).Return(int64(0), nil)
	messages.On("Create", mock.Anything).Return(nil)
	projects.On("TouchActivity", uint64(7), mock.Anything).Return(nil)

	// 2000 multi-byte runes: the cap counts code points, not bytes.
	body := strings.Repeat("я", 2000)
	_, err := svc.Send(7, 3, body)
	assert.NoError(t, err)

	_, err = svc.Send(7, 3, body+"я")
	assertAppCode(t, err, apperrors.CodeValidationFailed)
}

func TestEdit_InsideWindow(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created.Add(15 * time.Minute) }

	senderID := uint64(3)
	msg := &modelChat.Message{
		ID: 11, ProjectID: 7, SenderID: &senderID,
		Kind: modelChat.KindText, Body: "first draft", CreatedAt: created,
	}
	messages.On("GetByID", uint64(11)).Return(msg, nil)
	gate.On("CanEdit", uint64(11), uint64(3)).Return(true, nil)
	messages.On("Save", mock.Anything).Return(nil)

	edited, err := svc.Edit(11, 3, "second draft")

	assert.NoError(t, err)
	assert.Equal(t, "second draft", edited.Body)
	assert.NotNil(t, edited.EditedAt)
	assert.Equal(t, "first draft", edited.Metadata[modelChat.MetaOriginal])
}

func TestEdit_WindowExpired(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created.Add(15*time.Minute + time.Second) }

	senderID := uint64(3)
	msg := &modelChat.Message{
		ID: 11, ProjectID: 7, SenderID: &senderID,
		Kind: modelChat.KindText, Body: "first draft", CreatedAt: created,
	}
	messages.On("GetByID", uint64(11)).Return(msg, nil)
	gate.On("CanEdit", uint64(11), uint64(3)).Return(true, nil)

	_, err := svc.Edit(11, 3, "too late")

	assertAppCode(t, err, apperrors.CodeWindowExpired)
	messages.AssertNotCalled(t, "Save", mock.Anything)
}

func TestEdit_PreservesFirstOriginal(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	created := time.Now()
	senderID := uint64(3)
	msg := &modelChat.Message{
		ID: 11, ProjectID: 7, SenderID: &senderID,
		Kind: modelChat.KindText, Body: "v2", CreatedAt: created,
		Metadata: datatypes.JSONMap{modelChat.MetaOriginal: "v1"},
	}
	messages.On("GetByID", uint64(11)).Return(msg, nil)
	gate.On("CanEdit", uint64(11), uint64(3)).Return(true, nil)
	messages.On("Save", mock.Anything).Return(nil)

	edited, err := svc.Edit(11, 3, "v3")

	assert.NoError(t, err)
	assert.Equal(t, "v1", edited.Metadata[modelChat.MetaOriginal])
}

func TestEdit_NotOwnMessage(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	senderID := uint64(3)
	msg := &modelChat.Message{
		ID: 11, ProjectID: 7, SenderID: &senderID,
		Kind: modelChat.KindText, Body: "hi", CreatedAt: time.Now(),
	}
	messages.On("GetByID", uint64(11)).Return(msg, nil)
	gate.On("CanEdit", uint64(11), uint64(9)).Return(false, nil)

	_, err := svc.Edit(11, 9, "hijack")

	assertAppCode(t, err, apperrors.CodeForbidden)
}

func TestEdit_MissingMessage(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	messages.On("GetByID", uint64(404)).Return(nil, nil)

	_, err := svc.Edit(404, 3, "anything")

	assertAppCode(t, err, apperrors.CodeNotFound)
}

func TestDelete_InsideWindow(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	senderID := uint64(3)
	msg := &modelChat.Message{
		ID: 11, ProjectID: 7, SenderID: &senderID,
		Kind: modelChat.KindText, Body: "hi", CreatedAt: time.Now(),
	}
	messages.On("GetByID", uint64(11)).Return(msg, nil)
	gate.On("CanDelete", uint64(11), uint64(3)).Return(true, nil)
	messages.On("SoftDelete", uint64(11), mock.Anything).Return(nil)

	assert.NoError(t, svc.Delete(11, 3))
	messages.AssertExpectations(t)
}

func TestFetchBefore_HasMore(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanRead", uint64(7), uint64(3)).Return(true, nil)
	page := make([]modelChat.Message, 30)
	messages.On("RangeBefore", uint64(7), uint64(100), 30).Return(page, nil)

	_, hasMore, err := svc.FetchBefore(7, 3, 100, 30)

	assert.NoError(t, err)
	assert.True(t, hasMore)
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	messages := new(MockMessageRepo)
	projects := new(MockProjectRepo)
	gate := new(MockGate)
	svc := newTestMessageService(messages, projects, gate)

	gate.On("CanRead", uint64(7), uint64(3)).Return(true, nil)

	_, err := svc.Search(7, 3, "", 50)

	assertAppCode(t, err, apperrors.CodeValidationFailed)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	messages := new(MockMessageRepo)
	limiter := NewRateLimiter(messages, testChatConfig())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	// 9 recent messages: still allowed.
	messages.On("CountTextSince", uint64(3), base.Add(-60*time.Second)).Return(int64(9), nil).Once()
	ok, err := limiter.Allow(3)
	assert.NoError(t, err)
	assert.True(t, ok)

	// 10 recent messages: denied.
	messages.On("CountTextSince", uint64(3), base.Add(-60*time.Second)).Return(int64(10), nil).Once()
	ok, err = limiter.Allow(3)
	assert.NoError(t, err)
	assert.False(t, ok)

	// A minute later the burst has aged out of the window.
	limiter.now = func() time.Time { return base.Add(61 * time.Second) }
	messages.On("CountTextSince", uint64(3), base.Add(1*time.Second)).Return(int64(0), nil).Once()
	ok, err = limiter.Allow(3)
	assert.NoError(t, err)
	assert.True(t, ok)
}
