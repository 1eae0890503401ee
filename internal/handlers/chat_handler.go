package handlers

import (
	"net/http"
	"time"

	"projchat_backend/internal/dto"
	"projchat_backend/internal/models/chat"
	"projchat_backend/internal/notifications"
	chatService "projchat_backend/internal/services/chat"
	"projchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	*BaseHandler
	messages *chatService.MessageService
	seen     *chatService.SeenService
	typing   *chatService.TypingService
	delta    *chatService.DeltaService
	auto     *chatService.AutoMessageService
	export   *chatService.ExportService
	notifier *notifications.MentionNotifier

	fetchLimit   int
	earlierLimit int
}

func NewChatHandler(
	base *BaseHandler,
	messages *chatService.MessageService,
	seen *chatService.SeenService,
	typing *chatService.TypingService,
	delta *chatService.DeltaService,
	auto *chatService.AutoMessageService,
	export *chatService.ExportService,
	notifier *notifications.MentionNotifier,
	fetchLimit, earlierLimit int,
) *ChatHandler {
	return &ChatHandler{
		BaseHandler:  base,
		messages:     messages,
		seen:         seen,
		typing:       typing,
		delta:        delta,
		auto:         auto,
		export:       export,
		notifier:     notifier,
		fetchLimit:   fetchLimit,
		earlierLimit: earlierLimit,
	}
}

// requireMember enforces the permission gate for project-scoped actions
// and renders the error itself. Returns false when the caller must stop.
func (h *ChatHandler) requireMember(c *gin.Context, projectID, userID uint64) bool {
	allowed, err := h.delta.Gate.CanRead(projectID, userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return false
	}
	if !allowed {
		apperrors.HandleError(c, apperrors.ForbiddenError("You are not a member of this project"))
		return false
	}
	return true
}

// SendMessage posts a new text message to a project's chat.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.SendMessageInput
	if !h.BindJSON(c, &req) {
		return
	}

	msg, err := h.messages.Send(req.ProjectID, userID, req.Body)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	h.typing.Clear(req.ProjectID, userID)
	go h.notifier.Notify(msg)

	views, err := h.delta.Enrich([]chat.Message{*msg})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": views[0]})
}

// FetchMessages returns everything after the caller's watermark plus
// typing state and the unread counter. The poll transport.
func (h *ChatHandler) FetchMessages(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}
	lastSeen := h.UintQuery(c, "after", 0)

	delta, err := h.delta.Since(projectID, userID, lastSeen, h.fetchLimit)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, delta)
}

// FetchEarlier pages backwards through history from a message ID.
func (h *ChatHandler) FetchEarlier(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}
	beforeID := h.UintQuery(c, "before", 0)

	messages, hasMore, err := h.messages.FetchBefore(projectID, userID, beforeID, h.earlierLimit)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	views, err := h.delta.Enrich(messages)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views, "has_more": hasMore})
}

// EditMessage replaces a message's text within the edit window.
func (h *ChatHandler) EditMessage(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := h.UintParam(c, "messageId")
	if !ok {
		return
	}

	var req dto.EditMessageInput
	if !h.BindJSON(c, &req) {
		return
	}

	msg, err := h.messages.Edit(messageID, userID, req.Body)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	views, err := h.delta.Enrich([]chat.Message{*msg})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": views[0]})
}

// DeleteMessage soft-deletes the caller's own message.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := h.UintParam(c, "messageId")
	if !ok {
		return
	}

	if err := h.messages.Delete(messageID, userID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// MarkSeen acknowledges a batch of message IDs for the caller.
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.MarkSeenInput
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.seen.MarkRead(req.MessageIDs, userID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MarkAllSeen acknowledges every unread message in a project.
func (h *ChatHandler) MarkAllSeen(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}

	if !h.requireMember(c, projectID, userID) {
		return
	}

	if err := h.seen.BulkMarkRead(projectID, userID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SeenBy lists who has read a message, oldest first.
func (h *ChatHandler) SeenBy(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := h.UintParam(c, "messageId")
	if !ok {
		return
	}

	msg, err := h.messages.Get(messageID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if !h.requireMember(c, msg.ProjectID, userID) {
		return
	}

	entries, err := h.seen.SeenBy(messageID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	all, err := h.seen.SeenByAll(messageID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seen_by": entries, "seen_by_all": all})
}

// UnreadCount returns the caller's unread count for one project.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}

	if !h.requireMember(c, projectID, userID) {
		return
	}

	count, err := h.seen.UnreadCount(projectID, userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// BadgeCount returns the caller's total unread across all projects.
func (h *ChatHandler) BadgeCount(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	count, err := h.seen.BadgeCount(userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badge_count": count})
}

// Typing records or clears the caller's typing state.
func (h *ChatHandler) Typing(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.TypingInput
	if !h.BindJSON(c, &req) {
		return
	}

	if !h.requireMember(c, req.ProjectID, userID) {
		return
	}

	if req.Stopped {
		h.typing.Clear(req.ProjectID, userID)
	} else {
		h.typing.Touch(req.ProjectID, userID)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SearchMessages finds messages by substring within a project.
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}
	query := c.Query("q")

	messages, err := h.messages.Search(projectID, userID, query, h.fetchLimit)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	views, err := h.delta.Enrich(messages)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// ExportChat streams the full transcript as a download. Owner only.
func (h *ChatHandler) ExportChat(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", chatService.ExportFormatText)

	result, err := h.export.Export(projectID, userID, format)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

// ReportFileActivity records a file event for the auto-message feed.
func (h *ChatHandler) ReportFileActivity(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.FileActivityInput
	if !h.BindJSON(c, &req) {
		return
	}

	if !h.requireMember(c, req.ProjectID, userID) {
		return
	}

	ev := &chat.FileActivity{
		ProjectID: req.ProjectID,
		FileID:    req.FileID,
		UserID:    userID,
		Action:    req.Action,
		CreatedAt: time.Now(),
	}
	if err := h.auto.HandleEvent(ev); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
