package handlers

import (
	"net/http"
	"time"

	"projchat_backend/internal/config"
	"projchat_backend/internal/dto"
	chatService "projchat_backend/internal/services/chat"
	"projchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// HeartbeatHandler serves the combined periodic poll: one request
// returns new messages, typing state, counters, and a pacing hint so
// idle clients slow down.
type HeartbeatHandler struct {
	*BaseHandler
	delta *chatService.DeltaService
	seen  *chatService.SeenService

	fetchLimit int
	fastPoll   time.Duration
	slowPoll   time.Duration
}

func NewHeartbeatHandler(base *BaseHandler, delta *chatService.DeltaService, seen *chatService.SeenService, cfg config.ChatConfig) *HeartbeatHandler {
	return &HeartbeatHandler{
		BaseHandler: base,
		delta:       delta,
		seen:        seen,
		fetchLimit:  cfg.FetchLimit,
		fastPoll:    cfg.HeartbeatFast,
		slowPoll:    cfg.HeartbeatSlow,
	}
}

func (h *HeartbeatHandler) Heartbeat(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.HeartbeatInput
	if !h.BindJSON(c, &req) {
		return
	}

	delta, err := h.delta.Since(req.ProjectID, userID, req.LastMessageID, h.fetchLimit)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	resp := dto.HeartbeatResponse{
		Messages:    delta.Messages,
		Typing:      delta.Typing,
		UnreadCount: delta.UnreadCount,
		Timestamp:   delta.Timestamp.UTC().Format(time.RFC3339),
		NextPollSec: h.suggestInterval(req.ChatOpen),
	}

	if req.WantBadge {
		badge, err := h.seen.BadgeCount(userID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		resp.BadgeCount = &badge
	}

	c.JSON(http.StatusOK, resp)
}

// suggestInterval paces the client: fast while the chat panel is
// open, slow when it is only watching the badge.
func (h *HeartbeatHandler) suggestInterval(chatOpen bool) int {
	if chatOpen {
		return int(h.fastPoll.Seconds())
	}
	return int(h.slowPoll.Seconds())
}
