package handlers

import (
	"net/http"
	"time"

	"projchat_backend/internal/config"
	"projchat_backend/internal/logger"
	chatService "projchat_backend/internal/services/chat"
	"projchat_backend/pkg/apperrors"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// SSEHandler streams chat deltas over server-sent events. Each stream
// lives at most pushDuration, ticking the shared delta query every
// pushTick; the client reconnects when the stream ends. A counting
// semaphore caps concurrent streams.
type SSEHandler struct {
	*BaseHandler
	delta *chatService.DeltaService

	pushDuration time.Duration
	pushTick     time.Duration
	keepalive    time.Duration
	fetchLimit   int
	slots        chan struct{}
}

func NewSSEHandler(base *BaseHandler, delta *chatService.DeltaService, cfg config.ChatConfig) *SSEHandler {
	return &SSEHandler{
		BaseHandler:  base,
		delta:        delta,
		pushDuration: cfg.PushDuration,
		pushTick:     cfg.PushTick,
		keepalive:    cfg.PushKeepalive,
		fetchLimit:   cfg.FetchLimit,
		slots:        make(chan struct{}, cfg.MaxPushConns),
	}
}

// Stream opens the event stream for one project.
func (h *SSEHandler) Stream(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	projectID, ok := h.UintParam(c, "projectId")
	if !ok {
		return
	}
	watermark := h.UintQuery(c, "after", 0)

	// Gate before occupying a slot.
	allowed, err := h.delta.Gate.CanRead(projectID, userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if !allowed {
		apperrors.HandleError(c, apperrors.ForbiddenError("You are not a member of this project"))
		return
	}

	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	default:
		c.Header("Retry-After", "5")
		apperrors.HandleError(c, apperrors.New(apperrors.CodeStoreUnavailable, "push",
			"Too many open streams, fall back to polling", http.StatusServiceUnavailable))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		apperrors.HandleError(c, apperrors.New(apperrors.CodeInternalError, "push",
			"Streaming unsupported by connection", http.StatusInternalServerError))
		return
	}

	deadline := time.NewTimer(h.pushDuration)
	defer deadline.Stop()
	tick := time.NewTicker(h.pushTick)
	defer tick.Stop()
	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			// Stream ceiling reached; tell the client to reconnect.
			sse.Encode(c.Writer, sse.Event{Event: "reconnect", Data: "stream expired"})
			flusher.Flush()
			return
		case <-keepalive.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-tick.C:
			delta, err := h.delta.Since(projectID, userID, watermark, h.fetchLimit)
			if err != nil {
				logger.Warn("sse delta failed", "project_id", projectID, "error", err)
				return
			}

			for _, msg := range delta.Messages {
				if err := sse.Encode(c.Writer, sse.Event{Event: "new_message", Data: msg}); err != nil {
					return
				}
				if msg.ID > watermark {
					watermark = msg.ID
				}
			}
			if len(delta.Typing) > 0 {
				if err := sse.Encode(c.Writer, sse.Event{Event: "user_typing", Data: delta.Typing}); err != nil {
					return
				}
			}
			if len(delta.Messages) > 0 || len(delta.Typing) > 0 {
				flusher.Flush()
			}
		}
	}
}
