package workers

import (
	"context"
	"time"

	"projchat_backend/internal/config"
	"projchat_backend/internal/logger"
	chatService "projchat_backend/internal/services/chat"
)

// ChatWorker runs the chat housekeeping loops: sweeping stale typing
// state and, in digest mode, flushing buffered file activity.
type ChatWorker struct {
	typing *chatService.TypingService
	auto   *chatService.AutoMessageService

	sweepEvery time.Duration
	flushEvery time.Duration
	digestMode bool
}

func NewChatWorker(typing *chatService.TypingService, auto *chatService.AutoMessageService, cfg config.ChatConfig) *ChatWorker {
	return &ChatWorker{
		typing:     typing,
		auto:       auto,
		sweepEvery: cfg.TypingSweepAge,
		flushEvery: cfg.DigestInterval,
		digestMode: cfg.AutoMessageMode == config.AutoMessageDigest,
	}
}

// Start launches the background loops.
func (w *ChatWorker) Start(ctx context.Context) {
	go w.sweepTyping(ctx)
	if w.digestMode {
		go w.flushDigests(ctx)
	}
}

func (w *ChatWorker) sweepTyping(ctx context.Context) {
	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("typing sweep worker stopped")
			return
		case <-ticker.C:
			if removed := w.typing.Sweep(); removed > 0 {
				logger.Debug("swept stale typing entries", "removed", removed)
			}
		}
	}
}

func (w *ChatWorker) flushDigests(ctx context.Context) {
	ticker := time.NewTicker(w.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("digest flush worker stopped")
			return
		case <-ticker.C:
			logger.WorkerLog("chat", "flush_digests", w.auto.FlushDigests())
		}
	}
}
