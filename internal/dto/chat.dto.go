package dto

// SendMessageInput is the body for posting a new chat message.
type SendMessageInput struct {
	ProjectID uint64 `json:"project_id" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

// EditMessageInput is the body for replacing a message's text.
type EditMessageInput struct {
	Body string `json:"body" validate:"required"`
}

// MarkSeenInput acknowledges a batch of message IDs.
type MarkSeenInput struct {
	MessageIDs []uint64 `json:"message_ids" validate:"required,min=1"`
}

// TypingInput signals that the caller is (or stopped) typing.
type TypingInput struct {
	ProjectID uint64 `json:"project_id" validate:"required"`
	Stopped   bool   `json:"stopped"`
}

// FileActivityInput reports a file event for the activity feed.
type FileActivityInput struct {
	ProjectID uint64 `json:"project_id" validate:"required"`
	FileID    uint64 `json:"file_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=upload replace delete download see"`
}

// HeartbeatInput is the combined poll a client sends on its interval.
type HeartbeatInput struct {
	ProjectID     uint64 `json:"project_id" validate:"required"`
	LastMessageID uint64 `json:"last_message_id"`
	ChatOpen      bool   `json:"chat_open"`
	WantBadge     bool   `json:"want_badge"`
}

// HeartbeatResponse bundles the delta with the server's pacing hint.
type HeartbeatResponse struct {
	Messages    interface{} `json:"messages"`
	Typing      interface{} `json:"typing"`
	UnreadCount int64       `json:"unread_count"`
	BadgeCount  *int64      `json:"badge_count,omitempty"`
	Timestamp   string      `json:"timestamp"`
	NextPollSec int         `json:"next_poll_sec"`
}
