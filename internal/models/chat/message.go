package chat

import (
	"time"

	"gorm.io/datatypes"
)

// Message kinds. System-authored kinds are never editable or deletable.
const (
	KindText         = "text"
	KindSystem       = "system"
	KindFileActivity = "file_activity"
	KindSystemDigest = "system_digest"
)

// Metadata keys used across the chat engine.
const (
	MetaOriginal = "original" // pre-edit body, written on first edit only
	MetaAction   = "action"
	MetaFileID   = "file_id"
	MetaFileName = "file_name"
	MetaFileSize = "file_size"
	MetaActions  = "actions" // digest sub-action list
	MetaSummary  = "summary" // digest per-action counts
)

// Message is one chat message. IDs come from a single auto-increment
// sequence, so they are strictly increasing within every project and
// clients can paginate purely by id.
type Message struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID uint64            `gorm:"index:idx_messages_project_id,priority:1;not null" json:"project_id"`
	SenderID  *uint64           `gorm:"index" json:"sender_id"` // nil means system-authored
	Kind      string            `gorm:"not null;default:'text'" json:"kind"`
	Body      string            `gorm:"type:text;not null" json:"body"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	EditedAt  *time.Time        `json:"edited_at,omitempty"`
	DeletedAt *time.Time        `gorm:"index" json:"-"` // soft delete marker
}

func (Message) TableName() string {
	return "chat_messages"
}

// Editable reports whether the kind admits user edits at all.
// The time window and ownership are checked separately.
func (m *Message) Editable() bool {
	return m.Kind == KindText
}

// SystemAuthored reports whether the message came from the engine
// rather than a user keystroke.
func (m *Message) SystemAuthored() bool {
	return m.Kind == KindSystem || m.Kind == KindSystemDigest
}
