package notifications

import (
	"fmt"
	"html"

	"projchat_backend/internal/logger"
	"projchat_backend/internal/mentions"
	"projchat_backend/internal/models"
	modelChat "projchat_backend/internal/models/chat"
)

// Sender is satisfied by EmailSender; tests substitute a recorder.
type Sender interface {
	Send(to, subject, body string) error
}

type UserDirectory interface {
	GetByID(id uint64) (*models.User, error)
	GetByIDs(ids []uint64) (map[uint64]models.User, error)
}

type ProjectLookup interface {
	GetByID(id uint64) (*models.Project, error)
}

// MentionNotifier emails every user mentioned in a message. Delivery
// is best effort: a failed send is logged and never bubbles up into
// the message path.
type MentionNotifier struct {
	Sender   Sender
	Users    UserDirectory
	Projects ProjectLookup
	enabled  bool
}

func NewMentionNotifier(sender Sender, users UserDirectory, projects ProjectLookup, enabled bool) *MentionNotifier {
	return &MentionNotifier{
		Sender:   sender,
		Users:    users,
		Projects: projects,
		enabled:  enabled,
	}
}

// Notify scans the message body for mention tokens and emails each
// mentioned user except the sender.
func (n *MentionNotifier) Notify(msg *modelChat.Message) {
	if !n.enabled || msg == nil {
		return
	}

	mentioned := mentions.ExtractUsers(msg.Body)
	if len(mentioned) == 0 {
		return
	}

	ids := make([]uint64, 0, len(mentioned))
	for _, id := range mentioned {
		if msg.SenderID != nil && id == *msg.SenderID {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	users, err := n.Users.GetByIDs(ids)
	if err != nil {
		logger.Warn("mention lookup failed", "message_id", msg.ID, "error", err)
		return
	}

	senderName := "Someone"
	if msg.SenderID != nil {
		if sender, err := n.Users.GetByID(*msg.SenderID); err == nil && sender != nil {
			senderName = sender.DisplayName
		}
	}

	projectName := fmt.Sprintf("project %d", msg.ProjectID)
	if project, err := n.Projects.GetByID(msg.ProjectID); err == nil && project != nil {
		projectName = project.Name
	}

	subject := fmt.Sprintf("%s mentioned you in %s", senderName, projectName)
	body := fmt.Sprintf(
		"<p><strong>%s</strong> mentioned you in <strong>%s</strong>:</p><blockquote>%s</blockquote>",
		html.EscapeString(senderName),
		html.EscapeString(projectName),
		html.EscapeString(mentions.Strip(msg.Body)),
	)

	for _, id := range ids {
		user, ok := users[id]
		if !ok || user.Email == "" {
			continue
		}
		if err := n.Sender.Send(user.Email, subject, body); err != nil {
			logger.Warn("mention email failed", "user_id", id, "error", err)
		}
	}
}
