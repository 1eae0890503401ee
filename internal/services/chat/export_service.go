package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"projchat_backend/internal/mentions"
	"projchat_backend/internal/models"
	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/pkg/apperrors"
)

const (
	ExportFormatText = "txt"
	ExportFormatJSON = "json"
)

// Export is a rendered transcript ready to stream as a download.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders full project transcripts. Only the project
// owner may export; deleted messages are excluded by the store query.
type ExportService struct {
	Messages MessageRepo
	Projects ProjectRepo
	Users    UserDirectory

	now func() time.Time
}

func NewExportService(messages MessageRepo, projects ProjectRepo, users UserDirectory) *ExportService {
	return &ExportService{
		Messages: messages,
		Projects: projects,
		Users:    users,
		now:      time.Now,
	}
}

func (s *ExportService) Export(projectID, requesterID uint64, format string) (*Export, error) {
	if format != ExportFormatText && format != ExportFormatJSON {
		return nil, apperrors.ValidationError("Unsupported export format")
	}

	project, err := s.Projects.GetByID(projectID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	if project == nil {
		return nil, apperrors.NotFoundError("Project not found")
	}
	if project.OwnerID != requesterID {
		return nil, apperrors.ForbiddenError("Only the project owner can export the chat")
	}

	messages, err := s.Messages.AllByProject(projectID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	senderIDs := make([]uint64, 0, len(messages))
	seen := make(map[uint64]bool, len(messages))
	for _, m := range messages {
		if m.SenderID != nil && !seen[*m.SenderID] {
			seen[*m.SenderID] = true
			senderIDs = append(senderIDs, *m.SenderID)
		}
	}
	users, err := s.Users.GetByIDs(senderIDs)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	date := s.now().Format("2006-01-02")
	switch format {
	case ExportFormatJSON:
		body, err := s.renderJSON(messages, users)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    fmt.Sprintf("chat-%d-%s.json", projectID, date),
			ContentType: "application/json",
			Body:        body,
		}, nil
	default:
		return &Export{
			Filename:    fmt.Sprintf("chat-%d-%s.txt", projectID, date),
			ContentType: "text/plain; charset=utf-8",
			Body:        s.renderText(messages, users),
		}, nil
	}
}

type exportLine struct {
	ID         uint64                 `json:"id"`
	SenderID   *uint64                `json:"sender_id"`
	SenderName string                 `json:"sender_name"`
	Kind       string                 `json:"kind"`
	Body       string                 `json:"body"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	EditedAt   *time.Time             `json:"edited_at,omitempty"`
}

func (s *ExportService) renderJSON(messages []modelChat.Message, users map[uint64]models.User) ([]byte, error) {
	lines := make([]exportLine, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, exportLine{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderName: senderName(m.SenderID, users),
			Kind:       m.Kind,
			Body:       m.Body,
			Metadata:   map[string]interface{}(m.Metadata),
			CreatedAt:  m.CreatedAt,
			EditedAt:   m.EditedAt,
		})
	}
	body, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return body, nil
}

func (s *ExportService) renderText(messages []modelChat.Message, users map[uint64]models.User) []byte {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(fmt.Sprintf("[%s] %s: %s",
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			senderName(m.SenderID, users),
			mentions.Strip(m.Body)))
		if m.EditedAt != nil {
			b.WriteString(" (edited)")
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func senderName(senderID *uint64, users map[uint64]models.User) string {
	if senderID == nil {
		return "System"
	}
	if u, ok := users[*senderID]; ok {
		return u.DisplayName
	}
	return fmt.Sprintf("user %d", *senderID)
}
