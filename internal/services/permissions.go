package services

import (
	"projchat_backend/internal/models"
	repoChat "projchat_backend/internal/repositories/chat"

	"projchat_backend/internal/repositories"
)

// PermissionGate answers capability questions for the chat engine.
// Callers depend only on this interface, never on whatever system
// actually stores memberships.
type PermissionGate interface {
	CanRead(projectID, userID uint64) (bool, error)
	CanSend(projectID, userID uint64) (bool, error)
	CanEdit(messageID, userID uint64) (bool, error)
	CanDelete(messageID, userID uint64) (bool, error)
}

// ProjectPermissionGate implements PermissionGate over the product's
// project-membership table.
type ProjectPermissionGate struct {
	Projects *repositories.ProjectRepository
	Messages *repoChat.MessageRepository
}

func NewProjectPermissionGate(projects *repositories.ProjectRepository, messages *repoChat.MessageRepository) *ProjectPermissionGate {
	return &ProjectPermissionGate{Projects: projects, Messages: messages}
}

// CanRead: any member may read the project chat.
func (g *ProjectPermissionGate) CanRead(projectID, userID uint64) (bool, error) {
	perm, err := g.Projects.MemberPermission(projectID, userID)
	if err != nil {
		return false, err
	}
	return perm != "", nil
}

// CanSend: view-level members are read-only.
func (g *ProjectPermissionGate) CanSend(projectID, userID uint64) (bool, error) {
	perm, err := g.Projects.MemberPermission(projectID, userID)
	if err != nil {
		return false, err
	}
	return perm == models.PermissionOwner || perm == models.PermissionUpload, nil
}

// CanEdit: only the original sender of a text message. The edit time
// window is enforced by the message service, not here, so the caller
// can tell a permission failure from an expired window.
func (g *ProjectPermissionGate) CanEdit(messageID, userID uint64) (bool, error) {
	return g.ownsTextMessage(messageID, userID)
}

// CanDelete follows the same ownership rule as CanEdit.
func (g *ProjectPermissionGate) CanDelete(messageID, userID uint64) (bool, error) {
	return g.ownsTextMessage(messageID, userID)
}

func (g *ProjectPermissionGate) ownsTextMessage(messageID, userID uint64) (bool, error) {
	msg, err := g.Messages.GetByID(messageID)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, nil
	}
	if !msg.Editable() {
		// system, file_activity and digest messages are immutable
		return false, nil
	}
	return msg.SenderID != nil && *msg.SenderID == userID, nil
}
