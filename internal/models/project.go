package models

import "time"

// Permission levels mirror the surrounding project-management product.
const (
	PermissionOwner  = "owner"
	PermissionUpload = "upload"
	PermissionView   = "view"
)

type Project struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	OwnerID        uint64    `gorm:"index;not null" json:"owner_id"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectMember links a user to a project with a permission level.
type ProjectMember struct {
	ProjectID  uint64    `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	UserID     uint64    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Permission string    `gorm:"not null;default:'view'" json:"permission"`
	JoinedAt   time.Time `json:"joined_at"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
