package repositories

import (
	"errors"
	"time"

	"projchat_backend/internal/models"

	"gorm.io/gorm"
)

type ProjectRepository struct {
	DB *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

// GetByID returns the project, or (nil, nil) when absent.
func (r *ProjectRepository) GetByID(id uint64) (*models.Project, error) {
	var project models.Project
	err := r.DB.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// TouchActivity bumps the project's last-activity timestamp. Used by
// "recently active" listings elsewhere in the product.
func (r *ProjectRepository) TouchActivity(projectID uint64, at time.Time) error {
	return r.DB.Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("last_activity_at", at).Error
}

// MemberPermission returns the user's permission level in the project,
// or "" when the user is not a member.
func (r *ProjectRepository) MemberPermission(projectID, userID uint64) (string, error) {
	var member models.ProjectMember
	err := r.DB.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Permission, nil
}

// MemberCount returns how many users belong to the project.
func (r *ProjectRepository) MemberCount(projectID uint64) (int64, error) {
	var count int64
	err := r.DB.Model(&models.ProjectMember{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}
