package chat

import (
	"errors"
	"time"

	"projchat_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FileActivityRepository struct {
	DB *gorm.DB
}

func NewFileActivityRepository(db *gorm.DB) *FileActivityRepository {
	return &FileActivityRepository{DB: db}
}

// Create records an inbound file event.
func (r *FileActivityRepository) Create(ev *chat.FileActivity) error {
	return r.DB.Create(ev).Error
}

// CountRecentSame counts earlier identical (file, user, action) events
// after the given instant, excluding the event itself. Used for the
// see/download deduplication window.
func (r *FileActivityRepository) CountRecentSame(fileID, userID uint64, action string, since time.Time, beforeID uint64) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.FileActivity{}).
		Where("file_id = ? AND user_id = ? AND action = ? AND id < ? AND created_at > ?",
			fileID, userID, action, beforeID, since).
		Count(&count).Error
	return count, err
}

// ListAfter returns activities for a project past the cursor, ascending.
func (r *FileActivityRepository) ListAfter(projectID, afterID uint64, limit int) ([]chat.FileActivity, error) {
	var evs []chat.FileActivity
	err := r.DB.
		Where("project_id = ? AND id > ?", projectID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&evs).Error
	return evs, err
}

// ProjectsWithPending lists projects whose activity log has advanced
// past their digest cursor.
func (r *FileActivityRepository) ProjectsWithPending() ([]uint64, error) {
	var ids []uint64
	err := r.DB.Raw(`
		SELECT DISTINCT fa.project_id FROM chat_file_activities fa
		LEFT JOIN chat_auto_message_cursors c ON c.project_id = fa.project_id
		WHERE fa.id > COALESCE(c.last_activity_id, 0)
	`).Scan(&ids).Error
	return ids, err
}

// GetCursor returns the project's digest cursor, zero when unset.
func (r *FileActivityRepository) GetCursor(projectID uint64) (uint64, error) {
	var cursor chat.AutoMessageCursor
	err := r.DB.Where("project_id = ?", projectID).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cursor.LastActivityID, nil
}

// SaveCursor upserts the project's digest cursor.
func (r *FileActivityRepository) SaveCursor(projectID, lastActivityID uint64) error {
	cursor := chat.AutoMessageCursor{
		ProjectID:      projectID,
		LastActivityID: lastActivityID,
		UpdatedAt:      time.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_activity_id", "updated_at"}),
	}).Create(&cursor).Error
}
