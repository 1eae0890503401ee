package repositories

import (
	"errors"

	"projchat_backend/internal/models"

	"gorm.io/gorm"
)

type FileRepository struct {
	DB *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{DB: db}
}

// GetByID resolves file metadata, or (nil, nil) when the file is gone.
// A concurrent hard delete on the file side is normal, not an error.
func (r *FileRepository) GetByID(id uint64) (*models.ProjectFile, error) {
	var file models.ProjectFile
	err := r.DB.First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}
