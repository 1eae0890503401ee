package models

import "time"

// ProjectFile backs the file-metadata lookup the auto-message generator
// resolves file names and sizes through. Upload and storage live elsewhere.
type ProjectFile struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	ProjectID  uint64    `gorm:"index;not null" json:"project_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (ProjectFile) TableName() string {
	return "project_files"
}
