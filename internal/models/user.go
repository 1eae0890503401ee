package models

// User is the directory row the chat enriches messages and receipts with.
// Accounts themselves are owned by the surrounding product.
type User struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

func (User) TableName() string {
	return "users"
}
