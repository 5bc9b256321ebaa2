package domain

import "time"

// Prompt represents an analysis prompt applied to documents.
type Prompt struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Prompt.
func (Prompt) TableName() string {
	return "prompts"
}
