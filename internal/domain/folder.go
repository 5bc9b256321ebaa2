package domain

import "time"

// Folder represents a registered document directory.
// Folders are created on first scan and never auto-deleted; deactivation
// excludes them from future scans while preserving history.
type Folder struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Path      string    `gorm:"type:text;not null;uniqueIndex:idx_folders_path" json:"path"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Folder.
func (Folder) TableName() string {
	return "folders"
}
