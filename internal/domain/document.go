package domain

import "time"

// Document represents document metadata in the primary store.
// Content is never stored here; the staging synchronizer encodes the file
// bytes into the secondary store per batch. Documents are immutable once
// created.
type Document struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	Filename   string    `gorm:"type:text;not null;index:idx_documents_file,unique" json:"filename"`
	Filepath   string    `gorm:"type:text;not null;index:idx_documents_file,unique" json:"filepath"`
	FolderID   string    `gorm:"type:text;index:idx_documents_folder" json:"folder_id,omitempty"`
	StorageKey string    `gorm:"type:text" json:"storage_key,omitempty"`
	FileSize   int64     `json:"file_size"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string {
	return "documents"
}
