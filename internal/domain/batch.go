package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// BatchStatus represents the lifecycle state of a batch.
// Transitions: draft -> staging -> staged | failed_staging; failed_staging
// is re-enterable via another staging attempt; any state except staging can
// move to archived.
type BatchStatus string

const (
	BatchStatusDraft         BatchStatus = "draft"
	BatchStatusStaging       BatchStatus = "staging"
	BatchStatusStaged        BatchStatus = "staged"
	BatchStatusFailedStaging BatchStatus = "failed_staging"
	BatchStatusArchived      BatchStatus = "archived"
)

// BatchConfig is the configuration snapshot captured when a batch is created.
// The ID lists are copied, not referenced live, so later edits to folders,
// connections, or prompts cannot retroactively change an in-flight batch.
type BatchConfig struct {
	FolderIDs     []string `json:"folder_ids"`
	ConnectionIDs []string `json:"connection_ids"`
	PromptIDs     []string `json:"prompt_ids"`
}

// Value implements the driver.Valuer interface for database serialization.
func (c BatchConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (c *BatchConfig) Scan(value interface{}) error {
	if value == nil {
		*c = BatchConfig{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan BatchConfig")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, c)
}

// Batch represents a named selection of folders, prompts, and connections
// staged together for analysis. Owned by the primary store exclusively.
type Batch struct {
	ID            string      `gorm:"type:text;primaryKey" json:"id"`
	Name          string      `gorm:"type:text;not null" json:"name"`
	Config        BatchConfig `gorm:"type:text" json:"config"`
	Status        BatchStatus `gorm:"type:text;index:idx_batches_status;default:draft" json:"status"`
	DocumentCount int         `gorm:"default:0" json:"document_count"`
	LastError     string      `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Batch.
func (Batch) TableName() string {
	return "batches"
}

// Stageable reports whether a staging attempt may start from this status.
func (s BatchStatus) Stageable() bool {
	return s == BatchStatusDraft || s == BatchStatusFailedStaging || s == BatchStatusStaged
}

// Terminal reports whether the batch accepts no further staging work.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusArchived
}
