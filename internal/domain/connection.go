package domain

import "time"

// ProviderType identifies the kind of LLM provider behind a connection.
type ProviderType string

const (
	ProviderTypeOllama ProviderType = "ollama"
	ProviderTypeOpenAI ProviderType = "openai"
	ProviderTypeCustom ProviderType = "custom"
)

// Connection represents an LLM provider configuration.
// Deactivating a connection excludes it from future work-matrix computation
// without deleting the history of responses it produced.
type Connection struct {
	ID           string       `gorm:"type:text;primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null;uniqueIndex:idx_connections_name" json:"name"`
	BaseURL      string       `gorm:"type:text;not null" json:"base_url"`
	ModelName    string       `gorm:"type:text;not null" json:"model_name"`
	APIKey       string       `gorm:"type:text" json:"api_key,omitempty"`
	ProviderType ProviderType `gorm:"type:text;default:custom" json:"provider_type"`
	Port         int          `json:"port,omitempty"`
	IsActive     bool         `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Connection.
func (Connection) TableName() string {
	return "connections"
}
