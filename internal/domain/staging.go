package domain

import "time"

// ResponseStatus represents the processing status of a response record.
// The orchestrator only ever writes ResponseStatusQueued; the external
// processing service owns every later transition.
type ResponseStatus string

const (
	ResponseStatusQueued     ResponseStatus = "queued"
	ResponseStatusProcessing ResponseStatus = "processing"
	ResponseStatusSuccess    ResponseStatus = "success"
	ResponseStatusFailure    ResponseStatus = "failure"
)

// IsTerminal reports whether a response needs no further processing.
func (s ResponseStatus) IsTerminal() bool {
	return s == ResponseStatusSuccess || s == ResponseStatusFailure
}

// StagedDocument holds a batch's copy of a document's content in the
// secondary store, encoded as a text-safe blob. One row per document per
// batch, keyed by the natural key (batch_id, document_id) since no foreign
// key can span the two stores.
type StagedDocument struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	BatchID        string    `gorm:"type:text;not null;index:idx_docs_batch_document,unique" json:"batch_id"`
	DocumentID     string    `gorm:"type:text;not null;index:idx_docs_batch_document,unique" json:"document_id"`
	Filename       string    `gorm:"type:text;not null" json:"filename"`
	ContentEncoded string    `gorm:"type:text" json:"content_encoded"`
	ContentHash    string    `gorm:"type:text" json:"content_hash"`
	ContentLength  int64     `json:"content_length"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the secondary-store table name for StagedDocument.
func (StagedDocument) TableName() string {
	return "docs"
}

// ResponseRecord is a unit of queued analysis work in the secondary store:
// one per (staged document, prompt, connection) triple. Created with status
// queued during staging; every other field mutation belongs to the external
// processing service.
type ResponseRecord struct {
	ID           string         `gorm:"type:text;primaryKey" json:"id"`
	DocID        string         `gorm:"type:text;not null;index:idx_llm_responses_unit,unique" json:"doc_id"`
	PromptID     string         `gorm:"type:text;not null;index:idx_llm_responses_unit,unique" json:"prompt_id"`
	ConnectionID string         `gorm:"type:text;not null;index:idx_llm_responses_unit,unique" json:"connection_id"`
	BatchID      string         `gorm:"type:text;not null;index:idx_llm_responses_batch" json:"batch_id"`
	TaskID       string         `gorm:"type:text" json:"task_id,omitempty"`
	Status       ResponseStatus `gorm:"type:text;index:idx_llm_responses_status;default:queued" json:"status"`
	ResponseText string         `gorm:"type:text" json:"response_text,omitempty"`
	Score        float64        `json:"score,omitempty"`
	ErrorText    string         `gorm:"type:text" json:"error_text,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	DurationMs   int64          `json:"duration_ms,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName returns the secondary-store table name for ResponseRecord.
func (ResponseRecord) TableName() string {
	return "llm_responses"
}
