package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusSucceeded BatchStatus = "succeeded"
	BatchStatusFailed    BatchStatus = "failed"
)

// Batch is the persisted history of one batch run.
type Batch struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Status     BatchStatus `gorm:"type:varchar(20);not null;default:running" json:"status"`
	Total      int         `gorm:"not null" json:"total"`
	Failed     int         `gorm:"not null;default:0" json:"failed"`
	CreatedAt  time.Time   `json:"createdAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
	Items      []BatchItem `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"items"`
}

// BatchItem is the outcome of one request of a batch.
type BatchItem struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	BatchID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_batch_item_position" json:"batchId"`
	Position     int       `gorm:"not null;uniqueIndex:idx_batch_item_position" json:"index"`
	TemplateName string    `gorm:"not null" json:"templateName"`
	OutputName   string    `gorm:"not null" json:"outputName"`
	OutputPath   string    `json:"outputPath,omitempty"`
	Worker       string    `json:"worker"`
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`
	ErrorKind    string    `json:"errorKind,omitempty"`
	Error        string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
