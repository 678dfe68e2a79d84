package model

import (
	"time"

	"github.com/google/uuid"
)

// Report flags a post or comment id for review. There is no moderation
// workflow behind it yet; rows are kept for manual inspection.
type Report struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	TargetID   string    `gorm:"size:64;not null;index" json:"target_id"`
	Reason     string    `gorm:"size:255" json:"reason"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
