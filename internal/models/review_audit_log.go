package models

import (
	"time"

	"github.com/google/uuid"
)

type ReviewAuditLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecordID       uuid.UUID `gorm:"index"`
	Action         string
	PreviousTarget *uuid.UUID
	NewTarget      *uuid.UUID
	PerformedBy    string
	Reason         string
	CreatedAt      time.Time
}
