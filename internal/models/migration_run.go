package models

import (
	"time"

	"github.com/google/uuid"
)

type MigrationRun struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID        uuid.UUID `gorm:"index"`
	EntityType       string    `gorm:"index"`
	TotalRecords     int
	ProcessedCount   int
	UniqueCount      int
	AutoFlaggedCount int
	NeedsReviewCount int
	SkippedCount     int
	DeltaSync        bool
	Status           string
	StartedAt        time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
}
