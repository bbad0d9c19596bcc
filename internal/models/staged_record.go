package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StagedRecord struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RunID           *uuid.UUID `gorm:"index"`
	ProjectID       uuid.UUID  `gorm:"index"`
	EntityType      string     `gorm:"index"`
	ExternalID      string     `gorm:"index"`
	Fields          datatypes.JSON
	Status          string `gorm:"index"`
	DuplicateOfID   *uuid.UUID
	ConfidenceScore float64
	MatchDetails    datatypes.JSON
	CreatedAt       time.Time
}
