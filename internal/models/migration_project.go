package models

import (
	"time"

	"github.com/google/uuid"
)

type MigrationProject struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string
	SourceID      uuid.UUID
	DestinationID uuid.UUID
	Status        string `gorm:"index"`
	CreatedAt     time.Time
}
