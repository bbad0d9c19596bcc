package models

import (
	"time"

	"github.com/google/uuid"
)

type FieldMapping struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID        uuid.UUID `gorm:"index"`
	EntityType       string    `gorm:"index"`
	SourceField      string
	DestinationField string
	IsKeyField       bool
	IsExactMatch     bool
	Skip             bool
	CreatedAt        time.Time
}
