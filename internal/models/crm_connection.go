package models

import (
	"time"

	"github.com/google/uuid"
)

type CRMConnection struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string
	Provider  string `gorm:"index"`
	Role      string `gorm:"index"` // source or destination
	Status    string
	CreatedAt time.Time
}
