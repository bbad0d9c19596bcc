package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

type MigrationRunRepository struct {
	db *gorm.DB
}

func NewMigrationRunRepository(db *gorm.DB) *MigrationRunRepository {
	return &MigrationRunRepository{db: db}
}

func (r *MigrationRunRepository) Create(run *models.MigrationRun) error {
	return r.db.Create(run).Error
}

func (r *MigrationRunRepository) GetByID(id uuid.UUID) (*models.MigrationRun, error) {
	var run models.MigrationRun
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// UpdateProgress updates the processed count mid-run.
func (r *MigrationRunRepository) UpdateProgress(id uuid.UUID, processed int) error {
	return r.db.Model(&models.MigrationRun{}).
		Where("id = ?", id).
		Update("processed_count", processed).
		Error
}

// MarkCompleted sets the final counters and flips the run to completed.
func (r *MigrationRunRepository) MarkCompleted(id uuid.UUID, total, unique, flagged, review, skipped int) error {
	return r.db.Model(&models.MigrationRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_records":      total,
			"processed_count":    total,
			"unique_count":       unique,
			"auto_flagged_count": flagged,
			"needs_review_count": review,
			"skipped_count":      skipped,
			"status":             "completed",
			"completed_at":       time.Now(),
		}).Error
}

func (r *MigrationRunRepository) MarkFailed(id uuid.UUID) error {
	return r.db.Model(&models.MigrationRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now(),
		}).Error
}
