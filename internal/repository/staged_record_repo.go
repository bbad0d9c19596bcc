package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

type StagedRecordRepository struct {
	db *gorm.DB
}

func NewStagedRecordRepository(db *gorm.DB) *StagedRecordRepository {
	return &StagedRecordRepository{db: db}
}

// Expose DB if needed
func (r *StagedRecordRepository) DB() *gorm.DB {
	return r.db
}

func (r *StagedRecordRepository) Create(rec *models.StagedRecord) error {
	return r.db.Create(rec).Error
}

func (r *StagedRecordRepository) GetByID(id uuid.UUID) (*models.StagedRecord, error) {
	var rec models.StagedRecord
	if err := r.db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListPending returns all records staged for a project/entity that no run has
// processed yet, in staging order.
func (r *StagedRecordRepository) ListPending(projectID uuid.UUID, entityType string) ([]models.StagedRecord, error) {
	var recs []models.StagedRecord
	err := r.db.
		Where("project_id = ? AND entity_type = ? AND status = ?", projectID, entityType, "pending").
		Order("created_at ASC, id ASC").
		Find(&recs).Error
	return recs, err
}

// MigratedExternalIDs returns the external ids of every record already moved
// for a project/entity. Feeds the delta-sync bloom filter.
func (r *StagedRecordRepository) MigratedExternalIDs(projectID uuid.UUID, entityType string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.StagedRecord{}).
		Where("project_id = ? AND entity_type = ? AND status IN ?",
			projectID, entityType, []string{"unique", "confirmed", "dismissed"}).
		Pluck("external_id", &ids).Error
	return ids, err
}

// PendingEntityTypes lists the entity types with unprocessed records for a
// project.
func (r *StagedRecordRepository) PendingEntityTypes(projectID uuid.UUID) ([]string, error) {
	var entities []string
	err := r.db.Model(&models.StagedRecord{}).
		Where("project_id = ? AND status = ?", projectID, "pending").
		Distinct().
		Pluck("entity_type", &entities).Error
	return entities, err
}

func (r *StagedRecordRepository) Save(rec *models.StagedRecord) error {
	return r.db.Save(rec).Error
}

// ListByRun pages through a run's records by cursor, with optional status and
// free-text filters.
func (r *StagedRecordRepository) ListByRun(
	runID uuid.UUID,
	status string,
	cursor string,
	limit int,
	search string,
) ([]models.StagedRecord, string, bool) {

	var recs []models.StagedRecord
	query := r.db.
		Where("run_id = ?", runID).
		Order("id ASC").
		Limit(limit + 1)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}
	if search != "" {
		likeQuery := "%" + search + "%"
		query = query.Where(
			"external_id ILIKE ? OR fields::text ILIKE ?",
			likeQuery, likeQuery,
		)
	}

	query.Find(&recs)

	hasMore := false
	var nextCursor string

	if len(recs) > limit {
		hasMore = true
		nextCursor = recs[limit-1].ID.String()
		recs = recs[:limit]
	}

	return recs, nextCursor, hasMore
}

// BulkConfirmFlagged confirms every auto-flagged duplicate in a run in one
// update.
func (r *StagedRecordRepository) BulkConfirmFlagged(runID uuid.UUID) (int64, error) {
	result := r.db.Model(&models.StagedRecord{}).
		Where("run_id = ? AND status = ?", runID, "auto_flagged").
		Updates(map[string]interface{}{
			"status":           "confirmed",
			"confidence_score": 100,
		})
	return result.RowsAffected, result.Error
}

// RecordAudit appends a review-trail row for a confirm/dismiss/reassign.
func (r *StagedRecordRepository) RecordAudit(recordID uuid.UUID, action string, previous, next *uuid.UUID, performedBy, reason string) error {
	return r.db.Create(&models.ReviewAuditLog{
		ID:             uuid.New(),
		RecordID:       recordID,
		Action:         action,
		PreviousTarget: previous,
		NewTarget:      next,
		PerformedBy:    performedBy,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}).Error
}
