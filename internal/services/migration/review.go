package migration

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

// ConfirmDuplicate accepts the engine's verdict: the record stays out of the
// destination CRM.
func (s *Service) ConfirmDuplicate(recordID uuid.UUID, performedBy string) (*models.StagedRecord, error) {
	rec, err := s.recordRepo.GetByID(recordID)
	if err != nil {
		return nil, err
	}
	rec.Status = "confirmed"
	rec.ConfidenceScore = 100
	if err := s.recordRepo.Save(rec); err != nil {
		return nil, err
	}
	s.recordRepo.RecordAudit(rec.ID, "confirm", rec.DuplicateOfID, rec.DuplicateOfID, performedBy, "duplicate confirmed")
	return rec, nil
}

// DismissDuplicate overrides the engine: the record is kept as unique.
func (s *Service) DismissDuplicate(recordID uuid.UUID, performedBy string) (*models.StagedRecord, error) {
	rec, err := s.recordRepo.GetByID(recordID)
	if err != nil {
		return nil, err
	}
	previous := rec.DuplicateOfID
	rec.Status = "dismissed"
	rec.DuplicateOfID = nil
	rec.ConfidenceScore = 0
	if err := s.recordRepo.Save(rec); err != nil {
		return nil, err
	}
	s.recordRepo.RecordAudit(rec.ID, "dismiss", previous, nil, performedBy, "duplicate dismissed, record kept")
	return rec, nil
}

// ReassignDuplicate points a record at a different duplicate target.
func (s *Service) ReassignDuplicate(recordID, targetID uuid.UUID, performedBy string) (*models.StagedRecord, error) {
	rec, err := s.recordRepo.GetByID(recordID)
	if err != nil {
		return nil, err
	}
	if _, err := s.recordRepo.GetByID(targetID); err != nil {
		return nil, fmt.Errorf("reassign target: %w", err)
	}
	previous := rec.DuplicateOfID
	rec.Status = "confirmed"
	rec.DuplicateOfID = &targetID
	rec.ConfidenceScore = 100
	if err := s.recordRepo.Save(rec); err != nil {
		return nil, err
	}
	s.recordRepo.RecordAudit(rec.ID, "reassign", previous, &targetID, performedBy, "duplicate target reassigned")
	return rec, nil
}

func (s *Service) BulkConfirmFlagged(runID uuid.UUID) (int64, error) {
	return s.recordRepo.BulkConfirmFlagged(runID)
}

type RunStats struct {
	Total int64 `json:"total"`

	UniqueCount      int64 `json:"unique_count"`
	AutoFlaggedCount int64 `json:"auto_flagged_count"`
	NeedsReviewCount int64 `json:"needs_review_count"`
	ConfirmedCount   int64 `json:"confirmed_count"`
	DismissedCount   int64 `json:"dismissed_count"`
	SkippedCount     int64 `json:"skipped_count"`

	AvgConfidence float64 `json:"avg_confidence"`
}

type statRow struct {
	Status string
	Count  int64
	Avg    float64
}

func (s *Service) GetRunStats(runID uuid.UUID) (RunStats, error) {
	var stats RunStats
	var rows []statRow

	err := s.db.Model(&models.StagedRecord{}).
		Where("run_id = ?", runID).
		Select("status, COUNT(*) as count, COALESCE(AVG(confidence_score),0) as avg").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}

	var confidenceSum float64
	var scoredCount int64
	for _, r := range rows {
		stats.Total += r.Count

		switch r.Status {
		case "unique":
			stats.UniqueCount = r.Count
		case "auto_flagged":
			stats.AutoFlaggedCount = r.Count
		case "needs_review":
			stats.NeedsReviewCount = r.Count
		case "confirmed":
			stats.ConfirmedCount = r.Count
		case "dismissed":
			stats.DismissedCount = r.Count
		case "skipped":
			stats.SkippedCount = r.Count
		}

		if r.Status == "auto_flagged" || r.Status == "needs_review" {
			confidenceSum += r.Avg * float64(r.Count)
			scoredCount += r.Count
		}
	}
	if scoredCount > 0 {
		stats.AvgConfidence = confidenceSum / float64(scoredCount)
	}

	return stats, nil
}

// RunDeltaSyncs launches a delta-sync run for every active project and each
// entity type it has pending records for. Called by the cron scheduler.
func (s *Service) RunDeltaSyncs(ctx context.Context) {
	projects, err := s.projectRepo.ListActive()
	if err != nil {
		log.Println("delta sync: listing projects failed:", err)
		return
	}

	for _, project := range projects {
		entities, err := s.recordRepo.PendingEntityTypes(project.ID)
		if err != nil {
			log.Printf("delta sync: project %s: %v", project.ID, err)
			continue
		}
		for _, entity := range entities {
			opts := RunOptions{DeltaSync: true}
			run, err := s.StartRun(project.ID, entity, opts)
			if err != nil {
				log.Printf("delta sync: starting run for %s/%s: %v", project.ID, entity, err)
				continue
			}
			if err := s.ProcessRun(ctx, run, opts); err != nil {
				log.Printf("delta sync: run %s failed: %v", run.ID, err)
			}
		}
	}
}
