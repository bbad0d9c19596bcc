package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/paullyd2112/quillswitch-sub006/internal/config"
	"github.com/paullyd2112/quillswitch-sub006/internal/models"
	"github.com/paullyd2112/quillswitch-sub006/internal/repository"
	"github.com/paullyd2112/quillswitch-sub006/internal/services/dedupe"
)

// RunOptions tunes one migration run. Zero values fall back to defaults.
type RunOptions struct {
	ChunkSize   int
	Concurrency int
	Retry       RetryPolicy
	DeltaSync   bool
}

func (o RunOptions) withDefaults() RunOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 500
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = DefaultRetryPolicy()
	}
	return o
}

type Service struct {
	runRepo     *repository.MigrationRunRepository
	recordRepo  *repository.StagedRecordRepository
	projectRepo *repository.ProjectRepository
	mappingRepo *repository.FieldMappingRepository
	profiles    *config.DedupeProfiles
	db          *gorm.DB
}

func NewService(
	runRepo *repository.MigrationRunRepository,
	recordRepo *repository.StagedRecordRepository,
	projectRepo *repository.ProjectRepository,
	mappingRepo *repository.FieldMappingRepository,
	profiles *config.DedupeProfiles,
) *Service {
	return &Service{
		runRepo:     runRepo,
		recordRepo:  recordRepo,
		projectRepo: projectRepo,
		mappingRepo: mappingRepo,
		profiles:    profiles,
		db:          recordRepo.DB(),
	}
}

// EngineConfig resolves the dedupe rules for a project/entity: the project's
// field mappings when it has any, otherwise the yaml profile.
func (s *Service) EngineConfig(projectID uuid.UUID, entityType string) dedupe.Config {
	profile := s.profiles.ForEntity(entityType)
	cfg := dedupe.Config{
		FuzzyThreshold:   profile.FuzzyThreshold,
		KeyFields:        profile.KeyFields,
		ExactMatchFields: profile.ExactMatchFields,
		SkipFields:       profile.SkipFields,
	}

	mappings, err := s.mappingRepo.ListByProject(projectID, entityType)
	if err != nil || len(mappings) == 0 {
		return cfg
	}

	cfg.KeyFields = nil
	cfg.ExactMatchFields = nil
	cfg.SkipFields = nil
	for _, m := range mappings {
		switch {
		case m.Skip:
			cfg.SkipFields = append(cfg.SkipFields, m.SourceField)
		case m.IsExactMatch:
			cfg.ExactMatchFields = append(cfg.ExactMatchFields, m.SourceField)
			cfg.KeyFields = append(cfg.KeyFields, m.SourceField)
		case m.IsKeyField:
			cfg.KeyFields = append(cfg.KeyFields, m.SourceField)
		}
	}
	return cfg
}

// StageRecords inserts extracted records as pending rows for a later run.
func (s *Service) StageRecords(projectID uuid.UUID, entityType string, records []models.Record) (int, error) {
	staged := 0
	for _, rec := range records {
		fields, err := models.FieldsToJSON(rec.Fields)
		if err != nil {
			log.Printf("skipping record %s: %v", rec.ID, err)
			continue
		}
		row := &models.StagedRecord{
			ID:         uuid.New(),
			ProjectID:  projectID,
			EntityType: entityType,
			ExternalID: rec.ID,
			Fields:     fields,
			Status:     "pending",
			CreatedAt:  time.Now(),
		}
		if err := s.recordRepo.Create(row); err != nil {
			return staged, err
		}
		staged++
	}
	return staged, nil
}

// StartRun creates the run row. Processing happens in ProcessRun, usually on
// a background goroutine.
func (s *Service) StartRun(projectID uuid.UUID, entityType string, opts RunOptions) (*models.MigrationRun, error) {
	run := &models.MigrationRun{
		ID:         uuid.New(),
		ProjectID:  projectID,
		EntityType: entityType,
		DeltaSync:  opts.DeltaSync,
		Status:     "processing",
		StartedAt:  time.Now(),
		CreatedAt:  time.Now(),
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// recordUpdate is the per-record outcome waiting to be persisted.
type recordUpdate struct {
	id          uuid.UUID
	status      string
	duplicateOf *uuid.UUID
	confidence  float64
	details     []byte
}

// ProcessRun deduplicates a run's pending records and persists the outcomes.
// Delta sync pre-filters already-migrated external ids through a bloom
// filter; a false positive only costs a redundant skip check, never data.
func (s *Service) ProcessRun(ctx context.Context, run *models.MigrationRun, opts RunOptions) error {
	opts = opts.withDefaults()
	engine := dedupe.NewEngine(s.EngineConfig(run.ProjectID, run.EntityType))

	pending, err := s.recordRepo.ListPending(run.ProjectID, run.EntityType)
	if err != nil {
		s.runRepo.MarkFailed(run.ID)
		return fmt.Errorf("listing pending records: %w", err)
	}

	var updates []recordUpdate
	skipped := 0

	if opts.DeltaSync {
		filter, err := s.buildDeltaFilter(run.ProjectID, run.EntityType)
		if err != nil {
			s.runRepo.MarkFailed(run.ID)
			return fmt.Errorf("building delta filter: %w", err)
		}
		kept := pending[:0]
		for _, rec := range pending {
			if rec.ExternalID != "" && filter.TestString(rec.ExternalID) {
				updates = append(updates, recordUpdate{id: rec.ID, status: "skipped"})
				skipped++
				continue
			}
			kept = append(kept, rec)
		}
		pending = kept
	}

	// Decode staged rows into engine records. Rows with malformed field JSON
	// degenerate to zero comparable fields rather than failing the run.
	byID := make(map[string]models.StagedRecord, len(pending))
	records := make([]models.Record, 0, len(pending))
	for _, row := range pending {
		fields, err := models.FieldsFromJSON(row.Fields)
		if err != nil {
			log.Printf("run %s: record %s has malformed fields: %v", run.ID, row.ID, err)
			fields = nil
		}
		rec := models.Record{ID: row.ID.String(), Fields: fields}
		byID[rec.ID] = row
		records = append(records, rec)
	}

	total := len(records) + skipped
	outcome := engine.BatchDeduplicate(records, func(p dedupe.Progress) {
		if err := s.runRepo.UpdateProgress(run.ID, p.Processed+skipped); err != nil {
			log.Printf("run %s: progress update failed: %v", run.ID, err)
		}
	})

	for _, rec := range outcome.Unique {
		row := byID[rec.ID]
		updates = append(updates, recordUpdate{id: row.ID, status: "unique"})
	}

	flagged, review := 0, 0
	for _, dup := range outcome.Duplicates {
		row := byID[dup.Record.ID]
		target := byID[dup.DuplicateOf.ID]
		status := statusForConfidence(dup.Confidence)
		if status == "auto_flagged" {
			flagged++
		} else {
			review++
		}
		details, _ := json.Marshal(map[string]interface{}{
			"duplicate_of": target.ID.String(),
			"external_id":  target.ExternalID,
			"confidence":   dup.Confidence,
			"decision":     status,
		})
		targetID := target.ID
		updates = append(updates, recordUpdate{
			id:          row.ID,
			status:      status,
			duplicateOf: &targetID,
			confidence:  dup.Confidence,
			details:     details,
		})
	}

	if err := s.persistUpdates(ctx, run, updates, opts); err != nil {
		s.runRepo.MarkFailed(run.ID)
		return err
	}

	if err := s.runRepo.MarkCompleted(run.ID, total, len(outcome.Unique), flagged, review, skipped); err != nil {
		return err
	}
	log.Printf("run %s completed: %d records, %d unique, %d flagged, %d need review, %d skipped",
		run.ID, total, len(outcome.Unique), flagged, review, skipped)
	return nil
}

// persistUpdates writes outcomes in chunks through a bounded worker pool.
// Chunks retry individually; a wave that needed retries steps the pool size
// down for the rest of the run.
func (s *Service) persistUpdates(ctx context.Context, run *models.MigrationRun, updates []recordUpdate, opts RunOptions) error {
	chunks := chunkUpdates(updates, opts.ChunkSize)
	concurrency := opts.Concurrency

	for start := 0; start < len(chunks); {
		end := min(start+concurrency, len(chunks))
		var retried atomic.Bool

		g, gctx := errgroup.WithContext(ctx)
		for _, chunk := range chunks[start:end] {
			chunk := chunk
			g.Go(func() error {
				retries, err := opts.Retry.Do(func() error {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					return s.persistChunk(run.ID, chunk)
				})
				if retries > 0 {
					retried.Store(true)
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("persisting run %s outcomes: %w", run.ID, err)
		}

		start = end
		if retried.Load() && concurrency > 1 {
			concurrency /= 2
			log.Printf("run %s: database pressure detected, concurrency lowered to %d", run.ID, concurrency)
		}
	}
	return nil
}

func (s *Service) persistChunk(runID uuid.UUID, chunk []recordUpdate) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, u := range chunk {
			values := map[string]interface{}{
				"run_id":           runID,
				"status":           u.status,
				"confidence_score": u.confidence,
			}
			if u.duplicateOf != nil {
				values["duplicate_of_id"] = *u.duplicateOf
			}
			if u.details != nil {
				values["match_details"] = u.details
			}
			if err := tx.Model(&models.StagedRecord{}).
				Where("id = ?", u.id).
				Updates(values).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) buildDeltaFilter(projectID uuid.UUID, entityType string) (*bloom.BloomFilter, error) {
	ids, err := s.recordRepo.MigratedExternalIDs(projectID, entityType)
	if err != nil {
		return nil, err
	}
	filter := bloom.NewWithEstimates(uint(max(len(ids), 1)), 0.01)
	for _, id := range ids {
		filter.AddString(id)
	}
	return filter, nil
}

func statusForConfidence(confidence float64) string {
	if confidence >= 95 {
		return "auto_flagged"
	}
	return "needs_review"
}

func chunkUpdates(updates []recordUpdate, size int) [][]recordUpdate {
	var chunks [][]recordUpdate
	for start := 0; start < len(updates); start += size {
		chunks = append(chunks, updates[start:min(start+size, len(updates))])
	}
	return chunks
}
