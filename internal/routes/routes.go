package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/paullyd2112/quillswitch-sub006/internal/config"
	handler "github.com/paullyd2112/quillswitch-sub006/internal/handlers"
	"github.com/paullyd2112/quillswitch-sub006/internal/repository"
	"github.com/paullyd2112/quillswitch-sub006/internal/services/dedupe"
	"github.com/paullyd2112/quillswitch-sub006/internal/services/migration"
)

// RegisterRoutes wires repositories, services, the dedupe worker, and the
// HTTP surface. It returns the migration service so main can hand it to the
// scheduler.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, profiles *config.DedupeProfiles) *migration.Service {
	runRepo := repository.NewMigrationRunRepository(db)
	recordRepo := repository.NewStagedRecordRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	mappingRepo := repository.NewFieldMappingRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)

	migrationService := migration.NewService(runRepo, recordRepo, projectRepo, mappingRepo, profiles)

	// One worker serves the synchronous dedupe endpoints with the default
	// profile; batch runs resolve per-project config in the service instead.
	defaultProfile := profiles.ForEntity("")
	worker := dedupe.NewWorker(dedupe.NewEngine(dedupe.Config{
		FuzzyThreshold:   defaultProfile.FuzzyThreshold,
		KeyFields:        defaultProfile.KeyFields,
		ExactMatchFields: defaultProfile.ExactMatchFields,
		SkipFields:       defaultProfile.SkipFields,
	}))
	go worker.Run(context.Background())

	dedupeHandler := handler.NewDedupeHandler(worker, migrationService)
	runHandler := handler.NewRunHandler(migrationService, runRepo, recordRepo)
	connectionHandler := handler.NewConnectionHandler(connectionRepo, projectRepo, mappingRepo)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Dedupe engine routes
	dd := api.Group("/dedupe")
	dd.POST("/detect", dedupeHandler.Detect)
	dd.POST("/search", dedupeHandler.Search)
	dd.POST("/batch", dedupeHandler.Batch)
	dd.GET("/batch/:runId", runHandler.GetRun)

	// Migration run routes
	runs := api.Group("/runs")
	runs.GET("/:runId", runHandler.GetRun)
	runs.GET("/:runId/records", runHandler.ListRecords)
	runs.GET("/:runId/stats", runHandler.Stats)
	runs.POST("/:runId/bulk-confirm", runHandler.BulkConfirm)

	// Record-level review routes
	records := api.Group("/records")
	records.POST("/:id/confirm", runHandler.ConfirmRecord)
	records.POST("/:id/dismiss", runHandler.DismissRecord)
	records.POST("/:id/reassign", runHandler.ReassignRecord)

	// Connection and project routes
	connections := api.Group("/connections")
	{
		connections.POST("", connectionHandler.CreateConnection)
		connections.GET("", connectionHandler.ListConnections)
	}

	projects := api.Group("/projects")
	{
		projects.POST("", connectionHandler.CreateProject)
		projects.POST("/:projectId/mappings", connectionHandler.CreateMapping)
		projects.GET("/:projectId/mappings", connectionHandler.ListMappings)
	}

	return migrationService
}
