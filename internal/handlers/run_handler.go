package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paullyd2112/quillswitch-sub006/internal/repository"
	"github.com/paullyd2112/quillswitch-sub006/internal/services/migration"
)

type RunHandler struct {
	service    *migration.Service
	runRepo    *repository.MigrationRunRepository
	recordRepo *repository.StagedRecordRepository
}

func NewRunHandler(
	service *migration.Service,
	runRepo *repository.MigrationRunRepository,
	recordRepo *repository.StagedRecordRepository,
) *RunHandler {
	return &RunHandler{service: service, runRepo: runRepo, recordRepo: recordRepo}
}

func (h *RunHandler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	run, err := h.runRepo.GetByID(runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":             run,
		"processed_count": run.ProcessedCount,
		"total":           run.TotalRecords,
		"status":          run.Status,
	})
}

func (h *RunHandler) ListRecords(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}

	status := c.Query("status")
	cursor := c.Query("cursor")
	search := c.Query("search")
	limit := 50

	items, nextCursor, hasMore := h.recordRepo.ListByRun(runID, status, cursor, limit, search)
	stats, _ := h.service.GetRunStats(runID)

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
		"stats":       stats,
	})
}

func (h *RunHandler) Stats(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	stats, err := h.service.GetRunStats(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *RunHandler) BulkConfirm(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	count, err := h.service.BulkConfirmFlagged(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "bulk confirm completed",
		"records_updated": count,
	})
}

func (h *RunHandler) ConfirmRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}
	rec, err := h.service.ConfirmDuplicate(id, reviewer(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "duplicate confirmed", "record": rec})
}

func (h *RunHandler) DismissRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}
	rec, err := h.service.DismissDuplicate(id, reviewer(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "duplicate dismissed", "record": rec})
}

func (h *RunHandler) ReassignRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	var payload struct {
		TargetID string `json:"target_id"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	targetID, err := uuid.Parse(payload.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target ID"})
		return
	}

	rec, err := h.service.ReassignDuplicate(id, targetID, reviewer(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "duplicate reassigned", "record": rec})
}

func reviewer(c *gin.Context) string {
	if who := c.GetHeader("X-Reviewed-By"); who != "" {
		return who
	}
	return "api"
}
