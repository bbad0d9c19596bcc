package handler

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
	"github.com/paullyd2112/quillswitch-sub006/internal/services/dedupe"
	"github.com/paullyd2112/quillswitch-sub006/internal/services/migration"
)

// DedupeHandler fronts the dedupe worker. Replies come back on a shared
// response channel tagged with the request's correlation id, so the handler
// keeps a waiter per in-flight id and a dispatch loop routes each response to
// its caller.
type DedupeHandler struct {
	worker  *dedupe.Worker
	service *migration.Service

	mu      sync.Mutex
	waiters map[uuid.UUID]chan dedupe.Response
}

func NewDedupeHandler(worker *dedupe.Worker, service *migration.Service) *DedupeHandler {
	h := &DedupeHandler{
		worker:  worker,
		service: service,
		waiters: make(map[uuid.UUID]chan dedupe.Response),
	}
	go h.dispatch()
	return h
}

func (h *DedupeHandler) dispatch() {
	for resp := range h.worker.Responses() {
		h.mu.Lock()
		waiter, ok := h.waiters[resp.ID]
		h.mu.Unlock()
		if !ok {
			log.Println("dropping response with no waiter, correlation id", resp.ID)
			continue
		}
		waiter <- resp
	}
}

func (h *DedupeHandler) call(ctx context.Context, req dedupe.Request) (dedupe.Response, error) {
	waiter := make(chan dedupe.Response, 1)
	h.mu.Lock()
	h.waiters[req.ID] = waiter
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.waiters, req.ID)
		h.mu.Unlock()
	}()

	select {
	case h.worker.Requests() <- req:
	case <-ctx.Done():
		return dedupe.Response{}, ctx.Err()
	}

	select {
	case resp := <-waiter:
		return resp, nil
	case <-ctx.Done():
		return dedupe.Response{}, ctx.Err()
	}
}

// Detect compares one record against a caller-supplied pool, synchronously.
func (h *DedupeHandler) Detect(c *gin.Context) {
	var payload struct {
		NewRecord       models.Record   `json:"new_record"`
		ExistingRecords []models.Record `json:"existing_records"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	resp, err := h.call(c.Request.Context(), dedupe.Request{
		ID:              uuid.New(),
		Type:            dedupe.MsgDetectDuplicates,
		NewRecord:       payload.NewRecord,
		ExistingRecords: payload.ExistingRecords,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if resp.Type == dedupe.MsgError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": resp.Error})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": resp.Results})
}

// Search runs the approximate token search against a caller-supplied pool.
func (h *DedupeHandler) Search(c *gin.Context) {
	var payload struct {
		TargetRecord models.Record   `json:"target_record"`
		SearchPool   []models.Record `json:"search_pool"`
		Threshold    float64         `json:"threshold"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	resp, err := h.call(c.Request.Context(), dedupe.Request{
		ID:           uuid.New(),
		Type:         dedupe.MsgFastSearch,
		TargetRecord: payload.TargetRecord,
		SearchPool:   payload.SearchPool,
		Threshold:    payload.Threshold,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if resp.Type == dedupe.MsgError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": resp.Error})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": resp.Results})
}

// Batch stages the posted records, creates a run, and deduplicates in the
// background. Progress is polled from the run row.
func (h *DedupeHandler) Batch(c *gin.Context) {
	var payload struct {
		ProjectID   string          `json:"project_id"`
		EntityType  string          `json:"entity_type"`
		Records     []models.Record `json:"records"`
		DeltaSync   bool            `json:"delta_sync"`
		ChunkSize   int             `json:"chunk_size"`
		Concurrency int             `json:"concurrency"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	projectID, err := uuid.Parse(payload.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}
	if payload.EntityType == "" || len(payload.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type and records required"})
		return
	}

	staged, err := h.service.StageRecords(projectID, payload.EntityType, payload.Records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	opts := migration.RunOptions{
		ChunkSize:   payload.ChunkSize,
		Concurrency: payload.Concurrency,
		DeltaSync:   payload.DeltaSync,
	}
	run, err := h.service.StartRun(projectID, payload.EntityType, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	go func() {
		if err := h.service.ProcessRun(context.Background(), run, opts); err != nil {
			log.Printf("run %s: %v", run.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":         run.ID.String(),
		"records_staged": staged,
		"status":         "processing",
	})
}
