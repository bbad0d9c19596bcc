package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
	"github.com/paullyd2112/quillswitch-sub006/internal/repository"
)

type ConnectionHandler struct {
	connectionRepo *repository.ConnectionRepository
	projectRepo    *repository.ProjectRepository
	mappingRepo    *repository.FieldMappingRepository
}

func NewConnectionHandler(
	connectionRepo *repository.ConnectionRepository,
	projectRepo *repository.ProjectRepository,
	mappingRepo *repository.FieldMappingRepository,
) *ConnectionHandler {
	return &ConnectionHandler{
		connectionRepo: connectionRepo,
		projectRepo:    projectRepo,
		mappingRepo:    mappingRepo,
	}
}

func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	var payload struct {
		Name     string `json:"name"`
		Provider string `json:"provider"`
		Role     string `json:"role"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Name == "" || payload.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and provider required"})
		return
	}
	if payload.Role != "source" && payload.Role != "destination" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be source or destination"})
		return
	}

	conn := &models.CRMConnection{
		ID:        uuid.New(),
		Name:      payload.Name,
		Provider:  payload.Provider,
		Role:      payload.Role,
		Status:    "connected",
		CreatedAt: time.Now(),
	}
	if err := h.connectionRepo.Create(conn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "connection created", "connection": conn})
}

func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	conns, err := h.connectionRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (h *ConnectionHandler) CreateProject(c *gin.Context) {
	var payload struct {
		Name          string `json:"name"`
		SourceID      string `json:"source_id"`
		DestinationID string `json:"destination_id"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	sourceID, err := uuid.Parse(payload.SourceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source ID"})
		return
	}
	destinationID, err := uuid.Parse(payload.DestinationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid destination ID"})
		return
	}
	if payload.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	project := &models.MigrationProject{
		ID:            uuid.New(),
		Name:          payload.Name,
		SourceID:      sourceID,
		DestinationID: destinationID,
		Status:        "active",
		CreatedAt:     time.Now(),
	}
	if err := h.projectRepo.Create(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project created", "project": project})
}

func (h *ConnectionHandler) CreateMapping(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var payload struct {
		EntityType       string `json:"entity_type"`
		SourceField      string `json:"source_field"`
		DestinationField string `json:"destination_field"`
		IsKeyField       bool   `json:"is_key_field"`
		IsExactMatch     bool   `json:"is_exact_match"`
		Skip             bool   `json:"skip"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.EntityType == "" || payload.SourceField == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type and source_field required"})
		return
	}

	mapping := &models.FieldMapping{
		ID:               uuid.New(),
		ProjectID:        projectID,
		EntityType:       payload.EntityType,
		SourceField:      payload.SourceField,
		DestinationField: payload.DestinationField,
		IsKeyField:       payload.IsKeyField,
		IsExactMatch:     payload.IsExactMatch,
		Skip:             payload.Skip,
		CreatedAt:        time.Now(),
	}
	if err := h.mappingRepo.Create(mapping); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "mapping created", "mapping": mapping})
}

func (h *ConnectionHandler) ListMappings(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}
	mappings, err := h.mappingRepo.ListByProject(projectID, c.Query("entity"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings})
}
