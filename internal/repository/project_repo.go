package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(p *models.MigrationProject) error {
	return r.db.Create(p).Error
}

func (r *ProjectRepository) GetByID(id uuid.UUID) (*models.MigrationProject, error) {
	var p models.MigrationProject
	if err := r.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) ListActive() ([]models.MigrationProject, error) {
	var projects []models.MigrationProject
	err := r.db.Where("status = ?", "active").Find(&projects).Error
	return projects, err
}

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Create(c *models.CRMConnection) error {
	return r.db.Create(c).Error
}

func (r *ConnectionRepository) List() ([]models.CRMConnection, error) {
	var conns []models.CRMConnection
	err := r.db.Order("created_at ASC").Find(&conns).Error
	return conns, err
}

type FieldMappingRepository struct {
	db *gorm.DB
}

func NewFieldMappingRepository(db *gorm.DB) *FieldMappingRepository {
	return &FieldMappingRepository{db: db}
}

func (r *FieldMappingRepository) Create(m *models.FieldMapping) error {
	return r.db.Create(m).Error
}

func (r *FieldMappingRepository) ListByProject(projectID uuid.UUID, entityType string) ([]models.FieldMapping, error) {
	var mappings []models.FieldMapping
	query := r.db.Where("project_id = ?", projectID)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	err := query.Order("created_at ASC").Find(&mappings).Error
	return mappings, err
}
