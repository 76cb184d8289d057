package models

import "github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"

// ProjectModel is the persistence model for the Project aggregate
type ProjectModel struct {
	BaseModel
	Number      string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_projects_number"`
	Name        string  `gorm:"type:varchar(255);not null;default:''"`
	Description string  `gorm:"type:text;not null;default:''"`
	Address     *string `gorm:"type:text"`
	ExternalID  *string `gorm:"type:varchar(100);index"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project
func (m *ProjectModel) ToDomain() *project.Project {
	return &project.Project{
		ID:          m.ID,
		Number:      m.Number,
		Name:        m.Name,
		Description: m.Description,
		Address:     deref(m.Address),
		ExternalID:  deref(m.ExternalID),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Project
func (m *ProjectModel) FromDomain(p *project.Project) {
	m.ID = p.ID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	m.Number = p.Number
	m.Name = p.Name
	m.Description = p.Description
	m.Address = ref(p.Address)
	m.ExternalID = ref(p.ExternalID)
}

// ProjectModelFromDomain creates a new persistence model from a domain Project
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// LocationModel is the persistence model for a Location
type LocationModel struct {
	BaseModel
	ProjectID uint   `gorm:"not null;index"`
	Name      string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "locations"
}

// ToDomain converts the persistence model to a domain Location
func (m *LocationModel) ToDomain() project.Location {
	return project.Location{ID: m.ID, ProjectID: m.ProjectID, Name: m.Name}
}

// WallModel is the persistence model for a Wall
type WallModel struct {
	BaseModel
	ProjectID  uint   `gorm:"not null;index"`
	LocationID uint   `gorm:"not null;index"`
	Name       string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (WallModel) TableName() string {
	return "walls"
}

// ToDomain converts the persistence model to a domain Wall
func (m *WallModel) ToDomain() project.Wall {
	return project.Wall{ID: m.ID, ProjectID: m.ProjectID, LocationID: m.LocationID, Name: m.Name}
}

// PromptModel stores a product prompt (name/value option used by the CAD export)
type PromptModel struct {
	BaseModel
	ProductID uint   `gorm:"not null;index"`
	Name      string `gorm:"type:varchar(255);not null"`
	Value     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PromptModel) TableName() string {
	return "prompts"
}
