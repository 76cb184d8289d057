package models

import "github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"

// CalloutModel is the persistence model for a Callout
type CalloutModel struct {
	BaseModel
	ProjectID            uint    `gorm:"not null;index:idx_callouts_project_type,priority:1"`
	Type                 string  `gorm:"type:varchar(50);not null;index:idx_callouts_project_type,priority:2"`
	Name                 string  `gorm:"type:varchar(255);not null"`
	Tag                  string  `gorm:"type:varchar(100);not null"`
	Description          *string `gorm:"type:text"`
	SpecificationGroupID *uint   `gorm:"index"`
}

// TableName returns the table name for GORM
func (CalloutModel) TableName() string {
	return "callouts"
}

// ToDomain converts the persistence model to a domain Callout
func (m *CalloutModel) ToDomain() project.Callout {
	return project.Callout{
		ID:                   m.ID,
		ProjectID:            m.ProjectID,
		SpecificationGroupID: m.SpecificationGroupID,
		Type:                 project.ParseCalloutCategory(m.Type),
		Name:                 m.Name,
		Tag:                  m.Tag,
		Description:          deref(m.Description),
	}
}

// CalloutModelFromRow builds a model for row under category
func CalloutModelFromRow(projectID uint, category project.CalloutCategory, row project.CalloutRow) *CalloutModel {
	return &CalloutModel{
		ProjectID:   projectID,
		Type:        string(category),
		Name:        row.Name,
		Tag:         row.Tag,
		Description: ref(row.Description),
	}
}
