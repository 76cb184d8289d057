package models

import "time"

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// All returns one zero value of every model, in creation order
func All() []any {
	return []any{
		&ProjectModel{},
		&LocationModel{},
		&WallModel{},
		&ProductModel{},
		&CustomFieldModel{},
		&CalloutModel{},
		&PromptModel{},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	return &s
}
