package models

import (
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for a Product
type ProductModel struct {
	BaseModel
	ProjectID   uint            `gorm:"not null;index"`
	LocationID  *uint           `gorm:"index"`
	WallID      *uint           `gorm:"index"`
	Name        string          `gorm:"type:varchar(255);not null;default:''"`
	Description string          `gorm:"type:text;not null;default:''"`
	Quantity    decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	Width       decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	Height      decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	Depth       decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	XOrigin     decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	YOrigin     decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	ZOrigin     decimal.Decimal `gorm:"type:numeric;not null;default:0"`

	ItemNumber               *string             `gorm:"type:varchar(100)"`
	Comment                  *string             `gorm:"type:text"`
	Angle                    decimal.NullDecimal `gorm:"type:numeric"`
	LinkID                   *string             `gorm:"type:varchar(100)"`
	LinkIDSpecificationGroup *string             `gorm:"type:varchar(100)"`
	LinkIDLocation           *string             `gorm:"type:varchar(100)"`
	FileName                 *string             `gorm:"type:varchar(255)"`
	PictureName              *string             `gorm:"type:varchar(255)"`

	Location     *LocationModel     `gorm:"foreignKey:LocationID"`
	CustomFields []CustomFieldModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product. The location
// label is filled when Location was preloaded.
func (m *ProductModel) ToDomain() project.Product {
	p := project.Product{
		ID:                       m.ID,
		ProjectID:                m.ProjectID,
		LocationID:               m.LocationID,
		WallID:                   m.WallID,
		Name:                     m.Name,
		Description:              m.Description,
		Quantity:                 m.Quantity,
		Width:                    m.Width,
		Height:                   m.Height,
		Depth:                    m.Depth,
		XOrigin:                  m.XOrigin,
		YOrigin:                  m.YOrigin,
		ZOrigin:                  m.ZOrigin,
		ItemNumber:               deref(m.ItemNumber),
		Comment:                  deref(m.Comment),
		LinkID:                   deref(m.LinkID),
		LinkIDSpecificationGroup: deref(m.LinkIDSpecificationGroup),
		LinkIDLocation:           deref(m.LinkIDLocation),
		FileName:                 deref(m.FileName),
		PictureName:              deref(m.PictureName),
		CustomFields:             make([]project.CustomField, 0, len(m.CustomFields)),
	}
	if m.Angle.Valid {
		p.Angle = m.Angle.Decimal
	}
	if m.Location != nil {
		p.LocationName = m.Location.Name
	}
	for _, cf := range m.CustomFields {
		p.CustomFields = append(p.CustomFields, cf.ToDomain())
	}
	return p
}

// FromDomain populates the persistence model from a domain Product. Custom
// fields are converted too; their ProductID is set by GORM on create.
func (m *ProductModel) FromDomain(p *project.Product) {
	m.ID = p.ID
	m.ProjectID = p.ProjectID
	m.LocationID = p.LocationID
	m.WallID = p.WallID
	m.Name = p.Name
	m.Description = p.Description
	m.Quantity = p.Quantity
	m.Width = p.Width
	m.Height = p.Height
	m.Depth = p.Depth
	m.XOrigin = p.XOrigin
	m.YOrigin = p.YOrigin
	m.ZOrigin = p.ZOrigin
	m.ItemNumber = ref(p.ItemNumber)
	m.Comment = ref(p.Comment)
	m.Angle = decimal.NewNullDecimal(p.Angle)
	m.LinkID = ref(p.LinkID)
	m.LinkIDSpecificationGroup = ref(p.LinkIDSpecificationGroup)
	m.LinkIDLocation = ref(p.LinkIDLocation)
	m.FileName = ref(p.FileName)
	m.PictureName = ref(p.PictureName)
	m.CustomFields = make([]CustomFieldModel, 0, len(p.CustomFields))
	for _, cf := range p.CustomFields {
		m.CustomFields = append(m.CustomFields, CustomFieldModel{Name: cf.Name, Value: cf.Value})
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *project.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// CustomFieldModel is the persistence model for a product custom field
type CustomFieldModel struct {
	BaseModel
	ProductID uint   `gorm:"not null;index"`
	Name      string `gorm:"type:varchar(255);not null"`
	Value     string `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (CustomFieldModel) TableName() string {
	return "custom_fields"
}

// ToDomain converts the persistence model to a domain CustomField
func (m *CustomFieldModel) ToDomain() project.CustomField {
	return project.CustomField{ID: m.ID, ProductID: m.ProductID, Name: m.Name, Value: m.Value}
}
