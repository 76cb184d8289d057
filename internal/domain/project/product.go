package project

import "github.com/shopspring/decimal"

// Product is a cabinet or millwork item placed in a project.
// LocationName carries the location label independent of store-local ids.
type Product struct {
	ID           uint   `json:"id,omitempty"`
	ProjectID    uint   `json:"project_id,omitempty"`
	LocationID   *uint  `json:"location_id,omitempty"`
	WallID       *uint  `json:"wall_id,omitempty"`
	LocationName string `json:"location"`

	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Width       decimal.Decimal `json:"width"`
	Height      decimal.Decimal `json:"height"`
	Depth       decimal.Decimal `json:"depth"`
	XOrigin     decimal.Decimal `json:"x_origin"`
	YOrigin     decimal.Decimal `json:"y_origin"`
	ZOrigin     decimal.Decimal `json:"z_origin"`
	Angle       decimal.Decimal `json:"angle"`

	ItemNumber               string `json:"item_number"`
	Comment                  string `json:"comment"`
	LinkID                   string `json:"link_id"`
	LinkIDSpecificationGroup string `json:"link_id_specification_group"`
	LinkIDLocation           string `json:"link_id_location"`
	FileName                 string `json:"file_name"`
	PictureName              string `json:"picture_name"`

	CustomFields []CustomField `json:"custom_fields"`
}

// CustomField is a free-form name/value pair attached to a product
type CustomField struct {
	ID        uint   `json:"id,omitempty"`
	ProductID uint   `json:"product_id,omitempty"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}
