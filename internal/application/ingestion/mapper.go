package ingestion

import (
	"sort"
	"strings"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/shopspring/decimal"
)

// MappedProject is the typed view of a raw project document
type MappedProject struct {
	Project   project.Project
	Locations []string
}

// MapProject maps a raw project document. Field names are matched
// case-insensitively and a nested address object is flattened.
func MapProject(raw integration.RawPayload) MappedProject {
	address := integration.AddressFromPayload(raw)
	description := raw.String("Description")
	if description == "" {
		description = address.Flatten()
	}

	mapped := MappedProject{
		Project: project.Project{
			Number:      raw.String("Number", "ProjectNumber"),
			Name:        raw.String("Name", "ProjectName"),
			Description: description,
			Address:     address.Flatten(),
			ExternalID:  raw.String("Id", "ProjectId"),
		},
	}

	seen := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		mapped.Locations = append(mapped.Locations, name)
	}
	for _, loc := range raw.List("Locations") {
		add(loc.String("Name", "LocationName"))
	}
	if v, ok := raw.Value("Locations"); ok {
		if items, ok := v.([]any); ok {
			for _, it := range items {
				if s, ok := it.(string); ok {
					add(s)
				}
			}
		}
	}
	return mapped
}

// MapProducts maps a raw products document. A nil document yields no
// products.
func MapProducts(raw integration.RawPayload) []project.Product {
	if raw == nil {
		return nil
	}
	items := raw.List("Items", "Products", "Data")
	products := make([]project.Product, 0, len(items))
	for _, item := range items {
		products = append(products, MapProduct(item))
	}
	return products
}

// MapProduct maps one raw product
func MapProduct(raw integration.RawPayload) project.Product {
	return project.Product{
		Name:                     raw.String("Name", "ProductName"),
		Description:              raw.String("Description"),
		LocationName:             locationName(raw),
		Quantity:                 parseDecimal(raw, "Quantity", "Qty"),
		Width:                    parseDecimal(raw, "Width"),
		Height:                   parseDecimal(raw, "Height"),
		Depth:                    parseDecimal(raw, "Depth"),
		XOrigin:                  parseDecimal(raw, "XOrigin", "X"),
		YOrigin:                  parseDecimal(raw, "YOrigin", "Y"),
		ZOrigin:                  parseDecimal(raw, "ZOrigin", "Z"),
		Angle:                    parseDecimal(raw, "Angle"),
		ItemNumber:               raw.String("ItemNumber"),
		Comment:                  raw.String("Comment", "Comments"),
		LinkID:                   raw.String("LinkID", "LinkId"),
		LinkIDSpecificationGroup: raw.String("LinkIDSpecificationGroup"),
		LinkIDLocation:           raw.String("LinkIDLocation"),
		FileName:                 raw.String("FileName"),
		PictureName:              raw.String("PictureName"),
		CustomFields:             customFields(raw),
	}
}

func locationName(raw integration.RawPayload) string {
	if obj := raw.Object("Location"); obj != nil {
		return obj.String("Name")
	}
	return raw.String("Location", "LocationName")
}

// parseDecimal reads the first present key; unparsable values read as zero
func parseDecimal(raw integration.RawPayload, keys ...string) decimal.Decimal {
	s := raw.String(keys...)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// customFields accepts a list of {Name, Value} objects or a name -> value
// object. The object form is returned sorted by name.
func customFields(raw integration.RawPayload) []project.CustomField {
	if list := raw.List("CustomFields"); list != nil {
		out := make([]project.CustomField, 0, len(list))
		for _, it := range list {
			name := it.String("Name")
			if name == "" {
				continue
			}
			out = append(out, project.CustomField{Name: name, Value: it.String("Value")})
		}
		return out
	}
	obj := raw.Object("CustomFields")
	if obj == nil {
		return nil
	}
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]project.CustomField, 0, len(names))
	for _, name := range names {
		out = append(out, project.CustomField{Name: name, Value: obj.String(name)})
	}
	return out
}
