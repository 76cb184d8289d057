package reconcile

import (
	"sort"
	"strings"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/shopspring/decimal"
)

// NormalizedProduct is the order-independent comparable form of a product.
// Store-local ids are not part of it.
type NormalizedProduct struct {
	Name                     string
	Quantity                 string
	Description              string
	Location                 string
	Width                    string
	Height                   string
	Depth                    string
	XOrigin                  string
	YOrigin                  string
	ZOrigin                  string
	ItemNumber               string
	Comment                  string
	Angle                    string
	LinkID                   string
	LinkIDSpecificationGroup string
	LinkIDLocation           string
	FileName                 string
	PictureName              string
	// CustomFields holds name=value pairs sorted by name, then value
	CustomFields string
}

// key joins every field; two products are equal exactly when keys are equal
func (n NormalizedProduct) key() string {
	return strings.Join([]string{
		n.Name, n.Quantity, n.Description, n.Location,
		n.Width, n.Height, n.Depth, n.XOrigin, n.YOrigin, n.ZOrigin,
		n.ItemNumber, n.Comment, n.Angle,
		n.LinkID, n.LinkIDSpecificationGroup, n.LinkIDLocation,
		n.FileName, n.PictureName, n.CustomFields,
	}, "\x1f")
}

// canonicalScale bounds compared decimal places. Stores read NUMERIC columns
// back as float64, so digits past this scale are not stable.
const canonicalScale = 8

// canonical renders d at canonicalScale without trailing zeros so 2, 2.0 and
// 2.00 compare equal
func canonical(d decimal.Decimal) string {
	return d.Round(canonicalScale).String()
}

func normalizeOne(p project.Product) NormalizedProduct {
	fields := make([]string, 0, len(p.CustomFields))
	for _, cf := range p.CustomFields {
		fields = append(fields, strings.TrimSpace(cf.Name)+"\x1e"+strings.TrimSpace(cf.Value))
	}
	sort.Strings(fields)

	return NormalizedProduct{
		Name:                     strings.TrimSpace(p.Name),
		Quantity:                 canonical(p.Quantity),
		Description:              strings.TrimSpace(p.Description),
		Location:                 strings.TrimSpace(p.LocationName),
		Width:                    canonical(p.Width),
		Height:                   canonical(p.Height),
		Depth:                    canonical(p.Depth),
		XOrigin:                  canonical(p.XOrigin),
		YOrigin:                  canonical(p.YOrigin),
		ZOrigin:                  canonical(p.ZOrigin),
		ItemNumber:               strings.TrimSpace(p.ItemNumber),
		Comment:                  strings.TrimSpace(p.Comment),
		Angle:                    canonical(p.Angle),
		LinkID:                   strings.TrimSpace(p.LinkID),
		LinkIDSpecificationGroup: strings.TrimSpace(p.LinkIDSpecificationGroup),
		LinkIDLocation:           strings.TrimSpace(p.LinkIDLocation),
		FileName:                 strings.TrimSpace(p.FileName),
		PictureName:              strings.TrimSpace(p.PictureName),
		CustomFields:             strings.Join(fields, "\x1d"),
	}
}

// Normalize returns the products in canonical form, sorted
func Normalize(products []project.Product) []NormalizedProduct {
	out := make([]NormalizedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, normalizeOne(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return out
}

// Equal reports whether a and b hold the same products regardless of order
func Equal(a, b []project.Product) bool {
	if len(a) != len(b) {
		return false
	}
	na, nb := Normalize(a), Normalize(b)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
