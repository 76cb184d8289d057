package callout

import (
	"strings"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
)

// Row is a flat table row keyed by column name, e.g. from an editor grid.
// The Type column selects the category.
type Row map[string]string

// Item is one key/value callout entry inside a category
type Item map[string]string

func field(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func rowFrom(category project.CalloutCategory, m map[string]string) project.CalloutRow {
	return project.CalloutRow{
		Type:        category,
		Name:        field(m, "Name"),
		Tag:         field(m, "Tag"),
		Description: field(m, "Description"),
	}
}

// NormalizeRows groups flat rows by their Type column. Unknown or missing
// types land in Uncategorized. All five category keys are present.
func NormalizeRows(rows []Row) project.GroupedCallouts {
	grouped := project.NewGroupedCallouts()
	for _, r := range rows {
		category := project.ParseCalloutCategory(field(r, "Type"))
		grouped[category] = append(grouped[category], rowFrom(category, r))
	}
	return grouped
}

// NormalizeGrouped converts category-keyed items. Category keys are parsed
// case-insensitively. All five category keys are present.
func NormalizeGrouped(in map[string][]Item) project.GroupedCallouts {
	grouped := project.NewGroupedCallouts()
	for key, items := range in {
		category := project.ParseCalloutCategory(key)
		for _, it := range items {
			grouped[category] = append(grouped[category], rowFrom(category, it))
		}
	}
	return grouped
}

// NormalizeTyped fills in categories and trims values of an already typed
// value, the form used by JSON clients
func NormalizeTyped(in project.GroupedCallouts) project.GroupedCallouts {
	grouped := project.NewGroupedCallouts()
	for key, rows := range in {
		category := project.ParseCalloutCategory(string(key))
		for _, r := range rows {
			grouped[category] = append(grouped[category], project.CalloutRow{
				Type:        category,
				Name:        strings.TrimSpace(r.Name),
				Tag:         strings.TrimSpace(r.Tag),
				Description: strings.TrimSpace(r.Description),
			})
		}
	}
	return grouped
}
