package project

import "strings"

// CalloutCategory classifies a material callout
type CalloutCategory string

const (
	CalloutFinish        CalloutCategory = "Finish"
	CalloutHardware      CalloutCategory = "Hardware"
	CalloutSink          CalloutCategory = "Sink"
	CalloutAppliance     CalloutCategory = "Appliance"
	CalloutUncategorized CalloutCategory = "Uncategorized"
)

// PersistedCategories are the categories written to a store, in write order.
// Uncategorized items must be assigned one of these before they are saved.
func PersistedCategories() []CalloutCategory {
	return []CalloutCategory{CalloutFinish, CalloutHardware, CalloutSink, CalloutAppliance}
}

// AllCategories returns the persisted categories followed by Uncategorized
func AllCategories() []CalloutCategory {
	return append(PersistedCategories(), CalloutUncategorized)
}

// IsPersisted returns true for the four categories that are stored
func (c CalloutCategory) IsPersisted() bool {
	switch c {
	case CalloutFinish, CalloutHardware, CalloutSink, CalloutAppliance:
		return true
	default:
		return false
	}
}

// ParseCalloutCategory resolves a category name case-insensitively.
// Unknown or empty names map to Uncategorized.
func ParseCalloutCategory(s string) CalloutCategory {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return CalloutUncategorized
}

// Callout is a persisted material callout
type Callout struct {
	ID                   uint            `json:"id"`
	ProjectID            uint            `json:"project_id"`
	SpecificationGroupID *uint           `json:"specification_group_id,omitempty"`
	Type                 CalloutCategory `json:"type"`
	Name                 string          `json:"name"`
	Tag                  string          `json:"tag"`
	Description          string          `json:"description"`
}

// CalloutRow is the exchange shape of a callout. Name and Tag are required for
// an item to be persisted; items missing either are dropped.
type CalloutRow struct {
	Type        CalloutCategory `json:"Type"`
	Name        string          `json:"Name" validate:"required"`
	Tag         string          `json:"Tag" validate:"required"`
	Description string          `json:"Description"`
}

// GroupedCallouts maps each category to its rows
type GroupedCallouts map[CalloutCategory][]CalloutRow

// NewGroupedCallouts returns a value with every category key present
func NewGroupedCallouts() GroupedCallouts {
	g := make(GroupedCallouts, len(AllCategories()))
	for _, c := range AllCategories() {
		g[c] = []CalloutRow{}
	}
	return g
}

// Count returns the number of rows across all categories
func (g GroupedCallouts) Count() int {
	n := 0
	for _, rows := range g {
		n += len(rows)
	}
	return n
}

// GroupCallouts groups persisted callouts by category, always returning all five keys
func GroupCallouts(callouts []Callout) GroupedCallouts {
	g := NewGroupedCallouts()
	for _, c := range callouts {
		cat := ParseCalloutCategory(string(c.Type))
		g[cat] = append(g[cat], CalloutRow{
			Type:        cat,
			Name:        c.Name,
			Tag:         c.Tag,
			Description: c.Description,
		})
	}
	return g
}
