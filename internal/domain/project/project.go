package project

import (
	"strconv"
	"strings"
	"time"
)

// Project is the aggregate root. Number is the natural key.
type Project struct {
	ID          uint      `json:"id"`
	Number      string    `json:"number"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	ExternalID  string    `json:"external_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoreRef identifies the dedicated store of a project
type StoreRef struct {
	Number string
	ID     uint
}

// StoreRef returns the reference used to locate the project's own store
func (p *Project) StoreRef() StoreRef {
	if p == nil {
		return StoreRef{}
	}
	return StoreRef{Number: p.Number, ID: p.ID}
}

// Key returns the preferred identity for the store: number, then id, then empty
func (r StoreRef) Key() string {
	if n := strings.TrimSpace(r.Number); n != "" {
		return n
	}
	if r.ID != 0 {
		return "project-" + strconv.FormatUint(uint64(r.ID), 10)
	}
	return ""
}

// Apply copies the mutable attributes of data onto p. Identity fields are left alone.
func (p *Project) Apply(data *Project) {
	p.Name = data.Name
	p.Description = data.Description
	if data.Address != "" {
		p.Address = data.Address
	}
	if data.ExternalID != "" {
		p.ExternalID = data.ExternalID
	}
}

// Location is a named area of a project (kitchen, bath 2, ...)
type Location struct {
	ID        uint   `json:"id"`
	ProjectID uint   `json:"project_id"`
	Name      string `json:"name"`
}

// Wall belongs to a location and optionally hosts products
type Wall struct {
	ID         uint   `json:"id"`
	ProjectID  uint   `json:"project_id"`
	LocationID uint   `json:"location_id"`
	Name       string `json:"name"`
}

// Detail is a project enriched with the contents of its own store
type Detail struct {
	Project   Project         `json:"project"`
	Locations []Location      `json:"locations"`
	Walls     []Wall          `json:"walls"`
	Products  []Product       `json:"products"`
	Callouts  GroupedCallouts `json:"callouts"`
}
