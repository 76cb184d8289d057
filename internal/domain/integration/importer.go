package integration

import (
	"context"
	"errors"
	"strings"
)

// Importer Errors
var (
	ErrImporterNotConfigured   = errors.New("integration: importer not configured")
	ErrImporterRequestFailed   = errors.New("integration: importer request failed")
	ErrImporterInvalidResponse = errors.New("integration: invalid importer response")
	ErrImporterAuthFailed      = errors.New("integration: importer authentication failed")
	ErrRemoteProjectNotFound   = errors.New("integration: remote project not found")
	ErrRemoteProductsMissing   = errors.New("integration: remote returned no products")
)

// RawPayload is a decoded JSON object from the remote API
type RawPayload map[string]any

// Address is a structured postal address
type Address struct {
	Address1 string `json:"Address1"`
	Address2 string `json:"Address2"`
	City     string `json:"City"`
	State    string `json:"State"`
	Zip      string `json:"Zip"`
	Country  string `json:"Country"`
}

// Flatten joins the non-empty parts of the address with ", "
func (a Address) Flatten() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Address1, a.Address2, a.City, a.State, a.Zip, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether no address part is set
func (a Address) IsZero() bool {
	return a.Flatten() == ""
}

// RemoteProject is one entry of the remote project list
type RemoteProject struct {
	ID          string  `json:"id"`
	Number      string  `json:"number"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Address     Address `json:"address"`
}

// SummaryDescription returns the description, falling back to the flattened address
func (p RemoteProject) SummaryDescription() string {
	if d := strings.TrimSpace(p.Description); d != "" {
		return d
	}
	return p.Address.Flatten()
}

// IsActive reports whether the remote status is neither inactive nor archived
func IsActive(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "inactive", "archived", "closed":
		return false
	default:
		return true
	}
}

// ProjectImporter is the port to the external system of record
type ProjectImporter interface {
	// ListProjects returns active remote projects
	ListProjects(ctx context.Context) ([]RemoteProject, error)
	// FetchProject returns the raw project document
	FetchProject(ctx context.Context, id string) (RawPayload, error)
	// FetchProducts returns the raw products document, or nil when there is none
	FetchProducts(ctx context.Context, id string) (RawPayload, error)
}

// ImporterFactory builds an importer from credentials. It returns
// ErrImporterNotConfigured when apiKey or baseURL is empty.
type ImporterFactory func(apiKey, baseURL string) (ProjectImporter, error)
