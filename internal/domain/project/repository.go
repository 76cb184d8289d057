package project

import "context"

// ProjectRepository persists projects within a single store
type ProjectRepository interface {
	FindByID(ctx context.Context, id uint) (*Project, error)
	FindByNumber(ctx context.Context, number string) (*Project, error)
	FindAll(ctx context.Context) ([]Project, error)
	// UpsertByNumber updates the row with data.Number in place or inserts it.
	// It is the only write path that establishes project identity.
	UpsertByNumber(ctx context.Context, data *Project) (*Project, error)
	// Create inserts p as is, keeping a caller-assigned ID
	Create(ctx context.Context, p *Project) error
}

// LocationRepository persists locations
type LocationRepository interface {
	FindByProject(ctx context.Context, projectID uint) ([]Location, error)
	FindByName(ctx context.Context, projectID uint, name string) (*Location, error)
	Create(ctx context.Context, loc *Location) error
}

// WallRepository reads walls
type WallRepository interface {
	FindByProject(ctx context.Context, projectID uint) ([]Wall, error)
}

// ProductRepository persists products and their custom fields
type ProductRepository interface {
	FindByProject(ctx context.Context, projectID uint) ([]Product, error)
	// Create inserts p and its custom fields
	Create(ctx context.Context, p *Product) error
	// DeleteByProject removes every product of the project with its custom fields
	DeleteByProject(ctx context.Context, projectID uint) error
}

// CalloutRepository persists callouts
type CalloutRepository interface {
	FindByProject(ctx context.Context, projectID uint) ([]Callout, error)
	// ReplaceAll deletes and re-inserts every persisted category of grouped
	// as one unit and returns the number of rows written
	ReplaceAll(ctx context.Context, projectID uint, grouped GroupedCallouts) (int, error)
}

// Repositories groups the repositories bound to one store session
type Repositories struct {
	Projects  ProjectRepository
	Locations LocationRepository
	Walls     WallRepository
	Products  ProductRepository
	Callouts  CalloutRepository
}

// UnitOfWork runs fn inside one transaction on one store. fn's error rolls the
// transaction back; nil commits it.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}
