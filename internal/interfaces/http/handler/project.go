package handler

import (
	"context"
	"sync"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/bootstrap"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/event"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/dto"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// ProjectCatalog is the catalog side of the persistence gateway
type ProjectCatalog interface {
	GetAllProjects(ctx context.Context) ([]project.Project, error)
	GetProjectByID(ctx context.Context, id uint) (*project.Project, error)
	SyncProjectsFromInnergy(ctx context.Context, progress func(int)) (int, error)
}

// ProjectActivator opens projects
type ProjectActivator interface {
	Activate(ctx context.Context, p *project.Project) (*bootstrap.ActivationResult, error)
	LoadEnrichedProject(ctx context.Context, p *project.Project) (*project.Detail, error)
}

// RecentLister lists recently opened projects
type RecentLister interface {
	List() []event.OpenedProject
}

// ProjectHandler serves the project catalog and project activation
type ProjectHandler struct {
	BaseHandler
	catalog   ProjectCatalog
	activator ProjectActivator
	recent    RecentLister
}

// NewProjectHandler creates a new ProjectHandler. recent may be nil.
func NewProjectHandler(catalog ProjectCatalog, activator ProjectActivator, recent RecentLister) *ProjectHandler {
	return &ProjectHandler{catalog: catalog, activator: activator, recent: recent}
}

// List returns every catalog project
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.catalog.GetAllProjects(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, projects)
}

// Sync pulls the remote project list into the catalog
func (h *ProjectHandler) Sync(c *gin.Context) {
	var (
		mu       sync.Mutex
		progress []int
	)
	count, err := h.catalog.SyncProjectsFromInnergy(c.Request.Context(), func(p int) {
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.SyncResponse{Count: count, Progress: progress})
}

// Get returns one catalog project
func (h *ProjectHandler) Get(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	h.Success(c, p)
}

// Activate runs the open-project workflow
func (h *ProjectHandler) Activate(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	result, err := h.activator.Activate(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Detail returns the project read from its store
func (h *ProjectHandler) Detail(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	detail, err := h.activator.LoadEnrichedProject(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Recent returns the recently opened projects, newest first
func (h *ProjectHandler) Recent(c *gin.Context) {
	if h.recent == nil {
		h.Success(c, []event.OpenedProject{})
		return
	}
	h.Success(c, h.recent.List())
}

func (h *ProjectHandler) project(c *gin.Context) (*project.Project, bool) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return nil, false
	}
	p, err := h.catalog.GetProjectByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return p, true
}

// RegisterRoutes adds the project routes to group
func (h *ProjectHandler) RegisterRoutes(group *router.DomainGroup) {
	group.GET("", h.List)
	group.POST("/sync", h.Sync)
	group.GET("/recent", h.Recent)
	group.GET("/:id", h.Get)
	group.POST("/:id/activate", h.Activate)
	group.GET("/:id/detail", h.Detail)
}
