package handler

import (
	"context"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/reconcile"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/dto"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// ProductService reconciles stored and remote products
type ProductService interface {
	GetProductsFromDB(ctx context.Context, projectID uint) ([]project.Product, error)
	Refresh(ctx context.Context, projectID uint) (*reconcile.RefreshResult, error)
	Confirm(ctx context.Context, projectID uint) (int, error)
	Discard(projectID uint) bool
	Staged(projectID uint) (*reconcile.Staged, bool)
}

// ProductHandler serves stored products and the refresh/confirm flow
type ProductHandler struct {
	BaseHandler
	service ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List returns the stored products of a project
func (h *ProductHandler) List(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	products, err := h.service.GetProductsFromDB(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Refresh compares remote products with stored ones and stages differences
func (h *ProductHandler) Refresh(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	result, err := h.service.Refresh(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetStaged returns the products waiting for confirmation
func (h *ProductHandler) GetStaged(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	staged, found := h.service.Staged(id)
	if !found {
		h.HandleError(c, shared.NewDomainError(shared.CodeNotFound, "no staged products"))
		return
	}
	h.Success(c, staged)
}

// Confirm writes the staged products
func (h *ProductHandler) Confirm(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	written, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ConfirmResponse{ProjectID: id, Written: written})
}

// Discard drops the staged products
func (h *ProductHandler) Discard(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	h.Success(c, dto.DiscardResponse{ProjectID: id, Discarded: h.service.Discard(id)})
}

// RegisterRoutes adds the product routes to group
func (h *ProductHandler) RegisterRoutes(group *router.DomainGroup) {
	group.GET("/:id/products", h.List)
	group.POST("/:id/products/refresh", h.Refresh)
	group.GET("/:id/products/staged", h.GetStaged)
	group.POST("/:id/products/confirm", h.Confirm)
	group.DELETE("/:id/products/staged", h.Discard)
}
