package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/callout"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/dto"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// CalloutService loads and saves callouts
type CalloutService interface {
	Load(ctx context.Context, projectID uint) (project.GroupedCallouts, error)
	SaveWithResult(ctx context.Context, projectID uint, grouped project.GroupedCallouts) (*callout.SaveResult, error)
	SaveRows(ctx context.Context, projectID uint, rows []callout.Row) (*callout.SaveResult, error)
}

// CalloutHandler serves project callouts
type CalloutHandler struct {
	BaseHandler
	service CalloutService
}

// NewCalloutHandler creates a new CalloutHandler
func NewCalloutHandler(service CalloutService) *CalloutHandler {
	return &CalloutHandler{service: service}
}

// Get returns the callouts of a project with every category present
func (h *CalloutHandler) Get(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	grouped, err := h.service.Load(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grouped)
}

// Put replaces the callouts of a project. The body is either an object
// keyed by category or a flat array of rows with a Type column.
func (h *CalloutHandler) Put(c *gin.Context) {
	id, ok := h.bindProjectID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeTooLarge), dto.ErrCodeTooLarge, err.Error())
		return
	}

	var result *callout.SaveResult
	switch trimmed := bytes.TrimSpace(body); {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var rows []callout.Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, err.Error())
			return
		}
		result, err = h.service.SaveRows(c.Request.Context(), id, rows)
	case len(trimmed) > 0 && trimmed[0] == '{':
		var items map[string][]callout.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, err.Error())
			return
		}
		result, err = h.service.SaveWithResult(c.Request.Context(), id, callout.NormalizeGrouped(items))
	default:
		h.BadRequest(c, "callouts must be an object keyed by category or an array of rows")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes adds the callout routes to group
func (h *CalloutHandler) RegisterRoutes(group *router.DomainGroup) {
	group.GET("/:id/callouts", h.Get)
	group.PUT("/:id/callouts", h.Put)
}
