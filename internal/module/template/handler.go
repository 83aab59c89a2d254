package template

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/velo/server/internal/shared/response"
)

// Handler handles HTTP requests for templates.
type Handler struct {
	repo Repository
}

// NewHandler creates a new template handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the template routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.GET("", h.List)
		templates.POST("/:id/use", h.RecordUse)
	}
}

// List returns active templates, optionally filtered by role.
//
//	@Summary		List templates
//	@Tags			Template
//	@Produce		json
//	@Param			role	query		string	false	"Filter by role tag"
//	@Success		200		{object}	map[string][]Template
//	@Router			/templates [get]
func (h *Handler) List(c *gin.Context) {
	role := c.Query("role")

	templates, err := h.repo.ListForRole(c.Request.Context(), role)
	if err != nil {
		response.InternalError(c, "failed to list templates")
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// RecordUse bumps a template's usage counter.
//
//	@Summary		Record template use
//	@Tags			Template
//	@Produce		json
//	@Param			id	path		string	true	"Template ID"
//	@Success		204	{object}	nil
//	@Failure		404	{object}	map[string]string
//	@Router			/templates/{id}/use [post]
func (h *Handler) RecordUse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}

	if err := h.repo.IncrementUsage(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			response.NotFound(c, "template not found")
			return
		}
		response.InternalError(c, "failed to record use")
		return
	}

	c.Status(http.StatusNoContent)
}
