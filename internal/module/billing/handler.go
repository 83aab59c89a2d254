package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velo/server/internal/shared/response"
)

// Handler handles HTTP requests for the plan catalog.
type Handler struct {
	repo Repository
}

// NewHandler creates a new billing handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the billing routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	billing := r.Group("/billing")
	{
		billing.GET("/plans", h.ListPlans)
	}
}

// ListPlans returns all active plans ordered for display.
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.repo.ListActivePlans(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list plans")
		return
	}

	responses := make([]*PlanResponse, len(plans))
	for i, plan := range plans {
		responses[i] = plan.ToResponse()
	}

	c.JSON(http.StatusOK, ListPlansResponse{Plans: responses})
}
