package edit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/velo/server/internal/shared/errors"
	"github.com/velo/server/internal/shared/middleware"
	"github.com/velo/server/internal/shared/response"
)

// Handler handles HTTP requests for the edit pipeline.
type Handler struct {
	service *Service
}

// NewHandler creates a new edit handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the edit routes. All of them require
// authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	edits := r.Group("/edits")
	{
		edits.POST("", h.ProcessEdit)
		edits.GET("", h.History)
	}

	// Route shape the first app versions call.
	r.POST("/edit", h.ProcessEdit)
}

// ProcessEdit runs one AI edit for the authenticated user.
//
//	@Summary		Process an image edit
//	@Description	Run an AI edit command against an uploaded image
//	@Tags			Edit
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		EditRequest	true	"Edit request"
//	@Success		200		{object}	EditResponse
//	@Failure		401		{object}	EditResponse
//	@Failure		403		{object}	EditResponse
//	@Failure		500		{object}	EditResponse
//	@Router			/edits [post]
func (h *Handler) ProcessEdit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, &EditResponse{
			Success:   false,
			ModelUsed: "none",
			Error:     "unauthorized",
		})
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &EditResponse{
			Success:   false,
			ModelUsed: "none",
			Error:     err.Error(),
		})
		return
	}

	resp, err := h.service.ProcessEdit(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(apperrors.GetStatusCode(err), resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns the authenticated user's recent edits.
//
//	@Summary		List edit history
//	@Tags			Edit
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Max records (default 50)"
//	@Success		200		{object}	HistoryResponse
//	@Router			/edits [get]
func (h *Handler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	limit := 50
	if v, ok := c.GetQuery("limit"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	edits, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		response.InternalError(c, "failed to list edits")
		return
	}

	responses := make([]*EditRecordResponse, len(edits))
	for i, e := range edits {
		responses[i] = e.ToResponse()
	}

	c.JSON(http.StatusOK, HistoryResponse{Edits: responses})
}
